// Package diag holds operator-facing diagnostic tooling: a CRC tag
// attached to frames the capture core had to drop, and an on-demand FITS
// snapshot of the last delivered frame for visual inspection.
package diag

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/astrogo/fitsio"
	"github.com/snksoft/crc"

	"github.com/stfc-aeg/odin-orca-quest/internal/protocol"
)

var byteOrder = binary.NativeEndian

// crcTable is the CCITT table, matching the one-line checksum sibling
// camera tooling tags corrupted transfers with.
var crcTable = crc.NewTable(crc.CCITT)

// TagDrop computes a short CRC-16 tag for a dropped frame's payload, for
// inclusion in the capture core's drop log. It is not a data-integrity
// check (the payload is being discarded, not retried); it exists so two
// drop log lines that reference the same bytes are recognisable as such
// across a crash/restart.
func TagDrop(payload []byte) uint16 {
	return uint16(crc.CalculateCRC(crcTable, payload))
}

// SnapshotFITS writes buf's frame 0 payload out as a single-HDU FITS image,
// XResolution x YResolution, for operator inspection. Pixels are stored as
// FITS 16-bit signed integers holding the raw sample bits; no BZERO offset
// is written, so samples of 32768 and above read back as negative. It is a
// "dump the current frame to disk" debug command wired to the protocol
// package's layout accessors instead of a raw offset literal.
func SnapshotFITS(w io.Writer, buf []byte) error {
	f, err := fitsio.Create(w)
	if err != nil {
		return fmt.Errorf("diag: create fits writer: %w", err)
	}
	defer f.Close()

	img := fitsio.NewImage(16, []int{protocol.XResolution, protocol.YResolution})
	data := protocol.GetFrameData(buf, 0)
	pix := make([]int16, protocol.XResolution*protocol.YResolution)
	for i := range pix {
		pix[i] = int16(byteOrder.Uint16(data[2*i:]))
	}
	if err := img.Write(pix); err != nil {
		return fmt.Errorf("diag: write fits image data: %w", err)
	}
	if err := f.Write(img); err != nil {
		return fmt.Errorf("diag: write fits hdu: %w", err)
	}
	return nil
}
