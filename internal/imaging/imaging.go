// Package imaging synthesizes the simulated camera's test image: a
// 2304x4096 16-bit image embedding the current camera_number and
// frame_number as ASCII text rendered into pixels, for visual
// identification. Rendering uses golang.org/x/image's pure-Go bitmap
// font rather than hand-rolling glyph bitmaps.
package imaging

import (
	"encoding/binary"
	"fmt"
	"image"
	"image/color"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

var byteOrder = binary.NativeEndian

// Generator renders deterministic synthetic frames of fixed dimensions.
type Generator struct {
	width, height int
}

// NewGenerator returns a generator for width x height 16-bit frames.
func NewGenerator(width, height int) *Generator {
	return &Generator{width: width, height: height}
}

// Generate returns a 16-bit, host-byte-order raw frame of g's dimensions,
// stamped with cameraNumber and frameNumber as rendered ASCII text.
func (g *Generator) Generate(cameraNumber uint, frameNumber uint64) []byte {
	gray := image.NewGray(image.Rect(0, 0, g.width, g.height))

	label := fmt.Sprintf("cam %d frame %d", cameraNumber, frameNumber)
	d := &font.Drawer{
		Dst:  gray,
		Src:  image.NewUniform(color.Gray{Y: 0xff}),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(16, 32),
	}
	d.DrawString(label)

	raw := make([]byte, g.width*g.height*2)
	for i, px := range gray.Pix {
		// Stretch the 8-bit glyph intensity to 16-bit so the stamp reads
		// back as a bright region against a dark sensor floor, matching
		// the 16-bit depth the protocol decoder expects.
		byteOrder.PutUint16(raw[2*i:], uint16(px)<<8)
	}
	return raw
}
