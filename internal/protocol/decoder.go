// Package protocol lays out and accesses the binary super-frame and
// raw-frame headers embedded in pool buffers. Field order and widths are a
// wire-compatibility contract with downstream consumers; packing is not
// relied upon — every accessor computes its byte offset explicitly
// against a plain []byte, the way the original X10GProtocolDecoder
// computes offsets off packed structs rather than trusting a literal
// struct assignment.
package protocol

import "encoding/binary"

// Fixed dimensional constants for this decoder.
const (
	PacketsPerFrame     = 1
	FrameOuterChunkSize = 1 // N_outer

	XResolution  = 2304
	YResolution  = 4096
	BitDepthByte = 2 // 16-bit raw

	PayloadSize = XResolution * YResolution * BitDepthByte
)

// byte order is host order throughout this decoder; big-endian is only
// required on the wire for packet-level frame_number/packet_number
// fields, which belong to the 10GbE packet-ingest path this core bypasses
// and so never appear here.
var byteOrder = binary.NativeEndian

// Super-frame header field offsets, for a single outer chunk
// (FrameOuterChunkSize == 1).
const (
	sfFrameNumberOff   = 0
	sfFramesReceivedOff = sfFrameNumberOff + 8
	sfStartTimeOff     = sfFramesReceivedOff + 4
	sfCompleteTimeOff  = sfStartTimeOff + 8
	sfTimeDeltaOff     = sfCompleteTimeOff + 8
	sfImageSizeOff     = sfTimeDeltaOff + 8
	sfFrameStateOff    = sfImageSizeOff + 8
	superFrameHeaderSize = sfFrameStateOff + FrameOuterChunkSize
)

// Raw-frame header field offsets, relative to the start of one raw-frame
// header.
const (
	rfFrameNumberOff     = 0
	rfPacketsReceivedOff = rfFrameNumberOff + 8
	rfSofMarkerCountOff  = rfPacketsReceivedOff + 4
	rfEofMarkerCountOff  = rfSofMarkerCountOff + 4
	rfStartTimeOff       = rfEofMarkerCountOff + 4
	rfCompleteTimeOff    = rfStartTimeOff + 8
	rfTimeDeltaOff       = rfCompleteTimeOff + 8
	rfImageSizeOff       = rfTimeDeltaOff + 4
	rfPacketStateOff     = rfImageSizeOff + 8
	frameHeaderSize      = rfPacketStateOff + PacketsPerFrame
)

const frameDataSize = PacketsPerFrame * PayloadSize

// SuperFrameHeaderSize returns the fixed size, in bytes, of the super-frame
// header.
func SuperFrameHeaderSize() int { return superFrameHeaderSize }

// FrameHeaderSize returns the fixed size, in bytes, of one raw-frame header.
func FrameHeaderSize() int { return frameHeaderSize }

// FrameDataSize returns the size, in bytes, of one raw frame's payload.
func FrameDataSize() int { return frameDataSize }

// FrameBufferSize returns the total size, in bytes, a pool buffer must be
// to hold one super-frame (header + N_outer * (raw header + payload)).
func FrameBufferSize() int {
	return superFrameHeaderSize + (frameHeaderSize+frameDataSize)*FrameOuterChunkSize
}

// GetFrameHeader returns the byte range of the i'th raw-frame header
// (0 <= i < FrameOuterChunkSize) within buf.
func GetFrameHeader(buf []byte, i int) []byte {
	start := superFrameHeaderSize + i*(frameHeaderSize+frameDataSize)
	return buf[start : start+frameHeaderSize]
}

// GetFrameData returns the byte range of the i'th raw frame's payload
// within buf.
func GetFrameData(buf []byte, i int) []byte {
	start := superFrameHeaderSize + i*(frameHeaderSize+frameDataSize) + frameHeaderSize
	return buf[start : start+frameDataSize]
}

// GetImageDataStart returns the sub-slice of buf that begins at the first
// byte past all headers (i.e. the start of frame 0's payload).
func GetImageDataStart(buf []byte) []byte {
	return buf[superFrameHeaderSize+frameHeaderSize:]
}

// --- super-frame header accessors ---

func SetSuperFrameNumber(buf []byte, n uint64) {
	byteOrder.PutUint64(buf[sfFrameNumberOff:], n)
}

func GetSuperFrameNumber(buf []byte) uint64 {
	return byteOrder.Uint64(buf[sfFrameNumberOff:])
}

func SetSuperFrameStartTime(buf []byte, t uint64) {
	byteOrder.PutUint64(buf[sfStartTimeOff:], t)
}

func GetSuperFrameStartTime(buf []byte) uint64 {
	return byteOrder.Uint64(buf[sfStartTimeOff:])
}

func SetSuperFrameCompleteTime(buf []byte, t uint64) {
	byteOrder.PutUint64(buf[sfCompleteTimeOff:], t)
}

func GetSuperFrameCompleteTime(buf []byte) uint64 {
	return byteOrder.Uint64(buf[sfCompleteTimeOff:])
}

func SetSuperFrameTimeDelta(buf []byte, d uint64) {
	byteOrder.PutUint64(buf[sfTimeDeltaOff:], d)
}

func GetSuperFrameTimeDelta(buf []byte) uint64 {
	return byteOrder.Uint64(buf[sfTimeDeltaOff:])
}

func SetSuperFrameImageSize(buf []byte, n uint64) {
	byteOrder.PutUint64(buf[sfImageSizeOff:], n)
}

func GetSuperFrameImageSize(buf []byte) uint64 {
	return byteOrder.Uint64(buf[sfImageSizeOff:])
}

// IncrementFramesReceived bumps the super-frame's frames_received counter
// and marks frame i present in the frame_state bitmap.
func IncrementFramesReceived(buf []byte, i int) {
	n := byteOrder.Uint32(buf[sfFramesReceivedOff:])
	byteOrder.PutUint32(buf[sfFramesReceivedOff:], n+1)
	buf[sfFrameStateOff+i] = 1
}

func GetFramesReceived(buf []byte) uint32 {
	return byteOrder.Uint32(buf[sfFramesReceivedOff:])
}

func GetFrameState(buf []byte, i int) uint8 {
	return buf[sfFrameStateOff+i]
}

// --- raw-frame header accessors ---

func SetFrameNumber(hdr []byte, n uint64) {
	byteOrder.PutUint64(hdr[rfFrameNumberOff:], n)
}

func GetFrameNumber(hdr []byte) uint64 {
	return byteOrder.Uint64(hdr[rfFrameNumberOff:])
}

func SetFrameStartTime(hdr []byte, t uint64) {
	byteOrder.PutUint64(hdr[rfStartTimeOff:], t)
}

func GetFrameStartTime(hdr []byte) uint64 {
	return byteOrder.Uint64(hdr[rfStartTimeOff:])
}

func SetFrameCompleteTime(hdr []byte, t uint64) {
	byteOrder.PutUint64(hdr[rfCompleteTimeOff:], t)
}

func GetFrameCompleteTime(hdr []byte) uint64 {
	return byteOrder.Uint64(hdr[rfCompleteTimeOff:])
}

func SetImageSize(hdr []byte, n uint64) {
	byteOrder.PutUint64(hdr[rfImageSizeOff:], n)
}

func GetImageSize(hdr []byte) uint64 {
	return byteOrder.Uint64(hdr[rfImageSizeOff:])
}

func GetPacketsReceived(hdr []byte) uint32 {
	return byteOrder.Uint32(hdr[rfPacketsReceivedOff:])
}

// SetPacketReceived marks packet pkt present in hdr's packet_state bitmap
// and increments packets_received. It fails if pkt >= PacketsPerFrame.
func SetPacketReceived(hdr []byte, pkt int) bool {
	if pkt >= PacketsPerFrame {
		return false
	}
	hdr[rfPacketStateOff+pkt] = 1
	n := byteOrder.Uint32(hdr[rfPacketsReceivedOff:])
	byteOrder.PutUint32(hdr[rfPacketsReceivedOff:], n+1)
	return true
}

// GetPacketsDropped returns PacketsPerFrame - packets_received
func GetPacketsDropped(hdr []byte) uint32 {
	return PacketsPerFrame - GetPacketsReceived(hdr)
}
