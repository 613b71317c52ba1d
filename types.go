package vnc

import "encoding/binary"

// PixelFormat is the 16-byte wire record from spec.md §3. Field names
// follow the teacher's ClientConn.pixelFormat usage (BPP, RedMax, ...)
// generalized to the full RFB field set.
type PixelFormat struct {
	BPP           uint8 // bits_per_pixel: 8, 16, or 32
	Depth         uint8
	BigEndianFlag bool
	TrueColour    bool
	RedMax        uint16
	GreenMax      uint16
	BlueMax       uint16
	RedShift      uint8
	GreenShift    uint8
	BlueShift     uint8
}

// DefaultPixelFormat is the 32bpp true-colour format the Session
// advertises before ServerInit, matching scenario 1's expectations.
func DefaultPixelFormat() PixelFormat {
	return PixelFormat{
		BPP:        32,
		Depth:      24,
		TrueColour: true,
		RedMax:     255,
		GreenMax:   255,
		BlueMax:    255,
		RedShift:   16,
		GreenShift: 8,
		BlueShift:  0,
	}
}

// Marshal writes the 16-byte wire form (3 trailing padding bytes).
func (p PixelFormat) Marshal() []byte {
	buf := make([]byte, 16)
	buf[0] = p.BPP
	buf[1] = p.Depth
	buf[2] = boolToByte(p.BigEndianFlag)
	buf[3] = boolToByte(p.TrueColour)
	putUint16BE(buf[4:6], p.RedMax)
	putUint16BE(buf[6:8], p.GreenMax)
	putUint16BE(buf[8:10], p.BlueMax)
	buf[10] = p.RedShift
	buf[11] = p.GreenShift
	buf[12] = p.BlueShift
	// buf[13:16] left zero: padding.
	return buf
}

// ReadPixelFormat parses a 16-byte PixelFormat from r, deferring (via
// errNeedMoreData) if fewer than 16 bytes are buffered.
func ReadPixelFormat(r *ByteReader) (PixelFormat, error) {
	b, ok := r.PeekBytes(16)
	if !ok {
		return PixelFormat{}, errNeedMoreData
	}
	pf := PixelFormat{
		BPP:           b[0],
		Depth:         b[1],
		BigEndianFlag: b[2] != 0,
		TrueColour:    b[3] != 0,
		RedMax:        getUint16BE(b[4:6]),
		GreenMax:      getUint16BE(b[6:8]),
		BlueMax:       getUint16BE(b[8:10]),
		RedShift:      b[10],
		GreenShift:    b[11],
		BlueShift:     b[12],
	}
	r.Discard(16)
	return pf, nil
}

func boolToByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

func putUint16BE(b []byte, v uint16) {
	b[0] = byte(v >> 8)
	b[1] = byte(v)
}

func getUint16BE(b []byte) uint16 {
	return uint16(b[0])<<8 | uint16(b[1])
}

// Rectangle is the rectangle header from spec.md §3: four u16 fields
// (x, y, w, h) plus the signed 32-bit encoding type that follows them on
// the wire.
type Rectangle struct {
	X, Y, W, H uint16
	Encoding   int32
}

// Area returns the rectangle's pixel count, used to size RAW payloads.
func (r Rectangle) Area() int { return int(r.W) * int(r.H) }

// ReadRectangleHeader parses the 8-byte x/y/w/h header plus the 4-byte
// encoding type (12 bytes total), deferring if incomplete.
func ReadRectangleHeader(r *ByteReader) (Rectangle, error) {
	b, ok := r.PeekBytes(12)
	if !ok {
		return Rectangle{}, errNeedMoreData
	}
	rect := Rectangle{
		X:        getUint16BE(b[0:2]),
		Y:        getUint16BE(b[2:4]),
		W:        getUint16BE(b[4:6]),
		H:        getUint16BE(b[6:8]),
		Encoding: int32(binary.BigEndian.Uint32(b[8:12])),
	}
	r.Discard(12)
	return rect, nil
}
