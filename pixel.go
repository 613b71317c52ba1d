package vnc

// PixelConverter turns a raw pixel word under a given PixelFormat into
// an 8-bit-per-channel RGB triple (spec.md §4.7). Per-channel
// (shift, max) is stored whenever the PixelFormat changes; no scale
// factor is precomputed. The hot path is one shift and one mask per
// channel, plus a multiply by 255 and a divide by max for any channel
// whose max is not 255.
type PixelConverter struct {
	format PixelFormat
	red    channelConv
	green  channelConv
	blue   channelConv
}

type channelConv struct {
	shift uint8
	max   uint16
}

// NewPixelConverter precomputes the channel table for format.
func NewPixelConverter(format PixelFormat) *PixelConverter {
	return &PixelConverter{
		format: format,
		red:    channelConv{format.RedShift, format.RedMax},
		green:  channelConv{format.GreenShift, format.GreenMax},
		blue:   channelConv{format.BlueShift, format.BlueMax},
	}
}

// SetFormat replaces the converter's PixelFormat, recomputing the
// per-channel table.
func (p *PixelConverter) SetFormat(format PixelFormat) {
	*p = *NewPixelConverter(format)
}

// Format returns the PixelFormat currently in effect.
func (p *PixelConverter) Format() PixelFormat { return p.format }

// ToRGB converts a raw pixel word to an opaque 8-bit-per-channel triple.
func (p *PixelConverter) ToRGB(pixel uint32) (r, g, b uint8) {
	return p.red.convert(pixel), p.green.convert(pixel), p.blue.convert(pixel)
}

func (c channelConv) convert(pixel uint32) uint8 {
	if c.max == 0 {
		return 0
	}
	v := (pixel >> c.shift) & uint32(c.max)
	if c.max == 255 {
		return uint8(v)
	}
	return uint8(v * 255 / uint32(c.max))
}

// littleEndianWord reconstructs a little-endian pixel word from 1-4
// already-buffered bytes, for callers (TIGHT's copy, palette and
// gradient filters) that have the bytes in hand rather than a reader.
func littleEndianWord(b []byte) uint32 {
	var w uint32
	for i, by := range b {
		w |= uint32(by) << uint(8*i)
	}
	return w
}

// decodeRawPixelWord reads a little-endian pixel word of the given byte
// width from r. Widths 1 to 4 are supported, each read as a plain
// little-endian integer zero-extended to 32 bits; any other width
// returns false.
func decodeRawPixelWord(r *ByteReader, bytesPerPixel int) (uint32, bool) {
	switch bytesPerPixel {
	case 1:
		v, ok := r.ReadUint8()
		return uint32(v), ok
	case 2:
		v, ok := r.ReadUint16LE()
		return uint32(v), ok
	case 4:
		v, ok := r.ReadUint32LE()
		return v, ok
	case 3:
		b, ok := r.PeekBytes(3)
		if !ok {
			return 0, false
		}
		r.Discard(3)
		return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16, true
	default:
		return 0, false
	}
}
