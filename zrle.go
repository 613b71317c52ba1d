package vnc

import (
	"fmt"
	"io"
)

const zrleTileSize = 64

// zrleCursor pulls decompressed bytes directly from the session's live
// ZRLE zlib.Reader, one tile at a time. A ZRLE rectangle's total
// decompressed length isn't known ahead of parsing — each tile's
// subencoding determines its own size — so unlike TIGHT's filters,
// which know their exact output size upfront, ZRLE has to read
// incrementally off the persistent stream as tile parsing discovers
// how many bytes each tile actually consumed.
type zrleCursor struct {
	r io.Reader
}

func (c *zrleCursor) readByte() (byte, error) {
	var b [1]byte
	if _, err := io.ReadFull(c.r, b[:]); err != nil {
		return 0, fmt.Errorf("zrle: truncated decompressed stream: %w", err)
	}
	return b[0], nil
}

func (c *zrleCursor) readBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(c.r, b); err != nil {
		return nil, fmt.Errorf("zrle: truncated decompressed stream: %w", err)
	}
	return b, nil
}

// cpixelSize returns the CPIXEL width for format: 3 bytes when the
// format is 32bpp true-colour with depth <= 24 (the channels fit inside
// 3 of the pixel's 4 bytes), else the full bpp/8 bytes, per spec.md
// §4.5 and §9.3's decision to follow CPIXEL sizing rather than the
// advertised bpp unconditionally.
func cpixelSize(pf PixelFormat) int {
	if pf.BPP == 32 && pf.TrueColour && pf.Depth <= 24 {
		return 3
	}
	return int(pf.BPP) / 8
}

func bitsPerIndex(paletteSize int) int {
	switch {
	case paletteSize <= 2:
		return 1
	case paletteSize <= 4:
		return 2
	default:
		return 4
	}
}

// decodeZRLE implements spec.md §4.5. The rectangle's payload is a
// u32be compressed length followed by that many zlib-compressed bytes,
// inflated through the session's single shared ZRLE stream (not one of
// the four TIGHT slots), then parsed as 64x64 tiles.
func decodeZRLE(s *Session, rect Rectangle) error {
	mark := s.reader.Mark()

	length, ok := s.reader.ReadUint32BE()
	if !ok {
		s.reader.Reset(mark)
		return errNeedMoreData
	}
	compressed, ok := s.reader.ReadBytes(int(length))
	if !ok {
		s.reader.Reset(mark)
		return errNeedMoreData
	}

	if err := s.zlibBank.ZRLEPush(compressed); err != nil {
		return err
	}

	cpixel := cpixelSize(s.pixelConv.Format())
	scratch := make([]hextilePixel, rect.Area())
	cur := &zrleCursor{r: s.zlibBank.ZRLEReader()}

	for ty := 0; ty < int(rect.H); ty += zrleTileSize {
		tileH := zrleTileSize
		if int(rect.H)-ty < zrleTileSize {
			tileH = int(rect.H) - ty
		}
		for tx := 0; tx < int(rect.W); tx += zrleTileSize {
			tileW := zrleTileSize
			if int(rect.W)-tx < zrleTileSize {
				tileW = int(rect.W) - tx
			}
			if err := decodeZRLETile(s, cur, scratch, int(rect.W), tx, ty, tileW, tileH, cpixel); err != nil {
				// The tile parser found bytes that don't form a valid
				// ZRLE payload; the stream's position is now unknown
				// relative to tile boundaries, so it can't be trusted to
				// resume on the next rectangle.
				s.zlibBank.ResetZRLE()
				return err
			}
		}
	}

	for y := 0; y < int(rect.H); y++ {
		for x := 0; x < int(rect.W); x++ {
			p := scratch[y*int(rect.W)+x]
			s.framebuffer.SetPixel(int(rect.X)+x, int(rect.Y)+y, p.r, p.g, p.b)
		}
	}
	return nil
}

func (s *Session) readCPIXEL(cur *zrleCursor, cpixel int) (hextilePixel, error) {
	b, err := cur.readBytes(cpixel)
	if err != nil {
		return hextilePixel{}, err
	}
	var word uint32
	switch cpixel {
	case 1:
		word = uint32(b[0])
	case 2:
		word = uint32(b[0]) | uint32(b[1])<<8
	case 3:
		word = uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16
	default:
		word = uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
	}
	r, g, b2 := s.pixelConv.ToRGB(word)
	return hextilePixel{r, g, b2}, nil
}

func decodeZRLETile(s *Session, cur *zrleCursor, scratch []hextilePixel, rectW, tx, ty, tileW, tileH, cpixel int) error {
	subencoding, err := cur.readByte()
	if err != nil {
		return codecErrorf(err, "zrle: failed to read tile subencoding")
	}

	switch {
	case subencoding == 0: // Raw
		for dy := 0; dy < tileH; dy++ {
			for dx := 0; dx < tileW; dx++ {
				p, err := s.readCPIXEL(cur, cpixel)
				if err != nil {
					return codecErrorf(err, "zrle: raw tile")
				}
				scratch[(ty+dy)*rectW+(tx+dx)] = p
			}
		}
		return nil

	case subencoding == 1: // Solid
		p, err := s.readCPIXEL(cur, cpixel)
		if err != nil {
			return codecErrorf(err, "zrle: solid tile")
		}
		for dy := 0; dy < tileH; dy++ {
			for dx := 0; dx < tileW; dx++ {
				scratch[(ty+dy)*rectW+(tx+dx)] = p
			}
		}
		return nil

	case subencoding >= 2 && subencoding <= 16: // Packed palette
		paletteSize := int(subencoding)
		palette := make([]hextilePixel, paletteSize)
		for i := range palette {
			p, err := s.readCPIXEL(cur, cpixel)
			if err != nil {
				return codecErrorf(err, "zrle: palette tile")
			}
			palette[i] = p
		}

		bits := bitsPerIndex(paletteSize)
		rowBytes := (tileW*bits + 7) / 8
		for dy := 0; dy < tileH; dy++ {
			row, err := cur.readBytes(rowBytes)
			if err != nil {
				return codecErrorf(err, "zrle: palette index row")
			}
			for dx := 0; dx < tileW; dx++ {
				idx := unpackIndex(row, dx, bits)
				if idx >= paletteSize {
					return codecErrorf(nil, "zrle: palette index %d out of range (size %d)", idx, paletteSize)
				}
				scratch[(ty+dy)*rectW+(tx+dx)] = palette[idx]
			}
		}
		return nil

	case subencoding == 128:
		return unsupportedErrorf("zrle: Plain RLE subencoding not implemented")

	case subencoding == 129:
		return unsupportedErrorf("zrle: reserved subencoding 129")

	case subencoding >= 130:
		return unsupportedErrorf("zrle: Palette RLE subencoding not implemented (%d)", subencoding)

	default: // 17-127 reserved
		return unsupportedErrorf("zrle: reserved subencoding %d", subencoding)
	}
}

// unpackIndex extracts the bits-wide packed index for pixel column x
// from a byte-padded row, most-significant-bits-first (the RFB packed
// palette convention).
func unpackIndex(row []byte, x, bits int) int {
	bitPos := x * bits
	byteIdx := bitPos / 8
	shift := 8 - bits - (bitPos % 8)
	return int(row[byteIdx]>>uint(shift)) & ((1 << bits) - 1)
}
