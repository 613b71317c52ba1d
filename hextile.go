package vnc

// HEXTILE subencoding mask bits, spec.md §4.4.
const (
	hextileRaw                 = 0x01
	hextileBackgroundSpecified = 0x02
	hextileForegroundSpecified = 0x04
	hextileAnySubrects         = 0x08
	hextileSubrectsColoured    = 0x10
)

// hextilePixel is a decoded 8-bit-per-channel color, used for the
// tile's persistent background/foreground state.
type hextilePixel struct{ r, g, b uint8 }

// decodeHextile implements spec.md §4.4: a rectangle tiled in
// row-major 16x16 tiles (edge tiles narrower/shorter), each carrying a
// subencoding mask that selects raw pixels, a background/foreground
// color, and any number of colored or foreground-colored subrects.
// Background and foreground persist across tiles within one
// rectangle, never across rectangles.
//
// The whole rectangle is decoded into a scratch buffer first; only on
// full success are the pixels blitted into the framebuffer and the
// reader's consumption committed, so a short read rewinds cleanly
// (spec.md §4.1's must-succeed-or-defer rule extended to rectangle
// payloads).
func decodeHextile(s *Session, rect Rectangle) error {
	mark := s.reader.Mark()
	bytesPerPixel := int(s.pixelConv.Format().BPP) / 8
	scratch := make([]hextilePixel, rect.Area())

	var background, foreground hextilePixel

	for ty := 0; ty < int(rect.H); ty += 16 {
		tileH := 16
		if int(rect.H)-ty < 16 {
			tileH = int(rect.H) - ty
		}
		for tx := 0; tx < int(rect.W); tx += 16 {
			tileW := 16
			if int(rect.W)-tx < 16 {
				tileW = int(rect.W) - tx
			}

			mask, ok := s.reader.ReadUint8()
			if !ok {
				s.reader.Reset(mark)
				return errNeedMoreData
			}

			if mask&hextileRaw != 0 {
				for dy := 0; dy < tileH; dy++ {
					for dx := 0; dx < tileW; dx++ {
						word, ok := decodeRawPixelWord(s.reader, bytesPerPixel)
						if !ok {
							s.reader.Reset(mark)
							return errNeedMoreData
						}
						r, g, b := s.pixelConv.ToRGB(word)
						scratch[(ty+dy)*int(rect.W)+(tx+dx)] = hextilePixel{r, g, b}
					}
				}
				continue
			}

			if mask&hextileBackgroundSpecified != 0 {
				word, ok := decodeRawPixelWord(s.reader, bytesPerPixel)
				if !ok {
					s.reader.Reset(mark)
					return errNeedMoreData
				}
				r, g, b := s.pixelConv.ToRGB(word)
				background = hextilePixel{r, g, b}
			}

			if mask&hextileForegroundSpecified != 0 {
				word, ok := decodeRawPixelWord(s.reader, bytesPerPixel)
				if !ok {
					s.reader.Reset(mark)
					return errNeedMoreData
				}
				r, g, b := s.pixelConv.ToRGB(word)
				foreground = hextilePixel{r, g, b}
			}

			for dy := 0; dy < tileH; dy++ {
				for dx := 0; dx < tileW; dx++ {
					scratch[(ty+dy)*int(rect.W)+(tx+dx)] = background
				}
			}

			if mask&hextileAnySubrects != 0 {
				count, ok := s.reader.ReadUint8()
				if !ok {
					s.reader.Reset(mark)
					return errNeedMoreData
				}
				coloured := mask&hextileSubrectsColoured != 0

				for i := 0; i < int(count); i++ {
					color := foreground
					if coloured {
						word, ok := decodeRawPixelWord(s.reader, bytesPerPixel)
						if !ok {
							s.reader.Reset(mark)
							return errNeedMoreData
						}
						r, g, b := s.pixelConv.ToRGB(word)
						color = hextilePixel{r, g, b}
					}

					xy, ok := s.reader.ReadUint8()
					if !ok {
						s.reader.Reset(mark)
						return errNeedMoreData
					}
					wh, ok := s.reader.ReadUint8()
					if !ok {
						s.reader.Reset(mark)
						return errNeedMoreData
					}

					subX := int(xy>>4) & 0x0F
					subY := int(xy) & 0x0F
					subW := int(wh>>4)&0x0F + 1
					subH := int(wh)&0x0F + 1

					for sy := 0; sy < subH; sy++ {
						for sx := 0; sx < subW; sx++ {
							px := tx + subX + sx
							py := ty + subY + sy
							if px < int(rect.W) && py < int(rect.H) {
								scratch[py*int(rect.W)+px] = color
							}
						}
					}
				}
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
