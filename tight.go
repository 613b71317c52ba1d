package vnc

// TIGHT compression-control byte layout, spec.md §4.6 and §9.2's
// explicit decision to follow the canonical RFB definition rather than
// the teacher's bit-mixed interpretation:
//   bits 0-3: one reset flag per zlib stream (0-3), applied regardless
//             of compression type below.
//   bits 4-7: 0x8 = fill, 0x9 = JPEG, 0xA = reserved, 0x0-0x7 = "basic"
//             compression where bits 4-5 select the zlib stream id and
//             bit 6 says a filter-id byte follows (Copy/Palette/Gradient);
//             0xB-0xF are rejected as invalid.
const (
	tightResetMask    = 0x0F
	tightTypeFill     = 0x08
	tightTypeJPEG     = 0x09
	tightTypeReserved = 0x0A

	tightFilterCopy     = 0
	tightFilterPalette  = 1
	tightFilterGradient = 2
)

// decodeTight implements spec.md §4.6.
func decodeTight(s *Session, rect Rectangle) error {
	mark := s.reader.Mark()

	ctrl, ok := s.reader.ReadUint8()
	if !ok {
		s.reader.Reset(mark)
		return errNeedMoreData
	}

	resetMask := ctrl & tightResetMask
	for i := 0; i < 4; i++ {
		if resetMask&(1<<uint(i)) != 0 {
			s.zlibBank.ResetTight(i)
			s.metrics.ZlibResets.Adjust(1)
		}
	}

	tpixel := cpixelSize(s.pixelConv.Format())
	highNibble := (ctrl >> 4) & 0x0F

	switch {
	case highNibble == tightTypeFill:
		return decodeTightFill(s, rect, mark, tpixel)
	case highNibble == tightTypeJPEG:
		return decodeTightJPEG(s, rect, mark)
	case highNibble == tightTypeReserved:
		// The reserved-type rectangle's byte length is unknowable (no
		// zlib stream to decompress, no length field to skip), so the
		// control byte itself is rolled back rather than consumed. That
		// means the rectangle cannot be skipped like an ordinary
		// unsupported encoding — the next ReadRectangleHeader call would
		// just misread these same bytes as a bogus header. Surface it as
		// a desync so the session fails outright instead of silently
		// corrupting the next rectangle.
		s.reader.Reset(mark)
		return desyncErrorf("tight: reserved compression type")
	case highNibble < tightTypeFill:
		streamID := int(highNibble & 0x03)
		hasFilter := highNibble&0x04 != 0
		filterID := uint8(tightFilterCopy)
		if hasFilter {
			f, ok := s.reader.ReadUint8()
			if !ok {
				s.reader.Reset(mark)
				return errNeedMoreData
			}
			filterID = f
		}
		switch filterID {
		case tightFilterCopy:
			return decodeTightCopy(s, rect, mark, streamID, tpixel)
		case tightFilterPalette:
			return decodeTightPalette(s, rect, mark, streamID, tpixel)
		case tightFilterGradient:
			return decodeTightGradient(s, rect, mark, streamID, tpixel)
		default:
			// Same rollback-without-consumption problem as the reserved
			// compression type above: an unrecognized filter id leaves
			// no way to know how many bytes this rectangle occupies, so
			// it can't be skipped like an ordinary unsupported encoding.
			s.reader.Reset(mark)
			return desyncErrorf("tight: unsupported filter id %d", filterID)
		}
	default:
		s.reader.Reset(mark)
		return desyncErrorf("tight: invalid compression type %d", highNibble)
	}
}

// readCompactLength implements spec.md §4.6's compact-length encoding:
// 1-3 bytes, little-endian 7-bits-at-a-time with a continuation bit on
// all but the last byte.
func readCompactLength(r *ByteReader) (int, bool) {
	length := 0
	for i := 0; i < 3; i++ {
		b, ok := r.ReadUint8()
		if !ok {
			return 0, false
		}
		if i == 2 {
			length |= int(b) << 14
			break
		}
		length |= int(b&0x7F) << uint(i*7)
		if b&0x80 == 0 {
			break
		}
	}
	return length, true
}

func decodeTightFill(s *Session, rect Rectangle, mark int, tpixel int) error {
	word, ok := decodeRawPixelWord(s.reader, tpixel)
	if !ok {
		s.reader.Reset(mark)
		return errNeedMoreData
	}
	r, g, b := s.pixelConv.ToRGB(word)
	for dy := 0; dy < int(rect.H); dy++ {
		for dx := 0; dx < int(rect.W); dx++ {
			s.framebuffer.SetPixel(int(rect.X)+dx, int(rect.Y)+dy, r, g, b)
		}
	}
	return nil
}

func decodeTightJPEG(s *Session, rect Rectangle, mark int) error {
	length, ok := readCompactLength(s.reader)
	if !ok {
		s.reader.Reset(mark)
		return errNeedMoreData
	}
	data, ok := s.reader.ReadBytes(length)
	if !ok {
		s.reader.Reset(mark)
		return errNeedMoreData
	}

	img, err := s.jpegDecoder.Decode(data)
	if err != nil {
		return codecErrorf(err, "tight: jpeg decode failed")
	}

	bounds := img.Bounds()
	for dy := 0; dy < bounds.Dy() && dy < int(rect.H); dy++ {
		for dx := 0; dx < bounds.Dx() && dx < int(rect.W); dx++ {
			o := img.PixOffset(bounds.Min.X+dx, bounds.Min.Y+dy)
			s.framebuffer.SetPixel(int(rect.X)+dx, int(rect.Y)+dy, img.Pix[o], img.Pix[o+1], img.Pix[o+2])
		}
	}
	return nil
}

// fetchTightCompressed reads a compact length and that many raw bytes
// off the wire. Once the compact length is known, the full compressed
// blob is either entirely buffered or the whole rectangle rolls back
// to mark — decompression happens separately, against the persistent
// per-stream zlib state, once the caller knows how many decompressed
// bytes to expect.
func fetchTightCompressed(s *Session, mark int) ([]byte, error) {
	length, ok := readCompactLength(s.reader)
	if !ok {
		s.reader.Reset(mark)
		return nil, errNeedMoreData
	}
	compressed, ok := s.reader.ReadBytes(length)
	if !ok {
		s.reader.Reset(mark)
		return nil, errNeedMoreData
	}
	return compressed, nil
}

func decodeTightCopy(s *Session, rect Rectangle, mark int, streamID int, tpixel int) error {
	compressed, err := fetchTightCompressed(s, mark)
	if err != nil {
		return err
	}
	want := rect.Area() * tpixel
	data, err := s.zlibBank.TightInflate(streamID, compressed, want)
	if err != nil {
		return err
	}

	for dy := 0; dy < int(rect.H); dy++ {
		for dx := 0; dx < int(rect.W); dx++ {
			off := (dy*int(rect.W) + dx) * tpixel
			word := littleEndianWord(data[off : off+tpixel])
			r, g, b := s.pixelConv.ToRGB(word)
			s.framebuffer.SetPixel(int(rect.X)+dx, int(rect.Y)+dy, r, g, b)
		}
	}
	return nil
}

// decodeTightPalette implements the TIGHT palette filter: a palette of
// up to 256 TPIXELs, then either a 1-bit-per-pixel bitmap (palette size
// <= 2), byte-padded per row, or one raw index byte per pixel
// (palette size > 2). The teacher's readTightPalette packs the 1bpp
// case as one continuous bitstream with no row padding; the canonical
// TIGHT definition byte-aligns each row the same way ZRLE's packed
// palette rows are aligned, so that's what's implemented here (see
// DESIGN.md).
func decodeTightPalette(s *Session, rect Rectangle, mark int, streamID int, tpixel int) error {
	paletteSizeMinus1, ok := s.reader.ReadUint8()
	if !ok {
		s.reader.Reset(mark)
		return errNeedMoreData
	}
	paletteSize := int(paletteSizeMinus1) + 1

	paletteBytes, ok := s.reader.PeekBytes(paletteSize * tpixel)
	if !ok {
		s.reader.Reset(mark)
		return errNeedMoreData
	}
	palette := make([]hextilePixel, paletteSize)
	for i := 0; i < paletteSize; i++ {
		off := i * tpixel
		word := littleEndianWord(paletteBytes[off : off+tpixel])
		r, g, b := s.pixelConv.ToRGB(word)
		palette[i] = hextilePixel{r, g, b}
	}
	s.reader.Discard(paletteSize * tpixel)

	compressed, err := fetchTightCompressed(s, mark)
	if err != nil {
		return err
	}

	var want int
	if paletteSize <= 2 {
		want = ((int(rect.W)+7)/8) * int(rect.H)
	} else {
		want = rect.Area()
	}
	data, err := s.zlibBank.TightInflate(streamID, compressed, want)
	if err != nil {
		return err
	}

	scratch := make([]hextilePixel, rect.Area())
	if paletteSize <= 2 {
		rowBytes := (int(rect.W) + 7) / 8
		for dy := 0; dy < int(rect.H); dy++ {
			row := data[dy*rowBytes : (dy+1)*rowBytes]
			for dx := 0; dx < int(rect.W); dx++ {
				bit := (row[dx/8] >> uint(7-dx%8)) & 1
				scratch[dy*int(rect.W)+dx] = palette[bit]
			}
		}
	} else {
		for i, idx := range data {
			if int(idx) >= paletteSize {
				return codecErrorf(nil, "tight: palette index %d out of range (size %d)", idx, paletteSize)
			}
			scratch[i] = palette[idx]
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

// decodeTightGradient implements the TIGHT gradient filter: each byte
// of the (post-inflate) correction stream is added, per channel, to a
// predictor formed from the left, above, and above-left pixels already
// reconstructed in this rectangle — ported from the teacher's
// readTightGradient, generalized from a fixed 3/4 bytesPerPixel switch
// to the TPIXEL width computed for the session's pixel format.
func decodeTightGradient(s *Session, rect Rectangle, mark int, streamID int, tpixel int) error {
	if tpixel != 3 && tpixel != 4 {
		// Same rollback-without-consumption problem as the reserved
		// compression type and unsupported filter id in decodeTight: the
		// compact length hasn't been read yet, so nothing about this
		// rectangle's byte length is known, and it can't be skipped.
		s.reader.Reset(mark)
		return desyncErrorf("tight: gradient filter unsupported for %d-byte pixels", tpixel)
	}

	compressed, err := fetchTightCompressed(s, mark)
	if err != nil {
		return err
	}
	want := rect.Area() * tpixel
	correction, err := s.zlibBank.TightInflate(streamID, compressed, want)
	if err != nil {
		return err
	}

	w, h := int(rect.W), int(rect.H)
	pixelData := make([]byte, w*h*tpixel)
	ci := 0

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var p1, p2, p3 [4]byte
			if x > 0 {
				off := (y*w + x - 1) * tpixel
				copy(p1[:], pixelData[off:off+tpixel])
			}
			if y > 0 {
				off := ((y-1)*w + x) * tpixel
				copy(p2[:], pixelData[off:off+tpixel])
			}
			if x > 0 && y > 0 {
				off := ((y-1)*w + x - 1) * tpixel
				copy(p3[:], pixelData[off:off+tpixel])
			}

			cur := (y*w + x) * tpixel
			for b := 0; b < tpixel; b++ {
				pred := int(p1[b]) + int(p2[b]) - int(p3[b])
				if pred < 0 {
					pred = 0
				}
				if pred > 255 {
					pred = 255
				}
				pixelData[cur+b] = byte(pred) + correction[ci]
				ci++
			}
		}
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			off := (y*w + x) * tpixel
			word := littleEndianWord(pixelData[off : off+tpixel])
			r, g, b := s.pixelConv.ToRGB(word)
			s.framebuffer.SetPixel(int(rect.X)+x, int(rect.Y)+y, r, g, b)
		}
	}
	return nil
}
