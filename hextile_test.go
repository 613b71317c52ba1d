package vnc

import "testing"

func TestDecodeHextile_SingleBackgroundTile(t *testing.T) {
	s := newTestSession(16, 16, DefaultPixelFormat())
	rect := Rectangle{X: 0, Y: 0, W: 16, H: 16, Encoding: 5}

	var payload []byte
	payload = append(payload, hextileBackgroundSpecified)
	payload = append(payload, 0x00, 0x00, 0xFF, 0x00) // background = opaque red under the default format's shifts

	s.reader.Feed(payload)
	if err := decodeHextile(s, rect); err != nil {
		t.Fatalf("decodeHextile: %v", err)
	}

	img := s.View()
	assertPixel(t, img, 0, 0, 0xFF, 0x00, 0x00)
	assertPixel(t, img, 15, 15, 0xFF, 0x00, 0x00)
}

func TestDecodeHextile_RawTile(t *testing.T) {
	s := newTestSession(2, 2, DefaultPixelFormat())
	rect := Rectangle{X: 0, Y: 0, W: 2, H: 2, Encoding: 5}

	var payload []byte
	payload = append(payload, hextileRaw)
	for i := 0; i < 4; i++ {
		payload = append(payload, 0x00, 0x00, 0xFF, 0x00) // 4 pixels, opaque red (word 0x00FF0000)
	}

	s.reader.Feed(payload)
	if err := decodeHextile(s, rect); err != nil {
		t.Fatalf("decodeHextile: %v", err)
	}
	assertPixel(t, s.View(), 1, 1, 0xFF, 0x00, 0x00)
}

func TestDecodeHextile_BackgroundPersistsAcrossTilesNotRectangles(t *testing.T) {
	s := newTestSession(32, 16, DefaultPixelFormat())
	rect := Rectangle{X: 0, Y: 0, W: 32, H: 16, Encoding: 5}

	var payload []byte
	// Tile 1: specify background.
	payload = append(payload, hextileBackgroundSpecified)
	payload = append(payload, 0x00, 0x00, 0xFF, 0x00)
	// Tile 2: no mask bits set at all, must reuse tile 1's background.
	payload = append(payload, 0x00)

	s.reader.Feed(payload)
	if err := decodeHextile(s, rect); err != nil {
		t.Fatalf("decodeHextile: %v", err)
	}
	assertPixel(t, s.View(), 20, 0, 0xFF, 0x00, 0x00)

	// A new rectangle starts from a zero (black) background: a tile with
	// no mask bits must not inherit the previous rectangle's red.
	s.reader.Feed([]byte{0x00})
	if err := decodeHextile(s, Rectangle{X: 0, Y: 0, W: 16, H: 16, Encoding: 5}); err != nil {
		t.Fatalf("decodeHextile second rect: %v", err)
	}
	assertPixel(t, s.View(), 0, 0, 0x00, 0x00, 0x00)
}

func TestDecodeHextile_DefersOnShortBuffer(t *testing.T) {
	s := newTestSession(16, 16, DefaultPixelFormat())
	rect := Rectangle{X: 0, Y: 0, W: 16, H: 16, Encoding: 5}

	s.reader.Feed([]byte{hextileBackgroundSpecified, 0x00, 0x00}) // missing 2 bytes of background pixel
	mark := s.reader.Mark()

	if err := decodeHextile(s, rect); err != errNeedMoreData {
		t.Fatalf("got %v, want errNeedMoreData", err)
	}
	if s.reader.Mark() != mark {
		t.Fatal("decodeHextile must not consume bytes when deferring")
	}
}

func TestDecodeHextile_SubrectsColoured(t *testing.T) {
	s := newTestSession(16, 16, DefaultPixelFormat())
	rect := Rectangle{X: 0, Y: 0, W: 16, H: 16, Encoding: 5}

	var payload []byte
	payload = append(payload, hextileBackgroundSpecified|hextileAnySubrects|hextileSubrectsColoured)
	payload = append(payload, 0x00, 0x00, 0x00, 0x00) // background = black
	payload = append(payload, 0x01)                   // 1 subrect
	payload = append(payload, 0x00, 0x00, 0xFF, 0x00)  // subrect color = opaque red
	payload = append(payload, 0x00)                    // xy: subX=0, subY=0
	payload = append(payload, 0x00)                    // wh: subW=1, subH=1

	s.reader.Feed(payload)
	if err := decodeHextile(s, rect); err != nil {
		t.Fatalf("decodeHextile: %v", err)
	}
	assertPixel(t, s.View(), 0, 0, 0xFF, 0x00, 0x00)
	assertPixel(t, s.View(), 1, 1, 0x00, 0x00, 0x00) // outside the 1x1 subrect, still background
}
