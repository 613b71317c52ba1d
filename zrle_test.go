package vnc

import (
	"bytes"
	"compress/zlib"
	"testing"
)

func zlibCompress(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		t.Fatalf("zlib compress: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("zlib compress close: %v", err)
	}
	return buf.Bytes()
}

func TestCpixelSize(t *testing.T) {
	if got := cpixelSize(DefaultPixelFormat()); got != 3 {
		t.Fatalf("cpixelSize(32bpp true-colour depth 24): got %d, want 3", got)
	}
	pf16 := PixelFormat{BPP: 16, Depth: 16, TrueColour: true}
	if got := cpixelSize(pf16); got != 2 {
		t.Fatalf("cpixelSize(16bpp): got %d, want 2", got)
	}
}

func TestBitsPerIndex(t *testing.T) {
	cases := map[int]int{2: 1, 3: 2, 4: 2, 5: 4, 16: 4}
	for size, want := range cases {
		if got := bitsPerIndex(size); got != want {
			t.Fatalf("bitsPerIndex(%d): got %d, want %d", size, got, want)
		}
	}
}

func TestDecodeZRLE_SolidTile(t *testing.T) {
	s := newTestSession(4, 4, DefaultPixelFormat())
	rect := Rectangle{X: 0, Y: 0, W: 4, H: 4, Encoding: 16}

	// One 64x64-capped tile covering the whole 4x4 rect: subencoding 1
	// (Solid), one CPIXEL (3 bytes for the default format).
	tile := []byte{1, 0x00, 0x00, 0xFF} // solid, CPIXEL bytes -> red under default shifts
	compressed := zlibCompress(t, tile)

	var payload []byte
	payload = append(payload, 0x00, 0x00, byte(len(compressed)>>8), byte(len(compressed)))
	payload = append(payload, compressed...)

	s.reader.Feed(payload)
	if err := decodeZRLE(s, rect); err != nil {
		t.Fatalf("decodeZRLE: %v", err)
	}
	assertPixel(t, s.View(), 0, 0, 0xFF, 0x00, 0x00)
	assertPixel(t, s.View(), 3, 3, 0xFF, 0x00, 0x00)
}

func TestDecodeZRLE_RawTile(t *testing.T) {
	s := newTestSession(2, 1, DefaultPixelFormat())
	rect := Rectangle{X: 0, Y: 0, W: 2, H: 1, Encoding: 16}

	tile := []byte{0, 0x00, 0x00, 0xFF, 0xFF, 0x00, 0x00} // raw, 2 CPIXELs: red then blue
	compressed := zlibCompress(t, tile)

	var payload []byte
	payload = append(payload, 0x00, 0x00, byte(len(compressed)>>8), byte(len(compressed)))
	payload = append(payload, compressed...)

	s.reader.Feed(payload)
	if err := decodeZRLE(s, rect); err != nil {
		t.Fatalf("decodeZRLE: %v", err)
	}
	assertPixel(t, s.View(), 0, 0, 0xFF, 0x00, 0x00)
	assertPixel(t, s.View(), 1, 0, 0x00, 0x00, 0xFF)
}

// TestDecodeZRLE_ContinuesAcrossRectanglesWithoutReset locks in the
// fix for zlibbank.go's stream continuation: a real server keeps one
// deflate stream open across a session and flushes (never closes) at
// each rectangle boundary, so two rectangles' tiles are compressed
// here through one continuous zlib.Writer with Flush between them,
// then decoded through two separate decodeZRLE calls with no reset in
// between — both must come out right.
func TestDecodeZRLE_ContinuesAcrossRectanglesWithoutReset(t *testing.T) {
	s := newTestSession(1, 1, DefaultPixelFormat())
	rect := Rectangle{X: 0, Y: 0, W: 1, H: 1, Encoding: 16}

	wants := [][3]byte{{0xFF, 0x00, 0x00}, {0x00, 0xFF, 0x00}}
	tiles := make([][]byte, len(wants))
	for i, want := range wants {
		tiles[i] = []byte{1, want[2], want[1], want[0]} // solid tile, CPIXEL bytes
	}
	chunks := zlibFlushChunks(t, tiles)

	for i, compressed := range chunks {
		var payload []byte
		payload = append(payload, 0x00, 0x00, byte(len(compressed)>>8), byte(len(compressed)))
		payload = append(payload, compressed...)

		s.reader.Feed(payload)
		if err := decodeZRLE(s, rect); err != nil {
			t.Fatalf("decodeZRLE iteration %d: %v", i, err)
		}
		want := wants[i]
		assertPixel(t, s.View(), 0, 0, want[0], want[1], want[2])
	}
}

func TestDecodeZRLE_DefersOnIncompleteStream(t *testing.T) {
	s := newTestSession(4, 4, DefaultPixelFormat())
	rect := Rectangle{X: 0, Y: 0, W: 4, H: 4, Encoding: 16}

	tile := []byte{1, 0x00, 0x00, 0xFF}
	compressed := zlibCompress(t, tile)

	s.reader.Feed(compressed[:len(compressed)-1]) // no length prefix at all, and truncated
	mark := s.reader.Mark()

	if err := decodeZRLE(s, rect); err != errNeedMoreData {
		t.Fatalf("got %v, want errNeedMoreData", err)
	}
	if s.reader.Mark() != mark {
		t.Fatal("decodeZRLE must not consume bytes when deferring")
	}
}

func TestUnpackIndex(t *testing.T) {
	row := []byte{0b10_11_00_01} // 2-bit indices: 2,3,0,1
	for i, want := range []int{2, 3, 0, 1} {
		if got := unpackIndex(row, i, 2); got != want {
			t.Fatalf("unpackIndex(%d): got %d, want %d", i, got, want)
		}
	}
}
