package vnc

import (
	"testing"

	"github.com/modulecore/go-vnc/encodings"
)

func TestDecoders_DispatchTableCoversAdvertisedEncodings(t *testing.T) {
	for _, enc := range defaultEncodingPreference {
		if _, ok := decoders[enc]; !ok {
			t.Fatalf("encoding %d is advertised in defaultEncodingPreference but has no decoder", enc)
		}
	}
}

func TestDecodeRaw_32bpp(t *testing.T) {
	s := newTestSession(2, 1, DefaultPixelFormat())
	rect := Rectangle{X: 0, Y: 0, W: 2, H: 1, Encoding: int32(encodings.Raw)}

	s.reader.Feed([]byte{
		0x00, 0x00, 0xFF, 0x00, // pixel 0: red
		0xFF, 0x00, 0x00, 0x00, // pixel 1: blue
	})
	if err := decodeRaw(s, rect); err != nil {
		t.Fatalf("decodeRaw: %v", err)
	}
	assertPixel(t, s.View(), 0, 0, 0xFF, 0x00, 0x00)
	assertPixel(t, s.View(), 1, 0, 0x00, 0x00, 0xFF)
}

func TestDecodeRaw_UnsupportedBPP_SkipsDeterministicLength(t *testing.T) {
	pf := PixelFormat{BPP: 16, Depth: 16, TrueColour: true, RedMax: 31, GreenMax: 63, BlueMax: 31, RedShift: 11, GreenShift: 5, BlueShift: 0}
	s := newTestSession(2, 1, pf)
	rect := Rectangle{X: 0, Y: 0, W: 2, H: 1, Encoding: int32(encodings.Raw)}

	s.reader.Feed([]byte{0x00, 0x00, 0x00, 0x00, 0xFF}) // 4 bytes for 2 16bpp pixels, plus 1 trailing byte
	err := decodeRaw(s, rect)
	if err == nil {
		t.Fatal("expected an unsupported-bpp error")
	}
	if s.reader.Available() != 1 {
		t.Fatalf("Available after skip: got %d, want 1 (4 bytes deterministically skipped)", s.reader.Available())
	}
}

func TestDecodeRaw_DefersOnShortBuffer(t *testing.T) {
	s := newTestSession(2, 1, DefaultPixelFormat())
	rect := Rectangle{X: 0, Y: 0, W: 2, H: 1, Encoding: int32(encodings.Raw)}

	s.reader.Feed([]byte{0x00, 0x00, 0xFF}) // only 3 of the 8 needed bytes
	if err := decodeRaw(s, rect); err != errNeedMoreData {
		t.Fatalf("got %v, want errNeedMoreData", err)
	}
	if s.reader.Available() != 3 {
		t.Fatalf("Available after deferred decodeRaw: got %d, want 3", s.reader.Available())
	}
}

func TestEncoding_String(t *testing.T) {
	cases := map[encodings.Encoding]string{
		encodings.Raw:     "Raw",
		encodings.Hextile: "Hextile",
		encodings.ZRLE:    "ZRLE",
		encodings.Tight:   "Tight",
	}
	for enc, want := range cases {
		if got := enc.String(); got != want {
			t.Fatalf("%d.String(): got %q, want %q", enc, got, want)
		}
	}
}
