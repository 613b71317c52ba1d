package vnc

import "testing"

func TestPixelConverter_DefaultFormat(t *testing.T) {
	pc := NewPixelConverter(DefaultPixelFormat())

	// 0x00FF8040: red=0xFF, green=0x80, blue=0x40 under shifts (16,8,0).
	r, g, b := pc.ToRGB(0x00FF8040)
	if r != 0xFF || g != 0x80 || b != 0x40 {
		t.Fatalf("ToRGB: got (%#x,%#x,%#x), want (0xFF,0x80,0x40)", r, g, b)
	}
}

func TestPixelConverter_ScaledChannel(t *testing.T) {
	// 5-bit red channel (max=31), shift=11, matching RGB565.
	pf := PixelFormat{
		BPP: 16, Depth: 16, TrueColour: true,
		RedMax: 31, GreenMax: 63, BlueMax: 31,
		RedShift: 11, GreenShift: 5, BlueShift: 0,
	}
	pc := NewPixelConverter(pf)

	// All red bits set (0x1F << 11 = 0xF800).
	r, _, _ := pc.ToRGB(0xF800)
	if r != 255 {
		t.Fatalf("scaled red channel at max value: got %d, want 255", r)
	}

	// Half-intensity red (15 of 31): 15*255/31 = 123.
	r, _, _ = pc.ToRGB(15 << 11)
	if r != 123 {
		t.Fatalf("scaled red channel at half value: got %d, want 123", r)
	}
}

func TestPixelConverter_SetFormat(t *testing.T) {
	pc := NewPixelConverter(DefaultPixelFormat())
	pc.SetFormat(PixelFormat{RedMax: 31, RedShift: 0})
	if pc.Format().RedMax != 31 {
		t.Fatalf("SetFormat did not update Format(): got %d, want 31", pc.Format().RedMax)
	}
}

func TestDecodeRawPixelWord(t *testing.T) {
	tests := []struct {
		name  string
		bytes []byte
		width int
		want  uint32
	}{
		{"1-byte", []byte{0x42}, 1, 0x42},
		{"2-byte LE", []byte{0x34, 0x12}, 2, 0x1234},
		{"3-byte LE", []byte{0x56, 0x34, 0x12}, 3, 0x123456},
		{"4-byte LE", []byte{0x78, 0x56, 0x34, 0x12}, 4, 0x12345678},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewByteReader()
			r.Feed(tt.bytes)
			got, ok := decodeRawPixelWord(r, tt.width)
			if !ok {
				t.Fatal("decodeRawPixelWord failed")
			}
			if got != tt.want {
				t.Fatalf("got %#x, want %#x", got, tt.want)
			}
		})
	}
}

func TestLittleEndianWord(t *testing.T) {
	if got := littleEndianWord([]byte{0x01, 0x02, 0x03}); got != 0x030201 {
		t.Fatalf("got %#x, want 0x030201", got)
	}
}
