package vnc

import (
	"bytes"
	"image"
	"image/draw"
	"image/jpeg"
)

// JPEGDecoder is the external collaborator spec.md §1 calls out as out
// of scope for this core: "JPEG decoding itself — treated as a black
// box: decode_jpeg(bytes) -> RGB image". The TIGHT decoder consumes
// this interface rather than a concrete decoder so a host can swap in
// a hardware or alternate decoder without touching the protocol engine.
type JPEGDecoder interface {
	Decode(data []byte) (*image.RGBA, error)
}

// stdlibJPEGDecoder is the default JPEGDecoder, backed by the standard
// library so the module is usable standalone. No pack repo reaches for
// a third-party JPEG library for this either, so this is the
// corpus-idiomatic choice, not a gap.
type stdlibJPEGDecoder struct{}

func (stdlibJPEGDecoder) Decode(data []byte) (*image.RGBA, error) {
	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba, nil
	}
	rgba := image.NewRGBA(img.Bounds())
	draw.Draw(rgba, rgba.Bounds(), img, img.Bounds().Min, draw.Src)
	return rgba, nil
}
