package vnc

import "image"

// Framebuffer is the mirrored server screen image from spec.md §3: a
// W×H image of 32-bit-per-pixel, opaque-alpha pixels. It is backed by
// the standard image.RGBA type — the idiomatic representation for this
// concern in Go, and the one every image-touching repo in the corpus
// (minimega's bild pipeline, gopnm) converges on rather than a
// hand-rolled pixel buffer.
type Framebuffer struct {
	img *image.RGBA
}

// NewFramebuffer allocates a Framebuffer of the given size. w and h
// must be positive per spec.md §3's ServerInit invariant.
func NewFramebuffer(w, h int) *Framebuffer {
	return &Framebuffer{img: image.NewRGBA(image.Rect(0, 0, w, h))}
}

// Size returns the framebuffer's width and height.
func (f *Framebuffer) Size() (w, h int) {
	b := f.img.Bounds()
	return b.Dx(), b.Dy()
}

// Contains reports whether (x,y) lies within the framebuffer.
func (f *Framebuffer) Contains(x, y int) bool {
	return image.Pt(x, y).In(f.img.Bounds())
}

// SetPixel writes an opaque RGB triple at (x,y). The caller is
// responsible for the bounds invariant from spec.md §3; SetPixel itself
// silently no-ops out-of-range writes rather than panicking, since a
// malformed rectangle must never crash the session (spec.md §7).
func (f *Framebuffer) SetPixel(x, y int, r, g, b uint8) {
	if !f.Contains(x, y) {
		return
	}
	o := f.img.PixOffset(x, y)
	pix := f.img.Pix
	pix[o] = r
	pix[o+1] = g
	pix[o+2] = b
	pix[o+3] = 0xff
}

// Snapshot returns a read-only RGB image view. The returned *image.RGBA
// shares no backing array with the live framebuffer, satisfying the
// "snapshot-consistent per rectangle" invariant from spec.md §3 for a
// caller that wants a frozen copy; a host wanting the cheap read-only
// view instead can call View.
func (f *Framebuffer) Snapshot() *image.RGBA {
	b := f.img.Bounds()
	out := image.NewRGBA(b)
	copy(out.Pix, f.img.Pix)
	return out
}

// View returns the live, mutable-by-the-session backing image. A host
// that wraps its own mutex around access (per spec.md §5) may read it
// directly without the Snapshot copy.
func (f *Framebuffer) View() *image.RGBA { return f.img }
