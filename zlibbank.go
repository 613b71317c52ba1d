package vnc

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"io"
)

// zlibStream owns one persistent, growing compressed-byte buffer and
// the single zlib.Reader pulling from it. TIGHT and ZRLE both flush
// each rectangle's compressed data with Z_SYNC_FLUSH: the deflate
// bitstream never closes between rectangles, it only realigns to a
// byte boundary behind an empty stored block. Handing zlib.Resetter a
// fresh io.Reader on every call (the teacher's readCompressedData
// pattern) discards that alignment and reparses a brand-new zlib
// header each time, which real TIGHT/ZRLE servers never send after
// the first rectangle — see decompressTightData in
// original_source/src/vncclient/qvncclient.cpp, which keeps one
// z_stream alive across calls and only ever calls inflate again.
// Appending newly-arrived bytes to the same buffer and never
// replacing the reader except on reset reproduces that: the reader
// resumes exactly where it left off, because the bytes it hasn't
// consumed yet (including any trailing empty block from the previous
// flush) are still sitting in front of it.
type zlibStream struct {
	buf *bytes.Buffer
	r   io.ReadCloser
}

// push appends newly-arrived compressed bytes and lazily creates the
// reader the first time it's called. It must run before any read that
// needs those bytes; since the buffer is only ever appended to ahead
// of being read, it never looks empty to a reader still mid-stream.
func (z *zlibStream) push(compressed []byte) error {
	if z.buf == nil {
		z.buf = new(bytes.Buffer)
	}
	z.buf.Write(compressed)
	if z.r == nil {
		r, err := zlib.NewReader(z.buf)
		if err != nil {
			return codecErrorf(err, "zlib: failed to initialize stream")
		}
		z.r = r
	}
	return nil
}

// readFull decompresses exactly len(out) bytes from the persistent
// stream. Used wherever the caller already knows the decompressed
// size ahead of time, which is every TIGHT filter. A short read means
// the stream didn't carry as many compressed bytes as the caller
// declared, which can only mean the stream is now corrupt, so the
// context is dropped rather than left to fail every future call too.
func (z *zlibStream) readFull(out []byte) error {
	if _, err := io.ReadFull(z.r, out); err != nil {
		z.reset()
		return codecErrorf(err, "zlib: failed to inflate")
	}
	return nil
}

// reset drops the stream's buffer and reader entirely, so the next
// push reinitializes from a fresh zlib header. This is the only
// legitimate way to restart a stream: on the TIGHT per-slot
// stream-reset bit (spec.md §4.6), or after readFull/a tile read
// reports the stream unrecoverable.
func (z *zlibStream) reset() {
	if z.r != nil {
		z.r.Close()
		z.r = nil
	}
	z.buf = nil
}

// ZlibBank owns the four persistent TIGHT inflate contexts plus the one
// implicit ZRLE stream, per spec.md §3's ZlibStreamBank and §4.5's note
// that ZRLE uses a separate, single implicit stream rather than one of
// the four TIGHT slots.
type ZlibBank struct {
	tight [4]zlibStream
	zrle  zlibStream
}

// NewZlibBank returns an empty bank; streams are created lazily on
// first use.
func NewZlibBank() *ZlibBank { return &ZlibBank{} }

// TightInflate feeds compressed onto TIGHT stream id (0-3) and
// decompresses exactly want bytes from it.
func (b *ZlibBank) TightInflate(id int, compressed []byte, want int) ([]byte, error) {
	if id < 0 || id > 3 {
		return nil, fmt.Errorf("vnc: invalid tight zlib stream id %d", id)
	}
	if err := b.tight[id].push(compressed); err != nil {
		return nil, err
	}
	out := make([]byte, want)
	if err := b.tight[id].readFull(out); err != nil {
		return nil, err
	}
	return out, nil
}

// ResetTight drops TIGHT stream id's inflate context.
func (b *ZlibBank) ResetTight(id int) {
	if id < 0 || id > 3 {
		return
	}
	b.tight[id].reset()
}

// ZRLEPush feeds compressed onto the single shared ZRLE stream. Unlike
// TIGHT, a ZRLE rectangle's decompressed length isn't known until its
// tiles are parsed (each subencoding has its own size), so there is no
// ZRLEInflate returning one bulk-decoded slice; callers pull bytes
// tile-by-tile through ZRLEReader instead.
func (b *ZlibBank) ZRLEPush(compressed []byte) error {
	return b.zrle.push(compressed)
}

// ZRLEReader exposes the live ZRLE decompressor for incremental,
// tile-by-tile reads.
func (b *ZlibBank) ZRLEReader() io.Reader {
	return b.zrle.r
}

// ResetZRLE drops the ZRLE stream's context, used when tile parsing
// finds the decompressed bytes don't form a valid ZRLE payload and the
// stream can no longer be trusted to resume cleanly.
func (b *ZlibBank) ResetZRLE() {
	b.zrle.reset()
}

// Close releases all live inflate contexts deterministically, per
// spec.md §5's teardown requirement.
func (b *ZlibBank) Close() {
	for i := range b.tight {
		b.tight[i].reset()
	}
	b.zrle.reset()
}
