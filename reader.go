package vnc

import "encoding/binary"

// ByteReader is the adapter over the transport described in spec.md
// §2.1: fixed-size reads of big-/little-endian integers and blobs, with
// peekable availability. Unlike a bufio.Reader, it never blocks: Feed
// appends newly arrived bytes, and every Read* method either succeeds
// and advances the cursor, or fails and leaves the cursor exactly where
// it was. Mark/Reset let a caller group several Read* calls into one
// all-or-nothing attempt, which is how the session state machine
// implements the must-succeed-or-defer rule for multi-field records.
type ByteReader struct {
	buf []byte
	off int
}

// NewByteReader returns an empty ByteReader ready to be Fed.
func NewByteReader() *ByteReader {
	return &ByteReader{}
}

// Feed appends newly arrived transport bytes and reclaims the space of
// already-consumed bytes at the front of the buffer. It must only be
// called between dispatcher passes, never while a Mark is outstanding.
func (r *ByteReader) Feed(p []byte) {
	if r.off > 0 {
		r.buf = append(r.buf[:0], r.buf[r.off:]...)
		r.off = 0
	}
	r.buf = append(r.buf, p...)
}

// Available reports how many unconsumed bytes are buffered.
func (r *ByteReader) Available() int { return len(r.buf) - r.off }

// Mark returns a cursor that Reset can later rewind to, undoing any
// reads performed since.
func (r *ByteReader) Mark() int { return r.off }

// Reset rewinds the cursor to a previously returned Mark.
func (r *ByteReader) Reset(mark int) { r.off = mark }

// PeekBytes returns the next n buffered bytes without consuming them.
// The returned slice aliases the internal buffer and must not be
// retained past the next Feed/Reset.
func (r *ByteReader) PeekBytes(n int) ([]byte, bool) {
	if r.Available() < n {
		return nil, false
	}
	return r.buf[r.off : r.off+n], true
}

// Discard consumes n bytes (e.g. padding) if available.
func (r *ByteReader) Discard(n int) bool {
	if r.Available() < n {
		return false
	}
	r.off += n
	return true
}

// ReadBytes consumes and copies out the next n bytes.
func (r *ByteReader) ReadBytes(n int) ([]byte, bool) {
	b, ok := r.PeekBytes(n)
	if !ok {
		return nil, false
	}
	out := make([]byte, n)
	copy(out, b)
	r.off += n
	return out, true
}

// ReadUint8 consumes one byte.
func (r *ByteReader) ReadUint8() (uint8, bool) {
	b, ok := r.PeekBytes(1)
	if !ok {
		return 0, false
	}
	r.off++
	return b[0], true
}

// ReadUint16BE consumes a big-endian u16, the wire order for all
// integer header fields per spec.md §6.
func (r *ByteReader) ReadUint16BE() (uint16, bool) {
	b, ok := r.PeekBytes(2)
	if !ok {
		return 0, false
	}
	r.off += 2
	return binary.BigEndian.Uint16(b), true
}

// ReadUint32BE consumes a big-endian u32.
func (r *ByteReader) ReadUint32BE() (uint32, bool) {
	b, ok := r.PeekBytes(4)
	if !ok {
		return 0, false
	}
	r.off += 4
	return binary.BigEndian.Uint32(b), true
}

// ReadInt32BE consumes a big-endian signed i32 (rectangle encoding-type
// fields are signed per spec.md §3).
func (r *ByteReader) ReadInt32BE() (int32, bool) {
	v, ok := r.ReadUint32BE()
	return int32(v), ok
}

// ReadUint16LE consumes a little-endian u16. Raw pixel words are the
// one little-endian quantity on the wire per spec.md §6.
func (r *ByteReader) ReadUint16LE() (uint16, bool) {
	b, ok := r.PeekBytes(2)
	if !ok {
		return 0, false
	}
	r.off += 2
	return binary.LittleEndian.Uint16(b), true
}

// ReadUint32LE consumes a little-endian u32.
func (r *ByteReader) ReadUint32LE() (uint32, bool) {
	b, ok := r.PeekBytes(4)
	if !ok {
		return 0, false
	}
	r.off += 4
	return binary.LittleEndian.Uint32(b), true
}
