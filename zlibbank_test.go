package vnc

import (
	"bytes"
	"compress/zlib"
	"io"
	"testing"
)

func compress(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	w.Write(data)
	w.Close()
	return buf.Bytes()
}

// zlibFlushChunks compresses each of chunks through one continuous
// zlib.Writer, flushing (not closing) after each one. Flush emits a
// Z_SYNC_FLUSH-equivalent boundary: the deflate bitstream realigns to
// a byte boundary without closing, exactly how a real TIGHT/ZRLE
// server separates successive rectangles within one zlib stream. The
// returned slices are the bytes produced by each Flush call, in order,
// suitable for feeding to ZlibBank/decodeTight/decodeZRLE one at a
// time with no reset in between.
func zlibFlushChunks(t *testing.T, chunks [][]byte) [][]byte {
	t.Helper()
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	var out [][]byte
	prev := 0
	for _, c := range chunks {
		if _, err := w.Write(c); err != nil {
			t.Fatalf("zlib write: %v", err)
		}
		if err := w.Flush(); err != nil {
			t.Fatalf("zlib flush: %v", err)
		}
		chunk := append([]byte(nil), buf.Bytes()[prev:buf.Len()]...)
		out = append(out, chunk)
		prev = buf.Len()
	}
	return out
}

func TestZlibBank_TightInflate(t *testing.T) {
	bank := NewZlibBank()
	data := []byte("hello tight stream")

	got, err := bank.TightInflate(0, compress(t, data), len(data))
	if err != nil {
		t.Fatalf("TightInflate: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("got %q, want %q", got, data)
	}
}

func TestZlibBank_TightInflate_InvalidStreamID(t *testing.T) {
	bank := NewZlibBank()
	if _, err := bank.TightInflate(4, nil, 0); err == nil {
		t.Fatal("expected an error for stream id 4 (only 0-3 are valid)")
	}
}

func TestZlibBank_ResetTightReinitializes(t *testing.T) {
	bank := NewZlibBank()
	first := []byte("first message")
	second := []byte("second message, unrelated to the first")

	if _, err := bank.TightInflate(1, compress(t, first), len(first)); err != nil {
		t.Fatalf("first inflate: %v", err)
	}
	bank.ResetTight(1)

	got, err := bank.TightInflate(1, compress(t, second), len(second))
	if err != nil {
		t.Fatalf("inflate after reset: %v", err)
	}
	if !bytes.Equal(got, second) {
		t.Fatalf("got %q, want %q", got, second)
	}
}

// TestZlibBank_TightInflate_ContinuesAcrossPushesWithoutReset is the
// case TestZlibBank_ResetTightReinitializes doesn't cover: two chunks
// of the SAME ongoing deflate stream (Flush, not Close, between them),
// fed across two TightInflate calls on the same slot with no
// ResetTight in between, must both decode correctly. This is the
// behavior a real TIGHT stream actually relies on.
func TestZlibBank_TightInflate_ContinuesAcrossPushesWithoutReset(t *testing.T) {
	bank := NewZlibBank()
	first := []byte("rectangle one payload")
	second := []byte("rectangle two payload, same stream")

	chunks := zlibFlushChunks(t, [][]byte{first, second})

	got1, err := bank.TightInflate(2, chunks[0], len(first))
	if err != nil {
		t.Fatalf("first inflate: %v", err)
	}
	if !bytes.Equal(got1, first) {
		t.Fatalf("first chunk: got %q, want %q", got1, first)
	}

	got2, err := bank.TightInflate(2, chunks[1], len(second))
	if err != nil {
		t.Fatalf("second inflate: %v", err)
	}
	if !bytes.Equal(got2, second) {
		t.Fatalf("second chunk: got %q, want %q", got2, second)
	}
}

func TestZlibBank_ZRLEPushAndReadIndependentOfTightStreams(t *testing.T) {
	bank := NewZlibBank()
	data := []byte("zrle payload")

	if err := bank.ZRLEPush(compress(t, data)); err != nil {
		t.Fatalf("ZRLEPush: %v", err)
	}
	got := make([]byte, len(data))
	if _, err := io.ReadFull(bank.ZRLEReader(), got); err != nil {
		t.Fatalf("ZRLEReader read: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("got %q, want %q", got, data)
	}
	for i := range bank.tight {
		if bank.tight[i].r != nil {
			t.Fatalf("ZRLEPush created TIGHT stream %d", i)
		}
	}
}

func TestZlibBank_Close(t *testing.T) {
	bank := NewZlibBank()
	bank.TightInflate(0, compress(t, []byte("x")), 1)
	bank.ZRLEPush(compress(t, []byte("y")))
	bank.Close() // must not panic, and leaves the bank ready for lazy re-init
}
