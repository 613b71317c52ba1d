package vnc

import "encoding/binary"

// Client-to-server message type bytes, spec.md §4.2.
const (
	msgSetPixelFormat           uint8 = 0
	msgSetEncodings             uint8 = 2
	msgFramebufferUpdateRequest uint8 = 3
	msgKeyEvent                 uint8 = 4
	msgPointerEvent             uint8 = 5
)

// Server-to-client message type bytes. Only FramebufferUpdate is
// handled; the rest are recognized by name purely so a desync warning
// can name them (spec.md §4.1's "Running" row: unknown types are
// tolerated and logged, never treated as a hard desync).
const (
	msgFramebufferUpdate      uint8 = 0
	msgSetColourMapEntries    uint8 = 1
	msgBell                   uint8 = 2
	msgServerCutText          uint8 = 3
)

func serverMessageName(t uint8) string {
	switch t {
	case msgFramebufferUpdate:
		return "FramebufferUpdate"
	case msgSetColourMapEntries:
		return "SetColourMapEntries"
	case msgBell:
		return "Bell"
	case msgServerCutText:
		return "ServerCutText"
	default:
		return "Unknown"
	}
}

// encodeSetPixelFormat builds a SetPixelFormat message (type 0): one
// type byte, three pad bytes, then the 16-byte PixelFormat — the
// client echoes the server's advertised format unmodified, per
// spec.md §4.2.
func encodeSetPixelFormat(pf PixelFormat) []byte {
	buf := make([]byte, 4, 20)
	buf[0] = msgSetPixelFormat
	return append(buf, pf.Marshal()...)
}

// encodeSetEncodings builds a SetEncodings message (type 2): one type
// byte, one pad byte, a u16be count, then count i32be encoding IDs.
func encodeSetEncodings(encodingIDs []int32) []byte {
	buf := make([]byte, 4, 4+4*len(encodingIDs))
	buf[0] = msgSetEncodings
	binary.BigEndian.PutUint16(buf[2:4], uint16(len(encodingIDs)))
	for _, id := range encodingIDs {
		var idBuf [4]byte
		binary.BigEndian.PutUint32(idBuf[:], uint32(id))
		buf = append(buf, idBuf[:]...)
	}
	return buf
}

// defaultEncodingPreference is the client's advertised preference
// order: Tight, ZRLE, Hextile, Raw, per spec.md §4.2.
var defaultEncodingPreference = []int32{7, 16, 5, 0}

// encodeFramebufferUpdateRequest builds a FramebufferUpdateRequest
// (type 3). An all-zero rectangle means "full framebuffer" per
// spec.md §4.2.
func encodeFramebufferUpdateRequest(incremental bool, x, y, w, h uint16) []byte {
	buf := make([]byte, 10)
	buf[0] = msgFramebufferUpdateRequest
	buf[1] = boolToByte(incremental)
	binary.BigEndian.PutUint16(buf[2:4], x)
	binary.BigEndian.PutUint16(buf[4:6], y)
	binary.BigEndian.PutUint16(buf[6:8], w)
	binary.BigEndian.PutUint16(buf[8:10], h)
	return buf
}

// encodeKeyEvent builds a KeyEvent message (type 4): down-flag, two pad
// bytes, u32be keysym.
func encodeKeyEvent(keysym uint32, down bool) []byte {
	buf := make([]byte, 8)
	buf[0] = msgKeyEvent
	buf[1] = boolToByte(down)
	binary.BigEndian.PutUint32(buf[4:8], keysym)
	return buf
}

// encodePointerEvent builds a PointerEvent message (type 5): button
// mask, u16be x, u16be y.
func encodePointerEvent(buttonMask uint8, x, y uint16) []byte {
	buf := make([]byte, 6)
	buf[0] = msgPointerEvent
	buf[1] = buttonMask
	binary.BigEndian.PutUint16(buf[2:4], x)
	binary.BigEndian.PutUint16(buf[4:6], y)
	return buf
}
