package vnc

// Pointer button mask bits, spec.md §4.2/§4.8.
const (
	ButtonLeft   uint8 = 1 << 0
	ButtonMiddle uint8 = 1 << 1
	ButtonRight  uint8 = 1 << 2
)

// SendNamedKey translates a named platform key (spec.md §4.8's fixed
// table) to its X11 keysym and sends a KeyEvent. Down is 1 on press, 0
// on release.
func (s *Session) SendNamedKey(key NamedKey, down bool) error {
	keysym, ok := key.Keysym()
	if !ok {
		return unsupportedErrorf("vnc: unmapped named key %d", key)
	}
	return s.sendKeysym(keysym, down)
}

// SendRune sends a KeyEvent for a key that produced a Unicode code
// point rather than one of the named special keys, per spec.md §4.8:
// "use the event's produced Unicode code point (first code point of
// the text)".
func (s *Session) SendRune(r rune, down bool) error {
	return s.sendKeysym(uint32(r), down)
}

func (s *Session) sendKeysym(keysym uint32, down bool) error {
	return s.write(encodeKeyEvent(keysym, down))
}

// SendPointer emits a PointerEvent. buttonMask is the bitwise OR of
// currently held buttons (spec.md §4.8): call this on every move (with
// the unchanged mask) and on every press/release (with the updated
// mask) so the server sees a continuous trace.
func (s *Session) SendPointer(x, y uint16, buttonMask uint8) error {
	return s.write(encodePointerEvent(buttonMask, x, y))
}
