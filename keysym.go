package vnc

// NamedKey enumerates the platform keys the input translator maps to a
// fixed X11 keysym, per spec.md §4.8. Any other key is sent as the
// Unicode code point the event produced.
type NamedKey int

const (
	KeyBackspace NamedKey = iota
	KeyTab
	KeyReturn
	KeyInsert
	KeyDelete
	KeyHome
	KeyEnd
	KeyPageUp
	KeyPageDown
	KeyLeft
	KeyUp
	KeyRight
	KeyDown
	KeyF1
	KeyF2
	KeyF3
	KeyF4
	KeyF5
	KeyF6
	KeyF7
	KeyF8
	KeyF9
	KeyF10
	KeyF11
	KeyF12
	KeyShift
	KeyControl
	KeyMeta
	KeyAlt
)

// namedKeysyms is the static, immutable input-event mapping table from
// spec.md §4.8 / §9's design note: no runtime mutation, one row per
// platform key.
var namedKeysyms = map[NamedKey]uint32{
	KeyBackspace: 0xff08,
	KeyTab:       0xff09,
	KeyReturn:    0xff0d,
	KeyInsert:    0xff63,
	KeyDelete:    0xffff,
	KeyHome:      0xff50,
	KeyEnd:       0xff57,
	KeyPageUp:    0xff55,
	KeyPageDown:  0xff56,
	KeyLeft:      0xff51,
	KeyUp:        0xff52,
	KeyRight:     0xff53,
	KeyDown:      0xff54,
	KeyF1:        0xffbe,
	KeyF2:        0xffbf,
	KeyF3:        0xffc0,
	KeyF4:        0xffc1,
	KeyF5:        0xffc2,
	KeyF6:        0xffc3,
	KeyF7:        0xffc4,
	KeyF8:        0xffc5,
	KeyF9:        0xffc6,
	KeyF10:       0xffc7,
	KeyF11:       0xffc8,
	KeyF12:       0xffc9,
	KeyShift:     0xffe1,
	KeyControl:   0xffe3,
	KeyMeta:      0xffe7,
	KeyAlt:       0xffe9,
}

// Keysym looks up the X11 keysym for a named key.
func (k NamedKey) Keysym() (uint32, bool) {
	v, ok := namedKeysyms[k]
	return v, ok
}
