package vnc

import (
	"errors"
	"image"
)

// HandshakeState is the tagged variant from spec.md §3's HandshakeState:
// ProtocolVersion → Security → (SecurityResult) → ClientInit →
// ServerInit → Running → Failed.
type HandshakeState int

const (
	StateProtocolVersion HandshakeState = iota
	StateSecurity
	StateSecurityResult
	StateClientInit
	StateServerInit
	StateRunning
	StateFailed
)

func (s HandshakeState) String() string {
	switch s {
	case StateProtocolVersion:
		return "ProtocolVersion"
	case StateSecurity:
		return "Security"
	case StateSecurityResult:
		return "SecurityResult"
	case StateClientInit:
		return "ClientInit"
	case StateServerInit:
		return "ServerInit"
	case StateRunning:
		return "Running"
	case StateFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// ProtocolVersion is the negotiated RFB wire version, spec.md §3.
type ProtocolVersion int

const (
	VersionUnknown ProtocolVersion = iota
	V3_3
	V3_7
	V3_8
)

func (v ProtocolVersion) String() string {
	switch v {
	case V3_3:
		return "3.3"
	case V3_7:
		return "3.7"
	case V3_8:
		return "3.8"
	default:
		return "unknown"
	}
}

// SecurityType is the RFB security type byte, spec.md §3. Only None is
// honored by this core; anything else is an unsupported feature.
type SecurityType uint8

const (
	SecurityInvalid SecurityType = 0
	SecurityNone    SecurityType = 1
	SecurityVNCAuth SecurityType = 2
)

// pendingUpdate tracks a FramebufferUpdate message in progress across
// possibly many Feed calls: how many rectangles remain, and (if its
// header has already been parsed) which rectangle is currently being
// decoded, so a short read never re-parses a header it already
// consumed.
type pendingUpdate struct {
	remaining   int
	currentRect *Rectangle
}

// SessionConfig configures a Session at construction. Once passed to
// NewSession it should not be modified, mirroring the teacher's
// ClientConfig contract.
type SessionConfig struct {
	// Logger receives structured warnings/errors per spec.md §7. Nil
	// selects a glog-backed default.
	Logger Logger

	// JPEGDecoder services TIGHT's JPEG subtype. Nil selects a
	// stdlib-backed default (spec.md §1 treats JPEG decoding as an
	// external black box).
	JPEGDecoder JPEGDecoder

	// EncodingPreference is the SetEncodings advertisement order. Nil
	// selects Tight, ZRLE, Hextile, Raw (spec.md §4.2).
	EncodingPreference []int32
}

// Session is the Facade from spec.md §4.8: it owns the framebuffer,
// pixel format, protocol version, security type, state, zlib bank, and
// transport handle, and is bound to at most one transport at a time.
type Session struct {
	state           HandshakeState
	protocolVersion ProtocolVersion
	securityType    SecurityType
	desktopName     string

	reader      *ByteReader
	transport   Transport
	pending     *pendingUpdate
	needsFullRefresh bool

	pixelConv   *PixelConverter
	framebuffer *Framebuffer
	zlibBank    *ZlibBank
	jpegDecoder JPEGDecoder

	encodingPreference []int32
	logger             Logger
	metrics            *sessionMetrics

	onRegionChanged   func(Rectangle)
	onSizeChanged     func(w, h int)
	onConnectionState func(connected bool)
}

// NewSession constructs a Session in its initial ProtocolVersion state.
// cfg may be nil to accept every default.
func NewSession(cfg *SessionConfig) *Session {
	if cfg == nil {
		cfg = &SessionConfig{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = glogLogger{}
	}
	jpegDecoder := cfg.JPEGDecoder
	if jpegDecoder == nil {
		jpegDecoder = stdlibJPEGDecoder{}
	}
	prefs := cfg.EncodingPreference
	if len(prefs) == 0 {
		prefs = defaultEncodingPreference
	}

	return &Session{
		state:              StateProtocolVersion,
		reader:             NewByteReader(),
		pixelConv:          NewPixelConverter(DefaultPixelFormat()),
		zlibBank:           NewZlibBank(),
		jpegDecoder:        jpegDecoder,
		encodingPreference: prefs,
		logger:             logger,
		metrics:            &sessionMetrics{},
	}
}

// AttachTransport binds a transport handle for outgoing writes. The
// core does not read from it directly; the host must call Feed as
// bytes arrive.
func (s *Session) AttachTransport(t Transport) {
	s.transport = t
	s.notifyConnectionState(true)
}

// DetachTransport unbinds the transport, releases the zlib bank
// deterministically, and abandons any rectangle mid-parse, per
// spec.md §5's teardown rule. The framebuffer is left in its last
// consistent state.
func (s *Session) DetachTransport() {
	s.transport = nil
	s.pending = nil
	s.zlibBank.Close()
	s.notifyConnectionState(false)
}

// State reports the current HandshakeState.
func (s *Session) State() HandshakeState { return s.state }

// DesktopName returns the name the server sent in ServerInit.
func (s *Session) DesktopName() string { return s.desktopName }

// FramebufferSize returns the negotiated framebuffer dimensions, or
// (0, 0) before ServerInit.
func (s *Session) FramebufferSize() (w, h int) {
	if s.framebuffer == nil {
		return 0, 0
	}
	return s.framebuffer.Size()
}

// ImageSnapshot returns a frozen copy of the framebuffer.
func (s *Session) ImageSnapshot() *image.RGBA {
	if s.framebuffer == nil {
		return nil
	}
	return s.framebuffer.Snapshot()
}

// View returns the live framebuffer image for hosts that wrap their
// own synchronization around it, per spec.md §5.
func (s *Session) View() *image.RGBA {
	if s.framebuffer == nil {
		return nil
	}
	return s.framebuffer.View()
}

// OnRegionChanged registers the callback fired once per decoded
// rectangle, after its pixels have been written (spec.md §5).
func (s *Session) OnRegionChanged(fn func(Rectangle)) { s.onRegionChanged = fn }

// OnSizeChanged registers the callback fired exactly once per session,
// on ServerInit (spec.md §8's invariant).
func (s *Session) OnSizeChanged(fn func(w, h int)) { s.onSizeChanged = fn }

// OnConnectionState registers the callback fired on attach/detach and
// on transitioning to Failed.
func (s *Session) OnConnectionState(fn func(bool)) { s.onConnectionState = fn }

func (s *Session) notifyRegionChanged(rect Rectangle) {
	if s.onRegionChanged != nil {
		s.onRegionChanged(rect)
	}
}

func (s *Session) notifySizeChanged(w, h int) {
	if s.onSizeChanged != nil {
		s.onSizeChanged(w, h)
	}
}

func (s *Session) notifyConnectionState(connected bool) {
	if s.onConnectionState != nil {
		s.onConnectionState(connected)
	}
}

func (s *Session) write(data []byte) error {
	if s.transport == nil {
		return transportErrorf(nil, "no transport attached")
	}
	n, err := s.transport.Write(data)
	if err != nil {
		return transportErrorf(err, "write failed")
	}
	s.metrics.BytesSent.Adjust(int64(n))
	return nil
}

// Feed appends newly arrived transport bytes and drives the dispatcher
// until it either exhausts the buffer or needs more data than is
// available, per spec.md §4.1's must-succeed-or-defer rule. Feed is
// safe to call repeatedly, including one byte at a time.
func (s *Session) Feed(data []byte) error {
	if s.state == StateFailed {
		return nil
	}
	s.metrics.BytesReceived.Adjust(int64(len(data)))
	s.reader.Feed(data)

	for {
		progressed, err := s.step()
		if err != nil {
			s.fail(err)
			return err
		}
		if !progressed {
			return nil
		}
	}
}

func (s *Session) fail(err error) {
	s.logger.Errorf("session failed: %v", err)
	s.state = StateFailed
	s.pending = nil
	s.notifyConnectionState(false)
}

// step attempts exactly one unit of forward progress from the current
// state. It returns (true, nil) if it advanced, (false, nil) if it
// needs more buffered data and left all state untouched, or a non-nil
// error if the session must transition to Failed.
func (s *Session) step() (bool, error) {
	switch s.state {
	case StateProtocolVersion:
		return s.stepProtocolVersion()
	case StateSecurity:
		return s.stepSecurity()
	case StateSecurityResult:
		return s.stepSecurityResult()
	case StateClientInit:
		return s.stepClientInit()
	case StateServerInit:
		return s.stepServerInit()
	case StateRunning:
		return s.stepRunning()
	case StateFailed:
		s.reader.Discard(s.reader.Available())
		return false, nil
	default:
		return false, desyncErrorf("session: unknown state %d", s.state)
	}
}

func parseProtocolVersionString(b []byte) (ProtocolVersion, error) {
	if len(b) != 12 || string(b[0:4]) != "RFB " || b[11] != '\n' {
		return VersionUnknown, desyncErrorf("malformed protocol version string %q", b)
	}
	if string(b[4:8]) != "003." || b[8] != '0' {
		return VersionUnknown, desyncErrorf("unrecognized protocol version string %q", b)
	}
	switch string(b[9:11]) {
	case "03":
		return V3_3, nil
	case "07":
		return V3_7, nil
	case "08":
		return V3_8, nil
	default:
		return VersionUnknown, desyncErrorf("unsupported protocol version string %q", b)
	}
}

// stepProtocolVersion implements spec.md §4.1's ProtocolVersion row.
// The client always replies "RFB 003.003\n" regardless of the server's
// offer (spec.md §3, §9.1: current behavior, kept deliberately).
func (s *Session) stepProtocolVersion() (bool, error) {
	b, ok := s.reader.PeekBytes(12)
	if !ok {
		return false, nil
	}
	version, err := parseProtocolVersionString(b)
	if err != nil {
		return true, err
	}
	s.reader.Discard(12)
	s.protocolVersion = version
	s.logger.Infof("server offered protocol %s, downgrading to 3.3", version)

	if err := s.write([]byte("RFB 003.003\n")); err != nil {
		return true, err
	}
	s.state = StateSecurity
	return true, nil
}

func chooseNoneSecurity(offered []byte) (byte, bool) {
	for _, t := range offered {
		if t == byte(SecurityNone) {
			return t, true
		}
	}
	return 0, false
}

// stepSecurity implements spec.md §4.1's Security row, including
// §9.1's open question: the 3.7/3.8 branch reads a list and prefers
// None; V3.7 then jumps straight to ClientInit without a
// SecurityResult phase (bug-compatible, per the spec's explicit
// instruction not to silently fix this).
func (s *Session) stepSecurity() (bool, error) {
	mark := s.reader.Mark()

	switch s.protocolVersion {
	case V3_3:
		secType, ok := s.reader.ReadUint32BE()
		if !ok {
			return false, nil
		}
		if secType != uint32(SecurityNone) {
			return true, unsupportedErrorf("security: server selected unsupported type %d", secType)
		}
		s.securityType = SecurityNone
		s.state = StateClientInit
		return true, nil

	case V3_7, V3_8:
		count, ok := s.reader.ReadUint8()
		if !ok {
			return false, nil
		}
		offered, ok := s.reader.ReadBytes(int(count))
		if !ok {
			s.reader.Reset(mark)
			return false, nil
		}
		chosen, ok := chooseNoneSecurity(offered)
		if !ok {
			return true, unsupportedErrorf("security: server offered no supported type in %v", offered)
		}
		if err := s.write([]byte{chosen}); err != nil {
			return true, err
		}
		s.securityType = SecurityNone
		if s.protocolVersion == V3_8 {
			s.state = StateSecurityResult
		} else {
			s.state = StateClientInit
		}
		return true, nil

	default:
		return true, desyncErrorf("security: unhandled protocol version %s", s.protocolVersion)
	}
}

// stepSecurityResult implements spec.md §4.1's SecurityResult row,
// reached only for V3.8.
func (s *Session) stepSecurityResult() (bool, error) {
	mark := s.reader.Mark()

	status, ok := s.reader.ReadUint32BE()
	if !ok {
		return false, nil
	}
	if status != 0 {
		reasonLen, ok := s.reader.ReadUint32BE()
		if !ok {
			s.reader.Reset(mark)
			return false, nil
		}
		reason, ok := s.reader.ReadBytes(int(reasonLen))
		if !ok {
			s.reader.Reset(mark)
			return false, nil
		}
		return true, desyncErrorf("security handshake failed: %s", string(reason))
	}
	s.state = StateClientInit
	return true, nil
}

// stepClientInit implements spec.md §4.1's ClientInit row: write the
// shared-flag byte.
func (s *Session) stepClientInit() (bool, error) {
	if err := s.write([]byte{1}); err != nil {
		return true, err
	}
	s.state = StateServerInit
	return true, nil
}

// stepServerInit implements spec.md §4.1's ServerInit row.
func (s *Session) stepServerInit() (bool, error) {
	header, ok := s.reader.PeekBytes(2 + 2 + 16 + 4)
	if !ok {
		return false, nil
	}
	w := getUint16BE(header[0:2])
	h := getUint16BE(header[2:4])

	pfReader := &ByteReader{}
	pfReader.Feed(header[4:20])
	pf, err := ReadPixelFormat(pfReader)
	if err != nil {
		return true, desyncErrorf("server init: malformed pixel format")
	}
	nameLen := beUint32(header[20:24])

	// Commit the fixed-size header only once the variable-length name
	// is confirmed available too, keeping this whole step atomic.
	if _, ok := s.reader.PeekBytes(24 + int(nameLen)); !ok {
		return false, nil
	}
	s.reader.Discard(24)
	nameBytes, _ := s.reader.ReadBytes(int(nameLen))

	s.desktopName = string(nameBytes)
	s.framebuffer = NewFramebuffer(int(w), int(h))
	s.pixelConv.SetFormat(pf)
	s.logger.Infof("server init: %dx%d %q", w, h, s.desktopName)
	s.notifySizeChanged(int(w), int(h))

	if err := s.write(encodeSetPixelFormat(pf)); err != nil {
		return true, err
	}
	if err := s.write(encodeSetEncodings(s.encodingPreference)); err != nil {
		return true, err
	}
	if err := s.write(encodeFramebufferUpdateRequest(false, 0, 0, w, h)); err != nil {
		return true, err
	}

	s.state = StateRunning
	return true, nil
}

// stepRunning implements spec.md §4.1's Running row and the
// FramebufferUpdate parsing rules in the paragraph beneath the table.
func (s *Session) stepRunning() (bool, error) {
	if s.pending == nil {
		mark := s.reader.Mark()
		msgType, ok := s.reader.ReadUint8()
		if !ok {
			return false, nil
		}
		if msgType != msgFramebufferUpdate {
			s.logger.Warningf("running: ignoring unsupported server message type %d (%s)", msgType, serverMessageName(msgType))
			return true, nil
		}
		if !s.reader.Discard(1) { // padding byte
			s.reader.Reset(mark)
			return false, nil
		}
		count, ok := s.reader.ReadUint16BE()
		if !ok {
			s.reader.Reset(mark)
			return false, nil
		}
		s.pending = &pendingUpdate{remaining: int(count)}
		return true, nil
	}

	if s.pending.remaining == 0 {
		w, h := s.framebuffer.Size()
		incremental := !s.needsFullRefresh
		if err := s.write(encodeFramebufferUpdateRequest(incremental, 0, 0, uint16(w), uint16(h))); err != nil {
			return true, err
		}
		s.pending = nil
		s.needsFullRefresh = false
		return true, nil
	}

	if s.pending.currentRect == nil {
		rect, err := ReadRectangleHeader(s.reader)
		if err != nil {
			if err == errNeedMoreData {
				return false, nil
			}
			return true, err
		}
		s.pending.currentRect = &rect
	}
	rect := *s.pending.currentRect

	decodeFn, known := decoders[rect.Encoding]
	if !known {
		// The rectangle's byte length is a function of its encoding;
		// an encoding this session does not implement has no way to
		// be skipped correctly in general. This core assumes such a
		// rectangle carries no payload and moves on, per spec.md §4.1's
		// "unknown bytes may desynchronize — accepted limitation".
		s.logger.Warningf("running: unsupported encoding %d for %dx%d rect, treating as zero-length", rect.Encoding, rect.W, rect.H)
		s.metrics.RectanglesSkipped.Adjust(1)
		s.pending.currentRect = nil
		s.pending.remaining--
		return true, nil
	}

	err := decodeFn(s, rect)
	if err == errNeedMoreData {
		return false, nil
	}
	if err != nil {
		var verr *VNCError
		if errors.As(err, &verr) {
			switch verr.Kind {
			case KindDesync:
				// The decoder rolled back bytes it can't safely skip
				// (e.g. TIGHT's reserved compression type or an
				// unrecognized filter id) — the wire position is no
				// longer known to align with a rectangle boundary, so
				// this can't be treated as "drop one rectangle and keep
				// going" like KindUnsupported/KindCodec below. Propagate
				// it so Feed fails the whole session.
				return true, err
			case KindCodec:
				s.needsFullRefresh = true
			}
		}
		s.logger.Warningf("running: skipping rectangle (encoding %d): %v", rect.Encoding, err)
		s.metrics.RectanglesSkipped.Adjust(1)
		s.pending.currentRect = nil
		s.pending.remaining--
		return true, nil
	}

	s.metrics.RectanglesDecoded.Adjust(1)
	s.notifyRegionChanged(rect)
	s.pending.currentRect = nil
	s.pending.remaining--
	return true, nil
}

func beUint32(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}
