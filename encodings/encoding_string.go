package encodings

// String implements fmt.Stringer by hand, since `go generate` is not
// run as part of this module's build.
func (e Encoding) String() string {
	switch e {
	case Raw:
		return "Raw"
	case CopyRect:
		return "CopyRect"
	case RRE:
		return "RRE"
	case CoRRE:
		return "CoRRE"
	case Hextile:
		return "Hextile"
	case Zlib:
		return "Zlib"
	case Tight:
		return "Tight"
	case ZlibHex:
		return "ZlibHex"
	case TRLE:
		return "TRLE"
	case ZRLE:
		return "ZRLE"
	case Hitachi:
		return "Hitachi"
	case CursorPseudo:
		return "CursorPseudo"
	case DesktopSizePseudo:
		return "DesktopSizePseudo"
	case ExtendedDesktopSizePseudo:
		return "ExtendedDesktopSizePseudo"
	case DesktopNamePseudo:
		return "DesktopNamePseudo"
	case FencePseudo:
		return "FencePseudo"
	case ContinuousUpdatesPseudo:
		return "ContinuousUpdatesPseudo"
	default:
		return "Unknown"
	}
}
