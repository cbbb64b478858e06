package types

// PlaybackMode is the insertion/selection semantics chosen by the user at
// play time.
type PlaybackMode int

const (
	ModeEnd PlaybackMode = iota
	ModeNext
	ModeAll
	ModeReverse
	ModeShuffle
	ModeJump
	ModeDownloadContainer
	ModeDownloadAudio
	ModeSearch
)

// modeTokens maps the leading prefix-command token to its mode, in the
// exact set the command parser recognizes at the start of message text.
var modeTokens = map[string]PlaybackMode{
	"next":         ModeNext,
	"all":          ModeAll,
	"shuffle":      ModeShuffle,
	"reverse":      ModeReverse,
	"jump":         ModeJump,
	"downloadmkv":  ModeDownloadContainer,
	"downloadmp3":  ModeDownloadAudio,
	"search":       ModeSearch,
}

// ParseLeadingMode recognizes a mode token only at the very start of text,
// returning the mode and the remainder of the text with the token and any
// following whitespace stripped. If the first word is not a mode token,
// it returns (ModeEnd, text, false) unchanged — preserving the documented
// ambiguity that a query whose first word coincides with a mode name is
// reinterpreted as that mode.
func ParseLeadingMode(text string) (mode PlaybackMode, rest string, matched bool) {
	i := 0
	for i < len(text) && text[i] != ' ' {
		i++
	}
	word := text[:i]
	m, ok := modeTokens[word]
	if !ok {
		return ModeEnd, text, false
	}
	for i < len(text) && text[i] == ' ' {
		i++
	}
	return m, text[i:], true
}

func (m PlaybackMode) String() string {
	switch m {
	case ModeEnd:
		return "end"
	case ModeNext:
		return "next"
	case ModeAll:
		return "all"
	case ModeReverse:
		return "reverse"
	case ModeShuffle:
		return "shuffle"
	case ModeJump:
		return "jump"
	case ModeDownloadContainer:
		return "downloadmkv"
	case ModeDownloadAudio:
		return "downloadmp3"
	case ModeSearch:
		return "search"
	default:
		return "unknown"
	}
}
