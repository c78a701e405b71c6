package term

// Output is the append-only log the interpreter writes to. Scrolling to the
// newest line is the display's concern.
type Output interface {
	Append(line Line)
	Clear()
}

// Renderer converts markdown into terminal markup. It must never fail.
type Renderer interface {
	Render(markdown string) string
}

// Element is a live, non-text entry in the output log.
type Element interface {
	Render() string
}

// Animator redraws an Element on its own schedule once started.
type Animator interface {
	Surface() Element
	Start()
}

// Events observes narrative progress. Implementations must not call back
// into the interpreter.
type Events interface {
	CommandRun(seq int, line string)
	DecisionMade(yes bool)
	FinaleReached()
}

type Mode int

const (
	ModeIntro Mode = iota
	ModeInteractive
	ModeAwaitingDecision
	ModeFinale
)

func (m Mode) String() string {
	switch m {
	case ModeIntro:
		return "intro"
	case ModeInteractive:
		return "interactive"
	case ModeAwaitingDecision:
		return "awaiting_decision"
	case ModeFinale:
		return "finale"
	default:
		return "unknown"
	}
}

type LineKind int

const (
	LineText LineKind = iota
	LineMarkup
	LineEcho
	LineElement
)

type Style int

const (
	StyleSystem Style = iota
	StyleMessage
	StyleWarning
	StyleError
	StyleTotal
)

// ParseStyle maps story style names; unknown names fall back to message.
func ParseStyle(s string) Style {
	switch s {
	case "system":
		return StyleSystem
	case "warning":
		return StyleWarning
	case "error":
		return StyleError
	default:
		return StyleMessage
	}
}

type Line struct {
	Kind  LineKind
	Style Style
	// Text is plain text, rendered markup or the echoed input depending on Kind.
	Text    string
	Prompt  string
	Element Element
}

type nopEvents struct{}

func (nopEvents) CommandRun(int, string) {}
func (nopEvents) DecisionMade(bool)      {}
func (nopEvents) FinaleReached()         {}
