package ui

import "lovevirus/internal/term"

// Shell is the narrative interpreter as seen by the UI. Every call happens on
// the update goroutine.
type Shell interface {
	SubmitLine(raw string)
	AdvanceIntro() bool
	Prompt() string
	InputEnabled() bool
	Mode() term.Mode
	Infection() float64
}

// Feed is the output log the terminal panel displays.
type Feed interface {
	Lines() []term.Line
	Version() uint64
}

type View interface {
	Run() error
	Stop()
	RequestDraw()
	FlashStatus(msg string)
}

type LayoutMode int

const (
	LayoutFull LayoutMode = iota
	LayoutCompact
	LayoutTooSmall
)

func (m LayoutMode) String() string {
	switch m {
	case LayoutFull:
		return "full"
	case LayoutCompact:
		return "compact"
	default:
		return "too_small"
	}
}
