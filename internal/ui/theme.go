package ui

import (
	"charm.land/lipgloss/v2"

	"lovevirus/internal/term"
)

type Theme struct {
	Header      lipgloss.Style
	Status      lipgloss.Style
	PanelTitle  lipgloss.Style
	PanelBorder lipgloss.Style
	PanelBody   lipgloss.Style
	Accent      lipgloss.Style
	Muted       lipgloss.Style
	Prompt      lipgloss.Style
	Echo        lipgloss.Style
	System      lipgloss.Style
	Message     lipgloss.Style
	Warning     lipgloss.Style
	Error       lipgloss.Style
	Total       lipgloss.Style
	// RainHead and RainTail are the gradient endpoints for the rain band.
	RainHead string
	RainTail string
	// Glamour is the markdown style that suits the palette.
	Glamour string
	Heart   string
}

// Variants lists the accepted theme names, default first.
var Variants = []string{"matrix", "valentine", "mono"}

func DefaultTheme() Theme {
	return ThemeForVariant("matrix")
}

func ThemeForVariant(variant string) Theme {
	switch variant {
	case "valentine":
		return valentineTheme()
	case "mono":
		return monoTheme()
	default:
		return matrixTheme()
	}
}

// LineStyle maps an output line style to its theme style.
func (t Theme) LineStyle(s term.Style) lipgloss.Style {
	switch s {
	case term.StyleMessage:
		return t.Message
	case term.StyleWarning:
		return t.Warning
	case term.StyleError:
		return t.Error
	case term.StyleTotal:
		return t.Total
	default:
		return t.System
	}
}

func matrixTheme() Theme {
	green := lipgloss.Color("#00FF00")
	glow := lipgloss.Color("#B8FFB8")
	amber := lipgloss.Color("#F2D16B")
	red := lipgloss.Color("#FF5F5F")
	pink := lipgloss.Color("#DF2080")
	deep := lipgloss.Color("#020A02")
	forest := lipgloss.Color("#0B2610")
	border := lipgloss.Color("#1F5C2F")

	return Theme{
		Header: lipgloss.NewStyle().
			Background(deep).
			Foreground(glow).
			Bold(true).
			Padding(0, 1),
		Status: lipgloss.NewStyle().
			Background(forest).
			Foreground(glow).
			Padding(0, 1),
		PanelTitle:  lipgloss.NewStyle().Foreground(green).Bold(true),
		PanelBorder: lipgloss.NewStyle().Foreground(border),
		PanelBody:   lipgloss.NewStyle().Foreground(glow),
		Accent:      lipgloss.NewStyle().Foreground(green).Bold(true),
		Muted:       lipgloss.NewStyle().Foreground(lipgloss.Color("#5F8F67")),
		Prompt:      lipgloss.NewStyle().Foreground(green).Bold(true),
		Echo:        lipgloss.NewStyle().Foreground(glow),
		System:      lipgloss.NewStyle().Foreground(glow),
		Message:     lipgloss.NewStyle().Foreground(pink),
		Warning:     lipgloss.NewStyle().Foreground(amber),
		Error:       lipgloss.NewStyle().Foreground(red).Bold(true),
		Total:       lipgloss.NewStyle().Foreground(green).Bold(true),
		RainHead:    "#D8FFD8",
		RainTail:    "#002600",
		Glamour:     "dark",
		Heart:       "#DF2080",
	}
}

func valentineTheme() Theme {
	rose := lipgloss.Color("#FF6F91")
	blush := lipgloss.Color("#FFD6E0")
	honey := lipgloss.Color("#F2B872")
	ruby := lipgloss.Color("#E0245E")
	plum := lipgloss.Color("#2A0F1E")
	wine := lipgloss.Color("#4A1532")

	return Theme{
		Header:      lipgloss.NewStyle().Background(plum).Foreground(blush).Bold(true).Padding(0, 1),
		Status:      lipgloss.NewStyle().Background(wine).Foreground(blush).Padding(0, 1),
		PanelTitle:  lipgloss.NewStyle().Foreground(rose).Bold(true),
		PanelBorder: lipgloss.NewStyle().Foreground(lipgloss.Color("#8A3B5C")),
		PanelBody:   lipgloss.NewStyle().Foreground(blush),
		Accent:      lipgloss.NewStyle().Foreground(rose).Bold(true),
		Muted:       lipgloss.NewStyle().Foreground(lipgloss.Color("#B07A90")),
		Prompt:      lipgloss.NewStyle().Foreground(rose).Bold(true),
		Echo:        lipgloss.NewStyle().Foreground(blush),
		System:      lipgloss.NewStyle().Foreground(blush),
		Message:     lipgloss.NewStyle().Foreground(rose),
		Warning:     lipgloss.NewStyle().Foreground(honey),
		Error:       lipgloss.NewStyle().Foreground(ruby).Bold(true),
		Total:       lipgloss.NewStyle().Foreground(honey).Bold(true),
		RainHead:    "#FFE3EC",
		RainTail:    "#3A0A1F",
		Glamour:     "pink",
		Heart:       "#FF4D8D",
	}
}

// monoTheme uses attributes only, for terminals without colour.
func monoTheme() Theme {
	plain := lipgloss.NewStyle()
	return Theme{
		Header:      plain.Reverse(true).Padding(0, 1),
		Status:      plain.Padding(0, 1),
		PanelTitle:  plain.Bold(true),
		PanelBorder: plain,
		PanelBody:   plain,
		Accent:      plain.Bold(true),
		Muted:       plain.Faint(true),
		Prompt:      plain.Bold(true),
		Echo:        plain,
		System:      plain,
		Message:     plain.Italic(true),
		Warning:     plain.Underline(true),
		Error:       plain.Bold(true),
		Total:       plain.Bold(true),
		Glamour:     "notty",
	}
}
