package app

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/x/ansi"

	"lovevirus/internal/demo"
	"lovevirus/internal/term"
	"lovevirus/internal/ui"
)

const defaultHeartWait = 3 * time.Second

type PlayOptions struct {
	// Demo names a scripted scenario. Empty reads lines from the input.
	Demo string
	// Fast reveals the intro without pauses.
	Fast bool
	// HeartWait bounds the wait for the first heart frame after the finale.
	HeartWait time.Duration
}

type PlayResult struct {
	SessionID string
	Commands  int
	Mode      term.Mode
	// Heart is the first finale frame, empty when none was drawn in time.
	Heart string
}

// Play drives the interpreter without a TUI: lines come from in or a demo
// scenario and every output line is printed to out as it is produced.
func (a *App) Play(ctx context.Context, in io.Reader, out io.Writer, opts PlayOptions) (PlayResult, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	f, _ := out.(*os.File)
	tty := isTerminal(f)
	theme := ui.ThemeForVariant(a.cfg.UI.Theme)
	md, err := a.markdown(theme.Glamour, f)
	if err != nil {
		return PlayResult{}, err
	}
	p := &printer{w: out, tty: tty, theme: theme}

	color := ""
	if tty {
		color = theme.Heart
	}
	it, sessionID, err := a.startSession(ctx, session{mode: modePlay, out: p, md: md, color: color})
	if err != nil {
		return PlayResult{}, err
	}
	res := PlayResult{SessionID: sessionID}
	a.logger.Info("app.start", "session", sessionID, "mode", modePlay, "demo", opts.Demo, "story", a.story.Title)

	delay := a.cfg.IntroDelay
	if opts.Fast {
		delay = 0
	}
	if err := it.RunIntro(ctx, delay); err != nil {
		return a.finishPlay(res, it), err
	}

	var lines <-chan string
	if opts.Demo != "" {
		lines = scenarioLines(ctx, demo.NewManager().Resolve(opts.Demo))
	} else {
		lines = readLines(ctx, in)
	}
	for it.Mode() != term.ModeFinale {
		select {
		case <-ctx.Done():
			return a.finishPlay(res, it), ctx.Err()
		case line, ok := <-lines:
			if !ok {
				return a.finishPlay(res, it), p.err
			}
			it.SubmitLine(line)
		}
		if p.err != nil {
			return a.finishPlay(res, it), p.err
		}
	}

	wait := opts.HeartWait
	if wait <= 0 {
		wait = defaultHeartWait
	}
	res.Heart = p.waitElement(ctx, wait)
	if res.Heart != "" {
		p.println(res.Heart)
	} else {
		a.logger.Warn("play.heart_timeout", "session", sessionID, "wait", wait)
	}
	return a.finishPlay(res, it), p.err
}

func (a *App) finishPlay(res PlayResult, it *term.Interpreter) PlayResult {
	res.Commands = it.CommandCount()
	res.Mode = it.Mode()
	a.logger.Info("app.stop", "session", res.SessionID, "commands", res.Commands, "mode", res.Mode.String())
	return res
}

func readLines(ctx context.Context, in io.Reader) <-chan string {
	ch := make(chan string)
	go func() {
		defer close(ch)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case ch <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch
}

func scenarioLines(ctx context.Context, s demo.Scenario) <-chan string {
	ch := make(chan string)
	go func() {
		defer close(ch)
		for _, line := range s.Lines {
			select {
			case ch <- line:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch
}

// printer is the headless Output. Styling is only kept on terminals.
type printer struct {
	w        io.Writer
	tty      bool
	theme    ui.Theme
	elements []term.Element
	err      error
}

func (p *printer) Append(l term.Line) {
	switch l.Kind {
	case term.LineEcho:
		p.println(p.style(p.theme.Prompt, l.Prompt) + p.style(p.theme.Echo, l.Text))
	case term.LineMarkup:
		p.println(l.Text)
	case term.LineElement:
		if l.Element != nil {
			p.elements = append(p.elements, l.Element)
		}
	default:
		p.println(p.style(p.theme.LineStyle(l.Style), l.Text))
	}
}

func (p *printer) Clear() {
	p.elements = nil
	if p.tty {
		p.write(ansi.EraseEntireScreen + ansi.CursorHomePosition)
	}
}

func (p *printer) style(s lipgloss.Style, text string) string {
	if !p.tty {
		return text
	}
	return s.Render(text)
}

func (p *printer) println(s string) {
	if !p.tty {
		s = ansi.Strip(s)
	}
	p.write(s + "\n")
}

func (p *printer) write(s string) {
	if p.err != nil {
		return
	}
	if _, err := io.WriteString(p.w, s); err != nil {
		p.err = fmt.Errorf("write output: %w", err)
	}
}

type frameWaiter interface {
	WaitFrame(ctx context.Context) bool
}

// waitElement blocks until the latest element has drawn a frame or wait
// elapses, and returns that frame.
func (p *printer) waitElement(ctx context.Context, wait time.Duration) string {
	if len(p.elements) == 0 {
		return ""
	}
	el := p.elements[len(p.elements)-1]
	if w, ok := el.(frameWaiter); ok {
		wctx, cancel := context.WithTimeout(ctx, wait)
		defer cancel()
		if !w.WaitFrame(wctx) {
			return ""
		}
	}
	return strings.TrimRight(el.Render(), "\n")
}
