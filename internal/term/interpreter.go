// Package term implements the scripted shell: a fixed command set over a
// virtual filesystem, driving the story from intro to finale.
package term

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	clog "github.com/charmbracelet/log"

	"lovevirus/internal/story"
	"lovevirus/internal/vfs"
)

type Options struct {
	Story    story.Story
	Output   Output
	Renderer Renderer
	// NewAnimator builds the image animator shown at the finale. When nil the
	// finale shows text only.
	NewAnimator func() Animator
	Events      Events
	Logger      *clog.Logger
	Now         func() time.Time
}

type handler func(args []string, line string)

// decision holds the two continuations of an open yes/no question.
type decision struct {
	onYes func()
	onNo  func()
}

type Interpreter struct {
	story       story.Story
	fs          *vfs.FS
	out         Output
	md          Renderer
	newAnimator func() Animator
	events      Events
	logger      *clog.Logger

	mode         Mode
	commandCount int
	introNext    int
	pending      *decision

	commands map[string]handler
}

func New(opts Options) (*Interpreter, error) {
	if opts.Output == nil {
		return nil, errors.New("term: output is required")
	}
	if opts.Renderer == nil {
		return nil, errors.New("term: renderer is required")
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = clog.New(io.Discard)
	}
	events := opts.Events
	if events == nil {
		events = nopEvents{}
	}

	files := make([]vfs.File, 0, len(opts.Story.Files))
	for _, f := range opts.Story.Files {
		files = append(files, vfs.File{Name: f.Name, Permissions: f.Permissions, Content: f.Content})
	}
	fs, err := vfs.New(opts.Story.Owner, opts.Story.Group, now().Format(vfs.ModDateLayout), files)
	if err != nil {
		return nil, fmt.Errorf("term: build filesystem: %w", err)
	}
	for _, name := range opts.Story.ReferencedFiles() {
		if _, ok := fs.Lookup(name); !ok {
			return nil, fmt.Errorf("term: story references missing file %q", name)
		}
	}

	it := &Interpreter{
		story:       opts.Story,
		fs:          fs,
		out:         opts.Output,
		md:          opts.Renderer,
		newAnimator: opts.NewAnimator,
		events:      events,
		logger:      logger,
		mode:        ModeIntro,
	}
	it.commands = map[string]handler{
		"ls":    it.list,
		"cat":   it.cat,
		"clear": it.clear,
	}
	it.commands[opts.Story.Script.Elevate] = it.elevate
	it.commands[opts.Story.Script.Invocation] = it.runScript
	return it, nil
}

func (it *Interpreter) Mode() Mode { return it.mode }

// CommandCount is the number of non-empty commands submitted in interactive
// mode. Answers to the question are not counted.
func (it *Interpreter) CommandCount() int { return it.commandCount }

// Infection reports story progress in [0,1]. It grows with every command
// until the question is due and is complete only at the finale.
func (it *Interpreter) Infection() float64 {
	switch it.mode {
	case ModeIntro:
		return 0
	case ModeFinale:
		return 1
	}
	due := float64(it.story.DecisionThreshold + 1)
	return 0.9 * min(float64(it.commandCount)/due, 1)
}

func (it *Interpreter) FS() *vfs.FS { return it.fs }

func (it *Interpreter) Story() story.Story { return it.story }

func (it *Interpreter) InputEnabled() bool {
	return it.mode == ModeInteractive || it.mode == ModeAwaitingDecision
}

// Prompt is the text shown before the input line.
func (it *Interpreter) Prompt() string {
	if it.mode == ModeAwaitingDecision {
		return it.story.Prompt.Decision
	}
	p := it.story.Prompt
	return fmt.Sprintf("%s@%s:%s$ ", p.User, p.Host, p.Dir)
}

// SubmitLine handles one line of input. It is ignored while input is
// disabled (intro and finale).
func (it *Interpreter) SubmitLine(raw string) {
	if !it.InputEnabled() {
		it.logger.Debug("term.input_ignored", "mode", it.mode.String())
		return
	}
	line := strings.TrimRight(raw, "\r\n")
	it.out.Append(Line{Kind: LineEcho, Prompt: it.Prompt(), Text: line})

	if it.mode == ModeAwaitingDecision {
		it.resolveDecision(line)
		return
	}
	it.dispatch(line)
}

func (it *Interpreter) dispatch(line string) {
	cmd := strings.TrimSpace(line)
	if cmd == "" {
		return
	}
	it.commandCount++
	fields := strings.Fields(cmd)
	name, args := fields[0], fields[1:]
	it.logger.Info("term.command", "seq", it.commandCount, "name", name, "args", len(args))
	it.events.CommandRun(it.commandCount, cmd)

	h, ok := it.commands[name]
	if !ok {
		it.unknown(name)
		return
	}
	h(args, cmd)
}

func (it *Interpreter) promptYesNo(question string, onYes, onNo func()) {
	it.text(StyleMessage, question)
	it.pending = &decision{onYes: onYes, onNo: onNo}
	it.mode = ModeAwaitingDecision
}

func (it *Interpreter) resolveDecision(answer string) {
	d := it.pending
	it.pending = nil
	it.mode = ModeInteractive

	a := strings.ToLower(strings.TrimSpace(answer))
	yes := a == "y" || a == "yes"
	it.logger.Info("term.decision", "yes", yes)
	if d != nil {
		if yes {
			d.onYes()
		} else {
			d.onNo()
		}
	}
	it.events.DecisionMade(yes)
}

func (it *Interpreter) text(style Style, s string) {
	it.out.Append(Line{Kind: LineText, Style: style, Text: s})
}

func (it *Interpreter) markup(md string) {
	it.out.Append(Line{Kind: LineMarkup, Text: it.md.Render(md)})
}

func (it *Interpreter) styled(lines []story.StyledLine) func() {
	return func() {
		for _, l := range lines {
			it.text(ParseStyle(l.Style), l.Text)
		}
	}
}
