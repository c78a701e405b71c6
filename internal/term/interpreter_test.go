package term

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"lovevirus/internal/story"
)

type fakeRenderer struct{}

func (fakeRenderer) Render(md string) string { return "md:" + md }

type fakeElement struct{}

func (fakeElement) Render() string { return "<heart>" }

type fakeAnimator struct{ starts int }

func (a *fakeAnimator) Surface() Element { return fakeElement{} }
func (a *fakeAnimator) Start()           { a.starts++ }

type recordedEvents struct {
	commands  []string
	decisions []bool
	finales   int
}

func (e *recordedEvents) CommandRun(seq int, line string) {
	e.commands = append(e.commands, fmt.Sprintf("%d:%s", seq, line))
}
func (e *recordedEvents) DecisionMade(yes bool) { e.decisions = append(e.decisions, yes) }
func (e *recordedEvents) FinaleReached()        { e.finales++ }

type harness struct {
	it     *Interpreter
	log    *Log
	anim   *fakeAnimator
	events *recordedEvents
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	st, err := story.Default()
	if err != nil {
		t.Fatalf("default story: %v", err)
	}
	h := &harness{log: NewLog(0), anim: &fakeAnimator{}, events: &recordedEvents{}}
	h.it, err = New(Options{
		Story:       st,
		Output:      h.log,
		Renderer:    fakeRenderer{},
		NewAnimator: func() Animator { return h.anim },
		Events:      h.events,
		Now:         func() time.Time { return time.Date(2025, 2, 14, 9, 5, 0, 0, time.UTC) },
	})
	if err != nil {
		t.Fatalf("new interpreter: %v", err)
	}
	for !h.it.AdvanceIntro() {
	}
	h.log.Clear()
	return h
}

// run submits a line and returns the lines it appended.
func (h *harness) run(line string) []Line {
	before := h.log.Len()
	h.it.SubmitLine(line)
	return h.log.Lines()[before:]
}

func texts(lines []Line) []string {
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		out = append(out, l.Text)
	}
	return out
}

func TestNewRequiresCollaborators(t *testing.T) {
	st, err := story.Default()
	if err != nil {
		t.Fatalf("default story: %v", err)
	}
	if _, err := New(Options{Story: st, Renderer: fakeRenderer{}}); err == nil {
		t.Fatalf("expected error without output")
	}
	if _, err := New(Options{Story: st, Output: NewLog(0)}); err == nil {
		t.Fatalf("expected error without renderer")
	}
	st.VirusLog = "missing.log"
	if _, err := New(Options{Story: st, Output: NewLog(0), Renderer: fakeRenderer{}}); err == nil {
		t.Fatalf("expected error for missing referenced file")
	}
}

func TestIntroDisablesInputUntilDone(t *testing.T) {
	st, _ := story.Default()
	log := NewLog(0)
	it, err := New(Options{Story: st, Output: log, Renderer: fakeRenderer{}})
	if err != nil {
		t.Fatalf("new interpreter: %v", err)
	}
	if it.Mode() != ModeIntro || it.InputEnabled() {
		t.Fatalf("expected intro mode with input disabled")
	}
	it.SubmitLine("ls")
	if log.Len() != 0 || it.CommandCount() != 0 {
		t.Fatalf("input during intro must be ignored")
	}

	steps := 0
	for !it.AdvanceIntro() {
		steps++
	}
	if steps != len(st.Intro) {
		t.Fatalf("expected %d reveal steps, got %d", len(st.Intro), steps)
	}
	if log.Len() != len(st.Intro) {
		t.Fatalf("expected %d intro lines, got %d", len(st.Intro), log.Len())
	}
	if it.Mode() != ModeInteractive {
		t.Fatalf("expected interactive after intro, got %s", it.Mode())
	}
	if !it.AdvanceIntro() || log.Len() != len(st.Intro) {
		t.Fatalf("advancing after the intro must be a no-op")
	}
}

func TestRunIntro(t *testing.T) {
	st, _ := story.Default()
	log := NewLog(0)
	it, err := New(Options{Story: st, Output: log, Renderer: fakeRenderer{}})
	if err != nil {
		t.Fatalf("new interpreter: %v", err)
	}
	if err := it.RunIntro(context.Background(), time.Millisecond); err != nil {
		t.Fatalf("run intro: %v", err)
	}
	if it.Mode() != ModeInteractive || log.Len() != len(st.Intro) {
		t.Fatalf("unexpected state after intro: %s, %d lines", it.Mode(), log.Len())
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := it.RunIntro(ctx, time.Hour); err == nil {
		t.Fatalf("expected cancellation error")
	}
	if it.InputEnabled() {
		t.Fatalf("cancelled intro must leave input disabled")
	}
}

func TestEchoUsesPrompt(t *testing.T) {
	h := newHarness(t)
	out := h.run("ls\n")
	if len(out) == 0 || out[0].Kind != LineEcho {
		t.Fatalf("expected echo line first, got %+v", out)
	}
	if out[0].Prompt != "mel@meu-coracao:~$ " || out[0].Text != "ls" {
		t.Fatalf("unexpected echo %+v", out[0])
	}
}

func TestEmptyLineEchoesOnly(t *testing.T) {
	h := newHarness(t)
	out := h.run("   ")
	if len(out) != 1 || out[0].Kind != LineEcho {
		t.Fatalf("expected only an echo, got %+v", out)
	}
	if h.it.CommandCount() != 0 {
		t.Fatalf("empty line must not count")
	}
}

func TestListBareAndHidden(t *testing.T) {
	h := newHarness(t)
	out := h.run("ls")
	want := "leia-me.txt   poema_para_ela.txt   memoria_especial.dat   protocolo_amor.sh"
	if len(out) != 2 || out[1].Text != want || out[1].Style != StyleSystem {
		t.Fatalf("unexpected ls output %q", texts(out))
	}
	out = h.run("ls -a")
	if !strings.Contains(out[1].Text, ".love_virus.log") {
		t.Fatalf("expected hidden file with -a, got %q", out[1].Text)
	}
}

func TestListLong(t *testing.T) {
	for _, flag := range []string{"-la", "-al"} {
		h := newHarness(t)
		out := h.run("ls " + flag)[1:]
		if len(out) != 1+2+h.it.FS().Len() {
			t.Fatalf("%s: expected header plus %d rows, got %d", flag, 2+h.it.FS().Len(), len(out))
		}
		if out[0].Style != StyleTotal || out[0].Text != fmt.Sprintf("total %d", h.it.FS().TotalSize()) {
			t.Fatalf("%s: unexpected header %q", flag, out[0].Text)
		}
		if !strings.HasPrefix(out[1].Text, "drwxr-xr-x 1 amor carinho 4096 Feb 14 09:05 ") || !strings.HasSuffix(out[1].Text, " .") {
			t.Fatalf("%s: unexpected first row %q", flag, out[1].Text)
		}
		if !strings.HasSuffix(out[2].Text, " ..") {
			t.Fatalf("%s: unexpected second row %q", flag, out[2].Text)
		}
		if !strings.HasPrefix(out[4].Text, "-rw------- 1 amor carinho") || !strings.HasSuffix(out[4].Text, ".love_virus.log") {
			t.Fatalf("%s: unexpected virus log row %q", flag, out[4].Text)
		}
		width := len(out[1].Text) - len(".")
		for _, row := range out[1:] {
			name := row.Text[strings.LastIndex(row.Text, " ")+1:]
			if len(row.Text)-len(name) != width {
				t.Fatalf("%s: rows not aligned: %q", flag, texts(out))
			}
		}
	}
}

func TestCatNotFound(t *testing.T) {
	h := newHarness(t)
	out := h.run("cat nada.txt")
	if len(out) != 2 || out[1].Style != StyleWarning || out[1].Text != "cat: nada.txt: Arquivo não encontrado" {
		t.Fatalf("unexpected output %+v", out)
	}
	out = h.run("cat")
	if out[1].Text != "cat: nenhum arquivo especificado: Arquivo não encontrado" {
		t.Fatalf("unexpected output %q", out[1].Text)
	}
	out = h.run("cat LEIA-ME.TXT")
	if out[1].Style != StyleWarning {
		t.Fatalf("lookups must be case sensitive")
	}
}

func TestCatRendersMarkupAndIgnoresExtraArgs(t *testing.T) {
	h := newHarness(t)
	rec, _ := h.it.FS().Lookup("leia-me.txt")
	out := h.run("cat leia-me.txt poema_para_ela.txt")
	if len(out) != 2 || out[1].Kind != LineMarkup || out[1].Text != "md:"+rec.Content {
		t.Fatalf("unexpected output %+v", out)
	}
}

func TestVirusLogEarlyDoesNotAsk(t *testing.T) {
	h := newHarness(t)
	h.run("cat .love_virus.log")
	h.run("ls")
	if h.it.Mode() != ModeInteractive {
		t.Fatalf("question must not be asked before the threshold")
	}
	h.run("cat .love_virus.log")
	if h.it.Mode() != ModeAwaitingDecision {
		t.Fatalf("expected question on third command")
	}
	if h.it.Prompt() != "> " {
		t.Fatalf("expected decision prompt, got %q", h.it.Prompt())
	}
}

func TestDecisionBranches(t *testing.T) {
	st, _ := story.Default()
	cases := []struct {
		answer string
		yes    bool
	}{
		{"y", true},
		{" YES ", true},
		{"Yes", true},
		{"n", false},
		{"", false},
		{"talvez", false},
		{"yess", false},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("%q", tc.answer), func(t *testing.T) {
			h := newHarness(t)
			h.run("ls")
			h.run("ls")
			out := h.run("cat .love_virus.log")
			last := out[len(out)-1]
			if last.Style != StyleMessage || last.Text != st.Decision.Question {
				t.Fatalf("expected question, got %+v", last)
			}
			count := h.it.CommandCount()

			out = h.run(tc.answer)
			if out[0].Kind != LineEcho || out[0].Prompt != "> " {
				t.Fatalf("expected echo with decision prompt, got %+v", out[0])
			}
			branch := st.Decision.No
			if tc.yes {
				branch = st.Decision.Yes
			}
			got := out[1:]
			if len(got) != len(branch) {
				t.Fatalf("expected %d branch lines, got %q", len(branch), texts(got))
			}
			for i, l := range branch {
				if got[i].Text != l.Text || got[i].Style != ParseStyle(l.Style) {
					t.Fatalf("line %d: got %+v want %+v", i, got[i], l)
				}
			}
			if h.it.Mode() != ModeInteractive || h.it.Prompt() != "mel@meu-coracao:~$ " {
				t.Fatalf("expected interactive mode with normal prompt")
			}
			if h.it.CommandCount() != count {
				t.Fatalf("answer must not count as a command")
			}
			if len(h.events.decisions) != 1 || h.events.decisions[0] != tc.yes {
				t.Fatalf("unexpected decision events %v", h.events.decisions)
			}
		})
	}
}

func TestQuestionIsAskedAgain(t *testing.T) {
	h := newHarness(t)
	h.run("ls")
	h.run("ls")
	h.run("cat .love_virus.log")
	h.run("n")
	h.run("cat .love_virus.log")
	if h.it.Mode() != ModeAwaitingDecision {
		t.Fatalf("expected question on every later read")
	}
}

func TestClearIsIdempotent(t *testing.T) {
	h := newHarness(t)
	h.run("ls")
	h.run("clear")
	if h.log.Len() != 0 {
		t.Fatalf("expected empty log after clear, got %d lines", h.log.Len())
	}
	h.run("clear")
	if h.log.Len() != 0 {
		t.Fatalf("expected empty log after second clear")
	}
}

func TestSudoUnknownTarget(t *testing.T) {
	h := newHarness(t)
	out := h.run("sudo rm -rf")
	if out[1].Style != StyleWarning || out[1].Text != "sudo: rm: comando não encontrado" {
		t.Fatalf("unexpected output %q", texts(out))
	}
	out = h.run("sudo")
	if out[1].Text != "sudo: : comando não encontrado" {
		t.Fatalf("unexpected output %q", out[1].Text)
	}
}

func TestScriptWithoutSudo(t *testing.T) {
	h := newHarness(t)
	out := h.run("./protocolo_amor.sh")
	if len(out) != 3 || out[1].Style != StyleError || out[2].Style != StyleWarning {
		t.Fatalf("unexpected output %+v", out)
	}
	if !strings.Contains(out[2].Text, "`sudo ./protocolo_amor.sh`") {
		t.Fatalf("expected sudo hint, got %q", out[2].Text)
	}
}

func TestUnknownCommandSuggests(t *testing.T) {
	h := newHarness(t)
	out := h.run("cta leia-me.txt")
	if out[1].Style != StyleError || out[1].Text != "cta: comando não encontrado. Tente seguir as dicas do arquivo `leia-me.txt`." {
		t.Fatalf("unexpected error line %q", out[1].Text)
	}
	if len(out) != 3 || out[2].Text != "Você quis dizer `cat`?" {
		t.Fatalf("expected suggestion, got %q", texts(out))
	}
	out = h.run("whoami")
	if len(out) != 2 {
		t.Fatalf("expected no suggestion for distant command, got %q", texts(out))
	}
}

func TestFinaleLocksInput(t *testing.T) {
	h := newHarness(t)
	out := h.run("sudo ./protocolo_amor.sh")
	if h.anim.starts != 1 {
		t.Fatalf("expected animator started once, got %d", h.anim.starts)
	}
	if len(out) != 3 || out[1].Kind != LineElement || out[2].Kind != LineMarkup {
		t.Fatalf("unexpected finale output %+v", out)
	}
	if h.it.Mode() != ModeFinale || h.it.InputEnabled() {
		t.Fatalf("expected finale with input disabled")
	}
	if h.events.finales != 1 {
		t.Fatalf("expected finale event")
	}

	before := h.log.Len()
	h.it.SubmitLine("ls")
	if h.log.Len() != before {
		t.Fatalf("input after the finale must not echo")
	}
}

func TestFinaleWithoutAnimator(t *testing.T) {
	st, _ := story.Default()
	log := NewLog(0)
	it, err := New(Options{Story: st, Output: log, Renderer: fakeRenderer{}})
	if err != nil {
		t.Fatalf("new interpreter: %v", err)
	}
	for !it.AdvanceIntro() {
	}
	it.SubmitLine("sudo ./protocolo_amor.sh")
	last := log.Lines()[log.Len()-1]
	if last.Kind != LineMarkup || it.Mode() != ModeFinale {
		t.Fatalf("expected text-only finale, got %+v", last)
	}
}

func TestExampleSession(t *testing.T) {
	h := newHarness(t)
	st := h.it.Story()
	h.run("ls")
	h.run("ls")
	h.run("cat .love_virus.log")
	out := h.run("n")
	if out[1].Text != st.Decision.No[0].Text {
		t.Fatalf("expected no branch, got %q", out[1].Text)
	}
	out = h.run("cat protocolo_amor.sh")
	if out[1].Kind != LineMarkup {
		t.Fatalf("expected script contents")
	}
	h.run("sudo ./protocolo_amor.sh")
	if h.it.Mode() != ModeFinale {
		t.Fatalf("expected finale")
	}
	want := []string{"1:ls", "2:ls", "3:cat .love_virus.log", "4:cat protocolo_amor.sh", "5:sudo ./protocolo_amor.sh"}
	if strings.Join(h.events.commands, "|") != strings.Join(want, "|") {
		t.Fatalf("unexpected command events %v", h.events.commands)
	}
}

func TestInfectionGrowsUntilFinale(t *testing.T) {
	h := newHarness(t)
	if got := h.it.Infection(); got != 0 {
		t.Fatalf("expected no infection before commands, got %v", got)
	}
	h.run("ls")
	first := h.it.Infection()
	if first <= 0 || first >= 0.9 {
		t.Fatalf("expected partial infection, got %v", first)
	}
	for range 5 {
		h.run("ls")
	}
	if got := h.it.Infection(); got != 0.9 {
		t.Fatalf("expected infection capped before the finale, got %v", got)
	}
	h.run("sudo ./protocolo_amor.sh")
	if got := h.it.Infection(); got != 1 {
		t.Fatalf("expected full infection at the finale, got %v", got)
	}
}
