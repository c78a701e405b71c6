package ui

import (
	"context"
	"fmt"
	"io"
	"math"
	"runtime/debug"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/progress"
	"charm.land/bubbles/v2/spinner"
	"charm.land/bubbles/v2/textinput"
	"charm.land/bubbles/v2/viewport"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/harmonica"
	clog "github.com/charmbracelet/log"
	"github.com/charmbracelet/x/ansi"

	"lovevirus/internal/rain"
	"lovevirus/internal/term"
)

const infectionWidth = 16

type applyMsg struct {
	fn func(*Root)
}

type drawMsg struct{}
type introMsg time.Time
type animateMsg time.Time

type shellKeyMap struct {
	Submit  key.Binding
	History key.Binding
	Scroll  key.Binding
	Quit    key.Binding
}

func (k shellKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Submit, k.History, k.Scroll, k.Quit}
}

func (k shellKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Submit, k.History}, {k.Scroll, k.Quit}}
}

type Root struct {
	theme       Theme
	ascii       bool
	debug       bool
	title       string
	variant     string
	motionLevel string
	introDelay  time.Duration

	shell Shell
	feed  Feed
	rain  *rain.Animator
	ctx   context.Context

	mu      sync.Mutex
	program *tea.Program
	running bool

	layout LayoutMode
	cols   int
	rows   int

	vp          viewport.Model
	input       textinput.Model
	help        help.Model
	keymap      shellKeyMap
	spin        spinner.Model
	infection   progress.Model
	logger      *clog.Logger
	bandPos     float64
	bandVel     float64
	spring      harmonica.Spring
	drawPending atomic.Bool

	lastVersion uint64
	history     []string
	historyIdx  int
	statusFlash string

	lastInputEvent string
}

type Options struct {
	Context     context.Context
	Shell       Shell
	Feed        Feed
	Rain        *rain.Animator
	Title       string
	ASCIIOnly   bool
	Debug       bool
	Theme       string
	MotionLevel string
	IntroDelay  time.Duration
	Logger      *clog.Logger
}

func New(opts Options) *Root {
	logger := opts.Logger
	if logger == nil {
		logger = clog.New(io.Discard)
	}
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	delay := opts.IntroDelay
	if delay <= 0 {
		delay = term.DefaultIntroDelay
	}

	motionLevel := normalizeMotionLevel(opts.MotionLevel)
	variant := NormalizeThemeVariant(opts.Theme)
	theme := ThemeForVariant(variant)
	spring := harmonica.NewSpring(harmonica.FPS(60), 6.0, 0.8)
	switch motionLevel {
	case "reduced":
		spring = harmonica.NewSpring(harmonica.FPS(30), 5.0, 0.95)
	case "off":
		spring = harmonica.NewSpring(harmonica.FPS(60), 1000.0, 1.0)
	}

	h := help.New()
	h.Styles = help.DefaultDarkStyles()

	infection := progress.New(
		progress.WithWidth(infectionWidth),
		progress.WithColors(lipgloss.Color("#1F5C2F"), lipgloss.Color("#DF2080")),
		progress.WithScaled(true),
	)
	infection.ShowPercentage = false
	if opts.ASCIIOnly {
		infection.Full = '#'
		infection.Empty = '.'
	}

	in := textinput.New()
	in.Prompt = ""
	in.Placeholder = ""
	in.CharLimit = 256

	r := &Root{
		theme:       theme,
		ascii:       opts.ASCIIOnly,
		debug:       opts.Debug,
		title:       firstNonEmptyStr(opts.Title, "lovevirus"),
		variant:     variant,
		motionLevel: motionLevel,
		introDelay:  delay,
		shell:       opts.Shell,
		feed:        opts.Feed,
		rain:        opts.Rain,
		ctx:         ctx,
		layout:      LayoutFull,
		cols:        100,
		rows:        30,
		vp:          viewport.New(viewport.WithWidth(96), viewport.WithHeight(20)),
		input:       in,
		help:        h,
		spin: spinner.New(
			spinner.WithSpinner(spinner.MiniDot),
			spinner.WithStyle(theme.Accent),
		),
		infection: infection,
		logger:    logger,
		spring:    spring,
	}
	r.keymap = shellKeyMap{
		Submit:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "run")),
		History: key.NewBinding(key.WithKeys("up", "down"), key.WithHelp("↑/↓", "history")),
		Scroll:  key.NewBinding(key.WithKeys("pgup", "pgdown"), key.WithHelp("pgup/pgdn", "scroll")),
		Quit:    key.NewBinding(key.WithKeys("ctrl+c", "ctrl+q"), key.WithHelp("ctrl+c", "quit")),
	}
	if r.ascii {
		r.keymap.History.SetHelp("up/down", "history")
	}
	r.resize()
	return r
}

func (r *Root) Init() tea.Cmd {
	cmds := []tea.Cmd{spinnerTickCmd(r.spin), r.input.Focus(), r.animateIfNeeded()}
	if r.shell != nil && r.shell.Mode() == term.ModeIntro {
		cmds = append(cmds, introTickCmd(r.introDelay))
	}
	return tea.Batch(cmds...)
}

func (r *Root) Update(msg tea.Msg) (model tea.Model, cmd tea.Cmd) {
	defer func() {
		if rec := recover(); rec != nil {
			r.onModelPanic("update", rec, msg)
			model = r
			cmd = nil
		}
	}()

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		r.cols = msg.Width
		r.rows = msg.Height
		r.resize()
		return r, r.animateIfNeeded()
	case applyMsg:
		if msg.fn != nil {
			msg.fn(r)
		}
		return r, r.animateIfNeeded()
	case drawMsg:
		r.drawPending.Store(false)
		r.refresh()
		return r, nil
	case introMsg:
		if r.shell == nil {
			return r, nil
		}
		done := r.shell.AdvanceIntro()
		r.refresh()
		if !done {
			return r, introTickCmd(r.introDelay)
		}
		r.logger.Debug("ui.intro_done")
		return r, r.input.Focus()
	case animateMsg:
		target := r.bandTarget()
		r.bandPos, r.bandVel = r.spring.Update(r.bandPos, r.bandVel, target)
		if r.shouldAnimate(target) {
			return r, animateTickCmd()
		}
		r.bandPos, r.bandVel = target, 0
		return r, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		r.spin, cmd = r.spin.Update(msg)
		return r, cmd
	case tea.PasteMsg:
		return r.handlePaste(msg)
	case tea.MouseWheelMsg:
		var cmd tea.Cmd
		r.vp, cmd = r.vp.Update(msg)
		return r, cmd
	case tea.KeyPressMsg:
		return r.handleKey(msg)
	}
	return r, nil
}

func (r *Root) View() (view tea.View) {
	defer func() {
		if rec := recover(); rec != nil {
			r.onModelPanic("view", rec, nil)
			width := max(1, r.cols)
			msg := "UI recovered from a rendering panic. Check logs."
			view = tea.NewView(r.theme.Error.Width(width).Render(trimForWidth(msg, max(1, width-1))))
		}
	}()

	if r.cols < 1 {
		r.cols = 100
	}
	if r.rows < 1 {
		r.rows = 30
	}
	v := tea.NewView(r.render())
	v.AltScreen = true
	v.MouseMode = tea.MouseModeCellMotion
	return v
}

func (r *Root) Run() error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return nil
	}
	p := tea.NewProgram(r, tea.WithContext(r.ctx))
	r.program = p
	r.running = true
	r.mu.Unlock()

	_, err := p.Run()

	r.mu.Lock()
	r.program = nil
	r.running = false
	r.mu.Unlock()
	return err
}

func (r *Root) Stop() {
	r.mu.Lock()
	p := r.program
	r.mu.Unlock()
	if p != nil {
		p.Quit()
	}
}

func (r *Root) FlashStatus(msg string) {
	r.apply(func(m *Root) {
		m.statusFlash = msg
	})
}

// RequestDraw coalesces redraw requests from animator goroutines into at most
// one frame every 16ms.
func (r *Root) RequestDraw() {
	r.mu.Lock()
	p := r.program
	running := r.running
	r.mu.Unlock()
	if !running || p == nil {
		return
	}
	if !r.drawPending.CompareAndSwap(false, true) {
		return
	}
	time.AfterFunc(16*time.Millisecond, func() {
		r.mu.Lock()
		p := r.program
		running := r.running
		r.mu.Unlock()
		if !running || p == nil {
			r.drawPending.Store(false)
			return
		}
		p.Send(drawMsg{})
	})
}

func (r *Root) apply(fn func(*Root)) {
	if fn == nil {
		return
	}
	r.mu.Lock()
	p := r.program
	running := r.running
	if !running || p == nil {
		fn(r)
		r.mu.Unlock()
		return
	}
	r.mu.Unlock()
	p.Send(applyMsg{fn: fn})
}

func (r *Root) handleKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	r.recordInputEvent(fmt.Sprintf("key:%v mod:%v text:%q", msg.Code, msg.Mod, msg.Text))

	if key.Matches(msg, r.keymap.Quit) {
		r.logger.Info("ui.quit")
		return r, tea.Quit
	}
	switch msg.Code {
	case tea.KeyPgUp:
		r.vp.PageUp()
		return r, nil
	case tea.KeyPgDown:
		r.vp.PageDown()
		return r, nil
	}
	if r.shell == nil || !r.shell.InputEnabled() {
		return r, nil
	}

	switch msg.Code {
	case tea.KeyEnter:
		line := r.input.Value()
		r.input.Reset()
		r.submit(line)
		return r, r.animateIfNeeded()
	case tea.KeyUp:
		r.recall(-1)
		return r, nil
	case tea.KeyDown:
		r.recall(1)
		return r, nil
	}

	var cmd tea.Cmd
	r.input, cmd = r.input.Update(msg)
	return r, cmd
}

func (r *Root) handlePaste(msg tea.PasteMsg) (tea.Model, tea.Cmd) {
	r.recordInputEvent(fmt.Sprintf("paste:%d", len(msg.Content)))
	if r.shell == nil || !r.shell.InputEnabled() || msg.Content == "" {
		return r, nil
	}
	lines, rest := term.SplitPaste(msg.Content)
	for i, line := range lines {
		if i == 0 {
			line = r.input.Value() + line
			r.input.Reset()
		}
		if !r.shell.InputEnabled() {
			break
		}
		r.submit(line)
	}
	if r.shell.InputEnabled() {
		r.input.SetValue(r.input.Value() + rest)
		r.input.CursorEnd()
	}
	return r, r.animateIfNeeded()
}

func (r *Root) submit(line string) {
	answering := r.shell.Mode() == term.ModeAwaitingDecision
	if strings.TrimSpace(line) != "" && !answering {
		r.history = append(r.history, line)
	}
	r.historyIdx = len(r.history)
	r.shell.SubmitLine(line)
	r.refresh()
	if !r.shell.InputEnabled() {
		r.input.Blur()
	}
}

// recall moves through previously submitted commands.
func (r *Root) recall(delta int) {
	if len(r.history) == 0 || r.shell.Mode() == term.ModeAwaitingDecision {
		return
	}
	r.historyIdx = min(max(r.historyIdx+delta, 0), len(r.history))
	if r.historyIdx == len(r.history) {
		r.input.SetValue("")
		return
	}
	r.input.SetValue(r.history[r.historyIdx])
	r.input.CursorEnd()
}

// refresh rebuilds the viewport from the feed. The view follows the newest
// line whenever the log changed or it was already at the bottom.
func (r *Root) refresh() {
	if r.feed == nil {
		return
	}
	version := r.feed.Version()
	changed := version != r.lastVersion
	follow := changed || r.vp.AtBottom()
	r.lastVersion = version
	r.vp.SetContent(r.renderFeed(r.vp.Width()))
	if follow {
		r.vp.GotoBottom()
	}
}

func (r *Root) renderFeed(width int) string {
	width = max(1, width)
	lines := r.feed.Lines()
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		out = append(out, r.renderLine(l, width))
	}
	return strings.Join(out, "\n")
}

func (r *Root) renderLine(l term.Line, width int) string {
	switch l.Kind {
	case term.LineEcho:
		return r.theme.Prompt.Render(l.Prompt) + r.theme.Echo.Render(l.Text)
	case term.LineMarkup:
		return l.Text
	case term.LineElement:
		if l.Element == nil {
			return ""
		}
		frame := strings.TrimRight(l.Element.Render(), "\n")
		if frame == "" {
			return ""
		}
		return lipgloss.PlaceHorizontal(width, lipgloss.Center, frame)
	default:
		return r.theme.LineStyle(l.Style).Width(width).Render(l.Text)
	}
}

func (r *Root) resize() {
	r.layout = DetermineLayoutMode(r.cols, r.rows)
	innerW, innerH := r.panelInner()
	r.vp.SetWidth(innerW)
	r.vp.SetHeight(max(1, innerH-1))
	r.input.SetWidth(max(1, innerW-ansi.StringWidth(r.prompt())-1))
	if r.rain != nil {
		r.rain.Resize(r.cols, bandRows)
	}
	r.refresh()
}

// panelInner is the terminal panel's content size with the band fully shown.
func (r *Root) panelInner() (int, int) {
	bodyH := r.rows - 2 - r.bandHeight()
	return max(1, r.cols-2), max(2, bodyH-2)
}

func (r *Root) bandTarget() float64 {
	if r.rain == nil || r.layout != LayoutFull {
		return 0
	}
	if r.shell != nil && r.shell.Mode() == term.ModeFinale {
		return 0
	}
	return bandRows
}

func (r *Root) bandHeight() int {
	return min(bandRows, max(0, int(math.Round(r.bandPos))))
}

func (r *Root) render() string {
	w, h := r.cols, r.rows
	if r.layout == LayoutTooSmall {
		msg := []string{
			"Terminal too small",
			fmt.Sprintf("Current: %dx%d", w, h),
			fmt.Sprintf("Minimum: %dx%d", minCols, minRows),
		}
		panel := r.drawPanel("Resize", msg, min(40, w), min(6, h))
		return lipgloss.Place(w, h, lipgloss.Center, lipgloss.Center, panel)
	}

	parts := []string{r.headerText()}
	if band := r.renderBand(); band != "" {
		parts = append(parts, band)
	}
	parts = append(parts, r.renderTerminalPanel(), r.statusText())
	return strings.Join(parts, "\n")
}

func (r *Root) renderBand() string {
	bh := r.bandHeight()
	if bh == 0 || r.rain == nil {
		return ""
	}
	rows := strings.Split(r.rain.Surface().Render(), "\n")
	out := make([]string, bh)
	for i := range out {
		if i < len(rows) {
			out[i] = rows[i]
		}
		out[i] = padRune(out[i], r.cols)
	}
	return strings.Join(out, "\n")
}

func (r *Root) renderTerminalPanel() string {
	bodyH := max(4, r.rows-2-r.bandHeight())
	innerW := max(1, r.cols-2)
	innerH := bodyH - 2
	if r.vp.Height() != innerH-1 {
		r.vp.SetHeight(max(1, innerH-1))
	}

	lines := strings.Split(r.vp.View(), "\n")
	if len(lines) > innerH-1 {
		lines = lines[len(lines)-(innerH-1):]
	}
	for len(lines) < innerH-1 {
		lines = append(lines, "")
	}
	lines = append(lines, r.inputLine(innerW))
	return r.drawPanel("Terminal", lines, r.cols, bodyH)
}

func (r *Root) inputLine(width int) string {
	if r.shell == nil {
		return ""
	}
	switch r.shell.Mode() {
	case term.ModeIntro:
		return r.theme.Muted.Render(strings.TrimSpace(r.spin.View()) + " carregando...")
	case term.ModeFinale:
		return ""
	}
	return r.theme.Prompt.Render(r.prompt()) + trimForWidth(r.input.View(), width)
}

func (r *Root) prompt() string {
	if r.shell == nil {
		return ""
	}
	return r.shell.Prompt()
}

func (r *Root) headerText() string {
	width := max(1, r.cols-2)
	mode := "offline"
	if r.shell != nil {
		mode = r.shell.Mode().String()
	}
	txt := strings.Join([]string{r.title, mode, r.variant}, " | ")
	if r.debug {
		txt = fmt.Sprintf("%s | %dx%d %v", txt, r.cols, r.rows, r.layout)
	}
	if r.shell == nil || width < infectionWidth*3 {
		return r.theme.Header.Width(max(1, r.cols)).Render(trimForWidth(txt, width))
	}
	bar := r.infection.ViewAs(r.shell.Infection())
	txt = padRune(trimForWidth(txt, width-infectionWidth-1), width-infectionWidth)
	return r.theme.Header.Width(max(1, r.cols)).Render(txt + bar)
}

func (r *Root) statusText() string {
	keys := r.help.View(r.keymap)
	if keys == "" {
		keys = "enter run  up/down history  pgup/pgdn scroll  ctrl+c quit"
	}
	if r.statusFlash != "" {
		keys += " | " + r.statusFlash
	}
	keys = trimForWidth(keys, max(1, r.cols-2))
	return r.theme.Status.Width(max(1, r.cols)).Render(keys)
}

func (r *Root) drawPanel(title string, lines []string, width, height int) string {
	width = max(4, width)
	height = max(3, height)
	innerW := width - 2
	innerH := height - 2

	h := "─"
	v := "│"
	tl := "╭"
	tr := "╮"
	bl := "╰"
	br := "╯"
	if r.ascii {
		h = "-"
		v = "|"
		tl, tr, bl, br = "+", "+", "+", "+"
	}

	top := r.theme.PanelBorder.Render(tl + strings.Repeat(h, innerW) + tr)
	if title != "" && innerW > len(title)+2 {
		t := " " + title + " "
		top = r.theme.PanelBorder.Render(tl+h) + r.theme.PanelTitle.Render(t) +
			r.theme.PanelBorder.Render(strings.Repeat(h, innerW-1-len([]rune(t)))+tr)
	}

	out := make([]string, 0, height)
	out = append(out, top)
	for row := 0; row < innerH; row++ {
		line := ""
		if row < len(lines) {
			line = lines[row]
		}
		line = padRune(line, innerW)
		out = append(out, r.theme.PanelBorder.Render(v)+r.theme.PanelBody.Render(line)+r.theme.PanelBorder.Render(v))
	}
	out = append(out, r.theme.PanelBorder.Render(bl+strings.Repeat(h, innerW)+br))
	return strings.Join(out, "\n")
}

func (r *Root) animateIfNeeded() tea.Cmd {
	if r.shouldAnimate(r.bandTarget()) {
		return animateTickCmd()
	}
	return nil
}

func (r *Root) shouldAnimate(target float64) bool {
	if r.motionLevel == "off" {
		r.bandPos, r.bandVel = target, 0
		return false
	}
	return math.Abs(r.bandPos-target) > 0.01 || math.Abs(r.bandVel) > 0.01
}

func introTickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg { return introMsg(t) })
}

func animateTickCmd() tea.Cmd {
	return tea.Tick(time.Second/60, func(t time.Time) tea.Msg { return animateMsg(t) })
}

func spinnerTickCmd(model spinner.Model) tea.Cmd {
	return func() tea.Msg {
		return model.Tick()
	}
}

func firstNonEmptyStr(a, b string) string {
	if strings.TrimSpace(a) != "" {
		return a
	}
	return b
}

// padRune pads or truncates s to exactly width cells, keeping ANSI styling.
func padRune(s string, width int) string {
	w := ansi.StringWidth(s)
	if w > width {
		return ansi.Truncate(s, width, "")
	}
	return s + strings.Repeat(" ", width-w)
}

func trimForWidth(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if ansi.StringWidth(s) <= width {
		return s
	}
	if width == 1 {
		return "…"
	}
	return ansi.Truncate(s, width, "…")
}

// NormalizeThemeVariant maps unknown names to the default theme.
func NormalizeThemeVariant(v string) string {
	v = strings.TrimSpace(v)
	for _, known := range Variants {
		if v == known {
			return v
		}
	}
	return Variants[0]
}

func normalizeMotionLevel(v string) string {
	switch strings.TrimSpace(v) {
	case "off", "reduced", "full":
		return strings.TrimSpace(v)
	default:
		return "full"
	}
}

func (r *Root) recordInputEvent(event string) {
	r.lastInputEvent = trimForWidth(strings.TrimSpace(event), 160)
}

func (r *Root) onModelPanic(where string, recovered any, msg tea.Msg) {
	if r.statusFlash == "" {
		r.statusFlash = "Recovered UI panic"
	}
	msgType := ""
	if msg != nil {
		msgType = fmt.Sprintf("%T", msg)
	}
	r.logger.Error("ui.panic_recovered",
		"where", where,
		"panic", fmt.Sprintf("%v", recovered),
		"message_type", msgType,
		"layout", r.layout.String(),
		"cols", r.cols,
		"rows", r.rows,
		"last_input", r.lastInputEvent,
		"stack", string(debug.Stack()),
	)
}

var _ tea.Model = (*Root)(nil)
var _ View = (*Root)(nil)
