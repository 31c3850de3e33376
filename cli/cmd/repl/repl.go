package repl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ardnew/synth/lang"
	"github.com/ardnew/synth/log"
)

const (
	evalPrompt = "➜ "
	ctrlPrompt = " :"
)

func helpMessage() string {
	return `
: Commands (press Esc to toggle mode):

  help     Print this cruft
  vars     List the render context
  loads    List the load directives in effect
  libs     List known libraries (* marks loaded ones)
  reset    Restore the initial context and forget all loads
  clear    Clear screen
  quit     Exit REPL

Usage:
  Type template source to render it, e.g. {{ name|upper }}
  {% set %} and {% load %} carry over to the following lines
  Completions appear automatically as you type
  Press Tab / Shift-Tab to cycle through candidates
  Press Space to accept the current candidate
  Use Up/Down arrows for history navigation (mode switches automatically)
  Use Shift+Up/Shift+Down for history navigation within current mode only
  Press Ctrl+C on empty line or Ctrl+D to exit
`
}

// inputMode represents the current input mode.
type inputMode int

const (
	modeEval inputMode = iota
	modeCtrl
)

// Styles.
var (
	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("6")).
			Bold(true)
	ctrlPromptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("5")).
			Bold(true)
	inputStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	resultStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	hintStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	suggestionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	selectedStyle   = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("4"))
)

// Config configures a REPL session.
type Config struct {
	// Data is the initial render context.
	Data lang.Context
	// Options configure parsing of every line.
	Options []lang.Option
	// Libraries are the names offered when completing a load directive.
	Libraries []string
	// CacheDir holds the history file. History is not persisted when empty.
	CacheDir string
	Logger   log.Logger
}

// model is the Bubble Tea model for the REPL.
type model struct {
	ctx          context.Context
	input        textinput.Model
	session      *Session
	libraries    []string
	logger       log.Logger
	history      *History
	historyIdx   int
	matches      fuzzy.Matches // current fuzzy match results
	wordStart    int           // byte offset of current word start
	wordEnd      int           // byte offset of current word end
	suggIdx      int           // selected candidate index
	tabActive    bool          // whether user is tab-cycling
	preTabText   string        // input text before tab-cycling began
	preTabCursor int           // cursor position before tab-cycling began
	width        int           // terminal width for ellipsization
	quitting     bool
	mode         inputMode
	evalText     string
	evalCursor   int
	ctrlText     string
	ctrlCursor   int
}

// Run starts an interactive session and blocks until the user quits.
func Run(ctx context.Context, cfg Config) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	logger := cfg.Logger.Component("repl")

	logger.TraceContext(ctx, "repl start",
		slog.String("cache_dir", cfg.CacheDir),
		slog.Int("libraries", len(cfg.Libraries)),
	)

	history := NewHistory("")
	if cfg.CacheDir != "" {
		history = NewHistory(filepath.Join(cfg.CacheDir, baseHistory))
		if err := history.Load(); err != nil {
			logger.WarnContext(ctx, "could not load history", slog.Any("error", err))
		}
	}

	logger.TraceContext(ctx, "repl history loaded", slog.Int("entry_count", history.Len()))

	m := newModel(ctx, NewSession(ctx, cfg.Data, cfg.Options...), history, logger)
	m.libraries = slices.Compact(slices.Sorted(slices.Values(cfg.Libraries)))

	p := tea.NewProgram(m, tea.WithContext(ctx))
	_, err = p.Run()

	return err
}

const defaultWidth = 80

func newModel(ctx context.Context, session *Session, history *History, logger log.Logger) model {
	ti := textinput.New()
	ti.Prompt = promptStyle.Render(evalPrompt)
	ti.Focus()
	ti.CharLimit = 4096
	ti.Width = defaultWidth

	return model{
		ctx:        ctx,
		input:      ti,
		session:    session,
		logger:     logger,
		history:    history,
		historyIdx: history.Len(),
		suggIdx:    -1,
		width:      defaultWidth,
		mode:       modeEval,
	}
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = msg.Width - len(evalPrompt) - 2

		return m, nil
	}

	var cmd tea.Cmd

	m.input, cmd = m.input.Update(msg)

	return m, cmd
}

func (m model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(m.hintLine())
	b.WriteString("\n")

	return b.String()
}

// hintLine is shown below the input: the history position, a usage hint,
// the signature of the enclosing tag, or the completion candidates.
func (m model) hintLine() string {
	input := m.input.Value()

	if m.historyIdx < m.history.Len() {
		pos := lipgloss.NewStyle().Bold(true).Render(strconv.Itoa(m.historyIdx + 1))

		return hintStyle.Render(fmt.Sprintf("%s/%d", pos, m.history.Len()))
	}

	if strings.TrimSpace(input) == "" {
		if m.mode == modeEval {
			return hintStyle.Render("Type template source or press Esc for commands")
		}

		return hintStyle.Render("Type: " + strings.Join(ctrlCommands, ", ") + " (press Esc to return)")
	}

	if len(m.matches) > 0 {
		return renderCandidateBar(m.matches, m.suggIdx, m.tabActive, m.width)
	}

	if m.mode == modeEval {
		if name := currentTag(input, m.input.Position()); name != "" {
			if desc, ok := m.session.Tag(name); ok {
				return hintStyle.Render(signature(name, desc))
			}
		}
	}

	return ""
}

func (m model) handleKey(msg tea.KeyMsg) (model, tea.Cmd) {
	m.logger.TraceContext(m.ctx, "repl keypress",
		slog.String("key", msg.String()),
		slog.Int("type", int(msg.Type)),
	)

	switch msg.Type {
	case tea.KeyCtrlC:
		if m.input.Value() == "" {
			m.quitting = true

			return m, tea.Quit
		}

		m.input.SetValue("")
		m.tabActive = false
		m.historyIdx = m.history.Len()
		refreshMatches(&m, false)

		return m, nil

	case tea.KeyCtrlD:
		if m.input.Value() == "" {
			m.quitting = true

			return m, tea.Quit
		}

		return m, nil

	case tea.KeyEnter:
		if !m.tabActive || len(m.matches) == 0 {
			return m.executeInput()
		}

		// Lock in the current candidate without executing.
		m.tabActive = false
		refreshMatches(&m, true)

		return m, nil

	case tea.KeyTab:
		return m.cycle(1), nil

	case tea.KeyShiftTab:
		return m.cycle(-1), nil

	case tea.KeyUp:
		return m.historyStep(-1, false), nil

	case tea.KeyDown:
		return m.historyStep(1, false), nil

	case tea.KeyShiftUp:
		return m.historyStep(-1, true), nil

	case tea.KeyShiftDown:
		return m.historyStep(1, true), nil

	case tea.KeyEsc:
		if m.tabActive {
			m.tabActive = false
			m.input.SetValue(m.preTabText)
			m.input.SetCursor(m.preTabCursor)
			refreshMatches(&m, false)

			return m, nil
		}

		return m.toggleMode(), nil

	case tea.KeyRunes, tea.KeySpace:
		// Space accepts the candidate while tab-cycling.
		if m.tabActive && msg.String() == " " {
			m.tabActive = false
		}

		var cmd tea.Cmd

		m.historyIdx = m.history.Len()
		m.input, cmd = m.input.Update(msg)
		refreshMatches(&m, true)

		return m, cmd
	}

	var cmd tea.Cmd

	m.tabActive = false
	m.historyIdx = m.history.Len()
	m.input, cmd = m.input.Update(msg)
	refreshMatches(&m, false)

	return m, cmd
}

// cycle selects the next (dir > 0) or previous completion candidate.
func (m model) cycle(dir int) model {
	n := len(m.matches)
	if n == 0 {
		return m
	}

	// A single candidate is completed immediately.
	if n == 1 {
		replaceCurrentWord(&m, m.matches[0].Str)
		m.tabActive = false
		m.suggIdx = -1
		m.matches = nil

		return m
	}

	switch {
	case m.tabActive:
		m.suggIdx = (m.suggIdx + dir + n) % n

	default:
		m.tabActive = true
		m.preTabText = m.input.Value()
		m.preTabCursor = m.input.Position()

		m.suggIdx = 0
		if dir < 0 {
			m.suggIdx = n - 1
		}
	}

	replaceCurrentWord(&m, m.matches[m.suggIdx].Str)

	return m
}

// replaceCurrentWord replaces the current word in the input with
// replacement and moves the cursor past it.
func replaceCurrentWord(m *model, replacement string) {
	input := m.input.Value()
	cursor := m.wordStart + len(replacement)

	m.input.SetValue(input[:m.wordStart] + replacement + input[m.wordEnd:])
	m.input.SetCursor(cursor)

	m.wordEnd = cursor
}

// refreshMatches recomputes the completion candidates. With autoConfirm, a
// word that already equals its sole candidate is accepted.
func refreshMatches(m *model, autoConfirm bool) {
	m.matches, m.wordStart, m.wordEnd = m.computeMatches()

	if !m.tabActive {
		m.suggIdx = -1
	}

	if !autoConfirm || len(m.matches) != 1 {
		return
	}

	if m.input.Value()[m.wordStart:m.wordEnd] == m.matches[0].Str {
		m.tabActive = false
		m.suggIdx = -1
		m.matches = nil
	}
}

func (m model) executeInput() (model, tea.Cmd) {
	line := m.input.Value()
	input := strings.TrimSpace(line)

	if input == "" {
		return m, nil
	}

	m.evalText, m.evalCursor = "", 0
	m.ctrlText, m.ctrlCursor = "", 0
	m.input.SetValue("")
	m.matches = nil

	if err := m.history.Add(input, m.mode); err != nil {
		m.logger.WarnContext(m.ctx, "could not write history", slog.Any("error", err))
	}

	m.historyIdx = m.history.Len()

	if m.mode == modeCtrl {
		m.logger.TraceContext(m.ctx, "repl command", slog.String("input", input))

		return m.executeCommand(input)
	}

	m.logger.TraceContext(m.ctx, "repl eval", slog.String("input", line))

	echo := tea.Println(promptStyle.Render(evalPrompt) + inputStyle.Render(line))

	out, err := m.session.Eval(m.ctx, line)
	if err != nil {
		m.logger.TraceContext(m.ctx, "repl eval error", slog.Any("error", err))

		return m, tea.Sequence(echo, tea.Println(formatError(err, line)))
	}

	// Tags and filters loaded by this line are now candidates.
	refreshMatches(&m, false)

	if out == "" {
		return m, echo
	}

	return m, tea.Sequence(echo, tea.Println(resultStyle.Render(out)))
}

// formatError renders err with a source excerpt when it carries a position.
func formatError(err error, line string) string {
	msg := errorStyle.Render("error: " + err.Error())

	var le *lang.Error
	if !errors.As(err, &le) {
		return msg
	}

	if reason, ok := le.Attr("reason"); ok {
		msg += errorStyle.Render(": " + reason.String())
	}

	if alt, ok := le.Attr("suggestions"); ok {
		if names, _ := alt.Any().([]string); len(names) > 0 {
			msg += "\n" + hintStyle.Render("did you mean: "+strings.Join(names, ", "))
		}
	}

	if snippet := le.Snippet(line); snippet != "" {
		msg += "\n" + hintStyle.Render(strings.TrimRight(snippet, "\n"))
	}

	return msg
}

func (m model) executeCommand(input string) (model, tea.Cmd) {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return m, nil
	}

	echo := tea.Println(ctrlPromptStyle.Render(ctrlPrompt) + inputStyle.Render(input))

	m.logger.TraceContext(m.ctx, "repl exec command",
		slog.String("command", parts[0]),
		slog.Any("args", parts[1:]),
	)

	switch parts[0] {
	case "q", "quit", "exit":
		m.quitting = true

		return m, tea.Sequence(echo, tea.Quit)

	case "h", "help":
		return m, tea.Sequence(echo, tea.Println(helpMessage()))

	case "v", "vars":
		return m, tea.Sequence(echo, tea.Println(m.listVars()))

	case "loads":
		return m, tea.Sequence(echo, tea.Println(m.listLoads()))

	case "libs":
		return m, tea.Sequence(echo, tea.Println(m.listLibraries()))

	case "r", "reset":
		m.session.Reset(m.ctx)

		return m, tea.Sequence(echo, tea.Println(hintStyle.Render("context restored")))

	case "c", "clear":
		return m, tea.ClearScreen

	default:
		return m, tea.Sequence(echo, tea.Println(
			errorStyle.Render("Unknown command: "+parts[0]+" (try 'help')"),
		))
	}
}

func (m model) listVars() string {
	data := m.session.Data()

	names := data.Names()
	if len(names) == 0 {
		return hintStyle.Render("  (empty)")
	}

	var b strings.Builder

	for _, name := range names {
		v := data[name]
		fmt.Fprintf(&b, "  %s %s\n", name, hintStyle.Render(preview(v)))
	}

	return strings.TrimRight(b.String(), "\n")
}

func (m model) listLoads() string {
	loads := m.session.Loads()
	if len(loads) == 0 {
		return hintStyle.Render("  (none)")
	}

	var b strings.Builder

	for _, l := range loads {
		fmt.Fprintf(&b, "  {%% %s %%}\n", l)
	}

	return strings.TrimRight(b.String(), "\n")
}

func (m model) listLibraries() string {
	loaded := m.session.Libraries()

	var b strings.Builder

	for _, name := range m.libraries {
		mark := " "
		if slices.Contains(loaded, name) {
			mark = "*"
		}

		fmt.Fprintf(&b, " %s%s\n", mark, name)
	}

	return strings.TrimRight(b.String(), "\n")
}

// preview is a one-line summary of v, truncated to a readable width.
func preview(v lang.Value) string {
	const limit = 48

	s := v.Kind().String()

	switch v.Kind() {
	case lang.KindMapping, lang.KindSequence:
		s += "(" + strconv.Itoa(v.Len()) + ")"

	default:
		text := strings.ReplaceAll(v.String(), "\n", `\n`)
		if len(text) > limit {
			text = text[:limit] + "..."
		}

		s += " " + strconv.Quote(text)
	}

	return s
}

func (m model) historyStep(dir int, sameMode bool) model {
	n := m.history.Len()

	for i := m.historyIdx + dir; i >= 0 && i < n; i += dir {
		entry, err := m.history.Entry(i)
		if err != nil || (sameMode && entry.Mode != m.mode) {
			continue
		}

		if m.mode != entry.Mode {
			m = m.switchToMode(entry.Mode)
		}

		m.historyIdx = i
		m.input.SetValue(entry.Line)
		m.input.SetCursor(len(entry.Line))
		refreshMatches(&m, false)

		return m
	}

	// Stepping past the newest entry returns to an empty line.
	if dir > 0 && m.historyIdx < n {
		m.historyIdx = n
		m.input.SetValue("")
		refreshMatches(&m, false)
	}

	return m
}

func (m model) toggleMode() model {
	if m.mode == modeEval {
		return m.switchToMode(modeCtrl)
	}

	return m.switchToMode(modeEval)
}

// switchToMode switches to mode, keeping each mode's pending input.
func (m model) switchToMode(mode inputMode) model {
	if m.mode == modeEval {
		m.evalText, m.evalCursor = m.input.Value(), m.input.Position()
	} else {
		m.ctrlText, m.ctrlCursor = m.input.Value(), m.input.Position()
	}

	m.mode = mode

	if mode == modeEval {
		m.input.Prompt = promptStyle.Render(evalPrompt)
		m.input.SetValue(m.evalText)
		m.input.SetCursor(m.evalCursor)
	} else {
		m.input.Prompt = ctrlPromptStyle.Render(ctrlPrompt)
		m.input.SetValue(m.ctrlText)
		m.input.SetCursor(m.ctrlCursor)
	}

	refreshMatches(&m, false)

	return m
}
