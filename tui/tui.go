package tui

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"

	"github.com/JasFreaq/RPG-Project-sub000/engine"
	"github.com/JasFreaq/RPG-Project-sub000/engine/events"
	"github.com/JasFreaq/RPG-Project-sub000/engine/save"
	"github.com/JasFreaq/RPG-Project-sub000/engine/state"
	"github.com/JasFreaq/RPG-Project-sub000/types"
)

const defaultSlot = "quicksave"

// rawLine stores an unstyled output line with its classification,
// so we can re-wrap and re-style when the terminal is resized.
type rawLine struct {
	text     string
	kind     lineKind
	isInput  bool // true for echoed player input
	isSystem bool // true for system messages
}

// Model is the Bubble Tea model for the dialogue TUI.
type Model struct {
	engine *engine.Engine
	defs   *state.Defs
	store  save.Store

	viewport viewport.Model
	input    textinput.Model
	history  *History

	rawLines []rawLine // accumulated narrative lines (unstyled, for re-wrapping)

	width    int
	height   int
	ready    bool
	trace    bool
	quitting bool
	lastCmd  string
}

// gameOutputMsg carries output from the engine into the Update loop.
type gameOutputMsg struct {
	input    string   // echoed player input (empty for intro)
	lines    []string // output lines
	isSystem bool     // true for meta-command output
}

// New creates a TUI model wired to the given engine. store may be nil,
// which disables /save and /load.
func New(eng *engine.Engine, defs *state.Defs, store save.Store) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Focus()
	ti.CharLimit = 256
	ti.PromptStyle = styleInputPrompt

	return Model{
		engine:  eng,
		defs:    defs,
		store:   store,
		input:   ti,
		history: NewHistory(100),
	}
}

// Run starts the Bubble Tea program.
func Run(eng *engine.Engine, defs *state.Defs, store save.Store) error {
	m := New(eng, defs, store)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err := p.Run()
	return err
}

// Init returns the initial command that produces the intro text.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.initialOutput())
}

func (m Model) initialOutput() tea.Cmd {
	return func() tea.Msg {
		g := m.defs.Game
		header := g.Title
		if g.Version != "" {
			header += " v" + g.Version
		}
		if g.Author != "" {
			header += " by " + g.Author
		}
		lines := []string{header, ""}
		lines = append(lines, m.engine.Intro()...)
		lines = append(lines, "", "Type 'talk <name>' to start a conversation, /help for more.")
		return gameOutputMsg{lines: lines}
	}
}

// Update handles messages (key presses, window resize, game output).
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		vpHeight := m.height - 2 // 1 status bar + 1 input line
		if vpHeight < 1 {
			vpHeight = 1
		}

		if !m.ready {
			m.viewport = viewport.New(m.width, vpHeight)
			m.viewport.KeyMap = viewportKeyMap()
			m.ready = true
		} else {
			m.viewport.Width = m.width
			m.viewport.Height = vpHeight
		}

		m.refreshViewport()

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.quitting = true
			return m, tea.Quit

		case "enter":
			return m.handleEnter()

		case "esc":
			// Walk away from the current conversation.
			if m.engine.Conversation.IsActive() {
				return m.runCommand("bye", "bye")
			}
			return m, nil

		case "up":
			if prev, ok := m.history.Prev(); ok {
				m.input.SetValue(prev)
				m.input.CursorEnd()
			}
			return m, nil

		case "down":
			if next, ok := m.history.Next(); ok {
				m.input.SetValue(next)
				m.input.CursorEnd()
			} else {
				m.input.SetValue("")
				m.history.ResetCursor()
			}
			return m, nil

		case "pgup", "pgdown":
			var vpCmd tea.Cmd
			m.viewport, vpCmd = m.viewport.Update(msg)
			return m, vpCmd
		}

	case gameOutputMsg:
		m = m.appendOutput(msg)
	}

	var inputCmd tea.Cmd
	m.input, inputCmd = m.input.Update(msg)
	cmds = append(cmds, inputCmd)

	return m, tea.Batch(cmds...)
}

// handleEnter processes the submitted input line.
func (m Model) handleEnter() (tea.Model, tea.Cmd) {
	input := strings.TrimSpace(m.input.Value())
	m.input.SetValue("")

	// Enter on an empty line continues a conversation.
	if input == "" {
		if m.engine.Conversation.IsActive() && !m.engine.Conversation.IsChoosing() {
			return m.runCommand("", "next")
		}
		return m, nil
	}

	m.history.Push(input)
	m.history.ResetCursor()

	if strings.EqualFold(input, "again") {
		if m.lastCmd == "" {
			m = m.appendOutput(gameOutputMsg{
				input: input, lines: []string{"Nothing to repeat."}, isSystem: true,
			})
			return m, nil
		}
		input = m.lastCmd
	} else {
		m.lastCmd = input
	}

	// Meta-commands.
	if strings.HasPrefix(input, "/") {
		output, quit := m.handleMeta(input)
		m = m.appendOutput(gameOutputMsg{input: input, lines: output, isSystem: true})
		m.updatePrompt()
		if quit {
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil
	}

	return m.runCommand(input, input)
}

// runCommand steps the engine with input and shows echo as the player's
// line.
func (m Model) runCommand(input, echo string) (tea.Model, tea.Cmd) {
	result := m.engine.Step(input)
	output := result.Output
	if m.trace {
		output = append(output, formatTrace(result)...)
	}
	m = m.appendOutput(gameOutputMsg{input: echo, lines: output})
	m.updatePrompt()
	return m, nil
}

// updatePrompt reflects the conversation state in the input prompt.
func (m *Model) updatePrompt() {
	c := m.engine.Conversation
	switch {
	case c.IsChoosing():
		m.input.Prompt = fmt.Sprintf("reply 1-%d> ", len(c.PlayerChoices()))
	case c.IsActive() && !c.HasNext():
		m.input.Prompt = "[end]> "
	case c.IsActive():
		m.input.Prompt = "[enter]> "
	default:
		m.input.Prompt = "> "
	}
}

// appendOutput adds lines to the narrative and refreshes the viewport.
func (m Model) appendOutput(msg gameOutputMsg) Model {
	if msg.input != "" {
		m.rawLines = append(m.rawLines, rawLine{
			text: "> " + msg.input, isInput: true,
		})
	}

	for _, line := range msg.lines {
		rl := rawLine{text: line, isSystem: msg.isSystem}
		if !msg.isSystem {
			rl.kind = classifyLine(line, m.engine.Conversation.PlayerName)
		}
		m.rawLines = append(m.rawLines, rl)
	}

	// Blank line separator between turns.
	m.rawLines = append(m.rawLines, rawLine{})

	m.refreshViewport()

	return m
}

// refreshViewport re-wraps and re-styles all raw lines at the current width
// and updates the viewport content.
func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}

	width := m.width
	if width < 10 {
		width = 10
	}

	var styled []string
	for _, rl := range m.rawLines {
		if rl.text == "" {
			styled = append(styled, "")
			continue
		}

		switch {
		case rl.isInput:
			styled = append(styled, stylePlayerInput.Render(wordWrap(rl.text, width)))
		case rl.isSystem:
			styled = append(styled, styledSystemMsg(wordWrap(rl.text, width-2)))
		default:
			styled = append(styled, renderLine(rl.text, rl.kind, width))
		}
	}

	m.viewport.SetContent(strings.Join(styled, "\n"))
	m.viewport.GotoBottom()
}

// renderLine wraps and styles one output line by kind.
func renderLine(line string, kind lineKind, width int) string {
	switch kind {
	case kindChoice:
		// Keep wrapped reply text under its number.
		return styleChoice.Render(indent.String(wordWrap(strings.TrimLeft(line, " "), width-2), 2))
	case kindSpeech:
		return styledSpeech(wordWrap(line, width), styleSpeech)
	case kindPlayerSpeech:
		return styledSpeech(wordWrap(line, width), stylePlayerSpeech)
	case kindYouSee:
		return styledYouSee(wordWrap(line, width))
	case kindNotice:
		return styleNotice.Render(wordWrap(line, width))
	case kindSystem:
		return styleSystem.Render(wordWrap(line, width))
	case kindError:
		return styleError.Render(wordWrap(line, width))
	case kindTrace:
		return styleTrace.Render(wordWrap(line, width))
	default:
		return styleNarration.Render(wordWrap(line, width))
	}
}

// wordWrap wraps text to fit within the given width, breaking at word
// boundaries.
func wordWrap(text string, width int) string {
	if width <= 0 {
		return text
	}
	return wordwrap.String(text, width)
}

// View renders the full TUI layout: viewport + status bar + input.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Loading..."
	}

	return m.viewport.View() + "\n" + m.renderStatusBar() + "\n" + m.input.View()
}

// handleMeta dispatches meta-commands. Returns output lines and quit flag.
func (m *Model) handleMeta(input string) ([]string, bool) {
	parts := strings.Fields(input)
	cmd := parts[0]
	var arg string
	if len(parts) > 1 {
		arg = parts[1]
	}

	switch cmd {
	case "/quit", "/exit":
		return []string{"Goodbye."}, true

	case "/save":
		return m.cmdSave(arg), false

	case "/load":
		return m.cmdLoad(arg), false

	case "/saves":
		return m.cmdSaves(), false

	case "/help":
		return cmdHelp(), false

	case "/state":
		return m.cmdState(), false

	case "/trace":
		m.trace = !m.trace
		if m.trace {
			return []string{"Trace output enabled."}, false
		}
		return []string{"Trace output disabled."}, false

	default:
		return []string{fmt.Sprintf("Unknown command: %s. Type /help for available commands.", cmd)}, false
	}
}

func (m *Model) cmdSave(slot string) []string {
	if slot == "" {
		slot = defaultSlot
	}
	if m.store == nil {
		return []string{"Save failed: no save store configured"}
	}

	data, err := m.engine.Snapshot()
	if err != nil {
		return []string{fmt.Sprintf("Save failed: %v", err)}
	}
	if err := m.store.Put(context.Background(), slot, data); err != nil {
		return []string{fmt.Sprintf("Save failed: %v", err)}
	}

	return []string{fmt.Sprintf("Game saved to %s.", slot)}
}

func (m *Model) cmdLoad(slot string) []string {
	if slot == "" {
		slot = defaultSlot
	}
	if m.store == nil {
		return []string{"Load failed: no save store configured"}
	}

	data, err := m.store.Get(context.Background(), slot)
	if errors.Is(err, save.ErrNotFound) {
		return []string{fmt.Sprintf("Load failed: no save named %s", slot)}
	}
	if err != nil {
		return []string{fmt.Sprintf("Load failed: %v", err)}
	}

	sd, err := save.Load(data)
	if err != nil {
		return []string{fmt.Sprintf("Load failed: %v", err)}
	}
	if err := m.engine.Restore(sd); err != nil {
		return []string{fmt.Sprintf("Load failed: %v", err)}
	}

	output := []string{fmt.Sprintf("Game loaded from %s (turn %d).", slot, sd.Turn)}
	return append(output, m.engine.Recap()...)
}

func (m *Model) cmdSaves() []string {
	if m.store == nil {
		return []string{"No save store configured."}
	}
	slots, err := m.store.List(context.Background())
	if err != nil {
		return []string{fmt.Sprintf("Listing saves failed: %v", err)}
	}
	if len(slots) == 0 {
		return []string{"No saved games."}
	}
	return []string{"Saved games: " + strings.Join(slots, ", ")}
}

func cmdHelp() []string {
	return []string{
		"System:",
		"  /save [name]    Save game (default: quicksave)",
		"  /load [name]    Load game (default: quicksave)",
		"  /saves          List saved games",
		"  /quit           Exit game",
		"  /help           Show this help",
		"  /state          Debug: dump current state",
		"  /trace          Toggle debug trace output",
		"",
		"Game commands:",
		"  talk <name>     Start a conversation",
		"  <number>        Pick a reply",
		"  bye (or Esc)    End the conversation",
		"  look (l)        See who is around",
		"  inventory (i)   Check what you're carrying",
		"  quests (q)      Show your quest log",
		"  again           Repeat your last command",
		"",
		"Enter on an empty line continues a conversation.",
		"Navigation: PgUp/PgDn to scroll, Up/Down for command history",
	}
}

func (m *Model) cmdState() []string {
	s := m.engine.State
	output := []string{fmt.Sprintf("Turn: %d", s.TurnCount)}
	if cur := m.engine.Cursor(); cur != nil {
		output = append(output, fmt.Sprintf("Conversation: %s at %s (choosing: %t)", cur.NPC, cur.Node, cur.Choosing))
	} else {
		output = append(output, "Conversation: none")
	}
	output = append(output, fmt.Sprintf("Inventory: %v", s.Player.Inventory))
	for _, q := range s.Player.Quests {
		output = append(output, fmt.Sprintf("Quest: %s objectives=%v", q.Quest, q.Objectives))
	}
	var hostile []string
	for _, id := range sortedIDs(s.Hostile) {
		if s.Hostile[id] {
			hostile = append(hostile, id)
		}
	}
	if len(hostile) > 0 {
		output = append(output, "Hostile: "+strings.Join(hostile, ", "))
	}
	return output
}

func formatTrace(result types.Result) []string {
	if len(result.Events) == 0 {
		return nil
	}
	lines := []string{fmt.Sprintf("[trace] Events: %d", len(result.Events))}
	for _, e := range result.Events {
		lines = append(lines, "[trace]   "+events.Trace(e))
	}
	return lines
}

func sortedIDs[V any](m map[string]V) []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// viewportKeyMap returns a viewport keymap with Up/Down disabled
// (we use those for input history).
func viewportKeyMap() viewport.KeyMap {
	return viewport.KeyMap{
		PageDown:     key.NewBinding(key.WithKeys("pgdown")),
		PageUp:       key.NewBinding(key.WithKeys("pgup")),
		HalfPageDown: key.NewBinding(key.WithKeys("ctrl+d")),
		HalfPageUp:   key.NewBinding(key.WithKeys("ctrl+u")),
		Up:           key.NewBinding(key.WithDisabled()),
		Down:         key.NewBinding(key.WithDisabled()),
	}
}
