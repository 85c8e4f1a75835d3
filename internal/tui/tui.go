// Package tui lets a person sit in the agent's seat and play hands against
// the bot in a terminal.
package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/lox/holdemgym/internal/deck"
	"github.com/lox/holdemgym/internal/game"
)

const (
	paneLog = iota
	paneInput
)

// Model is the Bubble Tea model for a human playing the agent seat. All
// environment calls run inside commands, one at a time; the model only
// reads the snapshots they return.
type Model struct {
	env    *game.Env
	cfg    game.Config
	logger *log.Logger

	logViewport viewport.Model
	actionInput textinput.Model

	gameLog     []string
	focusedPane int
	quitting    bool

	// Snapshot of the current hand.
	state  game.GameState
	obs    game.Observation
	handID string
	seen   int // actions already written to the log
	live   bool
	busy   bool

	hands  int
	reward float64
	chips  int

	width       int
	height      int
	initialized bool
}

// handMsg carries the result of a Reset or Step back into Update.
type handMsg struct {
	obs    game.Observation
	state  game.GameState
	record game.HandRecord
	result *game.StepResult // nil after a reset
	signal float64
	err    error
}

// New creates a model playing on env.
func New(env *game.Env, logger *log.Logger) *Model {
	vp := viewport.New(10, 5)
	vp.SetContent("")

	ti := textinput.New()
	ti.Focus()
	ti.CharLimit = 40
	ti.Width = 60
	ti.PromptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")).Bold(true)
	ti.TextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FAFAFA"))
	ti.Prompt = "> "

	return &Model{
		env:         env,
		cfg:         env.Config(),
		logger:      logger.WithPrefix("tui"),
		logViewport: vp,
		actionInput: ti,
		focusedPane: paneInput,
		busy:        true,
	}
}

// Init deals the first hand.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.resetCmd())
}

func (m *Model) resetCmd() tea.Cmd {
	env := m.env
	return func() tea.Msg {
		obs, err := env.Reset()
		return handMsg{obs: obs, state: env.State(), record: env.Record(), err: err}
	}
}

func (m *Model) stepCmd(x float64) tea.Cmd {
	env := m.env
	return func() tea.Msg {
		res, err := env.Step(x)
		return handMsg{obs: res.Observation, state: env.State(), record: env.Record(), result: &res, signal: x, err: err}
	}
}

// Update handles messages in the TUI.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case handMsg:
		m.busy = false
		m.applyHand(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Sequence(tea.ClearScreen, tea.Quit)
		case "tab":
			if m.focusedPane == paneLog {
				m.focusedPane = paneInput
				m.actionInput.Focus()
			} else {
				m.focusedPane = paneLog
				m.actionInput.Blur()
			}
		case "enter":
			if m.focusedPane == paneInput {
				input := strings.TrimSpace(m.actionInput.Value())
				m.actionInput.SetValue("")
				return m, m.submit(input)
			}
		case "up", "k":
			if m.focusedPane == paneLog {
				m.logViewport.ScrollUp(1)
			}
		case "down", "j":
			if m.focusedPane == paneLog {
				m.logViewport.ScrollDown(1)
			}
		case "pgup":
			if m.focusedPane == paneLog {
				m.logViewport.HalfPageUp()
			}
		case "pgdown":
			if m.focusedPane == paneLog {
				m.logViewport.HalfPageDown()
			}
		case "home", "g":
			if m.focusedPane == paneLog {
				m.logViewport.GotoTop()
			}
		case "end", "G":
			if m.focusedPane == paneLog {
				m.logViewport.GotoBottom()
			}
		}
	}

	var cmd tea.Cmd
	if m.focusedPane == paneInput {
		m.actionInput, cmd = m.actionInput.Update(msg)
		cmds = append(cmds, cmd)
	}
	m.logViewport, cmd = m.logViewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// submit acts on a line of input and returns the command to run, if any.
func (m *Model) submit(input string) tea.Cmd {
	cmd := parseCommand(input)
	if cmd == CommandQuit {
		m.quitting = true
		return tea.Sequence(tea.ClearScreen, tea.Quit)
	}
	if m.busy {
		return nil
	}
	if !m.live {
		m.busy = true
		return m.resetCmd()
	}
	if cmd == CommandNext {
		m.AddLogEntry(InfoStyle.Render("Type an action: fold, check, call, raise N"))
		return nil
	}

	x, err := ParseSignal(input, m.state.Owed(game.Agent), m.cfg.MinBet)
	if err != nil {
		m.AddLogEntry(ErrorStyle.Render(err.Error()))
		return nil
	}
	m.busy = true
	return m.stepCmd(x)
}

func (m *Model) applyHand(msg handMsg) {
	if msg.result == nil {
		m.seen = 0
		m.handID = msg.record.ID
		m.AddLogEntry("")
		m.AddLogEntry(HeaderStyle.Render(fmt.Sprintf(" Hand #%d ", msg.record.Number)) + " " + InfoStyle.Render(msg.record.ID))
		m.AddLogEntry(fmt.Sprintf("You are %s. Stacks %d / %d",
			seatName(msg.record.Dealer), msg.record.StartingStacks[game.Agent], msg.record.StartingStacks[game.Bot]))
		m.AddLogEntry("Dealt to you " + formatCards(msg.state.AgentCards))
		m.AddLogEntry("*** PRE-FLOP ***")
	}

	if msg.err != nil {
		m.logger.Error("hand failed", "hand", m.handID, "error", msg.err)
		m.AddLogEntry(ErrorStyle.Render(msg.err.Error()))
		if msg.result == nil || msg.result.Done || errors.Is(msg.err, game.ErrHandComplete) || errors.Is(msg.err, game.ErrNoHand) {
			m.live = false
			m.state = msg.state
			m.AddLogEntry(InfoStyle.Render("Press Enter to deal again"))
		}
		return
	}

	round := m.state.Round
	m.state = msg.state
	m.obs = msg.obs
	m.live = true

	for _, a := range msg.record.Actions[m.seen:] {
		m.AddLogEntry(formatAction(a))
	}
	m.seen = len(msg.record.Actions)

	if msg.result == nil {
		return
	}
	if msg.result.Done {
		m.finishHand(msg)
		return
	}
	if m.state.Round != round {
		m.AddLogEntry(fmt.Sprintf("*** %s *** %s", strings.ToUpper(m.state.Round.String()), formatCards(m.state.Community)))
	}
}

func (m *Model) finishHand(msg handMsg) {
	out := msg.result.Outcome
	m.live = false
	m.hands++
	m.reward += msg.result.Reward
	if out == nil {
		return
	}
	m.chips += out.AgentDelta

	if out.Showdown {
		m.AddLogEntry(fmt.Sprintf("*** SHOWDOWN *** %s", formatCards(msg.record.Community)))
		m.AddLogEntry(fmt.Sprintf("You show %s: %s", formatCards(msg.record.AgentCards), out.AgentRank))
		m.AddLogEntry(fmt.Sprintf("Bot shows %s: %s", formatCards(msg.record.BotCards), out.BotRank))
	}

	switch out.Winner {
	case game.Agent:
		m.AddLogEntry(SuccessStyle.Render(fmt.Sprintf("You win %d (reward %+.4f)", out.Pot, msg.result.Reward)))
	case game.Bot:
		m.AddLogEntry(ErrorStyle.Render(fmt.Sprintf("Bot wins %d (reward %+.4f)", out.Pot, msg.result.Reward)))
	default:
		m.AddLogEntry(WarningStyle.Render(fmt.Sprintf("Split pot of %d", out.Pot)))
	}
	m.AddLogEntry(InfoStyle.Render("Press Enter for the next hand"))
}

// View renders the TUI.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	actionContent := m.renderActionPane()
	actionHeight := lipgloss.Height(actionContent)

	actionPane := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(m.borderColor(paneInput)).
		Width(max(m.width-2, 1)).
		Height(max(actionHeight, 1)).
		Render(actionContent)

	sidebarContent := m.renderSidebarPane()
	sidebarWidth := max(lipgloss.Width(sidebarContent), 25)
	paneHeight := max(m.height-actionHeight-4, 1)

	sidebarPane := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#626262")).
		Width(sidebarWidth).
		Height(paneHeight).
		Render(sidebarContent)

	m.logViewport.Width = max(m.width-sidebarWidth-4, 1)
	m.logViewport.Height = paneHeight
	m.logViewport.SetContent(strings.Join(m.gameLog, "\n"))
	if !m.initialized && m.logViewport.Width > 1 && m.logViewport.Height > 1 {
		m.logViewport.GotoBottom()
		m.initialized = true
	}

	logPane := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(m.borderColor(paneLog)).
		Width(m.logViewport.Width).
		Height(paneHeight).
		Render(m.logViewport.View())

	topRow := lipgloss.JoinHorizontal(lipgloss.Top, logPane, sidebarPane)
	return lipgloss.JoinVertical(lipgloss.Top, topRow, actionPane)
}

func (m *Model) borderColor(pane int) lipgloss.Color {
	if m.focusedPane == pane {
		return lipgloss.Color("#04B575")
	}
	return lipgloss.Color("#626262")
}

func (m *Model) renderSidebarPane() string {
	var b strings.Builder
	s := m.state

	b.WriteString(WarningStyle.Render(fmt.Sprintf("Pot: %d", s.Pot)))
	if owed := s.Owed(game.Agent); m.live && owed > 0 {
		b.WriteString(" | ")
		b.WriteString(WarningStyle.Render(fmt.Sprintf("To call: %d", owed)))
	}
	b.WriteString("\n\n")

	b.WriteString(PlayerInfoStyle.Render(fmt.Sprintf("You: %d", s.AgentChips)))
	b.WriteString("\n")
	b.WriteString(PlayerInfoStyle.Render(fmt.Sprintf("Bot: %d", s.BotChips)))
	b.WriteString("\n\n")

	if m.live {
		b.WriteString(InfoStyle.Render(fmt.Sprintf("Equity: %.1f%%", m.obs.Equity()*100)))
		b.WriteString("\n")
		for r := game.PreFlop; r <= s.Round; r++ {
			if v, ok := m.obs.BotHistory(r); ok {
				b.WriteString(InfoStyle.Render(fmt.Sprintf("Bot %s: %.3f", r, v)))
				b.WriteString("\n")
			}
		}
		b.WriteString("\n")
	}

	b.WriteString(InfoStyle.Render(fmt.Sprintf("Hands: %d", m.hands)))
	b.WriteString("\n")
	b.WriteString(InfoStyle.Render(fmt.Sprintf("Net: %+d (%+.3f)", m.chips, m.reward)))
	return b.String()
}

func (m *Model) renderActionPane() string {
	var b strings.Builder

	switch {
	case m.busy:
		b.WriteString(HandInfoStyle.Render("Waiting..."))
		m.actionInput.Placeholder = ""
	case m.live:
		b.WriteString(HandInfoStyle.Render(fmt.Sprintf("Hand: %s  Board: %s  Pot: %d",
			formatCards(m.state.AgentCards), formatCards(m.state.Community), m.state.Pot)))
		b.WriteString("\n")
		b.WriteString(m.renderAvailableActions())
		m.actionInput.Placeholder = "fold, check, call, raise N, or a raw signal"
	default:
		b.WriteString(HandInfoStyle.Render("Hand over"))
		m.actionInput.Placeholder = "Enter to deal, 'quit' to exit"
	}
	b.WriteString("\n")
	b.WriteString(m.actionInput.View())
	b.WriteString("\n")

	help := "Tab to scroll log • Enter to submit • Ctrl+C to quit"
	if m.focusedPane == paneLog {
		help = "Log focused: ↑↓ scroll, PgUp/PgDn half page, Home/End, Tab to input"
	}
	b.WriteString(InfoStyle.Render(help))
	return b.String()
}

func (m *Model) renderAvailableActions() string {
	owed := m.state.Owed(game.Agent)
	var actions []string
	if owed > 0 {
		actions = append(actions,
			ErrorStyle.Render("[fold]"),
			SuccessStyle.Render(fmt.Sprintf("[call %d]", min(owed, m.state.AgentChips))))
	} else {
		actions = append(actions, SuccessStyle.Render("[check]"))
	}
	if m.state.AgentChips > owed {
		actions = append(actions, WarningStyle.Render("[raise]"))
	}
	return ActionsStyle.Render("Actions: " + strings.Join(actions, " "))
}

// AddLogEntry appends a line to the game log and scrolls to it.
func (m *Model) AddLogEntry(entry string) {
	m.gameLog = append(m.gameLog, entry)
	m.logViewport.SetContent(strings.Join(m.gameLog, "\n"))
	if m.logViewport.Height > 0 && m.logViewport.Width > 0 {
		m.logViewport.GotoBottom()
	}
}

// Log returns the lines written so far.
func (m *Model) Log() []string {
	return append([]string(nil), m.gameLog...)
}

// Results returns the hands completed and the summed reward.
func (m *Model) Results() (hands int, reward float64) {
	return m.hands, m.reward
}

func seatName(dealer game.Player) string {
	if dealer == game.Agent {
		return "the dealer (small blind)"
	}
	return "the big blind"
}

func formatAction(a game.ActionRecord) string {
	who := "You"
	if a.Player == game.Bot {
		who = "Bot"
	}
	switch a.Action {
	case game.Fold:
		return fmt.Sprintf("%s fold", who)
	case game.Check:
		return fmt.Sprintf("%s check", who)
	case game.Call:
		return fmt.Sprintf("%s call %d (pot %d)", who, a.Paid, a.PotAfter)
	default:
		return fmt.Sprintf("%s raise %d (pot %d)", who, a.Paid, a.PotAfter)
	}
}

func formatCards(cards []deck.Card) string {
	if len(cards) == 0 {
		return "[]"
	}
	formatted := make([]string, 0, len(cards))
	for _, card := range cards {
		if card.IsRed() {
			formatted = append(formatted, RedCardStyle.Render(card.String()))
		} else {
			formatted = append(formatted, BlackCardStyle.Render(card.String()))
		}
	}
	return "[" + strings.Join(formatted, " ") + "]"
}
