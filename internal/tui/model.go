package tui

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/hay-kot/ccdash/internal/dashboard"
)

const requestTimeout = 5 * time.Second

// Sender delivers requests to the dashboard service.
type Sender interface {
	Send(ctx context.Context, req dashboard.Request) error
}

// uiState is the input mode of the dashboard.
type uiState int

const (
	stateNormal uiState = iota
	stateRenaming
	stateConfirming
)

// updateMsg wraps a message published by the dashboard service.
type updateMsg struct {
	msg dashboard.Message
}

// requestDoneMsg reports whether a request was accepted.
type requestDoneMsg struct {
	err error
}

// Model is the Bubble Tea model of the dashboard.
type Model struct {
	svc     Sender
	updates <-chan dashboard.Message

	keys  keyMap
	help  help.Model
	input textinput.Model
	modal Modal

	cards    []dashboard.Card
	models   []dashboard.ModelOption
	modelIdx int
	picked   string // model chosen with the cycle key, kept across model updates
	cursor   int
	selected string

	state  uiState
	target string
	err    error
	width  int
	height int
}

// New creates a dashboard model that sends requests to svc and renders the
// messages read from updates.
func New(svc Sender, updates <-chan dashboard.Message) Model {
	input := textinput.New()
	input.Prompt = "Name: "
	input.Placeholder = "empty clears the custom name"
	input.CharLimit = 64

	return Model{
		svc:     svc,
		updates: updates,
		keys:    defaultKeyMap(),
		help:    help.New(),
		input:   input,
	}
}

// Init starts listening for dashboard messages.
func (m Model) Init() tea.Cmd {
	return waitForUpdate(m.updates)
}

func waitForUpdate(ch <-chan dashboard.Message) tea.Cmd {
	return func() tea.Msg {
		return updateMsg{msg: <-ch}
	}
}

func (m Model) send(req dashboard.Request) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return requestDoneMsg{err: svc.Send(ctx, req)}
	}
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case updateMsg:
		m.apply(msg.msg)
		return m, waitForUpdate(m.updates)

	case requestDoneMsg:
		if msg.err != nil {
			m.err = msg.err
		}
		return m, nil

	case tea.KeyMsg:
		switch m.state {
		case stateRenaming:
			return m.handleRenameKey(msg)
		case stateConfirming:
			return m.handleConfirmKey(msg)
		default:
			return m.handleNormalKey(msg)
		}
	}

	if m.state == stateRenaming {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) apply(msg dashboard.Message) {
	switch msg := msg.(type) {
	case dashboard.UpdateTerminals:
		m.cards = msg.Terminals
		m.restoreSelection()
	case dashboard.UpdateModels:
		m.models = msg.Models
		m.modelIdx = indexOfModel(msg.Models, m.picked)
		if m.modelIdx < 0 {
			m.picked = ""
			m.modelIdx = max(indexOfModel(msg.Models, msg.DefaultModel), 0)
		}
	case dashboard.Error:
		m.err = errors.New(msg.Message)
	}
}

func indexOfModel(models []dashboard.ModelOption, value string) int {
	if value == "" {
		return -1
	}
	for i, opt := range models {
		if opt.Value == value {
			return i
		}
	}
	return -1
}

// restoreSelection keeps the cursor on the same terminal across updates and
// clamps it when that terminal is gone.
func (m *Model) restoreSelection() {
	for i, c := range m.cards {
		if c.ID == m.selected {
			m.cursor = i
			return
		}
	}
	m.cursor = min(m.cursor, len(m.cards)-1)
	m.cursor = max(m.cursor, 0)
	m.selected = ""
	if len(m.cards) > 0 {
		m.selected = m.cards[m.cursor].ID
	}
}

func (m *Model) moveCursor(delta int) {
	if len(m.cards) == 0 {
		return
	}
	m.cursor = max(0, min(len(m.cards)-1, m.cursor+delta))
	m.selected = m.cards[m.cursor].ID
}

func (m Model) selectedCard() (dashboard.Card, bool) {
	if m.cursor < 0 || m.cursor >= len(m.cards) {
		return dashboard.Card{}, false
	}
	return m.cards[m.cursor], true
}

// currentModel is the model used by the next "new" request. Empty lets the
// service pick its default.
func (m Model) currentModel() string {
	if m.modelIdx < 0 || m.modelIdx >= len(m.models) {
		return ""
	}
	return m.models[m.modelIdx].Value
}

func (m Model) handleNormalKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Up):
		m.moveCursor(-1)
	case key.Matches(msg, m.keys.Down):
		m.moveCursor(1)
	case key.Matches(msg, m.keys.New):
		m.err = nil
		return m, m.send(dashboard.NewTerminal{Model: m.currentModel()})
	case key.Matches(msg, m.keys.Model):
		if len(m.models) > 0 {
			m.modelIdx = (m.modelIdx + 1) % len(m.models)
			m.picked = m.models[m.modelIdx].Value
		}
	case key.Matches(msg, m.keys.Focus):
		if card, ok := m.selectedCard(); ok {
			return m, m.send(dashboard.FocusTerminal{TerminalID: card.ID})
		}
	case key.Matches(msg, m.keys.Close):
		if card, ok := m.selectedCard(); ok {
			m.target = card.ID
			m.modal = NewModal("Close terminal", "Close "+card.DisplayName()+"? Its process will be killed.")
			m.state = stateConfirming
		}
	case key.Matches(msg, m.keys.Rename):
		if card, ok := m.selectedCard(); ok {
			m.target = card.ID
			m.input.SetValue(card.CustomName)
			m.input.CursorEnd()
			m.state = stateRenaming
			return m, m.input.Focus()
		}
	case key.Matches(msg, m.keys.Refresh):
		m.err = nil
		return m, m.send(dashboard.RequestRefresh{})
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return m, nil
}

func (m Model) handleRenameKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.state = stateNormal
		m.input.Blur()
		return m, nil
	case "enter":
		m.state = stateNormal
		m.input.Blur()
		return m, m.send(dashboard.RenameTerminal{TerminalID: m.target, Name: m.input.Value()})
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "left", "right", "h", "l", "tab":
		m.modal.ToggleSelection()
	case "y":
		m.state = stateNormal
		return m, m.send(dashboard.CloseTerminal{TerminalID: m.target})
	case "esc", "n", "q":
		m.state = stateNormal
	case "enter":
		m.state = stateNormal
		if m.modal.ConfirmSelected() {
			return m, m.send(dashboard.CloseTerminal{TerminalID: m.target})
		}
	}
	return m, nil
}
