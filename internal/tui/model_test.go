package tui

import (
	"context"
	"errors"
	"testing"

	"github.com/charmbracelet/bubbles/cursor"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hay-kot/ccdash/internal/core/terminal"
	"github.com/hay-kot/ccdash/internal/dashboard"
)

type recordingSender struct {
	reqs []dashboard.Request
	err  error
}

func (s *recordingSender) Send(_ context.Context, req dashboard.Request) error {
	s.reqs = append(s.reqs, req)
	return s.err
}

func keyPress(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

// press applies a key and runs any returned command, feeding its result back
// into the model the way the runtime would.
func press(t *testing.T, m Model, k string) Model {
	t.Helper()
	next, cmd := m.Update(keyPress(k))
	m = next.(Model)
	if cmd != nil {
		if msg, ok := cmd().(requestDoneMsg); ok {
			next, _ = m.Update(msg)
			m = next.(Model)
		}
	}
	return m
}

func loaded(t *testing.T, svc Sender) Model {
	t.Helper()
	m := New(svc, nil)
	// A blinking cursor schedules timed commands.
	m.input.Cursor.SetMode(cursor.CursorStatic)

	next, _ := m.Update(updateMsg{msg: dashboard.NewUpdateModels("sonnet")})
	m = next.(Model)
	next, _ = m.Update(updateMsg{msg: dashboard.UpdateTerminals{
		Type: dashboard.TypeUpdateTerminals,
		Terminals: []dashboard.Card{
			{ID: "1", Label: "Claude Code (Opus)", IsClaudeManaged: true, Model: "opus", Status: "active"},
			{ID: "3", Label: "Claude Code (Haiku)", IsClaudeManaged: true, Model: "haiku", Status: "pending"},
			{ID: "2", Label: "zsh", Status: "plain"},
		},
	}})
	return next.(Model)
}

func TestModel_NewUsesSelectedModel(t *testing.T) {
	svc := &recordingSender{}
	m := loaded(t, svc)

	assert.Equal(t, "sonnet", m.currentModel())

	m = press(t, m, "n")
	m = press(t, m, "m")
	m = press(t, m, "n")
	m = press(t, m, "m")
	m = press(t, m, "m")
	assert.Equal(t, "opus", m.currentModel(), "cycles and wraps")

	assert.Equal(t, []dashboard.Request{
		dashboard.NewTerminal{Model: "sonnet"},
		dashboard.NewTerminal{Model: "haiku"},
	}, svc.reqs)
}

func TestModel_ModelUpdates(t *testing.T) {
	tests := []struct {
		name       string
		cycles     int
		newDefault terminal.Model
		want       string
	}{
		{name: "follows default until a model is picked", cycles: 0, newDefault: "opus", want: "opus"},
		{name: "refresh keeps picked model", cycles: 1, newDefault: "sonnet", want: "haiku"},
		{name: "default change keeps picked model", cycles: 1, newDefault: "opus", want: "haiku"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := loaded(t, &recordingSender{})
			for range tt.cycles {
				m = press(t, m, "m")
			}

			next, _ := m.Update(updateMsg{msg: dashboard.NewUpdateModels(tt.newDefault)})
			m = next.(Model)

			assert.Equal(t, tt.want, m.currentModel())
		})
	}
}

func TestModel_PickedModelDroppedWhenUnlisted(t *testing.T) {
	m := loaded(t, &recordingSender{})
	m = press(t, m, "m")
	require.Equal(t, "haiku", m.currentModel())

	next, _ := m.Update(updateMsg{msg: dashboard.UpdateModels{
		Type:         dashboard.TypeUpdateModels,
		Models:       []dashboard.ModelOption{{Value: "opus", Label: "Opus"}, {Value: "sonnet", Label: "Sonnet"}},
		DefaultModel: "sonnet",
	}})
	m = next.(Model)
	assert.Equal(t, "sonnet", m.currentModel())

	// The pick is forgotten, so later default changes apply again.
	next, _ = m.Update(updateMsg{msg: dashboard.NewUpdateModels("opus")})
	m = next.(Model)
	assert.Equal(t, "opus", m.currentModel())
}

func TestModel_FocusFollowsCursor(t *testing.T) {
	svc := &recordingSender{}
	m := loaded(t, svc)

	m = press(t, m, "enter")
	m = press(t, m, "down")
	m = press(t, m, "j")
	m = press(t, m, "j")
	m = press(t, m, "enter")
	m = press(t, m, "k")
	m = press(t, m, "enter")

	assert.Equal(t, []dashboard.Request{
		dashboard.FocusTerminal{TerminalID: "1"},
		dashboard.FocusTerminal{TerminalID: "2"},
		dashboard.FocusTerminal{TerminalID: "3"},
	}, svc.reqs)
}

func TestModel_SelectionSurvivesUpdates(t *testing.T) {
	m := loaded(t, &recordingSender{})
	m = press(t, m, "down")
	require.Equal(t, "3", m.selected)

	next, _ := m.Update(updateMsg{msg: dashboard.UpdateTerminals{Terminals: []dashboard.Card{
		{ID: "5", Label: "new", IsClaudeManaged: true},
		{ID: "1", Label: "Claude Code (Opus)", IsClaudeManaged: true},
		{ID: "3", Label: "Claude Code (Haiku)", IsClaudeManaged: true},
	}}})
	m = next.(Model)
	assert.Equal(t, 2, m.cursor)
	assert.Equal(t, "3", m.selected)

	next, _ = m.Update(updateMsg{msg: dashboard.UpdateTerminals{Terminals: []dashboard.Card{
		{ID: "5", Label: "new", IsClaudeManaged: true},
	}}})
	m = next.(Model)
	assert.Equal(t, 0, m.cursor)
	assert.Equal(t, "5", m.selected)

	next, _ = m.Update(updateMsg{msg: dashboard.UpdateTerminals{}})
	m = next.(Model)
	assert.Equal(t, 0, m.cursor)
	assert.Empty(t, m.selected)

	_, ok := m.selectedCard()
	assert.False(t, ok)
}

func TestModel_CloseConfirmation(t *testing.T) {
	tests := []struct {
		name string
		keys []string
		want []dashboard.Request
	}{
		{
			name: "enter confirms",
			keys: []string{"x", "enter"},
			want: []dashboard.Request{dashboard.CloseTerminal{TerminalID: "1"}},
		},
		{
			name: "y confirms",
			keys: []string{"x", "y"},
			want: []dashboard.Request{dashboard.CloseTerminal{TerminalID: "1"}},
		},
		{
			name: "esc cancels",
			keys: []string{"x", "esc"},
		},
		{
			name: "cancel button",
			keys: []string{"x", "right", "enter"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &recordingSender{}
			m := loaded(t, svc)
			for _, k := range tt.keys {
				m = press(t, m, k)
			}
			assert.Equal(t, stateNormal, m.state)
			assert.Equal(t, tt.want, svc.reqs)
		})
	}
}

func TestModel_Rename(t *testing.T) {
	svc := &recordingSender{}
	m := loaded(t, svc)

	m = press(t, m, "r")
	require.Equal(t, stateRenaming, m.state)

	for _, r := range "api" {
		m = press(t, m, string(r))
	}
	assert.Empty(t, svc.reqs, "typing is not a request")

	m = press(t, m, "enter")
	assert.Equal(t, stateNormal, m.state)
	assert.Equal(t, []dashboard.Request{dashboard.RenameTerminal{TerminalID: "1", Name: "api"}}, svc.reqs)
}

func TestModel_RenameCancelled(t *testing.T) {
	svc := &recordingSender{}
	m := loaded(t, svc)

	m = press(t, m, "r")
	m = press(t, m, "q")
	m = press(t, m, "esc")

	assert.Equal(t, stateNormal, m.state)
	assert.Empty(t, svc.reqs)
}

func TestModel_Refresh(t *testing.T) {
	svc := &recordingSender{}
	m := loaded(t, svc)

	press(t, m, "R")
	assert.Equal(t, []dashboard.Request{dashboard.RequestRefresh{}}, svc.reqs)
}

func TestModel_Errors(t *testing.T) {
	svc := &recordingSender{err: errors.New("dashboard stopped")}
	m := loaded(t, svc)

	m = press(t, m, "n")
	require.Error(t, m.err)
	assert.Contains(t, m.View(), "dashboard stopped")

	next, _ := m.Update(updateMsg{msg: dashboard.NewError(dashboard.TypeNewTerminal, errors.New("no tmux server"))})
	m = next.(Model)
	assert.EqualError(t, m.err, "no tmux server")
}

func TestModel_Quit(t *testing.T) {
	m := loaded(t, &recordingSender{})

	_, cmd := m.Update(keyPress("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestModel_View(t *testing.T) {
	m := loaded(t, &recordingSender{})
	out := m.View()

	assert.Contains(t, out, "Claude Code (2)")
	assert.Contains(t, out, "Terminals (1)")
	assert.Contains(t, out, "> Claude Code (Opus)")
	assert.Contains(t, out, "Pending")
	assert.Contains(t, out, "Terminal")
	assert.Contains(t, out, "Sonnet")

	empty := New(&recordingSender{}, nil)
	assert.Contains(t, empty.View(), "No terminals yet")
}
