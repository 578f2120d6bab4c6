package tmux

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func paneLine(fields ...string) string {
	return strings.Join(fields, "\t")
}

func TestParsePaneLine(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		want    Pane
		wantErr bool
	}{
		{
			name: "attached active pane",
			line: paneLine("%1", "100", "0", "1", "1", "1", "1700000000", "3", "Claude Code (Opus)"),
			want: Pane{
				ID: "%1", PID: 100, Name: "Claude Code (Opus)", CursorY: 3,
				active: true, attached: true, sessionActivity: 1700000000,
			},
		},
		{
			name: "dead pane",
			line: paneLine("%2", "101", "1", "0", "1", "0", "0", "0", "zsh"),
			want: Pane{ID: "%2", PID: 101, Name: "zsh", Dead: true},
		},
		{
			name: "window name with tab",
			line: paneLine("%3", "102", "0", "0", "0", "0", "0", "0", "a\tb"),
			want: Pane{ID: "%3", PID: 102, Name: "a\tb"},
		},
		{
			name:    "too few fields",
			line:    paneLine("%1", "100"),
			wantErr: true,
		},
		{
			name:    "bad pid",
			line:    paneLine("%1", "abc", "0", "0", "0", "0", "0", "0", "zsh"),
			wantErr: true,
		},
		{
			name:    "bad id",
			line:    paneLine("1", "100", "0", "0", "0", "0", "0", "0", "zsh"),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parsePaneLine(tt.line)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMarkFocused(t *testing.T) {
	panes := []Pane{
		{ID: "%1", active: true, attached: true, sessionActivity: 10},
		{ID: "%2", active: true, attached: true, sessionActivity: 20},
		{ID: "%3", active: true, attached: false, sessionActivity: 30},
		{ID: "%4", active: false, attached: true, sessionActivity: 40},
	}

	markFocused(panes)

	var focused []string
	for _, p := range panes {
		if p.Focused {
			focused = append(focused, p.ID)
		}
	}
	assert.Equal(t, []string{"%2"}, focused)
}

func TestHost_Snapshot(t *testing.T) {
	h, rec := newTestHost(t, false)
	rec.Outputs["tmux list-panes"] = []byte(strings.Join([]string{
		paneLine("%1", "100", "0", "1", "1", "1", "50", "4", "Claude Code (Sonnet)"),
		paneLine("%2", "200", "0", "0", "1", "1", "50", "0", "zsh"),
		paneLine("%3", "300", "1", "0", "1", "1", "50", "0", "done"),
		"garbage",
	}, "\n") + "\n")

	rec.Outputs["pgrep -P 100"] = []byte("150\n151\n")
	rec.Outputs["ps -o args= -p 150"] = []byte("claude --model sonnet\n")
	rec.Outputs["tmux capture-pane -p -J -t %1"] = []byte("> hello\n")
	rec.Errors["pgrep -P 200"] = errors.New("exit status 1")

	panes, err := h.Snapshot(context.Background())
	require.NoError(t, err)
	require.Len(t, panes, 3)

	assert.Equal(t, "claude --model sonnet", panes[0].CommandLine)
	assert.Equal(t, "> hello\n", panes[0].Content)
	assert.True(t, panes[0].Focused)

	assert.Empty(t, panes[1].CommandLine)
	assert.Empty(t, panes[1].Content)

	assert.True(t, panes[2].Dead)
	assert.NotContains(t, rec.Lines(), "pgrep -P 300", "dead panes are not probed")
}

func TestHost_Snapshot_CaptureFailureSwallowed(t *testing.T) {
	h, rec := newTestHost(t, false)
	rec.Outputs["tmux list-panes"] = []byte(paneLine("%1", "100", "0", "0", "0", "0", "0", "0", "x"))
	rec.Outputs["pgrep -P 100"] = []byte("150")
	rec.Outputs["ps -o args= -p 150"] = []byte("claude")
	rec.Errors["tmux capture-pane"] = errors.New("can't find pane: %1")

	panes, err := h.Snapshot(context.Background())
	require.NoError(t, err)
	require.Len(t, panes, 1)
	assert.Equal(t, "claude", panes[0].CommandLine)
	assert.Empty(t, panes[0].Content)
}

func TestHost_Snapshot_NoServer(t *testing.T) {
	h, rec := newTestHost(t, false)
	rec.Errors["tmux list-panes"] = errors.New("exec tmux list-panes: exit status 1: no server running on /tmp/tmux-1000/default")

	panes, err := h.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Empty(t, panes)

	rec.Errors["tmux list-panes"] = errors.New("permission denied")
	_, err = h.Snapshot(context.Background())
	assert.ErrorContains(t, err, "list panes")
}
