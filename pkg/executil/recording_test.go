package executil

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecordingExecutor_LongestPrefixWins(t *testing.T) {
	e := &RecordingExecutor{
		Outputs: map[string][]byte{
			"tmux":            []byte("generic"),
			"tmux list-panes": []byte("panes"),
		},
		Errors: map[string]error{
			"tmux kill-pane -t %3": errors.New("can't find pane"),
		},
	}
	ctx := context.Background()

	out, err := e.Output(ctx, "tmux", "list-panes", "-a")
	assert.NoError(t, err)
	assert.Equal(t, "panes", string(out))

	out, _ = e.Run(ctx, "tmux", "-V")
	assert.Equal(t, "generic", string(out))

	_, err = e.Run(ctx, "tmux", "kill-pane", "-t", "%3")
	assert.EqualError(t, err, "can't find pane")

	_, err = e.Run(ctx, "tmux", "kill-pane", "-t", "%30")
	assert.NoError(t, err, "prefix must end on an argument boundary")

	out, err = e.Run(ctx, "git", "status")
	assert.NoError(t, err)
	assert.Nil(t, out)

	assert.Equal(t, []string{
		"tmux list-panes -a",
		"tmux -V",
		"tmux kill-pane -t %3",
		"tmux kill-pane -t %30",
		"git status",
	}, e.Lines())
}
