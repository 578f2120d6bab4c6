package dashboard

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hay-kot/ccdash/internal/core/terminal"
)

func TestDecodeRequest(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Request
		wantErr string
	}{
		{
			name:  "new terminal",
			input: `{"type":"newTerminal","model":"opus"}`,
			want:  NewTerminal{Model: "opus"},
		},
		{
			name:  "new terminal without model",
			input: `{"type":"newTerminal"}`,
			want:  NewTerminal{},
		},
		{
			name:  "close",
			input: `{"type":"closeTerminal","terminalId":"4"}`,
			want:  CloseTerminal{TerminalID: "4"},
		},
		{
			name:  "focus",
			input: `{"type":"focusTerminal","terminalId":"2"}`,
			want:  FocusTerminal{TerminalID: "2"},
		},
		{
			name:  "rename",
			input: `{"type":"renameTerminal","terminalId":"2","name":"api"}`,
			want:  RenameTerminal{TerminalID: "2", Name: "api"},
		},
		{
			name:  "refresh",
			input: `{"type":"requestRefresh"}`,
			want:  RequestRefresh{},
		},
		{
			name:    "unknown type",
			input:   `{"type":"openDashboard"}`,
			wantErr: `unknown type "openDashboard"`,
		},
		{
			name:    "missing type",
			input:   `{"terminalId":"1"}`,
			wantErr: "missing type",
		},
		{
			name:    "not json",
			input:   `close 1`,
			wantErr: "decode request",
		},
		{
			name:    "wrong field type",
			input:   `{"type":"closeTerminal","terminalId":4}`,
			wantErr: "decode closeTerminal",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeRequest([]byte(tt.input))
			if tt.wantErr != "" {
				require.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEncodeMessage_UpdateTerminals(t *testing.T) {
	created := time.UnixMilli(1700000000123)
	msg := NewUpdateTerminals([]terminal.Terminal{
		{ID: "2", Label: "zsh", Status: terminal.StatusPlain, CreatedAt: created},
		{
			ID: "1", Label: "Claude Code (Opus)", CustomName: "api", Managed: true,
			Model: terminal.ModelOpus, Status: terminal.StatusPending, CreatedAt: created,
		},
	})

	data, err := EncodeMessage(msg)
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"type": "updateTerminals",
		"terminals": [
			{"id":"1","label":"Claude Code (Opus)","customName":"api","isClaudeManaged":true,"model":"opus","status":"pending","createdAt":1700000000123},
			{"id":"2","label":"zsh","isClaudeManaged":false,"status":"plain","createdAt":1700000000123}
		]
	}`, string(data))
}

func TestEncodeMessage_EmptyTerminals(t *testing.T) {
	data, err := EncodeMessage(NewUpdateTerminals(nil))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"updateTerminals","terminals":[]}`, string(data))
}

func TestNewUpdateModels(t *testing.T) {
	msg := NewUpdateModels(terminal.ModelSonnet)

	assert.Equal(t, TypeUpdateModels, msg.Type)
	assert.Equal(t, "sonnet", msg.DefaultModel)
	assert.Equal(t, []ModelOption{
		{Value: "opus", Label: "Opus"},
		{Value: "sonnet", Label: "Sonnet"},
		{Value: "haiku", Label: "Haiku"},
	}, msg.Models)
}

func TestNewError(t *testing.T) {
	msg := NewError(TypeCloseTerminal, errors.New("gone"))
	data, err := EncodeMessage(msg)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"error","request":"closeTerminal","message":"gone"}`, string(data))
}

func TestCard_DisplayName(t *testing.T) {
	assert.Equal(t, "zsh", Card{Label: "zsh"}.DisplayName())
	assert.Equal(t, "api", Card{Label: "zsh", CustomName: "api"}.DisplayName())
}
