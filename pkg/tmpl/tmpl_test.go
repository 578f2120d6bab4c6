package tmpl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type startup struct {
	CLI   string
	Model string
}

func TestRender(t *testing.T) {
	tests := []struct {
		name    string
		tmpl    string
		data    any
		want    string
		wantErr bool
	}{
		{
			name: "struct fields",
			tmpl: "{{ .CLI }} --model {{ .Model }}",
			data: startup{CLI: "claude", Model: "opus"},
			want: "claude --model opus",
		},
		{
			name: "map data",
			tmpl: "{{ .CLI }} -c",
			data: map[string]string{"CLI": "/opt/claude"},
			want: "/opt/claude -c",
		},
		{
			name: "static text",
			tmpl: "claude",
			want: "claude",
		},
		{
			name:    "unknown map key",
			tmpl:    "{{ .Missing }}",
			data:    map[string]string{"CLI": "claude"},
			wantErr: true,
		},
		{
			name:    "unknown struct field",
			tmpl:    "{{ .Prompt }}",
			data:    startup{},
			wantErr: true,
		},
		{
			name:    "bad syntax",
			tmpl:    "{{ .CLI }",
			data:    startup{},
			wantErr: true,
		},
		{
			name: "shq with spaces",
			tmpl: "{{ .CLI | shq }}",
			data: startup{CLI: "/Applications/My Tools/claude"},
			want: "'/Applications/My Tools/claude'",
		},
		{
			name: "shq with single quote",
			tmpl: "{{ .CLI | shq }}",
			data: startup{CLI: "it's"},
			want: `'it'\''s'`,
		},
		{
			name: "shq empty",
			tmpl: "{{ .CLI | shq }}",
			data: startup{},
			want: "''",
		},
		{
			name: "lower and title",
			tmpl: "{{ .Model | title }}/{{ .CLI | lower }}",
			data: startup{CLI: "CLAUDE", Model: "haiku"},
			want: "Haiku/claude",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Render(tt.tmpl, tt.data)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCheck(t *testing.T) {
	sample := startup{CLI: "claude", Model: "sonnet"}

	require.NoError(t, Check("{{ .CLI }} --model {{ .Model }}", sample, "claude"))
	require.NoError(t, Check("  {{ .CLI }}", sample, "claude"))
	require.NoError(t, Check("anything", sample, ""))

	err := Check("env X=1 {{ .CLI }}", sample, "claude")
	assert.ErrorContains(t, err, "must start with")

	err = Check("{{ .Nope }}", sample, "claude")
	assert.ErrorContains(t, err, "execute template")
}
