package randid

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerate(t *testing.T) {
	id := Generate(12)
	assert.Len(t, id, 12)
	for _, r := range id {
		assert.True(t, strings.ContainsRune(chars, r), "unexpected rune %q", r)
	}
}

func TestPrefixed(t *testing.T) {
	id := Prefixed("ccdash", 6)
	assert.True(t, strings.HasPrefix(id, "ccdash-"))
	assert.Len(t, id, len("ccdash-")+6)
}
