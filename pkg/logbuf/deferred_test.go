package logbuf

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	calls []string
}

func (r *recordingWriter) Write(p []byte) (int, error) {
	r.calls = append(r.calls, string(p))
	return len(p), nil
}

func TestDeferredWriter_FlushKeepsRecords(t *testing.T) {
	var d DeferredWriter

	buf := []byte("first\n")
	_, err := d.Write(buf)
	require.NoError(t, err)
	buf[0] = 'X'

	_, err = d.Write([]byte("second\n"))
	require.NoError(t, err)
	assert.Equal(t, 2, d.Len())

	var out recordingWriter
	require.NoError(t, d.Flush(&out))

	assert.Equal(t, []string{"first\n", "second\n"}, out.calls, "records are copied and written one per call")
	assert.Equal(t, 0, d.Len())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("closed") }

func TestDeferredWriter_FlushError(t *testing.T) {
	var d DeferredWriter
	_, _ = d.Write([]byte("x"))

	assert.EqualError(t, d.Flush(failingWriter{}), "closed")

	var out bytes.Buffer
	require.NoError(t, d.Flush(&out))
	assert.Empty(t, out.String(), "buffer is cleared even when flushing fails")
}
