package ldjson

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncoder_Encode(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)

	require.NoError(t, enc.Encode(map[string]any{"msg": "line1\nline2"}))
	require.NoError(t, enc.Encode(nil))
	require.Equal(t, "{\"msg\":\"line1\\nline2\"}\nnull\n", buf.String())
}

func TestEncoder_EncodeUnsupported(t *testing.T) {
	var buf bytes.Buffer
	err := NewEncoder(&buf).Encode(make(chan int))
	require.Error(t, err)
	require.Zero(t, buf.Len())
}

func TestEncoder_EncodeRaw(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)

	require.NoError(t, enc.EncodeRaw([]byte(" {\"a\":1}\r\n")))
	require.ErrorIs(t, enc.EncodeRaw([]byte("{\n\"a\":1}")), ErrNewline)
	require.Equal(t, "{\"a\":1}\n", buf.String())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestEncoder_WriteError(t *testing.T) {
	enc := NewEncoder(failingWriter{})
	require.EqualError(t, enc.Encode(1), "disk full")
	require.EqualError(t, enc.EncodeRaw([]byte("1")), "disk full")
}

func TestEncoder_ReadsBack(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	for _, v := range []any{"a", float64(2), map[string]any{"k": []any{true, nil}}} {
		require.NoError(t, enc.Encode(v))
	}

	rec := &recorder{}
	dec := NewDecoder(rec, Hide())
	_, err := buf.WriteTo(dec)
	require.NoError(t, err)
	require.NoError(t, dec.Close())
	require.Equal(t, "doc,doc,doc,end", rec.kinds())
}
