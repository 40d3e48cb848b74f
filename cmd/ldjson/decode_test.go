package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/require"

	"github.com/ldjson-stream/ldjson/pkg/ldjson"
	"github.com/ldjson-stream/ldjson/pkg/source"
)

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func TestDecode_Locations(t *testing.T) {
	var gz bytes.Buffer
	zw := gzip.NewWriter(&gz)
	zw.Write([]byte("[3]\n"))
	require.NoError(t, zw.Close())

	first := writeFile(t, "a.ndjson", []byte("{ \"a\": 1 }\r\nbad\n{\"b\": 2}"))
	second := writeFile(t, "b.ndjson.gz", gz.Bytes())

	c := &DecodeCLI{Locations: []string{first, second}}
	var out bytes.Buffer
	s, err := c.decode(context.Background(), &out, testLogger(t))
	require.NoError(t, err)
	require.Equal(t, "{\"a\":1}\n{\"b\":2}\n[3]\n", out.String())
	require.Equal(t, int64(3), s.Documents)
	require.Equal(t, int64(1), s.Errors)
}

func TestDecode_Stdin(t *testing.T) {
	c := &DecodeCLI{}
	var out bytes.Buffer
	s, err := c.decode(context.Background(), &out, testLogger(t), source.WithStdin(strings.NewReader("1\n2\n")))
	require.NoError(t, err)
	require.Equal(t, "1\n2\n", out.String())
	require.Equal(t, int64(4), s.Bytes)
}

func TestDecode_FatalStopsAtLocation(t *testing.T) {
	long := writeFile(t, "long.ndjson", []byte("{\"ok\":true}\n\"0123456789abcdef\"\n{\"never\":1}\n"))
	other := writeFile(t, "other.ndjson", []byte("{}\n"))

	c := &DecodeCLI{Locations: []string{long, other}, MaxDocLength: 16, Hide: true}
	var out bytes.Buffer
	s, err := c.decode(context.Background(), &out, testLogger(t))
	require.ErrorIs(t, err, ldjson.ErrDocTooLong)
	require.ErrorContains(t, err, long)
	require.Equal(t, "{\"ok\":true}\n", out.String())
	require.Equal(t, int64(1), s.Documents)
}

func TestDecode_MaxBytes(t *testing.T) {
	path := writeFile(t, "docs.ndjson", []byte("{}\n{}\n{}\n"))

	c := &DecodeCLI{Locations: []string{path}, MaxBytes: 4}
	_, err := c.decode(context.Background(), &bytes.Buffer{}, testLogger(t))
	require.ErrorIs(t, err, ldjson.ErrMaxBytes)
}

func TestDecode_MissingLocation(t *testing.T) {
	c := &DecodeCLI{Locations: []string{filepath.Join(t.TempDir(), "missing")}}
	_, err := c.decode(context.Background(), &bytes.Buffer{}, testLogger(t))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestDecode_Options(t *testing.T) {
	c := &DecodeCLI{MaxDocLength: 10, MaxBytes: 20, Debug: true, Hide: true}
	require.Equal(t, ldjson.Options{MaxDocLength: 10, MaxBytes: 20, Debug: true, Hide: true}, c.options())
}
