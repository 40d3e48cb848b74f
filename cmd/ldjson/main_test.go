package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/lmittmann/tint"
	"github.com/stretchr/testify/require"
)

func testLogger(t *testing.T) *slog.Logger {
	return slog.New(tint.NewHandler(t.Output(), &tint.Options{Level: slog.LevelDebug, TimeFormat: "15:04:05"}))
}

func parse(t *testing.T, args ...string) (*CLI, *kong.Context) {
	t.Helper()
	var c CLI
	parser, err := kong.New(&c, kongOptions()...)
	require.NoError(t, err)
	ktx, err := parser.Parse(args)
	require.NoError(t, err)
	return &c, ktx
}

func TestParse_Decode(t *testing.T) {
	c, ktx := parse(t, "-vv", "decode", "--max-doc-length", "64", "--strict", "a.ndjson", "s3://b/k")
	require.True(t, strings.HasPrefix(ktx.Command(), "decode"), ktx.Command())
	require.Equal(t, 2, c.Verbose)
	require.Equal(t, 64, c.Decode.MaxDocLength)
	require.True(t, c.Decode.Strict)
	require.Equal(t, []string{"a.ndjson", "s3://b/k"}, c.Decode.Locations)
}

func TestParse_ServeDefaults(t *testing.T) {
	if _, ok := os.LookupEnv("PORT"); ok {
		t.Skip("PORT is set")
	}
	c, _ := parse(t, "serve")
	require.Equal(t, "127.0.0.1:8080", c.Serve.Listen)
	require.Equal(t, "10s", c.Serve.ShutdownTimeout.String())
}

func TestParse_ServePortEnv(t *testing.T) {
	t.Setenv("PORT", "0.0.0.0:9999")
	c, _ := parse(t, "serve")
	require.Equal(t, "0.0.0.0:9999", c.Serve.Listen)
}

func TestParse_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ldjson.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`insecure: true
decoder:
  maxDocLength: 128
  maxBytes: 4096.7
  hide: true
`), 0644))

	c, _ := parse(t, "--config", path, "decode", "--max-bytes", "10")
	require.True(t, c.Insecure)
	require.Equal(t, 128, c.Decode.MaxDocLength)
	require.True(t, c.Decode.Hide)
	// The command line wins over the file.
	require.Equal(t, int64(10), c.Decode.MaxBytes)
}

func TestParse_ConfigFileInvalidDecoder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ldjson.yaml")
	require.NoError(t, os.WriteFile(path, []byte("decoder:\n  maxBytes: lots\n"), 0644))

	var c CLI
	parser, err := kong.New(&c, kongOptions()...)
	require.NoError(t, err)
	_, err = parser.Parse([]string{"--config", path, "decode"})
	require.ErrorContains(t, err, "opts.maxBytes must be a number")
}

func TestLevelFor(t *testing.T) {
	require.Equal(t, slog.LevelWarn, levelFor(0))
	require.Equal(t, slog.LevelInfo, levelFor(1))
	require.Equal(t, slog.LevelDebug, levelFor(2))
	require.Equal(t, slog.LevelDebug, levelFor(5))
}
