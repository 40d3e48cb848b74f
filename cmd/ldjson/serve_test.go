package main

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ldjson-stream/ldjson/pkg/ingest"
)

func TestServe_IngestAndShutdown(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	var out bytes.Buffer
	c := &ServeCLI{MaxDocLength: 64, ShutdownTimeout: 5 * time.Second}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- c.serve(ctx, ln, ingest.WriterSink(&out), testLogger(t))
	}()

	base := "http://" + ln.Addr().String()
	res, err := http.Post(base+"/ingest", "application/x-ndjson", strings.NewReader("{\"a\":1}\nnope\n"))
	require.NoError(t, err)
	body, err := io.ReadAll(res.Body)
	res.Body.Close()
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.JSONEq(t, `{"documents":1,"errors":1,"bytes":13}`, string(body))

	res, err = http.Get(base + "/healthz")
	require.NoError(t, err)
	res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not shut down")
	}
	require.Equal(t, "{\"a\":1}\n", out.String())
}

func TestServe_Sink(t *testing.T) {
	c := &ServeCLI{}
	sink, closeSink, err := c.sink()
	require.NoError(t, err)
	require.NoError(t, closeSink())
	require.NotNil(t, sink)

	c.Output = t.TempDir() + "/out.ndjson"
	sink, closeSink, err = c.sink()
	require.NoError(t, err)
	require.NoError(t, sink.Accept(context.Background(), map[string]any{"a": 1}))
	require.NoError(t, closeSink())
}
