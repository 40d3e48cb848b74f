package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ldjson-stream/ldjson/pkg/ingest"
	"github.com/ldjson-stream/ldjson/pkg/ldjson"
)

// ServeCLI defines the CLI flags for the serve command.
type ServeCLI struct {
	Listen          string        `help:"Address to listen on" short:"l" env:"PORT" default:"127.0.0.1:8080"`
	MaxDocLength    int           `help:"Maximum line length in bytes, newline included (0 = unbounded)"`
	MaxBytes        int64         `help:"Maximum bytes per request (0 = unbounded)"`
	Debug           bool          `help:"Trace every chunk and line at debug level"`
	Hide            bool          `help:"Do not log lines that fail to decode"`
	Output          string        `help:"Append accepted documents to this file as NDJSON; - for stdout (default: discard)" short:"o"`
	ShutdownTimeout time.Duration `help:"How long to wait for in-flight requests on shutdown" default:"10s"`
}

func (c *ServeCLI) Run(logger *slog.Logger, level *slog.LevelVar) error {
	if c.Debug {
		level.Set(slog.LevelDebug)
	}

	sink, closeSink, err := c.sink()
	if err != nil {
		return err
	}
	defer closeSink()

	ln, err := net.Listen("tcp", c.Listen)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", c.Listen, err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return c.serve(ctx, ln, sink, logger)
}

func (c *ServeCLI) sink() (ingest.Sink, func() error, error) {
	noop := func() error { return nil }
	switch c.Output {
	case "":
		return ingest.Discard, noop, nil
	case "-":
		return ingest.WriterSink(os.Stdout), noop, nil
	}
	f, err := os.OpenFile(c.Output, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open output: %w", err)
	}
	return ingest.WriterSink(f), f.Close, nil
}

// serve runs the ingestion server on ln until ctx is done, then shuts it down
// gracefully.
func (c *ServeCLI) serve(ctx context.Context, ln net.Listener, sink ingest.Sink, logger *slog.Logger) error {
	h := ingest.New(ldjson.Options{
		MaxDocLength: c.MaxDocLength,
		MaxBytes:     c.MaxBytes,
		Debug:        c.Debug,
		Hide:         c.Hide,
	}, logger, sink)

	server := &http.Server{
		Handler:           ingest.Routes(h),
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", "address", ln.Addr().String())
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), c.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
