package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ldjson-stream/ldjson/pkg/ldjson"
	"github.com/ldjson-stream/ldjson/pkg/source"
	"github.com/ldjson-stream/ldjson/pkg/tlsconfig"
)

// DecodeCLI defines the CLI flags for the decode command.
type DecodeCLI struct {
	Locations    []string `arg:"" optional:"" help:"Files, http(s) URLs or s3://bucket/key objects; - reads stdin (default)"`
	MaxDocLength int      `help:"Maximum line length in bytes, newline included (0 = unbounded)" short:"l"`
	MaxBytes     int64    `help:"Maximum bytes to read from each location (0 = unbounded)" short:"b"`
	Debug        bool     `help:"Trace every chunk and line at debug level"`
	Hide         bool     `help:"Do not log lines that fail to decode"`
	Strict       bool     `help:"Exit non-zero if any line fails to decode"`
}

// summary counts what one or more locations produced.
type summary struct {
	Documents int64
	Errors    int64
	Bytes     int64
}

func (c *DecodeCLI) Run(logger *slog.Logger, tlsCfg tlsconfig.Config, level *slog.LevelVar) error {
	if c.Debug {
		level.Set(slog.LevelDebug)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	out := bufio.NewWriter(os.Stdout)
	total, err := c.decode(ctx, out, logger, source.WithTLS(tlsCfg))
	if ferr := out.Flush(); err == nil {
		err = ferr
	}
	if err != nil {
		return err
	}

	logger.Info("decode finished", "documents", total.Documents, "errors", total.Errors, "bytes", total.Bytes)
	if c.Strict && total.Errors > 0 {
		return fmt.Errorf("%d lines failed to decode", total.Errors)
	}
	return nil
}

func (c *DecodeCLI) options() ldjson.Options {
	return ldjson.Options{
		MaxDocLength: c.MaxDocLength,
		MaxBytes:     c.MaxBytes,
		Debug:        c.Debug,
		Hide:         c.Hide,
	}
}

// decode writes the documents of every location to w, in order. A fatal
// limit error or a read failure stops at that location.
func (c *DecodeCLI) decode(ctx context.Context, w io.Writer, logger *slog.Logger, srcOpts ...source.Option) (summary, error) {
	locations := c.Locations
	if len(locations) == 0 {
		locations = []string{source.Stdin}
	}

	var total summary
	enc := ldjson.NewEncoder(w)
	for _, loc := range locations {
		s, err := c.decodeLocation(ctx, loc, enc, logger, srcOpts)
		total.Documents += s.Documents
		total.Errors += s.Errors
		total.Bytes += s.Bytes
		if err != nil {
			return total, fmt.Errorf("%s: %w", loc, err)
		}
	}
	return total, nil
}

func (c *DecodeCLI) decodeLocation(ctx context.Context, loc string, enc *ldjson.Encoder, logger *slog.Logger, srcOpts []source.Option) (summary, error) {
	var s summary

	rc, err := source.Open(ctx, loc, append(srcOpts, source.WithLogger(logger))...)
	if err != nil {
		return s, err
	}
	defer rc.Close()

	log := logger.With("location", loc)
	rd := ldjson.NewReader(rc, ldjson.WithOptions(c.options()), ldjson.WithLogger(log))
	for v, err := range rd.All() {
		if ctx.Err() != nil {
			return s, ctx.Err()
		}
		if err != nil {
			if ldjson.IsDecodeError(err) {
				s.Errors++
				continue
			}
			s.Bytes = rd.BytesRead()
			return s, err
		}
		if err := enc.Encode(v); err != nil {
			return s, fmt.Errorf("failed to write document: %w", err)
		}
		s.Documents++
	}
	s.Bytes = rd.BytesRead()

	log.Info("decoded", "documents", s.Documents, "errors", s.Errors, "bytes", s.Bytes, "lines", rd.Lines())
	return s, nil
}
