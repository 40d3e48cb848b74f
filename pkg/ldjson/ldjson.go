package ldjson

import (
	"io"
	"log/slog"
)

// Handler receives the events of a Decoder, in input order.
//
// HandleEnd is called exactly once, after the last document or error.
type Handler interface {
	HandleDocument(v any)
	HandleError(err error)
	HandleEnd()
}

// HandlerFuncs adapts plain functions to a Handler. Nil functions ignore their event.
type HandlerFuncs struct {
	Document func(v any)
	Error    func(err error)
	End      func()
}

func (h HandlerFuncs) HandleDocument(v any) {
	if h.Document != nil {
		h.Document(v)
	}
}

func (h HandlerFuncs) HandleError(err error) {
	if h.Error != nil {
		h.Error(err)
	}
}

func (h HandlerFuncs) HandleEnd() {
	if h.End != nil {
		h.End()
	}
}

// Decoder splits pushed chunks into lines and decodes each line as JSON.
//
// A Decoder has a single driver: Accept and Finish must not be called
// concurrently. It does no I/O of its own; see Reader and Stream for
// adapters over io.Reader.
type Decoder struct {
	h         Handler
	opts      Options
	logger    *slog.Logger
	unmarshal func([]byte, any) error

	buf       []byte // Unterminated input
	scanned   int    // Prefix of buf known to hold no newline
	received  int64  // Bytes accepted, counted before buffering
	consumed  int64  // Bytes of completed lines, terminators included
	lines     int64
	oversized bool // Current line outgrew MaxDocLength and is being discarded
	done      bool
}

// NewDecoder creates a decoder that reports to h.
//
// Example:
//
//	dec := ldjson.NewDecoder(h, ldjson.MaxDocLength(4096), ldjson.MaxBytes(1<<20))
func NewDecoder(h Handler, opts ...Option) *Decoder {
	return newDecoder(h, newConfig(opts))
}

func newDecoder(h Handler, cfg *config) *Decoder {
	if h == nil {
		h = HandlerFuncs{}
	}
	return &Decoder{
		h:         h,
		opts:      cfg.Options,
		logger:    cfg.logger,
		unmarshal: cfg.unmarshal,
	}
}

// Write implements io.Writer on top of Accept.
func (d *Decoder) Write(p []byte) (int, error) {
	if err := d.Accept(p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Close implements io.Closer on top of Finish.
func (d *Decoder) Close() error {
	return d.Finish()
}

// Options returns the limits the decoder enforces.
func (d *Decoder) Options() Options {
	return d.opts
}

// BytesReceived returns the number of bytes passed to Accept so far.
func (d *Decoder) BytesReceived() int64 {
	return d.received
}

// Lines returns the number of lines processed so far.
func (d *Decoder) Lines() int64 {
	return d.lines
}

// Terminated reports whether the decoder has finished or stopped on a fatal error.
func (d *Decoder) Terminated() bool {
	return d.done
}

var _ io.WriteCloser = (*Decoder)(nil)
