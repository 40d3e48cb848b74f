package ldjson

import (
	"bytes"
	"log/slog"
)

// Accept feeds the next chunk of input.
//
// Every complete line in the chunk is decoded and reported before Accept
// returns. Undecodable lines are reported to the handler and do not make
// Accept fail. A fatal error is reported to the handler, followed by the end
// event, and also returned. Calling Accept after termination returns
// ErrTerminated.
func (d *Decoder) Accept(chunk []byte) error {
	if d.done {
		return ErrTerminated
	}

	// Count before splitting so that terminators and partial lines are included.
	d.received += int64(len(chunk))
	if d.opts.Debug {
		d.logger.Debug("chunk received", slog.Int("len", len(chunk)), slog.Int64("received", d.received))
	}
	if d.opts.MaxBytes > 0 && d.received > d.opts.MaxBytes {
		return d.fail(ErrMaxBytes)
	}

	d.buf = append(d.buf, chunk...)
	start := 0
	for {
		i := bytes.IndexByte(d.buf[d.scanned:], '\n')
		if i < 0 {
			break
		}
		end := d.scanned + i
		line := d.buf[start:end]
		offset := d.consumed
		d.consumed += int64(end - start + 1)
		start = end + 1
		d.scanned = start
		if err := d.processLine(line, offset); err != nil {
			return err
		}
	}

	// Keep only the unterminated tail.
	if start > 0 {
		n := copy(d.buf, d.buf[start:])
		d.buf = d.buf[:n]
	}
	d.scanned = len(d.buf)

	// An over-long tail is dropped as it arrives. The line still fails with
	// ErrDocTooLong once its newline or Finish comes, so a MaxBytes overrun
	// in between is reported first.
	if d.opts.MaxDocLength > 0 && len(d.buf) > d.opts.MaxDocLength {
		if !d.oversized && d.opts.Debug {
			d.logger.Debug("discarding over-long line", slog.Int64("line", d.lines+1), slog.Int("buffered", len(d.buf)))
		}
		d.oversized = true
	}
	if d.oversized {
		d.buf = d.buf[:0]
		d.scanned = 0
	}
	return nil
}

// Finish signals the end of input.
//
// Buffered input without a final newline is decoded as the last line. Input
// that ended without ever completing a line is decoded once as well, so an
// empty stream reports ErrUnexpectedEnd instead of passing silently. Finish
// then reports the end event. It returns a fatal error if the last line
// exceeded MaxDocLength, and ErrTerminated if the decoder was already
// terminated.
func (d *Decoder) Finish() error {
	if d.done {
		return ErrTerminated
	}
	if len(d.buf) > 0 || d.oversized || d.lines == 0 {
		line := d.buf
		offset := d.consumed
		d.consumed += int64(len(line))
		if err := d.processLine(line, offset); err != nil {
			return err
		}
	}
	if d.opts.Debug {
		d.logger.Debug("input finished", slog.Int64("lines", d.lines), slog.Int64("received", d.received))
	}
	d.buf = nil
	d.scanned = 0
	d.end()
	return nil
}

// processLine enforces MaxDocLength and decodes one line. It only returns
// fatal errors.
func (d *Decoder) processLine(line []byte, offset int64) error {
	d.lines++
	if n := len(line); n > 0 && line[n-1] == '\r' {
		line = line[:n-1]
	}
	if d.opts.Debug {
		d.logger.Debug("line complete", slog.Int64("line", d.lines), slog.Int64("offset", offset), slog.Int("len", len(line)))
	}

	// The limit counts the newline, which is not part of line.
	if d.oversized || (d.opts.MaxDocLength > 0 && len(line)+1 > d.opts.MaxDocLength) {
		return d.fail(ErrDocTooLong)
	}

	v, err := d.decode(line)
	if err != nil {
		derr := &DecodeError{Line: d.lines, Offset: offset, Err: err}
		if !d.opts.Hide {
			d.logger.Warn("skipping undecodable line",
				slog.Int64("line", derr.Line),
				slog.Int64("offset", derr.Offset),
				slog.String("error", err.Error()))
		}
		d.h.HandleError(derr)
		return nil
	}
	d.h.HandleDocument(v)
	return nil
}

func (d *Decoder) decode(line []byte) (any, error) {
	if len(bytes.Trim(line, " \t\r\n")) == 0 {
		return nil, ErrUnexpectedEnd
	}
	var v any
	if err := d.unmarshal(line, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// fail terminates the decoder on a fatal error and discards buffered input.
func (d *Decoder) fail(err error) error {
	d.buf = nil
	d.scanned = 0
	if !d.opts.Hide {
		d.logger.Error("decoder stopped",
			slog.String("error", err.Error()),
			slog.Int64("received", d.received),
			slog.Int64("lines", d.lines))
	}
	d.h.HandleError(err)
	d.end()
	return err
}

func (d *Decoder) end() {
	d.done = true
	d.h.HandleEnd()
}
