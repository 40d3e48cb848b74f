package ldjson

import (
	"fmt"
	"io"
	"iter"
)

// Result is the outcome of one line: a decoded Value, or an Err that is a
// *DecodeError (skip and carry on), a fatal limit error, or a read error.
type Result struct {
	Value any
	Err   error
}

// Fatal reports whether no further results follow this one.
func (r Result) Fatal() bool {
	return r.Err != nil && !IsDecodeError(r.Err)
}

// Reader pulls line-delimited JSON documents from an io.Reader.
//
// The reader does its own buffering; there is no need to wrap r in a
// bufio.Reader.
type Reader struct {
	r     io.Reader
	dec   *Decoder
	chunk []byte
	queue []Result
	head  int
	err   error // Sticky read error
}

// maxEmptyReads is how many (0, nil) reads in a row are tolerated.
const maxEmptyReads = 100

// NewReader creates a Reader over r.
//
// Example:
//
//	rd := ldjson.NewReader(bufio.NewReader(conn), ldjson.MaxBytes(1<<20))
func NewReader(r io.Reader, opts ...Option) *Reader {
	cfg := newConfig(opts)
	rd := &Reader{
		r:     r,
		chunk: make([]byte, cfg.readSize),
	}
	rd.dec = newDecoder(HandlerFuncs{
		Document: func(v any) { rd.queue = append(rd.queue, Result{Value: v}) },
		Error:    func(err error) { rd.queue = append(rd.queue, Result{Err: err}) },
	}, cfg)
	return rd
}

// Next returns the next document.
//
// A *DecodeError means one line was skipped; call Next again. A fatal error
// (see IsFatal) or a read error ends the stream. io.EOF is returned once all
// input has been consumed, and after a fatal error has been returned.
func (r *Reader) Next() (any, error) {
	empty := 0
	for {
		if r.head < len(r.queue) {
			res := r.queue[r.head]
			r.queue[r.head] = Result{}
			r.head++
			return res.Value, res.Err
		}
		r.queue = r.queue[:0]
		r.head = 0

		if r.dec.Terminated() {
			return nil, io.EOF
		}
		if r.err != nil {
			return nil, r.err
		}

		n, err := r.r.Read(r.chunk)
		if n > 0 {
			empty = 0
			// Fatal errors are delivered through the queue.
			_ = r.dec.Accept(r.chunk[:n])
		}
		switch {
		case err == io.EOF:
			if !r.dec.Terminated() {
				_ = r.dec.Finish()
			}
		case err != nil:
			r.err = fmt.Errorf("ldjson: read failed after %d bytes: %w", r.dec.BytesReceived(), err)
		case n == 0:
			empty++
			if empty >= maxEmptyReads {
				r.err = io.ErrNoProgress
			}
		}
	}
}

// All returns an iterator over the remaining results. Iteration stops after
// the first fatal or read error; decode errors are yielded and skipped.
func (r *Reader) All() iter.Seq2[any, error] {
	return func(yield func(any, error) bool) {
		for {
			v, err := r.Next()
			if err == io.EOF {
				return
			}
			if !yield(v, err) {
				return
			}
			if err != nil && !IsDecodeError(err) {
				return
			}
		}
	}
}

// BytesRead returns the number of bytes read from the source so far.
func (r *Reader) BytesRead() int64 {
	return r.dec.BytesReceived()
}

// Lines returns the number of lines processed so far.
func (r *Reader) Lines() int64 {
	return r.dec.Lines()
}
