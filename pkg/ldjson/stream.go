package ldjson

import (
	"context"
	"io"
)

// Stream decodes r in a new goroutine and sends every result on the returned
// channel, which is closed when the input ends, after a fatal or read error,
// or when ctx is done.
//
// The channel is unbuffered: r is not read further until the previous result
// has been received. Cancelling ctx does not interrupt a Read that is already
// blocked; close r for that.
func Stream(ctx context.Context, r io.Reader, opts ...Option) <-chan Result {
	ch := make(chan Result)
	go func() {
		defer close(ch)
		rd := NewReader(r, opts...)
		for v, err := range rd.All() {
			select {
			case ch <- Result{Value: v, Err: err}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch
}
