package ingest

import (
	"context"
	"io"
	"sync"

	"github.com/ldjson-stream/ldjson/pkg/ldjson"
)

// Sink receives the documents of ingested requests. Accept may be called
// from several requests at once.
type Sink interface {
	Accept(ctx context.Context, v any) error
}

// SinkFunc adapts a function to a Sink.
type SinkFunc func(ctx context.Context, v any) error

func (f SinkFunc) Accept(ctx context.Context, v any) error {
	return f(ctx, v)
}

// Discard is a Sink that drops every document.
var Discard Sink = SinkFunc(func(context.Context, any) error { return nil })

type writerSink struct {
	mu  sync.Mutex
	enc *ldjson.Encoder
}

// WriterSink re-encodes accepted documents to w as compact NDJSON, one
// document per write.
func WriterSink(w io.Writer) Sink {
	return &writerSink{enc: ldjson.NewEncoder(w)}
}

func (s *writerSink) Accept(_ context.Context, v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enc.Encode(v)
}
