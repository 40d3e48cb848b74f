// Package ldjson decodes streams of line-delimited JSON documents.
//
// Each document is one JSON value terminated by a newline. A carriage return
// directly before the newline is part of the terminator. The format is:
//
//	<json>\n
//	<json>\r\n
//
// A trailing document without a final newline is decoded when the input ends.
//
// # Basic Usage
//
// Push style, feeding chunks as they arrive:
//
//	dec := ldjson.NewDecoder(ldjson.HandlerFuncs{
//		Document: func(v any) { fmt.Println(v) },
//		Error:    func(err error) { log.Println(err) },
//	}, ldjson.MaxBytes(1<<20))
//	dec.Accept(chunk)
//	dec.Finish()
//
// Pull style, wrapping an io.Reader:
//
//	r := ldjson.NewReader(conn, ldjson.MaxDocLength(64*1024))
//	for v, err := range r.All() {
//		...
//	}
//
// Channel style, for pipelines:
//
//	for res := range ldjson.Stream(ctx, conn) {
//		...
//	}
//
// # Errors
//
// A line that is not valid JSON produces a *DecodeError and decoding continues
// with the next line, so noise between documents is skipped. Two conditions
// are fatal and stop the decoder immediately: more than MaxBytes bytes of
// input (ErrMaxBytes) and a line longer than MaxDocLength including its
// newline (ErrDocTooLong). Use IsFatal to tell them apart.
//
// # Security
//
// Without limits the decoder buffers an unterminated line for as long as input
// keeps arriving. With MaxDocLength set, bytes of a line that has outgrown it
// are dropped until its newline, where ErrDocTooLong is reported. Set
// MaxDocLength and MaxBytes when reading from sockets or pipes.
package ldjson
