package ldjson

import (
	"bytes"
	"io"

	"github.com/goccy/go-json"
)

// Encoder writes line-delimited JSON documents to an io.Writer.
//
// The encoder writes are unbuffered. For network streams,
// wrap your io.Writer in bufio.Writer if buffering is desired.
type Encoder struct {
	w io.Writer
}

// NewEncoder creates a new encoder that writes to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

// Encode writes v as compact JSON followed by a newline.
//
// Example:
//
//	enc.Encode(map[string]any{"a": 1}) // writes {"a":1}\n
func (e *Encoder) Encode(v any) error {
	doc, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = e.w.Write(append(doc, '\n'))
	return err
}

// EncodeRaw writes an already encoded document followed by a newline.
// Surrounding whitespace is dropped; a document containing a newline is
// rejected with ErrNewline since it would read back as several lines.
func (e *Encoder) EncodeRaw(doc []byte) error {
	doc = bytes.Trim(doc, " \t\r\n")
	if bytes.IndexByte(doc, '\n') >= 0 {
		return ErrNewline
	}
	line := make([]byte, 0, len(doc)+1)
	line = append(line, doc...)
	line = append(line, '\n')
	_, err := e.w.Write(line)
	return err
}
