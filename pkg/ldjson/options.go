package ldjson

import (
	"encoding/json"
	"log/slog"
	"math"
	"reflect"

	gojson "github.com/goccy/go-json"
)

const (
	// Default size of the chunks a Reader pulls from its source (32KB)
	defaultReadSize = 32 * 1024
)

// Options are the limits and reporting switches of a Decoder.
// The zero value decodes without limits.
type Options struct {
	// MaxDocLength is the maximum length of one line in bytes, counting the
	// newline. Zero means unbounded.
	MaxDocLength int

	// MaxBytes is the maximum number of bytes the decoder accepts over its
	// lifetime, newlines included. Zero means unbounded.
	MaxBytes int64

	// Debug traces chunks and lines at debug level on the logger.
	Debug bool

	// Hide stops the decoder from logging the errors it reports.
	Hide bool
}

// config holds decoder configuration.
type config struct {
	Options
	logger    *slog.Logger
	unmarshal func([]byte, any) error
	readSize  int
}

// Option configures a Decoder, Reader or Stream.
type Option func(*config)

func newConfig(opts []Option) *config {
	cfg := &config{
		logger:    slog.Default(),
		unmarshal: strictUnmarshal,
		readSize:  defaultReadSize,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// MaxDocLength sets the maximum length of a single line, newline included.
// A longer line stops the decoder with ErrDocTooLong.
//
// Default: unbounded
func MaxDocLength(n int) Option {
	return func(c *config) {
		c.MaxDocLength = max(n, 0)
	}
}

// MaxBytes sets the maximum number of bytes the decoder accepts in total.
// Exceeding it stops the decoder with ErrMaxBytes.
//
// Default: unbounded
func MaxBytes(n int64) Option {
	return func(c *config) {
		c.MaxBytes = max(n, 0)
	}
}

// Debug enables tracing of every chunk and line at debug level.
func Debug() Option {
	return func(c *config) {
		c.Debug = true
	}
}

// Hide disables logging of reported errors. Error events are still delivered.
func Hide() Option {
	return func(c *config) {
		c.Hide = true
	}
}

// WithOptions applies a whole Options value, e.g. one from ParseOptions.
func WithOptions(o Options) Option {
	return func(c *config) {
		c.Options = o
		c.MaxDocLength = max(o.MaxDocLength, 0)
		c.MaxBytes = max(o.MaxBytes, 0)
	}
}

// WithLogger sets the logger used for error reporting and debug tracing.
//
// Default: slog.Default()
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithUnmarshal replaces the function that decodes each line.
//
// Default: strict RFC 8259 validation, then github.com/goccy/go-json Unmarshal
func WithUnmarshal(fn func([]byte, any) error) Option {
	return func(c *config) {
		if fn != nil {
			c.unmarshal = fn
		}
	}
}

// ReadSize sets how many bytes a Reader requests from its source per read.
//
// Default: 32KB
func ReadSize(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.readSize = n
		}
	}
}

// strictUnmarshal validates with encoding/json before decoding with
// goccy/go-json, which accepts some invalid input such as leading zeros.
func strictUnmarshal(data []byte, v any) error {
	if !json.Valid(data) {
		var discard any
		if err := json.Unmarshal(data, &discard); err != nil {
			return err
		}
	}
	return gojson.Unmarshal(data, v)
}

// ParseOptions builds Options from a loosely typed value such as a decoded
// config file section or a JSON object.
//
// v must be nil or a map[string]any. The keys maxDocLength and maxBytes take
// numbers, debug and hide take booleans; nil values count as absent and
// unknown keys are ignored. Fractional limits are rounded down and limits
// that are not positive mean unbounded.
func ParseOptions(v any) (Options, error) {
	var o Options
	if v == nil {
		return o, nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		return o, &ConfigError{}
	}

	if raw, ok := present(m, "maxDocLength"); ok {
		n, ok := toLimit(raw)
		if !ok {
			return Options{}, &ConfigError{Field: "maxDocLength", Want: "number"}
		}
		o.MaxDocLength = int(min(n, math.MaxInt))
	}
	if raw, ok := present(m, "maxBytes"); ok {
		n, ok := toLimit(raw)
		if !ok {
			return Options{}, &ConfigError{Field: "maxBytes", Want: "number"}
		}
		o.MaxBytes = n
	}
	if raw, ok := present(m, "debug"); ok {
		b, ok := raw.(bool)
		if !ok {
			return Options{}, &ConfigError{Field: "debug", Want: "boolean"}
		}
		o.Debug = b
	}
	if raw, ok := present(m, "hide"); ok {
		b, ok := raw.(bool)
		if !ok {
			return Options{}, &ConfigError{Field: "hide", Want: "boolean"}
		}
		o.Hide = b
	}
	return o, nil
}

func present(m map[string]any, key string) (any, bool) {
	v, ok := m[key]
	return v, ok && v != nil
}

// toLimit converts any numeric value to a limit. Non-positive, NaN and
// infinite values all mean unbounded (0).
func toLimit(v any) (int64, bool) {
	var f float64
	switch n := v.(type) {
	case json.Number:
		x, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = x
	default:
		rv := reflect.ValueOf(v)
		switch rv.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return max(rv.Int(), 0), true
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
			return int64(min(rv.Uint(), math.MaxInt64)), true
		case reflect.Float32, reflect.Float64:
			f = rv.Float()
		default:
			return 0, false
		}
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 1 {
		return 0, true
	}
	if f >= math.MaxInt64 {
		return math.MaxInt64, true
	}
	return int64(math.Floor(f)), true
}
