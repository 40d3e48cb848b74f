package config

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"cuelang.org/go/cue"
	"github.com/alecthomas/kong"

	"github.com/ldjson-stream/ldjson/pkg/ldjson"
)

// decoderKeys maps decoder flags to their keys in the "decoder" section.
var decoderKeys = map[string]string{
	"max-doc-length": "maxDocLength",
	"max-bytes":      "maxBytes",
	"debug":          "debug",
	"hide":           "hide",
}

// DecoderOptions validates the "decoder" section of a config value with
// ldjson.ParseOptions. A missing section yields zero Options.
//
//	decoder:
//	  maxDocLength: 65536
//	  maxBytes: 1073741824
//	  hide: true
func DecoderOptions(val cue.Value) (ldjson.Options, error) {
	sec := val.LookupPath(cue.ParsePath("decoder"))
	if !sec.Exists() {
		return ldjson.Options{}, nil
	}
	raw, err := Plain(sec)
	if err != nil {
		return ldjson.Options{}, err
	}
	opts, err := ldjson.ParseOptions(raw)
	if err != nil {
		return ldjson.Options{}, fmt.Errorf("decoder: %w", err)
	}
	return opts, nil
}

// Resolver resolves kong flags from a config value.
//
// A flag --foo-bar is looked up as the top-level key foo_bar. Decoder flags
// (--max-doc-length, --max-bytes, --debug, --hide) come from the validated
// "decoder" section instead.
type Resolver struct {
	val     cue.Value
	decoder ldjson.Options
}

var _ kong.Resolver = (*Resolver)(nil)

// NewResolver validates val and returns a Resolver over it.
func NewResolver(val cue.Value) (*Resolver, error) {
	opts, err := DecoderOptions(val)
	if err != nil {
		return nil, err
	}
	return &Resolver{val: val, decoder: opts}, nil
}

// Loader is a kong.ConfigurationLoader. Files opened by kong keep their
// extension, so .cue and .json configs are loaded with LoadValue; other
// readers are parsed as YAML.
func Loader(r io.Reader) (kong.Resolver, error) {
	var (
		val cue.Value
		err error
	)
	if f, ok := r.(*os.File); ok && f.Name() != os.Stdin.Name() {
		val, err = LoadValue(f.Name())
	} else {
		val, err = LoadValueFromReader(r)
	}
	if err != nil {
		return nil, err
	}
	return NewResolver(val)
}

func (r *Resolver) Validate(app *kong.Application) error {
	return nil
}

func (r *Resolver) Resolve(kctx *kong.Context, parent *kong.Path, flag *kong.Flag) (any, error) {
	if key, ok := decoderKeys[flag.Name]; ok {
		if !r.val.LookupPath(cue.MakePath(cue.Str("decoder"), cue.Str(key))).Exists() {
			return nil, nil
		}
		switch key {
		case "maxDocLength":
			return strconv.Itoa(r.decoder.MaxDocLength), nil
		case "maxBytes":
			return strconv.FormatInt(r.decoder.MaxBytes, 10), nil
		case "debug":
			return strconv.FormatBool(r.decoder.Debug), nil
		default:
			return strconv.FormatBool(r.decoder.Hide), nil
		}
	}

	v := r.val.LookupPath(cue.MakePath(cue.Str(strings.ReplaceAll(flag.Name, "-", "_"))))
	if !v.Exists() {
		return nil, nil
	}
	x, err := Plain(v)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", flag.Name, err)
	}
	switch x := x.(type) {
	case nil:
		return nil, nil
	case []any:
		parts := make([]string, len(x))
		for i, p := range x {
			parts[i] = fmt.Sprint(p)
		}
		return strings.Join(parts, ","), nil
	case map[string]any:
		return nil, fmt.Errorf("config %s: expected a scalar or list, got an object", flag.Name)
	default:
		return fmt.Sprint(x), nil
	}
}
