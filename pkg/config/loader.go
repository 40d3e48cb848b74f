// Package config loads ldjson configuration files.
// It supports YAML, JSON, and CUE file formats using CUE as the underlying parser.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/encoding/yaml"
)

// LoadValueFromReader loads configuration from an io.Reader and returns a CUE value.
// This parses the content as YAML (which is a superset of JSON).
// For .cue files, use LoadValue instead.
func LoadValueFromReader(r io.Reader) (cue.Value, error) {
	ctx := cuecontext.New()

	data, err := io.ReadAll(r)
	if err != nil {
		return cue.Value{}, fmt.Errorf("failed to read config: %w", err)
	}

	file, err := yaml.Extract("", data)
	if err != nil {
		return cue.Value{}, fmt.Errorf("failed to parse config: %w", err)
	}

	val := ctx.BuildFile(file)
	if err := val.Err(); err != nil {
		return cue.Value{}, fmt.Errorf("failed to build CUE value: %w", err)
	}

	return val, nil
}

// LoadValue loads configuration from a file and returns a CUE value.
//
// .cue files are loaded with load.Instances so that CUE modules and imports
// work. .json files are compiled directly; anything else is parsed as YAML.
func LoadValue(path string) (cue.Value, error) {
	ctx := cuecontext.New()

	if _, err := os.Stat(path); err != nil {
		return cue.Value{}, fmt.Errorf("failed to stat path: %w", err)
	}

	var val cue.Value
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".cue":
		absPath, err := filepath.Abs(path)
		if err != nil {
			return cue.Value{}, fmt.Errorf("failed to resolve path: %w", err)
		}

		instances := load.Instances([]string{absPath}, &load.Config{
			Dir:       filepath.Dir(absPath),
			DataFiles: true,
		})
		if len(instances) == 0 {
			return cue.Value{}, fmt.Errorf("no instances loaded from %s", path)
		}
		if err := instances[0].Err; err != nil {
			return cue.Value{}, fmt.Errorf("failed to load config: %w", err)
		}
		val = ctx.BuildInstance(instances[0])

	default:
		data, err := os.ReadFile(path)
		if err != nil {
			return cue.Value{}, fmt.Errorf("failed to read file: %w", err)
		}
		if ext == ".json" {
			val = ctx.CompileBytes(data)
			break
		}
		file, err := yaml.Extract(path, data)
		if err != nil {
			return cue.Value{}, fmt.Errorf("failed to parse YAML: %w", err)
		}
		val = ctx.BuildFile(file)
	}

	if err := val.Err(); err != nil {
		return cue.Value{}, fmt.Errorf("failed to build CUE value: %w", err)
	}
	return val, nil
}

// Plain converts a concrete CUE value into plain Go values: map[string]any
// for structs, []any for lists, and bool, int64, float64 or string scalars.
// It keeps numbers and strings apart, which option validation relies on.
func Plain(v cue.Value) (any, error) {
	switch v.Kind() {
	case cue.NullKind:
		return nil, nil
	case cue.BoolKind:
		return v.Bool()
	case cue.IntKind:
		return v.Int64()
	case cue.FloatKind, cue.NumberKind:
		return v.Float64()
	case cue.StringKind:
		return v.String()
	case cue.BytesKind:
		return v.Bytes()
	case cue.ListKind:
		it, err := v.List()
		if err != nil {
			return nil, err
		}
		var out []any
		for it.Next() {
			x, err := Plain(it.Value())
			if err != nil {
				return nil, err
			}
			out = append(out, x)
		}
		return out, nil
	case cue.StructKind:
		it, err := v.Fields()
		if err != nil {
			return nil, err
		}
		out := map[string]any{}
		for it.Next() {
			x, err := Plain(it.Value())
			if err != nil {
				return nil, err
			}
			out[it.Selector().Unquoted()] = x
		}
		return out, nil
	default:
		return nil, fmt.Errorf("config value at %s is not concrete", v.Path())
	}
}
