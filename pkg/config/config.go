// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"context"
	"fmt"
	"os"
	"slices"

	"github.com/rs/zerolog"
	"github.com/walteh/ocli/pkg/glob"
	"gitlab.com/tozd/go/errors"
)

// ErrConfigRead is returned when a config file is missing, unreadable or invalid.
var ErrConfigRead = errors.Base("cannot read config")

// ReadError reports a config file that could not be used. It matches
// ErrConfigRead and unwraps to the cause.
type ReadError struct {
	Path string
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("%s %q: %v", ErrConfigRead, e.Path, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrConfigRead) match.
func (e *ReadError) Is(target error) bool { return target == ErrConfigRead }

// 📄 SingleConfig drives one command invocation
type SingleConfig struct {
	Src     []string
	Dest    string
	Options Options
}

// 📄 BatchConfig drives a task: one batch per path entry
type BatchConfig struct {
	Options Options
	Paths   []PathEntry
}

// 📦 PathEntry is one decoded "paths" element. Src is always a list, comma
// separated strings are split. Dest is empty when the entry names none.
type PathEntry struct {
	Src     []string
	Dest    string
	Options Options
}

// 📖 Read loads a config file into its raw mapping, picking the parser by
// file extension.
func Read(ctx context.Context, path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ReadError{Path: path, Err: errors.Errorf("reading file: %w", err)}
	}

	parser := GetParser(path)
	if parser == nil {
		return nil, &ReadError{Path: path, Err: errors.New("no parser for file extension")}
	}

	raw, err := parser.Parse(ctx, data)
	if err != nil {
		return nil, &ReadError{Path: path, Err: err}
	}

	zerolog.Ctx(ctx).Debug().Str("path", path).Int("keys", len(raw)).Msg("read config")
	return raw, nil
}

// 📖 ReadSingleConfig reads a {src, dest, options} file. The returned options
// are defaults overlaid with the file options.
func ReadSingleConfig(ctx context.Context, path string, defaults Options) (*SingleConfig, error) {
	raw, err := Read(ctx, path)
	if err != nil {
		return nil, err
	}

	if err := checkKeys(raw, "src", "dest", "options"); err != nil {
		return nil, &ReadError{Path: path, Err: err}
	}

	cfg := &SingleConfig{}

	if v, ok := raw["src"]; ok && v != nil {
		if cfg.Src, err = sourceList(v); err != nil {
			return nil, &ReadError{Path: path, Err: errors.Errorf("src: %w", err)}
		}
	}

	if v, ok := raw["dest"]; ok && v != nil {
		dest, ok := v.(string)
		if !ok {
			return nil, &ReadError{Path: path, Err: errors.Errorf("dest: expected string, got %T", v)}
		}
		cfg.Dest = dest
	}

	fileOpts, err := optionsField(raw)
	if err != nil {
		return nil, &ReadError{Path: path, Err: err}
	}
	cfg.Options = Merge(defaults, fileOpts)

	return cfg, nil
}

// 📖 ReadBatchConfig reads an {options, paths} task file. The returned options
// are defaults overlaid with the file options. Paths is empty when absent.
func ReadBatchConfig(ctx context.Context, path string, defaults Options) (*BatchConfig, error) {
	raw, err := Read(ctx, path)
	if err != nil {
		return nil, err
	}

	if err := checkKeys(raw, "options", "paths"); err != nil {
		return nil, &ReadError{Path: path, Err: err}
	}

	fileOpts, err := optionsField(raw)
	if err != nil {
		return nil, &ReadError{Path: path, Err: err}
	}

	cfg := &BatchConfig{
		Options: Merge(defaults, fileOpts),
		Paths:   []PathEntry{},
	}

	rawPaths, ok := raw["paths"]
	if !ok || rawPaths == nil {
		return cfg, nil
	}

	list, ok := rawPaths.([]any)
	if !ok {
		return nil, &ReadError{Path: path, Err: errors.Errorf("paths: expected list, got %s", typeName(rawPaths))}
	}

	for i, v := range list {
		entry, err := ParsePathEntry(v)
		if err != nil {
			return nil, &ReadError{Path: path, Err: errors.Errorf("paths[%d]: %w", i, err)}
		}
		cfg.Paths = append(cfg.Paths, entry)
	}

	return cfg, nil
}

// 📦 ParsePathEntry decodes a "paths" element: a pattern string, a list of
// patterns, or an object with src, an optional dest and inline options.
func ParsePathEntry(v any) (PathEntry, error) {
	obj, isObj := v.(map[string]any)
	if !isObj {
		src, err := sourceList(v)
		if err != nil {
			return PathEntry{}, err
		}
		if len(src) == 0 {
			return PathEntry{}, errors.New("no source patterns")
		}
		return PathEntry{Src: src}, nil
	}

	rawSrc, ok := obj["src"]
	if !ok || rawSrc == nil {
		return PathEntry{}, errors.New("missing src")
	}
	src, err := sourceList(rawSrc)
	if err != nil {
		return PathEntry{}, errors.Errorf("src: %w", err)
	}
	if len(src) == 0 {
		return PathEntry{}, errors.New("src: no source patterns")
	}

	entry := PathEntry{Src: src}

	rest := make(map[string]any, len(obj))
	for k, val := range obj {
		switch k {
		case "src":
		case "dest":
			if val == nil {
				continue
			}
			dest, ok := val.(string)
			if !ok {
				return PathEntry{}, errors.Errorf("dest: expected string, got %T", val)
			}
			entry.Dest = dest
		default:
			rest[k] = val
		}
	}

	if entry.Options, err = OptionsFromMap(rest); err != nil {
		return PathEntry{}, err
	}

	return entry, nil
}

// sourceList normalizes a src value into a pattern list.
func sourceList(v any) ([]string, error) {
	if s, ok := v.(string); ok {
		return glob.SplitPatterns(s), nil
	}
	list, err := stringList(v)
	if err != nil {
		return nil, err
	}
	return slices.DeleteFunc(list, func(s string) bool { return s == "" }), nil
}

func optionsField(raw map[string]any) (Options, error) {
	v, ok := raw["options"]
	if !ok || v == nil {
		return Options{}, nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		return Options{}, errors.Errorf("options: expected object, got %s", typeName(v))
	}
	opts, err := OptionsFromMap(m)
	if err != nil {
		return Options{}, errors.Errorf("options: %w", err)
	}
	return opts, nil
}

func checkKeys(raw map[string]any, allowed ...string) error {
	for k := range raw {
		if !slices.Contains(allowed, k) {
			return errors.Errorf("unknown key %q", k)
		}
	}
	return nil
}
