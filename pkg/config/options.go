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
	"encoding/json"
	"fmt"
	"maps"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// 🌳 Parents controls whether the parent directory structure of a source is
// preserved under the destination. Levels limits how many of the deepest
// parent directories are kept, zero means all of them.
type Parents struct {
	Enabled bool
	Levels  int
}

// ⚙️ Options is the layered option record shared by every command. A nil
// field means "not set at this layer".
type Options struct {
	Cwd            *string
	Dest           *string
	Dot            *bool
	Dereference    *bool
	Force          *bool
	Parents        *Parents
	Overwrite      *bool
	ErrorOnExists  *bool
	Timestamps     *bool
	Indent         *string
	RemoveComments *bool
	Mode           *string
	Concurrency    *int

	// Extra holds command specific keys the record does not know about.
	Extra map[string]any
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}

// Or returns *p, or def when p is nil.
func Or[T any](p *T, def T) T {
	if p == nil {
		return def
	}
	return *p
}

// 🔀 Merge layers options, later layers win field by field.
// Extra maps are merged key by key.
func Merge(layers ...Options) Options {
	var out Options
	for _, l := range layers {
		out.Cwd = pick(out.Cwd, l.Cwd)
		out.Dest = pick(out.Dest, l.Dest)
		out.Dot = pick(out.Dot, l.Dot)
		out.Dereference = pick(out.Dereference, l.Dereference)
		out.Force = pick(out.Force, l.Force)
		out.Parents = pick(out.Parents, l.Parents)
		out.Overwrite = pick(out.Overwrite, l.Overwrite)
		out.ErrorOnExists = pick(out.ErrorOnExists, l.ErrorOnExists)
		out.Timestamps = pick(out.Timestamps, l.Timestamps)
		out.Indent = pick(out.Indent, l.Indent)
		out.RemoveComments = pick(out.RemoveComments, l.RemoveComments)
		out.Mode = pick(out.Mode, l.Mode)
		out.Concurrency = pick(out.Concurrency, l.Concurrency)

		if len(l.Extra) > 0 {
			if out.Extra == nil {
				out.Extra = make(map[string]any, len(l.Extra))
			}
			maps.Copy(out.Extra, l.Extra)
		}
	}
	return out
}

func pick[T any](cur, next *T) *T {
	if next != nil {
		v := *next
		return &v
	}
	return cur
}

// WithoutDest returns a copy with Dest unset.
func (o Options) WithoutDest() Options {
	o.Dest = nil
	return o
}

// 🔍 Get returns an extra option by name.
func (o Options) Get(key string) (any, bool) {
	v, ok := o.Extra[key]
	return v, ok
}

// GetString returns an extra option as a string.
func (o Options) GetString(key string) (string, bool) {
	v, ok := o.Extra[key].(string)
	return v, ok
}

// GetBool returns an extra option as a bool, def when unset.
func (o Options) GetBool(key string, def bool) (bool, error) {
	v, ok := o.Extra[key]
	if !ok || v == nil {
		return def, nil
	}
	b, ok := v.(bool)
	if !ok {
		return def, errors.Errorf("option %q: expected bool, got %T", key, v)
	}
	return b, nil
}

// GetStrings returns an extra option as a string list. A single string is
// treated as a one element list.
func (o Options) GetStrings(key string) ([]string, error) {
	v, ok := o.Extra[key]
	if !ok || v == nil {
		return nil, nil
	}
	out, err := stringList(v)
	if err != nil {
		return nil, errors.Errorf("option %q: %w", key, err)
	}
	return out, nil
}

// MarshalZerologObject implements zerolog.LogObjectMarshaler.
func (o Options) MarshalZerologObject(e *zerolog.Event) {
	if o.Cwd != nil {
		e.Str("cwd", *o.Cwd)
	}
	if o.Dest != nil {
		e.Str("dest", *o.Dest)
	}
	for _, f := range []struct {
		name string
		v    *bool
	}{
		{"dot", o.Dot},
		{"dereference", o.Dereference},
		{"force", o.Force},
		{"overwrite", o.Overwrite},
		{"errorOnExists", o.ErrorOnExists},
		{"timestamps", o.Timestamps},
		{"removeComments", o.RemoveComments},
	} {
		if f.v != nil {
			e.Bool(f.name, *f.v)
		}
	}
	if o.Parents != nil {
		e.Bool("parents", o.Parents.Enabled).Int("parentLevels", o.Parents.Levels)
	}
	if o.Indent != nil {
		e.Str("indent", *o.Indent)
	}
	if o.Mode != nil {
		e.Str("mode", *o.Mode)
	}
	if o.Concurrency != nil {
		e.Int("concurrency", *o.Concurrency)
	}
	if len(o.Extra) > 0 {
		e.Strs("extra", slices.Sorted(maps.Keys(o.Extra)))
	}
}

// 🏭 OptionsFromMap decodes a raw option mapping, as read from a config file or
// passed programmatically. Unknown keys land in Extra.
func OptionsFromMap(raw map[string]any) (Options, error) {
	var o Options
	var err error

	for key, v := range raw {
		switch key {
		case "cwd":
			o.Cwd, err = asString(key, v)
		case "dest":
			o.Dest, err = asString(key, v)
		case "dot":
			o.Dot, err = asBool(key, v)
		case "dereference":
			o.Dereference, err = asBool(key, v)
		case "force":
			o.Force, err = asBool(key, v)
		case "overwrite":
			o.Overwrite, err = asBool(key, v)
		case "errorOnExists":
			o.ErrorOnExists, err = asBool(key, v)
		case "timestamps":
			o.Timestamps, err = asBool(key, v)
		case "removeComments":
			o.RemoveComments, err = asBool(key, v)
		case "parents":
			o.Parents, err = asParents(key, v)
		case "indent":
			o.Indent, err = asIndent(key, v)
		case "mode":
			o.Mode, err = asMode(key, v)
		case "concurrency":
			var n int
			n, err = asInt(key, v)
			o.Concurrency = &n
		default:
			if o.Extra == nil {
				o.Extra = make(map[string]any)
			}
			o.Extra[key] = v
		}
		if err != nil {
			return Options{}, err
		}
	}

	return o, nil
}

func asString(key string, v any) (*string, error) {
	s, ok := v.(string)
	if !ok {
		return nil, errors.Errorf("option %q: expected string, got %T", key, v)
	}
	return &s, nil
}

func asBool(key string, v any) (*bool, error) {
	b, ok := v.(bool)
	if !ok {
		return nil, errors.Errorf("option %q: expected bool, got %T", key, v)
	}
	return &b, nil
}

func asInt(key string, v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case uint64:
		return int(n), nil
	case float64:
		if n != math.Trunc(n) {
			return 0, errors.Errorf("option %q: expected integer, got %v", key, n)
		}
		return int(n), nil
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, errors.Errorf("option %q: expected integer: %w", key, err)
		}
		return int(i), nil
	default:
		return 0, errors.Errorf("option %q: expected integer, got %T", key, v)
	}
}

func asParents(key string, v any) (*Parents, error) {
	if b, ok := v.(bool); ok {
		return &Parents{Enabled: b}, nil
	}
	n, err := asInt(key, v)
	if err != nil {
		return nil, errors.Errorf("option %q: expected bool or level count, got %T", key, v)
	}
	if n < 0 {
		return nil, errors.Errorf("option %q: level count cannot be negative", key)
	}
	return &Parents{Enabled: n > 0, Levels: n}, nil
}

// asIndent accepts a space count or a literal indent string.
func asIndent(key string, v any) (*string, error) {
	if s, ok := v.(string); ok {
		return &s, nil
	}
	n, err := asInt(key, v)
	if err != nil {
		return nil, errors.Errorf("option %q: expected string or space count, got %T", key, v)
	}
	s := strings.Repeat(" ", max(n, 0))
	return &s, nil
}

// asMode accepts an octal string ("755", "0755", "0o755") or a numeric
// permission, which is kept as its octal form.
func asMode(key string, v any) (*string, error) {
	if s, ok := v.(string); ok {
		if _, err := ParseMode(s); err != nil {
			return nil, errors.Errorf("option %q: %w", key, err)
		}
		return &s, nil
	}
	n, err := asInt(key, v)
	if err != nil {
		return nil, errors.Errorf("option %q: expected string or number, got %T", key, v)
	}
	if n < 0 || n > 0o7777 {
		return nil, errors.Errorf("option %q: mode %d out of range", key, n)
	}
	s := "0o" + strconv.FormatInt(int64(n), 8)
	return &s, nil
}

// ParseMode parses a permission string. Digits are read as octal, "755"
// being 0o755, with an optional "0" or "0o" prefix. Strings that are not
// valid octal fall back to decimal.
func ParseMode(s string) (uint32, error) {
	orig := s
	s = strings.TrimSpace(s)

	prefixed := false
	switch {
	case strings.HasPrefix(s, "0o"), strings.HasPrefix(s, "0O"):
		s, prefixed = s[2:], true
	case len(s) > 1 && strings.HasPrefix(s, "0"):
		s, prefixed = s[1:], true
	}

	n, err := strconv.ParseUint(s, 8, 32)
	if err != nil && !prefixed {
		n, err = strconv.ParseUint(s, 10, 32)
	}
	if err != nil {
		return 0, errors.Errorf("invalid mode %q: %w", orig, err)
	}
	if n > 0o7777 {
		return 0, errors.Errorf("invalid mode %q: out of range", orig)
	}
	return uint32(n), nil
}

// stringList accepts a string or a list of strings.
func stringList(v any) ([]string, error) {
	switch s := v.(type) {
	case string:
		return []string{s}, nil
	case []string:
		return slices.Clone(s), nil
	case []any:
		out := make([]string, 0, len(s))
		for i, item := range s {
			str, ok := item.(string)
			if !ok {
				return nil, errors.Errorf("element %d: expected string, got %T", i, item)
			}
			out = append(out, str)
		}
		return out, nil
	default:
		return nil, errors.Errorf("expected string or list of strings, got %s", typeName(v))
	}
}

func typeName(v any) string {
	if v == nil {
		return "null"
	}
	return fmt.Sprintf("%T", v)
}
