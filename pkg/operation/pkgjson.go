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

package operation

import (
	"encoding/json"
	"regexp"
	"slices"
	"strings"

	"github.com/tailscale/hujson"
	"gitlab.com/tozd/go/errors"
)

// ErrInvalidPackage is returned when a package.json is not a JSON object.
var ErrInvalidPackage = errors.Base("not a valid package.json")

var (
	// keys snapped to the top by smart sorting, in this order
	smartTop = []string{
		"private", "name", "version", "description", "repository", "homepage", "bugs",
		"license", "author", "main", "files", "directories", "bin", "scripts", "engines",
	}
	// keys snapped to the bottom by smart sorting, in this order
	smartBottom = []string{
		"types", "typings", "keywords", "dependencies", "peerDependencies", "optionalDependencies",
		"bundledDependencies", "bundleDependencies", "devDependencies",
	}

	pairSeparator = regexp.MustCompile(`\s*[:=]\s*`)
)

// 📦 packageJSON is a package.json document that keeps its key order
type packageJSON struct {
	root hujson.Value
	obj  *hujson.Object
}

func parsePackageJSON(data []byte) (*packageJSON, error) {
	v, err := hujson.Parse(data)
	if err != nil {
		return nil, errors.Errorf("%w: %v", ErrInvalidPackage, err)
	}
	obj, ok := v.Value.(*hujson.Object)
	if !ok {
		return nil, errors.WithStack(ErrInvalidPackage)
	}
	return &packageJSON{root: v, obj: obj}, nil
}

func memberName(m hujson.ObjectMember) string {
	lit, _ := m.Name.Value.(hujson.Literal)
	return lit.String()
}

func memberIndex(obj *hujson.Object, name string) int {
	return slices.IndexFunc(obj.Members, func(m hujson.ObjectMember) bool {
		return memberName(m) == name
	})
}

func newMember(name string, v hujson.Value) hujson.ObjectMember {
	return hujson.ObjectMember{
		Name:  hujson.Value{Value: hujson.String(name)},
		Value: v,
	}
}

// Has reports whether the top level key exists.
func (p *packageJSON) Has(key string) bool {
	return memberIndex(p.obj, key) >= 0
}

// 🔧 Set assigns v at the dot separated notation, creating intermediate
// objects. Paths running through a non-object value are left untouched.
func (p *packageJSON) Set(notation string, v hujson.Value, overwrite bool) {
	obj := p.obj
	keys := strings.Split(notation, ".")
	for i, key := range keys {
		last := i == len(keys)-1
		idx := memberIndex(obj, key)

		if idx >= 0 {
			if last {
				if overwrite {
					obj.Members[idx].Value = v
				}
				return
			}
			next, ok := obj.Members[idx].Value.Value.(*hujson.Object)
			if !ok {
				return
			}
			obj = next
			continue
		}

		if last {
			obj.Members = append(obj.Members, newMember(key, v))
			return
		}
		next := &hujson.Object{}
		obj.Members = append(obj.Members, newMember(key, hujson.Value{Value: next}))
		obj = next
	}
}

// 🗑️ Remove deletes the dot separated notation and reports whether it existed
func (p *packageJSON) Remove(notation string) bool {
	obj := p.obj
	keys := strings.Split(notation, ".")
	for _, key := range keys[:len(keys)-1] {
		idx := memberIndex(obj, key)
		if idx < 0 {
			return false
		}
		next, ok := obj.Members[idx].Value.Value.(*hujson.Object)
		if !ok {
			return false
		}
		obj = next
	}

	idx := memberIndex(obj, keys[len(keys)-1])
	if idx < 0 {
		return false
	}
	obj.Members = slices.Delete(obj.Members, idx, idx+1)
	return true
}

// 🔤 SortKeys orders the top level keys: top keys first in the given order,
// the rest alphabetically, bottom keys last in the given order.
func (p *packageJSON) SortKeys(top, bottom []string) {
	rank := func(name string) (int, int) {
		if i := slices.Index(top, name); i >= 0 {
			return 0, i
		}
		if i := slices.Index(bottom, name); i >= 0 {
			return 2, i
		}
		return 1, 0
	}

	slices.SortStableFunc(p.obj.Members, func(a, b hujson.ObjectMember) int {
		an, bn := memberName(a), memberName(b)
		ag, ai := rank(an)
		bg, bi := rank(bn)
		if ag != bg {
			return ag - bg
		}
		if ag != 1 {
			return ai - bi
		}
		return strings.Compare(an, bn)
	})
}

// Marshal renders the document, indented unless indent is empty.
func (p *packageJSON) Marshal(indent string) ([]byte, error) {
	return FormatJSON(p.root.Pack(), indent, true)
}

// parseValue reads a "set" value: valid JSON is used as is, anything else is
// taken as a string and an empty value becomes null.
func parseValue(s string) hujson.Value {
	if s == "" {
		return hujson.Value{Value: hujson.Literal("null")}
	}
	if json.Valid([]byte(s)) {
		if v, err := hujson.Parse([]byte(s)); err == nil {
			return v
		}
	}
	return hujson.Value{Value: hujson.String(s)}
}

// encodeValue turns a decoded config value into a JSON value.
func encodeValue(v any) (hujson.Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return hujson.Value{}, errors.Errorf("encoding value: %w", err)
	}
	return hujson.Parse(b)
}

// splitPair splits "key=value" or "key:value" at the first separator.
func splitPair(s string) (string, string) {
	s = strings.TrimSpace(s)
	loc := pairSeparator.FindStringIndex(s)
	if loc == nil {
		return s, ""
	}
	return s[:loc[0]], s[loc[1]:]
}
