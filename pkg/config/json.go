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
	"encoding/json"

	"github.com/tailscale/hujson"
	"gitlab.com/tozd/go/errors"
)

func init() {
	Register(&JSONParser{})
}

// 🔧 JSONParser parses JSON documents. Comments and trailing commas are
// accepted and stripped before decoding.
type JSONParser struct{}

// 🔍 CanParse checks if this parser can handle the given file
func (p *JSONParser) CanParse(filename string) bool {
	return hasExt(filename, ".json", ".jsonc")
}

// 📝 Parse parses the config from JSON
func (p *JSONParser) Parse(ctx context.Context, data []byte) (map[string]any, error) {
	std, err := StripJSONComments(data)
	if err != nil {
		return nil, err
	}

	var raw map[string]any
	if err := json.Unmarshal(std, &raw); err != nil {
		return nil, errors.Errorf("parsing JSON: %w", err)
	}
	return raw, nil
}

// ✂️ StripJSONComments converts JSON with comments and trailing commas into
// standard JSON, keeping the original layout otherwise.
func StripJSONComments(data []byte) ([]byte, error) {
	v, err := hujson.Parse(data)
	if err != nil {
		return nil, errors.Errorf("parsing JSON: %w", err)
	}
	v.Standardize()
	return v.Pack(), nil
}
