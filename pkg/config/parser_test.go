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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetParser(t *testing.T) {
	tests := []struct {
		filename string
		want     Parser
	}{
		{filename: "task.json", want: &JSONParser{}},
		{filename: "task.JSONC", want: &JSONParser{}},
		{filename: "task.yaml", want: &YAMLParser{}},
		{filename: "dir/task.yml", want: &YAMLParser{}},
		{filename: "task.toml", want: &TOMLParser{}},
		{filename: "task.hcl", want: &HCLParser{}},
		{filename: "task.txt", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			got := GetParser(tt.filename)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			assert.IsType(t, tt.want, got)
		})
	}
}

func TestStripJSONComments(t *testing.T) {
	in := []byte(`{
	// line comment
	"a": 1, /* block */
	"b": [1, 2,],
}`)

	out, err := StripJSONComments(in)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a": 1, "b": [1, 2]}`, string(out))
	assert.NotContains(t, string(out), "//")

	_, err = StripJSONComments([]byte(`{"a": }`))
	require.Error(t, err)
}

func TestHCLParserNested(t *testing.T) {
	raw, err := (&HCLParser{}).Parse(testContext(t), []byte(`
src  = "package.json"
options = {
  set   = { "scripts.build" = "go build" }
  sort  = true
}
`))
	require.NoError(t, err)

	assert.Equal(t, "package.json", raw["src"])
	opts, ok := raw["options"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, opts["sort"])
	assert.Equal(t, map[string]any{"scripts.build": "go build"}, opts["set"])
}
