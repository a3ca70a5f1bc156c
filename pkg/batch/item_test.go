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

package batch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/ocli/pkg/config"
	"gitlab.com/tozd/go/errors"
)

// 🧪 TestNormalizeItem walks the dest and option fallbacks
func TestNormalizeItem(t *testing.T) {
	global := config.Options{
		Cwd:       config.Ptr("/work"),
		Dest:      config.Ptr("/work/dist"),
		Overwrite: config.Ptr(false),
		Dot:       config.Ptr(true),
	}

	tests := []struct {
		name     string
		entry    config.PathEntry
		global   config.Options
		fallback string
		want     Item
	}{
		{
			name:   "global_dest",
			entry:  config.PathEntry{Src: []string{"a.txt"}},
			global: global,
			want: Item{
				Src:     []string{"a.txt"},
				Dest:    "/work/dist",
				Options: config.Options{Cwd: config.Ptr("/work"), Overwrite: config.Ptr(false), Dot: config.Ptr(true)},
			},
		},
		{
			name:   "entry_overrides",
			entry:  config.PathEntry{Src: []string{"lib/**/*"}, Dest: "other", Options: config.Options{Overwrite: config.Ptr(true), Parents: &config.Parents{Enabled: true}}},
			global: global,
			want: Item{
				Src:  []string{"lib/**/*"},
				Dest: "other",
				Options: config.Options{
					Cwd:       config.Ptr("/work"),
					Overwrite: config.Ptr(true),
					Dot:       config.Ptr(true),
					Parents:   &config.Parents{Enabled: true},
				},
			},
		},
		{
			name:     "fallback_dest",
			entry:    config.PathEntry{Src: []string{"a", "b"}},
			global:   config.Options{Cwd: config.Ptr("/work")},
			fallback: "/default",
			want: Item{
				Src:     []string{"a", "b"},
				Dest:    "/default",
				Options: config.Options{Cwd: config.Ptr("/work")},
			},
		},
		{
			name:   "relative_entry_cwd",
			entry:  config.PathEntry{Src: []string{"a"}, Options: config.Options{Cwd: config.Ptr("sub")}},
			global: config.Options{Cwd: config.Ptr("/work")},
			want: Item{
				Src:     []string{"a"},
				Options: config.Options{Cwd: config.Ptr("/work/sub")},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeItem(tt.entry, tt.global, tt.fallback)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeItemWithoutSource(t *testing.T) {
	for _, src := range [][]string{nil, {}, {""}} {
		_, err := NormalizeItem(config.PathEntry{Src: src}, config.Options{}, "")
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrInvalidItem))
	}
}
