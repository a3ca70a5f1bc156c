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
	"path/filepath"
	"slices"

	"github.com/walteh/ocli/pkg/config"
	"gitlab.com/tozd/go/errors"
)

// 📦 Item is one unit of a task: the sources of one batch, where they go and
// the options the batch runs with.
type Item struct {
	Src     []string
	Dest    string
	Options config.Options
}

// 🔧 NormalizeItem resolves a task entry against the task options. The
// destination falls back from the entry to the task options to defaultDest.
// Entry options win over task options. A relative cwd on the entry is
// resolved against the task cwd.
func NormalizeItem(entry config.PathEntry, global config.Options, defaultDest string) (Item, error) {
	src := slices.DeleteFunc(slices.Clone(entry.Src), func(s string) bool { return s == "" })
	if len(src) == 0 {
		return Item{}, errors.Errorf("%w: entry has no source", ErrInvalidItem)
	}

	dest := entry.Dest
	if dest == "" {
		dest = config.Or(global.Dest, "")
	}
	if dest == "" {
		dest = defaultDest
	}

	opts := config.Merge(global.WithoutDest(), entry.Options.WithoutDest())
	if entry.Options.Cwd != nil && !filepath.IsAbs(*entry.Options.Cwd) {
		opts.Cwd = config.Ptr(filepath.Join(config.Or(global.Cwd, ""), *entry.Options.Cwd))
	}

	return Item{
		Src:     src,
		Dest:    dest,
		Options: opts,
	}, nil
}
