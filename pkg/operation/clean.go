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
	"context"

	"github.com/rs/zerolog"
	"github.com/walteh/ocli/pkg/batch"
	"github.com/walteh/ocli/pkg/config"
	"github.com/walteh/ocli/pkg/fsutil"
	"github.com/walteh/ocli/pkg/ocli"
)

// 🧹 Clean empties the directory at path, creating it when missing. The
// directory itself is kept.
func Clean(ctx context.Context, path string, _ config.Options) (bool, error) {
	if err := fsutil.EmptyDir(path); err != nil {
		return false, err
	}
	zerolog.Ctx(ctx).Debug().Str("path", path).Msg("cleaned directory")
	return true, nil
}

// CleanMeta describes the clean command.
func CleanMeta(cwd string) ocli.Meta {
	return ocli.Meta{
		Name:    "clean",
		Use:     "clean <path>...",
		Aliases: []string{"cl"},
		Short:   "Clean (empty) a directory",
		Example: "  o clean path/to/dir",
		Seed:    batch.TargetSeed(Clean),
		Batch: &batch.Settings{
			Verb:        "Cleaning",
			Done:        "Cleaned",
			Directories: true,
			Defaults:    config.Options{Cwd: config.Ptr(cwd)},
		},
	}
}
