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
	"github.com/spf13/pflag"
	"github.com/walteh/ocli/pkg/batch"
	"github.com/walteh/ocli/pkg/config"
	"github.com/walteh/ocli/pkg/fsutil"
	"github.com/walteh/ocli/pkg/ocli"
)

// 🗑️ Remove deletes the file or directory at path recursively
func Remove(ctx context.Context, path string, _ config.Options) (bool, error) {
	if err := fsutil.RemoveAll(path); err != nil {
		return false, err
	}
	zerolog.Ctx(ctx).Debug().Str("path", path).Msg("removed")
	return true, nil
}

// RemoveMeta describes the remove command.
func RemoveMeta(cwd string) ocli.Meta {
	return ocli.Meta{
		Name:    "remove",
		Use:     "remove <path>...",
		Aliases: []string{"rm"},
		Short:   "Remove paths recursively",
		Example: "  o remove 'dist/**/*.map'\n  o rm build -f",
		Seed:    batch.TargetSeed(Remove),
		Batch: &batch.Settings{
			Verb:        "Removing",
			Done:        "Removed",
			UseGlobs:    true,
			Files:       true,
			Directories: true,
			Defaults:    config.Options{Cwd: config.Ptr(cwd)},
		},
		Flags: func(fs *pflag.FlagSet) {
			fs.BoolP("force", "f", false, "continue when nothing matches")
			fs.Bool("dereference", false, "follow symlinked directories")
			fs.Bool("dot", false, "match dot files")
		},
	}
}
