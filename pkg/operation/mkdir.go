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
	"io/fs"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/walteh/ocli/pkg/batch"
	"github.com/walteh/ocli/pkg/config"
	"github.com/walteh/ocli/pkg/fsutil"
	"github.com/walteh/ocli/pkg/ocli"
	"gitlab.com/tozd/go/errors"
)

const defaultDirMode fs.FileMode = 0o755

// 📁 Mkdir creates the directory at path and any missing parents. An
// existing directory is not an error.
func Mkdir(ctx context.Context, path string, opts config.Options) (bool, error) {
	mode := defaultDirMode
	if m := config.Or(opts.Mode, ""); m != "" {
		parsed, err := config.ParseMode(m)
		if err != nil {
			return false, errors.Errorf("invalid file mode: %w", err)
		}
		mode = fileMode(parsed)
	}

	if err := fsutil.MkdirAll(path, mode); err != nil {
		return false, err
	}

	zerolog.Ctx(ctx).Debug().Str("path", path).Stringer("mode", mode).Msg("created directory")
	return true, nil
}

// fileMode maps unix permission bits onto fs.FileMode, which keeps the
// setuid, setgid and sticky bits outside the permission range.
func fileMode(m uint32) fs.FileMode {
	mode := fs.FileMode(m & 0o777)
	if m&0o4000 != 0 {
		mode |= fs.ModeSetuid
	}
	if m&0o2000 != 0 {
		mode |= fs.ModeSetgid
	}
	if m&0o1000 != 0 {
		mode |= fs.ModeSticky
	}
	return mode
}

// MkdirMeta describes the mkdir command.
func MkdirMeta(cwd string) ocli.Meta {
	return ocli.Meta{
		Name:    "mkdir",
		Use:     "mkdir <path>...",
		Aliases: []string{"md"},
		Short:   "Ensure or create a directory structure",
		Example: "  o mkdir path/to/non-existing/dirs\n  o mkdir path/to/dir -m 0o2775",
		Seed:    batch.TargetSeed(Mkdir),
		Batch: &batch.Settings{
			Verb:        "Creating",
			Done:        "Created",
			Directories: true,
			Defaults:    config.Options{Cwd: config.Ptr(cwd)},
		},
		Flags: func(fs *pflag.FlagSet) {
			fs.StringP("mode", "m", "", "file mode, octal (0o755, 0755) or integer")
		},
	}
}
