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
	"os"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/walteh/ocli/pkg/batch"
	"github.com/walteh/ocli/pkg/config"
	"github.com/walteh/ocli/pkg/fsutil"
	"github.com/walteh/ocli/pkg/ocli"
	"gitlab.com/tozd/go/errors"
)

// 📦 Copy copies the file at src into the directory dest. The copy lands at
// dest/<parents>/<basename> where parents is only kept when opts.Parents is
// set.
func Copy(ctx context.Context, src, dest string, opts config.Options) (bool, error) {
	target := targetPath(src, dest, opts)

	ok, err := guardTarget(ctx, target, opts, true)
	if err != nil || !ok {
		return false, err
	}

	if err := fsutil.CopyFile(src, target, fsutil.CopyOptions{
		Dereference: config.Or(opts.Dereference, false),
		Timestamps:  config.Or(opts.Timestamps, false),
	}); err != nil {
		return false, errors.Errorf("copying %s: %w", src, err)
	}

	event := zerolog.Ctx(ctx).Debug().Str("src", src).Str("target", target)
	if info, err := os.Lstat(target); err == nil {
		event = event.Str("size", humanize.Bytes(uint64(info.Size())))
	}
	event.Msg("copied file")

	return true, nil
}

// CopyMeta describes the copy command.
func CopyMeta(cwd string) ocli.Meta {
	return ocli.Meta{
		Name:    "copy",
		Use:     "copy <src>... <dest>",
		Aliases: []string{"cp"},
		Short:   "Copy files",
		Example: "  o copy 'src/**/*.png' dest/ -p -o\n  o copy -c copy.config.json",
		Seed:    batch.TransferSeed(Copy),
		Batch: &batch.Settings{
			Verb:        "Copying",
			Done:        "Copied",
			UseGlobs:    true,
			Files:       true,
			Directories: false,
			Defaults: config.Options{
				Cwd:           config.Ptr(cwd),
				ErrorOnExists: config.Ptr(true),
			},
		},
		Flags: func(fs *pflag.FlagSet) {
			fs.BoolP("parents", "p", false, "also copy the parent directory structure")
			fs.BoolP("overwrite", "o", false, "overwrite the destination if it exists")
			fs.BoolP("error-on-exists", "e", true, "fail if overwrite is off and the file exists")
			fs.Bool("dereference", false, "dereference symlinks")
			fs.BoolP("timestamps", "t", false, "keep modification times of the originals")
			fs.Bool("dot", false, "match dot files")
		},
	}
}
