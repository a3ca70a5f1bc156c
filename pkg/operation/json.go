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
	"bytes"
	"context"
	"encoding/json"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/tailscale/hujson"
	"github.com/walteh/ocli/pkg/batch"
	"github.com/walteh/ocli/pkg/config"
	"github.com/walteh/ocli/pkg/fsutil"
	"github.com/walteh/ocli/pkg/ocli"
	"gitlab.com/tozd/go/errors"
)

// 🧾 JSON rewrites the JSON file at src into dest, minified or indented.
// An empty dest writes next to the source, which only replaces the source
// when overwrite is set.
func JSON(ctx context.Context, src, dest string, opts config.Options) (bool, error) {
	target := src
	if dest != "" {
		target = targetPath(src, dest, opts)
	}

	ok, err := guardTarget(ctx, target, opts, true)
	if err != nil || !ok {
		return false, err
	}

	data, err := os.ReadFile(src)
	if err != nil {
		return false, errors.Errorf("reading %s: %w", src, err)
	}

	out, err := FormatJSON(data, config.Or(opts.Indent, ""), config.Or(opts.RemoveComments, false))
	if err != nil {
		return false, errors.Errorf("%s: %w", src, err)
	}

	perm := os.FileMode(0o644)
	if info, err := os.Stat(src); err == nil {
		perm = info.Mode().Perm()
	}
	if err := fsutil.WriteFileAtomic(target, out, perm); err != nil {
		return false, err
	}

	zerolog.Ctx(ctx).Debug().
		Str("src", src).
		Str("target", target).
		Str("before", humanize.Bytes(uint64(len(data)))).
		Str("after", humanize.Bytes(uint64(len(out)))).
		Msg("wrote json")

	return true, nil
}

// 🎨 FormatJSON minifies data when indent is empty, otherwise indents it.
// Documents that keep their comments are laid out by the HuJSON formatter,
// which ignores indent.
func FormatJSON(data []byte, indent string, removeComments bool) ([]byte, error) {
	v, err := hujson.Parse(data)
	if err != nil {
		return nil, errors.Errorf("parsing JSON: %w", err)
	}

	if removeComments {
		v.Standardize()
	}

	if !v.IsStandard() {
		v.Format()
		return v.Pack(), nil
	}

	v.Minimize()
	packed := v.Pack()
	if indent == "" {
		return packed, nil
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, packed, "", indent); err != nil {
		return nil, errors.Errorf("indenting JSON: %w", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// JSONMeta describes the json command.
func JSONMeta(cwd string) ocli.Meta {
	return ocli.Meta{
		Name:    "json",
		Use:     "json <src>... [dest]",
		Short:   "Uglify or beautify JSON files",
		Example: "  o json 'src/**/*.json' dest/ -r -p -o\n  o json -c json.config.json",
		Seed:    batch.TransferSeed(JSON),
		Batch: &batch.Settings{
			Verb:     "Writing",
			Done:     "Wrote",
			UseGlobs: true,
			Files:    true,
			Defaults: config.Options{
				Cwd:           config.Ptr(cwd),
				ErrorOnExists: config.Ptr(true),
			},
		},
		Flags: func(fs *pflag.FlagSet) {
			fs.IntP("indent", "i", 0, "indent with this many spaces, 0 minifies")
			fs.BoolP("remove-comments", "r", false, "remove comments")
			fs.BoolP("overwrite", "o", false, "overwrite the destination if it exists")
			fs.BoolP("error-on-exists", "e", true, "fail if overwrite is off and the file exists")
			fs.Bool("dereference", false, "dereference symlinks")
			fs.Bool("dot", false, "match dot files")
			ocli.RegisterParents(fs, "p", "keep the parent directory structure, optionally only the deepest N levels")
		},
		Args: jsonArgs,
	}
}

// jsonArgs maps argv for json: the last argument is a destination only when
// more than one positional is given.
func jsonArgs(cmd *cobra.Command, args []string, opts config.Options) ([]any, error) {
	if f := cmd.Flags().Lookup(ocli.ConfigFlag); f != nil && f.Value.String() != "" {
		return ocli.DefaultArgs(batch.ArityThree)(cmd, args, opts)
	}
	switch len(args) {
	case 0:
		return nil, errors.Errorf("%w: expected <src>... [dest]", ocli.ErrUsage)
	case 1:
		return []any{args, nil, config.Options{}}, nil
	}
	return []any{args[:len(args)-1], args[len(args)-1], config.Options{}}, nil
}
