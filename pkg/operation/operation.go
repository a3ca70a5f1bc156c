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
	"maps"
	"path/filepath"
	"slices"
	"strings"

	"github.com/rs/zerolog"
	"github.com/tailscale/hujson"
	"github.com/walteh/ocli/pkg/config"
	"github.com/walteh/ocli/pkg/fsutil"
	"github.com/walteh/ocli/pkg/log"
	"github.com/walteh/ocli/pkg/ocli"
	"gitlab.com/tozd/go/errors"
)

// ErrExists is returned when a target exists and neither overwrite is set
// nor errorOnExists is disabled.
var ErrExists = errors.Base("target already exists")

// 📋 All returns the metadata of every built-in command, with cwd as the
// engine working directory.
func All(cwd string) []ocli.Meta {
	return []ocli.Meta{
		CopyMeta(cwd),
		JSONMeta(cwd),
		MkdirMeta(cwd),
		RemoveMeta(cwd),
		CleanMeta(cwd),
		RepackMeta(cwd),
	}
}

// 🌳 parentDirs returns the part of src's directory that is kept under the
// destination. Sources outside cwd keep nothing so the result never escapes
// the destination. Levels keeps only the deepest n directories.
func parentDirs(cwd, src string, parents *config.Parents) string {
	if parents == nil || !parents.Enabled {
		return ""
	}

	rel, err := filepath.Rel(cwd, filepath.Dir(src))
	if err != nil || rel == "." {
		return ""
	}
	parts := strings.Split(rel, string(filepath.Separator))
	for _, p := range parts {
		if p == ".." {
			return ""
		}
	}

	if parents.Levels > 0 && parents.Levels < len(parts) {
		parts = parts[len(parts)-parents.Levels:]
	}
	return filepath.Join(parts...)
}

// 🎯 targetPath places src's basename (under its kept parents) in dest
func targetPath(src, dest string, opts config.Options) string {
	cwd := config.Or(opts.Cwd, "")
	if !filepath.IsAbs(dest) {
		dest = filepath.Join(cwd, dest)
	}
	return filepath.Join(dest, parentDirs(cwd, src, opts.Parents), filepath.Base(src))
}

// 🛡️ guardTarget decides whether target may be written. It returns false
// (skip) for an existing target without overwrite, or ErrExists when
// errorOnExists is set.
func guardTarget(ctx context.Context, target string, opts config.Options, errorOnExistsDefault bool) (bool, error) {
	if config.Or(opts.Overwrite, false) {
		return true, nil
	}

	exists, err := fsutil.Exists(target)
	if err != nil {
		return false, err
	}
	if !exists {
		return true, nil
	}

	if config.Or(opts.ErrorOnExists, errorOnExistsDefault) {
		return false, errors.Errorf("%w: %s", ErrExists, target)
	}

	log.FromContext(ctx).Warningf("File already exists, will not overwrite: %s", target)
	zerolog.Ctx(ctx).Debug().Str("target", target).Msg("skipping existing target")
	return false, nil
}

// resolve joins a relative path onto cwd.
func resolve(cwd, path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(cwd, path)
}

func optionalString(name string, v any) (string, error) {
	switch s := v.(type) {
	case nil:
		return "", nil
	case string:
		return s, nil
	}
	return "", errors.Errorf("%s must be a string, got %T", name, v)
}

func toOptions(v any) (config.Options, error) {
	switch o := v.(type) {
	case config.Options:
		return o, nil
	case *config.Options:
		if o == nil {
			return config.Options{}, nil
		}
		return *o, nil
	case map[string]any:
		return config.OptionsFromMap(o)
	}
	return config.Options{}, errors.Errorf("options must be an object, got %T", v)
}

func hujsonString(s string) hujson.Value {
	return hujson.Value{Value: hujson.String(s)}
}

func sortedKeys(m map[string]any) []string {
	return slices.Sorted(maps.Keys(m))
}
