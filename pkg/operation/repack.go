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
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/walteh/ocli/pkg/config"
	"github.com/walteh/ocli/pkg/fsutil"
	"github.com/walteh/ocli/pkg/log"
	"github.com/walteh/ocli/pkg/ocli"
	"gitlab.com/tozd/go/errors"
)

var (
	// ErrUnsafeDestination is returned when the repack destination looks like
	// a project folder and danger is not set.
	ErrUnsafeDestination = errors.Base("it's not safe to overwrite the destination, looks like a project folder")
	// ErrNpm is returned when an npm step fails.
	ErrNpm = errors.Base("npm failed")
)

// entries that mark a directory as a project folder
var projectMarkers = []string{"package.json", "package-lock.json", "node_modules", ".git", ".bin"}

var commaList = regexp.MustCompile(`\s*,\s*`)

// NpmFunc runs npm with args in dir.
type NpmFunc func(ctx context.Context, dir string, args ...string) (stdout, stderr []byte, err error)

func runNpm(ctx context.Context, dir string, args ...string) ([]byte, []byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, "npm", args...)
	cmd.Dir = dir
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

// 📦 RepackOptions controls how a package.json is rewritten
type RepackOptions struct {
	Name              *string
	Description       *string
	Private           bool
	Install           bool
	Bundle            bool
	Sort              bool
	Smart             bool
	Danger            bool
	RemoveDeps        bool
	RemoveDevDeps     bool
	RemoveBundledDeps bool
	RemoveOptDeps     bool
	RemovePeerDeps    bool
	// Set holds "key=value" pairs, keys in dot notation.
	Set []string
	// SetValues holds already decoded values, keys in dot notation.
	SetValues map[string]any
	Remove    []string
	Indent    string
}

// RepackOptionsFrom reads the repack keys out of opts.
func RepackOptionsFrom(opts config.Options) (RepackOptions, error) {
	out := RepackOptions{Indent: config.Or(opts.Indent, "  ")}

	if v, ok := opts.GetString("name"); ok {
		out.Name = &v
	}
	if v, ok := opts.GetString("description"); ok {
		out.Description = &v
	}

	flags := []struct {
		key string
		dst *bool
	}{
		{"private", &out.Private},
		{"install", &out.Install},
		{"bundle", &out.Bundle},
		{"sort", &out.Sort},
		{"smart", &out.Smart},
		{"danger", &out.Danger},
		{"removeDeps", &out.RemoveDeps},
		{"removeDevDeps", &out.RemoveDevDeps},
		{"removeBundledDeps", &out.RemoveBundledDeps},
		{"removeOptDeps", &out.RemoveOptDeps},
		{"removePeerDeps", &out.RemovePeerDeps},
	}
	for _, f := range flags {
		b, err := opts.GetBool(f.key, false)
		if err != nil {
			return RepackOptions{}, err
		}
		*f.dst = b
	}

	if v, ok := opts.Get("set"); ok && v != nil {
		if m, isMap := v.(map[string]any); isMap {
			out.SetValues = m
		} else {
			pairs, err := opts.GetStrings("set")
			if err != nil {
				return RepackOptions{}, err
			}
			out.Set = pairs
		}
	}

	remove, err := opts.GetStrings("remove")
	if err != nil {
		return RepackOptions{}, err
	}
	for _, r := range remove {
		for _, key := range commaList.Split(strings.TrimSpace(r), -1) {
			if key != "" {
				out.Remove = append(out.Remove, key)
			}
		}
	}

	return out, nil
}

// 📊 RepackResult describes a finished repack
type RepackResult struct {
	PackageJSON string `json:"packageJson"`
	Installed   bool   `json:"installed"`
	Bundled     bool   `json:"bundled"`
}

// 🎁 Repacker rewrites a package.json into another directory
type Repacker struct {
	defaults config.Options
	npm      NpmFunc
}

// NewRepacker creates a repacker that resolves paths against cwd.
func NewRepacker(cwd string) *Repacker {
	return &Repacker{
		defaults: config.Options{Cwd: config.Ptr(cwd)},
		npm:      runNpm,
	}
}

// WithNpm replaces the npm runner.
func (r *Repacker) WithNpm(npm NpmFunc) *Repacker {
	cp := *r
	cp.npm = npm
	return &cp
}

// 🚀 Run is the repack entry point:
//
//	Run(ctx, configFile)
//	Run(ctx, src, dest)
//	Run(ctx, src, dest, options)
//
// src is a package.json or a directory holding one, dest the output
// directory. A missing src uses cwd, a missing dest uses src.
func (r *Repacker) Run(ctx context.Context, args ...any) (any, error) {
	var (
		src, dest string
		opts      = r.defaults
	)

	switch len(args) {
	case 0:
		return nil, errors.New("repack needs a config file or a source")
	case 1:
		file, ok := args[0].(string)
		if !ok || file == "" {
			return nil, errors.Errorf("config file must be a path, got %T", args[0])
		}
		if !filepath.IsAbs(file) {
			file = filepath.Join(config.Or(r.defaults.Cwd, ""), file)
		}
		cfg, err := config.ReadSingleConfig(ctx, file, r.defaults)
		if err != nil {
			return nil, err
		}
		if len(cfg.Src) > 1 {
			return nil, errors.Errorf("repack takes a single source, got %d", len(cfg.Src))
		}
		if len(cfg.Src) == 1 {
			src = cfg.Src[0]
		}
		dest, opts = cfg.Dest, cfg.Options
	default:
		var err error
		if src, err = optionalString("src", args[0]); err != nil {
			return nil, err
		}
		if dest, err = optionalString("dest", args[1]); err != nil {
			return nil, err
		}
		if len(args) > 2 && args[2] != nil {
			layer, err := toOptions(args[2])
			if err != nil {
				return nil, err
			}
			opts = config.Merge(opts, layer)
		}
	}

	ropts, err := RepackOptionsFrom(opts)
	if err != nil {
		return nil, err
	}
	result, err := r.repack(ctx, src, dest, config.Or(opts.Cwd, ""), ropts)
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (r *Repacker) repack(ctx context.Context, src, dest, cwd string, opts RepackOptions) (*RepackResult, error) {
	console := log.FromContext(ctx)

	pkgPath, destDir, err := prepareRepack(src, dest, cwd)
	if err != nil {
		return nil, err
	}

	if !opts.Danger {
		for _, marker := range projectMarkers {
			exists, err := fsutil.Exists(filepath.Join(destDir, marker))
			if err != nil {
				return nil, err
			}
			if exists {
				return nil, errors.Errorf("%w: %s contains %s", ErrUnsafeDestination, destDir, marker)
			}
		}
	}

	data, err := os.ReadFile(pkgPath)
	if err != nil {
		return nil, errors.Errorf("reading %s: %w", pkgPath, err)
	}
	pkg, err := parsePackageJSON(data)
	if err != nil {
		return nil, errors.Errorf("%s: %w", pkgPath, err)
	}

	if err := applyRepack(pkg, opts); err != nil {
		return nil, err
	}

	out, err := pkg.Marshal(opts.Indent)
	if err != nil {
		return nil, err
	}

	result := &RepackResult{PackageJSON: filepath.Join(destDir, "package.json")}
	if err := fsutil.WriteFileAtomic(result.PackageJSON, out, 0o644); err != nil {
		return nil, err
	}

	zerolog.Ctx(ctx).Debug().
		Str("src", pkgPath).
		Str("dest", result.PackageJSON).
		Str("size", humanize.Bytes(uint64(len(out)))).
		Msg("wrote package.json")

	if opts.Install {
		stdout, stderr, err := r.npm(ctx, destDir, "install")
		if s := strings.TrimSpace(string(stdout)); s != "" {
			console.Data(s)
		}
		if err != nil {
			return nil, errors.Errorf("%w: npm install: %v: %s", ErrNpm, err, strings.TrimSpace(string(stderr)))
		}
		result.Installed = true
	}

	if opts.Bundle {
		stdout, stderr, err := r.npm(ctx, destDir, "pack")
		if err != nil {
			return nil, errors.Errorf("%w: npm pack: %v: %s", ErrNpm, err, strings.TrimSpace(string(stderr)))
		}
		if !strings.Contains(strings.ToLower(string(stdout)), ".tgz\n") {
			return nil, errors.Errorf("%w: npm pack produced no bundle", ErrNpm)
		}
		result.Bundled = true
	}

	console.Success(console.Prefix(fmt.Sprintf("Repacked %s", result.PackageJSON)))
	return result, nil
}

// prepareRepack resolves the source package.json and the destination
// directory.
func prepareRepack(src, dest, cwd string) (string, string, error) {
	if src == "" && dest == "" {
		return "", "", errors.New("destination directory is not specified")
	}

	pkgPath := cwd
	if src != "" {
		pkgPath = resolve(cwd, src)
	}
	destDir := resolve(cwd, dest)
	if dest == "" {
		destDir = resolve(cwd, src)
	}

	info, err := os.Stat(pkgPath)
	if err != nil {
		return "", "", errors.Errorf("reading source: %w", err)
	}
	if info.IsDir() {
		pkgPath = filepath.Join(pkgPath, "package.json")
	}
	if filepath.Base(pkgPath) != "package.json" {
		return "", "", errors.Errorf("invalid source package.json path: %s", pkgPath)
	}
	if filepath.Dir(pkgPath) == destDir {
		return "", "", errors.New("destination cannot be the same as source directory")
	}

	return pkgPath, destDir, nil
}

func applyRepack(pkg *packageJSON, opts RepackOptions) error {
	if opts.Private {
		pkg.Set("private", parseValue("true"), true)
	}
	if opts.Name != nil {
		pkg.Set("name", hujsonString(*opts.Name), true)
	}
	if opts.Description != nil {
		pkg.Set("description", hujsonString(*opts.Description), true)
	}

	groups := []struct {
		on  bool
		key string
	}{
		{opts.RemoveDeps, "dependencies"},
		{opts.RemoveDevDeps, "devDependencies"},
		{opts.RemoveBundledDeps, "bundledDependencies"},
		{opts.RemoveOptDeps, "optionalDependencies"},
		{opts.RemovePeerDeps, "peerDependencies"},
	}
	for _, g := range groups {
		if g.on {
			pkg.Remove(g.key)
		}
	}

	for _, key := range opts.Remove {
		pkg.Remove(key)
	}

	for _, pair := range opts.Set {
		key, value := splitPair(pair)
		if key == "" {
			return errors.Errorf("invalid set pair %q", pair)
		}
		pkg.Set(key, parseValue(value), true)
	}
	for _, key := range sortedKeys(opts.SetValues) {
		v, err := encodeValue(opts.SetValues[key])
		if err != nil {
			return errors.Errorf("set %q: %w", key, err)
		}
		pkg.Set(key, v, true)
	}

	switch {
	case opts.Smart:
		if opts.Private {
			pkg.Set("license", hujsonString("UNLICENSED"), true)
		}
		pkg.SortKeys(smartTop, smartBottom)
	case opts.Sort:
		pkg.SortKeys(nil, nil)
	}

	return nil
}

// RepackMeta describes the repack command.
func RepackMeta(cwd string) ocli.Meta {
	return ocli.Meta{
		Name:    "repack",
		Use:     "repack [src] [dest]",
		Short:   "Repack an npm package.json",
		Example: "  o repack package.json dest/ -i -P --remove-dev-deps\n  o repack -c repack.config.json",
		Direct:  NewRepacker(cwd).Run,
		Flags: func(fs *pflag.FlagSet) {
			fs.StringP(ocli.ConfigFlag, "c", "", "repack config file (json, yaml, toml or hcl)")
			fs.StringP("name", "n", "", "new name for the package")
			fs.StringP("description", "D", "", "new description for the package")
			fs.BoolP("install", "i", false, "run npm install when the package is ready")
			fs.BoolP("bundle", "b", false, "run npm pack and bundle the package into a .tgz")
			fs.Int("indent", 2, "spaces to indent package.json with")
			fs.Bool("sort", false, "sort package.json keys alphabetically")
			fs.Bool("smart", false, "sort keys by relevance, mark private packages UNLICENSED")
			fs.BoolP("private", "P", false, "mark the package as private")
			fs.StringArrayP("set", "s", nil, "set key=value, dot notation allowed, repeatable")
			fs.StringSliceP("remove", "r", nil, "remove properties, dot notation allowed, comma separated or repeatable")
			fs.Bool("remove-deps", false, "remove dependencies")
			fs.Bool("remove-dev-deps", false, "remove devDependencies")
			fs.Bool("remove-bundled-deps", false, "remove bundledDependencies")
			fs.Bool("remove-opt-deps", false, "remove optionalDependencies")
			fs.Bool("remove-peer-deps", false, "remove peerDependencies")
			fs.Bool("danger", false, "write even if the destination looks like a project folder")
		},
		Args: repackArgs,
	}
}

func repackArgs(cmd *cobra.Command, args []string, opts config.Options) ([]any, error) {
	if file, _ := cmd.Flags().GetString(ocli.ConfigFlag); file != "" {
		if len(args) > 0 {
			return nil, errors.Errorf("%w: --config cannot be combined with sources", ocli.ErrUsage)
		}
		return []any{file}, nil
	}

	switch len(args) {
	case 0:
		return nil, errors.Errorf("%w: expected [src] [dest] or --config", ocli.ErrUsage)
	case 1:
		return []any{args[0], nil, opts}, nil
	case 2:
		return []any{args[0], args[1], opts}, nil
	}
	return nil, errors.Errorf("%w: expected at most two arguments", ocli.ErrUsage)
}
