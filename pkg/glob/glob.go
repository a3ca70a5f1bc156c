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

// Package glob expands source patterns into concrete paths.
package glob

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

var (
	// ErrEmptyPatterns is returned when no usable pattern was given.
	ErrEmptyPatterns = errors.Base("no source patterns given")
	// ErrNoMatches is returned when the patterns matched nothing.
	ErrNoMatches = errors.Base("No usable or existing paths found")
)

// 🎯 Options controls how patterns are expanded
type Options struct {
	// Cwd anchors relative patterns and relative results.
	Cwd string
	// Dot includes entries whose name starts with a dot.
	Dot bool
	// OnlyFiles and OnlyDirectories restrict the entry type. Both set or
	// both unset means any entry type.
	OnlyFiles       bool
	OnlyDirectories bool
	// FollowSymlinkedDirectories descends into symlinked directories.
	FollowSymlinkedDirectories bool
}

// 🔍 Resolver expands patterns against the filesystem
type Resolver struct{}

// 🏭 NewResolver creates a resolver
func NewResolver() *Resolver {
	return &Resolver{}
}

var separator = regexp.MustCompile(`\s*,\s*`)

// ✂️ SplitPatterns splits a comma separated source string into patterns
func SplitPatterns(src string) []string {
	var out []string
	for _, p := range separator.Split(strings.TrimSpace(src), -1) {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// HasMagic reports whether the pattern contains glob syntax.
func HasMagic(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[{")
}

// 🔍 Resolve expands the patterns into a sorted, deduplicated path list.
// Patterns starting with "!" exclude matches of the other patterns. Relative
// patterns produce paths relative to opts.Cwd, absolute patterns produce
// absolute paths.
func (r *Resolver) Resolve(ctx context.Context, patterns []string, opts Options, failOnEmpty bool) ([]string, error) {
	logger := zerolog.Ctx(ctx)

	var include, exclude []string
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		switch {
		case p == "" || p == "!":
			continue
		case strings.HasPrefix(p, "!"):
			// matches come back cleaned, so "!./src/a.txt" must match "src/a.txt"
			exclude = append(exclude, filepath.Clean(p[1:]))
		default:
			include = append(include, p)
		}
	}

	if len(include) == 0 {
		if failOnEmpty {
			return nil, errors.Errorf("%w: %q", ErrEmptyPatterns, patterns)
		}
		return nil, nil
	}

	cwd := opts.Cwd
	if cwd == "" {
		cwd = "."
	}

	seen := make(map[string]struct{})
	var results []string

	for _, pattern := range include {
		if err := ctx.Err(); err != nil {
			return nil, errors.Errorf("resolving patterns: %w", err)
		}

		matches, err := r.expand(pattern, cwd, opts)
		if err != nil {
			return nil, errors.Errorf("expanding pattern %q: %w", pattern, err)
		}

		for _, m := range matches {
			excluded, err := isExcluded(m, cwd, exclude)
			if err != nil {
				return nil, err
			}
			if excluded {
				continue
			}
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			results = append(results, m)
		}
	}

	sort.Strings(results)

	logger.Debug().Strs("patterns", patterns).Int("matches", len(results)).Msg("resolved patterns")

	if len(results) == 0 && failOnEmpty {
		return nil, errors.Errorf("%w: %s", ErrNoMatches, strings.Join(patterns, ", "))
	}

	return results, nil
}

// expand resolves a single positive pattern.
func (r *Resolver) expand(pattern, cwd string, opts Options) ([]string, error) {
	absolute := filepath.IsAbs(pattern)

	if !HasMagic(pattern) {
		full := pattern
		if !absolute {
			full = filepath.Join(cwd, pattern)
		}
		ok, err := matchesType(full, opts, true)
		if err != nil || !ok {
			return nil, err
		}
		return []string{output(full, cwd, absolute)}, nil
	}

	base, rest := doublestar.SplitPattern(filepath.ToSlash(pattern))
	root := filepath.FromSlash(base)
	if !absolute {
		root = filepath.Join(cwd, root)
	}

	var globOpts []doublestar.GlobOption
	if opts.OnlyFiles && !opts.OnlyDirectories {
		globOpts = append(globOpts, doublestar.WithFilesOnly())
	}
	if !opts.FollowSymlinkedDirectories {
		globOpts = append(globOpts, doublestar.WithNoFollow())
	}

	matches, err := doublestar.Glob(os.DirFS(root), rest, globOpts...)
	if err != nil {
		return nil, errors.Errorf("globbing %q in %q: %w", rest, root, err)
	}

	allowDot := opts.Dot || namesDot(rest)

	out := make([]string, 0, len(matches))
	for _, m := range matches {
		if m == "." || (!allowDot && hidden(m)) {
			continue
		}
		full := filepath.Join(root, filepath.FromSlash(m))
		ok, err := matchesType(full, opts, opts.FollowSymlinkedDirectories)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, output(full, cwd, absolute))
		}
	}

	return out, nil
}

// matchesType checks the entry at path against the file/directory mode.
// Missing entries never match. Dangling links count as files.
func matchesType(path string, opts Options, follow bool) (bool, error) {
	stat := os.Lstat
	if follow {
		stat = os.Stat
	}

	info, err := stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, errors.Errorf("checking %q: %w", path, err)
	}

	switch {
	case opts.OnlyFiles == opts.OnlyDirectories:
		return true, nil
	case opts.OnlyDirectories:
		return info.IsDir(), nil
	case info.Mode()&fs.ModeSymlink != 0:
		// a link to a directory is never a file, followed or not
		target, err := os.Stat(path)
		if err != nil {
			return true, nil
		}
		return !target.IsDir(), nil
	default:
		return !info.IsDir(), nil
	}
}

func output(full, cwd string, absolute bool) string {
	if absolute {
		return filepath.Clean(full)
	}
	rel, err := filepath.Rel(cwd, full)
	if err != nil {
		return filepath.Clean(full)
	}
	return rel
}

func isExcluded(path, cwd string, exclude []string) (bool, error) {
	for _, neg := range exclude {
		target := path
		if filepath.IsAbs(neg) != filepath.IsAbs(path) {
			if filepath.IsAbs(neg) {
				target = filepath.Join(cwd, path)
			} else {
				rel, err := filepath.Rel(cwd, path)
				if err != nil {
					continue
				}
				target = rel
			}
		}

		ok, err := doublestar.Match(filepath.ToSlash(neg), filepath.ToSlash(target))
		if err != nil {
			return false, errors.Errorf("matching exclude pattern %q: %w", neg, err)
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// namesDot reports whether a pattern segment explicitly starts with a dot.
func namesDot(pattern string) bool {
	for _, seg := range strings.Split(pattern, "/") {
		if strings.HasPrefix(seg, ".") {
			return true
		}
	}
	return false
}

func hidden(match string) bool {
	for _, seg := range strings.Split(match, "/") {
		if strings.HasPrefix(seg, ".") && seg != "." && seg != ".." {
			return true
		}
	}
	return false
}
