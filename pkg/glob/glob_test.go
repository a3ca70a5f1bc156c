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

package glob

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"
)

// writeTree creates files (and their parents) under root.
func writeTree(t *testing.T, root string, files ...string) {
	t.Helper()
	for _, f := range files {
		path := filepath.Join(root, filepath.FromSlash(f))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(f), 0o644))
	}
}

func testContext(t *testing.T) context.Context {
	logger := zerolog.New(zerolog.NewTestWriter(t))
	return logger.WithContext(context.Background())
}

func TestSplitPatterns(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []string
	}{
		{name: "single", src: "a.txt", want: []string{"a.txt"}},
		{name: "comma_list", src: "a.txt, b/*.go ,c", want: []string{"a.txt", "b/*.go", "c"}},
		{name: "empty", src: "  ", want: nil},
		{name: "trailing_comma", src: "a,", want: []string{"a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitPatterns(tt.src))
		})
	}
}

// 🧪 TestResolve covers modes, dotfiles and negation
func TestResolve(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root,
		"src/a.txt",
		"src/b.txt",
		"src/nested/c.txt",
		"src/nested/d.go",
		"src/.hidden.txt",
		"src/.config/e.txt",
		"lib/x.js",
	)

	tests := []struct {
		name     string
		patterns []string
		opts     Options
		want     []string
	}{
		{
			name:     "files_recursive",
			patterns: []string{"src/**/*.txt"},
			opts:     Options{OnlyFiles: true},
			want:     []string{"src/a.txt", "src/b.txt", "src/nested/c.txt"},
		},
		{
			name:     "dot_included",
			patterns: []string{"src/**/*.txt"},
			opts:     Options{OnlyFiles: true, Dot: true},
			want:     []string{"src/.config/e.txt", "src/.hidden.txt", "src/a.txt", "src/b.txt", "src/nested/c.txt"},
		},
		{
			name:     "explicit_dot_pattern",
			patterns: []string{"src/.*.txt"},
			opts:     Options{OnlyFiles: true},
			want:     []string{"src/.hidden.txt"},
		},
		{
			name:     "directories_only",
			patterns: []string{"src/*"},
			opts:     Options{OnlyDirectories: true},
			want:     []string{"src/nested"},
		},
		{
			name:     "files_and_directories",
			patterns: []string{"src/nested/*"},
			opts:     Options{},
			want:     []string{"src/nested/c.txt", "src/nested/d.go"},
		},
		{
			name:     "negation",
			patterns: []string{"src/**/*", "!src/nested/**"},
			opts:     Options{OnlyFiles: true},
			want:     []string{"src/a.txt", "src/b.txt"},
		},
		{
			name:     "dot_slash_negation",
			patterns: []string{"./src/*.txt", "!./src/a.txt"},
			opts:     Options{OnlyFiles: true},
			want:     []string{"src/b.txt"},
		},
		{
			name:     "literal_and_dedupe",
			patterns: []string{"lib/x.js", "lib/*.js"},
			opts:     Options{OnlyFiles: true},
			want:     []string{"lib/x.js"},
		},
		{
			name:     "literal_wrong_type",
			patterns: []string{"lib/x.js", "lib"},
			opts:     Options{OnlyFiles: true},
			want:     []string{"lib/x.js"},
		},
	}

	r := NewResolver()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.opts.Cwd = root
			got, err := r.Resolve(testContext(t), tt.patterns, tt.opts, true)
			require.NoError(t, err)

			want := make([]string, len(tt.want))
			for i, w := range tt.want {
				want[i] = filepath.FromSlash(w)
			}
			assert.Equal(t, want, got)
		})
	}
}

func TestResolveSymlinkedDirectory(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "src/a.txt", "real/b.txt")
	if err := os.Symlink(filepath.Join(root, "real"), filepath.Join(root, "src", "link")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	tests := []struct {
		name string
		opts Options
		want []string
	}{
		{name: "files_no_follow", opts: Options{OnlyFiles: true}, want: []string{"src/a.txt"}},
		{name: "files_follow", opts: Options{OnlyFiles: true, FollowSymlinkedDirectories: true}, want: []string{"src/a.txt"}},
		{name: "any_type", opts: Options{}, want: []string{"src/a.txt", "src/link"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.opts.Cwd = root
			got, err := NewResolver().Resolve(testContext(t), []string{"src/*"}, tt.opts, true)
			require.NoError(t, err)

			want := make([]string, len(tt.want))
			for i, w := range tt.want {
				want[i] = filepath.FromSlash(w)
			}
			assert.Equal(t, want, got)
		})
	}
}

func TestResolveOutsideCwd(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "pkg/a.txt", "pkg/node_modules/m.js", "work/.keep")

	cwd := filepath.Join(root, "work")
	got, err := NewResolver().Resolve(testContext(t), []string{"../pkg/**/*", "!../pkg/node_modules/**"}, Options{Cwd: cwd, OnlyFiles: true}, true)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join("..", "pkg", "a.txt")}, got)
}

func TestResolveAbsolute(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "a.txt")

	got, err := NewResolver().Resolve(testContext(t), []string{filepath.Join(root, "*.txt")}, Options{Cwd: t.TempDir(), OnlyFiles: true}, true)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "a.txt")}, got)
}

func TestResolveIdempotent(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "b/2.txt", "a/1.txt", "c.txt")

	r := NewResolver()
	opts := Options{Cwd: root, OnlyFiles: true}
	first, err := r.Resolve(testContext(t), []string{"**/*.txt"}, opts, true)
	require.NoError(t, err)
	second, err := r.Resolve(testContext(t), []string{"**/*.txt"}, opts, true)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Len(t, first, 3)
}

// 🧪 TestResolveEmpty checks the empty policy for both failOnEmpty settings
func TestResolveEmpty(t *testing.T) {
	root := t.TempDir()
	r := NewResolver()

	tests := []struct {
		name     string
		patterns []string
		wantErr  error
	}{
		{name: "no_patterns", patterns: nil, wantErr: ErrEmptyPatterns},
		{name: "blank_patterns", patterns: []string{" ", ""}, wantErr: ErrEmptyPatterns},
		{name: "only_negations", patterns: []string{"!*.txt"}, wantErr: ErrEmptyPatterns},
		{name: "no_matches", patterns: []string{"missing/**/*.txt"}, wantErr: ErrNoMatches},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Resolve(testContext(t), tt.patterns, Options{Cwd: root}, true)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)

			got, err := r.Resolve(testContext(t), tt.patterns, Options{Cwd: root}, false)
			require.NoError(t, err)
			assert.Empty(t, got)
		})
	}
}

func TestResolveNoMatchesMessage(t *testing.T) {
	_, err := NewResolver().Resolve(testContext(t), []string{"nope/*.js"}, Options{Cwd: t.TempDir()}, true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "No usable or existing paths found: nope/*.js")
}
