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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/ocli/pkg/config"
	"gitlab.com/tozd/go/errors"
)

func TestCopy(t *testing.T) {
	ctx := testContext(t)
	cwd := t.TempDir()
	writeFiles(t, cwd, map[string]string{
		"src/a/one.txt": "one",
		"src/two.txt":   "two",
		"src/img.png":   "png",
	})
	cmd := define(t, CopyMeta(cwd))

	out, err := cmd.Fn(ctx, "src/**/*.txt", "out", map[string]any{"parents": true})
	require.NoError(t, err)
	assert.Equal(t, 2, snapshot(t, out).Completed)
	assert.Equal(t, "one", readFile(t, filepath.Join(cwd, "out/src/a/one.txt")))
	assert.Equal(t, "two", readFile(t, filepath.Join(cwd, "out/src/two.txt")))
	assert.NoFileExists(t, filepath.Join(cwd, "out/src/img.png"))

	t.Run("flat", func(t *testing.T) {
		out, err := cmd.Fn(ctx, "src/**/*.txt", "flat")
		require.NoError(t, err)
		assert.Equal(t, 2, snapshot(t, out).Completed)
		assert.FileExists(t, filepath.Join(cwd, "flat/one.txt"))
		assert.FileExists(t, filepath.Join(cwd, "flat/two.txt"))
	})

	t.Run("exists_errors_by_default", func(t *testing.T) {
		_, err := cmd.Fn(ctx, "src/two.txt", "flat")
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrExists))
	})

	t.Run("exists_skipped", func(t *testing.T) {
		out, err := cmd.Fn(ctx, "src/two.txt", "flat", map[string]any{"errorOnExists": false})
		require.NoError(t, err)
		assert.Equal(t, 0, snapshot(t, out).Completed)
	})

	t.Run("overwrite", func(t *testing.T) {
		writeFiles(t, cwd, map[string]string{"src/two.txt": "TWO"})
		out, err := cmd.Fn(ctx, "src/two.txt", "flat", map[string]any{"overwrite": true})
		require.NoError(t, err)
		assert.Equal(t, 1, snapshot(t, out).Completed)
		assert.Equal(t, "TWO", readFile(t, filepath.Join(cwd, "flat/two.txt")))
	})
}

func TestCopyOutsideCwd(t *testing.T) {
	ctx := testContext(t)
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"shared/lib/x.txt": "x"})
	cwd := filepath.Join(root, "project")
	require.NoError(t, os.MkdirAll(cwd, 0o755))

	_, err := Copy(ctx, filepath.Join(root, "shared/lib/x.txt"), filepath.Join(cwd, "out"), config.Options{
		Cwd:     config.Ptr(cwd),
		Parents: &config.Parents{Enabled: true},
	})
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(cwd, "out/x.txt"), "parents are dropped for sources outside cwd")
}

func TestCopyTimestamps(t *testing.T) {
	ctx := testContext(t)
	cwd := t.TempDir()
	writeFiles(t, cwd, map[string]string{"a.txt": "a"})
	old := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, os.Chtimes(filepath.Join(cwd, "a.txt"), old, old))

	_, err := Copy(ctx, filepath.Join(cwd, "a.txt"), filepath.Join(cwd, "out"), config.Options{
		Cwd:        config.Ptr(cwd),
		Timestamps: config.Ptr(true),
	})
	require.NoError(t, err)

	info, err := os.Stat(filepath.Join(cwd, "out/a.txt"))
	require.NoError(t, err)
	assert.True(t, info.ModTime().Equal(old))
}
