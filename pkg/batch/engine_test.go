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

package batch

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/ocli/pkg/config"
	"github.com/walteh/ocli/pkg/glob"
	"github.com/walteh/ocli/pkg/log"
	"gitlab.com/tozd/go/errors"
)

var errExists = errors.Base("destination exists")

// call records one seed invocation.
type call struct {
	path string
	dest string
	opts config.Options
}

type recorder struct {
	mu    sync.Mutex
	calls []call
}

func (r *recorder) add(c call) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, c)
}

func (r *recorder) sorted() []call {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := append([]call(nil), r.calls...)
	sort.Slice(out, func(i, j int) bool { return out[i].path < out[j].path })
	return out
}

// copySeed copies a file into dest by base name, honouring overwrite and errorOnExists.
func copySeed(rec *recorder) Seed {
	return TransferSeed(func(ctx context.Context, path, dest string, opts config.Options) (bool, error) {
		if rec != nil {
			rec.add(call{path: path, dest: dest, opts: opts})
		}
		target := filepath.Join(dest, filepath.Base(path))
		if _, err := os.Stat(target); err == nil && !config.Or(opts.Overwrite, false) {
			if config.Or(opts.ErrorOnExists, true) {
				return false, errors.Errorf("%w: %s", errExists, target)
			}
			return false, nil
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return false, err
		}
		if err := os.MkdirAll(dest, 0o755); err != nil {
			return false, err
		}
		return true, os.WriteFile(target, content, 0o644)
	})
}

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

func newEngine(t *testing.T, seed Seed, cwd string, mutate ...func(*Settings)) *Engine {
	t.Helper()
	settings := Settings{
		Verb:     "Copying",
		Done:     "Copied",
		UseGlobs: true,
		Files:    true,
		Defaults: config.Options{Cwd: config.Ptr(cwd)},
	}
	for _, m := range mutate {
		m(&settings)
	}
	e, err := New("copy", seed, settings)
	require.NoError(t, err)
	return e
}

// 🧪 TestNew checks construction failures
func TestNew(t *testing.T) {
	_, err := New("bad", Seed{}, Settings{Defaults: config.Options{Cwd: config.Ptr("/")}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidSeedArity))

	_, err = New("bad", Seed{arity: ArityThree}, Settings{Defaults: config.Options{Cwd: config.Ptr("/")}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidSeedArity), "an arity without its function is invalid")

	_, err = New("nocwd", copySeed(nil), Settings{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingCwd))

	e, err := New("ok", copySeed(nil), Settings{Defaults: config.Options{Cwd: config.Ptr("/")}})
	require.NoError(t, err)
	assert.Equal(t, ArityThree, e.seed.Arity())
	assert.True(t, e.Settings().Files)
}

// 🧪 TestRunBatchCopy copies three matched files
func TestRunBatchCopy(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "src/a.txt", "src/b.txt", "src/nested/c.txt", "src/skip.md")

	e := newEngine(t, copySeed(nil), root)
	snap, err := e.Run(testContext(t), "src/**/*.txt", "out")
	require.NoError(t, err)

	assert.Equal(t, 3, snap.Total)
	assert.Equal(t, 3, snap.Completed)
	assert.InDelta(t, 1.0, snap.Percent, 1e-9)
	require.NotNil(t, snap.EndTime)
	assert.GreaterOrEqual(t, *snap.EndTime, snap.StartTime)

	for _, name := range []string{"a.txt", "b.txt", "c.txt"} {
		assert.FileExists(t, filepath.Join(root, "out", name))
	}
	assert.NoFileExists(t, filepath.Join(root, "out", "skip.md"))
}

// 🧪 TestOverwriteGuard runs the same batch twice against a filled destination
func TestOverwriteGuard(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "src/a.txt", "src/b.txt")
	e := newEngine(t, copySeed(nil), root)
	ctx := testContext(t)

	_, err := e.Run(ctx, "src/*.txt", "out")
	require.NoError(t, err)

	_, err = e.Run(ctx, "src/*.txt", "out", map[string]any{"overwrite": false, "errorOnExists": true})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errExists))

	snap, err := e.Run(ctx, "src/*.txt", "out", map[string]any{"overwrite": false, "errorOnExists": false})
	require.NoError(t, err)
	assert.Equal(t, 2, snap.Total)
	assert.Equal(t, 0, snap.Completed, "skipped items are not counted")

	snap, err = e.Run(ctx, "src/*.txt", "out", config.Options{Overwrite: config.Ptr(true)})
	require.NoError(t, err)
	assert.Equal(t, 2, snap.Completed)
}

// 🧪 TestRunErrors covers argument and source failures
func TestRunErrors(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "src/a.txt")
	e := newEngine(t, copySeed(nil), root)

	tests := []struct {
		name    string
		args    []any
		wantErr error
	}{
		{name: "no_arguments", args: nil, wantErr: ErrNoArguments},
		{name: "empty_source", args: []any{"", "out"}, wantErr: ErrInvalidSource},
		{name: "nil_source", args: []any{nil, "out", nil}, wantErr: ErrInvalidSource},
		{name: "bad_source_type", args: []any{42, "out"}, wantErr: ErrInvalidSource},
		{name: "task_not_string", args: []any{42}, wantErr: ErrInvalidSource},
		{name: "no_matches", args: []any{"missing/**/*.txt", "out"}, wantErr: glob.ErrNoMatches},
		{name: "missing_task", args: []any{"nope.json"}, wantErr: config.ErrConfigRead},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Run(testContext(t), tt.args...)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}

	_, err := e.Run(testContext(t), "", "out")
	require.Error(t, err)
	assert.Equal(t, "Invalid source.", err.Error())
}

func TestForceSwallowsResolveErrors(t *testing.T) {
	root := t.TempDir()
	e := newEngine(t, copySeed(nil), root)

	snap, err := e.Run(testContext(t), "missing/**/*", map[string]any{"force": true})
	require.NoError(t, err)
	assert.Equal(t, 0, snap.Total)
	assert.Equal(t, 0, snap.Completed)
	assert.NotNil(t, snap.EndTime)
}

func TestSeedErrorPropagates(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "a.txt", "b.txt", "c.txt")

	var finished atomic.Int32
	boom := errors.Base("boom")
	seed := TargetSeed(func(ctx context.Context, path string, opts config.Options) (bool, error) {
		if filepath.Base(path) == "b.txt" {
			return false, boom
		}
		time.Sleep(10 * time.Millisecond)
		finished.Add(1)
		return true, nil
	})

	e := newEngine(t, seed, root)
	_, err := e.Run(testContext(t), "*.txt", config.Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, boom))
	assert.Equal(t, int32(2), finished.Load(), "siblings settle before the error is returned")
}

// 🧪 TestDispatch checks each argument shape reaches the seed correctly
func TestDispatch(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "a.txt")
	abs := filepath.Join(root, "a.txt")

	tests := []struct {
		name     string
		args     []any
		wantDest string
		check    func(t *testing.T, opts config.Options)
	}{
		{name: "src_dest", args: []any{"a.txt", "out"}, wantDest: filepath.Join(root, "out")},
		{
			name:     "src_options_map",
			args:     []any{"a.txt", map[string]any{"dot": true}},
			wantDest: "",
			check:    func(t *testing.T, opts config.Options) { assert.True(t, config.Or(opts.Dot, false)) },
		},
		{
			name:     "src_dest_options",
			args:     []any{[]string{"a.txt"}, "/abs/out", &config.Options{Timestamps: config.Ptr(true)}},
			wantDest: "/abs/out",
			check:    func(t *testing.T, opts config.Options) { assert.True(t, config.Or(opts.Timestamps, false)) },
		},
		{name: "src_nil_dest_options", args: []any{"a.txt", nil, config.Options{}}, wantDest: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{}
			seed := TransferSeed(func(ctx context.Context, path, dest string, opts config.Options) (bool, error) {
				rec.add(call{path: path, dest: dest, opts: opts})
				return true, nil
			})
			e := newEngine(t, seed, root)

			snap, err := e.Run(testContext(t), tt.args...)
			require.NoError(t, err)
			assert.Equal(t, 1, snap.Completed)

			calls := rec.sorted()
			require.Len(t, calls, 1)
			assert.Equal(t, abs, calls[0].path)
			assert.Equal(t, tt.wantDest, calls[0].dest)
			assert.Equal(t, root, config.Or(calls[0].opts.Cwd, ""))
			if tt.check != nil {
				tt.check(t, calls[0].opts)
			}
		})
	}
}

func TestLiteralSources(t *testing.T) {
	root := t.TempDir()
	rec := &recorder{}
	seed := TargetSeed(func(ctx context.Context, path string, opts config.Options) (bool, error) {
		rec.add(call{path: path, opts: opts})
		return true, nil
	})

	e := newEngine(t, seed, root, func(s *Settings) {
		s.UseGlobs = false
		s.Files = false
		s.Directories = true
	})

	snap, err := e.Run(testContext(t), "build, dist/*", map[string]any{"mode": "0755"})
	require.NoError(t, err)
	assert.Equal(t, 2, snap.Total)
	assert.Equal(t, 2, snap.Completed)

	calls := rec.sorted()
	require.Len(t, calls, 2)
	assert.Equal(t, filepath.Join(root, "build"), calls[0].path)
	assert.Equal(t, filepath.Join(root, "dist/*"), calls[1].path, "literal sources are not expanded")
	assert.Equal(t, "0755", config.Or(calls[0].opts.Mode, ""))
}

func TestConcurrencyLimit(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "a.txt", "b.txt", "c.txt", "d.txt")

	var inFlight, peak atomic.Int32
	seed := TargetSeed(func(ctx context.Context, path string, opts config.Options) (bool, error) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		inFlight.Add(-1)
		return true, nil
	})

	e := newEngine(t, seed, root)
	snap, err := e.Run(testContext(t), "*.txt", map[string]any{"concurrency": 1})
	require.NoError(t, err)
	assert.Equal(t, 4, snap.Completed)
	assert.Equal(t, int32(1), peak.Load())
}

// 🧪 TestRunTask aggregates two batches into one result
func TestRunTask(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root,
		"one/a.txt", "one/b.txt",
		"two/c.txt", "two/d.txt", "two/e.txt",
	)
	writeTree(t, root)
	task := filepath.Join(root, "task.json")
	require.NoError(t, os.WriteFile(task, []byte(`{
		// two batches, the second overrides dest
		"options": { "dest": "dist" },
		"paths": [
			"one/*.txt",
			{ "src": ["two/*.txt"], "dest": "other", "overwrite": true }
		]
	}`), 0o644))

	rec := &recorder{}
	e := newEngine(t, copySeed(rec), root, func(s *Settings) {
		s.Defaults.Overwrite = config.Ptr(false)
	})

	snap, err := e.Run(testContext(t), "task.json")
	require.NoError(t, err)

	assert.Equal(t, 5, snap.Total)
	assert.Equal(t, 5, snap.Completed)
	assert.InDelta(t, 1.0, snap.Percent, 1e-9)
	require.NotNil(t, snap.EndTime)
	assert.LessOrEqual(t, snap.StartTime, *snap.EndTime)

	calls := rec.sorted()
	require.Len(t, calls, 5)
	for _, c := range calls {
		rel, err := filepath.Rel(root, c.path)
		require.NoError(t, err)
		if strings.HasPrefix(rel, "one") {
			assert.Equal(t, filepath.Join(root, "dist"), c.dest)
			assert.False(t, config.Or(c.opts.Overwrite, true))
		} else {
			assert.Equal(t, filepath.Join(root, "other"), c.dest)
			assert.True(t, config.Or(c.opts.Overwrite, false))
		}
	}

	assert.FileExists(t, filepath.Join(root, "dist", "a.txt"))
	assert.FileExists(t, filepath.Join(root, "other", "e.txt"))
}

func TestRunTaskKeepsEarliestStart(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "one/a.txt", "two/b.txt", "three/c.txt")
	task := filepath.Join(root, "task.json")
	require.NoError(t, os.WriteFile(task, []byte(`{"options": {"dest": "dist"}, "paths": ["one/*.txt", "two/*.txt", "three/*.txt"]}`), 0o644))

	base := time.Now().Add(-time.Hour).Truncate(time.Millisecond)
	starts := []time.Time{base.Add(20 * time.Minute), base, base.Add(40 * time.Minute)}

	var mu sync.Mutex
	e := newEngine(t, copySeed(nil), root, func(s *Settings) {
		s.Clock = func() time.Time {
			mu.Lock()
			defer mu.Unlock()
			next := starts[0]
			starts = starts[1:]
			return next
		}
	})

	snap, err := e.RunTask(testContext(t), task)
	require.NoError(t, err)
	assert.Equal(t, 3, snap.Completed)
	assert.Equal(t, base.UnixMilli(), snap.StartTime, "merged start is the earliest batch start")
	assert.GreaterOrEqual(t, snap.ElapsedTime, time.Hour.Seconds())
}

func TestRunTaskEmpty(t *testing.T) {
	root := t.TempDir()
	task := filepath.Join(root, "task.yaml")
	require.NoError(t, os.WriteFile(task, []byte("options:\n  dot: true\n"), 0o644))

	e := newEngine(t, copySeed(nil), root)
	snap, err := e.RunTask(testContext(t), task)
	require.NoError(t, err)
	assert.Equal(t, 0, snap.Total)
	assert.NotNil(t, snap.EndTime)
}

func TestRunTaskFailure(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "one/a.txt")
	task := filepath.Join(root, "task.json")
	require.NoError(t, os.WriteFile(task, []byte(`{"options": {"dest": "dist"}, "paths": ["one/*.txt", "missing/*.txt"]}`), 0o644))

	e := newEngine(t, copySeed(nil), root)
	_, err := e.Run(testContext(t), task)
	require.Error(t, err)
	assert.True(t, errors.Is(err, glob.ErrNoMatches))
	assert.FileExists(t, filepath.Join(root, "dist", "a.txt"), "successful batches are not undone")
}

func TestRelativeTaskCwd(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "pkg/lib/a.txt")
	task := filepath.Join(root, "task.json")
	require.NoError(t, os.WriteFile(task, []byte(`{"options": {"cwd": "pkg", "dest": "out"}, "paths": ["lib/*.txt"]}`), 0o644))

	e := newEngine(t, copySeed(nil), root)
	snap, err := e.Run(testContext(t), "task.json")
	require.NoError(t, err)
	assert.Equal(t, 1, snap.Completed)
	assert.FileExists(t, filepath.Join(root, "pkg", "out", "a.txt"))
}

// 🧪 TestReporter checks every entry point error passes through the reporter
func TestReporter(t *testing.T) {
	root := t.TempDir()
	var seen []error
	wrapped := errors.Base("reported")

	e := newEngine(t, copySeed(nil), root).WithReporter(ReporterFunc(func(ctx context.Context, err error) error {
		seen = append(seen, err)
		return wrapped
	}))

	_, err := e.Run(testContext(t))
	require.Error(t, err)
	assert.True(t, errors.Is(err, wrapped))
	require.Len(t, seen, 1)
	assert.True(t, errors.Is(seen[0], ErrNoArguments))

	_, err = e.RunBatch(testContext(t), nil, "", config.Options{})
	require.Error(t, err)
	assert.Len(t, seen, 1, "RunBatch does not report")
}

func TestConsoleOutput(t *testing.T) {
	color.NoColor = true
	defer func() { color.NoColor = false }()

	root := t.TempDir()
	writeTree(t, root, "src/a.txt", "src/b.txt")

	var buf bytes.Buffer
	console := log.New(&buf, zerolog.New(zerolog.NewTestWriter(t)))
	ctx := log.NewContext(testContext(t), console)

	e := newEngine(t, copySeed(nil), root)
	_, err := e.Run(ctx, "src/*.txt", "out")
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "[o copy] Copied 2 files in ")
	assert.NotContains(t, out, "a.txt", "item lines are verbose only")

	buf.Reset()
	console.SetVerbose(true)
	_, err = e.Run(ctx, "src/*.txt", "out", map[string]any{"overwrite": true})
	require.NoError(t, err)
	out = buf.String()
	assert.Contains(t, out, "o copy » Copying 2 items")
	assert.Contains(t, out, filepath.Join("src", "a.txt")+" → out")
}
