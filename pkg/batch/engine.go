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
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/walteh/ocli/pkg/config"
	"github.com/walteh/ocli/pkg/glob"
	"github.com/walteh/ocli/pkg/log"
	"github.com/walteh/ocli/pkg/stats"
	"github.com/walteh/ocli/pkg/status"
	"gitlab.com/tozd/go/errors"
)

var (
	// ErrInvalidSeedArity is returned when a seed is not a two or three argument operation.
	ErrInvalidSeedArity = errors.Base("invalid seed arity")
	// ErrNoArguments is returned when the engine is called without arguments.
	ErrNoArguments = errors.Base("no arguments")
	// ErrInvalidSource is returned when a batch has no source.
	ErrInvalidSource = errors.Base("Invalid source.")
	// ErrInvalidItem is returned when a task entry cannot be normalized.
	ErrInvalidItem = errors.Base("invalid batch item")
	// ErrMissingCwd is returned when the engine defaults carry no cwd.
	ErrMissingCwd = errors.Base("missing cwd")
)

// 🔍 PathResolver expands source patterns into paths
type PathResolver interface {
	Resolve(ctx context.Context, patterns []string, opts glob.Options, failOnEmpty bool) ([]string, error)
}

// 📣 Reporter receives every error that reaches the engine entry point and
// returns the error the caller sees
type Reporter interface {
	Fail(ctx context.Context, err error) error
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(ctx context.Context, err error) error

// Fail implements Reporter.
func (f ReporterFunc) Fail(ctx context.Context, err error) error { return f(ctx, err) }

// ReturnReporter hands errors back unchanged, for programmatic callers.
var ReturnReporter Reporter = ReporterFunc(func(_ context.Context, err error) error { return err })

// ⚙️ Settings describes how an engine processes its seed
type Settings struct {
	// Verb names the work in progress lines, e.g. "Copying".
	Verb string
	// Done names the finished work in summaries, e.g. "Copied".
	Done string
	// UseGlobs expands sources through the resolver, otherwise sources are
	// taken literally.
	UseGlobs bool
	// Files and Directories select the entry types globs may match.
	Files       bool
	Directories bool
	// Defaults is the lowest option layer. Cwd must be set.
	Defaults config.Options

	Resolver  PathResolver
	Reporter  Reporter
	Formatter status.Formatter
	// Clock stamps the start of every batch. Defaults to time.Now.
	Clock func() time.Time
}

// 🏭 Engine turns a single item seed into batch and task processing
type Engine struct {
	name     string
	seed     Seed
	settings Settings
}

// 🏗️ New creates an engine for seed
func New(name string, seed Seed, settings Settings) (*Engine, error) {
	if err := seed.validate(); err != nil {
		return nil, err
	}
	if config.Or(settings.Defaults.Cwd, "") == "" {
		return nil, errors.Errorf("%w: engine %q", ErrMissingCwd, name)
	}

	if settings.Resolver == nil {
		settings.Resolver = glob.NewResolver()
	}
	if settings.Reporter == nil {
		settings.Reporter = ReturnReporter
	}
	if settings.Formatter == nil {
		settings.Formatter = status.NewDefaultFormatter()
	}
	if settings.Clock == nil {
		settings.Clock = time.Now
	}
	if settings.Verb == "" {
		settings.Verb = "Processing"
	}
	if settings.Done == "" {
		settings.Done = "Processed"
	}
	if !settings.Files && !settings.Directories {
		settings.Files = true
	}

	return &Engine{
		name:     name,
		seed:     seed,
		settings: settings,
	}, nil
}

// Name returns the engine name.
func (e *Engine) Name() string { return e.name }

// Settings returns the engine settings.
func (e *Engine) Settings() Settings { return e.settings }

// WithReporter returns a copy of the engine that reports failures to r.
func (e *Engine) WithReporter(r Reporter) *Engine {
	cp := *e
	cp.settings.Reporter = r
	return &cp
}

// WithDefaults returns a copy of the engine with layers merged over its defaults.
func (e *Engine) WithDefaults(layers ...config.Options) *Engine {
	cp := *e
	cp.settings.Defaults = config.Merge(append([]config.Options{e.settings.Defaults}, layers...)...)
	return &cp
}

// 🚦 Run dispatches on the number of arguments:
//
//	Run(ctx, taskFile)
//	Run(ctx, src, dest)
//	Run(ctx, src, options)
//	Run(ctx, src, dest, options)
//
// src is a string (comma separated patterns) or a []string. options is a
// config.Options, *config.Options or map[string]any. Every error goes
// through the engine reporter.
func (e *Engine) Run(ctx context.Context, args ...any) (*stats.Snapshot, error) {
	ctx, console := e.scope(ctx)

	snap, err := e.dispatch(ctx, args)
	if err != nil {
		console.Zerolog().Debug().Err(err).Msg("run failed")
		return nil, e.settings.Reporter.Fail(ctx, err)
	}
	return snap, nil
}

func (e *Engine) dispatch(ctx context.Context, args []any) (*stats.Snapshot, error) {
	switch len(args) {
	case 0:
		return nil, errors.WithStack(ErrNoArguments)
	case 1:
		file, ok := args[0].(string)
		if !ok || file == "" {
			return nil, errors.Errorf("%w: task file must be a path, got %T", ErrInvalidSource, args[0])
		}
		return e.runTask(ctx, file)
	}

	src, err := toSource(args[0])
	if err != nil {
		return nil, err
	}

	if len(args) == 2 {
		if dest, ok := args[1].(string); ok {
			return e.runStandalone(ctx, src, dest, config.Options{})
		}
		opts, err := toOptions(args[1])
		if err != nil {
			return nil, err
		}
		return e.runStandalone(ctx, src, "", opts)
	}

	var dest string
	if args[1] != nil {
		var ok bool
		if dest, ok = args[1].(string); !ok {
			return nil, errors.Errorf("destination must be a string, got %T", args[1])
		}
	}
	opts, err := toOptions(args[2])
	if err != nil {
		return nil, err
	}
	return e.runStandalone(ctx, src, dest, opts)
}

// 📦 RunBatch processes one batch: src is expanded and the seed runs on every
// resulting path. It does not go through the reporter.
func (e *Engine) RunBatch(ctx context.Context, src []string, dest string, opts config.Options) (*stats.Snapshot, error) {
	ctx, _ = e.scope(ctx)
	return e.runStandalone(ctx, src, dest, opts)
}

// 📋 RunTask processes a task file: one batch per entry, merged into one
// result. It does not go through the reporter.
func (e *Engine) RunTask(ctx context.Context, file string) (*stats.Snapshot, error) {
	ctx, _ = e.scope(ctx)
	return e.runTask(ctx, file)
}

// scope tags the context loggers with the command and a run id.
func (e *Engine) scope(ctx context.Context) (context.Context, *log.Logger) {
	zlog := zerolog.Ctx(ctx).With().
		Str("command", e.name).
		Str("run_id", uuid.NewString()).
		Logger()
	ctx = zlog.WithContext(ctx)

	console := log.FromContext(ctx).WithName(e.name).WithZerolog(zlog)
	return log.NewContext(ctx, console), console
}

func (e *Engine) runStandalone(ctx context.Context, src []string, dest string, opts config.Options) (*stats.Snapshot, error) {
	st, err := e.runBatch(ctx, src, dest, opts, false)
	if err != nil {
		return nil, err
	}
	snap := st.Snapshot()
	return &snap, nil
}

func (e *Engine) runBatch(ctx context.Context, src []string, dest string, opts config.Options, sub bool) (*stats.Stats, error) {
	console := log.FromContext(ctx)

	if len(src) == 0 {
		return nil, errors.WithStack(ErrInvalidSource)
	}

	merged := config.Merge(e.settings.Defaults, opts)
	cwd := e.resolveCwd(merged.Cwd)
	merged.Cwd = &cwd

	if dest != "" && !filepath.IsAbs(dest) {
		dest = filepath.Join(cwd, dest)
	}

	paths, err := e.paths(ctx, src, merged)
	if err != nil {
		return nil, err
	}

	st := stats.NewAt(len(paths), e.settings.Clock())

	zerolog.Ctx(ctx).Debug().
		Strs("src", src).
		Str("dest", dest).
		Int("total", len(paths)).
		Bool("sub_batch", sub).
		Object("options", merged).
		Msg("starting batch")

	if !sub && len(paths) > 1 {
		console.Title(fmt.Sprintf("%s %d items", e.settings.Verb, len(paths)))
	}

	runner := NewRunner(zerolog.Ctx(ctx), config.Or(merged.Concurrency, 0))
	err = runner.Run(ctx, len(paths), func(ctx context.Context, i int) error {
		path := paths[i]
		item := log.ItemOperation{
			Path:  display(cwd, path),
			Dest:  display(cwd, dest),
			Verb:  e.settings.Done,
			Index: i + 1,
			Total: len(paths),
		}

		zerolog.Ctx(ctx).Trace().Msg(e.settings.Formatter.FormatItem(e.settings.Verb, i+1, len(paths)))

		ok, err := e.seed.Invoke(ctx, path, dest, merged)
		if err != nil {
			item.Failed = true
			console.Item(item)
			return err
		}
		if !ok {
			item.Skipped = true
			console.Item(item)
			return nil
		}

		console.Item(item)
		return st.Update(1)
	})
	if err != nil {
		return nil, err
	}

	if err := st.End(); err != nil {
		return nil, err
	}

	if !sub {
		console.Success(console.Prefix(e.settings.Formatter.FormatSummary(e.settings.Done, st.Snapshot())))
	}

	return st, nil
}

// paths expands src into absolute paths.
func (e *Engine) paths(ctx context.Context, src []string, opts config.Options) ([]string, error) {
	cwd := config.Or(opts.Cwd, "")

	var resolved []string
	if e.settings.UseGlobs {
		var err error
		resolved, err = e.settings.Resolver.Resolve(ctx, src, glob.Options{
			Cwd:                        cwd,
			Dot:                        config.Or(opts.Dot, false),
			OnlyFiles:                  e.settings.Files && !e.settings.Directories,
			OnlyDirectories:            e.settings.Directories && !e.settings.Files,
			FollowSymlinkedDirectories: config.Or(opts.Dereference, false),
		}, true)
		if err != nil {
			if config.Or(opts.Force, false) {
				zerolog.Ctx(ctx).Debug().Err(err).Msg("ignoring resolve error")
				return nil, nil
			}
			return nil, err
		}
	} else {
		for _, s := range src {
			if s = strings.TrimSpace(s); s != "" {
				resolved = append(resolved, s)
			}
		}
	}

	out := make([]string, len(resolved))
	for i, p := range resolved {
		if !filepath.IsAbs(p) {
			p = filepath.Join(cwd, p)
		}
		out[i] = filepath.Clean(p)
	}
	return out, nil
}

func (e *Engine) runTask(ctx context.Context, file string) (*stats.Snapshot, error) {
	console := log.FromContext(ctx)
	base := e.resolveCwd(nil)

	if !filepath.IsAbs(file) {
		file = filepath.Join(base, file)
	}

	cfg, err := config.ReadBatchConfig(ctx, file, e.settings.Defaults)
	if err != nil {
		return nil, err
	}

	global := cfg.Options
	cwd := e.resolveCwd(global.Cwd)
	global.Cwd = &cwd
	if d := config.Or(global.Dest, ""); d != "" && !filepath.IsAbs(d) {
		global.Dest = config.Ptr(filepath.Join(cwd, d))
	}

	items := make([]Item, len(cfg.Paths))
	for i, entry := range cfg.Paths {
		item, err := NormalizeItem(entry, global, config.Or(e.settings.Defaults.Dest, ""))
		if err != nil {
			return nil, errors.Errorf("paths[%d]: %w", i, err)
		}
		items[i] = item
	}

	var (
		mu     sync.Mutex
		merged *stats.Stats
		done   int
	)

	runner := NewRunner(zerolog.Ctx(ctx), 0)
	err = runner.Run(ctx, len(items), func(ctx context.Context, i int) error {
		console.Info(e.settings.Formatter.FormatBatch(i+1, len(items)))

		st, err := e.runBatch(ctx, items[i].Src, items[i].Dest, items[i].Options, true)
		if err != nil {
			return err
		}

		mu.Lock()
		defer mu.Unlock()
		if merged == nil {
			merged = stats.Merge(st, nil)
		} else {
			merged = merged.MergeWith(st)
		}
		done++
		console.Data(e.settings.Formatter.FormatProgress(done, len(items)))
		return nil
	})
	if err != nil {
		return nil, err
	}

	if merged == nil {
		merged = stats.New(0)
	}
	if err := merged.End(); err != nil {
		return nil, err
	}

	snap := merged.Snapshot()
	console.Success(console.Prefix(e.settings.Formatter.FormatSummary(e.settings.Done, snap)))
	return &snap, nil
}

// resolveCwd anchors a relative cwd on the engine default.
func (e *Engine) resolveCwd(cwd *string) string {
	base := config.Or(e.settings.Defaults.Cwd, "")
	c := config.Or(cwd, base)
	if c == "" {
		return base
	}
	if !filepath.IsAbs(c) {
		c = filepath.Join(base, c)
	}
	return c
}

func display(cwd, path string) string {
	if path == "" {
		return ""
	}
	if rel, err := filepath.Rel(cwd, path); err == nil {
		return rel
	}
	return path
}

func toSource(v any) ([]string, error) {
	switch s := v.(type) {
	case nil:
		return nil, nil
	case string:
		return glob.SplitPatterns(s), nil
	case []string:
		return s, nil
	default:
		return nil, errors.Errorf("%w: expected string or []string, got %T", ErrInvalidSource, v)
	}
}

func toOptions(v any) (config.Options, error) {
	switch o := v.(type) {
	case nil:
		return config.Options{}, nil
	case config.Options:
		return o, nil
	case *config.Options:
		if o == nil {
			return config.Options{}, nil
		}
		return *o, nil
	case map[string]any:
		return config.OptionsFromMap(o)
	default:
		return config.Options{}, errors.Errorf("options must be config.Options or a map, got %T", v)
	}
}
