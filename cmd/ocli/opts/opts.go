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

package opts

import (
	"context"
	"io"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/walteh/ocli/pkg/config"
	"github.com/walteh/ocli/pkg/log"
	"github.com/walteh/ocli/pkg/ocli"
	"gitlab.com/tozd/go/errors"
)

// EnvPrefix prefixes every environment variable bound to a global flag.
const EnvPrefix = "OCLI"

// RootOpts contains shared options used by all commands
type RootOpts struct {
	Cwd    string
	Stdout io.Writer
	Stderr io.Writer

	v       *viper.Viper
	started bool
}

// New creates root options for a process started in cwd.
func New(cwd string, stdout, stderr io.Writer) *RootOpts {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	return &RootOpts{Cwd: cwd, Stdout: stdout, Stderr: stderr, v: v}
}

// 🏳️ AddFlags registers the global flags and binds them to OCLI_* variables
func (o *RootOpts) AddFlags(fs *pflag.FlagSet) error {
	fs.BoolP("verbose", "V", false, "print progress and item lines")
	fs.BoolP("quiet", "q", false, "print nothing but errors")
	fs.Bool("debug", false, "enable debug logging")
	fs.Int("concurrency", 0, "limit concurrent operations, 0 means unlimited")

	for _, name := range []string{"verbose", "quiet", "debug", "concurrency"} {
		if err := o.v.BindPFlag(name, fs.Lookup(name)); err != nil {
			return errors.Errorf("binding flag %q: %w", name, err)
		}
	}
	return nil
}

func (o *RootOpts) Verbose() bool { return o.v.GetBool("verbose") }

func (o *RootOpts) Quiet() bool { return o.v.GetBool("quiet") }

func (o *RootOpts) Debug() bool { return o.v.GetBool("debug") }

func (o *RootOpts) Concurrency() int { return o.v.GetInt("concurrency") }

// 📝 Loggers builds the structured logger and the console logger
func (o *RootOpts) Loggers() (zerolog.Logger, *log.Logger) {
	level := zerolog.WarnLevel
	if o.Debug() {
		level = zerolog.DebugLevel
	}
	zlog := zerolog.New(zerolog.ConsoleWriter{Out: o.Stderr}).Level(level).With().Timestamp().Logger()

	console := log.New(o.Stdout, zlog).
		SetEnabled(!o.Quiet()).
		SetVerbose(o.Verbose() && !o.Quiet())
	return zlog, console
}

// Started reports whether a command got past argument parsing.
func (o *RootOpts) Started() bool { return o.started }

// GlobalOptions returns the option layer the global flags contribute.
func (o *RootOpts) GlobalOptions() config.Options {
	var opts config.Options
	if n := o.Concurrency(); n > 0 {
		opts.Concurrency = &n
	}
	return opts
}

// 🔧 Context attaches loggers and global options to ctx
func (o *RootOpts) Context(ctx context.Context) context.Context {
	o.started = true
	zlog, console := o.Loggers()
	ctx = zlog.WithContext(ctx)
	ctx = log.NewContext(ctx, console)
	return ocli.WithGlobalOptions(ctx, o.GlobalOptions())
}
