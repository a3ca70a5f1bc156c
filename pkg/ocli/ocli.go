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

// Package ocli binds seed operations and their metadata into commands that
// can be called from Go or run from the command line.
package ocli

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/walteh/ocli/pkg/batch"
	"github.com/walteh/ocli/pkg/config"
	"github.com/walteh/ocli/pkg/log"
	"gitlab.com/tozd/go/errors"
)

// ErrInvalidDefinition is returned when a command definition is incomplete.
var ErrInvalidDefinition = errors.Base("invalid command definition")

// DirectFunc implements a command that does not go through the batch engine.
type DirectFunc func(ctx context.Context, args ...any) (any, error)

// ArgsFunc maps command line input to call arguments.
type ArgsFunc func(cmd *cobra.Command, args []string, opts config.Options) ([]any, error)

// 📝 Meta describes a command
type Meta struct {
	Name    string
	Use     string
	Aliases []string
	Short   string
	Long    string
	Example string

	// Seed and Batch define a batch command.
	Seed  batch.Seed
	Batch *batch.Settings

	// Direct defines a command that handles its own arguments.
	Direct DirectFunc

	// Flags registers command flags. Flags named after option keys are read
	// back into the call options when set.
	Flags func(fs *pflag.FlagSet)
	// Args maps argv to call arguments. Batch commands default to
	// DefaultArgs.
	Args ArgsFunc
}

// 🎯 Command is a defined command
type Command struct {
	meta   Meta
	engine *batch.Engine
}

// 🏭 Define validates meta and builds the command
func Define(meta Meta) (*Command, error) {
	if meta.Name == "" {
		return nil, errors.Errorf("%w: missing name", ErrInvalidDefinition)
	}
	if (meta.Batch == nil) == (meta.Direct == nil) {
		return nil, errors.Errorf("%w: %q needs exactly one of batch settings or a direct function", ErrInvalidDefinition, meta.Name)
	}

	c := &Command{meta: meta}

	if meta.Batch != nil {
		engine, err := batch.New(meta.Name, meta.Seed, *meta.Batch)
		if err != nil {
			return nil, errors.Errorf("defining %q: %w", meta.Name, err)
		}
		c.engine = engine
	}

	return c, nil
}

// Name returns the command name.
func (c *Command) Name() string { return c.meta.Name }

// Meta returns the command metadata.
func (c *Command) Meta() Meta { return c.meta }

// SupportsBatchTask reports whether the command accepts task files.
func (c *Command) SupportsBatchTask() bool { return c.engine != nil }

// Engine returns the batch engine, nil for direct commands.
func (c *Command) Engine() *batch.Engine { return c.engine }

// 🚀 Fn calls the command programmatically. Errors are returned to the caller.
// Batch commands return a *stats.Snapshot.
func (c *Command) Fn(ctx context.Context, args ...any) (any, error) {
	return c.call(ctx, batch.ReturnReporter, args)
}

func (c *Command) call(ctx context.Context, reporter batch.Reporter, args []any) (any, error) {
	if c.engine != nil {
		snap, err := c.engine.WithReporter(reporter).Run(ctx, args...)
		if err != nil {
			return nil, err
		}
		return snap, nil
	}

	ctx = log.NewContext(ctx, log.FromContext(ctx).WithName(c.meta.Name))
	out, err := c.meta.Direct(ctx, args...)
	if err != nil {
		return nil, reporter.Fail(ctx, err)
	}
	return out, nil
}

// Prefix tags a message with the command name.
func (c *Command) Prefix(msg string) string {
	return log.Discard().WithName(c.meta.Name).Prefix(msg)
}

// Fail reports err the way the command line does: logged with the command
// prefix, then returned.
func (c *Command) Fail(ctx context.Context, err error) error {
	return CLIReporter(c.meta.Name).Fail(ctx, err)
}

// CLIReporter logs failures with the command prefix and returns them so the
// process can exit non-zero.
func CLIReporter(name string) batch.Reporter {
	return batch.ReporterFunc(func(ctx context.Context, err error) error {
		console := log.FromContext(ctx).WithName(name)
		console.Error(console.Prefix(err.Error()))
		return err
	})
}
