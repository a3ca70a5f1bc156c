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

package ocli

import (
	"context"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/walteh/ocli/pkg/batch"
	"github.com/walteh/ocli/pkg/config"
	"gitlab.com/tozd/go/errors"
)

// ErrUsage is returned when command line arguments do not fit the command.
var ErrUsage = errors.Base("invalid usage")

// ConfigFlag is the task/config file flag every batch command gets.
const ConfigFlag = "config"

type globalKey struct{}

// WithGlobalOptions stores process wide options (from the root command) in ctx.
func WithGlobalOptions(ctx context.Context, opts config.Options) context.Context {
	return context.WithValue(ctx, globalKey{}, opts)
}

// GlobalOptions returns the options stored by WithGlobalOptions.
func GlobalOptions(ctx context.Context) config.Options {
	opts, _ := ctx.Value(globalKey{}).(config.Options)
	return opts
}

// 🐍 Cobra builds the command line form of the command. Batch capable
// commands are marked with (*) and take --config for task files. Failures
// are logged with the command prefix.
func (c *Command) Cobra() *cobra.Command {
	short := c.meta.Short
	if c.SupportsBatchTask() {
		short += " (*)"
	}

	use := c.meta.Use
	if use == "" {
		use = c.meta.Name
	}

	cmd := &cobra.Command{
		Use:     use,
		Aliases: c.meta.Aliases,
		Short:   short,
		Long:    c.meta.Long,
		Example: c.meta.Example,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			reporter := CLIReporter(c.meta.Name)

			flagOpts, err := FlagOptions(cmd.Flags())
			if err != nil {
				return reporter.Fail(ctx, err)
			}
			opts := config.Merge(GlobalOptions(ctx), flagOpts)

			argsFn := c.meta.Args
			if argsFn == nil && c.engine != nil {
				argsFn = DefaultArgs(c.meta.Seed.Arity())
			}
			if argsFn == nil {
				return reporter.Fail(ctx, errors.Errorf("%w: %q has no argument mapping", ErrInvalidDefinition, c.meta.Name))
			}

			callArgs, err := argsFn(cmd, args, opts)
			if err != nil {
				return reporter.Fail(ctx, err)
			}

			var out any
			if c.engine != nil {
				out, err = c.engine.WithDefaults(opts).WithReporter(reporter).Run(ctx, callArgs...)
			} else {
				out, err = c.call(ctx, reporter, callArgs)
			}
			if err != nil {
				return err
			}

			zerolog.Ctx(ctx).Debug().Interface("result", out).Msg("command finished")
			return nil
		},
	}

	if c.SupportsBatchTask() {
		cmd.Flags().StringP(ConfigFlag, "c", "", "task file (json, yaml, toml or hcl)")
	}
	if c.meta.Flags != nil {
		c.meta.Flags(cmd.Flags())
	}

	return cmd
}

// DefaultArgs maps argv for batch commands:
//
//	cmd --config task.json
//	cmd <src>... <dest>   (three argument seeds)
//	cmd <src>...          (two argument seeds)
func DefaultArgs(arity batch.Arity) ArgsFunc {
	return func(cmd *cobra.Command, args []string, _ config.Options) ([]any, error) {
		if f := cmd.Flags().Lookup(ConfigFlag); f != nil && f.Value.String() != "" {
			if len(args) > 0 {
				return nil, errors.Errorf("%w: --config cannot be combined with sources", ErrUsage)
			}
			return []any{f.Value.String()}, nil
		}

		if arity == batch.ArityThree {
			if len(args) < 2 {
				return nil, errors.Errorf("%w: expected <src>... <dest>", ErrUsage)
			}
			return []any{args[:len(args)-1], args[len(args)-1]}, nil
		}

		if len(args) < 1 {
			return nil, errors.Errorf("%w: expected <src>...", ErrUsage)
		}
		return []any{args, config.Options{}}, nil
	}
}

// RegisterParents adds a --parents flag that accepts a bare switch or a level count.
func RegisterParents(fs *pflag.FlagSet, shorthand, usage string) {
	fs.StringP("parents", shorthand, "", usage)
	fs.Lookup("parents").NoOptDefVal = "true"
}

// 🏳️ FlagOptions reads every changed flag back into options. Flags named
// after option keys fill the matching field, other flags land in Extra under
// their camelCase name.
func FlagOptions(fs *pflag.FlagSet) (config.Options, error) {
	var opts config.Options
	var err error

	fs.Visit(func(f *pflag.Flag) {
		if err != nil || f.Name == ConfigFlag {
			return
		}
		err = setFlag(fs, f, &opts)
	})
	if err != nil {
		return config.Options{}, err
	}

	return opts, nil
}

func setFlag(fs *pflag.FlagSet, f *pflag.Flag, opts *config.Options) error {
	value := f.Value.String()

	boolField := func(dst **bool) error {
		b, err := strconv.ParseBool(value)
		if err != nil {
			return errors.Errorf("flag --%s: %w", f.Name, err)
		}
		*dst = &b
		return nil
	}

	switch f.Name {
	case "cwd":
		opts.Cwd = config.Ptr(value)
	case "dot":
		return boolField(&opts.Dot)
	case "dereference":
		return boolField(&opts.Dereference)
	case "force":
		return boolField(&opts.Force)
	case "overwrite":
		return boolField(&opts.Overwrite)
	case "error-on-exists":
		return boolField(&opts.ErrorOnExists)
	case "timestamps":
		return boolField(&opts.Timestamps)
	case "remove-comments":
		return boolField(&opts.RemoveComments)
	case "parents":
		if b, err := strconv.ParseBool(value); err == nil {
			opts.Parents = &config.Parents{Enabled: b}
			return nil
		}
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return errors.Errorf("flag --parents: expected true, false or a level count, got %q", value)
		}
		opts.Parents = &config.Parents{Enabled: n > 0, Levels: n}
	case "indent":
		if n, err := strconv.Atoi(value); err == nil {
			opts.Indent = config.Ptr(strings.Repeat(" ", max(n, 0)))
		} else {
			opts.Indent = config.Ptr(strings.ReplaceAll(value, `\t`, "\t"))
		}
	case "mode":
		if _, err := config.ParseMode(value); err != nil {
			return errors.Errorf("flag --mode: %w", err)
		}
		opts.Mode = config.Ptr(value)
	case "concurrency":
		n, err := strconv.Atoi(value)
		if err != nil {
			return errors.Errorf("flag --concurrency: %w", err)
		}
		opts.Concurrency = &n
	default:
		v, err := flagValue(fs, f)
		if err != nil {
			return err
		}
		if opts.Extra == nil {
			opts.Extra = make(map[string]any)
		}
		opts.Extra[camelCase(f.Name)] = v
	}
	return nil
}

func flagValue(fs *pflag.FlagSet, f *pflag.Flag) (any, error) {
	var (
		v   any
		err error
	)
	switch f.Value.Type() {
	case "bool":
		v, err = fs.GetBool(f.Name)
	case "int":
		v, err = fs.GetInt(f.Name)
	case "stringSlice":
		v, err = fs.GetStringSlice(f.Name)
	case "stringArray":
		v, err = fs.GetStringArray(f.Name)
	case "stringToString":
		var m map[string]string
		m, err = fs.GetStringToString(f.Name)
		if err == nil {
			out := make(map[string]any, len(m))
			for k, val := range m {
				out[k] = val
			}
			v = out
		}
	default:
		v = f.Value.String()
	}
	if err != nil {
		return nil, errors.Errorf("flag --%s: %w", f.Name, err)
	}
	return v, nil
}

// camelCase turns "remove-dev-deps" into "removeDevDeps".
func camelCase(name string) string {
	parts := strings.Split(name, "-")
	for i := 1; i < len(parts); i++ {
		if parts[i] != "" {
			parts[i] = strings.ToUpper(parts[i][:1]) + parts[i][1:]
		}
	}
	return strings.Join(parts, "")
}
