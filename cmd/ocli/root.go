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

package main

import (
	"github.com/spf13/cobra"
	"github.com/walteh/ocli/cmd/ocli/commands"
	"github.com/walteh/ocli/cmd/ocli/opts"
)

// newRootCmd builds the ocli command tree. Global flags are bound to
// OCLI_* environment variables.
func newRootCmd(o *opts.RootOpts) (*cobra.Command, error) {
	root := &cobra.Command{
		Use:   "ocli",
		Short: "Glob driven file utilities with batch task files",
		Long: `ocli runs file operations over glob patterns, either directly from the
command line or from task files (json, yaml, toml or hcl) that describe many
batches at once. Commands marked with (*) accept --config for task files.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cmd.SetContext(o.Context(cmd.Context()))
		},
	}
	root.SetOut(o.Stdout)
	root.SetErr(o.Stderr)

	if err := o.AddFlags(root.PersistentFlags()); err != nil {
		return nil, err
	}

	ops, err := commands.NewOperationCmds(o)
	if err != nil {
		return nil, err
	}
	root.AddCommand(ops...)
	root.AddCommand(
		commands.NewInfoCmd(o, GetVersionInfo().Version),
		newVersionCmd(),
	)

	return root, nil
}
