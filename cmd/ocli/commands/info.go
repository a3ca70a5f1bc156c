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

package commands

import (
	"fmt"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/walteh/ocli/cmd/ocli/opts"
	"github.com/walteh/ocli/pkg/log"
	"github.com/walteh/ocli/pkg/ocli"
	"github.com/walteh/ocli/pkg/operation"
	"gitlab.com/tozd/go/errors"
)

// NewInfoCmd creates the info command, a table of the available commands.
func NewInfoCmd(opts *opts.RootOpts, version string) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Output info about the available commands",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			data := [][]string{{"command", "aliases", "task", "description"}}
			for _, meta := range operation.All(opts.Cwd) {
				c, err := ocli.Define(meta)
				if err != nil {
					return errors.Errorf("defining %s: %w", meta.Name, err)
				}
				task := ""
				if c.SupportsBatchTask() {
					task = "✓"
				}
				data = append(data, []string{"• " + meta.Name, strings.Join(meta.Aliases, ", "), task, meta.Short})
			}

			fmt.Fprintf(out, "\nocli %s\n\n", version)
			if err := pterm.DefaultTable.WithHasHeader().WithData(data).WithWriter(out).Render(); err != nil {
				err = errors.Errorf("rendering table: %w", err)
				log.FromContext(cmd.Context()).Error(err.Error())
				return err
			}
			fmt.Fprintf(out, "\ncwd: %s\n", opts.Cwd)
			return nil
		},
	}
}
