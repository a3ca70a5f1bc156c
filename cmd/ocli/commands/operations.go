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
	"github.com/spf13/cobra"
	"github.com/walteh/ocli/cmd/ocli/opts"
	"github.com/walteh/ocli/pkg/ocli"
	"github.com/walteh/ocli/pkg/operation"
	"gitlab.com/tozd/go/errors"
)

// NewOperationCmds creates the command of every built-in operation.
func NewOperationCmds(opts *opts.RootOpts) ([]*cobra.Command, error) {
	metas := operation.All(opts.Cwd)

	cmds := make([]*cobra.Command, 0, len(metas))
	for _, meta := range metas {
		c, err := ocli.Define(meta)
		if err != nil {
			return nil, errors.Errorf("defining %s: %w", meta.Name, err)
		}
		cmd := c.Cobra()
		cmd.SilenceErrors = true
		cmd.SilenceUsage = true
		cmds = append(cmds, cmd)
	}
	return cmds, nil
}
