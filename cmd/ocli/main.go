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
	"context"
	"fmt"
	"os"

	"github.com/walteh/ocli/cmd/ocli/opts"
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:]))
}

// run executes the command line and returns the exit code. Failures after
// argument parsing are reported by the failing command itself.
func run(ctx context.Context, args []string) int {
	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ reading working directory: %v\n", err)
		return 1
	}

	o := opts.New(cwd, os.Stdout, os.Stderr)
	root, err := newRootCmd(o)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		return 1
	}
	root.SetArgs(args)

	if err := root.ExecuteContext(ctx); err != nil {
		if !o.Started() {
			fmt.Fprintf(os.Stderr, "❌ %v\nRun 'ocli --help' for usage.\n", err)
		}
		return 1
	}
	return 0
}
