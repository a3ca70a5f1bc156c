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

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// 🏃 Runner launches units of work concurrently and joins them
type Runner struct {
	logger *zerolog.Logger
	limit  int
}

// 🏗️ NewRunner creates a runner. A limit of zero or less runs every unit at once.
func NewRunner(logger *zerolog.Logger, limit int) *Runner {
	return &Runner{
		logger: logger,
		limit:  limit,
	}
}

// 🏃 Run calls fn for every index in [0, n) concurrently and waits for all of
// them. The first error is returned once every unit has settled. Units that
// already started keep running after a sibling fails and their side effects
// stay in place.
func (r *Runner) Run(ctx context.Context, n int, fn func(ctx context.Context, i int) error) error {
	var g errgroup.Group
	if r.limit > 0 {
		g.SetLimit(r.limit)
	}

	r.logger.Trace().Int("units", n).Int("limit", r.limit).Msg("running units")

	for i := range n {
		g.Go(func() error {
			return fn(ctx, i)
		})
	}

	return g.Wait()
}
