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

	"github.com/walteh/ocli/pkg/config"
	"gitlab.com/tozd/go/errors"
)

// 🔢 Arity is the call shape of a seed operation
type Arity int

const (
	// ArityTwo seeds are called with (path, options).
	ArityTwo Arity = 2
	// ArityThree seeds are called with (path, dest, options).
	ArityThree Arity = 3
)

// TargetFunc is a seed that acts on a path in place. It returns false to
// skip the item without counting it.
type TargetFunc func(ctx context.Context, path string, opts config.Options) (bool, error)

// TransferFunc is a seed that moves a path's content to dest. It returns
// false to skip the item without counting it.
type TransferFunc func(ctx context.Context, path, dest string, opts config.Options) (bool, error)

// 🌱 Seed is a single item operation tagged with its arity
type Seed struct {
	arity    Arity
	target   TargetFunc
	transfer TransferFunc
}

// TargetSeed wraps a (path, options) operation.
func TargetSeed(fn TargetFunc) Seed {
	return Seed{arity: ArityTwo, target: fn}
}

// TransferSeed wraps a (path, dest, options) operation.
func TransferSeed(fn TransferFunc) Seed {
	return Seed{arity: ArityThree, transfer: fn}
}

// Arity returns the call shape of the seed.
func (s Seed) Arity() Arity {
	return s.arity
}

func (s Seed) validate() error {
	switch {
	case s.arity == ArityTwo && s.target != nil:
		return nil
	case s.arity == ArityThree && s.transfer != nil:
		return nil
	default:
		return errors.Errorf("%w: %d", ErrInvalidSeedArity, s.arity)
	}
}

// Invoke calls the seed with the shape its arity declares.
func (s Seed) Invoke(ctx context.Context, path, dest string, opts config.Options) (bool, error) {
	switch s.arity {
	case ArityTwo:
		return s.target(ctx, path, opts)
	case ArityThree:
		return s.transfer(ctx, path, dest, opts)
	default:
		return false, errors.Errorf("%w: %d", ErrInvalidSeedArity, s.arity)
	}
}
