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

// Package stats tracks the progress of a batch run: how many items were
// expected, how many completed and how long it took.
package stats

import (
	"encoding/json"
	"math"
	"sync"
	"time"

	"gitlab.com/tozd/go/errors"
)

var (
	// ErrInvalidState is returned when the stats lifecycle is misused.
	ErrInvalidState = errors.Base("invalid stats state")
	// ErrInvalidArgument is returned when an update count is not positive.
	ErrInvalidArgument = errors.Base("invalid stats argument")
	// ErrOverflow is returned when an update would push completed past total.
	ErrOverflow = errors.Base("completed count cannot be greater than total")
)

// now is swapped in tests.
var now = time.Now

// 🔢 Counter is anything that can be merged into a Stats
type Counter interface {
	Counts() (total int, completed int, start time.Time)
}

// 📊 Stats is a progress counter for one batch or task run
type Stats struct {
	mu        sync.Mutex
	total     int
	completed int
	start     time.Time
	end       time.Time
	ended     bool
}

var _ Counter = (*Stats)(nil)

// 🏭 New creates a stats counter, negative totals clamp to zero
func New(total int) *Stats {
	return NewAt(total, now())
}

// NewAt creates a stats counter that started at start.
func NewAt(total int, start time.Time) *Stats {
	return &Stats{
		total: max(total, 0),
		start: start,
	}
}

// Counts implements Counter.
func (s *Stats) Counts() (int, int, time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total, s.completed, s.start
}

// Total returns the expected item count.
func (s *Stats) Total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

// Completed returns the number of items counted so far.
func (s *Stats) Completed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.completed
}

// StartTime returns when the run started.
func (s *Stats) StartTime() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.start
}

// EndTime returns when the run ended and whether it has.
func (s *Stats) EndTime() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.end, s.ended
}

// Ended reports whether End has been called.
func (s *Stats) Ended() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ended
}

// 📝 SetTotal changes the expected item count
func (s *Stats) SetTotal(total int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ended {
		return errors.Errorf("%w: cannot set total after end", ErrInvalidState)
	}

	s.total = max(total, 0)
	return nil
}

// ➕ Update adds n completed items
func (s *Stats) Update(n int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ended {
		return errors.Errorf("%w: cannot update stats after end", ErrInvalidState)
	}
	if s.total == 0 {
		return errors.Errorf("%w: cannot update stats before total is set", ErrInvalidState)
	}
	if n < 1 {
		return errors.Errorf("%w: cannot update stats with %d", ErrInvalidArgument, n)
	}
	if s.completed+n > s.total {
		return errors.Errorf("%w: %d + %d > %d", ErrOverflow, s.completed, n, s.total)
	}

	s.completed += n
	return nil
}

// 🏁 End finalizes the run
func (s *Stats) End() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ended {
		return errors.Errorf("%w: end already called", ErrInvalidState)
	}

	s.end = now()
	s.ended = true
	return nil
}

// Percent returns completed/total in [0, 1].
func (s *Stats) Percent() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return percent(s.total, s.completed)
}

// ElapsedTime returns the run duration in seconds, rounded to milliseconds.
// An unended run is measured against the current time.
func (s *Stats) ElapsedTime() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.elapsed()
}

func (s *Stats) elapsed() float64 {
	end := s.end
	if !s.ended {
		end = now()
	}
	return seconds(end.Sub(s.start))
}

// 🔀 MergeWith returns a new unended Stats summing both counters and keeping
// the earlier start time. Neither input is modified.
func (s *Stats) MergeWith(other Counter) *Stats {
	total, completed, start := s.Counts()
	if other == nil {
		return &Stats{total: total, completed: completed, start: start}
	}

	otherTotal, otherCompleted, otherStart := other.Counts()
	if otherStart.Before(start) {
		start = otherStart
	}

	return &Stats{
		total:     total + otherTotal,
		completed: completed + otherCompleted,
		start:     start,
	}
}

// 🔀 Merge combines two counters, either of which may be a *Stats or a Snapshot.
func Merge(a, b Counter) *Stats {
	switch {
	case a == nil && b == nil:
		return New(0)
	case a == nil:
		a, b = b, nil
	}

	total, completed, start := a.Counts()
	base := &Stats{total: total, completed: completed, start: start}
	return base.MergeWith(b)
}

// 📸 Snapshot returns the plain data form of the stats
func (s *Stats) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Total:       s.total,
		Completed:   s.completed,
		Percent:     percent(s.total, s.completed),
		StartTime:   s.start.UnixMilli(),
		ElapsedTime: s.elapsed(),
	}
	if s.ended {
		end := s.end.UnixMilli()
		snap.EndTime = &end
	}
	return snap
}

// MarshalJSON encodes the stats as its snapshot.
func (s *Stats) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Snapshot())
}

// 📦 Snapshot is the plain data returned from every batch and task call
type Snapshot struct {
	Total       int     `json:"total"`
	Completed   int     `json:"completed"`
	Percent     float64 `json:"percent"`
	StartTime   int64   `json:"startTime"`
	EndTime     *int64  `json:"endTime"`
	ElapsedTime float64 `json:"elapsedTime"`
}

var _ Counter = Snapshot{}

// Counts implements Counter.
func (s Snapshot) Counts() (int, int, time.Time) {
	return max(s.Total, 0), max(s.Completed, 0), time.UnixMilli(s.StartTime)
}

func percent(total, completed int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(completed) / float64(total)
}

func seconds(d time.Duration) float64 {
	return math.Round(d.Seconds()*1000) / 1000
}
