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

package status

import (
	"fmt"
	"strconv"

	"github.com/walteh/ocli/pkg/stats"
)

// Formatter defines how batch progress and results are worded
type Formatter interface {
	// FormatProgress formats a progress message
	FormatProgress(current, total int) string

	// FormatItem formats the per-item progress line
	FormatItem(verb string, index, total int) string

	// FormatBatch formats the per-batch line of a task
	FormatBatch(index, total int) string

	// FormatSummary formats the closing line of a batch or task
	FormatSummary(verb string, snap stats.Snapshot) string

	// FormatError formats an error message
	FormatError(err error) string
}

// DefaultFormatter provides the default wording
type DefaultFormatter struct{}

var _ Formatter = (*DefaultFormatter)(nil)

// NewDefaultFormatter creates a new DefaultFormatter
func NewDefaultFormatter() *DefaultFormatter {
	return &DefaultFormatter{}
}

// FormatProgress formats a progress message with percentage
func (f *DefaultFormatter) FormatProgress(current, total int) string {
	current, total = max(current, 0), max(total, 0)

	var percentage float64
	if total == 0 {
		percentage = 0
		if current > 0 {
			percentage = 100
		}
	} else {
		percentage = min(float64(current)/float64(total)*100, 100)
	}

	if current >= total {
		return fmt.Sprintf("✅ Progress: %d/%d (%.0f%%)", current, total, percentage)
	}
	return fmt.Sprintf("⏳ Progress: %d/%d (%.0f%%)", current, total, percentage)
}

// FormatItem formats e.g. "Copying item 2 of 5"
func (f *DefaultFormatter) FormatItem(verb string, index, total int) string {
	return fmt.Sprintf("%s item %d of %d", verb, index, total)
}

// FormatBatch formats e.g. "Processing batch 1 of 3..."
func (f *DefaultFormatter) FormatBatch(index, total int) string {
	return fmt.Sprintf("Processing batch %d of %d...", index, total)
}

// FormatSummary formats e.g. "Copied 3 files in 0.012 secs."
func (f *DefaultFormatter) FormatSummary(verb string, snap stats.Snapshot) string {
	noun := "files"
	if snap.Completed == 1 {
		noun = "file"
	}
	return fmt.Sprintf("%s %d %s in %s secs.", verb, snap.Completed, noun, trimFloat(snap.ElapsedTime))
}

// FormatError formats an error message with emoji
func (f *DefaultFormatter) FormatError(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("❌ Error: %v", err)
}

func trimFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
