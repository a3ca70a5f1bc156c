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

package log

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
)

// 🎨 Display configuration
const (
	itemIndent = 4  // spaces to indent item entries
	nameWidth  = 35 // base width for item paths
	verbWidth  = 10 // width for the verb column
	mark       = "»"
)

// 🎯 ItemOperation is one seed invocation for display
type ItemOperation struct {
	Path    string // source path of the item
	Dest    string // destination, if any
	Verb    string // what was done (Copied, Removed, ...)
	Index   int    // 1-based position in the batch
	Total   int    // batch size
	Skipped bool   // the operation declined the item
	Failed  bool   // the operation errored
}

// 🎯 Logger prints console lines for a command and mirrors them to zerolog
// at debug level or below, so the structured log repeats them only when
// debugging. Title, Info, Data and item lines only print in verbose mode.
// Success, Warning and Error print whenever the logger is enabled.
type Logger struct {
	zlog    zerolog.Logger
	console io.Writer
	mu      *sync.Mutex
	name    string
	enabled bool
	verbose bool
}

// 🏭 New creates an enabled, non-verbose logger
func New(console io.Writer, zlog zerolog.Logger) *Logger {
	return &Logger{
		zlog:    zlog,
		console: console,
		mu:      &sync.Mutex{},
		enabled: true,
	}
}

// 🔇 Discard returns a logger that prints nothing
func Discard() *Logger {
	l := New(io.Discard, zerolog.Nop())
	l.enabled = false
	return l
}

// WithName returns a copy of the logger that prefixes lines with the command name.
func (l *Logger) WithName(name string) *Logger {
	cp := *l
	cp.name = name
	return &cp
}

// WithZerolog returns a copy of the logger mirroring to zlog.
func (l *Logger) WithZerolog(zlog zerolog.Logger) *Logger {
	cp := *l
	cp.zlog = zlog
	return &cp
}

// SetEnabled turns console output on or off.
func (l *Logger) SetEnabled(enabled bool) *Logger {
	l.enabled = enabled
	return l
}

// SetVerbose turns verbose console output on or off.
func (l *Logger) SetVerbose(verbose bool) *Logger {
	l.verbose = verbose
	return l
}

// Enabled reports whether console output is on.
func (l *Logger) Enabled() bool { return l.enabled }

// Verbose reports whether verbose lines are printed.
func (l *Logger) Verbose() bool { return l.enabled && l.verbose }

// Zerolog returns the structured logger lines are mirrored to.
func (l *Logger) Zerolog() *zerolog.Logger { return &l.zlog }

// 🔑 contextKey is the type for context values
type contextKey struct{}

// 🎯 FromContext gets the logger from context, or a silent one
func FromContext(ctx context.Context) *Logger {
	logger, ok := ctx.Value(contextKey{}).(*Logger)
	if !ok {
		return Discard()
	}
	return logger
}

// 🎯 NewContext adds the logger to context
func NewContext(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}

// Prefix tags a message with the command name, e.g. "[o copy] message".
func (l *Logger) Prefix(msg string) string {
	if l.name == "" {
		return msg
	}
	return fmt.Sprintf("[o %s] %s", l.name, msg)
}

func (l *Logger) print(verboseOnly bool, format string, args ...any) {
	if !l.enabled || (verboseOnly && !l.verbose) {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, format, args...)
}

// 📝 formatItem formats an item operation for display
func formatItem(op ItemOperation) string {
	var symbol string
	var symbolColor color.Attribute
	switch {
	case op.Failed:
		symbol, symbolColor = "✗", color.FgRed
	case op.Skipped:
		symbol, symbolColor = "-", color.FgYellow
	default:
		symbol, symbolColor = "✓", color.FgGreen
	}

	target := op.Path
	if op.Dest != "" {
		target = fmt.Sprintf("%s → %s", op.Path, op.Dest)
	}

	return fmt.Sprintf("%s%s %s %s %s",
		strings.Repeat(" ", itemIndent),
		color.New(symbolColor).Sprint(symbol),
		color.New(color.Faint).Sprintf("%d/%d", op.Index, op.Total),
		color.New(color.FgCyan).Sprint(fmt.Sprintf("%-*s", verbWidth, op.Verb)),
		fmt.Sprintf("%-*s", nameWidth, target))
}

// 📝 Item logs a single seed invocation
func (l *Logger) Item(op ItemOperation) {
	l.print(true, "%s\n", strings.TrimRight(formatItem(op), " "))

	l.zlog.Debug().
		Str("path", op.Path).
		Str("dest", op.Dest).
		Str("verb", op.Verb).
		Int("index", op.Index).
		Int("total", op.Total).
		Bool("skipped", op.Skipped).
		Bool("failed", op.Failed).
		Msg("item")
}

// 📝 Title logs a section header
func (l *Logger) Title(msg string) {
	name := "ocli"
	if l.name != "" {
		name = "o " + l.name
	}
	l.print(true, "\n%s %s\n",
		color.New(color.Bold, color.FgCyan).Sprint(name),
		color.New(color.Faint).Sprint(mark+" "+msg))
	l.zlog.Debug().Msg(msg)
}

// 📝 Info logs an informational line
func (l *Logger) Info(msg string) {
	l.print(true, "ℹ️  %s\n", color.New(color.FgCyan).Sprint(msg))
	l.zlog.Debug().Msg(msg)
}

// 📝 Data logs an indented detail line
func (l *Logger) Data(msg string) {
	l.print(true, "%s%s\n", strings.Repeat(" ", itemIndent), msg)
	l.zlog.Trace().Msg(msg)
}

// 📝 Empty logs a blank line
func (l *Logger) Empty() {
	l.print(true, "\n")
}

// 📝 Success logs a success message
func (l *Logger) Success(msg string) {
	l.print(false, "✅ %s\n", color.New(color.FgGreen).Sprint(msg))
	l.zlog.Debug().Str("kind", "success").Msg(msg)
}

// 📝 Warning logs a warning message
func (l *Logger) Warning(msg string) {
	l.print(false, "⚠️  %s\n", color.New(color.FgYellow).Sprint(msg))
	l.zlog.Debug().Str("kind", "warning").Msg(msg)
}

// 📝 Error logs an error message
func (l *Logger) Error(msg string) {
	l.print(false, "❌ %s\n", color.New(color.FgRed).Sprint(msg))
	l.zlog.Debug().Str("kind", "error").Msg(msg)
}

// 📝 Infof logs a formatted info message
func (l *Logger) Infof(format string, args ...any) {
	l.Info(fmt.Sprintf(format, args...))
}

// 📝 Dataf logs a formatted detail line
func (l *Logger) Dataf(format string, args ...any) {
	l.Data(fmt.Sprintf(format, args...))
}

// 📝 Warningf logs a formatted warning message
func (l *Logger) Warningf(format string, args ...any) {
	l.Warning(fmt.Sprintf(format, args...))
}

// 📝 Errorf logs a formatted error message
func (l *Logger) Errorf(format string, args ...any) {
	l.Error(fmt.Sprintf(format, args...))
}

// 📝 Successf logs a formatted success message
func (l *Logger) Successf(format string, args ...any) {
	l.Success(fmt.Sprintf(format, args...))
}
