// Copyright (c) 2024 Telar Social
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package log

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"

	"github.com/davecgh/go-spew/spew"
	"github.com/fatih/color"
)

type contextKey string

const contextKeyRequestID contextKey = "request_id"

var (
	mu      sync.Mutex
	out     io.Writer = os.Stdout
	debugOn atomic.Bool
)

// SetOutput redirects log output; nil restores stdout.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	if w == nil {
		w = os.Stdout
	}
	out = w
}

// SetDebug toggles Debug and Dump output
func SetDebug(enabled bool) {
	debugOn.Store(enabled)
}

// WithRequestID adds request ID to context for logging
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, contextKeyRequestID, requestID)
}

// RequestID retrieves request ID from context
func RequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(contextKeyRequestID).(string); ok {
		return id
	}
	return ""
}

// formatLog formats log message with optional request ID
func formatLog(requestID string, format string, a ...interface{}) string {
	msg := fmt.Sprintf(format, a...)
	if requestID != "" {
		return fmt.Sprintf("[req_id=%s] %s", requestID, msg)
	}
	return msg
}

func write(label string, msg string) {
	mu.Lock()
	defer mu.Unlock()
	fmt.Fprintf(out, "%s %s\n", label, msg)
}

var (
	infoLabel  = color.New(color.FgWhite, color.BgGreen).SprintFunc()
	warnLabel  = color.New(color.FgWhite, color.BgYellow).SprintFunc()
	errorLabel = color.New(color.FgRed).SprintFunc()
	debugLabel = color.New(color.FgCyan).SprintFunc()
)

// Info log information
func Info(format string, a ...interface{}) {
	write(infoLabel("[INFO] "), formatLog("", format, a...))
}

// InfoWithContext logs information with context (includes request ID if available)
func InfoWithContext(ctx context.Context, format string, a ...interface{}) {
	write(infoLabel("[INFO] "), formatLog(RequestID(ctx), format, a...))
}

// Warn log warning
func Warn(format string, a ...interface{}) {
	write(warnLabel("[WARN] "), formatLog("", format, a...))
}

// WarnWithContext logs warning with context (includes request ID if available)
func WarnWithContext(ctx context.Context, format string, a ...interface{}) {
	write(warnLabel("[WARN] "), formatLog(RequestID(ctx), format, a...))
}

// Error log error
func Error(format string, a ...interface{}) {
	write(errorLabel("[Error]"), formatLog("", format, a...))
}

// ErrorWithContext logs error with context (includes request ID if available)
func ErrorWithContext(ctx context.Context, format string, a ...interface{}) {
	write(errorLabel("[Error]"), formatLog(RequestID(ctx), format, a...))
}

// Debug only prints when debug output is enabled
func Debug(format string, a ...interface{}) {
	if !debugOn.Load() {
		return
	}
	write(debugLabel("[DEBUG]"), formatLog("", format, a...))
}

// DebugWithContext logs debug output with the request ID if available
func DebugWithContext(ctx context.Context, format string, a ...interface{}) {
	if !debugOn.Load() {
		return
	}
	write(debugLabel("[DEBUG]"), formatLog(RequestID(ctx), format, a...))
}

// Dump pretty-prints values such as raw page metadata when debug is enabled.
func Dump(label string, a ...interface{}) {
	if !debugOn.Load() {
		return
	}
	write(debugLabel("[DEBUG]"), label+"\n"+spew.Sdump(a...))
}
