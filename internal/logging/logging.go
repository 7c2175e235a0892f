// Package logging defines the structured-logging seam used across the
// forecasting core, mirroring the teacher CLI's injected logger so that
// the engine never calls the standard log package directly.
package logging

import (
	"fmt"
	"log"
)

// Logger is the minimal structured-logging contract the engine depends on.
// Operational warnings (spec §7 taxonomy) go through Warnf; nothing in the
// core calls a package-level logger directly, so callers (CLI, tests) can
// substitute a silent or buffering implementation.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// StdLogger is the default Logger, backed by the standard library's log
// package. It is intentionally the one ambient piece of the core built on
// the standard library: the teacher's own CLI (cmd/rpgo/main.go) does the
// same (simpleCLILogger), and no example repo in the pack wires a
// structured-logging library (zap, zerolog, logrus) into a contract this
// small; introducing one here would be a dependency with no corresponding
// component to justify it.
type StdLogger struct{}

func (StdLogger) Debugf(format string, args ...any) { log.Printf("DEBUG: "+format, args...) }
func (StdLogger) Infof(format string, args ...any)  { log.Printf("INFO: "+format, args...) }
func (StdLogger) Warnf(format string, args ...any)  { log.Printf("WARN: "+format, args...) }
func (StdLogger) Errorf(format string, args ...any) { log.Printf("ERROR: "+format, args...) }

// Nop discards everything; useful in tests that assert on warning counts
// via a recording Logger instead.
type Nop struct{}

func (Nop) Debugf(string, ...any) {}
func (Nop) Infof(string, ...any)  {}
func (Nop) Warnf(string, ...any)  {}
func (Nop) Errorf(string, ...any) {}

// Recorder buffers messages by level, for tests that assert a warning was
// (or was not) emitted without depending on log output formatting.
type Recorder struct {
	Debug []string
	Info  []string
	Warn  []string
	Error []string
}

func (r *Recorder) Debugf(format string, args ...any) { r.Debug = append(r.Debug, sprintf(format, args...)) }
func (r *Recorder) Infof(format string, args ...any)  { r.Info = append(r.Info, sprintf(format, args...)) }
func (r *Recorder) Warnf(format string, args ...any)  { r.Warn = append(r.Warn, sprintf(format, args...)) }
func (r *Recorder) Errorf(format string, args ...any) { r.Error = append(r.Error, sprintf(format, args...)) }

func sprintf(format string, args ...any) string {
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}
