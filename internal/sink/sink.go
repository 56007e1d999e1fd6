// Package sink routes every error a digest cycle catches (watcher and
// listener faults, async/apply-async/post-digest tasks, event listeners)
// through a pluggable Sink instead of a hard-coded console print.
package sink

import "log/slog"

// Context carries the diagnostic fields attached to a caught error: which
// scope it happened in, which phase was active, and a label naming the
// watcher/task/listener that produced it.
type Context struct {
	Scope   string
	Phase   string
	Watcher string
}

// Sink receives errors the digest loop and its cooperative queues catch
// rather than propagate, so progress can continue.
type Sink interface {
	OnError(err error, ctx Context)
}

// Slog is the default Sink: caught runtime faults log at Error with
// structured fields. TTL-approaching warnings are emitted separately by
// the digest loop via WarnTTL.
type Slog struct {
	logger *slog.Logger
}

// NewSlog wraps logger as a Sink. A nil logger falls back to slog.Default().
func NewSlog(logger *slog.Logger) *Slog {
	if logger == nil {
		logger = slog.Default()
	}
	return &Slog{logger: logger}
}

func (s *Slog) OnError(err error, ctx Context) {
	s.logger.Error("reaxpr: caught error",
		"error", err,
		"scope", ctx.Scope,
		"phase", ctx.Phase,
		"watcher", ctx.Watcher,
	)
}

// WarnTTL logs a digest whose round count is approaching the TTL limit,
// the digest loop's one non-error log line.
func (s *Slog) WarnTTL(scope string, round, ttl int) {
	s.logger.Warn("reaxpr: digest approaching TTL",
		"scope", scope,
		"round", round,
		"ttl", ttl,
	)
}

// Nop discards every error, for tests that assert on the caught error
// independently of logging.
type Nop struct{}

func (Nop) OnError(error, Context) {}
