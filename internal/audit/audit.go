// Package audit provides two independent observability surfaces the
// handler writes to on every security-relevant event: a live structured
// log (slog) and a hash-chained, tamper-evident trail persisted to disk.
// Neither ever influences a request's outcome — they observe, they don't
// gate.
package audit

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// Event identifies the kind of security-relevant action being logged.
type Event string

const (
	EventAuthAllowed     Event = "auth_allowed"
	EventAuthDenied      Event = "auth_denied"
	EventLoginSuccess    Event = "login_success"
	EventLoginFailure    Event = "login_failure"
	EventRateLimited     Event = "rate_limited"
	EventLogout          Event = "logout"
	EventUnknownHost     Event = "unknown_host"
	EventTemplateMissing Event = "template_missing"
)

// Logger wraps slog.Logger for structured security logging and, when a
// Store is attached, mirrors every event into the hash-chained trail.
type Logger struct {
	logger *slog.Logger
	store  *Store
}

// New builds a Logger writing to logger. store may be nil, in which case
// only the live structured log is written — a gateway operator can run
// without the persistent chain if they don't need offline tamper evidence.
func New(logger *slog.Logger, store *Store) *Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Logger{logger: logger.With("component", "audit"), store: store}
}

// Alert records an anomaly-detector notification (see the sibling metrics
// package) as a warning-level log line and, if a Store is attached, as a
// chained entry of its own.
func (l *Logger) Alert(ctx context.Context, message string, count, threshold int) {
	l.logger.LogAttrs(ctx, slog.LevelWarn, "anomaly detected",
		slog.String("message", message),
		slog.Int("count", count),
		slog.Int("threshold", threshold),
	)

	if l.store != nil {
		if err := l.store.Append(Entry{
			Event:     "anomaly_detected",
			Reason:    message,
			CreatedAt: time.Now().UTC().Format(time.RFC3339Nano),
		}); err != nil {
			l.logger.LogAttrs(ctx, slog.LevelError, "audit store append failed",
				slog.String("error", err.Error()))
		}
	}
}

// Log writes one structured entry and, if a Store is attached, appends it
// to the hash chain.
func (l *Logger) Log(ctx context.Context, r *http.Request, event Event, username, reason string) {
	remote := ""
	if r != nil {
		remote = r.RemoteAddr
	}
	now := time.Now().UTC()

	l.logger.LogAttrs(ctx, slog.LevelInfo, "audit",
		slog.String("event", string(event)),
		slog.String("remote_addr", remote),
		slog.String("username", username),
		slog.String("reason", reason),
		slog.Time("timestamp", now),
	)

	if l.store != nil {
		if err := l.store.Append(Entry{
			Event:      string(event),
			RemoteAddr: remote,
			Username:   username,
			Reason:     reason,
			CreatedAt:  now.Format(time.RFC3339Nano),
		}); err != nil {
			l.logger.LogAttrs(ctx, slog.LevelError, "audit store append failed",
				slog.String("error", err.Error()))
		}
	}
}
