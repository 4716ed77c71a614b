package audit

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
)

// EventType names an audit action. Components outside this package
// define their own values (the orchestrator's lifecycle events, for
// instance); the constants below cover the auth BFF's login surface,
// the one domain this package itself has a stake in.
type EventType string

const (
	EventLoginSuccess EventType = "LOGIN_SUCCESS"
	EventLoginFailed  EventType = "LOGIN_FAILED"
	EventLogout       EventType = "LOGOUT"
)

// AuditLogger is the sink every service logs security-relevant actions
// through: who (actorID, uuid.Nil for system-originated entries), what
// (action), against which resource, plus free-form metadata.
type AuditLogger interface {
	Log(ctx context.Context, actorID uuid.UUID, action EventType, resource string, metadata map[string]string)
}

// JSONAuditLogger writes one structured line per event with a
// log_type marker so log aggregators can route audit entries to their
// own index, independent of the rest of a service's application logs.
type JSONAuditLogger struct {
	logger *slog.Logger
}

func NewJSONAuditLogger() *JSONAuditLogger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	return &JSONAuditLogger{logger: slog.New(handler)}
}

func (l *JSONAuditLogger) Log(ctx context.Context, actorID uuid.UUID, action EventType, resource string, metadata map[string]string) {
	fields := []interface{}{
		slog.String("log_type", "AUDIT_TRAIL"),
		slog.String("actor_id", actorID.String()),
		slog.String("action", string(action)),
		slog.String("resource", resource),
		slog.Time("timestamp_utc", time.Now().UTC()),
	}

	for k, v := range metadata {
		fields = append(fields, slog.String("meta_"+k, v))
	}

	l.logger.InfoContext(ctx, "audit_event", fields...)
}

// MockAuditLogger discards every entry; used where tests need an
// AuditLogger but don't assert on its output.
type MockAuditLogger struct{}

func (m *MockAuditLogger) Log(ctx context.Context, actorID uuid.UUID, action EventType, resource string, metadata map[string]string) {
}
