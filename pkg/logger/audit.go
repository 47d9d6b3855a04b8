package logger

import (
	"context"
	"log/slog"
	"time"
)

// AuditEvent represents a security audit event
type AuditEvent struct {
	EventType     string
	UserID        string
	ClientID      string
	IPAddress     string
	Success       bool
	FailureReason string
	Metadata      map[string]string
}

// AuditLogger writes security relevant console events
type AuditLogger struct {
	logger *slog.Logger
}

// NewAuditLogger creates a new audit logger
func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	return &AuditLogger{
		logger: logger,
	}
}

// LogLogin logs a login submission outcome
func (al *AuditLogger) LogLogin(event AuditEvent) {
	al.log("auth", event)
}

// LogSessionEnded logs a session removed by logout or by an API rejection
func (al *AuditLogger) LogSessionEnded(clientID, reason string) {
	al.log("session", AuditEvent{
		EventType: "session_ended",
		ClientID:  clientID,
		Success:   true,
		Metadata:  map[string]string{"reason": reason},
	})
}

// LogAccountAction logs a manager action against an engineer account
func (al *AuditLogger) LogAccountAction(eventType, userID string, success bool, failureReason string) {
	al.log("account", AuditEvent{
		EventType:     eventType,
		UserID:        userID,
		Success:       success,
		FailureReason: failureReason,
	})
}

func (al *AuditLogger) log(auditType string, event AuditEvent) {
	attrs := []slog.Attr{
		slog.String("audit_type", auditType),
		slog.String("event_type", event.EventType),
		slog.Bool("success", event.Success),
		slog.String("timestamp", time.Now().UTC().Format(time.RFC3339)),
	}

	if event.UserID != "" {
		attrs = append(attrs, slog.String("user_id", event.UserID))
	}
	if event.ClientID != "" {
		attrs = append(attrs, slog.String("client_id", event.ClientID))
	}
	if event.IPAddress != "" {
		attrs = append(attrs, slog.String("ip_address", event.IPAddress))
	}
	if event.FailureReason != "" {
		attrs = append(attrs, slog.String("failure_reason", event.FailureReason))
	}
	for key, val := range event.Metadata {
		attrs = append(attrs, slog.String(key, val))
	}

	level := slog.LevelInfo
	if !event.Success {
		level = slog.LevelWarn
	}
	al.logger.LogAttrs(context.Background(), level, "audit", attrs...)
}
