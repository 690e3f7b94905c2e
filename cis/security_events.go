package cis

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// NIST SP 800-92 compliant event types
const (
	EventAuthentication   = "authentication"
	EventSessionLifecycle = "session_lifecycle"
)

// Security event subtypes
const (
	SubtypeAuthAttempt   = "attempt"
	SubtypeAuthSuccess   = "success"
	SubtypeAuthFailure   = "failure"
	SubtypeSessionQuery  = "query"
	SubtypeSessionClosed = "closed"
)

// Security event outcomes
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeDenied  = "denied"
	OutcomeAttempt = "attempt"
)

// Security event severities
const (
	SeverityInfo    = "INFO"
	SeverityWarning = "WARNING"
	SeverityError   = "ERROR"
)

// eventSource identifies this library in emitted events.
const eventSource = "go-vcenter"

// SecurityEvent represents a structured security log event compliant with NIST SP 800-92.
type SecurityEvent struct {
	Timestamp string `json:"timestamp"` // ISO 8601 UTC
	EventType string `json:"event_type"`
	Subtype   string `json:"subtype"`
	Severity  string `json:"severity"`

	User          string `json:"user,omitempty"`
	Source        string `json:"source"`
	Target        string `json:"target"`         // vCenter hostname
	CorrelationID string `json:"correlation_id"` // Session-scoped UUID

	Action  string         `json:"action"` // Login, LoginStatus, Logout
	Outcome string         `json:"outcome"`
	Details map[string]any `json:"details,omitempty"`
}

// String returns the JSON representation of the event.
func (e *SecurityEvent) String() string {
	b, _ := json.Marshal(e)
	return string(b)
}

// SecurityLogger writes security events for one Session.
type SecurityLogger struct {
	logger        *slog.Logger
	target        string
	correlationID string
}

// NewSecurityLogger creates a new logger for a session.
// It generates a new CorrelationID (UUID) for this logger instance.
func NewSecurityLogger(logger *slog.Logger, target string) *SecurityLogger {
	return &SecurityLogger{
		logger:        logger,
		target:        target,
		correlationID: uuid.New().String(),
	}
}

// setLogger replaces the output logger and keeps the correlation ID.
func (l *SecurityLogger) setLogger(logger *slog.Logger) {
	l.logger = logger
}

// CorrelationID returns the UUID attached to every event of this logger.
func (l *SecurityLogger) CorrelationID() string {
	return l.correlationID
}

// LogEvent constructs and logs a security event.
func (l *SecurityLogger) LogEvent(eventType, subtype, action, user, severity, outcome string, details map[string]any) {
	if l == nil || l.logger == nil {
		return
	}

	event := &SecurityEvent{
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		EventType:     eventType,
		Subtype:       subtype,
		Severity:      severity,
		User:          user,
		Source:        eventSource,
		Target:        l.target,
		CorrelationID: l.correlationID,
		Action:        action,
		Outcome:       outcome,
		Details:       details,
	}

	switch severity {
	case SeverityWarning:
		l.logger.Warn("SecurityEvent", "event", event)
	case SeverityError:
		l.logger.Error("SecurityEvent", "event", event)
	default:
		l.logger.Info("SecurityEvent", "event", event)
	}
}

// LogAuthentication logs authentication events.
func (l *SecurityLogger) LogAuthentication(subtype, action, user, outcome, severity string, details map[string]any) {
	l.LogEvent(EventAuthentication, subtype, action, user, severity, outcome, details)
}

// LogSession logs session lifecycle events.
func (l *SecurityLogger) LogSession(subtype, action, user, outcome, severity string, details map[string]any) {
	l.LogEvent(EventSessionLifecycle, subtype, action, user, severity, outcome, details)
}
