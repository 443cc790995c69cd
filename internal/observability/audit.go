package observability

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// AuditEvent is the structured record emitted for security-relevant
// account actions (login, create, update, delete).
type AuditEvent struct {
	EventVersion int    `json:"event_version"`
	EventName    string `json:"event_name"`
	ActorUserID  string `json:"actor_user_id"`
	ActorIP      string `json:"actor_ip"`
	TargetType   string `json:"target_type"`
	TargetID     string `json:"target_id"`
	Action       string `json:"action"`
	Outcome      string `json:"outcome"`
	Reason       string `json:"reason"`
	RequestID    string `json:"request_id"`
	TS           string `json:"ts"`
}

type AuditInput struct {
	EventName   string
	ActorUserID string
	TargetType  string
	TargetID    string
	Action      string
	Outcome     string
	Reason      string
}

func (e AuditEvent) Validate() error {
	if e.EventVersion == 0 {
		return fmt.Errorf("audit event missing event_version")
	}
	if e.EventName == "" {
		return fmt.Errorf("audit event missing event_name")
	}
	if e.Action == "" {
		return fmt.Errorf("audit event missing action")
	}
	if e.Outcome == "" {
		return fmt.Errorf("audit event missing outcome")
	}
	if e.TS == "" {
		return fmt.Errorf("audit event missing ts")
	}
	return nil
}

func BuildAuditEvent(r *http.Request, in AuditInput) AuditEvent {
	ip := r.RemoteAddr
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		ip = host
	}
	requestID := r.Header.Get("X-Request-Id")
	if requestID == "" {
		requestID = "unknown"
	}
	actor := in.ActorUserID
	if actor == "" {
		actor = "anonymous"
	}
	return AuditEvent{
		EventVersion: 1,
		EventName:    in.EventName,
		ActorUserID:  actor,
		ActorIP:      ip,
		TargetType:   in.TargetType,
		TargetID:     in.TargetID,
		Action:       in.Action,
		Outcome:      in.Outcome,
		Reason:       in.Reason,
		RequestID:    requestID,
		TS:           time.Now().UTC().Format(time.RFC3339),
	}
}

// Audit logs a structured audit event for the request. The trace and
// span ids are folded into the message so log pipelines without OTel
// correlation can still join audit records to traces.
func Audit(r *http.Request, in AuditInput) {
	ev := BuildAuditEvent(r, in)
	msg := "audit"
	sc := trace.SpanContextFromContext(r.Context())
	if sc.IsValid() {
		msg = fmt.Sprintf("audit trace_id=%s span_id=%s", sc.TraceID().String(), sc.SpanID().String())
	}
	slog.InfoContext(r.Context(), msg,
		"event_version", ev.EventVersion,
		"event", ev.EventName,
		"actor_user_id", ev.ActorUserID,
		"actor_ip", ev.ActorIP,
		"target_type", ev.TargetType,
		"target_id", ev.TargetID,
		"action", ev.Action,
		"outcome", ev.Outcome,
		"reason", ev.Reason,
		"request_id", ev.RequestID,
		"ts", ev.TS,
	)
}
