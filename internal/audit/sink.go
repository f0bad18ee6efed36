package audit

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// LogSink writes each event as one structured log line.
type LogSink struct {
	logger zerolog.Logger
}

// NewLogSink creates a sink writing to logger.
func NewLogSink(logger zerolog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Write(_ context.Context, event AuditEvent) error {
	evt := s.logger.Info().
		Str("audit_id", event.ID).
		Time("occurred_at", event.OccurredAt).
		Str("request_id", event.RequestID).
		Str("actor", event.Actor.Display).
		Str("ip", event.Source.IPAddress).
		Str("action", event.Action).
		Str("resource_type", event.ResourceType).
		Str("resource_id", event.ResourceID).
		Str("status", event.Status)
	if event.Changes != nil {
		evt = evt.Interface("changes", event.Changes)
	}
	if event.AfterState != nil {
		evt = evt.Interface("after", event.AfterState)
	}
	if event.ErrorMessage != nil {
		evt = evt.Str("error", *event.ErrorMessage)
	}
	evt.Msg("audit")
	return nil
}

// MemorySink keeps events in memory, newest last.
type MemorySink struct {
	mu     sync.Mutex
	events []AuditEvent
}

func (s *MemorySink) Write(_ context.Context, event AuditEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

// Events returns a copy of the recorded events.
func (s *MemorySink) Events() []AuditEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]AuditEvent, len(s.events))
	copy(out, s.events)
	return out
}
