package audit

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Action constants for audit logging
const (
	ActionCreated    = "created"
	ActionUpdated    = "updated"
	ActionDeleted    = "deleted"
	ActionCombined   = "combined"
	ActionAuthFailed = "auth_failed"
)

// ResourceType constants for audit logging
const (
	ResourceTypeRule   = "rule"
	ResourceTypeSystem = "system"
)

// Status constants for audit logging
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// ActorKind constants for audit logging
const (
	ActorKindAPIKey = "api_key"
	ActorKindSystem = "system"
)

// Clock interface for testable time operations
type Clock interface {
	Now() time.Time
}

// SystemClock implements Clock using time.Now()
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// IDGenerator interface for testable ID generation
type IDGenerator interface {
	Generate() string
}

// UUIDGenerator implements IDGenerator using UUID v4
type UUIDGenerator struct{}

func (UUIDGenerator) Generate() string { return uuid.NewString() }

// Redactor removes sensitive values from event states.
type Redactor interface {
	Redact(data map[string]any) map[string]any
}

// DefaultRedactor masks values stored under well-known secret keys.
type DefaultRedactor struct {
	sensitiveKeys map[string]struct{}
}

func NewDefaultRedactor() *DefaultRedactor {
	keys := []string{"password", "secret", "token", "api_key", "key_hash", "authorization", "cookie", "session"}
	r := &DefaultRedactor{sensitiveKeys: make(map[string]struct{}, len(keys))}
	for _, k := range keys {
		r.sensitiveKeys[k] = struct{}{}
	}
	return r
}

func (r *DefaultRedactor) Redact(data map[string]any) map[string]any {
	if data == nil {
		return nil
	}
	redacted := make(map[string]any, len(data))
	for k, v := range data {
		if _, sensitive := r.sensitiveKeys[k]; sensitive {
			redacted[k] = "[REDACTED]"
		} else if nested, ok := v.(map[string]any); ok {
			redacted[k] = r.Redact(nested)
		} else {
			redacted[k] = v
		}
	}
	return redacted
}

// Actor represents who performed the action
type Actor struct {
	Kind    string  `json:"kind"`
	ID      *string `json:"id,omitempty"`
	Display string  `json:"display"`
}

// Source represents request metadata
type Source struct {
	IPAddress string `json:"ip_address"`
	UserAgent string `json:"user_agent"`
}

// AuditEvent represents a canonical audit event
type AuditEvent struct {
	ID           string         `json:"id"`
	OccurredAt   time.Time      `json:"occurred_at"`
	RequestID    string         `json:"request_id"`
	Actor        Actor          `json:"actor"`
	Source       Source         `json:"source"`
	Action       string         `json:"action"`
	ResourceType string         `json:"resource_type"`
	ResourceID   string         `json:"resource_id"`
	BeforeState  map[string]any `json:"before_state,omitempty"`
	AfterState   map[string]any `json:"after_state,omitempty"`
	Changes      map[string]any `json:"changes,omitempty"`
	Status       string         `json:"status"`
	ErrorMessage *string        `json:"error_message,omitempty"`
}

// AuditSink defines the interface for persisting audit events
type AuditSink interface {
	Write(ctx context.Context, event AuditEvent) error
}

// Service queues audit events and writes them to a sink on a background
// goroutine. Log never blocks; events are dropped when the queue is full.
type Service struct {
	sink     AuditSink
	clock    Clock
	idgen    IDGenerator
	redactor Redactor
	logger   zerolog.Logger
	queue    chan AuditEvent
	stopCh   chan struct{}
	done     chan struct{}
	closed   atomic.Bool
	dropped  atomic.Int64
	mu       sync.RWMutex // guards queue sends against Close
}

// NewService creates a new audit service and starts its worker.
func NewService(sink AuditSink, clock Clock, idgen IDGenerator, redactor Redactor, logger zerolog.Logger, queueSize int) *Service {
	if clock == nil {
		clock = SystemClock{}
	}
	if idgen == nil {
		idgen = UUIDGenerator{}
	}
	if redactor == nil {
		redactor = NewDefaultRedactor()
	}
	if queueSize <= 0 {
		queueSize = 256
	}

	s := &Service{
		sink:     sink,
		clock:    clock,
		idgen:    idgen,
		redactor: redactor,
		logger:   logger,
		queue:    make(chan AuditEvent, queueSize),
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}
	go s.worker()
	return s
}

func (s *Service) worker() {
	defer close(s.done)
	for {
		select {
		case event := <-s.queue:
			s.write(event)
		case <-s.stopCh:
			for {
				select {
				case event := <-s.queue:
					s.write(event)
				default:
					return
				}
			}
		}
	}
}

func (s *Service) write(event AuditEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.sink.Write(ctx, event); err != nil {
		s.logger.Error().Err(err).Str("event_id", event.ID).Msg("audit: failed to write event")
	}
}

// Close stops the worker after draining queued events. Safe to call more than once.
func (s *Service) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	s.mu.Lock()
	close(s.stopCh)
	s.mu.Unlock()
	<-s.done
	return nil
}

// Dropped returns the number of events discarded because the queue was full
// or the service was closed.
func (s *Service) Dropped() int64 {
	return s.dropped.Load()
}

// Log fills in defaults, redacts states and queues the event.
func (s *Service) Log(event AuditEvent) {
	if event.ID == "" {
		event.ID = s.idgen.Generate()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = s.clock.Now()
	}
	if event.RequestID == "" {
		event.RequestID = event.ID
	}
	event.BeforeState = s.redactor.Redact(event.BeforeState)
	event.AfterState = s.redactor.Redact(event.AfterState)

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed.Load() {
		s.dropped.Add(1)
		return
	}
	select {
	case s.queue <- event:
	default:
		s.dropped.Add(1)
		s.logger.Warn().
			Str("resource_type", event.ResourceType).
			Str("resource_id", event.ResourceID).
			Msg("audit: queue full, dropping event")
	}
}

// ComputeChanges computes the difference between before and after states
func ComputeChanges(before, after map[string]any) map[string]any {
	if before == nil && after == nil {
		return nil
	}
	if before == nil {
		before = make(map[string]any)
	}
	if after == nil {
		after = make(map[string]any)
	}

	changes := make(map[string]any)
	for key, afterVal := range after {
		beforeVal, existedBefore := before[key]
		beforeJSON, _ := json.Marshal(beforeVal)
		afterJSON, _ := json.Marshal(afterVal)
		if !existedBefore || string(beforeJSON) != string(afterJSON) {
			changes[key] = map[string]any{"before": beforeVal, "after": afterVal}
		}
	}
	for key, beforeVal := range before {
		if _, existsAfter := after[key]; !existsAfter {
			changes[key] = map[string]any{"before": beforeVal, "after": nil}
		}
	}

	if len(changes) == 0 {
		return nil
	}
	return changes
}
