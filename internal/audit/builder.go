package audit

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/TimurManjosov/gorules/internal/auth"
)

// EventBuilder provides a fluent API for constructing audit events.
//
//	event := audit.NewEventBuilder(r).
//		ForRule(rule.ID).
//		WithAction(audit.ActionCreated).
//		WithAfterState(map[string]any{"rule_string": rule.RuleString}).
//		Build()
//	service.Log(event)
type EventBuilder struct {
	event AuditEvent
}

// NewEventBuilder creates a builder carrying the request id, actor and
// source of r.
func NewEventBuilder(r *http.Request) *EventBuilder {
	actor := Actor{Kind: ActorKindSystem, Display: "system"}
	if keyID, ok := auth.GetKeyIDFromContext(r.Context()); ok {
		id := keyID
		actor = Actor{Kind: ActorKindAPIKey, ID: &id, Display: "api_key:" + keyID}
	}

	return &EventBuilder{
		event: AuditEvent{
			RequestID: middleware.GetReqID(r.Context()),
			Actor:     actor,
			Source: Source{
				IPAddress: auth.GetIPAddress(r),
				UserAgent: r.UserAgent(),
			},
			Status: StatusSuccess,
		},
	}
}

// ForResource sets the resource type and ID for the event.
func (b *EventBuilder) ForResource(resourceType, resourceID string) *EventBuilder {
	b.event.ResourceType = resourceType
	b.event.ResourceID = resourceID
	return b
}

// ForRule is ForResource(ResourceTypeRule, id).
func (b *EventBuilder) ForRule(id string) *EventBuilder {
	return b.ForResource(ResourceTypeRule, id)
}

func (b *EventBuilder) WithAction(action string) *EventBuilder {
	b.event.Action = action
	return b
}

func (b *EventBuilder) WithBeforeState(state map[string]any) *EventBuilder {
	b.event.BeforeState = state
	return b
}

func (b *EventBuilder) WithAfterState(state map[string]any) *EventBuilder {
	b.event.AfterState = state
	return b
}

// WithChanges sets Changes to the difference of the before and after states.
func (b *EventBuilder) WithChanges() *EventBuilder {
	b.event.Changes = ComputeChanges(b.event.BeforeState, b.event.AfterState)
	return b
}

// Failure marks the event as failed and sets an error message.
func (b *EventBuilder) Failure(errorMsg string) *EventBuilder {
	b.event.Status = StatusFailure
	if errorMsg != "" {
		b.event.ErrorMessage = &errorMsg
	}
	return b
}

// Build returns the constructed AuditEvent.
func (b *EventBuilder) Build() AuditEvent {
	return b.event
}
