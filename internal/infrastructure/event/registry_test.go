package event

import (
	"context"
	"testing"

	"github.com/rentledger/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
)

// mockHandler implements EventHandler for testing
type mockHandler struct {
	eventTypes []string
	handled    []shared.DomainEvent
}

func newMockHandler(eventTypes ...string) *mockHandler {
	return &mockHandler{
		eventTypes: eventTypes,
		handled:    make([]shared.DomainEvent, 0),
	}
}

func (h *mockHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	h.handled = append(h.handled, event)
	return nil
}

func (h *mockHandler) EventTypes() []string {
	return h.eventTypes
}

func TestHandlerRegistry_Register_SpecificTypes(t *testing.T) {
	registry := NewHandlerRegistry()
	handler := newMockHandler("billing.penalty.applied", "billing.penalty.adjusted")

	registry.Register(handler, "billing.penalty.applied", "billing.penalty.adjusted")

	handlers := registry.GetHandlers("billing.penalty.applied")
	assert.Len(t, handlers, 1)
	assert.Equal(t, handler, handlers[0])

	handlers = registry.GetHandlers("billing.penalty.adjusted")
	assert.Len(t, handlers, 1)
	assert.Equal(t, handler, handlers[0])

	handlers = registry.GetHandlers("billing.bill.deleted")
	assert.Len(t, handlers, 0)
}

func TestHandlerRegistry_Register_Wildcard(t *testing.T) {
	registry := NewHandlerRegistry()
	handler := newMockHandler() // No event types = wildcard

	registry.Register(handler)

	handlers := registry.GetHandlers("billing.penalty.applied")
	assert.Len(t, handlers, 1)
	assert.Equal(t, handler, handlers[0])

	handlers = registry.GetHandlers("billing.bill.created")
	assert.Len(t, handlers, 1)
	assert.Equal(t, handler, handlers[0])
}

func TestHandlerRegistry_Register_MixedTypes(t *testing.T) {
	registry := NewHandlerRegistry()
	specificHandler := newMockHandler("billing.penalty.applied")
	wildcardHandler := newMockHandler()

	registry.Register(specificHandler, "billing.penalty.applied")
	registry.Register(wildcardHandler)

	handlers := registry.GetHandlers("billing.penalty.applied")
	assert.Len(t, handlers, 2)

	handlers = registry.GetHandlers("billing.bill.paid")
	assert.Len(t, handlers, 1)
	assert.Equal(t, wildcardHandler, handlers[0])
}

func TestHandlerRegistry_Unregister_SpecificHandler(t *testing.T) {
	registry := NewHandlerRegistry()
	handler1 := newMockHandler("billing.penalty.applied")
	handler2 := newMockHandler("billing.penalty.applied")

	registry.Register(handler1, "billing.penalty.applied")
	registry.Register(handler2, "billing.penalty.applied")

	handlers := registry.GetHandlers("billing.penalty.applied")
	assert.Len(t, handlers, 2)

	registry.Unregister(handler1)

	handlers = registry.GetHandlers("billing.penalty.applied")
	assert.Len(t, handlers, 1)
	assert.Equal(t, handler2, handlers[0])
}

func TestHandlerRegistry_Unregister_WildcardHandler(t *testing.T) {
	registry := NewHandlerRegistry()
	wildcardHandler := newMockHandler()

	registry.Register(wildcardHandler)

	handlers := registry.GetHandlers("billing.bill.created")
	assert.Len(t, handlers, 1)

	registry.Unregister(wildcardHandler)

	handlers = registry.GetHandlers("billing.bill.created")
	assert.Len(t, handlers, 0)
}

func TestHandlerRegistry_GetAllHandlers(t *testing.T) {
	registry := NewHandlerRegistry()
	handler1 := newMockHandler("billing.penalty.applied")
	handler2 := newMockHandler("billing.bill.paid")
	wildcardHandler := newMockHandler()

	registry.Register(handler1, "billing.penalty.applied")
	registry.Register(handler2, "billing.bill.paid")
	registry.Register(wildcardHandler)

	allHandlers := registry.GetAllHandlers()
	assert.Len(t, allHandlers, 3)
}

func TestHandlerRegistry_GetAllHandlers_NoDuplicates(t *testing.T) {
	registry := NewHandlerRegistry()
	handler := newMockHandler("billing.penalty.applied", "billing.penalty.adjusted")

	// Register same handler for multiple event types
	registry.Register(handler, "billing.penalty.applied", "billing.penalty.adjusted")

	allHandlers := registry.GetAllHandlers()
	assert.Len(t, allHandlers, 1)
}
