package service

import (
	"context"
	"sync"
)

// Ledger records the ids of events whose effects were applied
type Ledger interface {
	IsEventProcessed(ctx context.Context, eventID string) (bool, error)
	MarkEventProcessed(ctx context.Context, eventID, eventType string) error
}

// MemoryLedger is a process-local Ledger
type MemoryLedger struct {
	mu   sync.Mutex
	seen map[string]string
}

// NewMemoryLedger creates an empty ledger
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{seen: make(map[string]string)}
}

// IsEventProcessed checks if an event has been processed
func (l *MemoryLedger) IsEventProcessed(_ context.Context, eventID string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.seen[eventID]
	return ok, nil
}

// MarkEventProcessed marks an event as processed
func (l *MemoryLedger) MarkEventProcessed(_ context.Context, eventID, eventType string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.seen[eventID] = eventType
	return nil
}
