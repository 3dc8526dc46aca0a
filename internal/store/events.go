package store

import (
	"context"
	"fmt"
	"time"
)

// ProcessedEvent is a ledger row
type ProcessedEvent struct {
	EventID     string    `db:"event_id" json:"eventId"`
	EventType   string    `db:"event_type" json:"eventType"`
	ProcessedAt time.Time `db:"processed_at" json:"processedAt"`
}

// IsEventProcessed checks if an event has been processed
func (s *Store) IsEventProcessed(ctx context.Context, eventID string) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists,
		"SELECT EXISTS(SELECT 1 FROM processed_events WHERE event_id = $1)", eventID)
	return exists, err
}

// MarkEventProcessed marks an event as processed
func (s *Store) MarkEventProcessed(ctx context.Context, eventID, eventType string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO processed_events (event_id, event_type) VALUES ($1, $2) ON CONFLICT (event_id) DO NOTHING",
		eventID, eventType)
	return err
}

// RecentEvents returns the latest ledger rows, newest first
func (s *Store) RecentEvents(ctx context.Context, limit int) ([]ProcessedEvent, error) {
	var events []ProcessedEvent
	err := s.db.SelectContext(ctx, &events,
		"SELECT event_id, event_type, processed_at FROM processed_events ORDER BY processed_at DESC LIMIT $1", limit)
	return events, err
}

// PruneEvents deletes ledger rows older than the retention
func (s *Store) PruneEvents(ctx context.Context, retention time.Duration) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM processed_events WHERE processed_at < $1", time.Now().Add(-retention))
	if err != nil {
		return 0, fmt.Errorf("failed to prune processed_events: %w", err)
	}
	return res.RowsAffected()
}
