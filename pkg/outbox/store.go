package outbox

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/example/farescout/internal/quote/domain"
)

// Store implements domain.EventPublisher by inserting events into the
// quote_outbox table. The relay worker in internal/outbox forwards them to
// NATS, so publication survives broker outages.
type Store struct {
	db      *sql.DB
	subject string
}

// NewStore builds a Store writing events for the given subject.
func NewStore(db *sql.DB, subject string) *Store {
	if subject == "" {
		subject = DefaultSubject
	}
	return &Store{db: db, subject: subject}
}

// Publish inserts the event as an unpublished outbox row.
func (s *Store) Publish(ctx context.Context, event domain.ComparisonEvent) error {
	if s == nil || s.db == nil {
		return nil
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO quote_outbox (topic, payload, published, created_at) VALUES ($1, $2, false, now())`,
		s.subject, payload)
	if err != nil {
		return fmt.Errorf("insert outbox: %w", err)
	}
	return nil
}
