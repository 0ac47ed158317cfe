// Package postgres persists audit events in a Postgres table, for
// deployments that want a queryable trail without running Kafka.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"memento/pkg/platform/audit"
)

// Store implements audit.Store over the audit_events table:
//
//	CREATE TABLE audit_events (
//	    id                  UUID PRIMARY KEY,
//	    occurred_at         TIMESTAMPTZ NOT NULL,
//	    action              TEXT NOT NULL,
//	    profile_fingerprint TEXT NOT NULL,
//	    payload             JSONB NOT NULL
//	);
type Store struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Append inserts one event. The full event is stored as JSONB so the schema
// survives new event fields without migrations.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode audit event: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO audit_events (id, occurred_at, action, profile_fingerprint, payload)
		 VALUES ($1, $2, $3, $4, $5)`,
		event.ID, event.Timestamp, string(event.Action), event.ProfileFingerprint, payload)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// ListRecent returns the most recent events, newest first.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]audit.Event, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT payload FROM audit_events ORDER BY occurred_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	var events []audit.Event
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		var event audit.Event
		if err := json.Unmarshal(payload, &event); err != nil {
			return nil, fmt.Errorf("decode audit event: %w", err)
		}
		events = append(events, event)
	}
	return events, rows.Err()
}
