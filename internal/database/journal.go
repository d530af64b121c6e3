package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/khanshahnwaz/ParkingNearAirport-sub000/internal/orderdiff"
)

// JournalEntry is one saved admin edit of an order. The remote API stays
// the source of truth; the journal is a local audit trail.
type JournalEntry struct {
	ID        int64              `json:"id"`
	OrderID   string             `json:"order_id"`
	Changes   []orderdiff.Change `json:"changes"`
	Notified  bool               `json:"notified"`
	CreatedAt time.Time          `json:"created_at"`
}

// JournalRepository stores order change entries in Postgres
type JournalRepository struct {
	db *sql.DB
}

// NewJournalRepository creates a journal repository
func NewJournalRepository(db *sql.DB) *JournalRepository {
	return &JournalRepository{db: db}
}

// Record appends an entry and returns its id
func (r *JournalRepository) Record(ctx context.Context, orderID string, changes []orderdiff.Change, notified bool) (int64, error) {
	payload, err := json.Marshal(changes)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal changes: %w", err)
	}

	var id int64
	err = r.db.QueryRowContext(ctx,
		`INSERT INTO order_change_journal (order_id, changes, notified) VALUES ($1, $2, $3) RETURNING id`,
		orderID, payload, notified,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to record changes for order %s: %w", orderID, err)
	}
	return id, nil
}

// List returns an order's entries, oldest first
func (r *JournalRepository) List(ctx context.Context, orderID string) ([]JournalEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, order_id, changes, notified, created_at FROM order_change_journal WHERE order_id = $1 ORDER BY created_at, id`,
		orderID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query journal for order %s: %w", orderID, err)
	}
	defer rows.Close()

	entries := []JournalEntry{}
	for rows.Next() {
		var e JournalEntry
		var raw []byte
		if err := rows.Scan(&e.ID, &e.OrderID, &raw, &e.Notified, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan journal row: %w", err)
		}
		if err := json.Unmarshal(raw, &e.Changes); err != nil {
			return nil, fmt.Errorf("failed to decode journal changes %d: %w", e.ID, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate journal rows: %w", err)
	}
	return entries, nil
}
