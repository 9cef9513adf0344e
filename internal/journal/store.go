// Package journal persists an audit trail of the orders this process sent
// and the execution reports it received, plus an outbox feeding the Kafka
// publisher. Sequence numbers and strategy state deliberately stay in
// memory; the journal is observational only.
package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/ismaiel54/fix-trading-bot/internal/msg"
)

// Order origins.
const (
	OriginStrategy = "strategy"
	OriginDemo     = "demo"
)

// Store is the sqlite-backed order journal.
type Store struct {
	db *sql.DB
}

// Order is a row in the orders table, written when a NewOrderSingle leaves
// the process.
type Order struct {
	ClOrdID string
	Symbol  string
	Side    string
	Qty     float64
	Price   float64
	Origin  string
}

// Execution is a row in the executions table, written for every
// ExecutionReport the order entry session receives.
type Execution struct {
	ClOrdID  string
	ExecType string
	Status   string
	Reason   string
	Symbol   string
	Side     string
	Qty      float64
	Price    float64
}

// OutboxEvent is an order event waiting to be published.
type OutboxEvent struct {
	ID                  int64
	ClOrdID             string
	EventID             string
	Topic               string
	Key                 string
	PayloadJSON         string
	CreatedUnixMillis   int64
	PublishedUnixMillis sql.NullInt64
}

// Open creates or opens the journal at path.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

func (s *Store) migrate() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS orders (
			cl_ord_id TEXT PRIMARY KEY,
			symbol TEXT NOT NULL,
			side TEXT NOT NULL,
			qty REAL NOT NULL,
			price REAL NOT NULL,
			origin TEXT NOT NULL,
			created_unix_millis INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS executions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			cl_ord_id TEXT NOT NULL,
			exec_type TEXT NOT NULL,
			status TEXT NOT NULL,
			reason TEXT NOT NULL,
			received_unix_millis INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS outbox_events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			cl_ord_id TEXT NOT NULL,
			event_id TEXT NOT NULL UNIQUE,
			topic TEXT NOT NULL,
			key TEXT NOT NULL,
			payload_json TEXT NOT NULL,
			created_unix_millis INTEGER NOT NULL,
			published_unix_millis INTEGER NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_outbox_unpublished
			ON outbox_events(published_unix_millis)
			WHERE published_unix_millis IS NULL`,
	}

	for _, query := range queries {
		if _, err := s.db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute migration: %w", err)
		}
	}

	return nil
}

// RecordOrder inserts the order and queues a SUBMITTED outbox event in one
// transaction. Recording the same ClOrdID twice is a no-op, so a retried
// submit does not duplicate events.
func (s *Store) RecordOrder(ctx context.Context, o Order) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UnixMilli()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO orders (cl_ord_id, symbol, side, qty, price, origin, created_unix_millis)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(cl_ord_id) DO NOTHING`,
		o.ClOrdID, o.Symbol, o.Side, o.Qty, o.Price, o.Origin, now,
	)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if inserted == 0 {
		return tx.Commit()
	}

	event := msg.OrderEventMsg{
		EventID:      uuid.New().String(),
		ClOrdID:      o.ClOrdID,
		Symbol:       o.Symbol,
		Side:         o.Side,
		Status:       "SUBMITTED",
		Qty:          o.Qty,
		Price:        o.Price,
		TsUnixMillis: now,
	}
	if err := insertOutbox(ctx, tx, event, now); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// RecordExecution inserts the execution row and queues the matching outbox
// event in one transaction.
func (s *Store) RecordExecution(ctx context.Context, e Execution) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UnixMilli()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO executions (cl_ord_id, exec_type, status, reason, received_unix_millis)
		 VALUES (?, ?, ?, ?, ?)`,
		e.ClOrdID, e.ExecType, e.Status, e.Reason, now,
	)
	if err != nil {
		return fmt.Errorf("failed to insert execution: %w", err)
	}

	event := msg.OrderEventMsg{
		EventID:      uuid.New().String(),
		ClOrdID:      e.ClOrdID,
		Symbol:       e.Symbol,
		Side:         e.Side,
		Status:       e.Status,
		Reason:       e.Reason,
		Qty:          e.Qty,
		Price:        e.Price,
		TsUnixMillis: now,
	}
	if err := insertOutbox(ctx, tx, event, now); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func insertOutbox(ctx context.Context, tx *sql.Tx, event msg.OrderEventMsg, now int64) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal order event: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO outbox_events (cl_ord_id, event_id, topic, key, payload_json, created_unix_millis, published_unix_millis)
		 VALUES (?, ?, ?, ?, ?, ?, NULL)`,
		event.ClOrdID, event.EventID, msg.TopicOrderEvents, event.ClOrdID, string(payload), now,
	)
	if err != nil {
		return fmt.Errorf("failed to insert outbox event: %w", err)
	}
	return nil
}

// ListUnpublished returns unpublished outbox events, oldest first.
func (s *Store) ListUnpublished(ctx context.Context, limit int) ([]OutboxEvent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, cl_ord_id, event_id, topic, key, payload_json, created_unix_millis, published_unix_millis
		 FROM outbox_events
		 WHERE published_unix_millis IS NULL
		 ORDER BY created_unix_millis ASC, id ASC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query unpublished events: %w", err)
	}
	defer rows.Close()

	var events []OutboxEvent
	for rows.Next() {
		var e OutboxEvent
		err := rows.Scan(
			&e.ID, &e.ClOrdID, &e.EventID, &e.Topic, &e.Key,
			&e.PayloadJSON, &e.CreatedUnixMillis, &e.PublishedUnixMillis,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, e)
	}

	return events, rows.Err()
}

// MarkPublished marks an event as published.
func (s *Store) MarkPublished(ctx context.Context, eventID string, nowMillis int64) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE outbox_events SET published_unix_millis = ? WHERE event_id = ?",
		nowMillis, eventID,
	)
	if err != nil {
		return fmt.Errorf("failed to mark event as published: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
