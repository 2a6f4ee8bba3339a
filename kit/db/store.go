package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"log"
	"time"

	"depositlink/kit/broker"
)

type Record struct {
	Seq         int64
	AggregateID string
	EventName   string
	Payload     []byte
	OccurredAt  time.Time
}

// Store is the append-only event store backing the audit trail and the
// dashboard read model. Events live in the same database as the rows they
// describe.
type Store struct {
	db *sql.DB
}

func NewStore(sqlDB *sql.DB) *Store {
	return &Store{db: sqlDB}
}

func (s *Store) Append(ctx context.Context, aggregateID string, evt broker.Event) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		log.Printf("layer=store component=db method=Append aggregate_id=%s event=%s err=%v", aggregateID, evt.Name(), err)
		return err
	}

	occurredAt := time.Now().UTC()
	if _, err := s.db.ExecContext(
		ctx,
		"INSERT INTO enrollment_events (stream_id, event_name, payload, occurred_at) VALUES (?, ?, ?, ?)",
		aggregateID,
		evt.Name(),
		string(payload),
		occurredAt.UnixMilli(),
	); err != nil {
		log.Printf("layer=store component=db method=Append aggregate_id=%s event=%s err=%v", aggregateID, evt.Name(), err)
		return err
	}
	return nil
}

func (s *Store) Load(ctx context.Context, aggregateID string) ([]Record, error) {
	rows, err := s.db.QueryContext(
		ctx,
		"SELECT seq, stream_id, event_name, payload, occurred_at FROM enrollment_events WHERE stream_id = ? ORDER BY seq",
		aggregateID,
	)
	if err != nil {
		log.Printf("layer=store component=db method=Load aggregate_id=%s err=%v", aggregateID, err)
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	return scanRecords(rows)
}

func (s *Store) All(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(
		ctx,
		"SELECT seq, stream_id, event_name, payload, occurred_at FROM enrollment_events ORDER BY seq",
	)
	if err != nil {
		log.Printf("layer=store component=db method=All err=%v", err)
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	return scanRecords(rows)
}

func scanRecords(rows *sql.Rows) ([]Record, error) {
	var out []Record
	for rows.Next() {
		var rec Record
		var payload string
		var occurredAt int64
		if err := rows.Scan(&rec.Seq, &rec.AggregateID, &rec.EventName, &payload, &occurredAt); err != nil {
			return nil, err
		}
		rec.Payload = []byte(payload)
		rec.OccurredAt = time.UnixMilli(occurredAt).UTC()
		out = append(out, rec)
	}
	return out, rows.Err()
}
