package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"forest_monitor/internal/models"

	"github.com/google/uuid"
)

// EventQuery selects events; zero fields do not filter.
type EventQuery struct {
	From    time.Time // inclusive
	To      time.Time // inclusive
	Type    string
	Channel models.Channel
}

type EventSQLite struct {
	db *sql.DB
}

func NewEventSQLite(db *sql.DB) *EventSQLite { return &EventSQLite{db: db} }

// Fixed width, so TEXT comparison in sqlite orders the same as time.
const eventTimeLayout = "2006-01-02T15:04:05.000000Z"

func formatEventTime(t time.Time) string { return t.UTC().Format(eventTimeLayout) }

// Append inserts a new event. Empty EventID and zero OccurredAt are filled in.
func (r *EventSQLite) Append(ctx context.Context, e models.SensorEvent) error {
	if e.EventID == "" {
		e.EventID = uuid.NewString()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now()
	}

	var meta sql.NullString
	if e.Metadata != nil {
		b, err := json.Marshal(e.Metadata)
		if err != nil {
			return fmt.Errorf("encode event metadata: %w", err)
		}
		meta = sql.NullString{String: string(b), Valid: true}
	}
	channel := sql.NullString{String: string(e.Channel), Valid: e.Channel != ""}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sensor_events (id, occurred_at, type, channel, message, meta)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		e.EventID,
		formatEventTime(e.OccurredAt),
		strings.ToUpper(strings.TrimSpace(e.Type)),
		channel,
		e.Description,
		meta,
	)
	if err != nil {
		return fmt.Errorf("insert event %s: %w", e.EventID, err)
	}
	return nil
}

// List returns the events matching q, oldest first.
func (r *EventSQLite) List(ctx context.Context, q EventQuery) ([]models.SensorEvent, error) {
	var (
		conds []string
		args  []any
	)
	if !q.From.IsZero() {
		conds = append(conds, "occurred_at >= ?")
		args = append(args, formatEventTime(q.From))
	}
	if !q.To.IsZero() {
		conds = append(conds, "occurred_at <= ?")
		args = append(args, formatEventTime(q.To))
	}
	if typ := strings.ToUpper(strings.TrimSpace(q.Type)); typ != "" {
		conds = append(conds, "type = ?")
		args = append(args, typ)
	}
	if q.Channel != "" {
		conds = append(conds, "channel = ?")
		args = append(args, string(q.Channel))
	}

	stmt := `SELECT id, occurred_at, type, channel, message, meta FROM sensor_events`
	if len(conds) > 0 {
		stmt += " WHERE " + strings.Join(conds, " AND ")
	}
	stmt += " ORDER BY occurred_at ASC"

	rows, err := r.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	out := make([]models.SensorEvent, 0, 64)
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return out, nil
}

func scanEvent(rows *sql.Rows) (models.SensorEvent, error) {
	var (
		ev      models.SensorEvent
		at      string
		channel sql.NullString
		meta    sql.NullString
	)
	if err := rows.Scan(&ev.EventID, &at, &ev.Type, &channel, &ev.Description, &meta); err != nil {
		return ev, fmt.Errorf("scan event: %w", err)
	}
	ts, err := time.Parse(eventTimeLayout, at)
	if err != nil {
		return ev, fmt.Errorf("event %s: bad occurred_at %q: %w", ev.EventID, at, err)
	}
	ev.OccurredAt = ts.UTC()
	ev.Channel = models.Channel(channel.String)

	// metadata that is not JSON is returned as the stored string
	if meta.Valid && meta.String != "" {
		var v any
		if err := json.Unmarshal([]byte(meta.String), &v); err == nil {
			ev.Metadata = v
		} else {
			ev.Metadata = meta.String
		}
	}
	return ev, nil
}
