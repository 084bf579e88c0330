package cache

import (
	"encoding/json"
	"time"
)

// EventRecord is a logged session lifecycle event.
type EventRecord struct {
	ID        int64
	Topic     string
	Payload   string
	CreatedAt time.Time
}

// AddEvent logs an event.  payload is stored as JSON; nil stores nothing.
func (d *DB) AddEvent(topic string, payload any, at time.Time) error {
	var p any
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		p = string(data)
	}
	_, err := d.db.Exec(`INSERT INTO events (topic, payload, created_at) VALUES (?, ?, ?)`,
		topic, p, at.Unix())
	return err
}

// RecentEvents returns up to limit events, newest first.
func (d *DB) RecentEvents(limit int) ([]EventRecord, error) {
	rows, err := d.db.Query(`SELECT id, topic, COALESCE(payload, ''), created_at
		FROM events ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []EventRecord
	for rows.Next() {
		var e EventRecord
		var createdAt int64
		if err := rows.Scan(&e.ID, &e.Topic, &e.Payload, &createdAt); err != nil {
			return nil, err
		}
		e.CreatedAt = time.Unix(createdAt, 0)
		result = append(result, e)
	}
	return result, rows.Err()
}

// EventCount returns the number of logged events.
func (d *DB) EventCount() int {
	var count int
	d.db.QueryRow(`SELECT COUNT(*) FROM events`).Scan(&count)
	return count
}
