package internal

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// EventStore is the append-only SQLite log of admitted reports. It exists so
// a restart can pick up in-flight sightings; the refresh/evict path never
// touches it.
type EventStore struct {
	db *sql.DB
}

// OpenEventStore opens (and if needed creates) the event database.
func OpenEventStore(path string) (*EventStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open event database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=10000",
		"PRAGMA synchronous=NORMAL",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	schema := `create table if not exists event (
		time integer,
		type text,
		lat real,
		long real,
		link text,
		notes text
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create event table: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping event database: %w", err)
	}

	return &EventStore{db: db}, nil
}

// Append persists one admitted report.
func (s *EventStore) Append(r Report) error {
	_, err := s.db.Exec(
		"insert into event ( time, type, lat, long, link, notes ) values ( ?, ?, ?, ?, ?, ? )",
		r.Time.Unix(),
		r.Name,
		r.Coords.Latitude,
		r.Coords.Longitude,
		r.Link,
		r.RawText,
	)
	if err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}
	return nil
}

// Recent returns the newest events, most recent first. Raw text is not
// returned: replayed sightings must not re-alert.
func (s *EventStore) Recent(limit int) ([]Report, error) {
	rows, err := s.db.Query(
		"select time, type, lat, long, link from event order by time desc limit ?", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent events: %w", err)
	}
	defer rows.Close()

	var reports []Report
	for rows.Next() {
		var ts int64
		var name, link string
		var lat, lon float64
		if err := rows.Scan(&ts, &name, &lat, &lon, &link); err != nil {
			return nil, fmt.Errorf("failed to scan event row: %w", err)
		}
		reports = append(reports, Report{
			Time:   time.Unix(ts, 0),
			Name:   name,
			Coords: NewCoordinates(lat, lon),
			Link:   link,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read recent events: %w", err)
	}

	return reports, nil
}

func (s *EventStore) Close() error {
	return s.db.Close()
}
