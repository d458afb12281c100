package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"trailbook/pkg/db"
	"trailbook/pkg/model"
)

// Store defines the repository interface.
// It composes all sub-interfaces for full store access.
// Consumers should depend on specific sub-interfaces when possible.
type Store interface {
	EntryStore
	MediaStore
	StateStore

	// Close closes the store connection.
	Close() error
}

// SQLiteStore implements Store.
type SQLiteStore struct {
	db *db.DB
}

// NewSQLiteStore creates a new store.
func NewSQLiteStore(db *db.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// --- Entries ---

func (s *SQLiteStore) ListEntries(ctx context.Context) ([]EntrySummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT e.id, e.title, e.date, e.location,
		        (e.gpx_data IS NOT NULL AND e.gpx_data != '') OR e.watch_payload IS NOT NULL,
		        COUNT(m.id)
		 FROM entries e
		 LEFT JOIN entry_media m ON m.entry_id = e.id
		 GROUP BY e.id
		 ORDER BY e.date DESC, e.created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EntrySummary
	for rows.Next() {
		var es EntrySummary
		var date sql.NullTime
		var location sql.NullString
		if err := rows.Scan(&es.ID, &es.Title, &date, &location, &es.HasTrack, &es.MediaCount); err != nil {
			return nil, err
		}
		if date.Valid {
			es.Date = date.Time
		}
		es.Location = location.String
		out = append(out, es)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) GetEntry(ctx context.Context, id string) (*model.Entry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, title, description, date, location, weather, gpx_data, watch_payload, created_at, updated_at
		 FROM entries WHERE id = ?`, id)

	var e model.Entry
	var description, location, weather, gpxData sql.NullString
	var date, updatedAt sql.NullTime
	var watchPayload []byte

	err := row.Scan(&e.ID, &e.Title, &description, &date, &location, &weather, &gpxData, &watchPayload, &e.CreatedAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, err
	}

	e.Description = description.String
	e.Location = location.String
	e.Weather = weather.String
	e.GPXData = gpxData.String
	e.WatchPayload = watchPayload
	if date.Valid {
		e.Date = date.Time
	}
	if updatedAt.Valid {
		e.UpdatedAt = updatedAt.Time
	}

	media, err := s.ListMedia(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading media for entry %s: %w", id, err)
	}
	e.Media = media
	return &e, nil
}

func (s *SQLiteStore) CreateEntry(ctx context.Context, e *model.Entry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO entries (id, title, description, date, location, weather, gpx_data, watch_payload)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Title, e.Description, e.Date, e.Location, e.Weather, e.GPXData, []byte(e.WatchPayload))
	return err
}

func (s *SQLiteStore) UpdateEntry(ctx context.Context, e *model.Entry) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE entries
		 SET title = ?, description = ?, date = ?, location = ?, weather = ?, gpx_data = ?, watch_payload = ?, updated_at = ?
		 WHERE id = ?`,
		e.Title, e.Description, e.Date, e.Location, e.Weather, e.GPXData, []byte(e.WatchPayload), time.Now().UTC(), e.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return fmt.Errorf("entry %s not found", e.ID)
	}
	return err
}

func (s *SQLiteStore) DeleteEntry(ctx context.Context, id string) error {
	// entry_media rows go with the entry via ON DELETE CASCADE.
	_, err := s.db.ExecContext(ctx, "DELETE FROM entries WHERE id = ?", id)
	return err
}

// --- Media ---

func (s *SQLiteStore) ListMedia(ctx context.Context, entryID string) ([]model.EntryMedia, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, entry_id, kind, url, thumbnail_url, caption, latitude, longitude, captured_at, duration_s, created_at
		 FROM entry_media WHERE entry_id = ? ORDER BY created_at`, entryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.EntryMedia
	for rows.Next() {
		var m model.EntryMedia
		var thumb, caption sql.NullString
		var lat, lon, durationS sql.NullFloat64
		var capturedAt sql.NullTime
		if err := rows.Scan(&m.ID, &m.EntryID, &m.Kind, &m.URL, &thumb, &caption, &lat, &lon, &capturedAt, &durationS, &m.CreatedAt); err != nil {
			return nil, err
		}
		m.ThumbnailURL = thumb.String
		m.Caption = caption.String
		if lat.Valid {
			m.Latitude = &lat.Float64
		}
		if lon.Valid {
			m.Longitude = &lon.Float64
		}
		if capturedAt.Valid {
			t := capturedAt.Time
			m.CapturedAt = &t
		}
		if durationS.Valid {
			m.DurationS = &durationS.Float64
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) AddMedia(ctx context.Context, m *model.EntryMedia) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO entry_media (id, entry_id, kind, url, thumbnail_url, caption, latitude, longitude, captured_at, duration_s)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.EntryID, m.Kind, m.URL, m.ThumbnailURL, m.Caption,
		nullFloat(m.Latitude), nullFloat(m.Longitude), nullTime(m.CapturedAt), nullFloat(m.DurationS))
	return err
}

func (s *SQLiteStore) DeleteMedia(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM entry_media WHERE id = ?", id)
	return err
}

// --- State ---

func (s *SQLiteStore) GetState(ctx context.Context, key string) (string, bool) {
	var val string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM persistent_state WHERE key = ?", key).Scan(&val)
	if err != nil {
		return "", false
	}
	return val, true
}

func (s *SQLiteStore) SetState(ctx context.Context, key, val string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO persistent_state (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, val)
	return err
}

func (s *SQLiteStore) DeleteState(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM persistent_state WHERE key = ?", key)
	return err
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
