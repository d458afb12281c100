package store

import (
	"context"
	"time"

	"trailbook/pkg/model"
)

// EntrySummary is the list-view projection of a journal entry.
type EntrySummary struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Date       time.Time `json:"date"`
	Location   string    `json:"location"`
	HasTrack   bool      `json:"hasTrack"`
	MediaCount int       `json:"mediaCount"`
}

// EntryStore handles journal entry persistence.
type EntryStore interface {
	ListEntries(ctx context.Context) ([]EntrySummary, error)
	GetEntry(ctx context.Context, id string) (*model.Entry, error)
	CreateEntry(ctx context.Context, e *model.Entry) error
	UpdateEntry(ctx context.Context, e *model.Entry) error
	DeleteEntry(ctx context.Context, id string) error
}

// MediaStore handles the photo/video assets attached to entries.
type MediaStore interface {
	ListMedia(ctx context.Context, entryID string) ([]model.EntryMedia, error)
	AddMedia(ctx context.Context, m *model.EntryMedia) error
	DeleteMedia(ctx context.Context, id string) error
}

// StateStore handles persistent application state.
type StateStore interface {
	GetState(ctx context.Context, key string) (string, bool)
	SetState(ctx context.Context, key, val string) error
	DeleteState(ctx context.Context, key string) error
}
