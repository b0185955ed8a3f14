package repository

import (
	"context"
	"time"

	"github.com/deanDev5200/web-aspirasi/internal/models"
)

// AspirasiCollection is the collection (or table) name used by every backend.
const AspirasiCollection = "aspirasis"

// SubmissionStore is the persistence contract for submissions. Lookups of
// an absent id return (nil, nil); malformed ids count as absent.
type SubmissionStore interface {
	EnsureIndexes(ctx context.Context) error
	Ping(ctx context.Context) error
	Create(ctx context.Context, a *models.Aspirasi) error
	FindByID(ctx context.Context, id string) (*models.Aspirasi, error)
	// Find returns one page sorted by timestamp descending, plus the total
	// number of matches.
	Find(ctx context.Context, f models.Filter, skip, limit int) ([]models.Aspirasi, int, error)
	Count(ctx context.Context, f models.Filter) (int, error)
	UpdateStatus(ctx context.Context, id string, status models.Status, updatedAt time.Time) (*models.Aspirasi, error)
	Delete(ctx context.Context, id string) (bool, error)
	// Exists reports whether a submission with this exact name, body and
	// timestamp is already stored.
	Exists(ctx context.Context, nama, aspirasi string, ts time.Time) (bool, error)
	Close() error
}

func toMillis(t time.Time) int64 {
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
