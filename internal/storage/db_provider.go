package storage

import (
	"context"

	"github.com/shaibs3/uniload/internal/db"
	"github.com/shaibs3/uniload/internal/db_model"
)

// Writer is the part of a provider the loader needs
type Writer interface {
	EnsureSchema(ctx context.Context) error
	GetOrCreateCountry(ctx context.Context, name string) (int64, error)
	FindUniversity(ctx context.Context, key db_model.DedupKey) (id int64, found bool, err error)
	InsertUniversity(ctx context.Context, u db_model.University) (int64, error)
	// InTx runs fn against a Writer whose changes are kept only if fn returns nil
	InTx(ctx context.Context, fn func(Writer) error) error
}

// Reporter serves the read-only report queries
type Reporter interface {
	CountryTotals(ctx context.Context) ([]db.CountryTotal, error)
	UniversitiesByCountry(ctx context.Context, country string, limit int) ([]db.UniversityMatch, error)
	SearchUniversities(ctx context.Context, term string, limit int) ([]db.UniversityMatch, error)
	Counts(ctx context.Context) (db.RowCounts, error)
}

type DbProvider interface {
	Writer
	Reporter
	Close() error
}
