package etl

import (
	"context"
	"fmt"

	"github.com/shaibs3/uniload/internal/db_model"
	"github.com/shaibs3/uniload/internal/normalize"
	"github.com/shaibs3/uniload/internal/storage"
	"go.uber.org/zap"
)

// Loader persists normalized records, skipping ones whose dedup key already exists
type Loader struct {
	store  storage.Writer
	logger *zap.Logger
}

func NewLoader(store storage.Writer, logger *zap.Logger) *Loader {
	return &Loader{store: store, logger: logger.Named("loader")}
}

// Load resolves the owning country, creating it on first use, and inserts rec unless
// a university with the same name, country and state/province is already stored.
// Both writes share one transaction so a failed insert leaves no empty country behind.
// It reports whether a row was inserted.
func (l *Loader) Load(ctx context.Context, rec normalize.Record) (bool, error) {
	var inserted bool
	err := l.store.InTx(ctx, func(w storage.Writer) error {
		inserted = false
		countryID, err := w.GetOrCreateCountry(ctx, rec.Country)
		if err != nil {
			return fmt.Errorf("resolve country %q: %w", rec.Country, err)
		}

		uni := db_model.University{
			Name:          rec.Name,
			CountryID:     countryID,
			AlphaTwoCode:  rec.AlphaTwoCode,
			StateProvince: rec.StateProvince,
			Domains:       rec.Domains,
			WebPages:      rec.WebPages,
		}

		existing, found, err := w.FindUniversity(ctx, uni.Key())
		if err != nil {
			return fmt.Errorf("find university %q: %w", rec.Name, err)
		}
		if found {
			l.logger.Debug("university already stored",
				zap.String("name", rec.Name),
				zap.String("country", rec.Country),
				zap.Int64("id", existing))
			return nil
		}

		if _, err := w.InsertUniversity(ctx, uni); err != nil {
			return fmt.Errorf("insert university %q: %w", rec.Name, err)
		}
		inserted = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return inserted, nil
}
