// Package etl loads university records country by country: fetch, normalize, then
// insert rows that are not already stored.
//
// Countries are processed sequentially. A country whose records cannot be fetched is
// recorded in the summary and skipped; malformed records and per-record storage errors
// are counted and skipped. A storage failure wrapping storage.ErrUnavailable, or a
// cancelled context, aborts the run and returns the partial summary with the error.
//
// Country rows are created lazily by the Loader, so a country the directory returns no
// records for never gets a row.
package etl

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shaibs3/uniload/internal/normalize"
	"github.com/shaibs3/uniload/internal/source"
	"github.com/shaibs3/uniload/internal/storage"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// Fetcher returns the raw directory records of one country
type Fetcher interface {
	Fetch(ctx context.Context, country string) ([]source.RawRecord, error)
}

type Pipeline struct {
	fetcher   Fetcher
	store     storage.Writer
	loader    *Loader
	countries []string
	logger    *zap.Logger
	metrics   *pipelineMetrics
}

// NewPipeline builds a pipeline that loads defaultCountries when Run is given none
func NewPipeline(fetcher Fetcher, store storage.Writer, defaultCountries []string, logger *zap.Logger, meter metric.Meter) *Pipeline {
	pipelineLogger := logger.Named("etl")
	return &Pipeline{
		fetcher:   fetcher,
		store:     store,
		loader:    NewLoader(store, pipelineLogger),
		countries: append([]string(nil), defaultCountries...),
		logger:    pipelineLogger,
		metrics:   newPipelineMetrics(meter),
	}
}

// DefaultCountries returns a copy of the list used when Run is called without countries
func (p *Pipeline) DefaultCountries() []string {
	return append([]string(nil), p.countries...)
}

// Run loads countries in order, or the default list when countries is empty
func (p *Pipeline) Run(ctx context.Context, countries []string) (Summary, error) {
	if len(countries) == 0 {
		countries = p.countries
	}
	summary := Summary{RunID: uuid.NewString(), StartedAt: time.Now()}
	logger := p.logger.With(zap.String("run_id", summary.RunID))
	logger.Info("etl run started", zap.Int("countries", len(countries)))

	finish := func(err error) (Summary, error) {
		summary.FinishedAt = time.Now()
		fields := []zap.Field{
			zap.Int("fetched", summary.Fetched),
			zap.Int("inserted", summary.Inserted),
			zap.Int("duplicates", summary.Duplicates),
			zap.Int("malformed", summary.Malformed),
			zap.Int("storage_errors", summary.StorageErrors),
			zap.Int("failed_countries", summary.FailedCountries),
			zap.Duration("elapsed", summary.Duration()),
		}
		if err != nil {
			logger.Error("etl run aborted", append(fields, zap.Error(err))...)
		} else {
			logger.Info("etl run finished", fields...)
		}
		return summary, err
	}

	if err := p.store.EnsureSchema(ctx); err != nil {
		return finish(fmt.Errorf("ensure schema: %w", err))
	}

	for _, country := range countries {
		if err := ctx.Err(); err != nil {
			return finish(err)
		}
		result, err := p.runCountry(ctx, logger, country)
		summary.add(result)
		if err != nil {
			return finish(err)
		}
	}
	return finish(nil)
}

// runCountry only returns an error when the whole run has to stop
func (p *Pipeline) runCountry(ctx context.Context, logger *zap.Logger, country string) (CountryResult, error) {
	start := time.Now()
	result := CountryResult{Country: country}
	logger = logger.With(zap.String("country", country))
	defer func() { p.metrics.recordCountry(ctx, result, start) }()

	records, err := p.fetcher.Fetch(ctx, country)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return result, ctxErr
		}
		result.FetchErr = err
		result.Error = err.Error()
		logger.Warn("skipping country, fetch failed", zap.Error(err))
		return result, nil
	}
	result.Fetched = len(records)

	for _, raw := range records {
		rec, err := normalize.Normalize(raw, normalize.ResolveCountry(raw))
		if err != nil {
			result.Malformed++
			logger.Debug("skipping malformed record", zap.Error(err))
			continue
		}

		inserted, err := p.loader.Load(ctx, rec)
		if err != nil {
			result.StorageErrors++
			if errors.Is(err, storage.ErrUnavailable) {
				return result, fmt.Errorf("load %q: %w", country, err)
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return result, ctxErr
			}
			logger.Error("failed to store record", zap.String("name", rec.Name), zap.Error(err))
			continue
		}
		if inserted {
			result.Inserted++
		} else {
			result.Duplicates++
		}
	}

	logger.Info("country loaded",
		zap.Int("fetched", result.Fetched),
		zap.Int("inserted", result.Inserted),
		zap.Int("duplicates", result.Duplicates),
		zap.Int("malformed", result.Malformed),
		zap.Int("storage_errors", result.StorageErrors))
	return result, nil
}
