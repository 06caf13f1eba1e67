package etl

import (
	"context"
	"errors"
	"sync"

	"github.com/shaibs3/uniload/internal/db_model"
	"github.com/shaibs3/uniload/internal/source"
	"github.com/shaibs3/uniload/internal/storage"
)

func strPtr(s string) *string { return &s }

// fakeFetcher serves canned records per country and records the call order
type fakeFetcher struct {
	mu      sync.Mutex
	records map[string][]source.RawRecord
	errs    map[string]error
	calls   []string
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		records: make(map[string][]source.RawRecord),
		errs:    make(map[string]error),
	}
}

func (f *fakeFetcher) Fetch(ctx context.Context, country string) ([]source.RawRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, country)
	if err := f.errs[country]; err != nil {
		return nil, err
	}
	return f.records[country], nil
}

// flakyStore fails InsertUniversity for the configured names
type flakyStore struct {
	*storage.InMemoryProvider
	failNames map[string]error
}

func (s *flakyStore) InsertUniversity(ctx context.Context, u db_model.University) (int64, error) {
	if err, ok := s.failNames[u.Name]; ok {
		return 0, err
	}
	return s.InMemoryProvider.InsertUniversity(ctx, u)
}

// InTx hands fn the flaky store itself so the configured failures still apply
func (s *flakyStore) InTx(ctx context.Context, fn func(storage.Writer) error) error {
	return s.InMemoryProvider.InTx(ctx, func(storage.Writer) error { return fn(s) })
}

var errDiskFull = errors.New("disk full")
