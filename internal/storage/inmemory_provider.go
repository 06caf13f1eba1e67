package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/shaibs3/uniload/internal/db"
	"github.com/shaibs3/uniload/internal/db_model"
)

type InMemoryProvider struct {
	// txMu serializes InTx callers so a rollback only undoes their own rows
	txMu         sync.Mutex
	mu           sync.RWMutex
	countries    map[string]int64
	countryNames map[int64]string
	universities []db_model.University
	byKey        map[db_model.DedupKey]int64
	nextCountry  int64
	nextUni      int64
}

func NewInMemoryProvider() *InMemoryProvider {
	return &InMemoryProvider{
		countries:    make(map[string]int64),
		countryNames: make(map[int64]string),
		byKey:        make(map[db_model.DedupKey]int64),
		nextCountry:  1,
		nextUni:      1,
	}
}

func (m *InMemoryProvider) EnsureSchema(ctx context.Context) error {
	return nil
}

func (m *InMemoryProvider) GetOrCreateCountry(ctx context.Context, name string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id, ok := m.countries[name]; ok {
		return id, nil
	}
	id := m.nextCountry
	m.countries[name] = id
	m.countryNames[id] = name
	m.nextCountry++
	return id, nil
}

func (m *InMemoryProvider) FindUniversity(ctx context.Context, key db_model.DedupKey) (int64, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.byKey[key]
	return id, ok, nil
}

func (m *InMemoryProvider) InsertUniversity(ctx context.Context, u db_model.University) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.countryNames[u.CountryID]; !ok {
		return 0, fmt.Errorf("insert university %q: unknown country id %d", u.Name, u.CountryID)
	}
	u.ID = m.nextUni
	m.nextUni++
	m.universities = append(m.universities, u)
	if _, ok := m.byKey[u.Key()]; !ok {
		m.byKey[u.Key()] = u.ID
	}
	return u.ID, nil
}

func (m *InMemoryProvider) InTx(ctx context.Context, fn func(Writer) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.mu.RLock()
	firstCountry, firstUni := m.nextCountry, m.nextUni
	m.mu.RUnlock()

	if err := fn(memTx{m}); err != nil {
		m.rollback(firstCountry, firstUni)
		return err
	}
	return nil
}

// memTx is the Writer handed to InTx callbacks; nested InTx calls join it
type memTx struct {
	*InMemoryProvider
}

func (t memTx) InTx(ctx context.Context, fn func(Writer) error) error {
	return fn(t)
}

// rollback drops every row whose id was handed out at or after the given marks
func (m *InMemoryProvider) rollback(firstCountry, firstUni int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.universities[:0]
	for _, u := range m.universities {
		if u.ID >= firstUni {
			if m.byKey[u.Key()] == u.ID {
				delete(m.byKey, u.Key())
			}
			continue
		}
		kept = append(kept, u)
	}
	m.universities = kept

	for id, name := range m.countryNames {
		if id >= firstCountry {
			delete(m.countryNames, id)
			delete(m.countries, name)
		}
	}
}

func (m *InMemoryProvider) CountryTotals(ctx context.Context) ([]db.CountryTotal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	counts := make(map[int64]int64, len(m.countryNames))
	for _, u := range m.universities {
		counts[u.CountryID]++
	}
	totals := make([]db.CountryTotal, 0, len(m.countryNames))
	for id, name := range m.countryNames {
		totals = append(totals, db.CountryTotal{CountryID: id, Country: name, Total: counts[id]})
	}
	sort.Slice(totals, func(i, j int) bool {
		if totals[i].Total != totals[j].Total {
			return totals[i].Total > totals[j].Total
		}
		return totals[i].Country < totals[j].Country
	})
	return totals, nil
}

func (m *InMemoryProvider) UniversitiesByCountry(ctx context.Context, country string, limit int) ([]db.UniversityMatch, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.countries[country]
	if !ok {
		return nil, nil
	}
	return m.matches(func(u db_model.University) bool { return u.CountryID == id }, limit), nil
}

func (m *InMemoryProvider) SearchUniversities(ctx context.Context, term string, limit int) ([]db.UniversityMatch, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	term = asciiLower(term)
	return m.matches(func(u db_model.University) bool {
		return strings.Contains(asciiLower(u.Name), term)
	}, limit), nil
}

func (m *InMemoryProvider) Counts(ctx context.Context) (db.RowCounts, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return db.RowCounts{
		Countries:    int64(len(m.countries)),
		Universities: int64(len(m.universities)),
	}, nil
}

func (m *InMemoryProvider) Close() error {
	return nil
}

// matches must be called with m.mu held
func (m *InMemoryProvider) matches(keep func(db_model.University) bool, limit int) []db.UniversityMatch {
	if limit <= 0 {
		limit = db.DefaultReportLimit
	}
	var out []db.UniversityMatch
	for _, u := range m.universities {
		if !keep(u) {
			continue
		}
		match := db.UniversityMatch{ID: u.ID, Name: u.Name, Country: m.countryNames[u.CountryID]}
		if u.StateProvince != nil {
			s := *u.StateProvince
			match.StateProvince = &s
		}
		out = append(out, match)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// asciiLower folds A-Z only, like SQLite's LOWER
func asciiLower(s string) string {
	return strings.Map(func(r rune) rune {
		if 'A' <= r && r <= 'Z' {
			return r + ('a' - 'A')
		}
		return r
	}, s)
}
