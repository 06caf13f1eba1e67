package db

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/shaibs3/uniload/internal/db_model"
)

// Querier is satisfied by *sql.DB, *sql.Conn and *sql.Tx
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// EnsureSchema creates the tables and indexes if they do not exist yet
func EnsureSchema(ctx context.Context, q Querier, d db_model.Dialect) error {
	_, err := q.ExecContext(ctx, db_model.SchemaFor(d))
	return err
}

// GetOrCreateCountry inserts a country if it doesn't exist and returns its ID.
// The unique constraint on name makes this safe against concurrent callers.
func GetOrCreateCountry(ctx context.Context, q Querier, d db_model.Dialect, name string) (int64, error) {
	var id int64
	err := q.QueryRowContext(ctx, db_model.Rebind(d, `INSERT INTO countries (name) VALUES (?)
		ON CONFLICT (name) DO UPDATE SET name=excluded.name
		RETURNING id`), name).Scan(&id)
	return id, err
}

// FindUniversity returns the ID of the university matching key, if any
func FindUniversity(ctx context.Context, q Querier, d db_model.Dialect, key db_model.DedupKey) (int64, bool, error) {
	var id int64
	err := q.QueryRowContext(ctx, db_model.Rebind(d, `
		SELECT id FROM universities
		WHERE name = ? AND country_id = ? AND COALESCE(state_province, '') = ?
		ORDER BY id ASC
		LIMIT 1
	`), key.Name, key.CountryID, key.StateProvince).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

// InsertUniversity inserts a new university row and returns its ID
func InsertUniversity(ctx context.Context, q Querier, d db_model.Dialect, u db_model.University) (int64, error) {
	var id int64
	err := q.QueryRowContext(ctx, db_model.Rebind(d, `
		INSERT INTO universities (name, country_id, alpha_two_code, state_province, domains, web_pages)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id
	`),
		u.Name,
		u.CountryID,
		nullString(u.AlphaTwoCode),
		nullString(u.StateProvince),
		u.Domains,
		u.WebPages,
	).Scan(&id)
	return id, err
}

// GetCountryByName returns the country row with the given name
func GetCountryByName(ctx context.Context, q Querier, d db_model.Dialect, name string) (db_model.Country, bool, error) {
	var c db_model.Country
	err := q.QueryRowContext(ctx, db_model.Rebind(d, `SELECT id, name FROM countries WHERE name = ?`), name).
		Scan(&c.ID, &c.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return c, false, nil
	}
	if err != nil {
		return c, false, err
	}
	return c, true, nil
}

// CountryTotals returns every country with its university count, empty countries included
func CountryTotals(ctx context.Context, q Querier) ([]CountryTotal, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT c.id, c.name, COUNT(u.id) AS total
		FROM countries c
		LEFT JOIN universities u ON u.country_id = c.id
		GROUP BY c.id, c.name
		ORDER BY total DESC, c.name ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var totals []CountryTotal
	for rows.Next() {
		var t CountryTotal
		if err := rows.Scan(&t.CountryID, &t.Country, &t.Total); err != nil {
			return nil, err
		}
		totals = append(totals, t)
	}
	return totals, rows.Err()
}

// UniversitiesByCountry returns the universities of a country ordered by name
func UniversitiesByCountry(ctx context.Context, q Querier, d db_model.Dialect, country string, limit int) ([]UniversityMatch, error) {
	return queryMatches(ctx, q, db_model.Rebind(d, `
		SELECT u.id, u.name, c.name, u.state_province
		FROM universities u
		JOIN countries c ON c.id = u.country_id
		WHERE c.name = ?
		ORDER BY u.name ASC, u.id ASC
		LIMIT ?
	`), country, normalizeLimit(limit))
}

// SearchUniversities returns universities whose name contains term literally, ignoring
// case. SQLite's LOWER folds ASCII letters only.
func SearchUniversities(ctx context.Context, q Querier, d db_model.Dialect, term string, limit int) ([]UniversityMatch, error) {
	return queryMatches(ctx, q, db_model.Rebind(d, `
		SELECT u.id, u.name, c.name, u.state_province
		FROM universities u
		JOIN countries c ON c.id = u.country_id
		WHERE LOWER(u.name) LIKE LOWER(?) ESCAPE '\'
		ORDER BY u.name ASC, u.id ASC
		LIMIT ?
	`), "%"+escapeLike(term)+"%", normalizeLimit(limit))
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes LIKE wildcards in s match themselves
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// Counts returns the number of rows in each table
func Counts(ctx context.Context, q Querier) (RowCounts, error) {
	var c RowCounts
	err := q.QueryRowContext(ctx, `
		SELECT (SELECT COUNT(*) FROM countries), (SELECT COUNT(*) FROM universities)
	`).Scan(&c.Countries, &c.Universities)
	return c, err
}

func queryMatches(ctx context.Context, q Querier, query string, args ...any) ([]UniversityMatch, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var matches []UniversityMatch
	for rows.Next() {
		var m UniversityMatch
		var state sql.NullString
		if err := rows.Scan(&m.ID, &m.Name, &m.Country, &state); err != nil {
			return nil, err
		}
		if state.Valid {
			s := state.String
			m.StateProvince = &s
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultReportLimit
	}
	return limit
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
