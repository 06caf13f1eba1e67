package db_model

import (
	"strconv"
	"strings"
)

// Country represents a unique country name
type Country struct {
	ID   int64  `db_model:"id" json:"id"`
	Name string `db_model:"name" json:"name"`
}

// University represents a persisted university row
type University struct {
	ID            int64   `db_model:"id" json:"id"`
	Name          string  `db_model:"name" json:"name"`
	CountryID     int64   `db_model:"country_id" json:"country_id"`
	AlphaTwoCode  *string `db_model:"alpha_two_code" json:"alpha_two_code,omitempty"`
	StateProvince *string `db_model:"state_province" json:"state_province,omitempty"`
	Domains       string  `db_model:"domains" json:"domains"`
	WebPages      string  `db_model:"web_pages" json:"web_pages"`
}

// DedupKey identifies a university for duplicate detection.
// A missing state/province is stored as NULL and compares equal to "".
type DedupKey struct {
	Name          string
	CountryID     int64
	StateProvince string
}

// Key returns the dedup key of u.
func (u University) Key() DedupKey {
	k := DedupKey{Name: u.Name, CountryID: u.CountryID}
	if u.StateProvince != nil {
		k.StateProvince = *u.StateProvince
	}
	return k
}

// Dialect names the SQL flavour a schema or query is written for
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// Schema is the SQLite schema for the countries and universities tables
const Schema = `
CREATE TABLE IF NOT EXISTS countries (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT UNIQUE NOT NULL
);

CREATE TABLE IF NOT EXISTS universities (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL,
    country_id INTEGER NOT NULL REFERENCES countries(id),
    alpha_two_code TEXT,
    state_province TEXT,
    domains TEXT,       -- semicolon-joined
    web_pages TEXT       -- semicolon-joined
);

CREATE INDEX IF NOT EXISTS idx_universities_country ON universities(country_id);
CREATE INDEX IF NOT EXISTS idx_universities_name ON universities(name);
`

// PostgresSchema mirrors Schema for Postgres, which has no AUTOINCREMENT
const PostgresSchema = `
CREATE TABLE IF NOT EXISTS countries (
    id SERIAL PRIMARY KEY,
    name TEXT UNIQUE NOT NULL
);

CREATE TABLE IF NOT EXISTS universities (
    id SERIAL PRIMARY KEY,
    name TEXT NOT NULL,
    country_id INTEGER NOT NULL REFERENCES countries(id),
    alpha_two_code TEXT,
    state_province TEXT,
    domains TEXT,
    web_pages TEXT
);

CREATE INDEX IF NOT EXISTS idx_universities_country ON universities(country_id);
CREATE INDEX IF NOT EXISTS idx_universities_name ON universities(name);
`

// SchemaFor returns the DDL for the given dialect.
func SchemaFor(d Dialect) string {
	if d == DialectPostgres {
		return PostgresSchema
	}
	return Schema
}

// Rebind rewrites '?' placeholders into the dialect's bind syntax.
func Rebind(d Dialect, query string) string {
	if d != DialectPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
