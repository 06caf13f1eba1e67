package db_model

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRebind(t *testing.T) {
	q := "SELECT id FROM universities WHERE name = ? AND country_id = ?"
	require.Equal(t, q, Rebind(DialectSQLite, q))
	require.Equal(t, "SELECT id FROM universities WHERE name = $1 AND country_id = $2", Rebind(DialectPostgres, q))
}

func TestSchemaFor(t *testing.T) {
	require.Equal(t, Schema, SchemaFor(DialectSQLite))
	require.Equal(t, PostgresSchema, SchemaFor(DialectPostgres))
	require.Contains(t, Schema, "domains TEXT,       -- semicolon-joined")
	require.NotContains(t, PostgresSchema, "AUTOINCREMENT")
}

func TestUniversityKey(t *testing.T) {
	sp := "SP"
	u := University{Name: "USP", CountryID: 3, StateProvince: &sp}
	require.Equal(t, DedupKey{Name: "USP", CountryID: 3, StateProvince: "SP"}, u.Key())

	u.StateProvince = nil
	require.Equal(t, DedupKey{Name: "USP", CountryID: 3}, u.Key())
}
