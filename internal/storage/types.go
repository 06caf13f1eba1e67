package storage

import (
	"errors"

	"github.com/shaibs3/uniload/internal/db_model"
)

// DbType names a storage backend
type DbType string

const (
	DbTypeSQLite   DbType = "sqlite"
	DbTypePostgres DbType = "postgres"
	DbTypeMemory   DbType = "memory"
	// Add more database types here as you implement them
)

func (t DbType) String() string {
	return string(t)
}

// IsValid reports whether t is a supported backend
func (t DbType) IsValid() bool {
	switch t {
	case DbTypeSQLite, DbTypePostgres, DbTypeMemory:
		return true
	}
	return false
}

// Dialect maps a SQL backend to the dialect its queries are written in
func (t DbType) Dialect() db_model.Dialect {
	if t == DbTypePostgres {
		return db_model.DialectPostgres
	}
	return db_model.DialectSQLite
}

// DbProviderConfig is the JSON document that selects and configures a provider
type DbProviderConfig struct {
	DbType       DbType                 `json:"db_type"`
	ExtraDetails map[string]interface{} `json:"extra_details"`
}

// ErrUnavailable marks storage failures that make the store unusable for the rest of a run
var ErrUnavailable = errors.New("storage unavailable")
