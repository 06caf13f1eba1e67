package storage

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/shaibs3/uniload/internal/db"
	"github.com/shaibs3/uniload/internal/db_model"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// SQLProvider stores universities in SQLite or Postgres through database/sql
type SQLProvider struct {
	db      *sql.DB
	dialect db_model.Dialect
	logger  *zap.Logger
	cb      *gobreaker.CircuitBreaker
	metrics *storageMetrics
}

func NewSQLProvider(ctx context.Context, config DbProviderConfig, logger *zap.Logger, meter metric.Meter) (*SQLProvider, error) {
	sqlLogger := logger.Named(config.DbType.String())

	connStr, ok := config.ExtraDetails["conn_str"].(string)
	if !ok || connStr == "" {
		return nil, fmt.Errorf("conn_str is required for %s provider", config.DbType)
	}

	driverName := "postgres"
	if config.DbType == DbTypeSQLite {
		driverName = "sqlite"
		connStr = sqliteDSN(connStr)
	}
	sqlLogger.Info("initializing SQL provider", zap.String("driver", driverName))

	dbConn, err := sql.Open(driverName, connStr)
	if err != nil {
		sqlLogger.Error("failed to open connection", zap.Error(err))
		return nil, fmt.Errorf("failed to open %s connection: %w", driverName, err)
	}
	if config.DbType == DbTypeSQLite {
		// a second connection to :memory: would see an empty database
		dbConn.SetMaxOpenConns(1)
		dbConn.SetMaxIdleConns(1)
	}

	if err := dbConn.PingContext(ctx); err != nil {
		sqlLogger.Error("failed to ping database", zap.Error(err))
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping %s: %w", driverName, err)
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "StorageDB",
		MaxRequests: 5,
		Interval:    60 * time.Second,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 3
		},
		// rejected rows and cancelled callers say nothing about the store itself
		IsSuccessful: func(err error) bool {
			return err == nil || !isConnectionError(err)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			sqlLogger.Warn("circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})

	sqlLogger.Info("SQL provider initialized successfully")
	return &SQLProvider{
		db:      dbConn,
		dialect: config.DbType.Dialect(),
		logger:  sqlLogger,
		cb:      cb,
		metrics: newStorageMetrics(meter),
	}, nil
}

// sqliteDSN turns on foreign key enforcement for every connection
func sqliteDSN(connStr string) string {
	if strings.Contains(connStr, "foreign_keys") {
		return connStr
	}
	sep := "?"
	if strings.Contains(connStr, "?") {
		sep = "&"
	}
	return connStr + sep + "_pragma=foreign_keys(1)"
}

// execute runs op through the circuit breaker and classifies the failure
func (p *SQLProvider) execute(ctx context.Context, op string, fn func() (interface{}, error)) (interface{}, error) {
	start := time.Now()
	res, err := p.cb.Execute(fn)
	p.metrics.record(ctx, op, start, err)
	if err == nil {
		return res, nil
	}
	if isFatal(err) {
		p.logger.Error("storage unavailable", zap.String("operation", op), zap.Error(err))
		return nil, fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
	}
	return nil, fmt.Errorf("%s: %w", op, err)
}

// isFatal reports whether err means the store cannot serve any request right now
func isFatal(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) ||
		errors.Is(err, gobreaker.ErrTooManyRequests) ||
		isConnectionError(err)
}

// isConnectionError matches failures of the database itself: lost or refused
// connections, a closed handle, a corrupt or unreadable file. Constraint
// violations and context cancellation are not connection errors.
func isConnectionError(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, sql.ErrConnDone) || errors.Is(err, driver.ErrBadConn) {
		return true
	}
	// database/sql does not export its closed-handle error
	if strings.Contains(err.Error(), "sql: database is closed") {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code.Class() {
		case "08", "53", "57", "58", "XX":
			return true
		}
		return false
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() & 0xff {
		case sqlite3.SQLITE_CORRUPT, sqlite3.SQLITE_NOTADB, sqlite3.SQLITE_IOERR,
			sqlite3.SQLITE_CANTOPEN, sqlite3.SQLITE_FULL, sqlite3.SQLITE_READONLY:
			return true
		}
	}
	return false
}

func (p *SQLProvider) EnsureSchema(ctx context.Context) error {
	_, err := p.execute(ctx, "ensure_schema", func() (interface{}, error) {
		return nil, db.EnsureSchema(ctx, p.db, p.dialect)
	})
	return err
}

func (p *SQLProvider) GetOrCreateCountry(ctx context.Context, name string) (int64, error) {
	res, err := p.execute(ctx, "get_or_create_country", func() (interface{}, error) {
		return db.GetOrCreateCountry(ctx, p.db, p.dialect, name)
	})
	if err != nil {
		return 0, err
	}
	return res.(int64), nil
}

func (p *SQLProvider) FindUniversity(ctx context.Context, key db_model.DedupKey) (int64, bool, error) {
	type found struct {
		id int64
		ok bool
	}
	res, err := p.execute(ctx, "find_university", func() (interface{}, error) {
		id, ok, err := db.FindUniversity(ctx, p.db, p.dialect, key)
		return found{id: id, ok: ok}, err
	})
	if err != nil {
		return 0, false, err
	}
	f := res.(found)
	return f.id, f.ok, nil
}

func (p *SQLProvider) InsertUniversity(ctx context.Context, u db_model.University) (int64, error) {
	res, err := p.execute(ctx, "insert_university", func() (interface{}, error) {
		return db.InsertUniversity(ctx, p.db, p.dialect, u)
	})
	if err != nil {
		return 0, err
	}
	return res.(int64), nil
}

func (p *SQLProvider) CountryTotals(ctx context.Context) ([]db.CountryTotal, error) {
	res, err := p.execute(ctx, "country_totals", func() (interface{}, error) {
		return db.CountryTotals(ctx, p.db)
	})
	if err != nil {
		return nil, err
	}
	return res.([]db.CountryTotal), nil
}

func (p *SQLProvider) UniversitiesByCountry(ctx context.Context, country string, limit int) ([]db.UniversityMatch, error) {
	res, err := p.execute(ctx, "universities_by_country", func() (interface{}, error) {
		return db.UniversitiesByCountry(ctx, p.db, p.dialect, country, limit)
	})
	if err != nil {
		return nil, err
	}
	return res.([]db.UniversityMatch), nil
}

func (p *SQLProvider) SearchUniversities(ctx context.Context, term string, limit int) ([]db.UniversityMatch, error) {
	res, err := p.execute(ctx, "search_universities", func() (interface{}, error) {
		return db.SearchUniversities(ctx, p.db, p.dialect, term, limit)
	})
	if err != nil {
		return nil, err
	}
	return res.([]db.UniversityMatch), nil
}

func (p *SQLProvider) Counts(ctx context.Context) (db.RowCounts, error) {
	res, err := p.execute(ctx, "counts", func() (interface{}, error) {
		return db.Counts(ctx, p.db)
	})
	if err != nil {
		return db.RowCounts{}, err
	}
	return res.(db.RowCounts), nil
}

func (p *SQLProvider) InTx(ctx context.Context, fn func(Writer) error) error {
	_, err := p.execute(ctx, "transaction", func() (interface{}, error) {
		tx, err := p.db.BeginTx(ctx, nil)
		if err != nil {
			return nil, err
		}
		if err := fn(&txWriter{tx: tx, dialect: p.dialect}); err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				p.logger.Warn("failed to roll back transaction", zap.Error(rbErr))
			}
			return nil, err
		}
		return nil, tx.Commit()
	})
	return err
}

// txWriter runs the Writer operations inside one open transaction
type txWriter struct {
	tx      *sql.Tx
	dialect db_model.Dialect
}

func (w *txWriter) EnsureSchema(ctx context.Context) error {
	return db.EnsureSchema(ctx, w.tx, w.dialect)
}

func (w *txWriter) GetOrCreateCountry(ctx context.Context, name string) (int64, error) {
	return db.GetOrCreateCountry(ctx, w.tx, w.dialect, name)
}

func (w *txWriter) FindUniversity(ctx context.Context, key db_model.DedupKey) (int64, bool, error) {
	return db.FindUniversity(ctx, w.tx, w.dialect, key)
}

func (w *txWriter) InsertUniversity(ctx context.Context, u db_model.University) (int64, error) {
	return db.InsertUniversity(ctx, w.tx, w.dialect, u)
}

// InTx joins the transaction that is already open
func (w *txWriter) InTx(ctx context.Context, fn func(Writer) error) error {
	return fn(w)
}

// DB exposes the underlying handle for tests and maintenance commands
func (p *SQLProvider) DB() *sql.DB {
	return p.db
}

func (p *SQLProvider) Close() error {
	return p.db.Close()
}
