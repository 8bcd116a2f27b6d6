// Package usql wraps database/sql so every statement is timed in the gocore "SQL" stats,
// keyed by its query text.
package usql

import (
	"context"
	"database/sql"
	"time"

	"github.com/ordishs/gocore"
)

var stat = gocore.NewStat("SQL")

type DB struct {
	*sql.DB
}

func Open(driverName, dataSourceName string) (*DB, error) {
	db, err := sql.Open(driverName, dataSourceName)
	if err != nil {
		return nil, err
	}

	return &DB{db}, nil
}

func timed(query string) func() {
	start := gocore.CurrentTime()

	return func() {
		stat.NewStat(query).AddTime(start)
	}
}

func (db *DB) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	defer timed(query)()
	return db.DB.QueryRowContext(ctx, query, args...)
}

func (db *DB) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	defer timed(query)()
	return db.DB.ExecContext(ctx, query, args...)
}

func (db *DB) Exec(query string, args ...interface{}) (sql.Result, error) {
	defer timed(query)()
	return db.DB.Exec(query, args...)
}

// Ping checks the connection within timeout.
func (db *DB) Ping(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	return db.PingContext(ctx)
}
