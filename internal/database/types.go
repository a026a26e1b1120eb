package database

import (
	"context"
	"database/sql"
	"errors"
)

// Database is the subset of database/sql the ledger needs, implemented for SQLite and PostgreSQL.
type Database interface {
	Open() error
	Close() error
	Ping() error

	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	BeginTx(ctx context.Context) (*sql.Tx, error)

	// Placeholder is the driver's bind parameter: ? for SQLite, $N for PostgreSQL.
	Placeholder(index int) string

	CreateTables() error
}

var (
	ErrAccountNotFound   = errors.New("account not found")
	ErrInsufficientFunds = errors.New("insufficient funds")
)

// Account is one ledger wallet. Balances are kept in cents.
type Account struct {
	Address string
	Name    string
	Balance int64
}
