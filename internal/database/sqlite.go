package database

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteDatabase implements Database on go-sqlite3.
type SQLiteDatabase struct {
	connString string
	db         *sql.DB
}

func NewSQLiteDatabase(connString string) *SQLiteDatabase {
	return &SQLiteDatabase{
		connString: connString,
	}
}

func (s *SQLiteDatabase) Open() error {
	db, err := sql.Open("sqlite3", s.connString)
	if err != nil {
		return err
	}
	// a single connection keeps ":memory:" databases shared and serializes writers
	db.SetMaxOpenConns(1)
	s.db = db
	return nil
}

func (s *SQLiteDatabase) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteDatabase) Ping() error {
	if s.db == nil {
		return fmt.Errorf("database not connected")
	}
	return s.db.Ping()
}

func (s *SQLiteDatabase) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return s.db.QueryRowContext(ctx, query, args...)
}

func (s *SQLiteDatabase) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return s.db.ExecContext(ctx, query, args...)
}

func (s *SQLiteDatabase) BeginTx(ctx context.Context) (*sql.Tx, error) {
	return s.db.BeginTx(ctx, nil)
}

func (s *SQLiteDatabase) Placeholder(index int) string {
	return "?"
}

func (s *SQLiteDatabase) CreateTables() error {
	createAccountsSQL := `CREATE TABLE IF NOT EXISTS accounts (
		"address" TEXT NOT NULL PRIMARY KEY,
		"name" TEXT NOT NULL,
		"balance" INTEGER NOT NULL DEFAULT 0,
		"created_at" DATETIME
	);`
	if _, err := s.db.Exec(createAccountsSQL); err != nil {
		return err
	}

	createTransfersSQL := `CREATE TABLE IF NOT EXISTS transfers (
		"id" TEXT NOT NULL PRIMARY KEY,
		"from_address" TEXT NOT NULL,
		"to_address" TEXT NOT NULL,
		"amount" INTEGER NOT NULL,
		"created_at" DATETIME
	);`
	if _, err := s.db.Exec(createTransfersSQL); err != nil {
		return err
	}

	return nil
}
