package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
)

// PostgresDatabase implements Database on the pgx stdlib driver, which also
// works through the Supabase pooler.
type PostgresDatabase struct {
	connString string
	db         *sql.DB
	log        *zap.Logger
}

func NewPostgresDatabase(connString string, log *zap.Logger) *PostgresDatabase {
	return &PostgresDatabase{
		connString: connString,
		log:        log,
	}
}

func (p *PostgresDatabase) Open() error {
	p.log.Info("connecting to postgres", zap.String("conn", maskPassword(p.connString)))

	db, err := sql.Open("pgx", p.connString)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(0)

	p.db = db
	return nil
}

// maskPassword hides the password of a connection URL for logging.
func maskPassword(connString string) string {
	start := strings.Index(connString, "://")
	if start < 0 {
		return connString
	}
	start += 3
	at := strings.Index(connString[start:], "@")
	if at < 0 {
		return connString
	}
	userPass := connString[start : start+at]
	colon := strings.Index(userPass, ":")
	if colon < 0 {
		return connString
	}
	return connString[:start] + userPass[:colon] + ":****@" + connString[start+at+1:]
}

func (p *PostgresDatabase) Close() error {
	if p.db != nil {
		return p.db.Close()
	}
	return nil
}

func (p *PostgresDatabase) Ping() error {
	if p.db == nil {
		return fmt.Errorf("database not connected")
	}
	return p.db.Ping()
}

func (p *PostgresDatabase) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return p.db.QueryRowContext(ctx, query, args...)
}

func (p *PostgresDatabase) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return p.db.ExecContext(ctx, query, args...)
}

func (p *PostgresDatabase) BeginTx(ctx context.Context) (*sql.Tx, error) {
	return p.db.BeginTx(ctx, nil)
}

// Placeholder is 1-indexed.
func (p *PostgresDatabase) Placeholder(index int) string {
	return fmt.Sprintf("$%d", index)
}

func (p *PostgresDatabase) CreateTables() error {
	if os.Getenv("DB_SKIP_TABLE_CREATION") == "true" {
		p.log.Info("skipping table creation (DB_SKIP_TABLE_CREATION=true)")
		return nil
	}

	createAccountsSQL := `CREATE TABLE IF NOT EXISTS accounts (
		address TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		balance BIGINT NOT NULL DEFAULT 0,
		created_at TIMESTAMP
	);`
	if _, err := p.db.Exec(createAccountsSQL); err != nil {
		return fmt.Errorf("create accounts table: %w", err)
	}

	createTransfersSQL := `CREATE TABLE IF NOT EXISTS transfers (
		id TEXT PRIMARY KEY,
		from_address TEXT NOT NULL,
		to_address TEXT NOT NULL,
		amount BIGINT NOT NULL,
		created_at TIMESTAMP
	);`
	if _, err := p.db.Exec(createTransfersSQL); err != nil {
		return fmt.Errorf("create transfers table: %w", err)
	}

	return nil
}
