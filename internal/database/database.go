package database

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Open connects to the configured database ("sqlite" or "postgres"), pings it
// and creates the ledger tables.
func Open(dbType, connString string, log *zap.Logger) (Database, error) {
	var db Database
	switch dbType {
	case "postgres":
		log.Info("initializing postgres database")
		db = NewPostgresDatabase(connString, log)
	case "sqlite", "":
		log.Info("initializing sqlite database", zap.String("path", connString))
		db = NewSQLiteDatabase(connString)
	default:
		return nil, fmt.Errorf("unknown database type %q", dbType)
	}

	if err := db.Open(); err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := db.CreateTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}
	return db, nil
}

// rebind rewrites ? placeholders for the driver.
func rebind(db Database, query string) string {
	if db.Placeholder(1) == "?" {
		return query
	}

	var b strings.Builder
	index := 1
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			b.WriteString(db.Placeholder(index))
			index++
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}
