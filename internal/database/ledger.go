package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EnsureAccount creates the account if it does not exist yet. seed is only
// credited on creation, so restarting never mints twice.
func EnsureAccount(ctx context.Context, db Database, address, name string, seed int64) error {
	query := rebind(db, `INSERT INTO accounts (address, name, balance, created_at) VALUES (?, ?, ?, ?)
		ON CONFLICT (address) DO NOTHING`)
	if _, err := db.ExecContext(ctx, query, address, name, seed, time.Now().UTC()); err != nil {
		return fmt.Errorf("ensure account %s: %w", name, err)
	}
	return nil
}

// GetAccount returns the account stored under address.
func GetAccount(ctx context.Context, db Database, address string) (*Account, error) {
	acc := &Account{}
	query := rebind(db, "SELECT address, name, balance FROM accounts WHERE address = ?")
	err := db.QueryRowContext(ctx, query, address).Scan(&acc.Address, &acc.Name, &acc.Balance)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, address)
	}
	if err != nil {
		return nil, err
	}
	return acc, nil
}

// Transfer moves cents between two addresses in a single transaction and
// returns the transfer id. The debit is conditional on the balance so two
// concurrent transfers can never overdraw an account. A destination that is
// not a ledger account is treated as an external withdrawal.
func Transfer(ctx context.Context, db Database, from, to string, cents int64) (string, error) {
	if cents <= 0 {
		return "", fmt.Errorf("transfer amount must be positive, got %d", cents)
	}

	tx, err := db.BeginTx(ctx)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, rebind(db, "UPDATE accounts SET balance = balance - ? WHERE address = ? AND balance >= ?"), cents, from, cents)
	if err != nil {
		return "", fmt.Errorf("debit %s: %w", from, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return "", err
	} else if n == 0 {
		var exists int
		err := tx.QueryRowContext(ctx, rebind(db, "SELECT 1 FROM accounts WHERE address = ?"), from).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("%w: %s", ErrAccountNotFound, from)
		}
		return "", ErrInsufficientFunds
	}

	if _, err := tx.ExecContext(ctx, rebind(db, "UPDATE accounts SET balance = balance + ? WHERE address = ?"), cents, to); err != nil {
		return "", fmt.Errorf("credit %s: %w", to, err)
	}

	id := uuid.NewString()
	_, err = tx.ExecContext(ctx, rebind(db, "INSERT INTO transfers (id, from_address, to_address, amount, created_at) VALUES (?, ?, ?, ?, ?)"),
		id, from, to, cents, time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("record transfer: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return id, nil
}

// CountTransfers returns how many transfers touched address, either side.
func CountTransfers(ctx context.Context, db Database, address string) (int, error) {
	var n int
	query := rebind(db, "SELECT COUNT(*) FROM transfers WHERE from_address = ? OR to_address = ?")
	if err := db.QueryRowContext(ctx, query, address, address).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
