package store

import (
	"context"
	"database/sql"
	"fmt"
	"math/big"

	id "carefund/pkg/domain"
	"carefund/pkg/platform/sentinel"
)

// PostgresStore keeps fee-account balances in PostgreSQL. Balances are stored
// as NUMERIC(78,0), wide enough for any 256-bit amount.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the fee_accounts table if it does not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS fee_accounts (
			principal TEXT PRIMARY KEY,
			balance   NUMERIC(78,0) NOT NULL DEFAULT 0 CHECK (balance >= 0)
		)
	`)
	if err != nil {
		return fmt.Errorf("migrate fee_accounts: %w", err)
	}
	return nil
}

func (s *PostgresStore) Credit(ctx context.Context, principal id.Principal, amount *big.Int) error {
	query := `
		INSERT INTO fee_accounts (principal, balance)
		VALUES ($1, $2::numeric)
		ON CONFLICT (principal) DO UPDATE SET
			balance = fee_accounts.balance + EXCLUDED.balance
	`
	_, err := s.db.ExecContext(ctx, query, principal.String(), amount.String())
	if err != nil {
		return fmt.Errorf("credit fee account: %w", err)
	}
	return nil
}

func (s *PostgresStore) Debit(ctx context.Context, principal id.Principal, amount *big.Int) error {
	query := `
		UPDATE fee_accounts
		SET balance = balance - $2::numeric
		WHERE principal = $1 AND balance >= $2::numeric
	`
	res, err := s.db.ExecContext(ctx, query, principal.String(), amount.String())
	if err != nil {
		return fmt.Errorf("debit fee account: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("debit fee account: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrConflict
	}
	return nil
}

func (s *PostgresStore) Balance(ctx context.Context, principal id.Principal) (*big.Int, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT balance::text FROM fee_accounts WHERE principal = $1`,
		principal.String(),
	).Scan(&raw)
	if err != nil {
		if err == sql.ErrNoRows {
			return new(big.Int), nil
		}
		return nil, fmt.Errorf("read fee account: %w", err)
	}
	balance, ok := new(big.Int).SetString(raw, 10)
	if !ok {
		return nil, fmt.Errorf("read fee account: malformed balance %q", raw)
	}
	return balance, nil
}
