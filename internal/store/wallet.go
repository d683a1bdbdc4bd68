package store

import (
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Wallets is the only code allowed to touch user_wallets.saldo_cents.
// Credit and Debit are single atomic statements so concurrent tips and
// withdrawals never lose an update.
type Wallets struct {
	db *sqlx.DB
}

func NewWallets(db *sqlx.DB) *Wallets {
	return &Wallets{db: db}
}

// Balance returns the user's saldo in cents, 0 if no wallet row exists yet.
func (s *Wallets) Balance(userID int64) (int64, error) {
	var saldo int64
	err := s.db.Get(&saldo, `SELECT saldo_cents FROM user_wallets WHERE user_id = $1`, userID)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read wallet balance: %w", err)
	}
	return saldo, nil
}

// Credit adds cents to the user's wallet, creating the row on first credit.
func (s *Wallets) Credit(userID, cents int64) error {
	if cents <= 0 {
		return fmt.Errorf("credit amount must be positive, got %d", cents)
	}

	query := `
		INSERT INTO user_wallets (user_id, saldo_cents)
		VALUES ($1, $2)
		ON CONFLICT (user_id)
		DO UPDATE SET saldo_cents = user_wallets.saldo_cents + EXCLUDED.saldo_cents,
		              updated_at = NOW()
	`
	if _, err := s.db.Exec(query, userID, cents); err != nil {
		return fmt.Errorf("failed to credit wallet: %w", err)
	}
	return nil
}

// Debit removes cents from the user's wallet. The balance guard lives in
// the WHERE clause, so a concurrent credit or debit cannot slip between a
// read and a write; zero rows affected means the funds were not there.
func (s *Wallets) Debit(userID, cents int64) error {
	if cents <= 0 {
		return fmt.Errorf("debit amount must be positive, got %d", cents)
	}

	query := `
		UPDATE user_wallets
		SET saldo_cents = saldo_cents - $2, updated_at = NOW()
		WHERE user_id = $1 AND saldo_cents >= $2
	`
	res, err := s.db.Exec(query, userID, cents)
	if err != nil {
		return fmt.Errorf("failed to debit wallet: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read debit result: %w", err)
	}
	if rows == 0 {
		return ErrInsufficientFunds
	}
	return nil
}
