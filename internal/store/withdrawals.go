package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"busker-platform/internal/models"
)

type Withdrawals struct {
	db *sqlx.DB
}

func NewWithdrawals(db *sqlx.DB) *Withdrawals {
	return &Withdrawals{db: db}
}

func (s *Withdrawals) Create(w models.Withdrawal) (models.Withdrawal, error) {
	query := `
		INSERT INTO withdrawals (profile_id, user_id, amount_cents, status)
		VALUES ($1, $2, $3, $4)
		RETURNING *
	`
	var created models.Withdrawal
	err := s.db.Get(&created, query, w.ProfileID, w.UserID, w.AmountCents, w.Status)
	if err != nil {
		return created, fmt.Errorf("failed to create withdrawal: %w", err)
	}
	return created, nil
}

func (s *Withdrawals) ByID(id int64) (models.Withdrawal, error) {
	var w models.Withdrawal
	err := s.db.Get(&w, `SELECT * FROM withdrawals WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return w, ErrWithdrawalNotFound
	}
	if err != nil {
		return w, fmt.Errorf("failed to load withdrawal: %w", err)
	}
	return w, nil
}

func (s *Withdrawals) ForProfile(profileID int64) ([]models.Withdrawal, error) {
	var list []models.Withdrawal
	query := `SELECT * FROM withdrawals WHERE profile_id = $1 ORDER BY created_at DESC`
	if err := s.db.Select(&list, query, profileID); err != nil {
		return nil, fmt.Errorf("failed to list withdrawals: %w", err)
	}
	return list, nil
}

// SetStatus flips the withdrawal status only from the expected current one,
// keeping the transitions one-directional. Returns false when the row was
// not in that status.
func (s *Withdrawals) SetStatus(id int64, from, to models.WithdrawalStatus) (bool, error) {
	query := `
		UPDATE withdrawals
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
	`
	res, err := s.db.Exec(query, id, from, to)
	if err != nil {
		return false, fmt.Errorf("failed to update withdrawal status: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read withdrawal update result: %w", err)
	}
	return rows > 0, nil
}

// RecordPayout attaches the payout outcome to an approved withdrawal.
// ref is empty when the payout failed; payoutErr is empty when it succeeded.
func (s *Withdrawals) RecordPayout(id int64, method models.PayoutMethod, ref, payoutErr string) error {
	query := `
		UPDATE withdrawals
		SET payout_method = $2,
		    payout_ref = NULLIF($3, ''),
		    payout_error = NULLIF($4, ''),
		    updated_at = NOW()
		WHERE id = $1
	`
	if _, err := s.db.Exec(query, id, method, ref, payoutErr); err != nil {
		return fmt.Errorf("failed to record payout result: %w", err)
	}
	return nil
}
