package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"busker-platform/internal/models"
)

type Tips struct {
	db *sqlx.DB
}

func NewTips(db *sqlx.DB) *Tips {
	return &Tips{db: db}
}

func (s *Tips) Create(tip models.Tip) (models.Tip, error) {
	query := `
		INSERT INTO tips (profile_id, order_id, amount_cents, donor_name, message, payment_status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING *
	`
	var created models.Tip
	err := s.db.Get(&created, query,
		tip.ProfileID, tip.OrderID, tip.AmountCents, tip.DonorName, tip.Message, tip.PaymentStatus)
	if err != nil {
		return created, fmt.Errorf("failed to create tip: %w", err)
	}
	return created, nil
}

func (s *Tips) ByOrderID(orderID string) (models.Tip, error) {
	var tip models.Tip
	err := s.db.Get(&tip, `SELECT * FROM tips WHERE order_id = $1`, orderID)
	if errors.Is(err, sql.ErrNoRows) {
		return tip, ErrTipNotFound
	}
	if err != nil {
		return tip, fmt.Errorf("failed to load tip: %w", err)
	}
	return tip, nil
}

// MarkCompleted transitions the tip pending -> completed exactly once.
// It returns false when the tip was already completed (or failed), which is
// the idempotency gate for distribution: a duplicate webhook sees false and
// credits nothing.
func (s *Tips) MarkCompleted(tipID int64, gatewayTxID string) (bool, error) {
	query := `
		UPDATE tips
		SET payment_status = 'completed', gateway_tx_id = $2
		WHERE id = $1 AND payment_status = 'pending'
	`
	res, err := s.db.Exec(query, tipID, gatewayTxID)
	if err != nil {
		return false, fmt.Errorf("failed to mark tip completed: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read tip update result: %w", err)
	}
	return rows > 0, nil
}

// MarkFailed records a gateway-reported failure for a pending tip.
func (s *Tips) MarkFailed(tipID int64) error {
	query := `
		UPDATE tips SET payment_status = 'failed'
		WHERE id = $1 AND payment_status = 'pending'
	`
	if _, err := s.db.Exec(query, tipID); err != nil {
		return fmt.Errorf("failed to mark tip failed: %w", err)
	}
	return nil
}

func (s *Tips) CompletedForProfile(profileID int64) ([]models.Tip, error) {
	var tips []models.Tip
	query := `
		SELECT * FROM tips
		WHERE profile_id = $1 AND payment_status = 'completed'
		ORDER BY created_at DESC
	`
	if err := s.db.Select(&tips, query, profileID); err != nil {
		return nil, fmt.Errorf("failed to list tips: %w", err)
	}
	return tips, nil
}
