package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"busker-platform/internal/models"
)

type Profiles struct {
	db *sqlx.DB
}

func NewProfiles(db *sqlx.DB) *Profiles {
	return &Profiles{db: db}
}

func (s *Profiles) ByID(id int64) (models.Profile, error) {
	var p models.Profile
	err := s.db.Get(&p, `SELECT * FROM profiles WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return p, ErrProfileNotFound
	}
	if err != nil {
		return p, fmt.Errorf("failed to load profile: %w", err)
	}
	return p, nil
}

func (s *Profiles) ByName(name string) (models.Profile, error) {
	var p models.Profile
	err := s.db.Get(&p, `SELECT * FROM profiles WHERE name = $1`, name)
	if errors.Is(err, sql.ErrNoRows) {
		return p, ErrProfileNotFound
	}
	if err != nil {
		return p, fmt.Errorf("failed to load profile by name: %w", err)
	}
	return p, nil
}

func (s *Profiles) ByWidgetToken(token string) (models.Profile, error) {
	var p models.Profile
	err := s.db.Get(&p, `SELECT * FROM profiles WHERE widget_token = $1`, token)
	if errors.Is(err, sql.ErrNoRows) {
		return p, ErrProfileNotFound
	}
	if err != nil {
		return p, fmt.Errorf("failed to load profile by widget token: %w", err)
	}
	return p, nil
}

func (s *Profiles) ForUser(userID int64) ([]models.Profile, error) {
	var profiles []models.Profile
	query := `
		SELECT p.* FROM profiles p
		JOIN profile_members m ON m.profile_id = p.id
		WHERE m.user_id = $1
		ORDER BY p.created_at ASC
	`
	if err := s.db.Select(&profiles, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list profiles for user: %w", err)
	}
	return profiles, nil
}

// SetBankAccount stores the opaque bank-account token used by payouts.
func (s *Profiles) SetBankAccount(id int64, token string) error {
	query := `UPDATE profiles SET bank_account_token = $2, updated_at = NOW() WHERE id = $1`
	res, err := s.db.Exec(query, id, token)
	if err != nil {
		return fmt.Errorf("failed to set bank account: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read bank account update result: %w", err)
	}
	if rows == 0 {
		return ErrProfileNotFound
	}
	return nil
}
