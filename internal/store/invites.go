package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"busker-platform/internal/models"
)

type Invites struct {
	db *sqlx.DB
}

func NewInvites(db *sqlx.DB) *Invites {
	return &Invites{db: db}
}

func (s *Invites) Create(inv models.ProfileInvite) (models.ProfileInvite, error) {
	query := `
		INSERT INTO profile_invites
			(profile_id, inviter_user_id, invitee_email, revenue_share, token, status, alias, specialty, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING *
	`
	var created models.ProfileInvite
	err := s.db.Get(&created, query,
		inv.ProfileID, inv.InviterUserID, inv.InviteeEmail, inv.RevenueShare,
		inv.Token, inv.Status, inv.Alias, inv.Specialty, inv.ExpiresAt)
	if err != nil {
		return created, fmt.Errorf("failed to create invite: %w", err)
	}
	return created, nil
}

func (s *Invites) ByID(id int64) (models.ProfileInvite, error) {
	var inv models.ProfileInvite
	err := s.db.Get(&inv, `SELECT * FROM profile_invites WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return inv, ErrInviteNotFound
	}
	if err != nil {
		return inv, fmt.Errorf("failed to load invite: %w", err)
	}
	return inv, nil
}

func (s *Invites) ByToken(token string) (models.ProfileInvite, error) {
	var inv models.ProfileInvite
	err := s.db.Get(&inv, `SELECT * FROM profile_invites WHERE token = $1`, token)
	if errors.Is(err, sql.ErrNoRows) {
		return inv, ErrInviteNotFound
	}
	if err != nil {
		return inv, fmt.Errorf("failed to load invite by token: %w", err)
	}
	return inv, nil
}

func (s *Invites) PendingForProfile(profileID int64) ([]models.ProfileInvite, error) {
	var invites []models.ProfileInvite
	query := `
		SELECT * FROM profile_invites
		WHERE profile_id = $1 AND status = 'pending'
		ORDER BY created_at DESC
	`
	if err := s.db.Select(&invites, query, profileID); err != nil {
		return nil, fmt.Errorf("failed to list profile invites: %w", err)
	}
	return invites, nil
}

func (s *Invites) PendingForEmail(email string) ([]models.ProfileInvite, error) {
	var invites []models.ProfileInvite
	query := `
		SELECT * FROM profile_invites
		WHERE LOWER(invitee_email) = LOWER($1) AND status = 'pending'
		ORDER BY created_at DESC
	`
	if err := s.db.Select(&invites, query, email); err != nil {
		return nil, fmt.Errorf("failed to list invites for email: %w", err)
	}
	return invites, nil
}

// SetStatus flips the invite status only if it currently holds the expected
// one. It returns false when the invite was not in that status, which is how
// the workflow both guards terminal states and compensates a failed accept.
func (s *Invites) SetStatus(id int64, from, to models.InviteStatus) (bool, error) {
	query := `
		UPDATE profile_invites
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
	`
	res, err := s.db.Exec(query, id, from, to)
	if err != nil {
		return false, fmt.Errorf("failed to update invite status: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read invite update result: %w", err)
	}
	return rows > 0, nil
}
