package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"

	"busker-platform/internal/models"
)

// MemberMeta carries the optional display fields and the role for a new
// roster member.
type MemberMeta struct {
	Role        models.MemberRole
	Alias       string
	Specialty   string
	Description string
}

// Rosters owns every write to profile_members. Adding a member runs in one
// database transaction that locks the profile's existing rows, so two
// invite acceptances for the same profile cannot interleave their rescales.
type Rosters struct {
	db *sqlx.DB
}

func NewRosters(db *sqlx.DB) *Rosters {
	return &Rosters{db: db}
}

// RosterFor returns all members of a profile, owner first.
func (s *Rosters) RosterFor(profileID int64) ([]models.ProfileMember, error) {
	var members []models.ProfileMember
	query := `
		SELECT * FROM profile_members
		WHERE profile_id = $1
		ORDER BY role = 'owner' DESC, created_at ASC
	`
	if err := s.db.Select(&members, query, profileID); err != nil {
		return nil, fmt.Errorf("failed to load roster: %w", err)
	}
	return members, nil
}

// MemberOf returns the membership row linking a user to a profile, or nil
// if the user is not on the roster.
func (s *Rosters) MemberOf(profileID, userID int64) (*models.ProfileMember, error) {
	var m models.ProfileMember
	query := `SELECT * FROM profile_members WHERE profile_id = $1 AND user_id = $2`
	err := s.db.Get(&m, query, profileID, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to look up membership: %w", err)
	}
	return &m, nil
}

// RescaleFactor returns the multiplier applied to every existing share when
// a member joins at incomingShare. It is 1 while the roster total stays
// within 100; past that, existing shares shrink proportionally so the new
// total lands back at 100. An incoming share of 100 zeroes the others.
func RescaleFactor(currentTotal, incomingShare float64) float64 {
	if currentTotal <= 0 || currentTotal+incomingShare <= 100 {
		return 1
	}
	return (100 - incomingShare) / currentTotal
}

// AddMember inserts a new member at the given share. If the roster total
// would exceed 100, every existing share is first multiplied by
// (100 - share) / currentTotal so the new total lands back at 100.
// A share of 100 rescales existing members to zero; the invite workflow
// caps incoming shares below that, this layer just stays consistent.
func (s *Rosters) AddMember(profileID, userID int64, share float64, meta MemberMeta) (models.ProfileMember, error) {
	var member models.ProfileMember

	tx, err := s.db.Beginx()
	if err != nil {
		return member, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Lock the existing roster rows for the duration of the rescale.
	var existing []models.ProfileMember
	lockQuery := `SELECT * FROM profile_members WHERE profile_id = $1 FOR UPDATE`
	if err := tx.Select(&existing, lockQuery, profileID); err != nil {
		return member, fmt.Errorf("failed to lock roster: %w", err)
	}

	var currentTotal float64
	for _, m := range existing {
		currentTotal += m.RevenueShare
	}

	if factor := RescaleFactor(currentTotal, share); factor != 1 {
		rescale := `
			UPDATE profile_members
			SET revenue_share = $1, updated_at = NOW()
			WHERE id = $2
		`
		for _, m := range existing {
			if _, err := tx.Exec(rescale, m.RevenueShare*factor, m.ID); err != nil {
				return member, fmt.Errorf("failed to rescale share for member %d: %w", m.ID, err)
			}
		}
	}

	insert := `
		INSERT INTO profile_members (profile_id, user_id, role, revenue_share, alias, specialty, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING *
	`
	err = tx.Get(&member, insert,
		profileID, userID, meta.Role, share, meta.Alias, meta.Specialty, meta.Description)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return member, ErrAlreadyMember
		}
		return member, fmt.Errorf("failed to insert member: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return member, fmt.Errorf("failed to commit roster change: %w", err)
	}
	return member, nil
}
