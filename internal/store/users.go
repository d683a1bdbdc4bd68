package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"busker-platform/internal/models"
)

type Users struct {
	db *sqlx.DB
}

func NewUsers(db *sqlx.DB) *Users {
	return &Users{db: db}
}

func (s *Users) ByID(id int64) (models.User, error) {
	var u models.User
	err := s.db.Get(&u, `SELECT * FROM users WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return u, ErrUserNotFound
	}
	if err != nil {
		return u, fmt.Errorf("failed to load user: %w", err)
	}
	return u, nil
}

func (s *Users) ByEmail(email string) (models.User, error) {
	var u models.User
	err := s.db.Get(&u, `SELECT * FROM users WHERE LOWER(email) = LOWER($1)`, email)
	if errors.Is(err, sql.ErrNoRows) {
		return u, ErrUserNotFound
	}
	if err != nil {
		return u, fmt.Errorf("failed to load user: %w", err)
	}
	return u, nil
}

// Register creates the user, their first profile and the owner's roster row
// (full 100% share) in one transaction, so a duplicate email or profile name
// leaves nothing behind and a committed profile always has its owner on the
// roster.
func (s *Users) Register(email, passwordHash, profileName string, role models.ProfileRole, widgetToken string) (models.User, models.Profile, error) {
	var user models.User
	var profile models.Profile

	tx, err := s.db.Beginx()
	if err != nil {
		return user, profile, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	userQuery := `
		INSERT INTO users (email, password_hash)
		VALUES ($1, $2)
		RETURNING *
	`
	if err := tx.Get(&user, userQuery, email, passwordHash); err != nil {
		return user, profile, fmt.Errorf("failed to insert user: %w", err)
	}

	profileQuery := `
		INSERT INTO profiles (owner_user_id, name, role, widget_token)
		VALUES ($1, $2, $3, $4)
		RETURNING *
	`
	if err := tx.Get(&profile, profileQuery, user.ID, profileName, role, widgetToken); err != nil {
		return user, profile, fmt.Errorf("failed to insert profile: %w", err)
	}

	ownerQuery := `
		INSERT INTO profile_members (profile_id, user_id, role, revenue_share)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := tx.Exec(ownerQuery, profile.ID, user.ID, models.MemberRoleOwner, 100.0); err != nil {
		return user, profile, fmt.Errorf("failed to insert owner membership: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return user, profile, fmt.Errorf("failed to commit registration: %w", err)
	}
	return user, profile, nil
}
