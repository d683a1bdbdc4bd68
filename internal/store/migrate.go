package store

import (
	"fmt"
	"log"

	"github.com/jmoiron/sqlx"
)

// RunMigrations creates tables and indexes idempotently at startup.
func RunMigrations(db *sqlx.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id            BIGSERIAL    PRIMARY KEY,
			email         TEXT         NOT NULL UNIQUE,
			password_hash TEXT         NOT NULL,
			created_at    TIMESTAMPTZ  NOT NULL DEFAULT NOW(),
			updated_at    TIMESTAMPTZ  NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS profiles (
			id                 BIGSERIAL   PRIMARY KEY,
			owner_user_id      BIGINT      NOT NULL REFERENCES users(id),
			name               TEXT        NOT NULL UNIQUE,
			role               VARCHAR(20) NOT NULL,
			bank_account_token TEXT,
			widget_token       TEXT        NOT NULL UNIQUE,
			created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at         TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS profile_members (
			id            BIGSERIAL        PRIMARY KEY,
			profile_id    BIGINT           NOT NULL REFERENCES profiles(id),
			user_id       BIGINT           NOT NULL REFERENCES users(id),
			role          VARCHAR(20)      NOT NULL,
			revenue_share DOUBLE PRECISION NOT NULL CHECK (revenue_share >= 0 AND revenue_share <= 100),
			alias         TEXT             NOT NULL DEFAULT '',
			specialty     TEXT             NOT NULL DEFAULT '',
			description   TEXT             NOT NULL DEFAULT '',
			created_at    TIMESTAMPTZ      NOT NULL DEFAULT NOW(),
			updated_at    TIMESTAMPTZ      NOT NULL DEFAULT NOW(),
			UNIQUE (profile_id, user_id)
		)`,
		`CREATE TABLE IF NOT EXISTS profile_invites (
			id              BIGSERIAL        PRIMARY KEY,
			profile_id      BIGINT           NOT NULL REFERENCES profiles(id),
			inviter_user_id BIGINT           NOT NULL REFERENCES users(id),
			invitee_email   TEXT             NOT NULL,
			revenue_share   DOUBLE PRECISION NOT NULL,
			token           TEXT             NOT NULL UNIQUE,
			status          VARCHAR(20)      NOT NULL DEFAULT 'pending',
			alias           TEXT             NOT NULL DEFAULT '',
			specialty       TEXT             NOT NULL DEFAULT '',
			expires_at      TIMESTAMPTZ      NOT NULL,
			created_at      TIMESTAMPTZ      NOT NULL DEFAULT NOW(),
			updated_at      TIMESTAMPTZ      NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_profile_invites_email
			ON profile_invites(invitee_email)`,
		`CREATE TABLE IF NOT EXISTS tips (
			id             BIGSERIAL   PRIMARY KEY,
			profile_id     BIGINT      NOT NULL REFERENCES profiles(id),
			order_id       TEXT        NOT NULL UNIQUE,
			amount_cents   BIGINT      NOT NULL CHECK (amount_cents > 0),
			donor_name     TEXT        NOT NULL DEFAULT 'Anonymous',
			message        TEXT        NOT NULL DEFAULT '',
			payment_status VARCHAR(20) NOT NULL DEFAULT 'pending',
			gateway_tx_id  TEXT,
			created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS user_wallets (
			user_id     BIGINT      PRIMARY KEY REFERENCES users(id),
			saldo_cents BIGINT      NOT NULL DEFAULT 0 CHECK (saldo_cents >= 0),
			created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS withdrawals (
			id            BIGSERIAL   PRIMARY KEY,
			profile_id    BIGINT      NOT NULL REFERENCES profiles(id),
			user_id       BIGINT      NOT NULL REFERENCES users(id),
			amount_cents  BIGINT      NOT NULL CHECK (amount_cents > 0),
			status        VARCHAR(20) NOT NULL DEFAULT 'pending',
			payout_method VARCHAR(20),
			payout_ref    TEXT,
			payout_error  TEXT,
			created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_withdrawals_profile
			ON withdrawals(profile_id)`,
	}

	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	log.Println("Database migrations completed")
	return nil
}
