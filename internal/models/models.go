package models

import (
	"database/sql"
	"time"
)

// We use 'db' tags for sqlx to automatically map
// the database column names (snake_case) to our Go fields (CamelCase).
// Role and status fields are closed typed constants, never free-form strings.

// ProfileRole is the kind of profile (what the profile does on the platform).
type ProfileRole string

const (
	ProfileRoleBusker     ProfileRole = "busker"
	ProfileRoleEventmaker ProfileRole = "eventmaker"
	ProfileRoleViewer     ProfileRole = "viewer"
)

func (r ProfileRole) Valid() bool {
	switch r {
	case ProfileRoleBusker, ProfileRoleEventmaker, ProfileRoleViewer:
		return true
	}
	return false
}

// MemberRole is a member's role inside a profile. Exactly one owner per profile.
type MemberRole string

const (
	MemberRoleOwner  MemberRole = "owner"
	MemberRoleAdmin  MemberRole = "admin"
	MemberRoleMember MemberRole = "member"
)

// CanManage reports whether the role may create/cancel invites and
// change profile settings.
func (r MemberRole) CanManage() bool {
	return r == MemberRoleOwner || r == MemberRoleAdmin
}

// InviteStatus is the lifecycle of a profile invite. pending is the only
// non-terminal state.
type InviteStatus string

const (
	InviteStatusPending   InviteStatus = "pending"
	InviteStatusAccepted  InviteStatus = "accepted"
	InviteStatusRejected  InviteStatus = "rejected"
	InviteStatusCancelled InviteStatus = "cancelled"
	InviteStatusExpired   InviteStatus = "expired"
)

// TipStatus tracks the payment state of a tip.
type TipStatus string

const (
	TipStatusPending   TipStatus = "pending"
	TipStatusCompleted TipStatus = "completed"
	TipStatusFailed    TipStatus = "failed"
)

// WithdrawalStatus lifecycle: pending -> approved -> completed,
// or pending -> rejected.
type WithdrawalStatus string

const (
	WithdrawalStatusPending   WithdrawalStatus = "pending"
	WithdrawalStatusApproved  WithdrawalStatus = "approved"
	WithdrawalStatusRejected  WithdrawalStatus = "rejected"
	WithdrawalStatusCompleted WithdrawalStatus = "completed"
)

// PayoutMethod records how an approved withdrawal was (or will be) paid out.
type PayoutMethod string

const (
	PayoutMethodIris   PayoutMethod = "iris"
	PayoutMethodManual PayoutMethod = "manual"
)

// User represents a user's authentication details.
type User struct {
	ID           int64     `db:"id"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

// Profile is an individual performer or a band. Tips are addressed to a
// profile; the money lands in the member wallets.
type Profile struct {
	ID               int64          `db:"id" json:"id"`
	OwnerUserID      int64          `db:"owner_user_id" json:"owner_user_id"`
	Name             string         `db:"name" json:"name"`
	Role             ProfileRole    `db:"role" json:"role"`
	BankAccountToken sql.NullString `db:"bank_account_token" json:"-"`
	WidgetToken      string         `db:"widget_token" json:"-"`
	CreatedAt        time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at" json:"updated_at"`
}

// HasBankAccount reports whether a bank-account token is on file.
func (p Profile) HasBankAccount() bool {
	return p.BankAccountToken.Valid && p.BankAccountToken.String != ""
}

// ProfileMember links a user to a profile with a revenue share percentage
// in [0,100]. The sum of shares across a profile stays <= 100: adding a
// member rescales the existing shares proportionally.
type ProfileMember struct {
	ID           int64      `db:"id" json:"id"`
	ProfileID    int64      `db:"profile_id" json:"profile_id"`
	UserID       int64      `db:"user_id" json:"user_id"`
	Role         MemberRole `db:"role" json:"role"`
	RevenueShare float64    `db:"revenue_share" json:"revenue_share"`
	Alias        string     `db:"alias" json:"alias"`
	Specialty    string     `db:"specialty" json:"specialty"`
	Description  string     `db:"description" json:"description"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// ProfileInvite is a pending offer to join a profile's roster at a proposed
// revenue share. One terminal transition only.
type ProfileInvite struct {
	ID            int64        `db:"id" json:"id"`
	ProfileID     int64        `db:"profile_id" json:"profile_id"`
	InviterUserID int64        `db:"inviter_user_id" json:"inviter_user_id"`
	InviteeEmail  string       `db:"invitee_email" json:"invitee_email"`
	RevenueShare  float64      `db:"revenue_share" json:"revenue_share"`
	Token         string       `db:"token" json:"token"`
	Status        InviteStatus `db:"status" json:"status"`
	Alias         string       `db:"alias" json:"alias"`
	Specialty     string       `db:"specialty" json:"specialty"`
	ExpiresAt     time.Time    `db:"expires_at" json:"expires_at"`
	CreatedAt     time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time    `db:"updated_at" json:"updated_at"`
}

// Expired reports whether the invite's expiry has passed.
func (i ProfileInvite) Expired(now time.Time) bool {
	return now.After(i.ExpiresAt)
}

// Tip is a single payment intent from a donor to a profile.
// Amounts are integer cents.
type Tip struct {
	ID            int64          `db:"id" json:"id"`
	ProfileID     int64          `db:"profile_id" json:"profile_id"`
	OrderID       string         `db:"order_id" json:"order_id"`
	AmountCents   int64          `db:"amount_cents" json:"amount_cents"`
	DonorName     string         `db:"donor_name" json:"donor_name"`
	Message       string         `db:"message" json:"message"`
	PaymentStatus TipStatus      `db:"payment_status" json:"payment_status"`
	GatewayTxID   sql.NullString `db:"gateway_tx_id" json:"-"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
}

// UserWallet holds a user's withdrawable balance ("saldo") in cents,
// shared across every profile the user belongs to.
type UserWallet struct {
	UserID     int64     `db:"user_id" json:"user_id"`
	SaldoCents int64     `db:"saldo_cents" json:"saldo_cents"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// Withdrawal is a request to convert wallet saldo into a bank transfer.
// The debit happens at approval; a failed payout call after the debit is
// recorded for manual settlement, never rolled back.
type Withdrawal struct {
	ID           int64            `db:"id" json:"id"`
	ProfileID    int64            `db:"profile_id" json:"profile_id"`
	UserID       int64            `db:"user_id" json:"user_id"`
	AmountCents  int64            `db:"amount_cents" json:"amount_cents"`
	Status       WithdrawalStatus `db:"status" json:"status"`
	PayoutMethod sql.NullString   `db:"payout_method" json:"payout_method"`
	PayoutRef    sql.NullString   `db:"payout_ref" json:"payout_ref"`
	PayoutError  sql.NullString   `db:"payout_error" json:"payout_error"`
	CreatedAt    time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time        `db:"updated_at" json:"updated_at"`
}
