package service

import (
	"busker-platform/internal/models"
	"busker-platform/internal/store"
)

// The services depend on these narrow store interfaces rather than the
// concrete sqlx-backed stores, so tests can substitute in-memory fakes.
// The production implementations live in internal/store.

type WalletStore interface {
	Balance(userID int64) (int64, error)
	Credit(userID, cents int64) error
	Debit(userID, cents int64) error
}

type RosterStore interface {
	RosterFor(profileID int64) ([]models.ProfileMember, error)
	MemberOf(profileID, userID int64) (*models.ProfileMember, error)
	AddMember(profileID, userID int64, share float64, meta store.MemberMeta) (models.ProfileMember, error)
}

type ProfileStore interface {
	ByID(id int64) (models.Profile, error)
}

type UserStore interface {
	ByID(id int64) (models.User, error)
	ByEmail(email string) (models.User, error)
}

type TipStore interface {
	ByOrderID(orderID string) (models.Tip, error)
	MarkCompleted(tipID int64, gatewayTxID string) (bool, error)
}

type InviteStore interface {
	Create(inv models.ProfileInvite) (models.ProfileInvite, error)
	ByID(id int64) (models.ProfileInvite, error)
	ByToken(token string) (models.ProfileInvite, error)
	PendingForProfile(profileID int64) ([]models.ProfileInvite, error)
	PendingForEmail(email string) ([]models.ProfileInvite, error)
	SetStatus(id int64, from, to models.InviteStatus) (bool, error)
}

type WithdrawalStore interface {
	Create(w models.Withdrawal) (models.Withdrawal, error)
	ByID(id int64) (models.Withdrawal, error)
	ForProfile(profileID int64) ([]models.Withdrawal, error)
	SetStatus(id int64, from, to models.WithdrawalStatus) (bool, error)
	RecordPayout(id int64, method models.PayoutMethod, ref, payoutErr string) error
}
