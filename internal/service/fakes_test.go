package service

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"busker-platform/internal/models"
	"busker-platform/internal/store"
)

// In-memory fakes for the store interfaces. Mutations hold a mutex for the
// whole read-compute-write, mirroring the atomicity the SQL statements give
// the real stores.

type fakeWallets struct {
	mu       sync.Mutex
	balances map[int64]int64
	failFor  map[int64]bool
}

func newFakeWallets() *fakeWallets {
	return &fakeWallets{balances: make(map[int64]int64), failFor: make(map[int64]bool)}
}

func (f *fakeWallets) Balance(userID int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.balances[userID], nil
}

func (f *fakeWallets) Credit(userID, cents int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFor[userID] {
		return fmt.Errorf("simulated credit failure for user %d", userID)
	}
	f.balances[userID] += cents
	return nil
}

func (f *fakeWallets) Debit(userID, cents int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.balances[userID] < cents {
		return store.ErrInsufficientFunds
	}
	f.balances[userID] -= cents
	return nil
}

type fakeRoster struct {
	mu      sync.Mutex
	nextID  int64
	members map[int64][]models.ProfileMember
	failAdd bool
}

func newFakeRoster() *fakeRoster {
	return &fakeRoster{members: make(map[int64][]models.ProfileMember)}
}

func (f *fakeRoster) RosterFor(profileID int64) ([]models.ProfileMember, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.ProfileMember, len(f.members[profileID]))
	copy(out, f.members[profileID])
	return out, nil
}

func (f *fakeRoster) MemberOf(profileID, userID int64) (*models.ProfileMember, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.members[profileID] {
		if m.UserID == userID {
			c := m
			return &c, nil
		}
	}
	return nil, nil
}

func (f *fakeRoster) AddMember(profileID, userID int64, share float64, meta store.MemberMeta) (models.ProfileMember, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failAdd {
		return models.ProfileMember{}, errors.New("simulated insert failure")
	}
	for _, m := range f.members[profileID] {
		if m.UserID == userID {
			return models.ProfileMember{}, store.ErrAlreadyMember
		}
	}

	var currentTotal float64
	for _, m := range f.members[profileID] {
		currentTotal += m.RevenueShare
	}
	if factor := store.RescaleFactor(currentTotal, share); factor != 1 {
		for i := range f.members[profileID] {
			f.members[profileID][i].RevenueShare *= factor
		}
	}

	f.nextID++
	member := models.ProfileMember{
		ID:           f.nextID,
		ProfileID:    profileID,
		UserID:       userID,
		Role:         meta.Role,
		RevenueShare: share,
		Alias:        meta.Alias,
		Specialty:    meta.Specialty,
		Description:  meta.Description,
	}
	f.members[profileID] = append(f.members[profileID], member)
	return member, nil
}

type fakeProfiles struct {
	profiles map[int64]models.Profile
}

func newFakeProfiles() *fakeProfiles {
	return &fakeProfiles{profiles: make(map[int64]models.Profile)}
}

func (f *fakeProfiles) ByID(id int64) (models.Profile, error) {
	p, ok := f.profiles[id]
	if !ok {
		return p, store.ErrProfileNotFound
	}
	return p, nil
}

type fakeUsers struct {
	users map[string]models.User
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{users: make(map[string]models.User)}
}

func (f *fakeUsers) ByEmail(email string) (models.User, error) {
	u, ok := f.users[strings.ToLower(email)]
	if !ok {
		return u, store.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeUsers) ByID(id int64) (models.User, error) {
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return models.User{}, store.ErrUserNotFound
}

type fakeTips struct {
	mu   sync.Mutex
	tips map[int64]*models.Tip
}

func newFakeTips() *fakeTips {
	return &fakeTips{tips: make(map[int64]*models.Tip)}
}

func (f *fakeTips) add(tip models.Tip) models.Tip {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := tip
	f.tips[t.ID] = &t
	return t
}

func (f *fakeTips) ByOrderID(orderID string) (models.Tip, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.tips {
		if t.OrderID == orderID {
			return *t, nil
		}
	}
	return models.Tip{}, store.ErrTipNotFound
}

func (f *fakeTips) MarkCompleted(tipID int64, gatewayTxID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tips[tipID]
	if !ok {
		return false, store.ErrTipNotFound
	}
	if t.PaymentStatus != models.TipStatusPending {
		return false, nil
	}
	t.PaymentStatus = models.TipStatusCompleted
	return true, nil
}

type fakeInvites struct {
	mu      sync.Mutex
	nextID  int64
	invites map[int64]*models.ProfileInvite
}

func newFakeInvites() *fakeInvites {
	return &fakeInvites{invites: make(map[int64]*models.ProfileInvite)}
}

func (f *fakeInvites) Create(inv models.ProfileInvite) (models.ProfileInvite, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	inv.ID = f.nextID
	f.invites[inv.ID] = &inv
	return inv, nil
}

func (f *fakeInvites) ByID(id int64) (models.ProfileInvite, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	inv, ok := f.invites[id]
	if !ok {
		return models.ProfileInvite{}, store.ErrInviteNotFound
	}
	return *inv, nil
}

func (f *fakeInvites) ByToken(token string) (models.ProfileInvite, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, inv := range f.invites {
		if inv.Token == token {
			return *inv, nil
		}
	}
	return models.ProfileInvite{}, store.ErrInviteNotFound
}

func (f *fakeInvites) PendingForProfile(profileID int64) ([]models.ProfileInvite, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.ProfileInvite
	for _, inv := range f.invites {
		if inv.ProfileID == profileID && inv.Status == models.InviteStatusPending {
			out = append(out, *inv)
		}
	}
	return out, nil
}

func (f *fakeInvites) PendingForEmail(email string) ([]models.ProfileInvite, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.ProfileInvite
	for _, inv := range f.invites {
		if strings.EqualFold(inv.InviteeEmail, email) && inv.Status == models.InviteStatusPending {
			out = append(out, *inv)
		}
	}
	return out, nil
}

func (f *fakeInvites) SetStatus(id int64, from, to models.InviteStatus) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	inv, ok := f.invites[id]
	if !ok || inv.Status != from {
		return false, nil
	}
	inv.Status = to
	return true, nil
}

type fakeWithdrawals struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]*models.Withdrawal
}

func newFakeWithdrawals() *fakeWithdrawals {
	return &fakeWithdrawals{rows: make(map[int64]*models.Withdrawal)}
}

func (f *fakeWithdrawals) Create(w models.Withdrawal) (models.Withdrawal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	w.ID = f.nextID
	f.rows[w.ID] = &w
	return w, nil
}

func (f *fakeWithdrawals) ByID(id int64) (models.Withdrawal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.rows[id]
	if !ok {
		return models.Withdrawal{}, store.ErrWithdrawalNotFound
	}
	return *w, nil
}

func (f *fakeWithdrawals) ForProfile(profileID int64) ([]models.Withdrawal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Withdrawal
	for _, w := range f.rows {
		if w.ProfileID == profileID {
			out = append(out, *w)
		}
	}
	return out, nil
}

func (f *fakeWithdrawals) SetStatus(id int64, from, to models.WithdrawalStatus) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.rows[id]
	if !ok || w.Status != from {
		return false, nil
	}
	w.Status = to
	return true, nil
}

func (f *fakeWithdrawals) RecordPayout(id int64, method models.PayoutMethod, ref, payoutErr string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.rows[id]
	if !ok {
		return store.ErrWithdrawalNotFound
	}
	w.PayoutMethod.String, w.PayoutMethod.Valid = string(method), true
	if ref != "" {
		w.PayoutRef.String, w.PayoutRef.Valid = ref, true
	}
	if payoutErr != "" {
		w.PayoutError.String, w.PayoutError.Valid = payoutErr, true
	}
	return nil
}

// fakeGateway implements payout.Gateway.
type fakeGateway struct {
	mu    sync.Mutex
	fail  bool
	calls int
}

func (f *fakeGateway) Send(amountCents int64, bankToken, description string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.fail {
		return "", errors.New("simulated payout failure")
	}
	return fmt.Sprintf("PAYOUT-%d", f.calls), nil
}
