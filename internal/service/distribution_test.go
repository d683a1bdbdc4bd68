package service

import (
	"errors"
	"strconv"
	"sync"
	"testing"

	"busker-platform/internal/models"
	"busker-platform/internal/store"
)

func newEngineFixture() (*TipDistributionEngine, *fakeTips, *fakeRoster, *fakeWallets, *fakeProfiles) {
	tips := newFakeTips()
	roster := newFakeRoster()
	wallets := newFakeWallets()
	profiles := newFakeProfiles()
	engine := NewTipDistributionEngine(tips, roster, wallets, profiles)
	return engine, tips, roster, wallets, profiles
}

func pendingTip(tips *fakeTips, id, profileID, cents int64) models.Tip {
	return tips.add(models.Tip{
		ID:            id,
		ProfileID:     profileID,
		OrderID:       "TIP-" + strconv.FormatInt(id, 10),
		AmountCents:   cents,
		PaymentStatus: models.TipStatusPending,
	})
}

func TestDistributeEvenSplit(t *testing.T) {
	engine, tips, roster, wallets, _ := newEngineFixture()

	// Owner at 100 invites a member at 50: roster becomes [50, 50].
	roster.AddMember(1, 10, 100, store.MemberMeta{Role: models.MemberRoleOwner})
	roster.AddMember(1, 11, 50, store.MemberMeta{Role: models.MemberRoleMember})

	tip := pendingTip(tips, 1, 1, 1000) // $10.00

	result, err := engine.Distribute(tip, "tx-1")
	if err != nil {
		t.Fatalf("Distribute returned error: %v", err)
	}
	if result.Failed != 0 {
		t.Fatalf("expected no failed credits, got %d", result.Failed)
	}

	for _, userID := range []int64{10, 11} {
		balance, _ := wallets.Balance(userID)
		if balance != 500 {
			t.Errorf("user %d balance = %d, want 500", userID, balance)
		}
	}
}

func TestDistributeRoundingDriftBounded(t *testing.T) {
	engine, tips, roster, wallets, _ := newEngineFixture()

	// Shares that do not divide evenly into cents.
	shares := []float64{33.33, 33.33, 33.34}
	for i, s := range shares {
		roster.AddMember(1, int64(10+i), s, store.MemberMeta{Role: models.MemberRoleMember})
	}

	tip := pendingTip(tips, 1, 1, 1001)

	result, err := engine.Distribute(tip, "tx-1")
	if err != nil {
		t.Fatalf("Distribute returned error: %v", err)
	}

	var total int64
	for i := range shares {
		balance, _ := wallets.Balance(int64(10 + i))
		total += balance
	}

	drift := total - tip.AmountCents
	if drift < 0 {
		drift = -drift
	}
	if drift >= int64(len(shares)) {
		t.Errorf("rounding drift %d cents exceeds one cent per member (members=%d)", drift, len(shares))
	}
	if len(result.Credits) != len(shares) {
		t.Errorf("got %d credits, want %d", len(result.Credits), len(shares))
	}
}

func TestDistributeTwiceCreditsOnce(t *testing.T) {
	engine, tips, roster, wallets, _ := newEngineFixture()

	roster.AddMember(1, 10, 100, store.MemberMeta{Role: models.MemberRoleOwner})
	tip := pendingTip(tips, 1, 1, 1000)

	if _, err := engine.Distribute(tip, "tx-1"); err != nil {
		t.Fatalf("first Distribute returned error: %v", err)
	}
	_, err := engine.Distribute(tip, "tx-1")
	if !errors.Is(err, ErrAlreadyDistributed) {
		t.Fatalf("second Distribute error = %v, want ErrAlreadyDistributed", err)
	}

	balance, _ := wallets.Balance(10)
	if balance != 1000 {
		t.Errorf("balance after double distribution = %d, want 1000", balance)
	}
}

func TestDistributeEmptyRosterCreditsOwner(t *testing.T) {
	engine, tips, _, wallets, profiles := newEngineFixture()

	profiles.profiles[1] = models.Profile{ID: 1, OwnerUserID: 42, Name: "solo"}
	tip := pendingTip(tips, 1, 1, 750)

	result, err := engine.Distribute(tip, "tx-1")
	if err != nil {
		t.Fatalf("Distribute returned error: %v", err)
	}
	if len(result.Credits) != 1 || result.Credits[0].UserID != 42 {
		t.Fatalf("expected single credit to owner 42, got %+v", result.Credits)
	}

	balance, _ := wallets.Balance(42)
	if balance != 750 {
		t.Errorf("owner balance = %d, want 750", balance)
	}
}

func TestDistributeContinuesPastFailedCredit(t *testing.T) {
	engine, tips, roster, wallets, _ := newEngineFixture()

	roster.AddMember(1, 10, 50, store.MemberMeta{Role: models.MemberRoleOwner})
	roster.AddMember(1, 11, 50, store.MemberMeta{Role: models.MemberRoleMember})
	wallets.failFor[10] = true

	tip := pendingTip(tips, 1, 1, 1000)

	result, err := engine.Distribute(tip, "tx-1")
	if err != nil {
		t.Fatalf("Distribute returned error: %v", err)
	}
	if result.Failed != 1 {
		t.Fatalf("Failed = %d, want 1", result.Failed)
	}

	balance, _ := wallets.Balance(11)
	if balance != 500 {
		t.Errorf("healthy member balance = %d, want 500", balance)
	}
	balance, _ = wallets.Balance(10)
	if balance != 0 {
		t.Errorf("failed member balance = %d, want 0", balance)
	}
}

func TestConcurrentTipsNoLostUpdate(t *testing.T) {
	engine, tips, roster, wallets, _ := newEngineFixture()

	roster.AddMember(1, 10, 100, store.MemberMeta{Role: models.MemberRoleOwner})

	const tipCount = 20
	tipRows := make([]models.Tip, tipCount)
	for i := 0; i < tipCount; i++ {
		tipRows[i] = pendingTip(tips, int64(i+1), 1, 1000)
	}

	var wg sync.WaitGroup
	for i := 0; i < tipCount; i++ {
		wg.Add(1)
		go func(tip models.Tip) {
			defer wg.Done()
			if _, err := engine.Distribute(tip, "tx"); err != nil {
				t.Errorf("Distribute returned error: %v", err)
			}
		}(tipRows[i])
	}
	wg.Wait()

	balance, _ := wallets.Balance(10)
	if balance != tipCount*1000 {
		t.Errorf("balance after %d concurrent tips = %d, want %d", tipCount, balance, tipCount*1000)
	}
}

func TestMemberCreditRounding(t *testing.T) {
	cases := []struct {
		amount int64
		share  float64
		want   int64
	}{
		{1000, 50, 500},
		{1000, 33.33, 333},
		{999, 50, 500},  // 499.5 rounds half-even to 500
		{997, 50, 498},  // 498.5 rounds half-even to 498
		{1000, 0, 0},
		{1000, 100, 1000},
	}
	for _, tc := range cases {
		if got := memberCredit(tc.amount, tc.share); got != tc.want {
			t.Errorf("memberCredit(%d, %v) = %d, want %d", tc.amount, tc.share, got, tc.want)
		}
	}
}
