package service

import (
	"errors"
	"math"
	"math/rand"
	"testing"
	"time"

	"busker-platform/internal/models"
	"busker-platform/internal/store"
)

func newInviteFixture() (*InviteService, *fakeInvites, *fakeRoster, *fakeProfiles, *fakeUsers) {
	invites := newFakeInvites()
	roster := newFakeRoster()
	profiles := newFakeProfiles()
	users := newFakeUsers()
	svc := NewInviteService(invites, roster, profiles, users)
	return svc, invites, roster, profiles, users
}

func rosterTotal(t *testing.T, roster *fakeRoster, profileID int64) float64 {
	t.Helper()
	members, err := roster.RosterFor(profileID)
	if err != nil {
		t.Fatalf("RosterFor returned error: %v", err)
	}
	var total float64
	for _, m := range members {
		total += m.RevenueShare
	}
	return total
}

func TestCreateInviteRequiresManagerRole(t *testing.T) {
	svc, _, roster, _, _ := newInviteFixture()

	roster.AddMember(1, 10, 60, store.MemberMeta{Role: models.MemberRoleOwner})
	roster.AddMember(1, 11, 40, store.MemberMeta{Role: models.MemberRoleMember})

	_, err := svc.Create(11, CreateInviteInput{ProfileID: 1, Email: "new@example.com", Share: 20})
	if !errors.Is(err, ErrForbidden) {
		t.Errorf("plain member creating invite: err = %v, want ErrForbidden", err)
	}

	_, err = svc.Create(99, CreateInviteInput{ProfileID: 1, Email: "new@example.com", Share: 20})
	if !errors.Is(err, ErrForbidden) {
		t.Errorf("non-member creating invite: err = %v, want ErrForbidden", err)
	}

	if _, err := svc.Create(10, CreateInviteInput{ProfileID: 1, Email: "new@example.com", Share: 20}); err != nil {
		t.Errorf("owner creating invite: unexpected error %v", err)
	}
}

func TestCreateInviteRejectsExistingMember(t *testing.T) {
	svc, _, roster, _, users := newInviteFixture()

	roster.AddMember(1, 10, 100, store.MemberMeta{Role: models.MemberRoleOwner})
	users.users["owner@example.com"] = models.User{ID: 10, Email: "owner@example.com"}

	_, err := svc.Create(10, CreateInviteInput{ProfileID: 1, Email: "Owner@Example.com", Share: 20})
	if !errors.Is(err, store.ErrAlreadyMember) {
		t.Errorf("err = %v, want ErrAlreadyMember", err)
	}
}

func TestCreateInviteShareDefaultsAndClamp(t *testing.T) {
	svc, _, roster, _, _ := newInviteFixture()

	roster.AddMember(1, 10, 60, store.MemberMeta{Role: models.MemberRoleOwner})
	roster.AddMember(1, 11, 40, store.MemberMeta{Role: models.MemberRoleMember})

	// Unspecified share defaults to an equal split: 100 / (2 + 1).
	inv, err := svc.Create(10, CreateInviteInput{ProfileID: 1, Email: "a@example.com"})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if want := 100.0 / 3; math.Abs(inv.RevenueShare-want) > 1e-9 {
		t.Errorf("default share = %v, want %v", inv.RevenueShare, want)
	}

	// A share past the cap is clamped, never rejected.
	inv, err = svc.Create(10, CreateInviteInput{ProfileID: 1, Email: "b@example.com", Share: 120})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if inv.RevenueShare != maxIncomingShare {
		t.Errorf("clamped share = %v, want %v", inv.RevenueShare, maxIncomingShare)
	}
}

func TestAcceptRenormalizesProportionally(t *testing.T) {
	svc, _, roster, _, _ := newInviteFixture()

	roster.AddMember(1, 10, 60, store.MemberMeta{Role: models.MemberRoleOwner})
	roster.AddMember(1, 11, 40, store.MemberMeta{Role: models.MemberRoleMember})

	inv, err := svc.Create(10, CreateInviteInput{ProfileID: 1, Email: "new@example.com", Share: 50})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	member, err := svc.Accept(12, "new@example.com", inv.Token)
	if err != nil {
		t.Fatalf("Accept returned error: %v", err)
	}
	if member.RevenueShare != 50 {
		t.Errorf("new member share = %v, want 50", member.RevenueShare)
	}

	// [60, 40] + 50 scales the existing roster by (100-50)/100 = 0.5.
	members, _ := roster.RosterFor(1)
	want := map[int64]float64{10: 30, 11: 20, 12: 50}
	for _, m := range members {
		if math.Abs(m.RevenueShare-want[m.UserID]) > 1e-9 {
			t.Errorf("user %d share = %v, want %v", m.UserID, m.RevenueShare, want[m.UserID])
		}
	}
}

func TestAcceptRequiresEmailMatch(t *testing.T) {
	svc, _, roster, _, _ := newInviteFixture()

	roster.AddMember(1, 10, 100, store.MemberMeta{Role: models.MemberRoleOwner})
	inv, _ := svc.Create(10, CreateInviteInput{ProfileID: 1, Email: "invitee@example.com", Share: 30})

	if _, err := svc.Accept(12, "other@example.com", inv.Token); !errors.Is(err, ErrForbidden) {
		t.Errorf("mismatched email: err = %v, want ErrForbidden", err)
	}

	// Case differences must not block the invitee.
	if _, err := svc.Accept(12, "Invitee@Example.COM", inv.Token); err != nil {
		t.Errorf("case-insensitive match: unexpected error %v", err)
	}
}

func TestAcceptExpiredInvite(t *testing.T) {
	svc, invites, roster, _, _ := newInviteFixture()

	roster.AddMember(1, 10, 100, store.MemberMeta{Role: models.MemberRoleOwner})
	inv, _ := svc.Create(10, CreateInviteInput{ProfileID: 1, Email: "late@example.com", Share: 30})

	// Backdate the expiry to 31 days ago.
	invites.invites[inv.ID].ExpiresAt = time.Now().Add(-31 * 24 * time.Hour)

	if _, err := svc.Accept(12, "late@example.com", inv.Token); !errors.Is(err, store.ErrInviteNotFound) {
		t.Fatalf("expired invite: err = %v, want ErrInviteNotFound", err)
	}

	stored, _ := invites.ByID(inv.ID)
	if stored.Status != models.InviteStatusExpired {
		t.Errorf("invite status = %v, want expired", stored.Status)
	}
	if members, _ := roster.RosterFor(1); len(members) != 1 {
		t.Errorf("roster grew to %d members from an expired invite", len(members))
	}
}

func TestAcceptCompensatesFailedInsert(t *testing.T) {
	svc, invites, roster, _, _ := newInviteFixture()

	roster.AddMember(1, 10, 100, store.MemberMeta{Role: models.MemberRoleOwner})
	inv, _ := svc.Create(10, CreateInviteInput{ProfileID: 1, Email: "new@example.com", Share: 30})

	roster.failAdd = true
	if _, err := svc.Accept(12, "new@example.com", inv.Token); err == nil {
		t.Fatal("Accept succeeded despite insert failure")
	}

	// The status flip must have been rolled back so the accept can be retried.
	stored, _ := invites.ByID(inv.ID)
	if stored.Status != models.InviteStatusPending {
		t.Fatalf("invite status = %v, want pending after compensation", stored.Status)
	}

	roster.failAdd = false
	if _, err := svc.Accept(12, "new@example.com", inv.Token); err != nil {
		t.Errorf("retried accept returned error: %v", err)
	}
}

func TestRejectAndCancelFlipStatusOnly(t *testing.T) {
	svc, _, roster, _, _ := newInviteFixture()

	roster.AddMember(1, 10, 60, store.MemberMeta{Role: models.MemberRoleOwner})
	roster.AddMember(1, 11, 40, store.MemberMeta{Role: models.MemberRoleMember})

	rejected, _ := svc.Create(10, CreateInviteInput{ProfileID: 1, Email: "a@example.com", Share: 20})
	cancelled, _ := svc.Create(10, CreateInviteInput{ProfileID: 1, Email: "b@example.com", Share: 20})

	if err := svc.Reject("a@example.com", rejected.Token); err != nil {
		t.Fatalf("Reject returned error: %v", err)
	}
	if err := svc.Cancel(10, cancelled.ID); err != nil {
		t.Fatalf("Cancel returned error: %v", err)
	}
	if err := svc.Cancel(11, cancelled.ID); !errors.Is(err, ErrForbidden) && !errors.Is(err, store.ErrInviteNotFound) {
		t.Errorf("member cancelling: err = %v, want ErrForbidden or not found", err)
	}

	// Shares untouched by either flip.
	if total := rosterTotal(t, roster, 1); total != 100 {
		t.Errorf("roster total = %v, want 100", total)
	}
}

func TestShareSumBoundedOverRandomInvites(t *testing.T) {
	svc, _, roster, _, _ := newInviteFixture()

	roster.AddMember(1, 10, 100, store.MemberMeta{Role: models.MemberRoleOwner})

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 25; i++ {
		email := "m" + string(rune('a'+i%26)) + "@example.com"
		inv, err := svc.Create(10, CreateInviteInput{
			ProfileID: 1,
			Email:     email,
			Share:     rng.Float64() * 120, // goes past the clamp on purpose
		})
		if err != nil {
			t.Fatalf("Create #%d returned error: %v", i, err)
		}
		if _, err := svc.Accept(int64(100+i), email, inv.Token); err != nil {
			t.Fatalf("Accept #%d returned error: %v", i, err)
		}

		if total := rosterTotal(t, roster, 1); total > 100+1e-6 {
			t.Fatalf("after accept #%d roster total = %v, exceeds 100", i, total)
		}
	}
}

func TestLookupToken(t *testing.T) {
	svc, _, roster, profiles, users := newInviteFixture()

	profiles.profiles[1] = models.Profile{ID: 1, OwnerUserID: 10, Name: "Street Quartet"}
	users.users["owner@example.com"] = models.User{ID: 10, Email: "owner@example.com"}
	roster.AddMember(1, 10, 100, store.MemberMeta{Role: models.MemberRoleOwner})
	inv, _ := svc.Create(10, CreateInviteInput{ProfileID: 1, Email: "cellist@example.com", Share: 30})

	details, err := svc.LookupToken(inv.Token)
	if err != nil {
		t.Fatalf("LookupToken returned error: %v", err)
	}
	if details.Invite.ID != inv.ID {
		t.Errorf("invite ID = %d, want %d", details.Invite.ID, inv.ID)
	}
	if details.ProfileName != "Street Quartet" {
		t.Errorf("profile name = %q, want %q", details.ProfileName, "Street Quartet")
	}
	if details.InviterEmail != "owner@example.com" {
		t.Errorf("inviter email = %q, want %q", details.InviterEmail, "owner@example.com")
	}

	if _, err := svc.LookupToken("no-such-token"); !errors.Is(err, store.ErrInviteNotFound) {
		t.Errorf("unknown token: err = %v, want ErrInviteNotFound", err)
	}
}

func TestLookupTokenExpired(t *testing.T) {
	svc, invites, roster, profiles, _ := newInviteFixture()

	profiles.profiles[1] = models.Profile{ID: 1, OwnerUserID: 10, Name: "Street Quartet"}
	roster.AddMember(1, 10, 100, store.MemberMeta{Role: models.MemberRoleOwner})
	inv, _ := svc.Create(10, CreateInviteInput{ProfileID: 1, Email: "late@example.com", Share: 30})

	invites.invites[inv.ID].ExpiresAt = time.Now().Add(-31 * 24 * time.Hour)

	if _, err := svc.LookupToken(inv.Token); !errors.Is(err, store.ErrInviteNotFound) {
		t.Fatalf("expired token: err = %v, want ErrInviteNotFound", err)
	}
	stored, _ := invites.ByID(inv.ID)
	if stored.Status != models.InviteStatusExpired {
		t.Errorf("invite status = %v, want expired", stored.Status)
	}
}
