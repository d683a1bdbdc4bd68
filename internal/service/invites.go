package service

import (
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"busker-platform/internal/models"
	"busker-platform/internal/store"
)

const (
	inviteTTL = 30 * 24 * time.Hour

	// maxIncomingShare keeps a new member from zeroing out the existing
	// roster: the rescale factor (100 - share) / total never drops below 5%.
	maxIncomingShare = 95.0
)

// InviteService runs the membership invite workflow: create, accept,
// reject, cancel. Accepting is the only path that touches revenue shares.
type InviteService struct {
	invites  InviteStore
	roster   RosterStore
	profiles ProfileStore
	users    UserStore
}

func NewInviteService(invites InviteStore, roster RosterStore, profiles ProfileStore, users UserStore) *InviteService {
	return &InviteService{invites: invites, roster: roster, profiles: profiles, users: users}
}

// CreateInviteInput carries everything an owner/admin supplies when
// inviting someone. Share <= 0 means "split equally with the new member".
type CreateInviteInput struct {
	ProfileID int64
	Email     string
	Share     float64
	Alias     string
	Specialty string
}

// requireManager loads the caller's membership and checks owner/admin.
func (s *InviteService) requireManager(profileID, userID int64) error {
	member, err := s.roster.MemberOf(profileID, userID)
	if err != nil {
		return err
	}
	if member == nil || !member.Role.CanManage() {
		return ErrForbidden
	}
	return nil
}

// Create issues a pending invite with a 30-day expiry. The proposed share
// is clamped into [0, maxIncomingShare]; when unspecified it defaults to an
// equal split, 100 / (memberCount + 1).
func (s *InviteService) Create(callerUserID int64, in CreateInviteInput) (models.ProfileInvite, error) {
	var invite models.ProfileInvite

	if err := s.requireManager(in.ProfileID, callerUserID); err != nil {
		return invite, err
	}

	members, err := s.roster.RosterFor(in.ProfileID)
	if err != nil {
		return invite, err
	}

	// Catch known duplicates up front; an invitee without an account yet is
	// caught again by the roster's unique constraint at accept time.
	if invitee, err := s.users.ByEmail(in.Email); err == nil {
		existing, err := s.roster.MemberOf(in.ProfileID, invitee.ID)
		if err != nil {
			return invite, err
		}
		if existing != nil {
			return invite, store.ErrAlreadyMember
		}
	}

	share := in.Share
	if share <= 0 {
		share = 100 / float64(len(members)+1)
	}
	if share > maxIncomingShare {
		share = maxIncomingShare
	}

	invite = models.ProfileInvite{
		ProfileID:     in.ProfileID,
		InviterUserID: callerUserID,
		InviteeEmail:  strings.ToLower(strings.TrimSpace(in.Email)),
		RevenueShare:  share,
		Token:         uuid.NewString(),
		Status:        models.InviteStatusPending,
		Alias:         in.Alias,
		Specialty:     in.Specialty,
		ExpiresAt:     time.Now().Add(inviteTTL),
	}
	return s.invites.Create(invite)
}

// Accept adds the invitee to the roster at the invite's stored share.
// The caller's authenticated email must match the invite. The invite is
// flipped to accepted first; if the roster insert then fails, the flip is
// compensated back to pending so the invite can be retried.
func (s *InviteService) Accept(callerUserID int64, callerEmail, token string) (models.ProfileMember, error) {
	var member models.ProfileMember

	invite, err := s.pendingByToken(token)
	if err != nil {
		return member, err
	}
	if !strings.EqualFold(invite.InviteeEmail, callerEmail) {
		return member, ErrForbidden
	}

	ok, err := s.invites.SetStatus(invite.ID, models.InviteStatusPending, models.InviteStatusAccepted)
	if err != nil {
		return member, err
	}
	if !ok {
		// Lost the race to another accept of the same token.
		return member, store.ErrInviteNotFound
	}

	member, err = s.roster.AddMember(invite.ProfileID, callerUserID, invite.RevenueShare, store.MemberMeta{
		Role:      models.MemberRoleMember,
		Alias:     invite.Alias,
		Specialty: invite.Specialty,
	})
	if err != nil {
		// No cross-store transaction here, so compensate the status flip.
		if _, rbErr := s.invites.SetStatus(invite.ID, models.InviteStatusAccepted, models.InviteStatusPending); rbErr != nil {
			log.Printf("Failed to roll back invite %d after member insert error: %v", invite.ID, rbErr)
		}
		return member, err
	}
	return member, nil
}

// Reject is the invitee turning the invite down.
func (s *InviteService) Reject(callerEmail, token string) error {
	invite, err := s.pendingByToken(token)
	if err != nil {
		return err
	}
	if !strings.EqualFold(invite.InviteeEmail, callerEmail) {
		return ErrForbidden
	}
	ok, err := s.invites.SetStatus(invite.ID, models.InviteStatusPending, models.InviteStatusRejected)
	if err != nil {
		return err
	}
	if !ok {
		return store.ErrInviteNotFound
	}
	return nil
}

// Cancel is an owner/admin withdrawing a pending invite.
func (s *InviteService) Cancel(callerUserID, inviteID int64) error {
	invite, err := s.invites.ByID(inviteID)
	if err != nil {
		return err
	}
	if err := s.requireManager(invite.ProfileID, callerUserID); err != nil {
		return err
	}
	ok, err := s.invites.SetStatus(invite.ID, models.InviteStatusPending, models.InviteStatusCancelled)
	if err != nil {
		return err
	}
	if !ok {
		return store.ErrInviteNotFound
	}
	return nil
}

// ListForProfile returns a profile's pending invites to its owner/admins.
func (s *InviteService) ListForProfile(callerUserID, profileID int64) ([]models.ProfileInvite, error) {
	if err := s.requireManager(profileID, callerUserID); err != nil {
		return nil, err
	}
	return s.invites.PendingForProfile(profileID)
}

// ListForEmail returns pending invites addressed to the caller.
func (s *InviteService) ListForEmail(email string) ([]models.ProfileInvite, error) {
	return s.invites.PendingForEmail(email)
}

// InviteDetails is the public token-lookup payload shown on the invite
// landing page before the invitee logs in.
type InviteDetails struct {
	Invite       models.ProfileInvite `json:"invite"`
	ProfileName  string               `json:"profile_name"`
	InviterEmail string               `json:"inviter_email"`
}

// LookupToken resolves a pending, unexpired invite for public display.
func (s *InviteService) LookupToken(token string) (InviteDetails, error) {
	var details InviteDetails
	invite, err := s.pendingByToken(token)
	if err != nil {
		return details, err
	}
	profile, err := s.profiles.ByID(invite.ProfileID)
	if err != nil {
		return details, err
	}
	details.Invite = invite
	details.ProfileName = profile.Name
	if inviter, err := s.users.ByID(invite.InviterUserID); err == nil {
		details.InviterEmail = inviter.Email
	}
	return details, nil
}

// pendingByToken loads a pending invite, lazily expiring it when the
// 30-day window has passed. Anything non-pending or expired reads as
// not found to the caller.
func (s *InviteService) pendingByToken(token string) (models.ProfileInvite, error) {
	invite, err := s.invites.ByToken(token)
	if err != nil {
		return invite, err
	}
	if invite.Status != models.InviteStatusPending {
		return invite, store.ErrInviteNotFound
	}
	if invite.Expired(time.Now()) {
		if _, err := s.invites.SetStatus(invite.ID, models.InviteStatusPending, models.InviteStatusExpired); err != nil {
			log.Printf("Failed to expire invite %d: %v", invite.ID, err)
		}
		return invite, store.ErrInviteNotFound
	}
	return invite, nil
}
