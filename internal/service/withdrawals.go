package service

import (
	"fmt"
	"log"

	"busker-platform/internal/models"
	"busker-platform/internal/payout"
	"busker-platform/internal/store"
)

// WithdrawalService settles withdrawal requests against the user wallet.
// The debit happens at approval and is never reversed by a failed payout
// call: once the human approver has committed the funds, a gateway error
// becomes a manual-settlement flag, not a rollback.
type WithdrawalService struct {
	withdrawals WithdrawalStore
	wallets     WalletStore
	roster      RosterStore
	profiles    ProfileStore
	gateway     payout.Gateway
}

func NewWithdrawalService(withdrawals WithdrawalStore, wallets WalletStore, roster RosterStore, profiles ProfileStore, gateway payout.Gateway) *WithdrawalService {
	return &WithdrawalService{
		withdrawals: withdrawals,
		wallets:     wallets,
		roster:      roster,
		profiles:    profiles,
		gateway:     gateway,
	}
}

// Request creates a pending withdrawal after validating the caller's
// membership, the profile's bank account, and the wallet balance. The
// balance check here is advisory; the authoritative one is the atomic
// debit at approval.
func (s *WithdrawalService) Request(userID, profileID, amountCents int64) (models.Withdrawal, error) {
	var w models.Withdrawal

	if amountCents <= 0 {
		return w, ErrInvalidAmount
	}

	member, err := s.roster.MemberOf(profileID, userID)
	if err != nil {
		return w, err
	}
	if member == nil {
		return w, ErrForbidden
	}

	profile, err := s.profiles.ByID(profileID)
	if err != nil {
		return w, err
	}
	if !profile.HasBankAccount() {
		return w, ErrBankAccountRequired
	}

	balance, err := s.wallets.Balance(userID)
	if err != nil {
		return w, err
	}
	if amountCents > balance {
		return w, fmt.Errorf("requested %d cents with balance %d: %w", amountCents, balance, store.ErrInsufficientFunds)
	}

	return s.withdrawals.Create(models.Withdrawal{
		ProfileID:   profileID,
		UserID:      userID,
		AmountCents: amountCents,
		Status:      models.WithdrawalStatusPending,
	})
}

// ApprovalResult reports the approval outcome: the debited wallet's new
// balance and whether the automated payout went through.
type ApprovalResult struct {
	Withdrawal   models.Withdrawal `json:"withdrawal"`
	BalanceCents int64             `json:"balance_cents"`
	PayoutRef    string            `json:"payout_ref,omitempty"`
	PayoutError  string            `json:"payout_error,omitempty"`
}

// Approve debits the wallet and attempts the external payout. The debit
// re-validates the balance atomically (it may have changed since the
// request). A payout failure after the debit leaves the withdrawal
// approved with payout_method=manual and the error recorded.
func (s *WithdrawalService) Approve(withdrawalID int64) (*ApprovalResult, error) {
	w, err := s.withdrawals.ByID(withdrawalID)
	if err != nil {
		return nil, err
	}
	if w.Status != models.WithdrawalStatusPending {
		return nil, ErrInvalidTransition
	}

	if err := s.wallets.Debit(w.UserID, w.AmountCents); err != nil {
		return nil, err
	}

	ok, err := s.withdrawals.SetStatus(w.ID, models.WithdrawalStatusPending, models.WithdrawalStatusApproved)
	if err != nil {
		return nil, err
	}
	if !ok {
		// A concurrent approve got here first; its debit stands, ours must
		// be returned.
		if credErr := s.wallets.Credit(w.UserID, w.AmountCents); credErr != nil {
			log.Printf("Failed to re-credit user %d after losing approve race on withdrawal %d: %v",
				w.UserID, w.ID, credErr)
		}
		return nil, ErrInvalidTransition
	}
	w.Status = models.WithdrawalStatusApproved

	result := &ApprovalResult{Withdrawal: w}

	profile, err := s.profiles.ByID(w.ProfileID)
	if err != nil {
		return nil, err
	}

	desc := fmt.Sprintf("Withdrawal #%d for %s", w.ID, profile.Name)
	ref, payErr := s.gateway.Send(w.AmountCents, profile.BankAccountToken.String, desc)
	if payErr != nil {
		log.Printf("Payout for withdrawal %d failed, flagged for manual settlement: %v", w.ID, payErr)
		result.PayoutError = payErr.Error()
		if err := s.withdrawals.RecordPayout(w.ID, models.PayoutMethodManual, "", payErr.Error()); err != nil {
			log.Printf("Failed to record payout error for withdrawal %d: %v", w.ID, err)
		}
	} else {
		result.PayoutRef = ref
		if err := s.withdrawals.RecordPayout(w.ID, models.PayoutMethodIris, ref, ""); err != nil {
			log.Printf("Failed to record payout ref for withdrawal %d: %v", w.ID, err)
		}
	}

	balance, err := s.wallets.Balance(w.UserID)
	if err != nil {
		return nil, err
	}
	result.BalanceCents = balance
	return result, nil
}

// Reject flips a pending withdrawal to rejected. No debit happened at
// request time, so there is nothing to reverse.
func (s *WithdrawalService) Reject(withdrawalID int64) error {
	w, err := s.withdrawals.ByID(withdrawalID)
	if err != nil {
		return err
	}
	ok, err := s.withdrawals.SetStatus(w.ID, models.WithdrawalStatusPending, models.WithdrawalStatusRejected)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidTransition
	}
	return nil
}

// MarkCompleted confirms the bank transfer landed. Status update only.
func (s *WithdrawalService) MarkCompleted(withdrawalID int64) error {
	w, err := s.withdrawals.ByID(withdrawalID)
	if err != nil {
		return err
	}
	ok, err := s.withdrawals.SetStatus(w.ID, models.WithdrawalStatusApproved, models.WithdrawalStatusCompleted)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidTransition
	}
	return nil
}

// ListForProfile returns a profile's withdrawals, newest first.
func (s *WithdrawalService) ListForProfile(profileID int64) ([]models.Withdrawal, error) {
	return s.withdrawals.ForProfile(profileID)
}
