package service

import (
	"fmt"
	"log"
	"math"

	"busker-platform/internal/models"
)

// MemberCredit is one member's slice of a distributed tip.
type MemberCredit struct {
	UserID int64  `json:"user_id"`
	Alias  string `json:"alias"`
	Cents  int64  `json:"cents"`
	Error  string `json:"error,omitempty"`
}

// DistributionResult reports what a tip distribution actually did.
// Failed counts members whose wallet credit errored; their money has not
// moved and the entries carry the error text for manual follow-up.
type DistributionResult struct {
	TipID       int64          `json:"tip_id"`
	ProfileID   int64          `json:"profile_id"`
	AmountCents int64          `json:"amount_cents"`
	Credits     []MemberCredit `json:"credits"`
	Failed      int            `json:"failed"`
}

// TipDistributionEngine splits a completed tip across the profile roster
// and credits each member's wallet.
type TipDistributionEngine struct {
	tips     TipStore
	roster   RosterStore
	wallets  WalletStore
	profiles ProfileStore
}

func NewTipDistributionEngine(tips TipStore, roster RosterStore, wallets WalletStore, profiles ProfileStore) *TipDistributionEngine {
	return &TipDistributionEngine{tips: tips, roster: roster, wallets: wallets, profiles: profiles}
}

// memberCredit rounds half-to-even to whole cents, so sum(credits) drifts
// from the tip amount by less than one cent per member.
func memberCredit(amountCents int64, share float64) int64 {
	return int64(math.RoundToEven(float64(amountCents) * share / 100))
}

// Distribute credits the roster for a tip whose payment just settled.
// The pending -> completed check-and-set on the tip is the idempotency gate:
// a second call for the same tip returns ErrAlreadyDistributed and credits
// nothing. One member's failed credit never blocks the others.
func (e *TipDistributionEngine) Distribute(tip models.Tip, gatewayTxID string) (*DistributionResult, error) {
	ok, err := e.tips.MarkCompleted(tip.ID, gatewayTxID)
	if err != nil {
		return nil, fmt.Errorf("failed to complete tip %d: %w", tip.ID, err)
	}
	if !ok {
		return nil, ErrAlreadyDistributed
	}

	members, err := e.roster.RosterFor(tip.ProfileID)
	if err != nil {
		return nil, fmt.Errorf("failed to load roster for profile %d: %w", tip.ProfileID, err)
	}

	result := &DistributionResult{
		TipID:       tip.ID,
		ProfileID:   tip.ProfileID,
		AmountCents: tip.AmountCents,
	}

	if len(members) == 0 {
		// Defensive fallback: no roster rows, the owner gets everything.
		profile, err := e.profiles.ByID(tip.ProfileID)
		if err != nil {
			return nil, fmt.Errorf("failed to load profile %d: %w", tip.ProfileID, err)
		}
		credit := MemberCredit{UserID: profile.OwnerUserID, Cents: tip.AmountCents}
		if err := e.wallets.Credit(profile.OwnerUserID, tip.AmountCents); err != nil {
			log.Printf("Failed to credit owner %d for tip %d: %v", profile.OwnerUserID, tip.ID, err)
			credit.Error = err.Error()
			result.Failed++
		}
		result.Credits = append(result.Credits, credit)
		return result, nil
	}

	for _, m := range members {
		cents := memberCredit(tip.AmountCents, m.RevenueShare)
		credit := MemberCredit{UserID: m.UserID, Alias: m.Alias, Cents: cents}
		if cents > 0 {
			if err := e.wallets.Credit(m.UserID, cents); err != nil {
				log.Printf("Failed to credit member %d for tip %d: %v", m.UserID, tip.ID, err)
				credit.Error = err.Error()
				result.Failed++
			}
		}
		result.Credits = append(result.Credits, credit)
	}

	if result.Failed > 0 {
		log.Printf("Tip %d distributed with %d failed credits out of %d members",
			tip.ID, result.Failed, len(members))
	}
	return result, nil
}

// DistributeByOrderID resolves the gateway order id to a tip and distributes it.
func (e *TipDistributionEngine) DistributeByOrderID(orderID, gatewayTxID string) (*DistributionResult, error) {
	tip, err := e.tips.ByOrderID(orderID)
	if err != nil {
		return nil, err
	}
	return e.Distribute(tip, gatewayTxID)
}
