package payout

import (
	"fmt"
	"strings"

	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/iris"
)

// Gateway sends money out. Implementations must treat every call as
// best-effort: the caller records failures instead of retrying, because a
// timed-out transfer may still have landed.
type Gateway interface {
	Send(amountCents int64, bankToken, description string) (payoutRef string, err error)
}

// IrisGateway settles withdrawals through Midtrans Iris disbursements.
type IrisGateway struct {
	client      iris.Client
	defaultBank string
}

// NewIrisGateway builds a gateway against the Iris sandbox or production
// environment. defaultBank is used when a bank token carries no bank prefix.
func NewIrisGateway(apiKey, defaultBank string, env midtrans.EnvironmentType) *IrisGateway {
	var c iris.Client
	c.New(apiKey, env)
	return &IrisGateway{client: c, defaultBank: defaultBank}
}

// Send creates a single-beneficiary payout. The bank token is opaque to the
// rest of the system; here it is "bank:account" or a bare account number.
func (g *IrisGateway) Send(amountCents int64, bankToken, description string) (string, error) {
	bank := g.defaultBank
	account := bankToken
	if before, after, found := strings.Cut(bankToken, ":"); found {
		bank = before
		account = after
	}

	req := iris.CreatePayoutDetailReq{
		BeneficiaryName:    description,
		BeneficiaryAccount: account,
		BeneficiaryBank:    bank,
		Amount:             fmt.Sprintf("%d.%02d", amountCents/100, amountCents%100),
		Notes:              description,
	}

	resp, err := g.client.CreatePayout(iris.CreatePayoutReq{
		Payouts: []iris.CreatePayoutDetailReq{req},
	})
	if err != nil {
		return "", fmt.Errorf("iris payout failed: %w", err)
	}
	if resp == nil || len(resp.Payouts) == 0 {
		return "", fmt.Errorf("iris payout returned no payout entries")
	}
	return resp.Payouts[0].ReferenceNo, nil
}
