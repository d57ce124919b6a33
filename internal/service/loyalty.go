package service

import (
	"retailpos/internal/model"

	"github.com/shopspring/decimal"
)

var (
	DefaultEarnRate     = decimal.RequireFromString("0.05")
	DefaultReferralRate = decimal.RequireFromString("0.02")
)

// LoyaltyResult is what one sale does to the loyalty balances involved
type LoyaltyResult struct {
	Earned        model.Money
	ReferrerBonus model.Money
	// CreditReferrer is set when ReferrerBonus must be added to the referrer's balance
	CreditReferrer bool
}

// LoyaltyLedger holds the loyalty program's arithmetic. It has no state and
// never touches the store.
type LoyaltyLedger struct {
	EarnRate     decimal.Decimal
	ReferralRate decimal.Decimal
}

func NewLoyaltyLedger() *LoyaltyLedger {
	return &LoyaltyLedger{EarnRate: DefaultEarnRate, ReferralRate: DefaultReferralRate}
}

// ComputeLoyalty returns the points earned by customer on a sale with the
// given profit and the bonus owed to referrer. A customer created by this very
// sale earns nothing, but their referrer is still credited. Loss-making sales
// earn nothing for anyone.
func (l *LoyaltyLedger) ComputeLoyalty(customer, referrer *model.Customer, profit model.Money, isNewCustomer bool) LoyaltyResult {
	res := LoyaltyResult{Earned: model.ZeroMoney(), ReferrerBonus: model.ZeroMoney()}
	if customer == nil || !profit.IsPositive() {
		return res
	}

	if !isNewCustomer {
		res.Earned = profit.MulRate(l.EarnRate)
	}

	if referrer != nil && customer.ReferredByID != nil &&
		*customer.ReferredByID == referrer.ID && referrer.ID != customer.ID {
		res.ReferrerBonus = profit.MulRate(l.ReferralRate)
		res.CreditReferrer = res.ReferrerBonus.IsPositive()
	}
	return res
}

// Redeem caps the requested points at the customer's balance and the sale
// total. Walk-in and brand-new customers always redeem zero.
func (l *LoyaltyLedger) Redeem(customer *model.Customer, requested, saleTotal model.Money, isNewCustomer bool) (model.Money, error) {
	if requested.IsNegative() {
		return model.ZeroMoney(), newError(KindInvalidRedemption, "redeem points must not be negative, got %s", requested)
	}
	if customer == nil || isNewCustomer || requested.IsZero() {
		return model.ZeroMoney(), nil
	}
	actual := model.MinMoney(requested, customer.LoyaltyPoints, saleTotal)
	if actual.IsNegative() {
		return model.ZeroMoney(), nil
	}
	return actual, nil
}

// Settle returns balance - redeemed + earned. A negative result means the
// caller passed inconsistent input: the balance is clamped to zero and a
// BalanceConsistency error is returned alongside it.
func (l *LoyaltyLedger) Settle(balance, redeemed, earned model.Money) (model.Money, error) {
	next := balance.Sub(redeemed).Add(earned)
	if next.IsNegative() {
		return model.ZeroMoney(), newError(KindBalanceConsistency,
			"balance %s - redeemed %s + earned %s is negative", balance, redeemed, earned)
	}
	return next, nil
}
