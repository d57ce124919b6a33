package service

import (
	"errors"
	"testing"

	"retailpos/internal/model"

	"github.com/google/uuid"
)

func TestComputeLoyalty(t *testing.T) {
	ledger := NewLoyaltyLedger()
	referrer := &model.Customer{ID: uuid.New(), LoyaltyPoints: money("50")}
	referred := &model.Customer{ID: uuid.New(), ReferredByID: &referrer.ID, LoyaltyPoints: money("10")}
	plain := &model.Customer{ID: uuid.New()}

	tests := []struct {
		name       string
		customer   *model.Customer
		referrer   *model.Customer
		profit     string
		isNew      bool
		wantEarned string
		wantBonus  string
	}{
		{"walk-in", nil, nil, "300", false, "0", "0"},
		{"existing customer", plain, nil, "300", false, "15", "0"},
		{"new customer earns nothing", referred, referrer, "300", true, "0", "6"},
		{"existing referred customer", referred, referrer, "300", false, "15", "6"},
		{"referrer not linked", plain, referrer, "300", false, "15", "0"},
		{"loss making sale", referred, referrer, "-40", false, "0", "0"},
		{"rounds to cents", plain, nil, "33.33", false, "1.67", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ledger.ComputeLoyalty(tt.customer, tt.referrer, money(tt.profit), tt.isNew)
			if !res.Earned.Equal(money(tt.wantEarned)) {
				t.Fatalf("expected earned %s, got %s", tt.wantEarned, res.Earned)
			}
			if !res.ReferrerBonus.Equal(money(tt.wantBonus)) {
				t.Fatalf("expected bonus %s, got %s", tt.wantBonus, res.ReferrerBonus)
			}
			if res.CreditReferrer != res.ReferrerBonus.IsPositive() {
				t.Fatalf("CreditReferrer must follow a positive bonus")
			}
		})
	}
}

func TestComputeLoyaltyIgnoresSelfReferral(t *testing.T) {
	ledger := NewLoyaltyLedger()
	c := &model.Customer{ID: uuid.New()}
	c.ReferredByID = &c.ID

	res := ledger.ComputeLoyalty(c, c, money("100"), false)
	if res.CreditReferrer {
		t.Fatalf("expected no bonus for a self-referral")
	}
}

func TestRedeem(t *testing.T) {
	ledger := NewLoyaltyLedger()
	customer := &model.Customer{ID: uuid.New(), LoyaltyPoints: money("500")}

	tests := []struct {
		name      string
		customer  *model.Customer
		requested string
		total     string
		isNew     bool
		want      string
	}{
		{"within balance and total", customer, "100", "600", false, "100"},
		{"capped at balance", customer, "900", "1000", false, "500"},
		{"capped at sale total", customer, "400", "250", false, "250"},
		{"walk-in", nil, "100", "600", false, "0"},
		{"new customer", customer, "100", "600", true, "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ledger.Redeem(tt.customer, money(tt.requested), money(tt.total), tt.isNew)
			if err != nil {
				t.Fatalf("redeem: %v", err)
			}
			if !got.Equal(money(tt.want)) {
				t.Fatalf("expected %s, got %s", tt.want, got)
			}
		})
	}

	if _, err := ledger.Redeem(customer, money("-1"), money("600"), false); !errors.Is(err, ErrInvalidRedemption) {
		t.Fatalf("expected ErrInvalidRedemption, got %v", err)
	}
}

func TestSettle(t *testing.T) {
	ledger := NewLoyaltyLedger()

	got, err := ledger.Settle(money("500"), money("100"), money("15"))
	if err != nil || !got.Equal(money("415")) {
		t.Fatalf("expected 415, got %s (%v)", got, err)
	}

	got, err = ledger.Settle(money("10"), money("20"), money("1"))
	if !errors.Is(err, ErrBalanceConsistency) {
		t.Fatalf("expected ErrBalanceConsistency, got %v", err)
	}
	if !got.IsZero() {
		t.Fatalf("expected clamped balance 0, got %s", got)
	}
}
