package model

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseMoney(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"150", "150.00", false},
		{" 12.5 ", "12.50", false},
		{"-3", "-3.00", false},
		{"1.500", "1.50", false},
		{"150.005", "", true},
		{"", "", true},
		{"twelve", "", true},
	}
	for _, tt := range tests {
		m, err := ParseMoney(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidMoney) {
				t.Errorf("ParseMoney(%q) error = %v, want ErrInvalidMoney", tt.in, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseMoney(%q): %v", tt.in, err)
		}
		if m.String() != tt.want {
			t.Errorf("ParseMoney(%q) = %s, want %s", tt.in, m, tt.want)
		}
	}
}

func TestMoneyArithmetic(t *testing.T) {
	price := MustMoney("19.99")
	if got := price.MulQty(3); !got.Equal(MustMoney("59.97")) {
		t.Fatalf("MulQty = %s", got)
	}
	// 5% of 33.33 is 1.6665, rounded half away from zero
	if got := MustMoney("33.33").MulRate(decimal.RequireFromString("0.05")); !got.Equal(MustMoney("1.67")) {
		t.Fatalf("MulRate = %s", got)
	}
	if got := MinMoney(MustMoney("5"), MustMoney("2"), MustMoney("9")); !got.Equal(MustMoney("2")) {
		t.Fatalf("MinMoney = %s", got)
	}
	if got := MaxMoney(MustMoney("5"), MustMoney("2"), MustMoney("9")); !got.Equal(MustMoney("9")) {
		t.Fatalf("MaxMoney = %s", got)
	}
	if !ZeroMoney().IsZero() || MustMoney("-1").IsPositive() {
		t.Fatal("sign helpers disagree")
	}
}

func TestMoneyJSON(t *testing.T) {
	raw, err := json.Marshal(struct {
		Total Money `json:"total"`
	}{MustMoney("7.5")})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(raw) != `{"total":"7.50"}` {
		t.Fatalf("marshal = %s", raw)
	}

	for _, in := range []string{`"42.10"`, `42.1`} {
		var m Money
		if err := json.Unmarshal([]byte(in), &m); err != nil {
			t.Fatalf("unmarshal %s: %v", in, err)
		}
		if !m.Equal(MustMoney("42.1")) {
			t.Fatalf("unmarshal %s = %s", in, m)
		}
	}

	for _, in := range []string{`"abc"`, `"150.005"`, `0.001`} {
		var m Money
		if err := json.Unmarshal([]byte(in), &m); !errors.Is(err, ErrInvalidMoney) {
			t.Fatalf("unmarshal %s: expected ErrInvalidMoney, got %v", in, err)
		}
	}
}

func TestMoneyValueRoundsToScale(t *testing.T) {
	v, err := NewMoneyFromDecimal(decimal.RequireFromString("1.005")).Value()
	if err != nil {
		t.Fatalf("value: %v", err)
	}
	if v != "1.01" {
		t.Fatalf("value = %v", v)
	}

	var m Money
	if err := m.Scan("12.30"); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if !m.Equal(MustMoney("12.3")) {
		t.Fatalf("scan = %s", m)
	}
}

func TestIsCents(t *testing.T) {
	if !MustMoney("12.30").IsCents() {
		t.Fatal("12.30 should be whole cents")
	}
	if NewMoneyFromDecimal(decimal.RequireFromString("0.005")).IsCents() {
		t.Fatal("0.005 is finer than a cent")
	}
	// rounded rate products are always storable
	if !MustMoney("33.33").MulRate(decimal.RequireFromString("0.05")).IsCents() {
		t.Fatal("MulRate result should be whole cents")
	}
}
