package models

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
)

func TestNewMoneyFromString(t *testing.T) {
	m, err := NewMoneyFromString(" 12.345 ")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if m.String() != "12.35" {
		t.Fatalf("amount want 12.35 got %s", m.String())
	}

	if _, err := NewMoneyFromString("abc"); err == nil {
		t.Fatalf("invalid amount should fail")
	}
	if _, err := NewMoneyFromString(""); err == nil {
		t.Fatalf("empty amount should fail")
	}
}

func TestMoneyJSON(t *testing.T) {
	m := NewMoneyFromDecimal(decimal.NewFromFloat(99.9))
	data, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if string(data) != `"99.90"` {
		t.Fatalf("json want \"99.90\" got %s", string(data))
	}

	var fromString Money
	if err := json.Unmarshal([]byte(`"10.5"`), &fromString); err != nil {
		t.Fatalf("unmarshal string failed: %v", err)
	}
	if fromString.String() != "10.50" {
		t.Fatalf("string amount want 10.50 got %s", fromString.String())
	}

	var fromNumber Money
	if err := json.Unmarshal([]byte(`10.456`), &fromNumber); err != nil {
		t.Fatalf("unmarshal number failed: %v", err)
	}
	if fromNumber.String() != "10.46" {
		t.Fatalf("number amount want 10.46 got %s", fromNumber.String())
	}
}

func TestNormalizeCurrency(t *testing.T) {
	if got := NormalizeCurrency(" usd "); got != "USD" {
		t.Fatalf("normalize want USD got %s", got)
	}
	if !SameCurrency("usd", "USD") {
		t.Fatalf("usd and USD should match")
	}
	if SameCurrency("USD", "EUR") {
		t.Fatalf("USD and EUR should not match")
	}
}
