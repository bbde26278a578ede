package core

import (
	"encoding/json"
	"testing"
)

func TestParseDecimalToCents(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half-up rounding
		{"12.344", 1234, true},
		{" 2.50 ", 250, true},
		{"-1", 0, false},
		{"+1", 0, false},
		{"0", 0, false},
		{"0.004", 0, false}, // rounds to zero
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"1e3", 0, false},
		{"", 0, false},
		{"999999999999999999999", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseDecimalToCents(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestParseMoneyAllowsZeroAndNegative(t *testing.T) {
	cases := map[string]int64{
		"0":        0,
		"-150.5":   -15050,
		"1000":     100000,
		"-0,015":   -2,
		"12345.67": 1234567,
	}
	for in, want := range cases {
		got, err := ParseMoney(in)
		if err != nil {
			t.Fatalf("%q: unexpected error %v", in, err)
		}
		if got.Cents != want {
			t.Errorf("%q = %d cents, want %d", in, got.Cents, want)
		}
	}
}

func TestMoneyArithmeticAndFormat(t *testing.T) {
	a := Cents(100000)
	b := Cents(50000)
	c := Cents(30000)

	if got := a.Add(b).Sub(c); got.Cents != 120000 {
		t.Fatalf("1000 + 500 - 300 = %d cents, want 120000", got.Cents)
	}
	if got := Sum(a, b, c.Neg()); got.String() != "1200.00" {
		t.Fatalf("Sum formatted = %s, want 1200.00", got)
	}
	if got := Cents(-5).String(); got != "-0.05" {
		t.Fatalf("negative format = %s", got)
	}
	if !Sum().IsZero() {
		t.Fatal("empty sum should be zero")
	}
}

func TestMoneyJSON(t *testing.T) {
	data, err := json.Marshal(struct {
		Amount Money `json:"amount"`
	}{Cents(3334)})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"amount":"33.34"}` {
		t.Fatalf("unexpected json %s", data)
	}

	for _, in := range []string{`{"amount":"33.34"}`, `{"amount":33.34}`, `{"amount":"33,34"}`} {
		var out struct {
			Amount Money `json:"amount"`
		}
		if err := json.Unmarshal([]byte(in), &out); err != nil {
			t.Fatalf("unmarshal %s: %v", in, err)
		}
		if out.Amount.Cents != 3334 {
			t.Errorf("%s decoded to %d cents", in, out.Amount.Cents)
		}
	}

	var bad struct {
		Amount Money `json:"amount"`
	}
	if err := json.Unmarshal([]byte(`{"amount":"twelve"}`), &bad); err == nil {
		t.Fatal("expected error for non-numeric amount")
	}
}

func TestMoneyValidate(t *testing.T) {
	if err := (Money{Cents: 1}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Money{Cents: 0}).Validate(); err == nil {
		t.Fatalf("expected error for zero")
	}
	if err := (Money{Cents: -1}).Validate(); err == nil {
		t.Fatalf("expected error for negative")
	}
}
