package models

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestNewMoney(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Money
		wantErr error
	}{
		{"whole", "150", 1500000, nil},
		{"cents", "150.25", 1502500, nil},
		{"four_places", "0.0001", 1, nil},
		{"negative", "-42.5", -425000, nil},
		{"trailing_zeros", "1.50000", 15000, nil},
		{"five_places", "0.00001", 0, ErrMoneyPrecision},
		{"just_below_max", "999999999999.9999", 9999999999999999, nil},
		{"at_max", "1000000000000", 0, ErrMoneyRange},
		{"negative_at_max", "-1000000000000", 0, ErrMoneyRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewMoney(decimal.RequireFromString(tt.input))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %d minor units, got %d", tt.want, got)
			}
		})
	}
}

func TestMoneyArithmeticIsExact(t *testing.T) {
	sum := MustMoney("0.1") + MustMoney("0.2")
	if sum != MustMoney("0.3") {
		t.Errorf("expected 0.3, got %s", sum)
	}
	if back := sum - MustMoney("0.2"); back != MustMoney("0.1") {
		t.Errorf("expected 0.1 after subtracting, got %s", back)
	}
	if got := (MustMoney("0") - MustMoney("0.1") - MustMoney("0.1")).String(); got != "-0.2" {
		t.Errorf("expected -0.2, got %s", got)
	}
}

func TestMoneyJSON(t *testing.T) {
	b, err := json.Marshal(map[string]Money{"amount": MustMoney("1079.5")})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `{"amount":"1079.5"}` {
		t.Errorf("unexpected JSON %s", b)
	}

	var out struct {
		Quoted Money `json:"quoted"`
		Bare   Money `json:"bare"`
	}
	if err := json.Unmarshal([]byte(`{"quoted":"12.34","bare":5}`), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Quoted != MustMoney("12.34") || out.Bare != MustMoney("5") {
		t.Errorf("unexpected values %s, %s", out.Quoted, out.Bare)
	}

	if err := json.Unmarshal([]byte(`{"quoted":"0.123456"}`), &out); !errors.Is(err, ErrMoneyPrecision) {
		t.Errorf("expected precision error, got %v", err)
	}
}

func TestMoneyScan(t *testing.T) {
	tests := []struct {
		name    string
		value   interface{}
		want    Money
		wantErr bool
	}{
		{"int64", int64(1502500), 1502500, false},
		{"nil", nil, 0, false},
		{"numeric_text", []byte("3000000"), 3000000, false},
		{"numeric_with_scale", "3000000.0", 3000000, false},
		{"fractional_text", "1.5", 0, true},
		{"float", 1.5, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var m Money
			err := m.Scan(tt.value)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error scanning %v", tt.value)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if m != tt.want {
				t.Errorf("expected %d, got %d", tt.want, m)
			}
		})
	}

	v, err := MustMoney("-0.25").Value()
	if err != nil || v != int64(-2500) {
		t.Errorf("expected -2500 minor units, got %v (%v)", v, err)
	}
}
