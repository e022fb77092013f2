package util

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestValidateAmount_Positive(t *testing.T) {
	testCases := []string{"0.01", "1.00", "100.50", "9999999.99"}

	for _, s := range testCases {
		amount := decimal.RequireFromString(s)
		if err := ValidateAmount(amount); err != nil {
			t.Errorf("ValidateAmount(%s) error = %v, want nil", s, err)
		}
	}
}

func TestValidateAmount_ZeroAndNegative(t *testing.T) {
	testCases := []string{"0", "-0.01", "-100", "-9999.99"}

	for _, s := range testCases {
		amount := decimal.RequireFromString(s)
		if err := ValidateAmount(amount); err == nil {
			t.Errorf("ValidateAmount(%s) error = nil, want error", s)
		}
	}
}

func TestValidateAmount_TooLarge(t *testing.T) {
	if err := ValidateAmount(decimal.NewFromInt(100_000_000)); err == nil {
		t.Error("ValidateAmount(100000000) error = nil, want error")
	}
}

func TestValidateDate_Valid(t *testing.T) {
	testCases := []string{
		"2024-01-01",
		"2024-12-31",
		"2025-06-15",
	}

	for _, date := range testCases {
		if err := ValidateDate(date); err != nil {
			t.Errorf("ValidateDate(%q) error = %v, want nil", date, err)
		}
	}
}

func TestValidateDate_InvalidFormat(t *testing.T) {
	testCases := []string{
		"",
		"2024/01/01",
		"01-01-2024",
		"2024-1-1",
		"not-a-date",
		"2024-13-01",
		"2024-01-32",
	}

	for _, date := range testCases {
		if err := ValidateDate(date); err == nil {
			t.Errorf("ValidateDate(%q) error = nil, want error", date)
		}
	}
}

func TestParseDateTime_Formats(t *testing.T) {
	testCases := []string{
		"2025-12-03T00:00:00+08:00",
		"2025-12-03T00:00:00",
		"2025-12-03",
	}

	for _, s := range testCases {
		if _, err := ParseDateTime(s); err != nil {
			t.Errorf("ParseDateTime(%q) error = %v, want nil", s, err)
		}
	}

	if _, err := ParseDateTime("03/12/2025"); err == nil {
		t.Error("ParseDateTime(\"03/12/2025\") error = nil, want error")
	}
}

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("SecurePassword123")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if !CheckPassword("SecurePassword123", hash) {
		t.Error("CheckPassword should return true for correct password")
	}
	if CheckPassword("WrongPassword", hash) {
		t.Error("CheckPassword should return false for wrong password")
	}
}

func TestIsStrongPassword(t *testing.T) {
	strong := []string{"Abcdefg1", "SecurePassword123"}
	weak := []string{"", "short1A", "alllowercase1", "ALLUPPERCASE1", "NoDigitsHere"}

	for _, pwd := range strong {
		if !IsStrongPassword(pwd) {
			t.Errorf("IsStrongPassword(%q) = false, want true", pwd)
		}
	}
	for _, pwd := range weak {
		if IsStrongPassword(pwd) {
			t.Errorf("IsStrongPassword(%q) = true, want false", pwd)
		}
	}
}
