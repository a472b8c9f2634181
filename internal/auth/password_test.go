package auth

import "testing"

func TestHashAndCheckPassword(t *testing.T) {
	hashed, err := HashPassword("Sup3rSecret")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hashed == "Sup3rSecret" {
		t.Fatalf("hash must not equal the plaintext")
	}
	if !CheckPassword("Sup3rSecret", hashed) {
		t.Fatalf("expected password to verify")
	}
	if CheckPassword("wrong", hashed) {
		t.Fatalf("expected wrong password to fail")
	}
}

func TestValidatePasswordStrength(t *testing.T) {
	cases := []struct {
		password string
		want     bool
	}{
		{"Sup3rSecret", true},
		{"short1A", false},
		{"alllowercase1", false},
		{"ALLUPPERCASE1", false},
		{"NoDigitsHere", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := ValidatePasswordStrength(tc.password); got != tc.want {
			t.Fatalf("ValidatePasswordStrength(%q) = %v, want %v", tc.password, got, tc.want)
		}
	}
}
