package solana

import "testing"

func TestIsValidAddress(t *testing.T) {
	tests := []struct {
		name    string
		address string
		want    bool
	}{
		{"system program", "11111111111111111111111111111111", true},
		{"usdc mint", "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v", true},
		{"too short", "abc123", false},
		{"too long", "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1vXXXXX", false},
		{"zero digit outside alphabet", "00000000000000000000000000000000", false},
		{"lowercase l outside alphabet", "lllllllllllllllllllllllllllllllll", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidAddress(tt.address); got != tt.want {
				t.Errorf("IsValidAddress(%q) = %v, want %v", tt.address, got, tt.want)
			}
		})
	}
}

func TestNormalizeAddress(t *testing.T) {
	if got := NormalizeAddress("  addr  "); got != "addr" {
		t.Errorf("NormalizeAddress trimmed to %q", got)
	}
}
