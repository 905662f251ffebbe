package heuristics

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/rawblock/soltrace-engine/pkg/models"
)

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal fixture %q: %v", s, err)
	}
	return d
}

func transferFixture(t *testing.T, source, destination, amount, mint string) models.TokenTransfer {
	t.Helper()
	return models.TokenTransfer{
		Mint:        mint,
		Source:      source,
		Destination: destination,
		Amount:      mustDecimal(t, amount),
		Program:     "spl-token",
	}
}

func memberStats(t *testing.T, sent, received string, counterparties int) MemberStats {
	t.Helper()
	return MemberStats{
		Sent:           mustDecimal(t, sent),
		Received:       mustDecimal(t, received),
		Counterparties: counterparties,
	}
}
