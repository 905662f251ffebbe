package heuristics

import "github.com/rawblock/soltrace-engine/pkg/models"

// Lamport-Level Account Metrics
//
// The raw-record ingestion path has no token decimals to reason about; it
// folds whole transactions into per-account lamport statistics. These feed
// the counterparty-overlap linkage and the standalone account score.
//
// Every fold is commutative, so iteration order over the involved-address
// set never changes the totals.

// AccountMetrics is the per-address summary over a transaction batch.
type AccountMetrics struct {
	LastSlot         uint64              `json:"lastSlot"`
	InboundLamports  int64               `json:"inboundLamports"`
	OutboundLamports int64               `json:"outboundLamports"`
	Fees             int64               `json:"fees"`
	ProgramTouches   int                 `json:"programTouches"`
	TxCount          int                 `json:"txCount"`
	Peers            map[string]struct{} `json:"-"`
}

// UniqueCounterparties is the count of distinct co-occurring addresses.
func (m *AccountMetrics) UniqueCounterparties() int { return len(m.Peers) }

// SummarizeAccounts folds a transaction batch into per-address metrics. The
// signer's lamports count as outbound; every other participant records them
// as inbound exposure.
func SummarizeAccounts(transactions []models.Transaction) map[string]*AccountMetrics {
	summary := make(map[string]*AccountMetrics)
	for _, tx := range transactions {
		participants := tx.InvolvedAddresses()
		for addr := range participants {
			m, ok := summary[addr]
			if !ok {
				m = &AccountMetrics{Peers: make(map[string]struct{})}
				summary[addr] = m
			}
			if tx.Slot > m.LastSlot {
				m.LastSlot = tx.Slot
			}
			m.Fees += tx.Fee
			m.ProgramTouches += len(tx.Programs)
			m.TxCount++
			if addr == tx.Signer {
				m.OutboundLamports += tx.Lamports
			} else {
				m.InboundLamports += tx.Lamports
			}
			for peer := range participants {
				if peer != addr {
					m.Peers[peer] = struct{}{}
				}
			}
		}
	}
	return summary
}

// ScoreAccount composites program concentration, outflow pressure, and fee
// load into a single 0..1 risk score. Zero denominators resolve to 0 rather
// than faulting.
func ScoreAccount(m *AccountMetrics) float64 {
	conc := safeRatio(float64(m.ProgramTouches), float64(m.TxCount))
	outflow := safeRatio(float64(m.OutboundLamports), float64(m.InboundLamports))
	feeLoad := safeRatio(float64(m.Fees), float64(m.TxCount))

	score := 0.4*conc + 0.4*outflow + 0.2*feeLoad
	if score > 1.0 {
		return 1.0
	}
	return score
}

// ScoreAccounts scores every summarized address.
func ScoreAccounts(summary map[string]*AccountMetrics) map[string]float64 {
	scores := make(map[string]float64, len(summary))
	for addr, m := range summary {
		scores[addr] = ScoreAccount(m)
	}
	return scores
}

// FlagHighValue returns the transactions at or above the lamport threshold,
// preserving input order.
func FlagHighValue(transactions []models.Transaction, lamportThreshold int64) []models.Transaction {
	var flagged []models.Transaction
	for _, tx := range transactions {
		if tx.Lamports >= lamportThreshold {
			flagged = append(flagged, tx)
		}
	}
	return flagged
}

func safeRatio(numerator, denominator float64) float64 {
	if denominator == 0 {
		return 0.0
	}
	return numerator / denominator
}
