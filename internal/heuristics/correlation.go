package heuristics

import (
	"sort"

	"github.com/rawblock/soltrace-engine/pkg/models"
)

// Intel Correlation
//
// Cross-references the consolidated off-chain intel address set against a
// transaction batch. Every transaction whose signer-or-account set
// intersects the intel set becomes a correlation hit. High-value filtering
// is a plain post-hoc lamport threshold.
//
// Hits are sorted by slot, then signature, so the hit list is byte-for-byte
// reproducible for identical inputs.

// CorrelationAgent correlates intel signals with on-chain activity. One
// agent per run; hits are not retained across runs.
type CorrelationAgent struct {
	hits []models.CorrelationHit
}

// NewCorrelationAgent creates an empty agent.
func NewCorrelationAgent() *CorrelationAgent {
	return &CorrelationAgent{}
}

// Correlate computes and stores the hit list for intel × transactions.
func (a *CorrelationAgent) Correlate(intel models.IntelSignal, transactions []models.Transaction) []models.CorrelationHit {
	intelSet := make(map[string]struct{}, len(intel.Addresses))
	for _, addr := range intel.Addresses {
		intelSet[addr] = struct{}{}
	}

	hits := make([]models.CorrelationHit, 0)
	for _, tx := range transactions {
		overlap := make(map[string]struct{})
		for addr := range tx.InvolvedAddresses() {
			if _, ok := intelSet[addr]; ok {
				overlap[addr] = struct{}{}
			}
		}
		if len(overlap) == 0 {
			continue
		}
		hits = append(hits, models.CorrelationHit{
			Signature:    tx.Signature,
			Slot:         tx.Slot,
			HitAddresses: models.SortedAddressSet(overlap),
			Lamports:     tx.Lamports,
			Programs:     tx.Programs,
		})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Slot != hits[j].Slot {
			return hits[i].Slot < hits[j].Slot
		}
		return hits[i].Signature < hits[j].Signature
	})

	a.hits = hits
	return hits
}

// Hits returns the last computed hit list.
func (a *CorrelationAgent) Hits() []models.CorrelationHit {
	return a.hits
}

// HighValueHits filters the stored hits to those at or above the lamport
// minimum, preserving sort order.
func (a *CorrelationAgent) HighValueHits(minimumLamports int64) []models.CorrelationHit {
	high := make([]models.CorrelationHit, 0)
	for _, hit := range a.hits {
		if hit.Lamports >= minimumLamports {
			high = append(high, hit)
		}
	}
	return high
}
