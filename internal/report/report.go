// Package report consolidates one pipeline run into a render-ready payload.
// Serialization formats beyond plain text are the consumer's concern.
package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rawblock/soltrace-engine/internal/heuristics"
	"github.com/rawblock/soltrace-engine/internal/metrics"
	"github.com/rawblock/soltrace-engine/pkg/models"
)

// Report is the consolidated forensic view of one run.
type Report struct {
	RunID          string                  `json:"runId"`
	IntelSummary   string                  `json:"intelSummary"`
	IntelAddresses []string                `json:"intelAddresses"`
	Correlations   []models.CorrelationHit `json:"correlations"`
	HighValueHits  []models.CorrelationHit `json:"highValueHits"`
	AccountScores  map[string]float64      `json:"accountScores"`
	Clusters       []models.AddressCluster `json:"clusters"`
	Flags          []models.SuspicionFlag  `json:"flags"`
	Agreement      metrics.Agreement       `json:"linkageAgreement"`
}

// Build assembles the report payload from a pipeline result and the
// consolidated intel signal.
func Build(result *heuristics.Result, intel models.IntelSignal) Report {
	return Report{
		RunID:          result.RunID,
		IntelSummary:   intel.Summary,
		IntelAddresses: intel.Addresses,
		Correlations:   result.Hits,
		HighValueHits:  result.HighValueHits,
		AccountScores:  result.AccountScores,
		Clusters:       result.Correlation.Clusters,
		Flags:          result.Correlation.Flags,
		Agreement:      result.Agreement,
	}
}

// RenderText renders the report deterministically: correlations keep their
// slot order, account scores are listed by score descending with address as
// the tie-break.
func RenderText(r Report) string {
	lines := []string{"Intel Summary:", r.IntelSummary, "", "Correlated Transactions:"}
	for _, hit := range r.Correlations {
		lines = append(lines, fmt.Sprintf("- sig=%s slot=%d lamports=%d addresses=%s",
			hit.Signature, hit.Slot, hit.Lamports, strings.Join(hit.HitAddresses, ",")))
	}

	lines = append(lines, "", "Account Scores:")
	type scored struct {
		addr  string
		score float64
	}
	ranking := make([]scored, 0, len(r.AccountScores))
	for addr, score := range r.AccountScores {
		ranking = append(ranking, scored{addr: addr, score: score})
	}
	sort.Slice(ranking, func(i, j int) bool {
		if ranking[i].score != ranking[j].score {
			return ranking[i].score > ranking[j].score
		}
		return ranking[i].addr < ranking[j].addr
	})
	for _, entry := range ranking {
		lines = append(lines, fmt.Sprintf("- %s: score=%.2f", entry.addr, entry.score))
	}

	lines = append(lines, "", "Clusters:",
		fmt.Sprintf("(strategy agreement: ari=%.3f vi=%.3f)",
			r.Agreement.AdjustedRandIndex, r.Agreement.VariationOfInformation))
	for _, cluster := range r.Clusters {
		lines = append(lines, fmt.Sprintf("- size=%d score=%.3f members=%s",
			cluster.Size(), cluster.Score, strings.Join(cluster.Members, ",")))
	}

	lines = append(lines, "", "Flags:")
	for _, flag := range r.Flags {
		lines = append(lines, fmt.Sprintf("- %s: %s", flag.Address, flag.Reason))
	}
	return strings.Join(lines, "\n")
}
