package heuristics

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/rawblock/soltrace-engine/pkg/models"
)

// Cluster Finalization & Scoring
//
// After all unions, addresses are grouped by root and each group becomes an
// AddressCluster with a composite score: the mean of each member's
// individual score, where a member scores
//
//	0.6 × min((sent + received) / 1000, 1) + 0.4 × min(counterparties / 100, 1)
//
// Scores are computed once here, never incrementally during unions.
// Singleton retention is a caller choice: the flow-similarity report only
// cares about genuine multi-address clusters, while the overlap path needs a
// grouping for every known address.

// MemberStats is the per-address view the clusterer scores from. Both
// linkage paths reduce to it: decimal token flow for the similarity variant,
// lamport flow for the overlap variant.
type MemberStats struct {
	Sent           decimal.Decimal `json:"sent"`
	Received       decimal.Decimal `json:"received"`
	Counterparties int             `json:"counterparties"`
}

const (
	flowWeightDivisor         = 1000.0
	counterpartyWeightDivisor = 100.0
	flowWeightShare           = 0.6
	counterpartyWeightShare   = 0.4
)

// MemberScore is the individual composite of flow volume and counterparty
// breadth, each capped at 1.
func MemberScore(stats MemberStats) float64 {
	volume, _ := stats.Sent.Add(stats.Received).Float64()
	flowWeight := volume / flowWeightDivisor
	if flowWeight > 1.0 {
		flowWeight = 1.0
	}
	counterpartyWeight := float64(stats.Counterparties) / counterpartyWeightDivisor
	if counterpartyWeight > 1.0 {
		counterpartyWeight = 1.0
	}
	return flowWeightShare*flowWeight + counterpartyWeightShare*counterpartyWeight
}

// BuildClusters registers every address from stats, runs the linkage
// strategy, and finalizes scored clusters. Output is sorted by score
// descending; ties break on the joined sorted member tuple so ordering is
// stable across runs and platforms.
func BuildClusters(strategy LinkageStrategy, stats map[string]MemberStats, keepSingletons bool) []models.AddressCluster {
	ce := NewClusterEngine()
	for _, addr := range sortedKeys(stats) {
		ce.Add(addr)
	}
	strategy.Link(ce)

	clusters := make([]models.AddressCluster, 0)
	for _, members := range ce.Groups() {
		if len(members) < 2 && !keepSingletons {
			continue
		}
		clusters = append(clusters, models.AddressCluster{
			Members: members,
			Score:   clusterScore(members, stats),
		})
	}

	sort.SliceStable(clusters, func(i, j int) bool {
		if clusters[i].Score != clusters[j].Score {
			return clusters[i].Score > clusters[j].Score
		}
		return strings.Join(clusters[i].Members, ",") < strings.Join(clusters[j].Members, ",")
	})
	return clusters
}

// clusterScore is the mean member score. Empty clusters cannot occur, but
// the guard keeps the division safe regardless.
func clusterScore(members []string, stats map[string]MemberStats) float64 {
	if len(members) == 0 {
		return 0.0
	}
	total := 0.0
	for _, addr := range members {
		total += MemberScore(stats[addr])
	}
	return total / float64(len(members))
}

// MemberStatsFromAggregates adapts cross-mint balance aggregates into the
// clusterer's view.
func MemberStatsFromAggregates(aggregates map[string]*BalanceAggregate) map[string]MemberStats {
	stats := make(map[string]MemberStats, len(aggregates))
	for addr, agg := range aggregates {
		stats[addr] = MemberStats{
			Sent:           agg.Sent,
			Received:       agg.Received,
			Counterparties: agg.UniqueCounterparties(),
		}
	}
	return stats
}

// MemberStatsFromMetrics adapts lamport-level account metrics, expressing
// flow in SOL so the 1000-unit flow cap keeps discriminating.
func MemberStatsFromMetrics(metrics map[string]*AccountMetrics) map[string]MemberStats {
	stats := make(map[string]MemberStats, len(metrics))
	for addr, m := range metrics {
		stats[addr] = MemberStats{
			Sent:           decimal.NewFromInt(m.OutboundLamports).Shift(-9),
			Received:       decimal.NewFromInt(m.InboundLamports).Shift(-9),
			Counterparties: m.UniqueCounterparties(),
		}
	}
	return stats
}
