package heuristics

import "sort"

// Linkage Strategies
//
// Two independent edge heuristics exist for the same clustering role, so
// linkage is pluggable rather than hardcoded:
//
//   flow-similarity:       link addresses whose sent/received volumes are
//                          close under a normalized gap metric. O(n²) pairs;
//                          acceptable because inputs are bounded batches,
//                          not live streams.
//   counterparty-overlap:  link addresses whose inbound lamport exposure
//                          overlaps and whose combined program-touch count
//                          crosses a bias constant.
//
// Both strategies visit address pairs in sorted order, so the union sequence
// fed to the engine is identical across runs.

// LinkageStrategy discovers edges and unions them into the engine.
type LinkageStrategy interface {
	Name() string
	Link(ce *ClusterEngine)
}

// similarityEpsilon guards the similarity denominator against
// divide-by-zero when both addresses have zero volume.
const similarityEpsilon = 1e-9

// FlowSimilarity computes the pairwise similarity of two flow profiles:
//
//	1 - (|Δsent| + |Δreceived|) / max(total volume, epsilon)
//
// Range is (-inf, 1]; 1.0 means identical volumes. Symmetric by
// construction.
func FlowSimilarity(a, b MemberStats) float64 {
	gap, _ := a.Sent.Sub(b.Sent).Abs().Add(a.Received.Sub(b.Received).Abs()).Float64()
	denom, _ := a.Sent.Add(b.Sent).Add(a.Received).Add(b.Received).Float64()
	if denom < similarityEpsilon {
		denom = similarityEpsilon
	}
	return 1.0 - gap/denom
}

// FlowSimilarityLinkage links every pair whose similarity meets the
// threshold.
type FlowSimilarityLinkage struct {
	stats     map[string]MemberStats
	threshold float64
}

// NewFlowSimilarityLinkage builds the quadratic-comparison strategy.
func NewFlowSimilarityLinkage(stats map[string]MemberStats, threshold float64) *FlowSimilarityLinkage {
	return &FlowSimilarityLinkage{stats: stats, threshold: threshold}
}

func (l *FlowSimilarityLinkage) Name() string { return string(LinkageFlowSimilarity) }

func (l *FlowSimilarityLinkage) Link(ce *ClusterEngine) {
	addrs := sortedKeys(l.stats)
	for i, lhs := range addrs {
		for _, rhs := range addrs[i+1:] {
			if FlowSimilarity(l.stats[lhs], l.stats[rhs]) >= l.threshold {
				ce.Union(lhs, rhs)
			}
		}
	}
}

// CounterpartyOverlapLinkage links pairs with qualifying inbound overlap and
// elevated combined program-touch counts.
type CounterpartyOverlapLinkage struct {
	metrics          map[string]*AccountMetrics
	programBias      int
	minSharedInbound int64
}

// NewCounterpartyOverlapLinkage builds the overlap strategy.
func NewCounterpartyOverlapLinkage(metrics map[string]*AccountMetrics, programBias int, minSharedInbound int64) *CounterpartyOverlapLinkage {
	return &CounterpartyOverlapLinkage{
		metrics:          metrics,
		programBias:      programBias,
		minSharedInbound: minSharedInbound,
	}
}

func (l *CounterpartyOverlapLinkage) Name() string { return string(LinkageCounterpartyOverlap) }

func (l *CounterpartyOverlapLinkage) Link(ce *ClusterEngine) {
	addrs := make([]string, 0, len(l.metrics))
	for addr := range l.metrics {
		addrs = append(addrs, addr)
	}
	sort.Strings(addrs)

	for i, lhs := range addrs {
		for _, rhs := range addrs[i+1:] {
			shared := l.metrics[lhs].InboundLamports
			if l.metrics[rhs].InboundLamports < shared {
				shared = l.metrics[rhs].InboundLamports
			}
			if shared < l.minSharedInbound {
				continue
			}
			if l.metrics[lhs].ProgramTouches+l.metrics[rhs].ProgramTouches >= l.programBias {
				ce.Union(lhs, rhs)
			}
		}
	}
}

func sortedKeys(stats map[string]MemberStats) []string {
	keys := make([]string, 0, len(stats))
	for k := range stats {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
