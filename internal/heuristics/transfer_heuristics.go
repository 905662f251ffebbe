package heuristics

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/rawblock/soltrace-engine/pkg/models"
)

// Suspicion Heuristics
//
// Deterministic rules over aggregated flow statistics. Each rule is
// independently evaluable; an address can collect several reasons.
//
//   round_trip_flow:   received > 0 and sent/received >= ratio (default 0.8).
//                      Money passing through without material retention.
//   hub_like_behavior: unique counterparties >= threshold (default 6).
//                      The strict variant (threshold 50) additionally
//                      requires sent > 0, so addresses with many stored but
//                      unused peer links stay quiet.
//
// The ratio check is done by multiplication (sent >= ratio × received), not
// division, so it stays exact under decimal arithmetic.

// Flag reasons. Cluster proximity is only ever attached by propagation.
const (
	ReasonRoundTripFlow    = "round_trip_flow"
	ReasonHubLikeBehavior  = "hub_like_behavior"
	ReasonClusterProximity = "cluster proximity to flagged counterparties"
)

// SuspicionReport is the per-mint flag view plus the cross-asset rollup,
// where every reason is tagged with its mint ("<mint>:<reason>").
type SuspicionReport struct {
	ByMint    map[string]map[string][]string `json:"byMint"`
	CrossMint map[string][]string            `json:"crossMint"`
}

// TransferHeuristics evaluates the suspicion rules with configured
// thresholds.
type TransferHeuristics struct {
	roundTripRatio     decimal.Decimal
	hubThreshold       int
	hubRequiresOutflow bool
}

// NewTransferHeuristics builds the evaluator from config.
func NewTransferHeuristics(cfg Config) *TransferHeuristics {
	return &TransferHeuristics{
		roundTripRatio:     cfg.RoundTripRatio,
		hubThreshold:       cfg.HubThreshold,
		hubRequiresOutflow: cfg.HubRequiresOutflow,
	}
}

// Reasons evaluates every rule against one aggregate and returns the
// matching reasons in rule order.
func (h *TransferHeuristics) Reasons(agg *BalanceAggregate) []string {
	var reasons []string
	if agg.Received.IsPositive() && agg.Sent.GreaterThanOrEqual(h.roundTripRatio.Mul(agg.Received)) {
		reasons = append(reasons, ReasonRoundTripFlow)
	}
	if agg.UniqueCounterparties() >= h.hubThreshold {
		if !h.hubRequiresOutflow || agg.Sent.IsPositive() {
			reasons = append(reasons, ReasonHubLikeBehavior)
		}
	}
	return reasons
}

// FlagSuspiciousPatterns runs the rules over per-mint aggregates. Mints and
// addresses are visited in sorted order, so cross-mint reason lists come out
// identical across runs.
func (h *TransferHeuristics) FlagSuspiciousPatterns(aggregates map[string]map[string]*BalanceAggregate) SuspicionReport {
	report := SuspicionReport{
		ByMint:    make(map[string]map[string][]string),
		CrossMint: make(map[string][]string),
	}

	mints := make([]string, 0, len(aggregates))
	for mint := range aggregates {
		mints = append(mints, mint)
	}
	sort.Strings(mints)

	for _, mint := range mints {
		addressMap := aggregates[mint]
		addrs := make([]string, 0, len(addressMap))
		for addr := range addressMap {
			addrs = append(addrs, addr)
		}
		sort.Strings(addrs)

		mintFlags := make(map[string][]string)
		for _, addr := range addrs {
			reasons := h.Reasons(addressMap[addr])
			if len(reasons) == 0 {
				continue
			}
			mintFlags[addr] = reasons
			for _, reason := range reasons {
				report.CrossMint[addr] = append(report.CrossMint[addr], fmt.Sprintf("%s:%s", mint, reason))
			}
		}
		if len(mintFlags) > 0 {
			report.ByMint[mint] = mintFlags
		}
	}
	return report
}

// Flags flattens the per-mint view into an ordered flag list: mints sorted,
// addresses sorted within each mint, reasons in rule order. Duplicate
// (address, reason) pairs across mints are kept; only insertion order
// matters for display.
func (r SuspicionReport) Flags() []models.SuspicionFlag {
	mints := make([]string, 0, len(r.ByMint))
	for mint := range r.ByMint {
		mints = append(mints, mint)
	}
	sort.Strings(mints)

	var flags []models.SuspicionFlag
	for _, mint := range mints {
		mintFlags := r.ByMint[mint]
		addrs := make([]string, 0, len(mintFlags))
		for addr := range mintFlags {
			addrs = append(addrs, addr)
		}
		sort.Strings(addrs)
		for _, addr := range addrs {
			for _, reason := range mintFlags[addr] {
				flags = append(flags, models.SuspicionFlag{Address: addr, Reason: reason})
			}
		}
	}
	return flags
}

// FlaggedAddresses returns the sorted set of addresses carrying at least one
// flag in any mint.
func (r SuspicionReport) FlaggedAddresses() []string {
	set := make(map[string]struct{}, len(r.CrossMint))
	for addr := range r.CrossMint {
		set[addr] = struct{}{}
	}
	return models.SortedAddressSet(set)
}
