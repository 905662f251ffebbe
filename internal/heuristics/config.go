package heuristics

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// LinkagePolicy selects how cluster edges are discovered. Both published
// policies are first-class; callers pick one per run.
type LinkagePolicy string

const (
	// LinkageFlowSimilarity links addresses whose sent/received volumes are
	// close under the pairwise similarity metric.
	LinkageFlowSimilarity LinkagePolicy = "flow-similarity"

	// LinkageCounterpartyOverlap links addresses with overlapping inbound
	// exposure and elevated combined program-touch counts.
	LinkageCounterpartyOverlap LinkagePolicy = "counterparty-overlap"
)

const (
	// DefaultSimilarityThreshold is the minimum pairwise flow similarity for
	// two addresses to be unioned.
	DefaultSimilarityThreshold = 0.55

	// DefaultHubThreshold flags an address once it has this many distinct
	// counterparties.
	DefaultHubThreshold = 6

	// StrictHubThreshold is the alternate hub cutoff used together with
	// HubRequiresOutflow, guarding against zero-activity addresses that
	// merely accumulated stored peer links.
	StrictHubThreshold = 50

	// DefaultHighValueLamports is the post-hoc cutoff for high-value
	// correlation hits (1 SOL = 1e9 lamports).
	DefaultHighValueLamports = 1_000_000_000

	// DefaultProgramTouchBias is the combined program-touch count a pair must
	// reach before a counterparty-overlap edge is considered.
	DefaultProgramTouchBias = 3

	// DefaultMinSharedInbound is the minimum inbound-lamport overlap for a
	// counterparty pair to qualify as shared.
	DefaultMinSharedInbound = 2
)

// Config carries every tunable threshold of the engine. Thresholds are
// configuration, never hardcoded at the use site.
type Config struct {
	SimilarityThreshold float64         `json:"similarityThreshold"`
	RoundTripRatio      decimal.Decimal `json:"roundTripRatio"`
	HubThreshold        int             `json:"hubThreshold"`
	HubRequiresOutflow  bool            `json:"hubRequiresOutflow"`
	HighValueLamports   int64           `json:"highValueLamports"`
	ProgramTouchBias    int             `json:"programTouchBias"`
	MinSharedInbound    int64           `json:"minSharedInbound"`
	KeepSingletons      bool            `json:"keepSingletons"`
	Linkage             LinkagePolicy   `json:"linkage"`
}

// DefaultConfig returns the documented default thresholds.
func DefaultConfig() Config {
	return Config{
		SimilarityThreshold: DefaultSimilarityThreshold,
		RoundTripRatio:      decimal.RequireFromString("0.8"),
		HubThreshold:        DefaultHubThreshold,
		HubRequiresOutflow:  false,
		HighValueLamports:   DefaultHighValueLamports,
		ProgramTouchBias:    DefaultProgramTouchBias,
		MinSharedInbound:    DefaultMinSharedInbound,
		KeepSingletons:      false,
		Linkage:             LinkageFlowSimilarity,
	}
}

// Validate rejects configurations that would silently corrupt a run. Called
// at pipeline construction, before any data is processed.
func (c Config) Validate() error {
	if math.IsNaN(c.SimilarityThreshold) || c.SimilarityThreshold > 1.0 {
		return fmt.Errorf("heuristics: similarity threshold %v outside (-inf, 1]", c.SimilarityThreshold)
	}
	if c.RoundTripRatio.IsNegative() {
		return fmt.Errorf("heuristics: round-trip ratio %s must not be negative", c.RoundTripRatio)
	}
	if c.HubThreshold < 1 {
		return fmt.Errorf("heuristics: hub threshold %d must be at least 1", c.HubThreshold)
	}
	if c.HighValueLamports < 0 {
		return fmt.Errorf("heuristics: high-value lamport threshold %d must not be negative", c.HighValueLamports)
	}
	if c.ProgramTouchBias < 0 {
		return fmt.Errorf("heuristics: program-touch bias %d must not be negative", c.ProgramTouchBias)
	}
	if c.MinSharedInbound < 0 {
		return fmt.Errorf("heuristics: shared-inbound threshold %d must not be negative", c.MinSharedInbound)
	}
	switch c.Linkage {
	case LinkageFlowSimilarity, LinkageCounterpartyOverlap:
	default:
		return fmt.Errorf("heuristics: unknown linkage policy %q", c.Linkage)
	}
	return nil
}
