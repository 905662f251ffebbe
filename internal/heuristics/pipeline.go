package heuristics

import (
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/rawblock/soltrace-engine/internal/metrics"
	"github.com/rawblock/soltrace-engine/pkg/models"
)

// Analysis Pipeline
//
// One batch run over an already-collected dataset:
//
//	parsed txs ─▶ normalizer ─▶ aggregator ─▶ suspicion flags
//	raw txs    ─▶ account metrics ──────────┐
//	                                        ├▶ clusterer ─▶ propagation
//	intel signal ─▶ correlation ────────────┘
//
// Every run builds its own union-find arena, aggregate maps, and cluster
// list; nothing but configuration survives between runs.

// Pipeline executes the full analysis over one dataset.
type Pipeline struct {
	cfg    Config
	parser *TransferParser
	heur   *TransferHeuristics
}

// Result is everything one run exposes to downstream consumers.
type Result struct {
	RunID          string                                  `json:"runId"`
	Transfers      []models.TokenTransfer                  `json:"transfers"`
	BalancesByMint map[string]map[string]*BalanceAggregate `json:"balancesByMint"`
	Suspicion      SuspicionReport                         `json:"suspicion"`
	Metrics        map[string]*AccountMetrics              `json:"metrics"`
	AccountScores  map[string]float64                      `json:"accountScores"`
	Correlation    models.CorrelationResult                `json:"correlation"`
	Hits           []models.CorrelationHit                 `json:"hits"`
	HighValueHits  []models.CorrelationHit                 `json:"highValueHits"`
	Agreement      metrics.Agreement                       `json:"linkageAgreement"`
}

// NewPipeline validates the configuration and builds the pipeline. Invalid
// thresholds fail here, before any data is touched.
func NewPipeline(cfg Config, mintDecimals map[string]int, lookup MintLookupFunc) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	return &Pipeline{
		cfg:    cfg,
		parser: NewTransferParser(mintDecimals, lookup),
		heur:   NewTransferHeuristics(cfg),
	}, nil
}

// Config returns the pipeline configuration.
func (p *Pipeline) Config() Config { return p.cfg }

// Run executes one analysis pass. Empty inputs yield empty collections, not
// errors; per-instruction parse failures were already dropped by the
// normalizer.
func (p *Pipeline) Run(parsed []models.ParsedTransaction, transactions []models.Transaction, intel models.IntelSignal) *Result {
	result := &Result{RunID: uuid.NewString()}

	result.Transfers = make([]models.TokenTransfer, 0)
	for _, tx := range parsed {
		result.Transfers = append(result.Transfers, p.parser.ExtractTransfers(tx)...)
	}

	result.BalancesByMint = AggregateBalancesByMint(result.Transfers)
	result.Suspicion = p.heur.FlagSuspiciousPatterns(result.BalancesByMint)
	flags := result.Suspicion.Flags()

	result.Metrics = SummarizeAccounts(transactions)
	result.AccountScores = ScoreAccounts(result.Metrics)

	flowStats := MemberStatsFromAggregates(AggregateBalances(result.Transfers))
	flowStrategy := NewFlowSimilarityLinkage(flowStats, p.cfg.SimilarityThreshold)
	flowClusters := BuildClusters(flowStrategy, flowStats, p.cfg.KeepSingletons)

	overlapStats := MemberStatsFromMetrics(result.Metrics)
	overlapStrategy := NewCounterpartyOverlapLinkage(result.Metrics, p.cfg.ProgramTouchBias, p.cfg.MinSharedInbound)
	overlapClusters := BuildClusters(overlapStrategy, overlapStats, p.cfg.KeepSingletons)

	// Both strategies always run: the configured one produces the report
	// partition, the other serves as its agreement cross-check.
	var (
		strategy LinkageStrategy = flowStrategy
		clusters                 = flowClusters
	)
	if p.cfg.Linkage == LinkageCounterpartyOverlap {
		strategy = overlapStrategy
		clusters = overlapClusters
	}
	result.Agreement = metrics.PartitionAgreement(flowClusters, overlapClusters)

	correlator := NewCorrelationAgent()
	result.Hits = correlator.Correlate(intel, transactions)
	result.HighValueHits = correlator.HighValueHits(p.cfg.HighValueLamports)

	result.Correlation = models.CorrelationResult{
		Clusters: clusters,
		Flags:    PropagateFlags(clusters, flags),
	}

	log.Printf("[Pipeline] run %s: %d transfers, %d clusters (%s), %d flags, %d hits (%d high-value)",
		result.RunID, len(result.Transfers), len(clusters), strategy.Name(),
		len(result.Correlation.Flags), len(result.Hits), len(result.HighValueHits))
	return result
}
