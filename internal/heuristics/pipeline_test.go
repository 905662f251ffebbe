package heuristics

import (
	"reflect"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/rawblock/soltrace-engine/pkg/models"
)

func TestNewPipeline_RejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"similarity above one", func(c *Config) { c.SimilarityThreshold = 1.5 }},
		{"negative round-trip ratio", func(c *Config) { c.RoundTripRatio = decimal.NewFromInt(-1) }},
		{"hub threshold below one", func(c *Config) { c.HubThreshold = 0 }},
		{"negative high-value floor", func(c *Config) { c.HighValueLamports = -1 }},
		{"unknown linkage policy", func(c *Config) { c.Linkage = "made-up" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if _, err := NewPipeline(cfg, nil, nil); err == nil {
				t.Error("expected construction to fail")
			}
		})
	}
}

func TestPipeline_Run(t *testing.T) {
	pipeline, err := NewPipeline(DefaultConfig(), nil, nil)
	if err != nil {
		t.Fatal(err)
	}

	parsed := []models.ParsedTransaction{
		snapshotTx(models.ParsedInstruction{
			Program: "spl-token",
			Parsed: &models.InstructionDetail{
				Type: "transferChecked",
				Info: models.InstructionInfo{
					Source:      "wallet_x",
					Destination: "wallet_y",
					Mint:        "mintA",
					TokenAmount: &models.TokenAmount{Amount: "100000000", Decimals: intPtr(6)},
				},
			},
		}),
		snapshotTx(models.ParsedInstruction{
			Program: "spl-token",
			Parsed: &models.InstructionDetail{
				Type: "transferChecked",
				Info: models.InstructionInfo{
					Source:      "wallet_y",
					Destination: "wallet_z",
					Mint:        "mintA",
					TokenAmount: &models.TokenAmount{Amount: "95000000", Decimals: intPtr(6)},
				},
			},
		}),
	}
	transactions := []models.Transaction{
		{
			Signature: "sig_watched",
			Slot:      50,
			Signer:    "wallet_y",
			Accounts:  []string{"wallet_y", "wallet_z"},
			Programs:  []string{"spl-token"},
			Lamports:  3_000_000_000,
			Fee:       5000,
		},
	}
	intel := models.IntelSignal{
		Source:    "feed",
		Addresses: []string{"wallet_y"},
	}

	result := pipeline.Run(parsed, transactions, intel)

	if result.RunID == "" {
		t.Error("run id not assigned")
	}
	if len(result.Transfers) != 2 {
		t.Fatalf("expected 2 transfers, got %d", len(result.Transfers))
	}

	// wallet_y received 100 and sent back 95: round-trip at ratio 0.8.
	reasons := result.Suspicion.ByMint["mintA"]["wallet_y"]
	if !reflect.DeepEqual(reasons, []string{ReasonRoundTripFlow}) {
		t.Errorf("wallet_y reasons = %v, want [%s]", reasons, ReasonRoundTripFlow)
	}

	if len(result.Hits) != 1 || result.Hits[0].Signature != "sig_watched" {
		t.Errorf("hits = %+v", result.Hits)
	}
	if len(result.HighValueHits) != 1 {
		t.Errorf("3 SOL hit must clear the 1 SOL floor, got %d high-value hits", len(result.HighValueHits))
	}

	if _, ok := result.AccountScores["wallet_y"]; !ok {
		t.Error("wallet_y missing from account scores")
	}

	// The round-trip flag must survive into the correlation result.
	found := false
	for _, flag := range result.Correlation.Flags {
		if flag.Address == "wallet_y" && flag.Reason == ReasonRoundTripFlow {
			found = true
		}
	}
	if !found {
		t.Errorf("flattened flag missing: %+v", result.Correlation.Flags)
	}
}

func TestPipeline_RunDeterministic(t *testing.T) {
	pipeline, err := NewPipeline(DefaultConfig(), nil, nil)
	if err != nil {
		t.Fatal(err)
	}

	parsed := []models.ParsedTransaction{
		snapshotTx(models.ParsedInstruction{
			Program: "spl-token",
			Parsed: &models.InstructionDetail{
				Type: "transferChecked",
				Info: models.InstructionInfo{
					Source:      "w1",
					Destination: "w2",
					Mint:        "mintA",
					TokenAmount: &models.TokenAmount{Amount: "5000000", Decimals: intPtr(6)},
				},
			},
		}),
	}
	transactions := []models.Transaction{
		{Signature: "s1", Slot: 1, Signer: "w1", Accounts: []string{"w1", "w2"}, Lamports: 10},
	}
	intel := models.IntelSignal{Addresses: []string{"w1"}}

	first := pipeline.Run(parsed, transactions, intel)
	second := pipeline.Run(parsed, transactions, intel)

	// Everything except the run id must be identical across runs.
	first.RunID, second.RunID = "", ""
	if !reflect.DeepEqual(first, second) {
		t.Error("repeated runs over identical input diverged")
	}
}

func TestPipeline_RunCounterpartyOverlap(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Linkage = LinkageCounterpartyOverlap
	cfg.KeepSingletons = true
	pipeline, err := NewPipeline(cfg, nil, nil)
	if err != nil {
		t.Fatal(err)
	}

	transactions := []models.Transaction{
		{
			Signature: "s1",
			Slot:      1,
			Signer:    "payer",
			Accounts:  []string{"payer", "recv_a", "recv_b"},
			Programs:  []string{"system", "token"},
			Lamports:  100,
		},
		{
			Signature: "s2",
			Slot:      2,
			Signer:    "payer",
			Accounts:  []string{"payer", "recv_a", "recv_b"},
			Programs:  []string{"system", "token"},
			Lamports:  100,
		},
	}

	result := pipeline.Run(nil, transactions, models.IntelSignal{})

	// recv_a and recv_b share 200 inbound lamports and 4 program touches
	// each, so the overlap linkage must pair them; the payer (outbound
	// only) stays a singleton.
	var paired *models.AddressCluster
	for i := range result.Correlation.Clusters {
		if result.Correlation.Clusters[i].Size() == 2 {
			paired = &result.Correlation.Clusters[i]
		}
	}
	if paired == nil {
		t.Fatalf("expected a paired cluster, got %+v", result.Correlation.Clusters)
	}
	if !reflect.DeepEqual(paired.Members, []string{"recv_a", "recv_b"}) {
		t.Errorf("paired members = %v, want [recv_a recv_b]", paired.Members)
	}
}

func TestPipeline_RunEmptyInputs(t *testing.T) {
	pipeline, err := NewPipeline(DefaultConfig(), nil, nil)
	if err != nil {
		t.Fatal(err)
	}

	result := pipeline.Run(nil, nil, models.IntelSignal{})
	if len(result.Transfers) != 0 || len(result.Hits) != 0 {
		t.Errorf("empty inputs produced data: %+v", result)
	}
	if result.Correlation.Clusters == nil || result.Correlation.Flags == nil {
		t.Error("collections must be empty, not nil")
	}
}
