package metrics

import (
	"math"
	"testing"

	"github.com/rawblock/soltrace-engine/pkg/models"
)

func TestAdjustedRandIndex(t *testing.T) {
	tests := []struct {
		name  string
		left  []int
		right []int
		want  float64
		slack float64
	}{
		{
			name:  "identical partitions",
			left:  []int{0, 0, 1, 1, 2, 2},
			right: []int{0, 0, 1, 1, 2, 2},
			want:  1.0,
			slack: 0.01,
		},
		{
			name:  "relabeled but same grouping",
			left:  []int{0, 0, 1, 1},
			right: []int{7, 7, 3, 3},
			want:  1.0,
			slack: 0.01,
		},
		{
			name:  "degenerate input",
			left:  []int{0},
			right: []int{0},
			want:  0.0,
			slack: 0.0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AdjustedRandIndex(tt.left, tt.right)
			if math.Abs(got-tt.want) > tt.slack {
				t.Errorf("ARI = %f, want %f", got, tt.want)
			}
		})
	}
}

func TestAdjustedRandIndex_Dissimilar(t *testing.T) {
	left := []int{0, 0, 0, 1, 1, 1}
	right := []int{0, 1, 0, 1, 0, 1}
	if ari := AdjustedRandIndex(left, right); ari > 0.5 {
		t.Errorf("crossed partitions should score near 0, got %f", ari)
	}
}

func TestVariationOfInformation(t *testing.T) {
	same := []int{0, 0, 1, 1, 2, 2}
	if vi := VariationOfInformation(same, same); vi > 0.01 {
		t.Errorf("identical partitions should have VI 0, got %f", vi)
	}

	left := []int{0, 0, 0, 1, 1, 1}
	right := []int{0, 1, 0, 1, 0, 1}
	if vi := VariationOfInformation(left, right); vi < 0.1 {
		t.Errorf("divergent partitions should have positive VI, got %f", vi)
	}
}

func TestPartitionAgreement(t *testing.T) {
	flow := []models.AddressCluster{
		{Members: []string{"a", "b"}},
		{Members: []string{"c", "d"}},
	}
	overlap := []models.AddressCluster{
		{Members: []string{"a", "b"}},
		{Members: []string{"c", "d"}},
	}

	agreement := PartitionAgreement(flow, overlap)
	if math.Abs(agreement.AdjustedRandIndex-1.0) > 0.01 {
		t.Errorf("identical cluster lists: ARI = %f", agreement.AdjustedRandIndex)
	}
	if agreement.VariationOfInformation > 0.01 {
		t.Errorf("identical cluster lists: VI = %f", agreement.VariationOfInformation)
	}
}

func TestPartitionAgreement_MissingAddressesAreSingletons(t *testing.T) {
	flow := []models.AddressCluster{
		{Members: []string{"a", "b"}},
	}
	overlap := []models.AddressCluster{
		{Members: []string{"a", "b"}},
		{Members: []string{"x"}},
	}

	// x is a singleton on both sides once the union is taken, so the
	// partitions still agree perfectly.
	agreement := PartitionAgreement(flow, overlap)
	if math.Abs(agreement.AdjustedRandIndex-1.0) > 0.01 {
		t.Errorf("ARI = %f, want 1.0", agreement.AdjustedRandIndex)
	}
}

func TestPartitionAgreement_Disagreement(t *testing.T) {
	flow := []models.AddressCluster{
		{Members: []string{"a", "b", "c", "d"}},
	}
	overlap := []models.AddressCluster{
		{Members: []string{"a", "c"}},
		{Members: []string{"b", "d"}},
	}

	agreement := PartitionAgreement(flow, overlap)
	if agreement.AdjustedRandIndex > 0.5 {
		t.Errorf("split clusters should disagree, ARI = %f", agreement.AdjustedRandIndex)
	}
	if agreement.VariationOfInformation < 0.1 {
		t.Errorf("split clusters should have positive VI, got %f", agreement.VariationOfInformation)
	}
}
