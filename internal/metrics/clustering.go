// Package metrics scores how well two address partitions agree. The pipeline
// uses it to cross-check the active linkage strategy against the alternate
// one: a sudden collapse in agreement on familiar data is the cheapest signal
// that a threshold change rewired the clusters.
package metrics

import (
	"math"
	"sort"

	"github.com/rawblock/soltrace-engine/pkg/models"
)

// Agreement is the pairwise comparison of two partitions. ARI ranges from -1
// to 1 (1 = identical grouping, 0 = chance level). VI is an
// information-theoretic distance; 0 means identical partitions and it grows
// as the partitions diverge.
type Agreement struct {
	AdjustedRandIndex      float64 `json:"adjustedRandIndex"`
	VariationOfInformation float64 `json:"variationOfInformation"`
}

// PartitionAgreement compares two cluster lists over the union of their
// member addresses. An address absent from one list counts as a singleton
// there, so strategies that cluster different subsets are still comparable.
func PartitionAgreement(a, b []models.AddressCluster) Agreement {
	addresses := unionMembers(a, b)
	left := labelVector(addresses, a)
	right := labelVector(addresses, b)
	return Agreement{
		AdjustedRandIndex:      AdjustedRandIndex(left, right),
		VariationOfInformation: VariationOfInformation(left, right),
	}
}

// unionMembers returns the sorted union of all member addresses.
func unionMembers(a, b []models.AddressCluster) []string {
	set := make(map[string]struct{})
	for _, cluster := range a {
		for _, member := range cluster.Members {
			set[member] = struct{}{}
		}
	}
	for _, cluster := range b {
		for _, member := range cluster.Members {
			set[member] = struct{}{}
		}
	}
	return models.SortedAddressSet(set)
}

// labelVector assigns each address its cluster index, or a fresh singleton
// label when the partition does not mention it.
func labelVector(addresses []string, clusters []models.AddressCluster) []int {
	labelOf := make(map[string]int, len(addresses))
	for i, cluster := range clusters {
		for _, member := range cluster.Members {
			labelOf[member] = i
		}
	}
	next := len(clusters)
	labels := make([]int, len(addresses))
	for i, addr := range addresses {
		label, ok := labelOf[addr]
		if !ok {
			label = next
			next++
		}
		labels[i] = label
	}
	return labels
}

// contingency is the co-occurrence table n_ij of two label vectors, with row
// and column marginals.
type contingency struct {
	n       int
	cells   [][]int
	rowSums []int
	colSums []int
}

func buildContingency(left, right []int) contingency {
	leftIdx := labelIndex(left)
	rightIdx := labelIndex(right)

	cells := make([][]int, len(leftIdx))
	for i := range cells {
		cells[i] = make([]int, len(rightIdx))
	}
	for k := range left {
		cells[leftIdx[left[k]]][rightIdx[right[k]]]++
	}

	rowSums := make([]int, len(leftIdx))
	colSums := make([]int, len(rightIdx))
	for i := range cells {
		for j := range cells[i] {
			rowSums[i] += cells[i][j]
			colSums[j] += cells[i][j]
		}
	}
	return contingency{n: len(left), cells: cells, rowSums: rowSums, colSums: colSums}
}

// labelIndex maps each distinct label to a dense index, smallest label first.
func labelIndex(labels []int) map[int]int {
	distinct := make([]int, 0)
	seen := make(map[int]struct{})
	for _, l := range labels {
		if _, ok := seen[l]; !ok {
			seen[l] = struct{}{}
			distinct = append(distinct, l)
		}
	}
	sort.Ints(distinct)
	index := make(map[int]int, len(distinct))
	for i, l := range distinct {
		index[l] = i
	}
	return index
}

// AdjustedRandIndex is the chance-corrected pair-counting agreement:
//
//	ARI = (Σ C(n_ij,2) − E) / (½(Σ C(a_i,2) + Σ C(b_j,2)) − E)
//
// with E = Σ C(a_i,2) · Σ C(b_j,2) / C(n,2). Degenerate inputs (fewer than
// two samples, mismatched lengths) return 0.
func AdjustedRandIndex(left, right []int) float64 {
	if len(left) != len(right) || len(left) < 2 {
		return 0.0
	}
	table := buildContingency(left, right)

	sumCells := 0.0
	for i := range table.cells {
		for j := range table.cells[i] {
			sumCells += comb2(table.cells[i][j])
		}
	}
	sumRows := 0.0
	for _, a := range table.rowSums {
		sumRows += comb2(a)
	}
	sumCols := 0.0
	for _, b := range table.colSums {
		sumCols += comb2(b)
	}

	pairs := comb2(table.n)
	if pairs == 0 {
		return 0.0
	}
	expected := (sumRows * sumCols) / pairs
	maximum := 0.5 * (sumRows + sumCols)
	denominator := maximum - expected
	if math.Abs(denominator) < 1e-12 {
		// Both partitions are all-singletons; they agree trivially.
		return 1.0
	}
	return (sumCells - expected) / denominator
}

// VariationOfInformation is the symmetric conditional-entropy distance
// H(L|R) + H(R|L) in bits. 0 means the partitions are identical.
func VariationOfInformation(left, right []int) float64 {
	if len(left) != len(right) || len(left) < 2 {
		return 0.0
	}
	table := buildContingency(left, right)
	nf := float64(table.n)

	vi := 0.0
	for i := range table.cells {
		for j := range table.cells[i] {
			nij := table.cells[i][j]
			if nij == 0 {
				continue
			}
			pij := float64(nij) / nf
			vi -= pij * math.Log2(float64(nij)/float64(table.colSums[j]))
			vi -= pij * math.Log2(float64(nij)/float64(table.rowSums[i]))
		}
	}
	return vi
}

// comb2 is C(n, 2).
func comb2(n int) float64 {
	if n < 2 {
		return 0
	}
	return float64(n) * float64(n-1) / 2.0
}
