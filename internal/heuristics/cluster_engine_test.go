package heuristics

import (
	"reflect"
	"testing"
)

func TestClusterEngine_Transitivity(t *testing.T) {
	ce := NewClusterEngine()
	ce.Union("a", "b")
	ce.Union("b", "c")

	if ce.Find("a") != ce.Find("c") {
		t.Error("expected find(a) == find(c) after a∪b and b∪c")
	}
	if ce.ClusterSize("a") != 3 {
		t.Errorf("expected cluster size 3, got %d", ce.ClusterSize("a"))
	}
}

func TestClusterEngine_LazyRegistration(t *testing.T) {
	ce := NewClusterEngine()

	if root := ce.Find("fresh"); root != "fresh" {
		t.Errorf("expected singleton root to be itself, got %q", root)
	}
	if ce.TotalAddresses() != 1 {
		t.Errorf("expected 1 registered address, got %d", ce.TotalAddresses())
	}
	if ce.ClusterSize("fresh") != 1 {
		t.Errorf("expected singleton size 1, got %d", ce.ClusterSize("fresh"))
	}
}

func TestClusterEngine_UnionReturnsFalseForSameCluster(t *testing.T) {
	ce := NewClusterEngine()
	if !ce.Union("a", "b") {
		t.Error("first union must merge")
	}
	if ce.Union("a", "b") {
		t.Error("second union of same pair must be a no-op")
	}
	if ce.Union("b", "a") {
		t.Error("reversed union of same pair must be a no-op")
	}
}

func TestClusterEngine_EqualSizeTieBreak(t *testing.T) {
	ce := NewClusterEngine()
	// Both singletons: the first argument's root must become the parent.
	ce.Union("second", "first")
	if root := ce.Find("first"); root != "second" {
		t.Errorf("expected tie-break to keep first-argument root, got %q", root)
	}

	// Two 2-clusters of equal size: same rule at cluster scale.
	ce2 := NewClusterEngine()
	ce2.Union("a", "b")
	ce2.Union("c", "d")
	ce2.Union("c", "a")
	if root := ce2.Find("b"); root != ce2.Find("c") {
		t.Fatal("clusters not merged")
	}
	if root := ce2.Find("a"); root != "c" {
		t.Errorf("expected root c after equal-size merge, got %q", root)
	}
}

func TestClusterEngine_UnionBySize(t *testing.T) {
	ce := NewClusterEngine()
	ce.Union("a", "b")
	ce.Union("a", "c") // {a,b,c} rooted at a
	ce.Union("x", "a") // smaller {x} goes under the larger root despite arg order

	if root := ce.Find("x"); root != "a" {
		t.Errorf("expected smaller set repointed under larger root a, got %q", root)
	}
	if ce.ClusterSize("x") != 4 {
		t.Errorf("expected size 4, got %d", ce.ClusterSize("x"))
	}
}

func TestClusterEngine_GroupsPartition(t *testing.T) {
	ce := NewClusterEngine()
	ce.Union("a", "b")
	ce.Union("c", "d")
	ce.Add("lone")

	groups := ce.Groups()
	want := [][]string{{"a", "b"}, {"c", "d"}, {"lone"}}
	if !reflect.DeepEqual(groups, want) {
		t.Errorf("groups = %v, want %v", groups, want)
	}

	// Partition invariant: every address in exactly one group.
	seen := make(map[string]int)
	for _, group := range groups {
		for _, addr := range group {
			seen[addr]++
		}
	}
	if len(seen) != ce.TotalAddresses() {
		t.Errorf("partition covers %d addresses, engine has %d", len(seen), ce.TotalAddresses())
	}
	for addr, count := range seen {
		if count != 1 {
			t.Errorf("address %s appears in %d groups", addr, count)
		}
	}
	if ce.TotalClusters() != 3 {
		t.Errorf("expected 3 clusters, got %d", ce.TotalClusters())
	}
}
