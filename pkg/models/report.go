package models

// SuspicionFlag marks one address with one human-readable reason. Flags are
// not deduplicated by content; insertion order is the display order.
type SuspicionFlag struct {
	Address string `json:"address"`
	Reason  string `json:"reason"`
}

// AddressCluster is one discovered entity cluster. Members are sorted and an
// address belongs to at most one cluster per run.
type AddressCluster struct {
	Members []string `json:"members"`
	Score   float64  `json:"score"`
}

// Size returns the member count.
func (c AddressCluster) Size() int { return len(c.Members) }

// Contains reports whether addr is a member. Members are sorted, so a linear
// scan is fine for the cluster sizes this engine sees.
func (c AddressCluster) Contains(addr string) bool {
	for _, m := range c.Members {
		if m == addr {
			return true
		}
	}
	return false
}

// CorrelationHit records one transaction whose participants intersect the
// consolidated intel address set.
type CorrelationHit struct {
	Signature    string   `json:"signature"`
	Slot         uint64   `json:"slot"`
	HitAddresses []string `json:"hitAddresses"` // Sorted overlap
	Lamports     int64    `json:"lamports"`
	Programs     []string `json:"programs"`
}

// CorrelationResult is the propagated, final view of one pipeline run:
// the cluster list plus the original flags with cluster-proximity flags
// appended. Transient; not retained across runs.
type CorrelationResult struct {
	Clusters []AddressCluster `json:"clusters"`
	Flags    []SuspicionFlag  `json:"flags"`
}

// IntelSignal is one normalized off-chain intelligence record: indicators
// extracted from a raw feed payload by the intel layer.
type IntelSignal struct {
	Source    string   `json:"source"`
	Addresses []string `json:"addresses"`
	Links     []string `json:"links"`
	Summary   string   `json:"summary"`
}
