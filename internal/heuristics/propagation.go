package heuristics

import "github.com/rawblock/soltrace-engine/pkg/models"

// Cluster Flag Propagation
//
// Risk spreads exactly one hop: if a cluster contains a flagged address,
// every other member that is not already flagged receives a
// cluster-proximity flag. Propagation never cascades — newly flagged
// members do not re-trigger their own clusters, and nothing crosses a
// cluster boundary. Since an address belongs to at most one cluster per
// run, a single pass over the cluster list is complete.

// PropagateFlags returns the original flags with cluster-proximity flags
// appended, in cluster order then member order. The input slice is not
// mutated.
func PropagateFlags(clusters []models.AddressCluster, flags []models.SuspicionFlag) []models.SuspicionFlag {
	flagged := make(map[string]struct{}, len(flags))
	for _, flag := range flags {
		flagged[flag.Address] = struct{}{}
	}

	out := make([]models.SuspicionFlag, len(flags), len(flags)+8)
	copy(out, flags)

	for _, cluster := range clusters {
		hasFlagged := false
		for _, member := range cluster.Members {
			if _, ok := flagged[member]; ok {
				hasFlagged = true
				break
			}
		}
		if !hasFlagged {
			continue
		}
		for _, member := range cluster.Members {
			if _, ok := flagged[member]; ok {
				continue
			}
			out = append(out, models.SuspicionFlag{
				Address: member,
				Reason:  ReasonClusterProximity,
			})
		}
	}
	return out
}
