// Package cluster groups EPC identifiers into compressible clusters and
// derives per-group compression metrics.
package cluster

import (
	"github.com/Hamza-Khrissi/Testing-LoRaWAN/epc"
)

// DefaultMinMatch is the default number of character positions at which
// a candidate must agree with the cluster base to join the cluster.
const DefaultMinMatch = 6

// Cluster is an ordered, non-empty list of identifiers grouped for
// joint compression.
type Cluster []epc.Identifier

// MatchCount returns the number of character positions (0..23) at which
// a and b carry the same character. Agreement counts at any position,
// not only in a leading run.
func MatchCount(a, b epc.Identifier) int {
	n := 0
	for i := 0; i < epc.HexLen && i < len(a) && i < len(b); i++ {
		if a[i] == b[i] {
			n++
		}
	}
	return n
}

// Group partitions ids into clusters. The algorithm is greedy and
// order-sensitive: the earliest ungrouped identifier becomes the base of
// the next cluster, then the remaining pool is scanned left to right and
// every candidate agreeing with the base at minMatch or more positions
// is moved into the cluster, preserving the relative order of the rest.
//
// The working set is a slice of indices into the input so the input
// slice itself is never mutated. Cost is O(n²); fine for batches in the
// thousands.
func Group(ids []epc.Identifier, minMatch int) []Cluster {
	if minMatch <= 0 {
		minMatch = DefaultMinMatch
	}

	pool := make([]int, len(ids))
	for i := range pool {
		pool[i] = i
	}

	var clusters []Cluster
	for len(pool) > 0 {
		base := ids[pool[0]]
		members := Cluster{base}
		pool = pool[1:]

		i := 0
		for i < len(pool) {
			if MatchCount(base, ids[pool[i]]) >= minMatch {
				members = append(members, ids[pool[i]])
				pool = append(pool[:i], pool[i+1:]...)
			} else {
				i++
			}
		}
		clusters = append(clusters, members)
	}
	return clusters
}
