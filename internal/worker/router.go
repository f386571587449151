package worker

import "hash/fnv"

// ShardFor maps a pair id to a shard index in [0, numShards) using FNV-1a,
// the same hash the original engine uses for consistent, deterministic
// routing (no rebalancing ever moves a pair's candles between shards for a
// fixed numShards). Go's standard library implements FNV-1a exactly —
// stdlib is the grounding here, not a gap: hash/fnv is the literal
// reference implementation of the algorithm this router is required to
// use, not a concern better served by a third-party dependency.
func ShardFor(pairID string, numShards int) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(pairID))
	return int(h.Sum32() % uint32(numShards))
}
