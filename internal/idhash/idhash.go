// Package idhash derives deterministic identifiers for journal records.
package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComputePartialExitID computes a deterministic partial_exit_id using SHA256.
// Formula: SHA256(trade_id|exit_time_ms|index)
// Returns hex-encoded hash (64 characters).
func ComputePartialExitID(tradeID string, exitTimeMs int64, index int) string {
	return hashFields(fmt.Sprintf("%s|%d|%d", tradeID, exitTimeMs, index))
}

// ComputeSnapshotID computes a deterministic snapshot_id using SHA256.
// Formula: SHA256(computed_at_ms|trade_count|partial_exit_count)
// Returns hex-encoded hash (64 characters).
func ComputeSnapshotID(computedAtMs int64, tradeCount, partialExitCount int) string {
	return hashFields(fmt.Sprintf("%d|%d|%d", computedAtMs, tradeCount, partialExitCount))
}

func hashFields(data string) string {
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
