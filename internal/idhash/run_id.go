package idhash

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// ComputeRunID computes a deterministic repricing run_id.
// Formula: KECCAK256(anchor_pair|strategy|timestamp_ms)
// Returns 0x-prefixed hex-encoded hash (66 characters).
func ComputeRunID(anchorPair common.Address, strategy string, timestampMs int64) string {
	data := fmt.Sprintf("%s|%s|%d",
		anchorPair.Hex(),
		strategy,
		timestampMs,
	)

	return crypto.Keccak256Hash([]byte(data)).Hex()
}
