package idutil

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// TurnID generates an ID for one logged turn.
// Uses session ID, provider, and the append timestamp for uniqueness.
// Format: turn_XXXXXXXX (13 chars total)
func TurnID(sessionID, provider string) string {
	data := fmt.Sprintf("%s:%s:%d", sessionID, provider, time.Now().UnixNano())
	return hashID("turn", data)
}

// RequestID generates an ID for one HTTP request, used in log lines.
// Format: req_XXXXXXXX (12 chars total)
func RequestID() string {
	return hashID("req", fmt.Sprintf("%d", time.Now().UnixNano()))
}

// hashID creates a short hash-based ID with the given prefix
// Format: {prefix}_{first 8 hex chars of SHA256}
func hashID(prefix, data string) string {
	hash := sha256.Sum256([]byte(data))
	hexHash := hex.EncodeToString(hash[:])
	// Take first 8 characters of hash for readability (still extremely collision-resistant)
	return fmt.Sprintf("%s_%s", prefix, hexHash[:8])
}

// IsValidID checks if an ID matches the expected prefix format
func IsValidID(id, prefix string) bool {
	if len(id) < len(prefix)+1 {
		return false
	}
	return id[:len(prefix)] == prefix && id[len(prefix)] == '_'
}

// ExtractPrefix extracts the prefix from an ID
func ExtractPrefix(id string) string {
	for i, c := range id {
		if c == '_' {
			return id[:i]
		}
	}
	return ""
}
