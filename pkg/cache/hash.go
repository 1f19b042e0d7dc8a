package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/matzehuels/kinboard/pkg/family"
)

// RenderKey returns the cache key for rendering snap in format with opts.
// opts must be JSON-encodable; its fields become part of the key.
func RenderKey(snap family.Snapshot, format string, opts any) string {
	return hashKey("render:"+format, snap, opts)
}

// hashKey returns prefix:sha256(json(parts)).
func hashKey(prefix string, parts ...any) string {
	data, _ := json.Marshal(parts)
	return fmt.Sprintf("%s:%s", prefix, Hash(data))
}

// Hash returns the hex SHA-256 of data.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
