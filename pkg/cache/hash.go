package cache

import (
	"encoding/hex"
	"encoding/json"

	"lukechampine.com/blake3"

	"github.com/shaderflow/shaderflow/pkg/errors"
)

// Hash returns the hex-encoded blake3 digest of data.
func Hash(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// hashKey builds a namespaced cache key by hashing the canonical JSON of
// parts: "<prefix>:<digest>".
func hashKey(prefix string, parts ...any) (string, error) {
	data, err := json.Marshal(parts)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "hash cache key")
	}
	return prefix + ":" + Hash(data), nil
}
