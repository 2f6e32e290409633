package cache

import (
	"crypto/sha256"
	"fmt"
	"strconv"
	"strings"
)

const keyPrefix = "mediafeed:"

// QueryKey builds the cache key for a provider query.
// The term is trimmed and lower-cased so incidental formatting differences share a slot.
// The page token is opaque and kept verbatim.
func QueryKey(scope, term string, maxResults int, pageToken string) string {
	normalized := strings.ToLower(strings.TrimSpace(term))
	joined := strings.Join([]string{normalized, strconv.Itoa(maxResults), pageToken}, "\x00")
	hash := sha256.Sum256([]byte(joined))
	return fmt.Sprintf("%squery:%s:%x", keyPrefix, scope, hash[:12])
}

// DetailKey builds the cache key for a single-item lookup.
// Provider IDs are case-sensitive, so only surrounding whitespace is removed.
func DetailKey(source, id string) string {
	return keyPrefix + "detail:" + source + ":" + strings.TrimSpace(id)
}
