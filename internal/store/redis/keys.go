package redis

import "fmt"

const (
	// KeyPrefix is the namespace for every key written by tokendock
	KeyPrefix = "tokendock:kv:"
)

// Key returns the Redis key for a store key
func Key(name string) string {
	return KeyPrefix + name
}

// ExtractName extracts the store key from a Redis key
func ExtractName(key string) (string, error) {
	if len(key) <= len(KeyPrefix) || key[:len(KeyPrefix)] != KeyPrefix {
		return "", fmt.Errorf("invalid store key: %s", key)
	}
	return key[len(KeyPrefix):], nil
}
