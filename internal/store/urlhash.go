package store

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NormalizeURL produces the canonical form of a source URL used for
// deduplication: Unicode NFC, lowercased scheme and host, fragment dropped,
// trailing slash trimmed. Unparseable input falls back to the trimmed,
// normalized string so hashing still yields a stable key.
func NormalizeURL(raw string) string {
	trimmed := norm.NFC.String(strings.TrimSpace(raw))
	parsed, err := url.Parse(trimmed)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return trimmed
	}
	parsed.Scheme = strings.ToLower(parsed.Scheme)
	parsed.Host = strings.ToLower(parsed.Host)
	parsed.Fragment = ""
	normalized := parsed.String()
	if strings.HasSuffix(parsed.Path, "/") && parsed.Path != "/" {
		normalized = strings.TrimSuffix(normalized, "/")
	}
	return normalized
}

// HashURL returns the hex-encoded sha256 of the normalized URL.
func HashURL(raw string) string {
	sum := sha256.Sum256([]byte(NormalizeURL(raw)))
	return hex.EncodeToString(sum[:])
}
