package analytics

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash/fnv"
)

// Fingerprint identifies an anonymous visitor by address and browser.
// It is a salted 64-bit FNV-1a hash, so it is stable across requests but is
// not a cryptographic commitment and must not be used for authentication.
func Fingerprint(salt, ip, userAgent string) string {
	h := fnv.New64a()
	h.Write([]byte(salt))
	h.Write([]byte{'|'})
	h.Write([]byte(ip))
	h.Write([]byte{'|'})
	h.Write([]byte(userAgent))
	return fmt.Sprintf("%016x", h.Sum64())
}

// HashIP hashes an IP address for log lines (consistent per IP).
func HashIP(salt, ip string) string {
	sum := sha256.Sum256([]byte(ip + salt))
	return hex.EncodeToString(sum[:])[:16]
}
