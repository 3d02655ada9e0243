package daily

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"time"
)

// DateKey returns YYYY-MM-DD in UTC.
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// Seed returns a deterministic seed for the UTC day of t using
// HMAC(salt, YYYY-MM-DD). Every moment of the same UTC day maps to the same
// seed; changing the salt reshuffles every day.
func Seed(t time.Time, salt string) int64 {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(DateKey(t)))
	sum := h.Sum(nil)
	// first 8 bytes, top bit cleared so the seed stays non-negative
	return int64(binary.BigEndian.Uint64(sum[:8]) >> 1)
}
