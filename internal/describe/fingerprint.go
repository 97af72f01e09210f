package describe

import (
	"crypto/sha256"
	"encoding/hex"
)

// Fingerprint derives the cache identity key for an uploaded photo.
// The key is the SHA-256 of the raw image bytes; when the caller supplied a
// manual note, a digest of the normalised note is appended so the same photo
// with different notes yields distinct cache entries.
func Fingerprint(image []byte, manual string) string {
	sum := sha256.Sum256(image)
	key := hex.EncodeToString(sum[:])
	if manual == "" {
		return key
	}
	note := sha256.Sum256([]byte(manual))
	return key + ":" + hex.EncodeToString(note[:8])
}
