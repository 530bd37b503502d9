package crypto

import (
	"encoding/hex"
	"strings"

	"github.com/zeebo/blake3"

	"github.com/tunermason/SC/internal/domain"
)

// Fingerprint returns a short hex fingerprint of a public key.
//
// It hashes with BLAKE3 and truncates to 10 bytes (20 hex chars), grouped in
// fours for reading aloud.
func Fingerprint(pub domain.PublicKey) domain.Fingerprint {
	sum := blake3.Sum256(pub[:])
	h := strings.ToUpper(hex.EncodeToString(sum[:10]))
	groups := make([]string, 0, len(h)/4)
	for i := 0; i < len(h); i += 4 {
		groups = append(groups, h[i:i+4])
	}
	return domain.Fingerprint(strings.Join(groups, "-"))
}
