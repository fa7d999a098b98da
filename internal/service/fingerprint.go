package service

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/magnus-flipper/sniper-service/internal/domain/entity"
)

// ComputeFingerprint hashes the identity triple (external ID, price, UTC
// observation day) that decides whether two observations are the same. Title
// or thumbnail edits do not change the fingerprint; a price change does. The
// hash carries no salt and depends on no map ordering, so it is stable
// across processes and restarts.
func ComputeFingerprint(listing entity.Listing) string {
	unique := fmt.Sprintf("%s|%.2f|%s", listing.ExternalID, listing.Price, listing.ObservationDay())
	sum := sha256.Sum256([]byte(unique))
	return hex.EncodeToString(sum[:])
}
