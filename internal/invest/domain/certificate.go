package domain

import (
	"fmt"
	"math/rand/v2"
	"time"
)

const certificatePrefix = "OKI"

// NewCertificateNumber issues a human-facing certificate identifier in the
// form OKI-YYYY-NNNNNN, e.g. OKI-2025-004821. Uniqueness is enforced by the
// datastore's unique index; collisions within a year are a 1-in-a-million
// insert failure surfaced as a persistence error.
func NewCertificateNumber(now time.Time) string {
	return fmt.Sprintf("%s-%04d-%06d", certificatePrefix, now.Year(), rand.IntN(1_000_000))
}
