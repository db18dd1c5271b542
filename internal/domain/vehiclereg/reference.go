package vehiclereg

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	"time"
)

// ReferencePrefix starts every public reference code
const ReferencePrefix = "VREG"

// ReferenceSuffixLength is the number of random characters after the year
const ReferenceSuffixLength = 12

// MaxReferenceAttempts bounds the collision-retry loop when allocating a
// unique reference code
const MaxReferenceAttempts = 10

// referenceAlphabet excludes 0/O and 1/I so codes survive being read out
// over the phone and copied from paper forms.
const referenceAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// TrackingPIN is the shared PIN printed on the submission receipt. Public
// status tracking requires it alongside the reference code.
const TrackingPIN = "12345"

// GenerateReferenceCode produces a candidate reference code of the form
// VREG-YYYY-XXXXXXXXXXXX using a cryptographically secure random source.
// Uniqueness is not guaranteed here; callers must check the repository and
// retry on collision.
func GenerateReferenceCode(now time.Time) (string, error) {
	max := big.NewInt(int64(len(referenceAlphabet)))
	suffix := make([]byte, ReferenceSuffixLength)
	for i := range suffix {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("read random: %w", err)
		}
		suffix[i] = referenceAlphabet[n.Int64()]
	}
	return fmt.Sprintf("%s-%d-%s", ReferencePrefix, now.Year(), suffix), nil
}

// VerifyTrackingPIN compares a supplied PIN against the tracking PIN in
// constant time
func VerifyTrackingPIN(pin string) bool {
	return subtle.ConstantTimeCompare([]byte(pin), []byte(TrackingPIN)) == 1
}
