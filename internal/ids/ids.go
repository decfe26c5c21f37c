package ids

import (
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/segmentio/ksuid"
)

// New returns an opaque, URL-safe session identifier.
func New() string {
	return ksuid.New().String()
}

// VerificationCode returns a random 6-digit numeric code in [100000, 999999].
func VerificationCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%d", n.Int64()+100000), nil
}
