// Package pda derives program addresses the way the Solana runtime does,
// without depending on an RPC connection: candidate = sha256(seeds || bump ||
// programID || "ProgramDerivedAddress"), walking the bump from 255 downward
// until the digest is not a valid ed25519 curve point.
package pda

import (
	"crypto/sha256"
	"errors"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/gagliardetto/solana-go"
)

const (
	// MaxSeeds is the runtime limit on the number of seeds per derivation
	MaxSeeds = 16

	// MaxSeedLength is the runtime limit on a single seed's byte length
	MaxSeedLength = 32

	derivationMarker = "ProgramDerivedAddress"
)

// ErrDerivationExhausted is returned when no bump in [0,255] yields an
// off-curve point. Statistically this should never happen; treat it as an
// integrity failure, not a retryable condition.
var ErrDerivationExhausted = errors.New("pda: bump seed search exhausted")

// FindProgramAddress returns the first off-curve address for the given seeds
// and program, together with the bump seed that produced it. The result is a
// pure function of its inputs.
func FindProgramAddress(seeds [][]byte, programID solana.PublicKey) (solana.PublicKey, uint8, error) {
	if err := validateSeeds(seeds); err != nil {
		return solana.PublicKey{}, 0, err
	}

	for bump := 255; bump >= 0; bump-- {
		candidate, err := createProgramAddress(seeds, uint8(bump), programID)
		if err != nil {
			// On-curve candidate, try the next bump.
			continue
		}
		return candidate, uint8(bump), nil
	}

	return solana.PublicKey{}, 0, ErrDerivationExhausted
}

// CreateProgramAddress computes the address for an explicit bump, failing if
// the resulting point lies on the curve.
func CreateProgramAddress(seeds [][]byte, bump uint8, programID solana.PublicKey) (solana.PublicKey, error) {
	if err := validateSeeds(seeds); err != nil {
		return solana.PublicKey{}, err
	}
	return createProgramAddress(seeds, bump, programID)
}

func createProgramAddress(seeds [][]byte, bump uint8, programID solana.PublicKey) (solana.PublicKey, error) {
	h := sha256.New()
	for _, seed := range seeds {
		h.Write(seed)
	}
	h.Write([]byte{bump})
	h.Write(programID.Bytes())
	h.Write([]byte(derivationMarker))

	var digest [32]byte
	copy(digest[:], h.Sum(nil))

	if isOnCurve(digest[:]) {
		return solana.PublicKey{}, fmt.Errorf("pda: candidate for bump %d is on curve", bump)
	}

	return solana.PublicKeyFromBytes(digest[:]), nil
}

func validateSeeds(seeds [][]byte) error {
	if len(seeds) > MaxSeeds {
		return fmt.Errorf("pda: too many seeds: %d (max %d)", len(seeds), MaxSeeds)
	}
	for i, seed := range seeds {
		if len(seed) > MaxSeedLength {
			return fmt.Errorf("pda: seed %d too long: %d bytes (max %d)", i, len(seed), MaxSeedLength)
		}
	}
	return nil
}

// isOnCurve reports whether the 32 bytes decode to a valid ed25519 point.
// Program-derived addresses must NOT be valid points, so they can never have
// a corresponding private key.
func isOnCurve(point []byte) bool {
	if len(point) != 32 {
		return false
	}
	_, err := new(edwards25519.Point).SetBytes(point)
	return err == nil
}
