package anchor

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
)

// Discriminator represents an 8-byte instruction discriminator
type Discriminator [8]byte

// String returns hex representation of discriminator
func (d Discriminator) String() string {
	return fmt.Sprintf("%02x%02x%02x%02x%02x%02x%02x%02x",
		d[0], d[1], d[2], d[3], d[4], d[5], d[6], d[7])
}

// Bytes returns discriminator as byte slice
func (d Discriminator) Bytes() []byte {
	return d[:]
}

// Uint64 returns the discriminator interpreted as a little-endian u64, the
// form instruction encoders embed into payloads.
func (d Discriminator) Uint64() uint64 {
	return binary.LittleEndian.Uint64(d[:])
}

// ComputeDiscriminator computes the 8-byte discriminator for a namespaced
// name: sha256("namespace:name")[0:8].
func ComputeDiscriminator(namespace, name string) Discriminator {
	input := fmt.Sprintf("%s:%s", namespace, name)
	hash := sha256.Sum256([]byte(input))

	var discriminator Discriminator
	copy(discriminator[:], hash[:8])
	return discriminator
}

// ComputeInstructionDiscriminator computes discriminator for an instruction
func ComputeInstructionDiscriminator(name string) Discriminator {
	return ComputeDiscriminator("global", name)
}

// ComputeAccountDiscriminator computes discriminator for an account
func ComputeAccountDiscriminator(name string) Discriminator {
	return ComputeDiscriminator("account", name)
}

// DiscriminatorFromBytes creates discriminator from a byte slice
func DiscriminatorFromBytes(data []byte) (Discriminator, error) {
	if len(data) < 8 {
		return Discriminator{}, fmt.Errorf("data too short for discriminator: need 8 bytes, got %d", len(data))
	}

	var discriminator Discriminator
	copy(discriminator[:], data[:8])
	return discriminator, nil
}

// ValidateDiscriminator validates that data starts with the expected
// discriminator
func ValidateDiscriminator(data []byte, expected Discriminator) error {
	actual, err := DiscriminatorFromBytes(data)
	if err != nil {
		return err
	}

	if actual != expected {
		return fmt.Errorf("discriminator mismatch: expected %s, got %s",
			expected.String(), actual.String())
	}

	return nil
}
