package pumpfun

import (
	"fmt"

	"pump-fun-launcher-go/internal/config"
	"pump-fun-launcher-go/pkg/pda"

	"github.com/gagliardetto/solana-go"
)

// DerivedAddresses is the full PDA set a launch needs. It is a pure function
// of (mint, creator) and is computed once per request, never mutated.
type DerivedAddresses struct {
	BondingCurve            solana.PublicKey
	AssociatedBondingCurve  solana.PublicKey
	Metadata                solana.PublicKey
	CreatorVault            solana.PublicKey
	GlobalVolumeAccumulator solana.PublicKey
	UserVolumeAccumulator   solana.PublicKey
	EventAuthority          solana.PublicKey
	FeeConfig               solana.PublicKey
	UserTokenAccount        solana.PublicKey

	BondingCurveBump uint8
}

// DeriveAddresses computes every program-derived address for a token launch.
// creator is the funding wallet, which both creates the token and holds the
// initial buy.
func DeriveAddresses(mint, creator solana.PublicKey) (*DerivedAddresses, error) {
	addrs := &DerivedAddresses{}

	bondingCurve, bump, err := pda.FindProgramAddress(
		[][]byte{[]byte(config.SeedBondingCurve), mint.Bytes()},
		config.PumpFunProgramID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to derive bonding curve: %w", err)
	}
	addrs.BondingCurve = bondingCurve
	addrs.BondingCurveBump = bump

	addrs.AssociatedBondingCurve, err = deriveTokenAccount(bondingCurve, mint)
	if err != nil {
		return nil, fmt.Errorf("failed to derive associated bonding curve: %w", err)
	}

	addrs.UserTokenAccount, err = deriveTokenAccount(creator, mint)
	if err != nil {
		return nil, fmt.Errorf("failed to derive user token account: %w", err)
	}

	addrs.Metadata, _, err = pda.FindProgramAddress(
		[][]byte{[]byte(config.SeedMetadata), config.MetadataProgramID.Bytes(), mint.Bytes()},
		config.MetadataProgramID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to derive metadata account: %w", err)
	}

	addrs.CreatorVault, _, err = pda.FindProgramAddress(
		[][]byte{[]byte(config.SeedCreatorVault), creator.Bytes()},
		config.PumpFunProgramID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to derive creator vault: %w", err)
	}

	addrs.GlobalVolumeAccumulator, _, err = pda.FindProgramAddress(
		[][]byte{[]byte(config.SeedGlobalVolumeAccumulator)},
		config.PumpFunProgramID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to derive global volume accumulator: %w", err)
	}

	addrs.UserVolumeAccumulator, _, err = pda.FindProgramAddress(
		[][]byte{[]byte(config.SeedUserVolumeAccumulator), creator.Bytes()},
		config.PumpFunProgramID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to derive user volume accumulator: %w", err)
	}

	addrs.EventAuthority, _, err = pda.FindProgramAddress(
		[][]byte{[]byte(config.SeedEventAuthority)},
		config.PumpFunProgramID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to derive event authority: %w", err)
	}

	addrs.FeeConfig, _, err = pda.FindProgramAddress(
		[][]byte{[]byte(config.SeedFeeConfig), config.PumpFunProgramID.Bytes()},
		config.PumpFunFeeProgramID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to derive fee config: %w", err)
	}

	return addrs, nil
}

// deriveTokenAccount derives the associated token account for (owner, mint):
// seeds owner || tokenProgram || mint against the associated token program.
func deriveTokenAccount(owner, mint solana.PublicKey) (solana.PublicKey, error) {
	addr, _, err := pda.FindProgramAddress(
		[][]byte{owner.Bytes(), config.TokenProgramID.Bytes(), mint.Bytes()},
		config.AssociatedTokenProgramID,
	)
	return addr, err
}
