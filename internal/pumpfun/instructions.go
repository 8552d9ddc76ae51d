package pumpfun

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"pump-fun-launcher-go/internal/config"
	"pump-fun-launcher-go/pkg/anchor"

	"github.com/gagliardetto/solana-go"
)

// ErrFieldTooLarge is returned when a field does not fit its declared wire
// width (strings are limited by their 4-byte length prefix).
var ErrFieldTooLarge = errors.New("pumpfun: field exceeds declared width")

// CreateArgs are the arguments of the create instruction, in wire order
type CreateArgs struct {
	Name    string
	Symbol  string
	URI     string
	Creator solana.PublicKey
}

// BuyArgs are the arguments of the buy instruction
type BuyArgs struct {
	TokenAmount uint64 // tokens requested
	MaxSolCost  uint64 // slippage bound, enforced on-chain
}

// SellArgs are the arguments of the sell instruction
type SellArgs struct {
	TokenAmount  uint64 // tokens to dispose of
	MinSolOutput uint64 // slippage bound, enforced on-chain
}

// EncodeCreate serializes create arguments: 8-byte discriminator, three
// length-prefixed UTF-8 strings, then 32 raw creator bytes.
func EncodeCreate(args CreateArgs) ([]byte, error) {
	buf := new(bytes.Buffer)
	writeU64(buf, config.CreateInstructionDiscriminator)

	for _, s := range []string{args.Name, args.Symbol, args.URI} {
		if err := writeString(buf, s); err != nil {
			return nil, err
		}
	}
	buf.Write(args.Creator.Bytes())

	return buf.Bytes(), nil
}

// DecodeCreate is the inverse of EncodeCreate
func DecodeCreate(data []byte) (CreateArgs, error) {
	if err := validateDiscriminator(data, config.CreateInstructionDiscriminator); err != nil {
		return CreateArgs{}, err
	}

	args := CreateArgs{}
	offset := 8
	var err error

	if args.Name, offset, err = readString(data, offset); err != nil {
		return CreateArgs{}, fmt.Errorf("create name: %w", err)
	}
	if args.Symbol, offset, err = readString(data, offset); err != nil {
		return CreateArgs{}, fmt.Errorf("create symbol: %w", err)
	}
	if args.URI, offset, err = readString(data, offset); err != nil {
		return CreateArgs{}, fmt.Errorf("create uri: %w", err)
	}

	if len(data) < offset+32 {
		return CreateArgs{}, fmt.Errorf("create creator: insufficient data")
	}
	args.Creator = solana.PublicKeyFromBytes(data[offset : offset+32])

	return args, nil
}

// EncodeBuy serializes buy arguments: discriminator then two u64 fields.
// Fixed-width integers always fit, so encoding cannot fail.
func EncodeBuy(args BuyArgs) []byte {
	buf := new(bytes.Buffer)
	writeU64(buf, config.BuyInstructionDiscriminator)
	writeU64(buf, args.TokenAmount)
	writeU64(buf, args.MaxSolCost)
	return buf.Bytes()
}

// DecodeBuy is the inverse of EncodeBuy
func DecodeBuy(data []byte) (BuyArgs, error) {
	if err := validateDiscriminator(data, config.BuyInstructionDiscriminator); err != nil {
		return BuyArgs{}, err
	}
	if len(data) < 24 {
		return BuyArgs{}, fmt.Errorf("buy payload too short: %d bytes", len(data))
	}

	return BuyArgs{
		TokenAmount: binary.LittleEndian.Uint64(data[8:16]),
		MaxSolCost:  binary.LittleEndian.Uint64(data[16:24]),
	}, nil
}

// EncodeSell serializes sell arguments: discriminator then two u64 fields
func EncodeSell(args SellArgs) []byte {
	buf := new(bytes.Buffer)
	writeU64(buf, config.SellInstructionDiscriminator)
	writeU64(buf, args.TokenAmount)
	writeU64(buf, args.MinSolOutput)
	return buf.Bytes()
}

// DecodeSell is the inverse of EncodeSell
func DecodeSell(data []byte) (SellArgs, error) {
	if err := validateDiscriminator(data, config.SellInstructionDiscriminator); err != nil {
		return SellArgs{}, err
	}
	if len(data) < 24 {
		return SellArgs{}, fmt.Errorf("sell payload too short: %d bytes", len(data))
	}

	return SellArgs{
		TokenAmount:  binary.LittleEndian.Uint64(data[8:16]),
		MinSolOutput: binary.LittleEndian.Uint64(data[16:24]),
	}, nil
}

func writeU64(buf *bytes.Buffer, v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	buf.Write(b[:])
}

func writeString(buf *bytes.Buffer, s string) error {
	if len(s) > math.MaxUint32 {
		return ErrFieldTooLarge
	}
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], uint32(len(s)))
	buf.Write(b[:])
	buf.WriteString(s)
	return nil
}

func readString(data []byte, offset int) (string, int, error) {
	if len(data) < offset+4 {
		return "", 0, fmt.Errorf("insufficient data for string length")
	}
	length := int(binary.LittleEndian.Uint32(data[offset : offset+4]))
	offset += 4

	if len(data) < offset+length {
		return "", 0, fmt.Errorf("insufficient data for string of length %d", length)
	}
	return string(data[offset : offset+length]), offset + length, nil
}

func validateDiscriminator(data []byte, expected uint64) error {
	var want anchor.Discriminator
	binary.LittleEndian.PutUint64(want[:], expected)
	return anchor.ValidateDiscriminator(data, want)
}

// NewCreateInstruction builds the create instruction. The account order and
// signer/writable flags below are the program's wire contract; any deviation
// is rejected by the network, so they must match the IDL exactly.
func NewCreateInstruction(args CreateArgs, addrs *DerivedAddresses, mint, user solana.PublicKey) (solana.Instruction, error) {
	data, err := EncodeCreate(args)
	if err != nil {
		return nil, err
	}

	accounts := []*solana.AccountMeta{
		{PublicKey: mint, IsWritable: true, IsSigner: true},                              // 0: mint
		{PublicKey: config.PumpFunMintAuthority, IsWritable: false, IsSigner: false},     // 1: mintAuthority
		{PublicKey: addrs.BondingCurve, IsWritable: true, IsSigner: false},               // 2: bondingCurve
		{PublicKey: addrs.AssociatedBondingCurve, IsWritable: true, IsSigner: false},     // 3: associatedBondingCurve
		{PublicKey: config.PumpFunGlobal, IsWritable: false, IsSigner: false},            // 4: global
		{PublicKey: config.MetadataProgramID, IsWritable: false, IsSigner: false},        // 5: mplTokenMetadata
		{PublicKey: addrs.Metadata, IsWritable: true, IsSigner: false},                   // 6: metadata
		{PublicKey: user, IsWritable: true, IsSigner: true},                              // 7: user
		{PublicKey: config.SystemProgramID, IsWritable: false, IsSigner: false},          // 8: systemProgram
		{PublicKey: config.TokenProgramID, IsWritable: false, IsSigner: false},           // 9: tokenProgram
		{PublicKey: config.AssociatedTokenProgramID, IsWritable: false, IsSigner: false}, // 10: associatedTokenProgram
		{PublicKey: config.RentSysvarID, IsWritable: false, IsSigner: false},             // 11: rent
		{PublicKey: addrs.EventAuthority, IsWritable: false, IsSigner: false},            // 12: eventAuthority
		{PublicKey: config.PumpFunProgramID, IsWritable: false, IsSigner: false},         // 13: program
	}

	return solana.NewInstruction(config.PumpFunProgramID, accounts, data), nil
}

// NewBuyInstruction builds the buy instruction
func NewBuyInstruction(args BuyArgs, addrs *DerivedAddresses, mint, user solana.PublicKey) solana.Instruction {
	accounts := []*solana.AccountMeta{
		{PublicKey: config.PumpFunGlobal, IsWritable: false, IsSigner: false},            // 0: global
		{PublicKey: config.PumpFunFeeRecipient, IsWritable: true, IsSigner: false},       // 1: feeRecipient
		{PublicKey: mint, IsWritable: false, IsSigner: false},                            // 2: mint
		{PublicKey: addrs.BondingCurve, IsWritable: true, IsSigner: false},               // 3: bondingCurve
		{PublicKey: addrs.AssociatedBondingCurve, IsWritable: true, IsSigner: false},     // 4: associatedBondingCurve
		{PublicKey: addrs.UserTokenAccount, IsWritable: true, IsSigner: false},           // 5: associatedUser
		{PublicKey: user, IsWritable: true, IsSigner: true},                              // 6: user
		{PublicKey: config.SystemProgramID, IsWritable: false, IsSigner: false},          // 7: systemProgram
		{PublicKey: addrs.CreatorVault, IsWritable: true, IsSigner: false},               // 8: creatorVault
		{PublicKey: config.TokenProgramID, IsWritable: false, IsSigner: false},           // 9: tokenProgram
		{PublicKey: addrs.EventAuthority, IsWritable: false, IsSigner: false},            // 10: eventAuthority
		{PublicKey: config.PumpFunProgramID, IsWritable: false, IsSigner: false},         // 11: program
		{PublicKey: addrs.GlobalVolumeAccumulator, IsWritable: true, IsSigner: false},    // 12: globalVolumeAccumulator
		{PublicKey: addrs.UserVolumeAccumulator, IsWritable: true, IsSigner: false},      // 13: userVolumeAccumulator
		{PublicKey: addrs.FeeConfig, IsWritable: false, IsSigner: false},                 // 14: feeConfig
		{PublicKey: config.PumpFunFeeProgramID, IsWritable: false, IsSigner: false},      // 15: feeProgram
	}

	return solana.NewInstruction(config.PumpFunProgramID, accounts, EncodeBuy(args))
}

// NewSellInstruction builds the sell instruction. Same account list as buy
// minus the volume accumulators.
func NewSellInstruction(args SellArgs, addrs *DerivedAddresses, mint, user solana.PublicKey) solana.Instruction {
	accounts := []*solana.AccountMeta{
		{PublicKey: config.PumpFunGlobal, IsWritable: false, IsSigner: false},        // 0: global
		{PublicKey: config.PumpFunFeeRecipient, IsWritable: true, IsSigner: false},   // 1: feeRecipient
		{PublicKey: mint, IsWritable: false, IsSigner: false},                        // 2: mint
		{PublicKey: addrs.BondingCurve, IsWritable: true, IsSigner: false},           // 3: bondingCurve
		{PublicKey: addrs.AssociatedBondingCurve, IsWritable: true, IsSigner: false}, // 4: associatedBondingCurve
		{PublicKey: addrs.UserTokenAccount, IsWritable: true, IsSigner: false},       // 5: associatedUser
		{PublicKey: user, IsWritable: true, IsSigner: true},                          // 6: user
		{PublicKey: config.SystemProgramID, IsWritable: false, IsSigner: false},      // 7: systemProgram
		{PublicKey: addrs.CreatorVault, IsWritable: true, IsSigner: false},           // 8: creatorVault
		{PublicKey: config.TokenProgramID, IsWritable: false, IsSigner: false},       // 9: tokenProgram
		{PublicKey: addrs.EventAuthority, IsWritable: false, IsSigner: false},        // 10: eventAuthority
		{PublicKey: config.PumpFunProgramID, IsWritable: false, IsSigner: false},     // 11: program
		{PublicKey: addrs.FeeConfig, IsWritable: false, IsSigner: false},             // 12: feeConfig
		{PublicKey: config.PumpFunFeeProgramID, IsWritable: false, IsSigner: false},  // 13: feeProgram
	}

	return solana.NewInstruction(config.PumpFunProgramID, accounts, EncodeSell(args))
}

// NewCreateTokenAccountIdempotentInstruction builds the associated token
// program's create-idempotent instruction (tag byte 1): creates the account
// only if it does not already exist.
func NewCreateTokenAccountIdempotentInstruction(payer, tokenAccount, owner, mint solana.PublicKey) solana.Instruction {
	accounts := []*solana.AccountMeta{
		{PublicKey: payer, IsWritable: true, IsSigner: true},
		{PublicKey: tokenAccount, IsWritable: true, IsSigner: false},
		{PublicKey: owner, IsWritable: false, IsSigner: false},
		{PublicKey: mint, IsWritable: false, IsSigner: false},
		{PublicKey: config.SystemProgramID, IsWritable: false, IsSigner: false},
		{PublicKey: config.TokenProgramID, IsWritable: false, IsSigner: false},
	}

	return solana.NewInstruction(config.AssociatedTokenProgramID, accounts, []byte{1})
}
