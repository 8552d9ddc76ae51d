package pumpfun

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"

	"pump-fun-launcher-go/pkg/anchor"
)

// ErrInvalidReserves is returned for quotes against a curve with non-positive
// virtual reserves.
var ErrInvalidReserves = errors.New("pumpfun: curve has invalid reserves")

// BondingCurveState is the decoded on-chain bonding curve account. Quotes use
// it as a read-only snapshot; the real reserves may move before submission,
// which the program's own slippage bound absorbs.
type BondingCurveState struct {
	VirtualTokenReserves uint64
	VirtualSolReserves   uint64
	RealTokenReserves    uint64
	RealSolReserves      uint64
	TokenTotalSupply     uint64
	Complete             bool
}

// bonding curve account layout: 8-byte discriminator + five u64 + bool
const bondingCurveAccountSize = 8 + 5*8 + 1

var bondingCurveDiscriminator = anchor.ComputeAccountDiscriminator("BondingCurve")

// ParseBondingCurveState decodes a bonding curve account's binary data. The
// account discriminator is checked so a wrong or reallocated address cannot
// be misread as curve state.
func ParseBondingCurveState(data []byte) (*BondingCurveState, error) {
	if len(data) < bondingCurveAccountSize {
		return nil, fmt.Errorf("invalid bonding curve data length: %d", len(data))
	}
	if err := anchor.ValidateDiscriminator(data, bondingCurveDiscriminator); err != nil {
		return nil, fmt.Errorf("not a bonding curve account: %w", err)
	}

	state := &BondingCurveState{}
	offset := 8 // skip discriminator

	state.VirtualTokenReserves = binary.LittleEndian.Uint64(data[offset : offset+8])
	offset += 8
	state.VirtualSolReserves = binary.LittleEndian.Uint64(data[offset : offset+8])
	offset += 8
	state.RealTokenReserves = binary.LittleEndian.Uint64(data[offset : offset+8])
	offset += 8
	state.RealSolReserves = binary.LittleEndian.Uint64(data[offset : offset+8])
	offset += 8
	state.TokenTotalSupply = binary.LittleEndian.Uint64(data[offset : offset+8])
	offset += 8
	state.Complete = data[offset] != 0

	return state, nil
}

// QuoteBuy computes the maximum tokens obtainable for solIn lamports under
// the constant-product invariant, net of a proportional fee taken before the
// swap:
//
//	effectiveIn = solIn * (10000 - feeBps) / 10000
//	tokensOut   = floor(virtualTokenReserves * effectiveIn / (virtualSolReserves + effectiveIn))
//
// The result is non-decreasing in solIn and strictly below the token
// reserves. big.Int keeps the intermediate product exact.
func QuoteBuy(solIn, virtualTokenReserves, virtualSolReserves, feeBps uint64) (uint64, error) {
	if virtualTokenReserves == 0 || virtualSolReserves == 0 {
		return 0, ErrInvalidReserves
	}
	if feeBps > 10_000 {
		return 0, fmt.Errorf("pumpfun: fee %d exceeds 10000 basis points", feeBps)
	}

	effectiveIn := new(big.Int).SetUint64(solIn)
	effectiveIn.Mul(effectiveIn, big.NewInt(int64(10_000-feeBps)))
	effectiveIn.Div(effectiveIn, big.NewInt(10_000))

	vTok := new(big.Int).SetUint64(virtualTokenReserves)
	vSol := new(big.Int).SetUint64(virtualSolReserves)

	numerator := new(big.Int).Mul(vTok, effectiveIn)
	denominator := new(big.Int).Add(vSol, effectiveIn)

	tokensOut := numerator.Div(numerator, denominator)
	return tokensOut.Uint64(), nil
}

// QuoteSell computes the lamports received for disposing of tokensIn under
// the constant-product invariant, net of the proportional fee taken from the
// output. Feeds the optional minimum-output guard on sells.
func QuoteSell(tokensIn, virtualTokenReserves, virtualSolReserves, feeBps uint64) (uint64, error) {
	if virtualTokenReserves == 0 || virtualSolReserves == 0 {
		return 0, ErrInvalidReserves
	}
	if feeBps > 10_000 {
		return 0, fmt.Errorf("pumpfun: fee %d exceeds 10000 basis points", feeBps)
	}

	tIn := new(big.Int).SetUint64(tokensIn)
	vTok := new(big.Int).SetUint64(virtualTokenReserves)
	vSol := new(big.Int).SetUint64(virtualSolReserves)

	numerator := new(big.Int).Mul(vSol, tIn)
	denominator := new(big.Int).Add(vTok, tIn)

	grossOut := numerator.Div(numerator, denominator)

	fee := new(big.Int).Mul(grossOut, big.NewInt(int64(feeBps)))
	fee.Div(fee, big.NewInt(10_000))

	grossOut.Sub(grossOut, fee)
	return grossOut.Uint64(), nil
}
