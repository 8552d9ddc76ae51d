package pumpfun

import (
	"encoding/binary"

	"pump-fun-launcher-go/internal/config"

	"github.com/gagliardetto/solana-go"
)

// Compute budget program instruction tags
const (
	computeBudgetSetUnitLimit = 2
	computeBudgetSetUnitPrice = 3
)

// NewSetComputeUnitLimitInstruction caps the compute units a transaction may
// consume
func NewSetComputeUnitLimitInstruction(units uint32) solana.Instruction {
	data := make([]byte, 5)
	data[0] = computeBudgetSetUnitLimit
	binary.LittleEndian.PutUint32(data[1:], units)

	return solana.NewInstruction(config.ComputeBudgetProgramID, []*solana.AccountMeta{}, data)
}

// NewSetComputeUnitPriceInstruction sets the priority fee in micro-lamports
// per compute unit
func NewSetComputeUnitPriceInstruction(microLamports uint64) solana.Instruction {
	data := make([]byte, 9)
	data[0] = computeBudgetSetUnitPrice
	binary.LittleEndian.PutUint64(data[1:], microLamports)

	return solana.NewInstruction(config.ComputeBudgetProgramID, []*solana.AccountMeta{}, data)
}

// ComputeBudgetInstructions returns the limit/price pair when a priority fee
// is requested, or nil so callers can prepend the result unconditionally.
func ComputeBudgetInstructions(unitLimit uint32, priorityFeeMicroLamports uint64) []solana.Instruction {
	if priorityFeeMicroLamports == 0 {
		return nil
	}
	return []solana.Instruction{
		NewSetComputeUnitLimitInstruction(unitLimit),
		NewSetComputeUnitPriceInstruction(priorityFeeMicroLamports),
	}
}
