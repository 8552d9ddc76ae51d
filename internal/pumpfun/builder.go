package pumpfun

import (
	"context"
	"errors"
	"fmt"

	"pump-fun-launcher-go/internal/config"

	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"
)

// ErrEmptyPosition is returned when a sell is requested but the wallet holds
// no tokens for the mint
var ErrEmptyPosition = errors.New("pumpfun: no tokens held for mint")

// ChainReader is the slice of RPC surface the builder needs. Satisfied by
// client.Client; tests substitute a fake.
type ChainReader interface {
	TokenAccountBalance(ctx context.Context, address solana.PublicKey) (uint64, error)
	AccountData(ctx context.Context, address solana.PublicKey) ([]byte, error)
}

// TransactionPlan is an ordered instruction list plus the keys that must sign
// it. Plans are value objects: build once, submit unchanged.
type TransactionPlan struct {
	Instructions []solana.Instruction
	Signers      []solana.PrivateKey
}

// CreateAndBuyParams describe a token deployment with an optional initial buy
type CreateAndBuyParams struct {
	Name                     string
	Symbol                   string
	URI                      string
	BuyAmountSOL             float64
	SlippagePercent          float64
	PriorityFeeMicroLamports uint64
}

// SellParams describe a full-position exit
type SellParams struct {
	PriorityFeeMicroLamports uint64
}

// Builder assembles transaction plans for the launch lifecycle
type Builder struct {
	chain            ChainReader
	logger           *logrus.Logger
	sellGuardEnabled bool
	sellGuardPercent float64
}

// NewBuilder creates a Builder. guardPercent is ignored unless guardEnabled.
func NewBuilder(chain ChainReader, logger *logrus.Logger, guardEnabled bool, guardPercent float64) *Builder {
	return &Builder{
		chain:            chain,
		logger:           logger,
		sellGuardEnabled: guardEnabled,
		sellGuardPercent: guardPercent,
	}
}

// BuildCreateAndBuy produces a single plan holding the create instruction
// and, when BuyAmountSOL is positive, the token account setup and buy
// instructions. Atomicity matters here: because the buy lands in the same
// transaction as the create, the curve is guaranteed to be at its genesis
// reserves, so the buy quote uses the protocol's initial constants and no
// curve fetch is needed.
func (b *Builder) BuildCreateAndBuy(params CreateAndBuyParams, addrs *DerivedAddresses, mintKey, userKey solana.PrivateKey) (*TransactionPlan, error) {
	mint := mintKey.PublicKey()
	user := userKey.PublicKey()

	instructions := ComputeBudgetInstructions(config.ComputeUnitLimitCreate, params.PriorityFeeMicroLamports)

	createIx, err := NewCreateInstruction(CreateArgs{
		Name:    params.Name,
		Symbol:  params.Symbol,
		URI:     params.URI,
		Creator: user,
	}, addrs, mint, user)
	if err != nil {
		return nil, fmt.Errorf("failed to build create instruction: %w", err)
	}
	instructions = append(instructions, createIx)

	if params.BuyAmountSOL > 0 {
		lamports := config.ConvertSOLToLamports(params.BuyAmountSOL)

		tokensOut, err := QuoteBuy(lamports,
			config.InitialVirtualTokenReserves,
			config.InitialVirtualSolReserves,
			config.CurveFeeBasisPoints)
		if err != nil {
			return nil, fmt.Errorf("failed to quote initial buy: %w", err)
		}

		maxSolCost := applySlippageUp(lamports, params.SlippagePercent)

		instructions = append(instructions,
			NewCreateTokenAccountIdempotentInstruction(user, addrs.UserTokenAccount, user, mint),
			NewBuyInstruction(BuyArgs{
				TokenAmount: tokensOut,
				MaxSolCost:  maxSolCost,
			}, addrs, mint, user),
		)

		b.logger.WithFields(logrus.Fields{
			"mint":         mint.String(),
			"buy_sol":      params.BuyAmountSOL,
			"tokens_out":   tokensOut,
			"max_sol_cost": maxSolCost,
		}).Debug("Planned create-and-buy")
	}

	return &TransactionPlan{
		Instructions: instructions,
		Signers:      []solana.PrivateKey{userKey, mintKey},
	}, nil
}

// BuildSell produces a plan disposing of the wallet's entire position in
// mint. The amount is always the live on-chain balance read here, never a
// figure recorded at buy time; transfers or partial fills since the buy would
// make a recorded amount wrong.
func (b *Builder) BuildSell(ctx context.Context, params SellParams, addrs *DerivedAddresses, mint solana.PublicKey, userKey solana.PrivateKey) (*TransactionPlan, error) {
	balance, err := b.chain.TokenAccountBalance(ctx, addrs.UserTokenAccount)
	if err != nil {
		return nil, fmt.Errorf("failed to read token balance: %w", err)
	}
	if balance == 0 {
		return nil, ErrEmptyPosition
	}

	minSolOutput, err := b.sellFloor(ctx, balance, addrs.BondingCurve)
	if err != nil {
		return nil, err
	}

	instructions := ComputeBudgetInstructions(config.ComputeUnitLimitSell, params.PriorityFeeMicroLamports)
	instructions = append(instructions, NewSellInstruction(SellArgs{
		TokenAmount:  balance,
		MinSolOutput: minSolOutput,
	}, addrs, mint, userKey.PublicKey()))

	b.logger.WithFields(logrus.Fields{
		"mint":           mint.String(),
		"token_amount":   balance,
		"min_sol_output": minSolOutput,
	}).Debug("Planned sell")

	return &TransactionPlan{
		Instructions: instructions,
		Signers:      []solana.PrivateKey{userKey},
	}, nil
}

// sellFloor computes the minimum acceptable lamport output. With the guard
// disabled it is zero and the exit cannot be blocked by price movement.
func (b *Builder) sellFloor(ctx context.Context, tokenAmount uint64, bondingCurve solana.PublicKey) (uint64, error) {
	if !b.sellGuardEnabled {
		return 0, nil
	}

	data, err := b.chain.AccountData(ctx, bondingCurve)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch bonding curve for sell guard: %w", err)
	}

	state, err := ParseBondingCurveState(data)
	if err != nil {
		return 0, fmt.Errorf("failed to parse bonding curve state: %w", err)
	}

	quote, err := QuoteSell(tokenAmount, state.VirtualTokenReserves, state.VirtualSolReserves, config.CurveFeeBasisPoints)
	if err != nil {
		return 0, err
	}

	return applySlippageDown(quote, b.sellGuardPercent), nil
}

func applySlippageUp(lamports uint64, percent float64) uint64 {
	return uint64(float64(lamports) * (1 + percent/100))
}

func applySlippageDown(lamports uint64, percent float64) uint64 {
	return uint64(float64(lamports) * (1 - percent/100))
}
