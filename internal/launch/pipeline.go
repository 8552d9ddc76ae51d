package launch

import (
	"context"
	"fmt"
	"time"

	"pump-fun-launcher-go/internal/config"
	"pump-fun-launcher-go/internal/logger"
	"pump-fun-launcher-go/internal/pumpfun"

	"github.com/benbjohnson/clock"
	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"
)

// planBuilder assembles transaction plans. Satisfied by pumpfun.Builder.
type planBuilder interface {
	BuildCreateAndBuy(params pumpfun.CreateAndBuyParams, addrs *pumpfun.DerivedAddresses, mintKey, userKey solana.PrivateKey) (*pumpfun.TransactionPlan, error)
	BuildSell(ctx context.Context, params pumpfun.SellParams, addrs *pumpfun.DerivedAddresses, mint solana.PublicKey, userKey solana.PrivateKey) (*pumpfun.TransactionPlan, error)
}

// planSubmitter signs, submits and settles plans. Satisfied by
// pumpfun.Submitter.
type planSubmitter interface {
	Submit(ctx context.Context, plan *pumpfun.TransactionPlan) (solana.Signature, error)
	AwaitAccountVisible(ctx context.Context, address solana.PublicKey) error
	SettlementDelta(ctx context.Context, signature solana.Signature, owner solana.PublicKey) (int64, error)
}

// balanceReader reports the funding wallet's lamport balance. Satisfied by
// wallet.Wallet.
type balanceReader interface {
	Balance(ctx context.Context) (uint64, error)
}

// PipelineConfig holds per-launch timing and the trading defaults applied to
// requests that leave those fields unset
type PipelineConfig struct {
	HoldDelay time.Duration
	Defaults  TradingDefaults
}

// Pipeline runs one launch end to end: deploy the mint with an initial buy,
// hold, then exit the full position. It owns no scheduling; the queue decides
// when Run is called.
type Pipeline struct {
	resolver Resolver
	recorder Recorder
	builder  planBuilder
	sub      planSubmitter
	balance  balanceReader
	userKey  solana.PrivateKey
	newMint  func() solana.PrivateKey
	clk      clock.Clock
	cfg      PipelineConfig
	logger   *logger.Logger
}

// NewPipeline wires a pipeline. newMint generates the keypair for each
// token's mint account; pass nil to use fresh ephemeral keys. A nil balance
// disables the pre-launch solvency check.
func NewPipeline(resolver Resolver, recorder Recorder, builder planBuilder, sub planSubmitter,
	balance balanceReader, userKey solana.PrivateKey, newMint func() solana.PrivateKey,
	clk clock.Clock, cfg PipelineConfig, log *logger.Logger) *Pipeline {

	if newMint == nil {
		newMint = func() solana.PrivateKey {
			account := solana.NewWallet()
			return account.PrivateKey
		}
	}

	return &Pipeline{
		resolver: resolver,
		recorder: recorder,
		builder:  builder,
		sub:      sub,
		balance:  balance,
		userKey:  userKey,
		newMint:  newMint,
		clk:      clk,
		cfg:      cfg,
		logger:   log,
	}
}

// Run executes the launch for id. Failures after the request resolves are
// reported through the Outcome rather than the error so the queue can charge
// any settled spend against the budget.
func (p *Pipeline) Run(ctx context.Context, id string) (*Outcome, error) {
	resolved, err := p.resolver.Resolve(id)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve launch request %s: %w", id, err)
	}

	// Work on a copy so filling in defaults never leaks back into the
	// resolver's definitions.
	req := *resolved
	req.ApplyDefaults(p.cfg.Defaults)
	if err := req.Validate(); err != nil {
		return nil, err
	}

	mintKey := p.newMint()
	mint := mintKey.PublicKey()
	user := p.userKey.PublicKey()

	outcome := &Outcome{RequestID: req.ID, Mint: mint.String()}

	if err := p.preflightBalance(ctx, &req); err != nil {
		return p.fail(ctx, outcome, err.Error()), nil
	}

	addrs, err := pumpfun.DeriveAddresses(mint, user)
	if err != nil {
		return p.fail(ctx, outcome, fmt.Sprintf("address derivation: %v", err)), nil
	}

	if err := p.createAndBuy(ctx, &req, addrs, mintKey, outcome); err != nil {
		return p.fail(ctx, outcome, err.Error()), nil
	}

	if req.BuyAmountSOL > 0 {
		if err := p.holdThenSell(ctx, &req, addrs, mint, outcome); err != nil {
			return p.fail(ctx, outcome, err.Error()), nil
		}
	}

	outcome.ProfitSOL = outcome.ReceivedSOL - outcome.SpentSOL
	outcome.Success = true
	outcome.CompletedAt = p.clk.Now().UTC()

	if err := p.recorder.Record(ctx, outcome); err != nil {
		p.logger.WithError(err).Error("💾 Failed to record launch outcome")
	}
	return outcome, nil
}

func (p *Pipeline) createAndBuy(ctx context.Context, req *Request, addrs *pumpfun.DerivedAddresses, mintKey solana.PrivateKey, outcome *Outcome) error {
	plan, err := p.builder.BuildCreateAndBuy(pumpfun.CreateAndBuyParams{
		Name:                     req.Name,
		Symbol:                   req.Symbol,
		URI:                      req.MetadataURL,
		BuyAmountSOL:             req.BuyAmountSOL,
		SlippagePercent:          req.SlippagePercent,
		PriorityFeeMicroLamports: req.PriorityFee,
	}, addrs, mintKey, p.userKey)
	if err != nil {
		return fmt.Errorf("build create: %w", err)
	}

	sig, err := p.sub.Submit(ctx, plan)
	if err != nil {
		return fmt.Errorf("submit create: %w", err)
	}
	outcome.CreateSignature = sig.String()

	p.logger.LogTransaction("create", sig.String())
	p.logger.WithFields(logrus.Fields{
		"request_id": req.ID,
		"mint":       outcome.Mint,
	}).Info("🪙 Token created")

	outcome.SpentSOL = p.settledSpend(ctx, sig, req)

	if req.BuyAmountSOL > 0 {
		if err := p.sub.AwaitAccountVisible(ctx, addrs.UserTokenAccount); err != nil {
			return fmt.Errorf("token account visibility: %w", err)
		}
	}
	return nil
}

func (p *Pipeline) holdThenSell(ctx context.Context, req *Request, addrs *pumpfun.DerivedAddresses, mint solana.PublicKey, outcome *Outcome) error {
	if p.cfg.HoldDelay > 0 {
		timer := p.clk.Timer(p.cfg.HoldDelay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	plan, err := p.builder.BuildSell(ctx, pumpfun.SellParams{
		PriorityFeeMicroLamports: req.PriorityFee,
	}, addrs, mint, p.userKey)
	if err != nil {
		return fmt.Errorf("build sell: %w", err)
	}

	sig, err := p.sub.Submit(ctx, plan)
	if err != nil {
		return fmt.Errorf("submit sell: %w", err)
	}
	outcome.SellSignature = sig.String()

	delta, err := p.sub.SettlementDelta(ctx, sig, p.userKey.PublicKey())
	if err != nil {
		p.logger.WithError(err).Warn("Settlement lookup failed for sell, recording zero proceeds")
		return nil
	}
	if delta > 0 {
		outcome.ReceivedSOL = config.ConvertLamportsToSOL(uint64(delta))
	}

	p.logger.LogTransaction("sell", sig.String())
	p.logger.WithFields(logrus.Fields{
		"request_id":   req.ID,
		"received_sol": outcome.ReceivedSOL,
	}).Info("💰 Position closed")
	return nil
}

// preflightBalance refuses to start a launch the funding wallet cannot pay
// for: the buy with its slippage headroom plus a reserve for rent and fees.
// A failed lookup only warns; a transient RPC error should not fail the
// request when the chain itself would accept it.
func (p *Pipeline) preflightBalance(ctx context.Context, req *Request) error {
	if p.balance == nil {
		return nil
	}

	have, err := p.balance.Balance(ctx)
	if err != nil {
		p.logger.WithError(err).Warn("Balance preflight lookup failed, proceeding")
		return nil
	}

	maxBuy := req.BuyAmountSOL * (1 + req.SlippagePercent/100)
	need := config.ConvertSOLToLamports(maxBuy) + config.LaunchFeeReserveLamports
	if have < need {
		return fmt.Errorf("insufficient wallet balance: have %.9f SOL, launch needs %.9f SOL",
			config.ConvertLamportsToSOL(have), config.ConvertLamportsToSOL(need))
	}
	return nil
}

// settledSpend reads the actual lamports the wallet paid from the ledger.
// When the lookup fails the quoted buy amount stands in, overstating rather
// than understating budget usage.
func (p *Pipeline) settledSpend(ctx context.Context, sig solana.Signature, req *Request) float64 {
	delta, err := p.sub.SettlementDelta(ctx, sig, p.userKey.PublicKey())
	if err != nil {
		p.logger.WithError(err).Warn("Settlement lookup failed for create, using quoted amount")
		return req.BuyAmountSOL
	}
	if delta >= 0 {
		return 0
	}
	return config.ConvertLamportsToSOL(uint64(-delta))
}

func (p *Pipeline) fail(ctx context.Context, outcome *Outcome, reason string) *Outcome {
	outcome.Success = false
	outcome.Reason = reason
	outcome.ProfitSOL = outcome.ReceivedSOL - outcome.SpentSOL
	outcome.CompletedAt = p.clk.Now().UTC()

	if err := p.recorder.Record(ctx, outcome); err != nil {
		p.logger.WithError(err).Error("💾 Failed to record launch outcome")
	}
	return outcome
}
