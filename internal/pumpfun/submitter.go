package pumpfun

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/sirupsen/logrus"
)

// ErrAccountNotVisible is returned when an account created by a confirmed
// transaction still cannot be read after the retry budget is spent. RPC nodes
// lag confirmation, so absence right after a create is expected for a while.
var ErrAccountNotVisible = errors.New("pumpfun: account not yet visible on rpc node")

// ChainWriter is the RPC surface the submitter needs
type ChainWriter interface {
	GetLatestBlockhash(ctx context.Context) (solana.Hash, error)
	SendAndConfirmTransaction(ctx context.Context, transaction *solana.Transaction) (solana.Signature, error)
	GetAccountInfo(ctx context.Context, address solana.PublicKey) (*rpc.GetAccountInfoResult, error)
	GetConfirmedTransaction(ctx context.Context, signature solana.Signature) (*rpc.GetTransactionResult, error)
}

// Submitter signs, submits and confirms transaction plans
type Submitter struct {
	chain          ChainWriter
	logger         *logrus.Logger
	confirmTimeout time.Duration
	pollRetries    uint
	pollDelay      time.Duration
}

// NewSubmitter creates a Submitter
func NewSubmitter(chain ChainWriter, logger *logrus.Logger, confirmTimeout time.Duration, pollRetries uint, pollDelay time.Duration) *Submitter {
	return &Submitter{
		chain:          chain,
		logger:         logger,
		confirmTimeout: confirmTimeout,
		pollRetries:    pollRetries,
		pollDelay:      pollDelay,
	}
}

// Submit signs the plan with all of its signers and waits for confirmation.
// The first signer pays fees. A signature comes back only after the network
// confirms the transaction, so callers can treat it as settled.
func (s *Submitter) Submit(ctx context.Context, plan *TransactionPlan) (solana.Signature, error) {
	if len(plan.Signers) == 0 {
		return solana.Signature{}, fmt.Errorf("transaction plan has no signers")
	}

	blockhash, err := s.chain.GetLatestBlockhash(ctx)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to get blockhash: %w", err)
	}

	tx, err := solana.NewTransaction(
		plan.Instructions,
		blockhash,
		solana.TransactionPayer(plan.Signers[0].PublicKey()),
	)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to build transaction: %w", err)
	}

	if _, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		for i := range plan.Signers {
			if plan.Signers[i].PublicKey().Equals(key) {
				return &plan.Signers[i]
			}
		}
		return nil
	}); err != nil {
		return solana.Signature{}, fmt.Errorf("failed to sign transaction: %w", err)
	}

	confirmCtx, cancel := context.WithTimeout(ctx, s.confirmTimeout)
	defer cancel()

	signature, err := s.chain.SendAndConfirmTransaction(confirmCtx, tx)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to submit transaction: %w", err)
	}

	return signature, nil
}

// AwaitAccountVisible polls until the account can be read on the RPC node,
// up to the configured retry budget. Returns ErrAccountNotVisible when the
// budget runs out.
func (s *Submitter) AwaitAccountVisible(ctx context.Context, address solana.PublicKey) error {
	attempt := 0
	operation := func() (struct{}, error) {
		attempt++
		info, err := s.chain.GetAccountInfo(ctx, address)
		if err == nil && info != nil && info.Value != nil {
			return struct{}{}, nil
		}
		return struct{}{}, ErrAccountNotVisible
	}

	_, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoff.NewConstantBackOff(s.pollDelay)),
		backoff.WithMaxTries(s.pollRetries),
		backoff.WithNotify(func(err error, wait time.Duration) {
			s.logger.WithFields(logrus.Fields{
				"account": address.String(),
				"attempt": attempt,
				"wait":    wait,
			}).Debug("Account not visible yet, retrying")
		}),
	)
	if err != nil {
		return fmt.Errorf("account %s after %d attempts: %w", address, attempt, ErrAccountNotVisible)
	}
	return nil
}

// SettlementDelta reports the owner's lamport balance change caused by a
// confirmed transaction, fees included. Computed from the ledger's pre and
// post balances rather than separate balance reads, so unrelated concurrent
// transfers cannot skew the figure.
func (s *Submitter) SettlementDelta(ctx context.Context, signature solana.Signature, owner solana.PublicKey) (int64, error) {
	result, err := s.chain.GetConfirmedTransaction(ctx, signature)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch transaction %s: %w", signature, err)
	}
	if result == nil || result.Meta == nil {
		return 0, fmt.Errorf("transaction %s has no metadata", signature)
	}

	tx, err := result.Transaction.GetTransaction()
	if err != nil {
		return 0, fmt.Errorf("failed to decode transaction %s: %w", signature, err)
	}

	return settlementDelta(result.Meta.PreBalances, result.Meta.PostBalances, tx.Message.AccountKeys, owner)
}

func settlementDelta(pre, post []uint64, keys []solana.PublicKey, owner solana.PublicKey) (int64, error) {
	if len(pre) != len(post) {
		return 0, fmt.Errorf("balance arrays disagree: %d pre vs %d post", len(pre), len(post))
	}
	for i, key := range keys {
		if !key.Equals(owner) {
			continue
		}
		if i >= len(pre) {
			return 0, fmt.Errorf("account index %d out of balance range %d", i, len(pre))
		}
		return int64(post[i]) - int64(pre[i]), nil
	}
	return 0, fmt.Errorf("owner %s not present in transaction", owner)
}
