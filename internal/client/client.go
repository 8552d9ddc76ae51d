package client

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	confirm "github.com/gagliardetto/solana-go/rpc/sendAndConfirmTransaction"
	"github.com/gagliardetto/solana-go/rpc/ws"
	"github.com/sirupsen/logrus"
)

// Client represents a Solana RPC client wrapper
type Client struct {
	client   *rpc.Client
	wsClient *ws.Client
	logger   *logrus.Logger
}

// ClientConfig contains configuration for the Solana client
type ClientConfig struct {
	RPCEndpoint string
	WSEndpoint  string
	Timeout     time.Duration
}

// NewClient creates a new Solana RPC client. The websocket connection is used
// only for confirmation subscriptions.
func NewClient(ctx context.Context, config ClientConfig, logger *logrus.Logger) (*Client, error) {
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}

	rpcClient := rpc.New(config.RPCEndpoint)

	wsClient, err := ws.Connect(ctx, config.WSEndpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to connect websocket %s: %w", config.WSEndpoint, err)
	}

	return &Client{
		client:   rpcClient,
		wsClient: wsClient,
		logger:   logger,
	}, nil
}

// Close shuts down the websocket connection
func (c *Client) Close() {
	if c.wsClient != nil {
		c.wsClient.Close()
	}
}

// GetAccountInfo gets account information
func (c *Client) GetAccountInfo(ctx context.Context, address solana.PublicKey) (*rpc.GetAccountInfoResult, error) {
	result, err := c.client.GetAccountInfo(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("getAccountInfo failed: %w", err)
	}

	return result, nil
}

// AccountData returns an account's raw binary contents
func (c *Client) AccountData(ctx context.Context, address solana.PublicKey) ([]byte, error) {
	result, err := c.GetAccountInfo(ctx, address)
	if err != nil {
		return nil, err
	}
	if result == nil || result.Value == nil {
		return nil, fmt.Errorf("account %s not found", address)
	}
	return result.Value.Data.GetBinary(), nil
}

// TokenAccountBalance gets the raw token balance of a token account. Tries
// the fast Processed commitment first and falls back to Confirmed, since a
// freshly created account may not be visible at the lower level yet.
func (c *Client) TokenAccountBalance(ctx context.Context, address solana.PublicKey) (uint64, error) {
	result, err := c.client.GetTokenAccountBalance(ctx, address, rpc.CommitmentProcessed)
	if err != nil {
		c.logger.WithFields(logrus.Fields{
			"token_account": address.String(),
		}).WithError(err).Debug("Processed balance lookup failed, retrying with Confirmed")
		result, err = c.client.GetTokenAccountBalance(ctx, address, rpc.CommitmentConfirmed)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get token account balance: %w", err)
	}

	if result == nil || result.Value == nil || result.Value.Amount == "" {
		return 0, fmt.Errorf("no token balance found for %s", address.String())
	}

	balance, err := strconv.ParseUint(result.Value.Amount, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse token balance: %w", err)
	}

	return balance, nil
}

// GetBalance gets an account's lamport balance
func (c *Client) GetBalance(ctx context.Context, address solana.PublicKey) (uint64, error) {
	result, err := c.client.GetBalance(ctx, address, rpc.CommitmentConfirmed)
	if err != nil {
		return 0, fmt.Errorf("getBalance failed: %w", err)
	}

	return result.Value, nil
}

// GetLatestBlockhash gets the latest blockhash
func (c *Client) GetLatestBlockhash(ctx context.Context) (solana.Hash, error) {
	result, err := c.client.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return solana.Hash{}, fmt.Errorf("getLatestBlockhash failed: %w", err)
	}

	return result.Value.Blockhash, nil
}

// SendAndConfirmTransaction broadcasts a signed transaction and blocks until
// the network confirms it or ctx expires. A transaction is content-addressed
// by its signature, so re-broadcasting one that already landed is a no-op.
func (c *Client) SendAndConfirmTransaction(ctx context.Context, transaction *solana.Transaction) (solana.Signature, error) {
	sig, err := confirm.SendAndConfirmTransaction(
		ctx,
		c.client,
		c.wsClient,
		transaction,
	)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to send transaction: %w", err)
	}

	return sig, nil
}

// GetConfirmedTransaction fetches a confirmed transaction with its metadata,
// including pre/post balances.
func (c *Client) GetConfirmedTransaction(ctx context.Context, signature solana.Signature) (*rpc.GetTransactionResult, error) {
	maxVersion := uint64(0)
	result, err := c.client.GetTransaction(
		ctx,
		signature,
		&rpc.GetTransactionOpts{
			Encoding:                       solana.EncodingBase64,
			Commitment:                     rpc.CommitmentConfirmed,
			MaxSupportedTransactionVersion: &maxVersion,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("getTransaction failed: %w", err)
	}

	return result, nil
}
