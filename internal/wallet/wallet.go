package wallet

import (
	"context"
	"crypto/ed25519"
	"fmt"

	"pump-fun-launcher-go/internal/client"
	"pump-fun-launcher-go/internal/config"

	"github.com/blocto/solana-go-sdk/types"
	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
	"github.com/sirupsen/logrus"
	bip39 "github.com/tyler-smith/go-bip39"
)

// Wallet holds the funding keypair that pays for and signs every launch
type Wallet struct {
	account   types.Account
	rpcClient *client.Client
	logger    *logrus.Logger
}

// WalletConfig contains wallet configuration
type WalletConfig struct {
	PrivateKey string // base58-encoded 64-byte key
	Mnemonic   string // BIP39 phrase, used when PrivateKey is empty
}

// NewWallet creates a wallet from a base58 private key or a BIP39 mnemonic
func NewWallet(cfg WalletConfig, rpcClient *client.Client, logger *logrus.Logger) (*Wallet, error) {
	var account types.Account
	var err error

	switch {
	case cfg.PrivateKey != "":
		account, err = types.AccountFromBase58(cfg.PrivateKey)
		if err != nil {
			return nil, fmt.Errorf("invalid private key: %w", err)
		}
	case cfg.Mnemonic != "":
		account, err = accountFromMnemonic(cfg.Mnemonic)
		if err != nil {
			return nil, fmt.Errorf("invalid mnemonic: %w", err)
		}
	default:
		return nil, fmt.Errorf("private key or mnemonic is required")
	}

	wallet := &Wallet{
		account:   account,
		rpcClient: rpcClient,
		logger:    logger,
	}

	logger.WithFields(logrus.Fields{
		"public_key": wallet.PublicKey().String(),
	}).Info("Wallet initialized")

	return wallet, nil
}

// accountFromMnemonic derives the keypair the solana CLI would produce for a
// phrase with an empty passphrase: ed25519 from the first 32 seed bytes.
func accountFromMnemonic(mnemonic string) (types.Account, error) {
	if !bip39.IsMnemonicValid(mnemonic) {
		return types.Account{}, fmt.Errorf("mnemonic failed BIP39 checksum")
	}

	seed := bip39.NewSeed(mnemonic, "")
	key := ed25519.NewKeyFromSeed(seed[:32])

	return types.AccountFromBase58(base58.Encode(key))
}

// PublicKey returns the funding wallet's public key
func (w *Wallet) PublicKey() solana.PublicKey {
	return solana.PublicKeyFromBytes(w.account.PublicKey.Bytes())
}

// PrivateKey returns the signing key for transaction signatures
func (w *Wallet) PrivateKey() solana.PrivateKey {
	return solana.PrivateKey(w.account.PrivateKey)
}

// Balance returns the wallet's SOL balance in lamports
func (w *Wallet) Balance(ctx context.Context) (uint64, error) {
	balance, err := w.rpcClient.GetBalance(ctx, w.PublicKey())
	if err != nil {
		return 0, fmt.Errorf("failed to get balance: %w", err)
	}

	w.logger.WithFields(logrus.Fields{
		"balance_lamports": balance,
		"balance_sol":      config.ConvertLamportsToSOL(balance),
	}).Debug("Retrieved wallet balance")

	return balance, nil
}

// Mint is an ephemeral keypair whose public half becomes a token's permanent
// address. It signs exactly one create transaction and is then discarded.
type Mint struct {
	account types.Account
}

// NewEphemeralMint generates a fresh mint keypair
func NewEphemeralMint() Mint {
	return Mint{account: types.NewAccount()}
}

// MintFromPrivateKey restores a mint keypair from its base58 private key,
// for callers that pre-generate (e.g. vanity) addresses.
func MintFromPrivateKey(key string) (Mint, error) {
	account, err := types.AccountFromBase58(key)
	if err != nil {
		return Mint{}, fmt.Errorf("invalid mint private key: %w", err)
	}
	return Mint{account: account}, nil
}

// PublicKey returns the future token address
func (m Mint) PublicKey() solana.PublicKey {
	return solana.PublicKeyFromBytes(m.account.PublicKey.Bytes())
}

// PrivateKey returns the mint's signing key
func (m Mint) PrivateKey() solana.PrivateKey {
	return solana.PrivateKey(m.account.PrivateKey)
}
