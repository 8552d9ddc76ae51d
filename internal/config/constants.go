package config

import "github.com/gagliardetto/solana-go"

// Solana network constants
const (
	SolanaMainnetRPC = "https://api.mainnet-beta.solana.com"
	SolanaDevnetRPC  = "https://api.devnet.solana.com"

	// WebSocket endpoints
	SolanaMainnetWS = "wss://api.mainnet-beta.solana.com"
	SolanaDevnetWS  = "wss://api.devnet.solana.com"

	// Solana constants
	LamportsPerSol = 1_000_000_000
)

// ProtocolVersion identifies the revision of the pump.fun constants table
// below. The program gives no on-chain signal when these change; an operator
// must bump this table out of band when upstream redeploys.
const ProtocolVersion = "pump-2025-06"

// pump.fun program addresses (verified against mainnet)
var (
	// Main pump.fun program ID
	PumpFunProgramID = solana.MustPublicKeyFromBase58("6EF8rrecthR5Dkzon8Nwu78hRvfCKubJ14M5uBEwF6P")

	// Global config account
	PumpFunGlobal = solana.MustPublicKeyFromBase58("4wTV1YmiEkRvAtNtsSGPtUrqRYQMe5SKy2uB4Jjaxnjf")

	// Protocol fee recipient
	PumpFunFeeRecipient = solana.MustPublicKeyFromBase58("CebN5WGQ4jvEPvsVU4EoHEpgzq1VV7AbicfhtW4xC9iM")

	// Mint authority PDA (fixed for the deployed program)
	PumpFunMintAuthority = solana.MustPublicKeyFromBase58("TSLvdd1pWpHVjahSpsvCXUbgwsL3JAcvokwaKt1eokM")

	// Fee program owning the fee_config PDA
	PumpFunFeeProgramID = solana.MustPublicKeyFromBase58("pfeeUxB6jkeY1Hxd7CsFCAjcbHA9rWtchMGdZ6VojVZ")

	// Metaplex token metadata program
	MetadataProgramID = solana.MustPublicKeyFromBase58("metaqbxxUerdq28cj1RbAWkYQm3ybzjb6a8bt518x1s")

	// System program
	SystemProgramID = solana.SystemProgramID

	// SPL token program
	TokenProgramID = solana.TokenProgramID

	// Associated token program
	AssociatedTokenProgramID = solana.SPLAssociatedTokenAccountProgramID

	// Rent sysvar
	RentSysvarID = solana.SysVarRentPubkey

	// Compute budget program
	ComputeBudgetProgramID = solana.MustPublicKeyFromBase58("ComputeBudget111111111111111111111111111111")
)

// PDA seed strings used by the pump.fun program
const (
	SeedBondingCurve            = "bonding-curve"
	SeedCreatorVault            = "creator-vault"
	SeedMetadata                = "metadata"
	SeedEventAuthority          = "__event_authority"
	SeedGlobalVolumeAccumulator = "global_volume_accumulator"
	SeedUserVolumeAccumulator   = "user_volume_accumulator"
	SeedFeeConfig               = "fee_config"
)

// Instruction discriminators (anchor convention: sha256("global:<name>")[0:8],
// stored as a little-endian u64)
const (
	CreateInstructionDiscriminator uint64 = 8576854823835016728  // 181ec828051c0777
	BuyInstructionDiscriminator    uint64 = 16927863322537952870 // 66063d1201daebea
	SellInstructionDiscriminator   uint64 = 12502976635542562355 // 33e685a4017f83ad
)

// Bonding curve launch parameters. Every new token starts from these virtual
// reserves, so the initial buy in a create-and-buy transaction can be quoted
// without fetching the curve account.
const (
	InitialVirtualTokenReserves uint64 = 1_073_000_000_000_000 // 1.073B tokens, 6 decimals
	InitialVirtualSolReserves   uint64 = 30_000_000_000        // 30 SOL in lamports

	// Protocol swap fee in basis points
	CurveFeeBasisPoints uint64 = 100 // 1%
)

// Transaction defaults
const (
	DefaultConfirmTimeoutSec  = 30
	DefaultAccountPollRetries = 10
	DefaultAccountPollDelayMs = 500
)

// Launch queue defaults
const (
	DefaultMaxLaunchesPerHour  = 10
	DefaultDailyBudgetSOL      = 1.0
	DefaultInterLaunchDelaySec = 120
	DefaultHoldDelaySec        = 60
	DefaultBuyAmountSOL        = 0.01
	DefaultSlippagePercent     = 10.0
	DefaultQueueStatePath      = "data/launch_queue.json"
	DefaultLaunchRequestsPath  = "data/launch_requests.json"
	DefaultOutcomeAuditPath    = "data/launch_outcomes.jsonl"
	MaxGateRecheckIntervalSec  = 30
)

// LaunchFeeReserveLamports is the balance headroom a launch needs beyond its
// buy amount: mint, metadata and token account rent plus transaction fees.
const LaunchFeeReserveLamports uint64 = 30_000_000 // 0.03 SOL

// Compute budget heuristics per operation kind
const (
	ComputeUnitLimitCreate uint32 = 400_000
	ComputeUnitLimitSell   uint32 = 180_000
)

// GetRPCEndpoint returns RPC endpoint based on network
func GetRPCEndpoint(network string) string {
	switch network {
	case "devnet":
		return SolanaDevnetRPC
	default:
		return SolanaMainnetRPC
	}
}

// GetWSEndpoint returns WebSocket endpoint based on network
func GetWSEndpoint(network string) string {
	switch network {
	case "devnet":
		return SolanaDevnetWS
	default:
		return SolanaMainnetWS
	}
}

// ConvertSOLToLamports converts SOL to lamports
func ConvertSOLToLamports(sol float64) uint64 {
	return uint64(sol * LamportsPerSol)
}

// ConvertLamportsToSOL converts lamports to SOL
func ConvertLamportsToSOL(lamports uint64) float64 {
	return float64(lamports) / LamportsPerSol
}
