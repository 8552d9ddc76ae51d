package launch

import (
	"context"
	"fmt"
	"time"
)

// ValidationError describes a launch request rejected before reaching the
// queue
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid launch request: %s %s", e.Field, e.Reason)
}

// Request is a single token launch: deploy a mint, buy on its curve, hold,
// then exit the full position.
type Request struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Symbol          string  `json:"symbol"`
	MetadataURL     string  `json:"metadata_url"`
	BuyAmountSOL    float64 `json:"buy_amount_sol"`
	SlippagePercent float64 `json:"slippage_percent"`
	PriorityFee     uint64  `json:"priority_fee"`
}

// TradingDefaults fills request fields the definitions file leaves unset.
// Zero values in a request mean "use the configured default".
type TradingDefaults struct {
	BuyAmountSOL    float64
	SlippagePercent float64
	PriorityFee     uint64
}

// ApplyDefaults fills zero-valued trading fields from d
func (r *Request) ApplyDefaults(d TradingDefaults) {
	if r.BuyAmountSOL == 0 {
		r.BuyAmountSOL = d.BuyAmountSOL
	}
	if r.SlippagePercent == 0 {
		r.SlippagePercent = d.SlippagePercent
	}
	if r.PriorityFee == 0 {
		r.PriorityFee = d.PriorityFee
	}
}

// Validate rejects requests the program would refuse on-chain or that make
// no economic sense
func (r *Request) Validate() error {
	if r.ID == "" {
		return &ValidationError{Field: "id", Reason: "is required"}
	}
	if r.Name == "" {
		return &ValidationError{Field: "name", Reason: "is required"}
	}
	if r.Symbol == "" {
		return &ValidationError{Field: "symbol", Reason: "is required"}
	}
	if len(r.Symbol) > 10 {
		return &ValidationError{Field: "symbol", Reason: "exceeds 10 bytes"}
	}
	if r.BuyAmountSOL < 0 {
		return &ValidationError{Field: "buy_amount_sol", Reason: "is negative"}
	}
	if r.SlippagePercent < 0 || r.SlippagePercent > 100 {
		return &ValidationError{Field: "slippage_percent", Reason: "must be within [0, 100]"}
	}
	return nil
}

// Outcome records how a launch ended, successful or not
type Outcome struct {
	RequestID       string    `json:"request_id"`
	Mint            string    `json:"mint,omitempty"`
	CreateSignature string    `json:"create_signature,omitempty"`
	SellSignature   string    `json:"sell_signature,omitempty"`
	SpentSOL        float64   `json:"spent_sol"`
	ReceivedSOL     float64   `json:"received_sol"`
	ProfitSOL       float64   `json:"profit_sol"`
	Success         bool      `json:"success"`
	Reason          string    `json:"reason,omitempty"`
	CompletedAt     time.Time `json:"completed_at"`
}

// Resolver maps a queued request ID back to its full definition
type Resolver interface {
	Resolve(id string) (*Request, error)
}

// Recorder persists launch outcomes for later audit
type Recorder interface {
	Record(ctx context.Context, outcome *Outcome) error
}

// Runner executes one launch end to end. The queue only sequences; all
// network work lives behind this interface.
type Runner interface {
	Run(ctx context.Context, id string) (*Outcome, error)
}
