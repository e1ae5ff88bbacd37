package investments

import (
	"context"
	"time"
)

// Rail identifies how the money moved. The platform only records the
// proof reference; it never constructs or executes the transfer itself.
type Rail string

const (
	// RailOnchain is a blockchain transfer; Proof holds the tx hash.
	RailOnchain Rail = "onchain"
	// RailUPI is a UPI transfer; Proof holds the UPI reference.
	RailUPI Rail = "upi"
)

// Valid reports whether the rail is one of the known values.
func (r Rail) Valid() bool {
	return r == RailOnchain || r == RailUPI
}

// Status is the investment decision state.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Investment records an investor backing a startup.
type Investment struct {
	ID         string `json:"id"`
	InvestorID string `json:"investorId"`
	FounderID  string `json:"founderId"`
	Amount     int64  `json:"amount"`
	Rail       Rail   `json:"rail"`
	Proof      string `json:"proof"`
	Status     Status `json:"status"`

	// ScreeningNote and FlaggedForReview are set by the screening rules
	// at submission time.
	ScreeningNote    string `json:"screeningNote,omitempty"`
	FlaggedForReview bool   `json:"flaggedForReview,omitempty"`

	CreatedAt time.Time  `json:"createdAt"`
	DecidedAt *time.Time `json:"decidedAt,omitempty"`
}

// Store is the investment persistence contract.
type Store interface {
	// Create persists a new pending investment.
	Create(ctx context.Context, inv *Investment) (*Investment, error)
	// GetByID returns the investment, or domain.ErrNotFound.
	GetByID(ctx context.Context, id string) (*Investment, error)
	// ListForUser returns investments where the user is the investor or
	// the founder, newest first.
	ListForUser(ctx context.Context, userID string) ([]Investment, error)
	// Decide moves a pending investment to verdict. Repeating the same
	// verdict is idempotent; a contradicting verdict returns
	// domain.ErrConflict.
	Decide(ctx context.Context, id string, verdict Status) (*Investment, error)
}
