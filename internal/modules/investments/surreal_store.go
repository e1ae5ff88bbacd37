package investments

import (
	"context"
	"fmt"
	"time"

	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
	"github.com/venturelink/venturelink/internal/database"
	"github.com/venturelink/venturelink/internal/domain"
)

// investmentRecord is the SurrealDB row shape for an investment.
type investmentRecord struct {
	ID               *surrealmodels.RecordID `json:"id,omitempty"`
	InvestorID       string                  `json:"investorId"`
	FounderID        string                  `json:"founderId"`
	Amount           int64                   `json:"amount"`
	Rail             string                  `json:"rail"`
	Proof            string                  `json:"proof"`
	Status           string                  `json:"status"`
	ScreeningNote    string                  `json:"screeningNote,omitempty"`
	FlaggedForReview bool                    `json:"flaggedForReview,omitempty"`
	CreatedAt        string                  `json:"createdAt"`
	DecidedAt        string                  `json:"decidedAt,omitempty"`
}

func (r *investmentRecord) toInvestment() Investment {
	createdAt, _ := time.Parse(time.RFC3339Nano, r.CreatedAt)
	inv := Investment{
		InvestorID:       r.InvestorID,
		FounderID:        r.FounderID,
		Amount:           r.Amount,
		Rail:             Rail(r.Rail),
		Proof:            r.Proof,
		Status:           Status(r.Status),
		ScreeningNote:    r.ScreeningNote,
		FlaggedForReview: r.FlaggedForReview,
		CreatedAt:        createdAt,
	}
	if r.ID != nil {
		inv.ID = r.ID.String()
	}
	if r.DecidedAt != "" {
		if decidedAt, err := time.Parse(time.RFC3339Nano, r.DecidedAt); err == nil {
			inv.DecidedAt = &decidedAt
		}
	}
	return inv
}

// SurrealStore is the durable Store implementation backed by SurrealDB.
type SurrealStore struct {
	db *surrealdb.DB
}

var _ Store = (*SurrealStore)(nil)

// NewSurrealStore creates a new SurrealStore.
func NewSurrealStore(db *surrealdb.DB) *SurrealStore {
	return &SurrealStore{db: db}
}

// Create persists a new pending investment.
func (s *SurrealStore) Create(ctx context.Context, inv *Investment) (*Investment, error) {
	query := `
		CREATE investment CONTENT {
			investorId: $investorId,
			founderId: $founderId,
			amount: $amount,
			rail: $rail,
			proof: $proof,
			status: $status,
			screeningNote: $screeningNote,
			flaggedForReview: $flaggedForReview,
			createdAt: $createdAt
		}
	`
	params := map[string]any{
		"investorId":       inv.InvestorID,
		"founderId":        inv.FounderID,
		"amount":           inv.Amount,
		"rail":             string(inv.Rail),
		"proof":            inv.Proof,
		"status":           string(StatusPending),
		"screeningNote":    inv.ScreeningNote,
		"flaggedForReview": inv.FlaggedForReview,
		"createdAt":        time.Now().UTC().Format(time.RFC3339Nano),
	}

	records, err := database.Query[investmentRecord](ctx, s.db, query, params)
	if err != nil {
		return nil, fmt.Errorf("failed to create investment: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("investment create returned no record")
	}

	out := records[0].toInvestment()
	return &out, nil
}

// GetByID returns the investment, or domain.ErrNotFound.
func (s *SurrealStore) GetByID(ctx context.Context, id string) (*Investment, error) {
	record, err := database.QueryOne[investmentRecord](ctx, s.db,
		"SELECT * FROM investment WHERE id = <record> $id", map[string]any{"id": id})
	if err != nil {
		return nil, fmt.Errorf("failed to get investment: %w", err)
	}
	if record == nil {
		return nil, domain.ErrNotFound
	}
	out := record.toInvestment()
	return &out, nil
}

// ListForUser returns the user's investments in both roles, newest first.
func (s *SurrealStore) ListForUser(ctx context.Context, userID string) ([]Investment, error) {
	query := `
		SELECT * FROM investment
		WHERE investorId = $userId OR founderId = $userId
		ORDER BY createdAt DESC
	`
	records, err := database.Query[investmentRecord](ctx, s.db, query, map[string]any{"userId": userID})
	if err != nil {
		return nil, fmt.Errorf("failed to list investments: %w", err)
	}

	out := make([]Investment, 0, len(records))
	for i := range records {
		out = append(out, records[i].toInvestment())
	}
	return out, nil
}

// Decide moves a pending investment to verdict. The conditional UPDATE only
// touches pending rows, so a concurrent double-decide cannot flip a settled
// record.
func (s *SurrealStore) Decide(ctx context.Context, id string, verdict Status) (*Investment, error) {
	if verdict != StatusApproved && verdict != StatusRejected {
		return nil, fmt.Errorf("invalid verdict %q", verdict)
	}

	update := `
		UPDATE investment SET status = $verdict, decidedAt = $decidedAt
		WHERE id = <record> $id AND status = $pending
		RETURN AFTER
	`
	params := map[string]any{
		"id":        id,
		"verdict":   string(verdict),
		"pending":   string(StatusPending),
		"decidedAt": time.Now().UTC().Format(time.RFC3339Nano),
	}

	updated, err := database.QueryOne[investmentRecord](ctx, s.db, update, params)
	if err != nil {
		return nil, fmt.Errorf("failed to decide investment: %w", err)
	}
	if updated != nil {
		out := updated.toInvestment()
		return &out, nil
	}

	// Nothing was pending: the record is missing or already decided.
	existing, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.Status == verdict {
		return existing, nil
	}
	return nil, domain.ErrConflict
}
