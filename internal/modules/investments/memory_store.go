package investments

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/venturelink/venturelink/internal/domain"
)

// MemoryStore is the in-memory Store used when no database is configured,
// and by tests.
type MemoryStore struct {
	mu   sync.RWMutex
	byID map[string]*Investment
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byID: make(map[string]*Investment)}
}

// Create persists a new pending investment.
func (s *MemoryStore) Create(ctx context.Context, inv *Investment) (*Investment, error) {
	if inv.Status != "" && inv.Status != StatusPending {
		return nil, fmt.Errorf("new investments must be pending, got %q", inv.Status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *inv
	stored.ID = "investment:" + uuid.NewString()
	stored.Status = StatusPending
	stored.CreatedAt = time.Now().UTC()
	stored.DecidedAt = nil
	s.byID[stored.ID] = &stored

	out := stored
	return &out, nil
}

// GetByID returns the investment, or domain.ErrNotFound.
func (s *MemoryStore) GetByID(ctx context.Context, id string) (*Investment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	inv, ok := s.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := *inv
	return &out, nil
}

// ListForUser returns the user's investments in both roles, newest first.
func (s *MemoryStore) ListForUser(ctx context.Context, userID string) ([]Investment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Investment, 0)
	for _, inv := range s.byID {
		if inv.InvestorID == userID || inv.FounderID == userID {
			out = append(out, *inv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// Decide moves a pending investment to verdict.
func (s *MemoryStore) Decide(ctx context.Context, id string, verdict Status) (*Investment, error) {
	if verdict != StatusApproved && verdict != StatusRejected {
		return nil, fmt.Errorf("invalid verdict %q", verdict)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	inv, ok := s.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}

	switch inv.Status {
	case StatusPending:
		now := time.Now().UTC()
		inv.Status = verdict
		inv.DecidedAt = &now
	case verdict:
		// Repeating the same verdict is a no-op.
	default:
		return nil, domain.ErrConflict
	}

	out := *inv
	return &out, nil
}
