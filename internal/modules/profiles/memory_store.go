package profiles

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
	mu       sync.RWMutex
	byUserID map[string]*Profile
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byUserID: make(map[string]*Profile)}
}

// Upsert creates or replaces the profile for profile.UserID.
func (s *MemoryStore) Upsert(ctx context.Context, profile *Profile) (*Profile, error) {
	if profile.UserID == "" {
		return nil, fmt.Errorf("profile has no user id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *profile
	stored.normalize()
	stored.UpdatedAt = time.Now().UTC()
	if existing, ok := s.byUserID[profile.UserID]; ok {
		stored.ID = existing.ID
	} else {
		stored.ID = "profile:" + uuid.NewString()
	}
	s.byUserID[profile.UserID] = &stored

	out := stored
	return &out, nil
}

// GetByUserID returns the profile, or domain.ErrNotFound.
func (s *MemoryStore) GetByUserID(ctx context.Context, userID string) (*Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	profile, ok := s.byUserID[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := *profile
	return &out, nil
}

// List returns the matching profiles ordered by display name.
func (s *MemoryStore) List(ctx context.Context, filter Filter) ([]Profile, error) {
	sector := NormalizeSector(filter.Sector)

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Profile, 0, len(s.byUserID))
	for _, profile := range s.byUserID {
		if filter.Role != "" && profile.Role != filter.Role {
			continue
		}
		if sector != "" && !matchesSector(profile, sector) {
			continue
		}
		out = append(out, *profile)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DisplayName < out[j].DisplayName })
	return out, nil
}

func matchesSector(profile *Profile, sector string) bool {
	if profile.Sector == sector {
		return true
	}
	for _, s := range profile.FocusSectors {
		if s == sector {
			return true
		}
	}
	return false
}
