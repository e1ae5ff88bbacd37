package profiles

import (
	"context"
)

// Filter narrows a directory listing. Zero values mean "any".
type Filter struct {
	Role   Role
	Sector string
}

// Store is the profile persistence contract. Implementations must
// canonicalize sector labels on write so that filtering stays consistent.
type Store interface {
	// Upsert creates or replaces the profile for profile.UserID.
	Upsert(ctx context.Context, profile *Profile) (*Profile, error)
	// GetByUserID returns the profile, or domain.ErrNotFound.
	GetByUserID(ctx context.Context, userID string) (*Profile, error)
	// List returns the directory, filtered and ordered by display name.
	// The sector filter matches a founder's sector or an investor's
	// focus sectors.
	List(ctx context.Context, filter Filter) ([]Profile, error)
}
