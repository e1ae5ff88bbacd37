package profiles

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
	"github.com/venturelink/venturelink/internal/database"
	"github.com/venturelink/venturelink/internal/domain"
)

// profileRecord is the SurrealDB row shape for a profile.
type profileRecord struct {
	ID           *surrealmodels.RecordID `json:"id,omitempty"`
	UserID       string                  `json:"userId"`
	Role         string                  `json:"role"`
	DisplayName  string                  `json:"displayName"`
	Bio          string                  `json:"bio,omitempty"`
	StartupName  string                  `json:"startupName,omitempty"`
	Pitch        string                  `json:"pitch,omitempty"`
	Sector       string                  `json:"sector,omitempty"`
	Stage        string                  `json:"stage,omitempty"`
	Firm         string                  `json:"firm,omitempty"`
	FocusSectors []string                `json:"focusSectors,omitempty"`
	CheckSizeMin int64                   `json:"checkSizeMin,omitempty"`
	CheckSizeMax int64                   `json:"checkSizeMax,omitempty"`
	UpdatedAt    string                  `json:"updatedAt"`
}

func (r *profileRecord) toProfile() Profile {
	updatedAt, _ := time.Parse(time.RFC3339Nano, r.UpdatedAt)
	id := ""
	if r.ID != nil {
		id = r.ID.String()
	}
	return Profile{
		ID:           id,
		UserID:       r.UserID,
		Role:         Role(r.Role),
		DisplayName:  r.DisplayName,
		Bio:          r.Bio,
		StartupName:  r.StartupName,
		Pitch:        r.Pitch,
		Sector:       r.Sector,
		Stage:        r.Stage,
		Firm:         r.Firm,
		FocusSectors: r.FocusSectors,
		CheckSizeMin: r.CheckSizeMin,
		CheckSizeMax: r.CheckSizeMax,
		UpdatedAt:    updatedAt,
	}
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

func (s *SurrealStore) contentParams(profile *Profile) map[string]any {
	return map[string]any{
		"userId":       profile.UserID,
		"role":         string(profile.Role),
		"displayName":  profile.DisplayName,
		"bio":          profile.Bio,
		"startupName":  profile.StartupName,
		"pitch":        profile.Pitch,
		"sector":       profile.Sector,
		"stage":        profile.Stage,
		"firm":         profile.Firm,
		"focusSectors": profile.FocusSectors,
		"checkSizeMin": profile.CheckSizeMin,
		"checkSizeMax": profile.CheckSizeMax,
		"updatedAt":    time.Now().UTC().Format(time.RFC3339Nano),
	}
}

// Upsert creates or replaces the profile for profile.UserID.
func (s *SurrealStore) Upsert(ctx context.Context, profile *Profile) (*Profile, error) {
	if profile.UserID == "" {
		return nil, fmt.Errorf("profile has no user id")
	}

	stored := *profile
	stored.normalize()
	params := s.contentParams(&stored)

	existing, err := database.QueryOne[profileRecord](ctx, s.db,
		"SELECT * FROM profile WHERE userId = $userId", map[string]any{"userId": stored.UserID})
	if err != nil {
		return nil, fmt.Errorf("failed to look up profile: %w", err)
	}

	var query string
	if existing == nil {
		query = `
			CREATE profile CONTENT {
				userId: $userId, role: $role, displayName: $displayName,
				bio: $bio, startupName: $startupName, pitch: $pitch,
				sector: $sector, stage: $stage, firm: $firm,
				focusSectors: $focusSectors, checkSizeMin: $checkSizeMin,
				checkSizeMax: $checkSizeMax, updatedAt: $updatedAt
			}
		`
	} else {
		query = `
			UPDATE profile SET
				role = $role, displayName = $displayName, bio = $bio,
				startupName = $startupName, pitch = $pitch, sector = $sector,
				stage = $stage, firm = $firm, focusSectors = $focusSectors,
				checkSizeMin = $checkSizeMin, checkSizeMax = $checkSizeMax,
				updatedAt = $updatedAt
			WHERE userId = $userId
			RETURN AFTER
		`
	}

	records, err := database.Query[profileRecord](ctx, s.db, query, params)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert profile: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("profile upsert returned no record")
	}

	out := records[0].toProfile()
	return &out, nil
}

// GetByUserID returns the profile, or domain.ErrNotFound.
func (s *SurrealStore) GetByUserID(ctx context.Context, userID string) (*Profile, error) {
	record, err := database.QueryOne[profileRecord](ctx, s.db,
		"SELECT * FROM profile WHERE userId = $userId", map[string]any{"userId": userID})
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	if record == nil {
		return nil, domain.ErrNotFound
	}
	out := record.toProfile()
	return &out, nil
}

// List returns the matching profiles ordered by display name.
func (s *SurrealStore) List(ctx context.Context, filter Filter) ([]Profile, error) {
	conds := make([]string, 0, 2)
	params := map[string]any{}

	if filter.Role != "" {
		conds = append(conds, "role = $role")
		params["role"] = string(filter.Role)
	}
	if sector := NormalizeSector(filter.Sector); sector != "" {
		conds = append(conds, "(sector = $sector OR $sector IN focusSectors)")
		params["sector"] = sector
	}

	query := "SELECT * FROM profile"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY displayName ASC"

	records, err := database.Query[profileRecord](ctx, s.db, query, params)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}

	out := make([]Profile, 0, len(records))
	for i := range records {
		out = append(out, records[i].toProfile())
	}
	return out, nil
}
