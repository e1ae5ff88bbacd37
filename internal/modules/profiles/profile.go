package profiles

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Role identifies which side of the marketplace a participant is on.
type Role string

const (
	RoleFounder  Role = "founder"
	RoleInvestor Role = "investor"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	return r == RoleFounder || r == RoleInvestor
}

// Profile is a participant's public marketplace profile. Exactly one per
// user. Founder and investor fields are both present on the struct; only
// the ones matching the role are expected to be filled.
type Profile struct {
	ID          string `json:"id,omitempty"`
	UserID      string `json:"userId"`
	Role        Role   `json:"role"`
	DisplayName string `json:"displayName"`
	Bio         string `json:"bio,omitempty"`

	// Founder fields.
	StartupName string `json:"startupName,omitempty"`
	Pitch       string `json:"pitch,omitempty"`
	Sector      string `json:"sector,omitempty"`
	Stage       string `json:"stage,omitempty"`

	// Investor fields.
	Firm         string   `json:"firm,omitempty"`
	FocusSectors []string `json:"focusSectors,omitempty"`
	CheckSizeMin int64    `json:"checkSizeMin,omitempty"`
	CheckSizeMax int64    `json:"checkSizeMax,omitempty"`

	UpdatedAt time.Time `json:"updatedAt"`
}

// NormalizeSector canonicalizes a sector label so that "fintech", "FinTech"
// and " FINTECH " all index and filter as the same sector.
func NormalizeSector(label string) string {
	label = strings.TrimSpace(label)
	if label == "" {
		return ""
	}
	// cases.Caser carries state, so build one per call.
	return cases.Title(language.English).String(strings.ToLower(label))
}

// normalize canonicalizes the profile's sector labels in place.
func (p *Profile) normalize() {
	p.Sector = NormalizeSector(p.Sector)
	sectors := p.FocusSectors[:0]
	for _, s := range p.FocusSectors {
		if normalized := NormalizeSector(s); normalized != "" {
			sectors = append(sectors, normalized)
		}
	}
	p.FocusSectors = sectors
}
