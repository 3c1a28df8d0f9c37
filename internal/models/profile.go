package models

import (
	"bytes"
	"encoding/json"
	"time"
)

// Profile is the onboarding profile persisted per user.
type Profile struct {
	UserID                 string          `json:"userId"`
	BagelType              string          `json:"bagel_type"`
	MajorName              string          `json:"major_name"`
	CollegeName            string          `json:"college_name"`
	SubstanceEvents        json.RawMessage `json:"substance_events"`
	SubstanceClubs         json.RawMessage `json:"substance_clubs"`
	SubstanceGoals         json.RawMessage `json:"substance_goals"`
	OnboardingCompleted    bool            `json:"onboarding_completed"`
	DashboardTourCompleted bool            `json:"dashboard_tour_completed"`
	UpdatedAt              time.Time       `json:"updatedAt"`
}

var emptyList = json.RawMessage("[]")

// Normalize replaces missing or non-array list fields with [].
func (p *Profile) Normalize() {
	p.SubstanceEvents = listOrEmpty(p.SubstanceEvents)
	p.SubstanceClubs = listOrEmpty(p.SubstanceClubs)
	p.SubstanceGoals = listOrEmpty(p.SubstanceGoals)
}

func listOrEmpty(raw json.RawMessage) json.RawMessage {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' || !json.Valid(trimmed) {
		return emptyList
	}
	return trimmed
}
