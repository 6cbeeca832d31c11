package domain

import "time"

type AreaSuggestion struct {
	ID             string    `json:"id"`
	County         string    `json:"county"`
	Town           string    `json:"town"`
	ProposedEstate string    `json:"estate"`
	Notes          *string   `json:"notes,omitempty"`
	ContactEmail   *string   `json:"contactEmail,omitempty"`
	Status         Status    `json:"status"`
	CreatedAt      time.Time `json:"createdAt"`
}

func (s AreaSuggestion) Triple() Triple {
	return Triple{County: s.County, Town: s.Town, Estate: s.ProposedEstate}
}

// SubmissionLogEntry records one accepted submission for rate limiting.
type SubmissionLogEntry struct {
	IPHash     string
	InsertedAt time.Time
}
