package models

// BudgetRange bounds the hourly rate a customer is willing to pay.
type BudgetRange struct {
	Min float64 `json:"min" validate:"gte=0"`
	Max float64 `json:"max" validate:"gte=0"`
}

// Contains reports whether the given hourly rate falls within the range,
// bounds inclusive.
func (b *BudgetRange) Contains(rate float64) bool {
	return rate >= b.Min && rate <= b.Max
}

// MatchRequest represents the request payload for a fundi match. Location and
// BudgetRange are optional filters: an empty Location or nil BudgetRange means
// the corresponding filter is skipped entirely, not "match nothing".
type MatchRequest struct {
	ServiceType   string       `json:"service_type" validate:"required"`
	Location      string       `json:"location,omitempty"`
	Urgency       string       `json:"urgency" validate:"required,oneof=low medium high"`
	BudgetRange   *BudgetRange `json:"budget_range,omitempty"`
	Description   string       `json:"description,omitempty"`
	CustomerPhone string       `json:"customer_phone,omitempty"`
}

// MatchResult is a candidate fundi together with its computed suitability
// score. MatchReasons are appended in the order the contributing rules fired.
type MatchResult struct {
	Fundi
	MatchScore            int      `json:"match_score"`
	MatchReasons          []string `json:"match_reasons"`
	EstimatedResponseTime string   `json:"estimated_response_time"`
}

// MatchResponse represents the response from the match endpoint.
type MatchResponse struct {
	Success    bool          `json:"success"`
	Matches    []MatchResult `json:"matches"`
	TotalFound int           `json:"total_found"`
}
