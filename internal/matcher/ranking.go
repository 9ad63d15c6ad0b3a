package matcher

import (
	"math"
	"sort"

	"mtaanifix-api/internal/logging"
	"mtaanifix-api/pkg/models"
)

// Estimated response times derived from availability.
const (
	ResponseTimeAvailable = "15-30 mins"
	ResponseTimeBusy      = "1-2 hours"
)

// Reason labels appended when a scoring threshold fires.
const (
	ReasonExcellentRatings  = "Excellent ratings"
	ReasonHighlyExperienced = "Highly experienced"
	ReasonAvailableNow      = "Available now"
	ReasonAvailableSoon     = "Available soon"
	ReasonNearLocation      = "Near your location"
	ReasonWithinBudget      = "Within budget"
)

// component is the outcome of one scoring rule: the points it contributes and
// the reason label when its threshold fired. Rating and experience award
// partial credit silently; their reasons are pure threshold checks, decoupled
// from the point formula.
type component struct {
	points float64
	reason string
}

// ratingComponent awards up to 30 points proportional to the 0-5 rating.
// The reason fires at 4.5 and above.
func ratingComponent(rating float64) component {
	c := component{points: (rating / 5) * 30}
	if rating >= 4.5 {
		c.reason = ReasonExcellentRatings
	}
	return c
}

// experienceComponent awards up to 20 points, saturating at 50 completed
// jobs. The reason fires above 100 jobs.
func experienceComponent(completedJobs int) component {
	c := component{points: math.Min(float64(completedJobs)/50, 1) * 20}
	if completedJobs > 100 {
		c.reason = ReasonHighlyExperienced
	}
	return c
}

// availabilityComponent awards 25 points for an immediately available fundi,
// 15 for a busy one when the request is not urgent, and nothing otherwise.
func availabilityComponent(availability, urgency string) component {
	switch {
	case availability == models.AvailabilityAvailable:
		return component{points: 25, reason: ReasonAvailableNow}
	case availability == models.AvailabilityBusy && urgency == models.UrgencyLow:
		return component{points: 15, reason: ReasonAvailableSoon}
	default:
		return component{}
	}
}

// locationComponent awards 15 points when the fundi's locality contains the
// requested one.
func locationComponent(f *models.Fundi, location string) component {
	if location != "" && nearLocation(f, location) {
		return component{points: 15, reason: ReasonNearLocation}
	}
	return component{}
}

// budgetComponent awards 10 points when the hourly rate falls inside the
// requested range.
func budgetComponent(f *models.Fundi, budget *models.BudgetRange) component {
	if budget != nil && withinBudget(f, budget) {
		return component{points: 10, reason: ReasonWithinBudget}
	}
	return component{}
}

// Ranker scores candidates against a request and orders them by suitability.
type Ranker struct {
	logger logging.Logger
}

// NewRanker creates a ranker
func NewRanker() *Ranker {
	return &Ranker{
		logger: logging.GetGlobalLogger().WithField("component", "ranker"),
	}
}

// Rank assigns every candidate a score in [0, 100] with its match reasons and
// returns the set ordered by descending score. The sort is stable, so
// equal-score candidates keep the store's pre-sort order. Candidates are never
// added or dropped.
func (r *Ranker) Rank(candidates []models.Fundi, req *models.MatchRequest) []models.MatchResult {
	results := make([]models.MatchResult, 0, len(candidates))
	for i := range candidates {
		results = append(results, r.scoreCandidate(&candidates[i], req))
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].MatchScore > results[j].MatchScore
	})

	return results
}

// scoreCandidate sums the five components as floats and rounds once at the
// end. Missing rating or job counts are scored as zero; that is a data
// quality problem on the record, not a request failure.
func (r *Ranker) scoreCandidate(f *models.Fundi, req *models.MatchRequest) models.MatchResult {
	rating := 0.0
	if f.Rating != nil {
		rating = *f.Rating
	} else {
		r.logger.Warn("Candidate missing rating, scoring as zero", map[string]interface{}{
			"fundi_id": f.ID,
		})
	}

	completedJobs := 0
	if f.CompletedJobs != nil {
		completedJobs = *f.CompletedJobs
	} else {
		r.logger.Warn("Candidate missing completed jobs, scoring as zero", map[string]interface{}{
			"fundi_id": f.ID,
		})
	}

	components := []component{
		ratingComponent(rating),
		experienceComponent(completedJobs),
		availabilityComponent(f.Availability, req.Urgency),
		locationComponent(f, req.Location),
		budgetComponent(f, req.BudgetRange),
	}

	total := 0.0
	reasons := []string{}
	for _, c := range components {
		total += c.points
		if c.reason != "" {
			reasons = append(reasons, c.reason)
		}
	}

	return models.MatchResult{
		Fundi:                 *f,
		MatchScore:            int(math.Round(total)),
		MatchReasons:          reasons,
		EstimatedResponseTime: estimatedResponseTime(f.Availability),
	}
}

// estimatedResponseTime maps availability onto the customer-facing estimate.
func estimatedResponseTime(availability string) string {
	if availability == models.AvailabilityAvailable {
		return ResponseTimeAvailable
	}
	return ResponseTimeBusy
}
