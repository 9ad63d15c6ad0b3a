package matcher

import (
	"context"

	"mtaanifix-api/internal/logging"
	"mtaanifix-api/internal/store"
	"mtaanifix-api/pkg/models"
	"mtaanifix-api/pkg/utils"
)

// FundiFinder is the worker-pool query collaborator
type FundiFinder interface {
	FindCandidates(ctx context.Context, query store.FundiQuery) ([]models.Fundi, error)
}

// Selector narrows the full worker pool down to the candidates eligible for a
// request. It is read-only: a failed store query aborts the whole selection,
// never returning partial results.
type Selector struct {
	finder        FundiFinder
	maxCandidates int
	logger        logging.Logger
}

// NewSelector creates a selector over the given worker-pool collaborator
func NewSelector(finder FundiFinder, maxCandidates int) *Selector {
	if maxCandidates <= 0 {
		maxCandidates = 10
	}
	return &Selector{
		finder:        finder,
		maxCandidates: maxCandidates,
		logger:        logging.GetGlobalLogger().WithField("component", "selector"),
	}
}

// Select returns the unordered candidate set for the request, capped at the
// configured maximum.
func (s *Selector) Select(ctx context.Context, req *models.MatchRequest) ([]models.Fundi, error) {
	query := BuildQuery(req, s.maxCandidates)

	candidates, err := s.finder.FindCandidates(ctx, query)
	if err != nil {
		s.logger.Error("Worker pool query failed", map[string]interface{}{
			"service_type": req.ServiceType,
			"urgency":      req.Urgency,
			"error":        err.Error(),
		})
		return nil, utils.NewStoreQueryError(err.Error())
	}

	s.logger.Debug("Candidate selection completed", map[string]interface{}{
		"service_type": req.ServiceType,
		"candidates":   len(candidates),
	})

	return candidates, nil
}

// BuildQuery translates the request into the store's query shape. The five
// selection predicates map onto clauses; absent optional filters are skipped
// entirely rather than matching nothing.
func BuildQuery(req *models.MatchRequest, limit int) store.FundiQuery {
	query := store.FundiQuery{
		Availability: availabilityTiers(req.Urgency),
		Limit:        limit,
	}

	if req.ServiceType != "" {
		query.Specialty = req.ServiceType
	}

	if req.BudgetRange != nil {
		minRate := req.BudgetRange.Min
		maxRate := req.BudgetRange.Max
		query.MinRate = &minRate
		query.MaxRate = &maxRate
	}

	if req.Location != "" {
		query.LocationContains = req.Location
	}

	return query
}
