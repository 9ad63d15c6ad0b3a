package matcher

import (
	"context"
	"fmt"

	"mtaanifix-api/internal/config"
	"mtaanifix-api/internal/logging"
	"mtaanifix-api/pkg/models"
	"mtaanifix-api/pkg/utils"
)

// Service runs the two-stage matching pipeline: candidate selection against
// the worker-pool store, then deterministic ranking of the survivors.
type Service struct {
	selector *Selector
	ranker   *Ranker
	logger   logging.Logger
}

// NewService creates a matching service over the worker-pool collaborator
func NewService(cfg *config.Config, finder FundiFinder) *Service {
	return &Service{
		selector: NewSelector(finder, cfg.Matching.MaxCandidates),
		ranker:   NewRanker(),
		logger:   logging.GetGlobalLogger().WithField("component", "matcher"),
	}
}

// Match validates the request, selects eligible candidates and ranks them.
// Selection failures abort the invocation; an empty candidate set is a
// successful response with zero matches.
func (s *Service) Match(ctx context.Context, req *models.MatchRequest) (*models.MatchResponse, error) {
	if err := ValidateRequest(req); err != nil {
		return nil, err
	}

	candidates, err := s.selector.Select(ctx, req)
	if err != nil {
		return nil, err
	}

	matches := s.ranker.Rank(candidates, req)

	s.logger.Info("Match request completed", map[string]interface{}{
		"service_type": req.ServiceType,
		"urgency":      req.Urgency,
		"total_found":  len(matches),
	})

	return &models.MatchResponse{
		Success:    true,
		Matches:    matches,
		TotalFound: len(matches),
	}, nil
}

// ValidateRequest applies the semantic checks that struct tags cannot
// express. It runs before any store query is issued.
func ValidateRequest(req *models.MatchRequest) error {
	if req.ServiceType == "" {
		return utils.NewValidationError("service_type is required")
	}

	switch req.Urgency {
	case models.UrgencyLow, models.UrgencyMedium, models.UrgencyHigh:
	default:
		return utils.NewValidationError(fmt.Sprintf("urgency must be low, medium or high, got %q", req.Urgency))
	}

	if req.BudgetRange != nil {
		if req.BudgetRange.Min < 0 || req.BudgetRange.Max < 0 {
			return utils.NewValidationError("budget_range bounds must be non-negative")
		}
		if req.BudgetRange.Min > req.BudgetRange.Max {
			return utils.NewValidationError("budget_range min must not exceed max")
		}
	}

	return nil
}
