package matcher

import (
	"mtaanifix-api/pkg/models"
	"mtaanifix-api/pkg/utils"
)

// The five hard filters from the selection contract, kept as named predicate
// functions so each can be tested in isolation. The store translates the same
// semantics into its native query; ranking reuses the location and budget
// checks for its bonus components.

// isVerified passes only fundis with a confirmed verification status. This
// filter is always applied, regardless of the request.
func isVerified(f *models.Fundi) bool {
	return f.VerificationStatus
}

// hasSpecialty checks that the fundi offers the requested trade. An empty
// serviceType means no capability filter was requested and everyone passes.
func hasSpecialty(f *models.Fundi, serviceType string) bool {
	if serviceType == "" {
		return true
	}
	return utils.Contains(f.Specialties, serviceType)
}

// availabilityAllowed applies the availability tier for the given urgency:
// high urgency demands an immediately available fundi, medium and low also
// accept busy ones. Unavailable fundis never pass.
func availabilityAllowed(f *models.Fundi, urgency string) bool {
	return utils.Contains(availabilityTiers(urgency), f.Availability)
}

// withinBudget checks the hourly rate against the requested range, bounds
// inclusive. A nil budget skips the filter.
func withinBudget(f *models.Fundi, budget *models.BudgetRange) bool {
	if budget == nil {
		return true
	}
	return budget.Contains(f.HourlyRate)
}

// nearLocation does a case-insensitive substring containment check between
// the fundi's locality and the requested one. No distance calculation, no
// normalization. An empty location skips the filter.
func nearLocation(f *models.Fundi, location string) bool {
	if location == "" {
		return true
	}
	return utils.ContainsFold(f.Location, location)
}

// availabilityTiers returns the availability states acceptable for an
// urgency level.
func availabilityTiers(urgency string) []string {
	if urgency == models.UrgencyHigh {
		return []string{models.AvailabilityAvailable}
	}
	return []string{models.AvailabilityAvailable, models.AvailabilityBusy}
}
