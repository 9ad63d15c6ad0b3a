package models

// Availability states for a fundi as stored in the worker-pool store.
const (
	AvailabilityAvailable   = "available"
	AvailabilityBusy        = "busy"
	AvailabilityUnavailable = "unavailable"
)

// Urgency levels accepted on a match request.
const (
	UrgencyLow    = "low"
	UrgencyMedium = "medium"
	UrgencyHigh   = "high"
)

// Fundi represents a tradesperson record as read from the worker-pool store.
// Rating and CompletedJobs are pointers because freshly onboarded fundis may
// not have either recorded yet; scoring compensates missing values to zero.
type Fundi struct {
	ID                 string   `json:"id"`
	FullName           string   `json:"full_name"`
	Phone              string   `json:"phone"`
	AvatarURL          string   `json:"avatar_url,omitempty"`
	Specialties        []string `json:"specialties"`
	Availability       string   `json:"availability"`
	HourlyRate         float64  `json:"hourly_rate"`
	Rating             *float64 `json:"rating"`
	CompletedJobs      *int     `json:"completed_jobs"`
	VerificationStatus bool     `json:"verification_status"`
	Location           string   `json:"location"`
}

// IsAvailableNow reports whether the fundi can take a job immediately.
func (f *Fundi) IsAvailableNow() bool {
	return f.Availability == AvailabilityAvailable
}
