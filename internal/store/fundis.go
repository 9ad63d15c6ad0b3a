package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"mtaanifix-api/internal/logging"
	"mtaanifix-api/pkg/models"
)

// FundiQuery expresses the candidate-selection predicates for the store.
// Zero-valued optional fields mean the corresponding clause is skipped.
// Verification is not represented here because it is non-negotiable: the
// repository always constrains on it.
type FundiQuery struct {
	Specialty        string   // required trade tag, empty = no capability filter
	Availability     []string // acceptable availability states
	MinRate          *float64 // inclusive hourly rate bounds
	MaxRate          *float64
	LocationContains string // case-insensitive locality substring
	Limit            int
}

// FundiRepository reads fundi records from Postgres
type FundiRepository struct {
	db     *sql.DB
	logger logging.Logger
}

// NewFundiRepository creates a fundi repository on top of the store client
func NewFundiRepository(client *Client) *FundiRepository {
	return &FundiRepository{
		db:     client.DB,
		logger: logging.GetGlobalLogger().WithField("component", "fundi_repository"),
	}
}

const fundiColumns = `f.id, p.full_name, p.phone, p.avatar_url, f.specialties,
	f.availability, f.hourly_rate, f.rating, f.completed_jobs,
	f.verification_status, f.location`

// FindCandidates runs the selection query: conditional predicates, ordered by
// rating then completed jobs (both descending), capped at the query limit.
func (r *FundiRepository) FindCandidates(ctx context.Context, query FundiQuery) ([]models.Fundi, error) {
	clauses := []string{"f.verification_status = TRUE"}
	var args []interface{}

	if query.Specialty != "" {
		args = append(args, query.Specialty)
		clauses = append(clauses, fmt.Sprintf("$%d = ANY(f.specialties)", len(args)))
	}

	if len(query.Availability) > 0 {
		args = append(args, pq.Array(query.Availability))
		clauses = append(clauses, fmt.Sprintf("f.availability = ANY($%d)", len(args)))
	}

	if query.MinRate != nil {
		args = append(args, *query.MinRate)
		clauses = append(clauses, fmt.Sprintf("f.hourly_rate >= $%d", len(args)))
	}

	if query.MaxRate != nil {
		args = append(args, *query.MaxRate)
		clauses = append(clauses, fmt.Sprintf("f.hourly_rate <= $%d", len(args)))
	}

	if query.LocationContains != "" {
		args = append(args, query.LocationContains)
		clauses = append(clauses, fmt.Sprintf("f.location ILIKE '%%' || $%d || '%%'", len(args)))
	}

	limit := query.Limit
	if limit <= 0 {
		limit = 10
	}
	args = append(args, limit)

	sqlQuery := fmt.Sprintf(`SELECT %s
		FROM fundis f
		JOIN profiles p ON p.id = f.profile_id
		WHERE %s
		ORDER BY f.rating DESC NULLS LAST, f.completed_jobs DESC NULLS LAST
		LIMIT $%d`,
		fundiColumns, strings.Join(clauses, " AND "), len(args))

	rows, err := r.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("fundi query failed: %w", err)
	}
	defer rows.Close()

	var fundis []models.Fundi
	for rows.Next() {
		fundi, err := scanFundi(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan fundi row: %w", err)
		}
		fundis = append(fundis, fundi)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("fundi row iteration failed: %w", err)
	}

	return fundis, nil
}

// scanFundi maps one result row onto a Fundi. Rating and completed jobs are
// nullable in the store; nulls stay nil on the model.
func scanFundi(rows *sql.Rows) (models.Fundi, error) {
	var (
		fundi         models.Fundi
		avatarURL     sql.NullString
		specialties   pq.StringArray
		rating        sql.NullFloat64
		completedJobs sql.NullInt64
	)

	err := rows.Scan(
		&fundi.ID,
		&fundi.FullName,
		&fundi.Phone,
		&avatarURL,
		&specialties,
		&fundi.Availability,
		&fundi.HourlyRate,
		&rating,
		&completedJobs,
		&fundi.VerificationStatus,
		&fundi.Location,
	)
	if err != nil {
		return models.Fundi{}, err
	}

	fundi.AvatarURL = avatarURL.String
	fundi.Specialties = []string(specialties)

	if rating.Valid {
		v := rating.Float64
		fundi.Rating = &v
	}
	if completedJobs.Valid {
		v := int(completedJobs.Int64)
		fundi.CompletedJobs = &v
	}

	return fundi, nil
}
