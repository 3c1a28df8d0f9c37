// Package profile stores onboarding answers per user.
package profile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"campus-engage/internal/common/logger"
	"campus-engage/internal/models"
)

type Repository struct {
	db     *sql.DB
	logger logger.Logger
	now    func() time.Time
}

func NewRepository(db *sql.DB, log logger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"component": "profile"}),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Get returns the profile of userID, or nil when none was saved yet.
func (r *Repository) Get(ctx context.Context, userID string) (*models.Profile, error) {
	var (
		p                    models.Profile
		events, clubs, goals []byte
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT user_id, bagel_type, major_name, college_name,
		       substance_events, substance_clubs, substance_goals,
		       onboarding_completed, dashboard_tour_completed, updated_at
		FROM profiles
		WHERE user_id = $1`, userID).Scan(
		&p.UserID, &p.BagelType, &p.MajorName, &p.CollegeName,
		&events, &clubs, &goals,
		&p.OnboardingCompleted, &p.DashboardTourCompleted, &p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query profile: %w", err)
	}

	p.SubstanceEvents = events
	p.SubstanceClubs = clubs
	p.SubstanceGoals = goals
	p.Normalize()
	return &p, nil
}

// Upsert writes every field of p for p.UserID and returns the stored row.
func (r *Repository) Upsert(ctx context.Context, p *models.Profile) (*models.Profile, error) {
	if p.UserID == "" {
		return nil, fmt.Errorf("profile user id is required")
	}
	p.Normalize()
	p.UpdatedAt = r.now()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO profiles (
			user_id, bagel_type, major_name, college_name,
			substance_events, substance_clubs, substance_goals,
			onboarding_completed, dashboard_tour_completed, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (user_id) DO UPDATE SET
			bagel_type = EXCLUDED.bagel_type,
			major_name = EXCLUDED.major_name,
			college_name = EXCLUDED.college_name,
			substance_events = EXCLUDED.substance_events,
			substance_clubs = EXCLUDED.substance_clubs,
			substance_goals = EXCLUDED.substance_goals,
			onboarding_completed = EXCLUDED.onboarding_completed,
			dashboard_tour_completed = EXCLUDED.dashboard_tour_completed,
			updated_at = EXCLUDED.updated_at`,
		p.UserID, p.BagelType, p.MajorName, p.CollegeName,
		[]byte(p.SubstanceEvents), []byte(p.SubstanceClubs), []byte(p.SubstanceGoals),
		p.OnboardingCompleted, p.DashboardTourCompleted, p.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert profile: %w", err)
	}

	r.logger.Info("profile saved", map[string]interface{}{
		"userId":              p.UserID,
		"onboardingCompleted": p.OnboardingCompleted,
	})
	return p, nil
}
