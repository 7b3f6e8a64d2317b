package dashboard

import (
	"context"
	"sync"

	"github.com/accessfit/accessfit-gateway/internal/fitness"
	"github.com/accessfit/accessfit-gateway/internal/telemetry/metrics"
	"github.com/accessfit/accessfit-gateway/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
	"go.uber.org/multierr"
)

// fitnessAPI is the slice of the fitness client the aggregator needs.
type fitnessAPI interface {
	Exercises(ctx context.Context) ([]fitness.Exercise, error)
	UserAssignments(ctx context.Context, userID int, status string) ([]fitness.Assignment, error)
	AllAssignments(ctx context.Context) ([]fitness.Assignment, error)
	WeeklyProgress(ctx context.Context, userID int) (fitness.WeeklyStats, error)
	HealthMetrics(ctx context.Context, userID, limit int) ([]fitness.HealthMetric, error)
	Education(ctx context.Context, category string) ([]fitness.EducationContent, error)
	Patients(ctx context.Context) ([]fitness.User, error)
	AllUsers(ctx context.Context) ([]fitness.User, error)
}

// Aggregator builds dashboard snapshots by fanning out one request per
// section and joining on all of them. A failed branch degrades to its
// empty default so a single slow or broken endpoint never takes the whole
// dashboard down; Load itself never fails.
type Aggregator struct {
	fitness        fitnessAPI
	metricsManager *metrics.Manager
}

func NewAggregator(fitnessClient fitnessAPI, metricsManager *metrics.Manager) *Aggregator {
	return &Aggregator{
		fitness:        fitnessClient,
		metricsManager: metricsManager,
	}
}

func (a *Aggregator) Load(ctx context.Context, userID int, role fitness.Role) Snapshot {
	ctx, span := tracing.GlobalTracer.Start(ctx, "dashboard.load")
	defer span.End()

	snapshot := EmptySnapshot()
	if userID == 0 {
		return snapshot
	}

	a.metricsManager.CounterDashboardRefreshes.Inc()

	var (
		mu         sync.Mutex
		branchErrs error
	)
	branchFailed := func(branch string, err error) {
		a.metricsManager.CounterDashboardBranchErrors.WithLabelValues(branch).Inc()
		mu.Lock()
		branchErrs = multierr.Append(branchErrs, err)
		mu.Unlock()
	}

	var wg sync.WaitGroup
	wg.Add(6)

	go func() {
		defer wg.Done()
		exercises, err := a.fitness.Exercises(ctx)
		if err != nil {
			branchFailed("exercises", err)
			return
		}
		if exercises != nil {
			snapshot.Exercises = exercises
		}
	}()
	go func() {
		defer wg.Done()
		// admins see the whole assignment book, everyone else their own
		var (
			assignments []fitness.Assignment
			err         error
		)
		if role == fitness.RoleAdmin {
			assignments, err = a.fitness.AllAssignments(ctx)
		} else {
			assignments, err = a.fitness.UserAssignments(ctx, userID, "")
		}
		if err != nil {
			branchFailed("assignments", err)
			return
		}
		if assignments != nil {
			snapshot.Assignments = assignments
		}
	}()
	go func() {
		defer wg.Done()
		stats, err := a.fitness.WeeklyProgress(ctx, userID)
		if err != nil {
			branchFailed("weekly_stats", err)
			return
		}
		snapshot.WeeklyStats = stats
	}()
	go func() {
		defer wg.Done()
		healthMetrics, err := a.fitness.HealthMetrics(ctx, userID, fitness.DefaultHealthMetricsLimit)
		if err != nil {
			branchFailed("health_metrics", err)
			return
		}
		if healthMetrics != nil {
			snapshot.HealthMetrics = healthMetrics
		}
	}()
	go func() {
		defer wg.Done()
		education, err := a.fitness.Education(ctx, "")
		if err != nil {
			branchFailed("education", err)
			return
		}
		if education != nil {
			snapshot.Education = education
		}
	}()
	go func() {
		defer wg.Done()
		if !role.ManagesPatients() {
			return
		}
		// admins see everyone, therapists and caregivers their patients
		var (
			users []fitness.User
			err   error
		)
		if role == fitness.RoleAdmin {
			users, err = a.fitness.AllUsers(ctx)
		} else {
			users, err = a.fitness.Patients(ctx)
		}
		if err != nil {
			branchFailed("patients", err)
			return
		}
		if users != nil {
			snapshot.Patients = users
		}
	}()

	wg.Wait()

	if branchErrs != nil {
		log.Errorf("dashboard load for user %d finished with degraded branches: %s", userID, branchErrs)
	}

	snapshot.Assignments = fitness.ResolveAssignments(snapshot.Assignments, snapshot.Exercises)

	return snapshot
}
