package dashboard

import "github.com/accessfit/accessfit-gateway/internal/fitness"

// Snapshot is one immutable dashboard payload. A snapshot is built as a
// whole by the aggregator and swapped in atomically by the holder; nothing
// ever patches an individual field in place.
//
// Empty defaults are part of the contract: slices are empty (never nil on
// the wire) and WeeklyStats is the zeroed object, so consumers render
// "no data yet" without branching on nil.
type Snapshot struct {
	Exercises     []fitness.Exercise         `json:"exercises"`
	Assignments   []fitness.Assignment       `json:"assignments"`
	WeeklyStats   fitness.WeeklyStats        `json:"weekly_stats"`
	HealthMetrics []fitness.HealthMetric     `json:"health_metrics"`
	Education     []fitness.EducationContent `json:"education"`
	Patients      []fitness.User             `json:"patients"`
}

func EmptySnapshot() Snapshot {
	return Snapshot{
		Exercises:     []fitness.Exercise{},
		Assignments:   []fitness.Assignment{},
		WeeklyStats:   fitness.WeeklyStats{},
		HealthMetrics: []fitness.HealthMetric{},
		Education:     []fitness.EducationContent{},
		Patients:      []fitness.User{},
	}
}

// OverviewStats are the admin landing numbers, derived from the snapshot
// instead of fetched separately.
type OverviewStats struct {
	TotalUsers      int `json:"total_users"`
	PatientCount    int `json:"patient_count"`
	StaffCount      int `json:"staff_count"`
	ExerciseCount   int `json:"exercise_count"`
	AssignmentCount int `json:"assignment_count"`
}

func Overview(snap Snapshot) OverviewStats {
	stats := OverviewStats{
		TotalUsers:      len(snap.Patients),
		ExerciseCount:   len(snap.Exercises),
		AssignmentCount: len(snap.Assignments),
	}
	for _, u := range snap.Patients {
		switch u.Role {
		case fitness.RolePWD:
			stats.PatientCount++
		case fitness.RoleTherapist, fitness.RoleCaregiver:
			stats.StaffCount++
		case fitness.RoleAdmin:
		}
	}
	return stats
}
