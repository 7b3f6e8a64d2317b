package fitness

// Wire types for the fitness backend REST service. Field names follow the
// backend contract; entity references (assignment -> exercise, metric ->
// user) stay foreign keys on the wire, display fields are resolved at read
// time (see join.go).

type User struct {
	ID             int    `json:"id"`
	Name           string `json:"name"`
	Role           Role   `json:"role"`
	Username       string `json:"username,omitempty"`
	Age            int    `json:"age,omitempty"`
	Gender         string `json:"gender,omitempty"`
	DisabilityType string `json:"disability_type,omitempty"`
	ContactInfo    string `json:"contact_info,omitempty"`
}

type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	default:
		return false
	}
}

type Exercise struct {
	ID                int        `json:"exercise_id"`
	Name              string     `json:"exercise_name"`
	Description       string     `json:"description"`
	Difficulty        Difficulty `json:"difficulty_level"`
	TargetMuscleGroup string     `json:"target_muscle_group,omitempty"`
	EquipmentNeeded   string     `json:"equipment_needed,omitempty"`
}

// UnknownExerciseName is shown for assignments whose exercise was removed
// from the catalog between two refreshes.
const UnknownExerciseName = "Unknown Exercise"

type Assignment struct {
	ID             int    `json:"assignment_id"`
	ExerciseID     int    `json:"exercise_id"`
	UserID         int    `json:"user_id"`
	AssignedBy     int    `json:"assigned_by"`
	AssignedByName string `json:"assigned_by_name,omitempty"`
	AssignedByRole Role   `json:"assigned_by_role,omitempty"`
	Frequency      string `json:"frequency"`
	StartDate      string `json:"start_date"`
	EndDate        string `json:"end_date,omitempty"`
	Status         string `json:"status,omitempty"`

	// resolved from the exercise catalog on every read, never persisted
	ExerciseName      string     `json:"exercise_name,omitempty"`
	Difficulty        Difficulty `json:"difficulty_level,omitempty"`
	TargetMuscleGroup string     `json:"target_muscle_group,omitempty"`
}

type ProgressLog struct {
	ID              int    `json:"progress_id,omitempty"`
	AssignmentID    int    `json:"assignment_id"`
	DurationMinutes int    `json:"duration_minutes"`
	CaloriesBurned  int    `json:"calories_burned"`
	ProgressScore   int    `json:"progress_score"`
	Remarks         string `json:"remarks,omitempty"`
	DateLogged      string `json:"date_logged,omitempty"`
}

// WeeklyStats is recomputed server side from progress logs. The client
// treats it as a read-only snapshot; the canonical "no data yet" value is
// the zeroed struct, never nil.
type WeeklyStats struct {
	TotalSessions    int     `json:"total_sessions"`
	TotalMinutes     int     `json:"total_minutes"`
	TotalCalories    int     `json:"total_calories"`
	AvgProgressScore float64 `json:"avg_progress_score"`
}

type ProgressSummary struct {
	TotalSessions    int     `json:"total_sessions"`
	TotalMinutes     int     `json:"total_minutes"`
	TotalCalories    int     `json:"total_calories"`
	AvgProgressScore float64 `json:"avg_progress_score"`
	LastActivity     string  `json:"last_activity,omitempty"`
}

type HealthMetric struct {
	ID            int     `json:"metric_id,omitempty"`
	UserID        int     `json:"user_id,omitempty"`
	Weight        float64 `json:"weight"`
	BloodPressure string  `json:"blood_pressure"`
	MobilityScore int     `json:"mobility_score"`
	Notes         string  `json:"notes,omitempty"`
	DateRecorded  string  `json:"date_recorded,omitempty"`
}

type EducationContent struct {
	ID                    int    `json:"content_id"`
	Title                 string `json:"title"`
	Description           string `json:"description"`
	Category              string `json:"category"`
	AccessibilityFeatures string `json:"accessibility_features,omitempty"`
	FileLink              string `json:"file_link,omitempty"`
}
