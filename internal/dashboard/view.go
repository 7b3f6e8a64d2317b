package dashboard

import (
	"fmt"

	"github.com/accessfit/accessfit-gateway/internal/fitness"
)

// Tab is the closed set of top-level views. Like Role, consumers switch
// over it exhaustively.
type Tab string

const (
	TabDashboard Tab = "dashboard"
	TabExercises Tab = "exercises"
	TabHealth    Tab = "health"
	TabEducation Tab = "education"
	TabUsers     Tab = "users"
	TabPatients  Tab = "patients"
)

const DefaultTab = TabDashboard

func ParseTab(s string) (Tab, error) {
	switch Tab(s) {
	case TabDashboard, TabExercises, TabHealth, TabEducation, TabUsers, TabPatients:
		return Tab(s), nil
	default:
		return "", fmt.Errorf("unknown tab: %s", s)
	}
}

// Section names one renderable block of a tab.
type Section string

const (
	SectionWeeklyStats   Section = "weekly_stats"
	SectionAssignments   Section = "assignments"
	SectionHealthMetrics Section = "health_metrics"
	SectionCatalog       Section = "exercise_catalog"
	SectionEducation     Section = "education"
	SectionPatients      Section = "patients"
	SectionUsers         Section = "users"
	SectionOverview      Section = "overview"
)

// SectionsFor is the single source of truth for what a role sees on a tab.
// An empty result means the tab is not available to that role.
func SectionsFor(role fitness.Role, tab Tab) []Section {
	switch role {
	case fitness.RolePWD:
		switch tab {
		case TabDashboard:
			return []Section{SectionWeeklyStats, SectionAssignments, SectionHealthMetrics}
		case TabExercises:
			return []Section{SectionCatalog}
		case TabHealth:
			return []Section{SectionHealthMetrics}
		case TabEducation:
			return []Section{SectionEducation}
		case TabUsers, TabPatients:
			return nil
		}
	case fitness.RoleTherapist:
		switch tab {
		case TabDashboard:
			return []Section{SectionPatients, SectionAssignments}
		case TabExercises:
			return []Section{SectionCatalog}
		case TabPatients:
			return []Section{SectionPatients}
		case TabEducation:
			return []Section{SectionEducation}
		case TabHealth, TabUsers:
			return nil
		}
	case fitness.RoleCaregiver:
		switch tab {
		case TabDashboard:
			return []Section{SectionPatients, SectionHealthMetrics}
		case TabHealth:
			return []Section{SectionHealthMetrics}
		case TabPatients:
			return []Section{SectionPatients}
		case TabEducation:
			return []Section{SectionEducation}
		case TabExercises, TabUsers:
			return nil
		}
	case fitness.RoleAdmin:
		switch tab {
		case TabDashboard:
			return []Section{SectionOverview, SectionUsers}
		case TabExercises:
			return []Section{SectionCatalog}
		case TabUsers:
			return []Section{SectionUsers}
		case TabEducation:
			return []Section{SectionEducation}
		case TabHealth, TabPatients:
			return nil
		}
	}
	return nil
}

func TabAllowed(role fitness.Role, tab Tab) bool {
	return len(SectionsFor(role, tab)) > 0
}

// View is the role-filtered slice of a snapshot the HTTP layer serves for
// one tab.
type View struct {
	Tab      Tab             `json:"tab"`
	Sections map[Section]any `json:"sections"`
	Order    []Section       `json:"order"`
}

// BuildView cuts the snapshot down to the sections the role sees on the
// given tab. It is pure: no fetching, no state.
func BuildView(snap Snapshot, role fitness.Role, tab Tab) (View, error) {
	sections := SectionsFor(role, tab)
	if len(sections) == 0 {
		return View{}, fmt.Errorf("tab %s is not available for role %s", tab, role)
	}

	view := View{
		Tab:      tab,
		Sections: make(map[Section]any, len(sections)),
		Order:    sections,
	}
	for _, section := range sections {
		switch section {
		case SectionWeeklyStats:
			view.Sections[section] = snap.WeeklyStats
		case SectionAssignments:
			view.Sections[section] = snap.Assignments
		case SectionHealthMetrics:
			view.Sections[section] = snap.HealthMetrics
		case SectionCatalog:
			view.Sections[section] = snap.Exercises
		case SectionEducation:
			view.Sections[section] = snap.Education
		case SectionPatients, SectionUsers:
			view.Sections[section] = snap.Patients
		case SectionOverview:
			view.Sections[section] = Overview(snap)
		}
	}
	return view, nil
}
