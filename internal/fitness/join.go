package fitness

// ResolveAssignments fills each assignment's display fields from the given
// exercise catalog. This is the single place the assignment->exercise join
// happens: display fields always reflect the current catalog, never a
// stored copy. Assignments pointing at a removed exercise degrade to the
// unknown-exercise fallback instead of erroring.
func ResolveAssignments(assignments []Assignment, catalog []Exercise) []Assignment {
	byID := make(map[int]Exercise, len(catalog))
	for _, ex := range catalog {
		byID[ex.ID] = ex
	}

	resolved := make([]Assignment, len(assignments))
	for i, a := range assignments {
		ex, found := byID[a.ExerciseID]
		if found {
			a.ExerciseName = ex.Name
			a.Difficulty = ex.Difficulty
			a.TargetMuscleGroup = ex.TargetMuscleGroup
		} else {
			a.ExerciseName = UnknownExerciseName
			a.Difficulty = ""
			a.TargetMuscleGroup = ""
		}
		resolved[i] = a
	}

	return resolved
}
