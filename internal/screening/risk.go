package screening

const (
	// PositiveClass is the classifier label for "traits indicated".
	PositiveClass = 1
	// ElevatedScoreCutoff is the raw score at which the flag is raised regardless of the model.
	ElevatedScoreCutoff = 6
)

// ElevatedRisk combines the model's prediction with the raw-score guardrail.
func ElevatedRisk(predictedClass, rawScore int) bool {
	return predictedClass == PositiveClass || rawScore >= ElevatedScoreCutoff
}

// overrideApplied reports whether the flag was raised only by the raw score.
func overrideApplied(predictedClass, rawScore int) bool {
	return predictedClass != PositiveClass && rawScore >= ElevatedScoreCutoff
}
