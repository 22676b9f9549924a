package screening

import (
	"fmt"
	"strings"
)

// ItemCount is the number of AQ-10 questionnaire items.
const ItemCount = 10

// Answers holds the yes/no answer to each item; index 0 is item 1.
type Answers [ItemCount]bool

// ItemScores holds the trait point (0 or 1) earned on each item; index 0 is item 1.
type ItemScores [ItemCount]int

// ByID returns the scores keyed by item identifier (a1..a10).
func (s ItemScores) ByID() map[string]int {
	out := make(map[string]int, ItemCount)
	for i, v := range s {
		out[string(ItemField(i+1))] = v
	}
	return out
}

// Sum returns the raw score.
func (s ItemScores) Sum() int {
	total := 0
	for _, v := range s {
		total += v
	}
	return total
}

// Sex is the biological sex captured by the form.
type Sex string

const (
	SexMale   Sex = "Masculino"
	SexFemale Sex = "Feminino"
)

// ReferenceSex is the category encoded as 1 in the gender column.
const ReferenceSex = SexMale

// ParseSex accepts the form labels and their common English spellings.
func ParseSex(s string) (Sex, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "masculino", "male", "m":
		return SexMale, nil
	case "feminino", "female", "f":
		return SexFemale, nil
	}
	return "", fmt.Errorf("unknown sex %q", s)
}

const (
	MinAge = 1
	MaxAge = 120
)

// DemographicProfile holds the non-questionnaire inputs.
type DemographicProfile struct {
	Age           int  `json:"age"`
	Sex           Sex  `json:"sex"`
	Jaundice      bool `json:"jaundice"`
	FamilyHistory bool `json:"family_history"`
}

// Validate checks the profile against the form's declared domains.
func (p DemographicProfile) Validate() error {
	if p.Age < MinAge || p.Age > MaxAge {
		return fmt.Errorf("age %d outside [%d, %d]", p.Age, MinAge, MaxAge)
	}
	if p.Sex != SexMale && p.Sex != SexFemale {
		return fmt.Errorf("unknown sex %q", p.Sex)
	}
	return nil
}

// Submission is one completed form.
type Submission struct {
	Answers Answers
	Profile DemographicProfile
}

// FeatureVector is a single row aligned to the model's column schema.
type FeatureVector struct {
	Columns []string
	Values  []float64
}

// Value returns the value of the named column and whether it exists.
func (v FeatureVector) Value(column string) (float64, bool) {
	for i, c := range v.Columns {
		if c == column {
			return v.Values[i], true
		}
	}
	return 0, false
}

// ScreeningResult is the outcome of one submission. It is never persisted.
type ScreeningResult struct {
	RawScore        int        `json:"raw_score" yaml:"raw_score"`
	Items           ItemScores `json:"items" yaml:"items,flow"`
	PredictedClass  int        `json:"predicted_class" yaml:"predicted_class"`
	Probability     *float64   `json:"probability,omitempty" yaml:"probability,omitempty"`
	Confidence      *float64   `json:"confidence,omitempty" yaml:"confidence,omitempty"`
	ElevatedRisk    bool       `json:"elevated_risk" yaml:"elevated_risk"`
	OverrideApplied bool       `json:"override_applied" yaml:"override_applied"`
}
