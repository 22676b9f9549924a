package model

import (
	"fmt"

	"github.com/ZanzyTHEbar/aq10-triage/internal/screening"
)

// DemoColumns is the column layout of the public AQ-10 child dataset after one-hot encoding.
var DemoColumns = []string{
	"A1_Score", "A2_Score", "A3_Score", "A4_Score", "A5_Score",
	"A6_Score", "A7_Score", "A8_Score", "A9_Score", "A10_Score",
	"age", "gender_m", "jaundice_yes", "austim_yes",
}

// DemoArtifacts returns a hand-weighted logistic model over DemoColumns. It exists so
// the service and its tests can run without trained artifacts and is not clinically
// calibrated.
func DemoArtifacts() *Artifacts {
	n := len(DemoColumns)
	coef := make([]float64, n)
	mean := make([]float64, n)
	scale := make([]float64, n)
	for i := 0; i < screening.ItemCount; i++ {
		coef[i] = 1.1
		mean[i] = 0.5
		scale[i] = 0.5
	}
	// age, gender, jaundice, family history
	coef[10], mean[10], scale[10] = -0.05, 6, 2.5
	coef[11], mean[11], scale[11] = 0.1, 0.5, 0.5
	coef[12], mean[12], scale[12] = 0.05, 0.25, 0.43
	coef[13], mean[13], scale[13] = 0.15, 0.15, 0.36

	declared := make(map[screening.Field]string, n)
	for i := 1; i <= screening.ItemCount; i++ {
		declared[screening.ItemField(i)] = fmt.Sprintf("A%d_Score", i)
	}
	declared[screening.FieldAge] = "age"
	declared[screening.FieldGender] = "gender_m"
	declared[screening.FieldJaundice] = "jaundice_yes"
	declared[screening.FieldFamilyHistory] = "austim_yes"

	columns := make([]string, n)
	copy(columns, DemoColumns)

	return &Artifacts{
		Classifier: &LinearClassifier{
			Kind:         KindLogisticRegression,
			Classes:      []int{0, 1},
			Coefficients: coef,
			Intercept:    -1.2,
		},
		Scaler:   &StandardScaler{Mean: mean, Scale: scale},
		Columns:  columns,
		Declared: declared,
	}
}
