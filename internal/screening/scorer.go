package screening

// Polarity says which answer earns the trait point on an item.
type Polarity int

const (
	// Inverse items award a point for a negative answer.
	Inverse Polarity = iota
	// Direct items award a point for an affirmative answer.
	Direct
)

func (p Polarity) String() string {
	if p == Direct {
		return "direct"
	}
	return "inverse"
}

// polarityTable must match the scale variant the model was calibrated against.
// Items 1 and 10 are direct, items 2 through 9 inverse.
var polarityTable = [ItemCount]Polarity{
	Direct,  // a1
	Inverse, // a2
	Inverse, // a3
	Inverse, // a4
	Inverse, // a5
	Inverse, // a6
	Inverse, // a7
	Inverse, // a8
	Inverse, // a9
	Direct,  // a10
}

// PolarityOf returns the polarity of a 1-based item number.
func PolarityOf(item int) Polarity {
	return polarityTable[item-1]
}

// ScoreResult is the model-independent part of a screening.
type ScoreResult struct {
	Raw   int        `json:"raw"`
	Items ItemScores `json:"items"`
}

// Score converts the ten answers into trait points. It is total over its input.
func Score(a Answers) ScoreResult {
	var items ItemScores
	for i, yes := range a {
		if (polarityTable[i] == Direct) == yes {
			items[i] = 1
		}
	}
	return ScoreResult{Raw: items.Sum(), Items: items}
}
