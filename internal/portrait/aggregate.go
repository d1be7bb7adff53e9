package portrait

import "math"

// difficulty -> aggregation weight
var questionWeights = map[int]float64{
	5: 1.5,
	4: 1.3,
	3: 1.0,
	2: 0.9,
}

const (
	defaultQuestionWeight = 0.8
	neutralConsistency    = 50.0
	maxStdDev             = 50.0
	coverageShare         = 0.6
	consistencyShare      = 0.4
)

// QuestionWeight returns the aggregation weight for a question difficulty.
// Difficulty 1 and unset (0) both map to the default weight.
func QuestionWeight(difficulty int) float64 {
	if w, ok := questionWeights[difficulty]; ok {
		return w
	}
	return defaultQuestionWeight
}

// WeightedValue is one normalized answer and its question weight.
type WeightedValue struct {
	Value  float64
	Weight float64
}

// Measures are the three per-dimension aggregates.
type Measures struct {
	Position   float64 `json:"position"`
	Intensity  float64 `json:"intensity"`
	Confidence float64 `json:"confidence"`
}

// Aggregate computes position, intensity and confidence for the answers of a
// single dimension. totalQuestions is the number of active questions in that
// dimension and only affects coverage.
func Aggregate(values []WeightedValue, totalQuestions int) Measures {
	if len(values) == 0 {
		return Measures{}
	}
	return Measures{
		Position:   position(values),
		Intensity:  intensity(values),
		Confidence: confidence(values, totalQuestions),
	}
}

func position(values []WeightedValue) float64 {
	var sum, weights float64
	for _, v := range values {
		sum += v.Value * v.Weight
		weights += v.Weight
	}
	if weights == 0 {
		return 0
	}
	return clip(round2(sum/weights), -100, 100)
}

func intensity(values []WeightedValue) float64 {
	var sum float64
	for _, v := range values {
		sum += math.Abs(v.Value)
	}
	return clip(round2(sum/float64(len(values))), 0, 100)
}

func confidence(values []WeightedValue, totalQuestions int) float64 {
	coverage := 0.0
	if totalQuestions > 0 {
		coverage = clip(float64(len(values))/float64(totalQuestions)*100, 0, 100)
	}

	consistency := neutralConsistency
	if len(values) > 1 {
		sd := clip(stdDev(values), 0, maxStdDev)
		consistency = round2((maxStdDev - sd) / maxStdDev * 100)
	}

	return clip(round2(coverageShare*coverage+consistencyShare*consistency), 0, 100)
}

// population standard deviation of the raw values
func stdDev(values []WeightedValue) float64 {
	var mean float64
	for _, v := range values {
		mean += v.Value
	}
	mean /= float64(len(values))

	var sq float64
	for _, v := range values {
		d := v.Value - mean
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(values)))
}

func round2(x float64) float64 { return math.Round(x*100) / 100 }

func clip(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
