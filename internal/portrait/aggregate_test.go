package portrait

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuestionWeight(t *testing.T) {
	tests := []struct {
		difficulty int
		expected   float64
	}{
		{difficulty: 5, expected: 1.5},
		{difficulty: 4, expected: 1.3},
		{difficulty: 3, expected: 1.0},
		{difficulty: 2, expected: 0.9},
		{difficulty: 1, expected: 0.8},
		{difficulty: 0, expected: 0.8},
		{difficulty: 9, expected: 0.8},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, QuestionWeight(tt.difficulty), "difficulty %d", tt.difficulty)
	}
}

func TestAggregate(t *testing.T) {
	tests := []struct {
		name     string
		values   []WeightedValue
		total    int
		expected Measures
	}{
		{
			name:     "no answers",
			values:   nil,
			total:    3,
			expected: Measures{},
		},
		{
			name:     "single strongly agree of three",
			values:   []WeightedValue{{Value: 100, Weight: 0.8}},
			total:    3,
			expected: Measures{Position: 100, Intensity: 100, Confidence: 40},
		},
		{
			name:     "weighted mean with maximal spread",
			values:   []WeightedValue{{Value: 100, Weight: 1.5}, {Value: 0, Weight: 0.8}},
			total:    3,
			expected: Measures{Position: 65.22, Intensity: 50, Confidence: 40},
		},
		{
			name:     "identical answers full coverage",
			values:   []WeightedValue{{Value: 50, Weight: 1}, {Value: 50, Weight: 1}},
			total:    2,
			expected: Measures{Position: 50, Intensity: 50, Confidence: 100},
		},
		{
			name:     "opposite answers cancel",
			values:   []WeightedValue{{Value: -100, Weight: 1}, {Value: 100, Weight: 1}},
			total:    2,
			expected: Measures{Position: 0, Intensity: 100, Confidence: 60},
		},
		{
			name:     "zero total questions drops coverage",
			values:   []WeightedValue{{Value: -50, Weight: 1}},
			total:    0,
			expected: Measures{Position: -50, Intensity: 50, Confidence: 20},
		},
		{
			name:     "coverage clamps at 100",
			values:   []WeightedValue{{Value: 0, Weight: 1}, {Value: 0, Weight: 1}, {Value: 0, Weight: 1}},
			total:    1,
			expected: Measures{Position: 0, Intensity: 0, Confidence: 100},
		},
		{
			name:     "zero weights leave position at center",
			values:   []WeightedValue{{Value: 100, Weight: 0}},
			total:    1,
			expected: Measures{Position: 0, Intensity: 100, Confidence: 80},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Aggregate(tt.values, tt.total)
			assert.InDelta(t, tt.expected.Position, got.Position, 1e-9)
			assert.InDelta(t, tt.expected.Intensity, got.Intensity, 1e-9)
			assert.InDelta(t, tt.expected.Confidence, got.Confidence, 1e-9)
		})
	}
}

func TestAggregateConsistency(t *testing.T) {
	// stddev of {0, 50} is 25, so consistency is 50 and coverage 100.
	got := Aggregate([]WeightedValue{{Value: 0, Weight: 1}, {Value: 50, Weight: 1}}, 2)
	assert.Equal(t, 80.0, got.Confidence)

	// stddev above 50 clamps to zero consistency.
	got = Aggregate([]WeightedValue{{Value: -100, Weight: 1}, {Value: 100, Weight: 1}, {Value: 0, Weight: 1}}, 3)
	assert.Equal(t, 60.0, got.Confidence)
}

func TestAggregateIsDeterministic(t *testing.T) {
	values := []WeightedValue{{Value: -50, Weight: 0.9}, {Value: 100, Weight: 1.3}, {Value: 0, Weight: 1.5}}
	first := Aggregate(values, 5)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Aggregate(values, 5))
	}
}

func TestAggregateBounds(t *testing.T) {
	values := []WeightedValue{}
	for v := -100; v <= 100; v += 10 {
		values = append(values, WeightedValue{Value: float64(v), Weight: QuestionWeight(v%5 + 3)})
		got := Aggregate(values, 7)
		assert.GreaterOrEqual(t, got.Position, -100.0)
		assert.LessOrEqual(t, got.Position, 100.0)
		assert.GreaterOrEqual(t, got.Intensity, 0.0)
		assert.LessOrEqual(t, got.Intensity, 100.0)
		assert.GreaterOrEqual(t, got.Confidence, 0.0)
		assert.LessOrEqual(t, got.Confidence, 100.0)
	}
}

func TestClip(t *testing.T) {
	assert.Equal(t, -100.0, clip(-150, -100, 100))
	assert.Equal(t, 100.0, clip(150, -100, 100))
	assert.Equal(t, 42.0, clip(42, -100, 100))
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 33.33, round2(100.0/3))
	assert.Equal(t, 65.22, round2(150.0/2.3))
	assert.Equal(t, -0.5, round2(-0.5))
}
