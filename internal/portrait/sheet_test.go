package portrait

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sheetQuestions = []Question{
	{Key: "la-1", Dimension: "liberty_authority", Kind: KindDirectValue, Difficulty: 1},
	{Key: "la-3", Dimension: "liberty_authority", Kind: KindDilemma, Difficulty: 3},
	{Key: "ee-3", Dimension: "economic_equality", Kind: KindTradeoffSlider, Difficulty: 2},
}

func TestAnswerSheetRecord(t *testing.T) {
	s := NewAnswerSheet()

	require.NoError(t, s.Record(sheetQuestions[0], 5))
	err := s.Record(sheetQuestions[0], 4)
	assert.ErrorIs(t, err, ErrAlreadyAnswered)

	err = s.Record(sheetQuestions[1], "C")
	assert.ErrorIs(t, err, ErrOutOfRange)
	assert.Equal(t, 1, s.Answered())

	v, ok := s.Answer("la-1")
	require.True(t, ok)
	assert.Equal(t, 5, v)
}

func TestAnswerSheetSkip(t *testing.T) {
	s := NewAnswerSheet()
	require.NoError(t, s.Record(sheetQuestions[0], 3))

	assert.ErrorIs(t, s.Skip("la-1"), ErrAlreadyAnswered)

	for _, key := range []string{"q1", "q2", "q3"} {
		require.NoError(t, s.Skip(key))
	}
	assert.NoError(t, s.Skip("q2"))
	assert.False(t, s.CanSkip())
	assert.ErrorIs(t, s.Skip("q4"), ErrSkipLimit)
	assert.Equal(t, 3, s.Skipped())

	// answering a skipped question frees a skip
	require.NoError(t, s.Record(Question{Key: "q1", Kind: KindDilemma}, "A"))
	assert.True(t, s.CanSkip())
}

func TestAnswerSheetGroupAndBuild(t *testing.T) {
	s := NewAnswerSheet()
	require.NoError(t, s.Record(sheetQuestions[0], 5))
	require.NoError(t, s.Record(sheetQuestions[1], "B"))
	require.NoError(t, s.Record(sheetQuestions[2], float64(0)))

	grouped, err := s.Group(sheetQuestions)
	require.NoError(t, err)
	require.Len(t, grouped["liberty_authority"], 2)
	require.Len(t, grouped["economic_equality"], 1)

	p, err := Build(grouped, []DimensionSpec{
		{Key: "liberty_authority", TotalQuestions: 3},
		{Key: "economic_equality", TotalQuestions: 3},
	})
	require.NoError(t, err)

	la, _ := p.Entry("liberty_authority")
	assert.Equal(t, 100.0, la.Position)
	assert.Equal(t, 100.0, la.Intensity)
	ee, _ := p.Entry("economic_equality")
	assert.Equal(t, -100.0, ee.Position)
	assert.Equal(t, 40.0, ee.Confidence)
}

func TestAnswerSheetGroupUnknownQuestion(t *testing.T) {
	s := NewAnswerSheet()
	require.NoError(t, s.Record(Question{Key: "orphan", Kind: KindDirectValue}, 3))

	_, err := s.Group(sheetQuestions)
	assert.ErrorIs(t, err, ErrUnknownQuestion)
}

func TestProgress(t *testing.T) {
	assert.Equal(t, 0, Progress(0, 0))
	assert.Equal(t, 33, Progress(1, 3))
	assert.Equal(t, 67, Progress(2, 3))
	assert.Equal(t, 100, Progress(3, 3))
	assert.Equal(t, 100, Progress(5, 3))

	s := NewAnswerSheet()
	require.NoError(t, s.Record(sheetQuestions[0], 1))
	assert.Equal(t, 50, s.Progress(2))
}
