package portrait

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

var (
	ErrAlreadyAnswered = errors.New("question already answered")
	ErrSkipLimit       = errors.New("skip limit reached")
	ErrUnknownQuestion = errors.New("unknown question")
)

// MaxSkips is how many questions a subject may skip on one sheet.
const MaxSkips = 3

// Question is the subset of question metadata needed to score an answer.
type Question struct {
	Key        string
	Dimension  string
	Kind       Kind
	Difficulty int
}

// AnswerSheet accumulates answers keyed by question before they are scored.
// The zero value is not usable; use NewAnswerSheet.
type AnswerSheet struct {
	answers map[string]any
	skipped map[string]struct{}
}

func NewAnswerSheet() *AnswerSheet {
	return &AnswerSheet{
		answers: make(map[string]any),
		skipped: make(map[string]struct{}),
	}
}

// Record validates raw against the question kind and stores it. A question
// can be answered only once.
func (s *AnswerSheet) Record(q Question, raw any) error {
	if _, ok := s.answers[q.Key]; ok {
		return fmt.Errorf("%w: %s", ErrAlreadyAnswered, q.Key)
	}
	if _, err := ParseAnswer(q.Kind, raw); err != nil {
		return fmt.Errorf("question %s: %w", q.Key, err)
	}
	s.answers[q.Key] = raw
	delete(s.skipped, q.Key)
	return nil
}

// Skip marks a question as skipped. Skipping the same question twice is a no-op.
func (s *AnswerSheet) Skip(questionKey string) error {
	if _, ok := s.answers[questionKey]; ok {
		return fmt.Errorf("%w: %s", ErrAlreadyAnswered, questionKey)
	}
	if _, ok := s.skipped[questionKey]; ok {
		return nil
	}
	if len(s.skipped) >= MaxSkips {
		return ErrSkipLimit
	}
	s.skipped[questionKey] = struct{}{}
	return nil
}

func (s *AnswerSheet) CanSkip() bool { return len(s.skipped) < MaxSkips }

func (s *AnswerSheet) Answered() int { return len(s.answers) }

func (s *AnswerSheet) Skipped() int { return len(s.skipped) }

// Answer returns the raw value recorded for a question.
func (s *AnswerSheet) Answer(questionKey string) (any, bool) {
	v, ok := s.answers[questionKey]
	return v, ok
}

// Keys returns the answered question keys in sorted order.
func (s *AnswerSheet) Keys() []string {
	keys := make([]string, 0, len(s.answers))
	for k := range s.answers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Progress is the answered share of total as a rounded percentage.
func (s *AnswerSheet) Progress(total int) int {
	return Progress(len(s.answers), total)
}

// Group arranges the recorded answers by dimension for Build. Every answered
// key must be present in questions.
func (s *AnswerSheet) Group(questions []Question) (map[string][]RawAnswer, error) {
	byKey := make(map[string]Question, len(questions))
	for _, q := range questions {
		byKey[q.Key] = q
	}
	grouped := make(map[string][]RawAnswer)
	for _, key := range s.Keys() {
		q, ok := byKey[key]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownQuestion, key)
		}
		grouped[q.Dimension] = append(grouped[q.Dimension], RawAnswer{
			QuestionKey: q.Key,
			Kind:        q.Kind,
			Value:       s.answers[key],
			Difficulty:  q.Difficulty,
		})
	}
	return grouped, nil
}

// Progress returns round(answered/total*100) clamped to [0,100].
func Progress(answered, total int) int {
	if total <= 0 {
		return 0
	}
	return int(clip(math.Round(float64(answered)/float64(total)*100), 0, 100))
}
