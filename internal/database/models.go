package database

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/ZanzyTHEbar/value-compass/internal/portrait"
)

var (
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrAnswerExists is returned when a subject answers a question twice.
	ErrAnswerExists = errors.New("question already answered")
)

// Answer is one stored answer of a subject, joined with its question metadata.
type Answer struct {
	ID          string        `json:"id" db:"id"`
	SubjectID   string        `json:"subject_id" db:"subject_id"`
	QuestionKey string        `json:"question_key" db:"question_key"`
	Dimension   string        `json:"dimension" db:"dimension_key"`
	Kind        portrait.Kind `json:"kind" db:"kind"`
	Difficulty  int           `json:"difficulty" db:"difficulty"`
	Value       any           `json:"value" db:"value"`
	CreatedAt   time.Time     `json:"created_at" db:"created_at"`
}

// NewAnswer creates a new answer with generated ID
func NewAnswer(subjectID, questionKey string, value any) *Answer {
	return &Answer{
		ID:          uuid.New().String(),
		SubjectID:   subjectID,
		QuestionKey: questionKey,
		Value:       value,
		CreatedAt:   time.Now().UTC(),
	}
}

// Raw converts the stored answer to builder input.
func (a Answer) Raw() portrait.RawAnswer {
	return portrait.RawAnswer{
		QuestionKey: a.QuestionKey,
		Kind:        a.Kind,
		Value:       a.Value,
		Difficulty:  a.Difficulty,
	}
}

// GroupByDimension arranges answers for portrait.Build.
func GroupByDimension(answers []Answer) map[string][]portrait.RawAnswer {
	out := make(map[string][]portrait.RawAnswer)
	for _, a := range answers {
		out[a.Dimension] = append(out[a.Dimension], a.Raw())
	}
	return out
}

// StoredPortrait is a subject portrait as persisted.
type StoredPortrait struct {
	SubjectID string           `json:"subject_id"`
	Entries   []portrait.Entry `json:"entries"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// ActorRecord is an actor row. Metadata is decoded from its JSON column.
type ActorRecord struct {
	ID          string         `json:"id" db:"id"`
	Name        string         `json:"name" db:"name"`
	Type        string         `json:"type" db:"actor_type"`
	Country     string         `json:"country,omitempty" db:"country"`
	Role        string         `json:"role,omitempty" db:"role"`
	Party       string         `json:"party,omitempty" db:"party_affiliation"`
	Description string         `json:"description,omitempty" db:"description"`
	ProgramURL  string         `json:"program_url,omitempty" db:"program_url"`
	Active      bool           `json:"active" db:"active"`
	Metadata    map[string]any `json:"metadata,omitempty" db:"metadata"`
}

// Intervention is a public statement of an actor, as listed in actor details.
type Intervention struct {
	Type        string    `json:"type" db:"intervention_type"`
	Platform    string    `json:"platform,omitempty" db:"source_platform"`
	Content     string    `json:"content" db:"content"`
	PublishedAt time.Time `json:"published_at" db:"published_at"`
	SourceURL   string    `json:"source_url,omitempty" db:"source_url"`
}

// DimensionStats summarizes how subjects answered one dimension.
// AveragePosition is nil until some subject has a portrait entry for it.
type DimensionStats struct {
	Key             string   `json:"key"`
	Name            string   `json:"name"`
	QuestionCount   int      `json:"question_count"`
	UserCount       int      `json:"user_count"`
	AveragePosition *float64 `json:"average_position"`
}

// QuestionStats summarizes the answers stored for one question.
// AverageAnswerValue is only set for numeric kinds with at least one answer.
type QuestionStats struct {
	Key                string        `json:"key"`
	Dimension          string        `json:"dimension"`
	Kind               portrait.Kind `json:"kind"`
	AnswerCount        int           `json:"answer_count"`
	AverageAnswerValue *float64      `json:"average_answer_value"`
}
