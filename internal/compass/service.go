// Package compass is the application service: it validates and stores
// answers, rederives subject portraits and compares them with actors.
package compass

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/ZanzyTHEbar/value-compass/internal/cache"
	"github.com/ZanzyTHEbar/value-compass/internal/catalog"
	"github.com/ZanzyTHEbar/value-compass/internal/database"
	"github.com/ZanzyTHEbar/value-compass/internal/monitoring"
	"github.com/ZanzyTHEbar/value-compass/internal/portrait"
	"github.com/ZanzyTHEbar/value-compass/internal/privacy"
	"github.com/ZanzyTHEbar/value-compass/internal/ranking"
)

// ErrNoAnswers is returned when a submission carries no answers.
var ErrNoAnswers = errors.New("no answers submitted")

// Store is the persistence the service needs. *database.Repository
// implements it.
type Store interface {
	SeedCatalog(ctx context.Context, c *catalog.Catalog) error
	ListDimensions(ctx context.Context) ([]catalog.Dimension, error)
	ListQuestions(ctx context.Context, country string) ([]catalog.Question, error)
	QuestionCounts(ctx context.Context) (map[string]int, error)
	InsertAnswers(ctx context.Context, subjectID string, inputs []database.AnswerInput) error
	AnswersBySubject(ctx context.Context, subjectID string) ([]database.Answer, error)
	UpsertSubjectPortrait(ctx context.Context, subjectID string, p portrait.Portrait) error
	SubjectPortrait(ctx context.Context, subjectID string) (*database.StoredPortrait, error)
	DeleteSubject(ctx context.Context, subjectID string) (int64, error)
	ListActors(ctx context.Context, country string) ([]database.ActorRecord, error)
	GetActor(ctx context.Context, id string) (*database.ActorRecord, error)
	ActorPortraitRows(ctx context.Context, actorID string) ([]portrait.Entry, error)
	RecentInterventions(ctx context.Context, actorID string, limit int) ([]database.Intervention, error)
	DimensionStats(ctx context.Context) ([]database.DimensionStats, error)
	QuestionStats(ctx context.Context, key string) (*database.QuestionStats, error)
}

// RecentInterventionLimit is how many interventions an actor detail lists.
const RecentInterventionLimit = 5

// Source tells where an actor portrait came from.
type Source string

const (
	SourceStructured Source = "structured"
	SourceLegacy     Source = "value_positions"
	SourceNone       Source = "none"
)

// Answer is one submitted answer. Kind is optional; when set it must match
// the question's kind.
type Answer struct {
	QuestionKey string `json:"question_key" yaml:"question_key"`
	Kind        string `json:"kind,omitempty" yaml:"kind,omitempty"`
	Value       any    `json:"value" yaml:"value"`
}

// Options configures a Service. Zero values are usable.
type Options struct {
	RankingWorkers int
	Cache          *cache.Cache
	Logger         *monitoring.Logger
	Metrics        *monitoring.Metrics
}

// Service implements the compass operations on top of a Store.
type Service struct {
	store   Store
	ranker  *ranking.Ranker
	logger  *monitoring.Logger
	metrics *monitoring.Metrics
}

// NewService creates a service.
func NewService(store Store, opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = monitoring.NewLoggerTo(io.Discard, "error")
	}
	s := &Service{
		store:   store,
		logger:  logger,
		metrics: opts.Metrics,
	}
	var results *ranking.ResultCache
	if opts.Cache != nil {
		results = ranking.NewResultCache(opts.Cache, opts.Metrics)
	}
	s.ranker = ranking.NewRanker(s.rankingSource, opts.RankingWorkers, results)
	return s
}

// Seed loads the catalog into the store and drops cached rankings.
func (s *Service) Seed(ctx context.Context, c *catalog.Catalog) error {
	if err := s.store.SeedCatalog(ctx, c); err != nil {
		return err
	}
	s.ranker.Invalidate()
	s.logger.Info("Catalog seeded",
		"dimensions", len(c.Dimensions),
		"questions", len(c.Questions),
		"actors", len(c.Actors))
	return nil
}

// Dimensions returns the active dimensions in order.
func (s *Service) Dimensions(ctx context.Context) ([]catalog.Dimension, error) {
	return s.store.ListDimensions(ctx)
}

// Questions returns the questions asked in country.
func (s *Service) Questions(ctx context.Context, country string) ([]catalog.Question, error) {
	return s.store.ListQuestions(ctx, country)
}

// Actors returns the active actors of country, or all of them.
func (s *Service) Actors(ctx context.Context, country string) ([]database.ActorRecord, error) {
	return s.store.ListActors(ctx, country)
}

func (s *Service) dimensionKeys(ctx context.Context) ([]catalog.Dimension, []string, error) {
	dims, err := s.store.ListDimensions(ctx)
	if err != nil {
		return nil, nil, err
	}
	keys := make([]string, len(dims))
	for i, d := range dims {
		keys[i] = d.Key
	}
	return dims, keys, nil
}

// SubmitAnswers validates the whole batch against the questions asked in
// country, stores it, and rebuilds the subject portrait from every stored
// answer. Nothing is stored when any answer is invalid or was already
// answered.
func (s *Service) SubmitAnswers(ctx context.Context, subjectID, country string, answers []Answer) (portrait.Portrait, error) {
	start := time.Now()

	if len(answers) == 0 {
		s.metrics.RecordAnswerRejected("empty")
		return portrait.Portrait{}, ErrNoAnswers
	}

	questions, err := s.store.ListQuestions(ctx, country)
	if err != nil {
		return portrait.Portrait{}, err
	}

	inputs, err := validateAnswers(answers, questions)
	if err != nil {
		s.metrics.RecordAnswerRejected(rejectReason(err))
		return portrait.Portrait{}, err
	}

	if err := s.store.InsertAnswers(ctx, subjectID, inputs); err != nil {
		if errors.Is(err, database.ErrAnswerExists) {
			s.metrics.RecordAnswerRejected("duplicate")
		}
		return portrait.Portrait{}, err
	}

	p, stored, err := s.rebuild(ctx, subjectID)
	if err != nil {
		return portrait.Portrait{}, err
	}

	s.metrics.RecordPortraitBuilt("submit")
	s.logger.PortraitLogger(privacy.HashSubject(subjectID), "submit", stored, len(p.Entries), time.Since(start))
	return p, nil
}

func validateAnswers(answers []Answer, questions []catalog.Question) ([]database.AnswerInput, error) {
	byKey := make(map[string]catalog.Question, len(questions))
	for _, q := range questions {
		byKey[q.Key] = q
	}

	seen := make(map[string]struct{}, len(answers))
	inputs := make([]database.AnswerInput, 0, len(answers))
	for _, a := range answers {
		if _, dup := seen[a.QuestionKey]; dup {
			return nil, fmt.Errorf("%w: %s", portrait.ErrAlreadyAnswered, a.QuestionKey)
		}
		seen[a.QuestionKey] = struct{}{}

		q, ok := byKey[a.QuestionKey]
		if !ok {
			return nil, fmt.Errorf("%w: %s", portrait.ErrUnknownQuestion, a.QuestionKey)
		}
		if a.Kind != "" && portrait.Kind(a.Kind) != q.Kind {
			return nil, fmt.Errorf("question %s: %w: got %q, question is %q",
				q.Key, portrait.ErrInvalidAnswerKind, a.Kind, q.Kind)
		}
		parsed, err := portrait.ParseAnswer(q.Kind, a.Value)
		if err != nil {
			return nil, fmt.Errorf("question %s: %w", q.Key, err)
		}
		inputs = append(inputs, database.AnswerInput{QuestionKey: q.Key, Value: portrait.Value(parsed)})
	}
	return inputs, nil
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, portrait.ErrAlreadyAnswered):
		return "duplicate"
	case errors.Is(err, portrait.ErrUnknownQuestion):
		return "unknown_question"
	case errors.Is(err, portrait.ErrInvalidAnswerKind):
		return "invalid_kind"
	case errors.Is(err, portrait.ErrOutOfRange):
		return "out_of_range"
	}
	return "other"
}

// rebuild derives the portrait from the full stored answer set and persists
// it. It returns the number of answers used. The result depends on the
// stored answers only, never on the country of the latest submission.
func (s *Service) rebuild(ctx context.Context, subjectID string) (portrait.Portrait, int, error) {
	specs, err := s.specs(ctx)
	if err != nil {
		return portrait.Portrait{}, 0, err
	}
	answers, err := s.store.AnswersBySubject(ctx, subjectID)
	if err != nil {
		return portrait.Portrait{}, 0, err
	}

	p, err := portrait.Build(database.GroupByDimension(answers), specs)
	if err != nil {
		return portrait.Portrait{}, 0, err
	}
	if err := s.store.UpsertSubjectPortrait(ctx, subjectID, p); err != nil {
		return portrait.Portrait{}, 0, err
	}
	return p, len(answers), nil
}

// specs pairs the active dimensions with their active question counts.
func (s *Service) specs(ctx context.Context) ([]portrait.DimensionSpec, error) {
	dims, err := s.store.ListDimensions(ctx)
	if err != nil {
		return nil, err
	}
	counts, err := s.store.QuestionCounts(ctx)
	if err != nil {
		return nil, err
	}
	return catalog.Specs(dims, counts), nil
}

// Portrait returns the stored portrait of a subject projected onto the
// active dimensions.
func (s *Service) Portrait(ctx context.Context, subjectID string) (portrait.Portrait, error) {
	stored, err := s.store.SubjectPortrait(ctx, subjectID)
	if err != nil {
		return portrait.Portrait{}, err
	}
	_, keys, err := s.dimensionKeys(ctx)
	if err != nil {
		return portrait.Portrait{}, err
	}
	return portrait.FromEntries(stored.Entries, keys), nil
}

// Preview is a portrait computed from an unsaved answer sheet.
type Preview struct {
	Portrait portrait.Portrait `json:"portrait"`
	Answered int               `json:"answered"`
	Skipped  int               `json:"skipped"`
	Total    int               `json:"total"`
	Progress int               `json:"progress"`
}

// NewSheet records answers and skips into a fresh sheet, validating each
// against the questions asked in country.
func (s *Service) NewSheet(ctx context.Context, country string, answers []Answer, skipped []string) (*portrait.AnswerSheet, error) {
	questions, err := s.store.ListQuestions(ctx, country)
	if err != nil {
		return nil, err
	}
	byKey := make(map[string]catalog.Question, len(questions))
	for _, q := range questions {
		byKey[q.Key] = q
	}

	sheet := portrait.NewAnswerSheet()
	for _, a := range answers {
		q, ok := byKey[a.QuestionKey]
		if !ok {
			return nil, fmt.Errorf("%w: %s", portrait.ErrUnknownQuestion, a.QuestionKey)
		}
		if a.Kind != "" && portrait.Kind(a.Kind) != q.Kind {
			return nil, fmt.Errorf("question %s: %w", q.Key, portrait.ErrInvalidAnswerKind)
		}
		if err := sheet.Record(q.Scoring(), a.Value); err != nil {
			return nil, err
		}
	}
	for _, key := range skipped {
		if _, ok := byKey[key]; !ok {
			return nil, fmt.Errorf("%w: %s", portrait.ErrUnknownQuestion, key)
		}
		if err := sheet.Skip(key); err != nil {
			return nil, err
		}
	}
	return sheet, nil
}

// Preview builds a portrait from sheet without persisting anything.
func (s *Service) Preview(ctx context.Context, sheet *portrait.AnswerSheet, country string) (*Preview, error) {
	start := time.Now()

	specs, err := s.specs(ctx)
	if err != nil {
		return nil, err
	}
	questions, err := s.store.ListQuestions(ctx, country)
	if err != nil {
		return nil, err
	}

	scoring := make([]portrait.Question, len(questions))
	for i, q := range questions {
		scoring[i] = q.Scoring()
	}
	grouped, err := sheet.Group(scoring)
	if err != nil {
		return nil, err
	}
	p, err := portrait.Build(grouped, specs)
	if err != nil {
		return nil, err
	}

	s.metrics.RecordPortraitBuilt("preview")
	s.logger.PortraitLogger("", "preview", sheet.Answered(), len(p.Entries), time.Since(start))

	return &Preview{
		Portrait: p,
		Answered: sheet.Answered(),
		Skipped:  sheet.Skipped(),
		Total:    len(questions),
		Progress: sheet.Progress(len(questions)),
	}, nil
}

// ActorPortrait resolves an actor portrait over dims. Structured rows win;
// otherwise the legacy metadata value_positions map is used. Dimensions
// absent from either default to position 0.
func (s *Service) ActorPortrait(ctx context.Context, actorID string, dims []string) (portrait.Portrait, Source, error) {
	actor, err := s.store.GetActor(ctx, actorID)
	if err != nil {
		return portrait.Portrait{}, "", err
	}
	rows, err := s.store.ActorPortraitRows(ctx, actorID)
	if err != nil {
		return portrait.Portrait{}, "", err
	}
	p, source := ResolveActorPortrait(rows, actor.Metadata, dims)
	return p, source, nil
}

// ResolveActorPortrait applies the structured-then-legacy resolution to
// already loaded data.
func ResolveActorPortrait(rows []portrait.Entry, metadata map[string]any, dims []string) (portrait.Portrait, Source) {
	if len(rows) > 0 {
		return portrait.FromEntries(rows, dims), SourceStructured
	}
	if positions := catalog.LegacyPositions(metadata); len(positions) > 0 {
		return portrait.FromPositions(positions, dims), SourceLegacy
	}
	return portrait.FromPositions(nil, dims), SourceNone
}

// ActorDetail is an actor with its resolved portrait. Personalities also
// carry their most recent interventions.
type ActorDetail struct {
	Actor         database.ActorRecord    `json:"actor"`
	Source        Source                  `json:"source"`
	Portrait      portrait.Portrait       `json:"portrait"`
	Interventions []database.Intervention `json:"interventions,omitempty"`
}

// ActorDetail loads an actor, its portrait over the active dimensions and,
// for personalities, the latest active interventions.
func (s *Service) ActorDetail(ctx context.Context, actorID string) (*ActorDetail, error) {
	actor, err := s.store.GetActor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	_, keys, err := s.dimensionKeys(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := s.store.ActorPortraitRows(ctx, actorID)
	if err != nil {
		return nil, err
	}
	p, source := ResolveActorPortrait(rows, actor.Metadata, keys)

	detail := &ActorDetail{Actor: *actor, Source: source, Portrait: p}
	if catalog.ActorType(actor.Type) == catalog.ActorPersonality {
		detail.Interventions, err = s.store.RecentInterventions(ctx, actorID, RecentInterventionLimit)
		if err != nil {
			return nil, err
		}
	}
	return detail, nil
}

// DimensionStats summarizes question and subject counts per dimension.
func (s *Service) DimensionStats(ctx context.Context) ([]database.DimensionStats, error) {
	return s.store.DimensionStats(ctx)
}

// QuestionStats summarizes the stored answers of a question.
func (s *Service) QuestionStats(ctx context.Context, key string) (*database.QuestionStats, error) {
	return s.store.QuestionStats(ctx, key)
}

// Alignment is a subject compared with one actor.
type Alignment struct {
	Actor      database.ActorRecord `json:"actor"`
	Source     Source               `json:"source"`
	Comparison portrait.Comparison  `json:"comparison"`
}

// CompareWithActor compares the stored portrait of a subject with an actor.
func (s *Service) CompareWithActor(ctx context.Context, subjectID, actorID string) (*Alignment, error) {
	user, err := s.Portrait(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	return s.compare(ctx, subjectID, user, actorID)
}

// ComparePortrait compares an unsaved portrait with an actor.
func (s *Service) ComparePortrait(ctx context.Context, user portrait.Portrait, actorID string) (*Alignment, error) {
	return s.compare(ctx, "", user, actorID)
}

func (s *Service) compare(ctx context.Context, subjectID string, user portrait.Portrait, actorID string) (*Alignment, error) {
	actor, err := s.store.GetActor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	_, keys, err := s.dimensionKeys(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := s.store.ActorPortraitRows(ctx, actorID)
	if err != nil {
		return nil, err
	}

	other, source := ResolveActorPortrait(rows, actor.Metadata, keys)
	cmp := portrait.Compare(user, other, keys)

	s.metrics.RecordAlignment(cmp.Overall)
	s.logger.AlignmentLogger(pseudonym(subjectID), actorID, cmp.Overall, string(source))

	return &Alignment{Actor: *actor, Source: source, Comparison: cmp}, nil
}

// Rank ranks the actors of country (all when empty) against the stored
// portrait of a subject.
func (s *Service) Rank(ctx context.Context, subjectID, country string, limit int) ([]ranking.Ranked, error) {
	user, err := s.Portrait(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	return s.RankPortrait(ctx, user, country, limit)
}

// RankPortrait ranks actors against an arbitrary portrait.
func (s *Service) RankPortrait(ctx context.Context, user portrait.Portrait, country string, limit int) ([]ranking.Ranked, error) {
	return s.ranker.Rank(ctx, user, country, limit, func(ctx context.Context) ([]ranking.Candidate, error) {
		actors, err := s.store.ListActors(ctx, country)
		if err != nil {
			return nil, err
		}
		candidates := make([]ranking.Candidate, len(actors))
		for i, a := range actors {
			candidates[i] = ranking.Candidate{ID: a.ID, Name: a.Name, Type: a.Type, Country: a.Country}
		}
		return candidates, nil
	})
}

func (s *Service) rankingSource(ctx context.Context, actorID string) (portrait.Portrait, error) {
	_, keys, err := s.dimensionKeys(ctx)
	if err != nil {
		return portrait.Portrait{}, err
	}
	p, _, err := s.ActorPortrait(ctx, actorID, keys)
	return p, err
}

// DeleteSubject removes every answer and the portrait of a subject. A
// subject with nothing stored is reported as not found.
func (s *Service) DeleteSubject(ctx context.Context, subjectID string) error {
	n, err := s.store.DeleteSubject(ctx, subjectID)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("subject %s: %w", subjectID, database.ErrNotFound)
	}
	s.logger.Info("Subject deleted", "subject", privacy.HashSubject(subjectID), "rows", n)
	return nil
}

// pseudonym hashes a subject id for logging; previews have none.
func pseudonym(subjectID string) string {
	if subjectID == "" {
		return ""
	}
	return privacy.HashSubject(subjectID)
}
