package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ZanzyTHEbar/value-compass/internal/catalog"
	"github.com/ZanzyTHEbar/value-compass/internal/portrait"
)

// Repository handles database operations
type Repository struct {
	db *DB
}

// NewRepository creates a new repository
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// SeedCatalog upserts the catalog's dimensions, questions and actors. Actor
// portraits are replaced wholesale. Rows missing from the catalog are left in
// place so existing answers keep their question references.
func (r *Repository) SeedCatalog(ctx context.Context, c *catalog.Catalog) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin seed transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()

	for _, d := range c.Dimensions {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO value_dimensions (key, name, description, left_pole, right_pole, left_description, right_description, position, active, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(key) DO UPDATE SET
				name = excluded.name,
				description = excluded.description,
				left_pole = excluded.left_pole,
				right_pole = excluded.right_pole,
				left_description = excluded.left_description,
				right_description = excluded.right_description,
				position = excluded.position,
				active = excluded.active,
				updated_at = excluded.updated_at
		`, d.Key, d.Name, d.Description, d.LeftPole, d.RightPole, d.LeftDescription, d.RightDescription, d.Position, d.Active, now)
		if err != nil {
			return fmt.Errorf("failed to seed dimension %s: %w", d.Key, err)
		}
	}

	for _, q := range c.Questions {
		options, err := json.Marshal(q.Options)
		if err != nil {
			return fmt.Errorf("failed to encode options for %s: %w", q.Key, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO questions (key, dimension_key, text, kind, options, difficulty, position, country, is_universal, active, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(key) DO UPDATE SET
				dimension_key = excluded.dimension_key,
				text = excluded.text,
				kind = excluded.kind,
				options = excluded.options,
				difficulty = excluded.difficulty,
				position = excluded.position,
				country = excluded.country,
				is_universal = excluded.is_universal,
				active = excluded.active,
				updated_at = excluded.updated_at
		`, q.Key, q.Dimension, q.Text, string(q.Kind), string(options), q.Difficulty, q.Position, q.Country, q.Universal, q.Active, now)
		if err != nil {
			return fmt.Errorf("failed to seed question %s: %w", q.Key, err)
		}
	}

	for _, a := range c.Actors {
		metadata, err := json.Marshal(a.Metadata)
		if err != nil {
			return fmt.Errorf("failed to encode metadata for %s: %w", a.Key, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO actors (id, name, actor_type, country, role, party_affiliation, description, program_url, active, metadata, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				name = excluded.name,
				actor_type = excluded.actor_type,
				country = excluded.country,
				role = excluded.role,
				party_affiliation = excluded.party_affiliation,
				description = excluded.description,
				program_url = excluded.program_url,
				active = excluded.active,
				metadata = excluded.metadata,
				updated_at = excluded.updated_at
		`, a.Key, a.Name, string(a.Type), a.Country, a.Role, a.Party, a.Description, a.ProgramURL, a.Active, string(metadata), now)
		if err != nil {
			return fmt.Errorf("failed to seed actor %s: %w", a.Key, err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM actor_portraits WHERE actor_id = ?`, a.Key); err != nil {
			return fmt.Errorf("failed to clear portrait for %s: %w", a.Key, err)
		}
		for _, e := range a.Portrait {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO actor_portraits (id, actor_id, dimension_key, position, intensity, confidence, updated_at)
				VALUES (?, ?, ?, ?, ?, ?, ?)
			`, uuid.New().String(), a.Key, e.Dimension, e.Position, e.Intensity, e.Confidence, now)
			if err != nil {
				return fmt.Errorf("failed to seed portrait for %s: %w", a.Key, err)
			}
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM interventions WHERE actor_id = ?`, a.Key); err != nil {
			return fmt.Errorf("failed to clear interventions for %s: %w", a.Key, err)
		}
		for _, in := range a.Interventions {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO interventions (id, actor_id, intervention_type, content, source_url, source_platform, published_at, active, updated_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			`, uuid.New().String(), a.Key, string(in.Type), in.Content, in.SourceURL, in.Platform, in.PublishedAt.UTC(), in.Active, now)
			if err != nil {
				return fmt.Errorf("failed to seed interventions for %s: %w", a.Key, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit seed: %w", err)
	}
	return nil
}

// ListDimensions returns active dimensions ordered by position
func (r *Repository) ListDimensions(ctx context.Context) ([]catalog.Dimension, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT key, name, description, left_pole, right_pole, left_description, right_description, position, active
		FROM value_dimensions
		WHERE active = TRUE
		ORDER BY position ASC, key ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query dimensions: %w", err)
	}
	defer rows.Close()

	var dims []catalog.Dimension
	for rows.Next() {
		var d catalog.Dimension
		var desc, leftDesc, rightDesc sql.NullString
		if err := rows.Scan(&d.Key, &d.Name, &desc, &d.LeftPole, &d.RightPole, &leftDesc, &rightDesc, &d.Position, &d.Active); err != nil {
			return nil, fmt.Errorf("failed to scan dimension: %w", err)
		}
		d.Description, d.LeftDescription, d.RightDescription = desc.String, leftDesc.String, rightDesc.String
		dims = append(dims, d)
	}
	return dims, rows.Err()
}

// ListQuestions returns active questions asked in country, ordered by position.
// An empty country returns universal questions only.
func (r *Repository) ListQuestions(ctx context.Context, country string) ([]catalog.Question, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT key, dimension_key, text, kind, options, difficulty, position, country, is_universal, active
		FROM questions
		WHERE active = TRUE AND (is_universal = TRUE OR (? != '' AND country = ? COLLATE NOCASE))
		ORDER BY position ASC, key ASC
	`, country, country)
	if err != nil {
		return nil, fmt.Errorf("failed to query questions: %w", err)
	}
	defer rows.Close()

	var questions []catalog.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// QuestionCounts returns the number of active questions per dimension
// across every country.
func (r *Repository) QuestionCounts(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT dimension_key, COUNT(*)
		FROM questions
		WHERE active = TRUE
		GROUP BY dimension_key
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to count questions: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var dim string
		var n int
		if err := rows.Scan(&dim, &n); err != nil {
			return nil, fmt.Errorf("failed to scan question count: %w", err)
		}
		counts[dim] = n
	}
	return counts, rows.Err()
}

// DimensionStats reports, per active dimension, its active question count,
// the number of subjects who answered it and their average position.
// Portrait entries with zero confidence belong to unanswered dimensions and
// are not counted.
func (r *Repository) DimensionStats(ctx context.Context) ([]DimensionStats, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT d.key, d.name,
			(SELECT COUNT(*) FROM questions q WHERE q.dimension_key = d.key AND q.active = TRUE),
			COUNT(DISTINCT sp.subject_id),
			AVG(sp.position)
		FROM value_dimensions d
		LEFT JOIN subject_portraits sp ON sp.dimension_key = d.key AND sp.confidence > 0
		WHERE d.active = TRUE
		GROUP BY d.key, d.name, d.position
		ORDER BY d.position ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query dimension stats: %w", err)
	}
	defer rows.Close()

	var stats []DimensionStats
	for rows.Next() {
		var ds DimensionStats
		var avg sql.NullFloat64
		if err := rows.Scan(&ds.Key, &ds.Name, &ds.QuestionCount, &ds.UserCount, &avg); err != nil {
			return nil, fmt.Errorf("failed to scan dimension stats: %w", err)
		}
		if avg.Valid {
			ds.AveragePosition = &avg.Float64
		}
		stats = append(stats, ds)
	}
	return stats, rows.Err()
}

// QuestionStats counts the stored answers of a question. The average is only
// computed for numeric kinds.
func (r *Repository) QuestionStats(ctx context.Context, key string) (*QuestionStats, error) {
	q, err := r.GetQuestion(ctx, key)
	if err != nil {
		return nil, err
	}

	var count int
	var avg sql.NullFloat64
	err = r.db.QueryRowContext(ctx, `
		SELECT COUNT(*), AVG(CAST(value AS REAL))
		FROM answers WHERE question_key = ?
	`, key).Scan(&count, &avg)
	if err != nil {
		return nil, fmt.Errorf("failed to query question stats: %w", err)
	}

	stats := &QuestionStats{Key: q.Key, Dimension: q.Dimension, Kind: q.Kind, AnswerCount: count}
	if avg.Valid && (q.Kind == portrait.KindDirectValue || q.Kind == portrait.KindTradeoffSlider) {
		stats.AverageAnswerValue = &avg.Float64
	}
	return stats, nil
}

// GetQuestion returns a question by key
func (r *Repository) GetQuestion(ctx context.Context, key string) (catalog.Question, error) {
	stmt, err := r.db.GetPreparedStatement(stmtGetQuestion)
	if err != nil {
		return catalog.Question{}, err
	}
	q, err := scanQuestion(stmt.QueryRowContext(ctx, key))
	if errors.Is(err, sql.ErrNoRows) {
		return catalog.Question{}, fmt.Errorf("question %s: %w", key, ErrNotFound)
	}
	return q, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanQuestion(s scanner) (catalog.Question, error) {
	var q catalog.Question
	var kind string
	var options, country sql.NullString
	if err := s.Scan(&q.Key, &q.Dimension, &q.Text, &kind, &options, &q.Difficulty, &q.Position, &country, &q.Universal, &q.Active); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return q, err
		}
		return q, fmt.Errorf("failed to scan question: %w", err)
	}
	q.Kind = portrait.Kind(kind)
	q.Country = country.String
	if options.Valid && options.String != "" && options.String != "null" {
		if err := json.Unmarshal([]byte(options.String), &q.Options); err != nil {
			return q, fmt.Errorf("failed to decode options for %s: %w", q.Key, err)
		}
	}
	return q, nil
}

// AnswerInput is one answer to store.
type AnswerInput struct {
	QuestionKey string
	Value       any
}

// InsertAnswers stores a batch of answers for a subject in one transaction.
// If any question was already answered nothing is stored and ErrAnswerExists
// is returned.
func (r *Repository) InsertAnswers(ctx context.Context, subjectID string, inputs []AnswerInput) error {
	stmt, err := r.db.GetPreparedStatement(stmtInsertAnswer)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin answer transaction: %w", err)
	}
	defer tx.Rollback()

	txStmt := tx.StmtContext(ctx, stmt)
	for _, in := range inputs {
		a := NewAnswer(subjectID, in.QuestionKey, in.Value)
		value, err := json.Marshal(a.Value)
		if err != nil {
			return fmt.Errorf("failed to encode answer for %s: %w", in.QuestionKey, err)
		}
		res, err := txStmt.ExecContext(ctx, a.ID, a.SubjectID, a.QuestionKey, string(value), a.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert answer for %s: %w", in.QuestionKey, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to read insert result: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("question %s: %w", in.QuestionKey, ErrAnswerExists)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit answers: %w", err)
	}
	return nil
}

// AnswersBySubject returns every stored answer of a subject with its
// question's dimension, kind and difficulty.
func (r *Repository) AnswersBySubject(ctx context.Context, subjectID string) ([]Answer, error) {
	stmt, err := r.db.GetPreparedStatement(stmtAnswersBySubject)
	if err != nil {
		return nil, err
	}
	rows, err := stmt.QueryContext(ctx, subjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to query answers: %w", err)
	}
	defer rows.Close()

	var answers []Answer
	for rows.Next() {
		a := Answer{SubjectID: subjectID}
		var kind, value string
		if err := rows.Scan(&a.QuestionKey, &a.Dimension, &kind, &a.Difficulty, &value, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan answer: %w", err)
		}
		a.Kind = portrait.Kind(kind)
		if err := json.Unmarshal([]byte(value), &a.Value); err != nil {
			return nil, fmt.Errorf("failed to decode answer for %s: %w", a.QuestionKey, err)
		}
		answers = append(answers, a)
	}
	return answers, rows.Err()
}

// UpsertSubjectPortrait writes one row per entry keyed by (subject, dimension).
func (r *Repository) UpsertSubjectPortrait(ctx context.Context, subjectID string, p portrait.Portrait) error {
	stmt, err := r.db.GetPreparedStatement(stmtUpsertSubjectPortrait)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin portrait transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	txStmt := tx.StmtContext(ctx, stmt)
	for _, e := range p.Entries {
		if _, err := txStmt.ExecContext(ctx, uuid.New().String(), subjectID, e.Dimension, e.Position, e.Intensity, e.Confidence, now); err != nil {
			return fmt.Errorf("failed to upsert portrait entry %s: %w", e.Dimension, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit portrait: %w", err)
	}
	return nil
}

// SubjectPortrait returns the stored entries of a subject. Entries are in
// storage order; callers project them onto the active dimensions.
func (r *Repository) SubjectPortrait(ctx context.Context, subjectID string) (*StoredPortrait, error) {
	stmt, err := r.db.GetPreparedStatement(stmtSubjectPortrait)
	if err != nil {
		return nil, err
	}
	rows, err := stmt.QueryContext(ctx, subjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to query portrait: %w", err)
	}
	defer rows.Close()

	sp := &StoredPortrait{SubjectID: subjectID}
	for rows.Next() {
		var e portrait.Entry
		var updated time.Time
		if err := rows.Scan(&e.Dimension, &e.Position, &e.Intensity, &e.Confidence, &updated); err != nil {
			return nil, fmt.Errorf("failed to scan portrait entry: %w", err)
		}
		if updated.After(sp.UpdatedAt) {
			sp.UpdatedAt = updated
		}
		sp.Entries = append(sp.Entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(sp.Entries) == 0 {
		return nil, fmt.Errorf("portrait for %s: %w", subjectID, ErrNotFound)
	}
	return sp, nil
}

// DeleteSubject removes all answers and portrait rows of a subject and
// returns the number of rows removed.
func (r *Repository) DeleteSubject(ctx context.Context, subjectID string) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin delete transaction: %w", err)
	}
	defer tx.Rollback()

	var total int64
	for _, query := range []string{
		`DELETE FROM answers WHERE subject_id = ?`,
		`DELETE FROM subject_portraits WHERE subject_id = ?`,
	} {
		res, err := tx.ExecContext(ctx, query, subjectID)
		if err != nil {
			return 0, fmt.Errorf("failed to delete subject data: %w", err)
		}
		n, _ := res.RowsAffected()
		total += n
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit delete: %w", err)
	}
	return total, nil
}

// PurgeSubjectsBefore deletes every subject whose latest answer is older
// than cutoff and returns how many subjects were removed.
func (r *Repository) PurgeSubjectsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin purge transaction: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx,
		`SELECT subject_id FROM answers GROUP BY subject_id HAVING MAX(created_at) < ?`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to query stale subjects: %w", err)
	}
	var subjects []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return 0, fmt.Errorf("failed to scan subject: %w", err)
		}
		subjects = append(subjects, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	for _, id := range subjects {
		for _, query := range []string{
			`DELETE FROM answers WHERE subject_id = ?`,
			`DELETE FROM subject_portraits WHERE subject_id = ?`,
		} {
			if _, err := tx.ExecContext(ctx, query, id); err != nil {
				return 0, fmt.Errorf("failed to purge subject data: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit purge: %w", err)
	}
	return int64(len(subjects)), nil
}

// ListActors returns active actors, filtered by country when given, ordered by name.
func (r *Repository) ListActors(ctx context.Context, country string) ([]ActorRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, actor_type, country, role, party_affiliation, description, program_url, active, metadata
		FROM actors
		WHERE active = TRUE AND (? = '' OR country = ? COLLATE NOCASE)
		ORDER BY name ASC
	`, country, country)
	if err != nil {
		return nil, fmt.Errorf("failed to query actors: %w", err)
	}
	defer rows.Close()

	var actors []ActorRecord
	for rows.Next() {
		a, err := scanActor(rows)
		if err != nil {
			return nil, err
		}
		actors = append(actors, a)
	}
	return actors, rows.Err()
}

// GetActor returns an actor by id
func (r *Repository) GetActor(ctx context.Context, id string) (*ActorRecord, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, actor_type, country, role, party_affiliation, description, program_url, active, metadata
		FROM actors WHERE id = ?
	`, id)
	a, err := scanActor(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("actor %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func scanActor(s scanner) (ActorRecord, error) {
	var a ActorRecord
	var country, role, party, desc, url, metadata sql.NullString
	if err := s.Scan(&a.ID, &a.Name, &a.Type, &country, &role, &party, &desc, &url, &a.Active, &metadata); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return a, err
		}
		return a, fmt.Errorf("failed to scan actor: %w", err)
	}
	a.Country, a.Role, a.Party, a.Description, a.ProgramURL = country.String, role.String, party.String, desc.String, url.String
	if metadata.Valid && metadata.String != "" && metadata.String != "null" {
		if err := json.Unmarshal([]byte(metadata.String), &a.Metadata); err != nil {
			return a, fmt.Errorf("failed to decode metadata for %s: %w", a.ID, err)
		}
	}
	return a, nil
}

// ActorPortraitRows returns the structured portrait rows of an actor. An
// actor without rows yields an empty slice, not an error.
func (r *Repository) ActorPortraitRows(ctx context.Context, actorID string) ([]portrait.Entry, error) {
	stmt, err := r.db.GetPreparedStatement(stmtActorPortrait)
	if err != nil {
		return nil, err
	}
	rows, err := stmt.QueryContext(ctx, actorID)
	if err != nil {
		return nil, fmt.Errorf("failed to query actor portrait: %w", err)
	}
	defer rows.Close()

	var entries []portrait.Entry
	for rows.Next() {
		var e portrait.Entry
		if err := rows.Scan(&e.Dimension, &e.Position, &e.Intensity, &e.Confidence); err != nil {
			return nil, fmt.Errorf("failed to scan actor portrait: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// RecentInterventions returns up to limit active interventions of an actor,
// newest first.
func (r *Repository) RecentInterventions(ctx context.Context, actorID string, limit int) ([]Intervention, error) {
	stmt, err := r.db.GetPreparedStatement(stmtRecentInterventions)
	if err != nil {
		return nil, err
	}
	rows, err := stmt.QueryContext(ctx, actorID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query interventions: %w", err)
	}
	defer rows.Close()

	interventions := []Intervention{}
	for rows.Next() {
		var in Intervention
		var platform, url sql.NullString
		if err := rows.Scan(&in.Type, &platform, &in.Content, &url, &in.PublishedAt); err != nil {
			return nil, fmt.Errorf("failed to scan intervention: %w", err)
		}
		in.Platform, in.SourceURL = platform.String, url.String
		interventions = append(interventions, in)
	}
	return interventions, rows.Err()
}
