package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const dbFile = "value_compass.db"

// DB represents the database connection with pooling
type DB struct {
	*sql.DB
	pool     *ConnectionPool
	prepared map[string]*sql.Stmt
	mutex    sync.RWMutex
}

// ConnectionPool manages database connection pooling
type ConnectionPool struct {
	db           *sql.DB
	maxOpenConns int
	maxIdleConns int
	maxLifetime  time.Duration
}

// NewConnectionPool applies pool limits to db
func NewConnectionPool(db *sql.DB, maxOpen, maxIdle int, maxLifetime time.Duration) *ConnectionPool {
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(maxLifetime)

	return &ConnectionPool{
		db:           db,
		maxOpenConns: maxOpen,
		maxIdleConns: maxIdle,
		maxLifetime:  maxLifetime,
	}
}

// GetStats returns connection pool statistics
func (cp *ConnectionPool) GetStats() map[string]interface{} {
	stats := cp.db.Stats()

	return map[string]interface{}{
		"open_connections":     stats.OpenConnections,
		"in_use":               stats.InUse,
		"idle":                 stats.Idle,
		"max_open_connections": cp.maxOpenConns,
		"max_idle_connections": cp.maxIdleConns,
		"wait_count":           stats.WaitCount,
		"wait_duration_ms":     stats.WaitDuration.Milliseconds(),
	}
}

// NewDB opens (creating if needed) the sqlite database under dataDir and
// brings the schema up to date.
func NewDB(ctx context.Context, dataDir string) (*DB, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, dbFile)
	connStr := fmt.Sprintf("file:%s?_journal_mode=WAL&_synchronous=NORMAL&_foreign_keys=on&_busy_timeout=5000", dbPath)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// sqlite serializes writers; a small pool avoids SQLITE_BUSY churn
	pool := NewConnectionPool(db, 8, 4, 30*time.Minute)

	database := &DB{
		DB:       db,
		pool:     pool,
		prepared: make(map[string]*sql.Stmt),
	}

	if err := database.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := database.initPreparedStatements(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize prepared statements: %w", err)
	}

	slog.Info("Database initialized",
		"path", dbPath,
		"max_open_conns", pool.maxOpenConns,
		"max_idle_conns", pool.maxIdleConns)

	return database, nil
}

func (db *DB) migrate(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS value_dimensions (
			key TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT,
			left_pole TEXT NOT NULL,
			right_pole TEXT NOT NULL,
			left_description TEXT,
			right_description TEXT,
			position INTEGER NOT NULL DEFAULT 0,
			active BOOLEAN NOT NULL DEFAULT TRUE,
			updated_at DATETIME NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS questions (
			key TEXT PRIMARY KEY,
			dimension_key TEXT NOT NULL,
			text TEXT NOT NULL,
			kind TEXT NOT NULL, -- direct_value, tradeoff_slider, policy_preference, dilemma
			options TEXT, -- JSON
			difficulty INTEGER NOT NULL DEFAULT 1,
			position INTEGER NOT NULL DEFAULT 0,
			country TEXT,
			is_universal BOOLEAN NOT NULL DEFAULT TRUE,
			active BOOLEAN NOT NULL DEFAULT TRUE,
			updated_at DATETIME NOT NULL,
			FOREIGN KEY (dimension_key) REFERENCES value_dimensions(key)
		)`,

		`CREATE TABLE IF NOT EXISTS actors (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			actor_type TEXT NOT NULL, -- party, personality, organization
			country TEXT,
			role TEXT,
			party_affiliation TEXT,
			description TEXT,
			program_url TEXT,
			active BOOLEAN NOT NULL DEFAULT TRUE,
			metadata TEXT, -- JSON, may carry legacy value_positions
			updated_at DATETIME NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS actor_portraits (
			id TEXT PRIMARY KEY,
			actor_id TEXT NOT NULL,
			dimension_key TEXT NOT NULL,
			position REAL NOT NULL,
			intensity REAL NOT NULL,
			confidence REAL NOT NULL,
			updated_at DATETIME NOT NULL,
			UNIQUE(actor_id, dimension_key),
			FOREIGN KEY (actor_id) REFERENCES actors(id) ON DELETE CASCADE
		)`,

		`CREATE TABLE IF NOT EXISTS interventions (
			id TEXT PRIMARY KEY,
			actor_id TEXT NOT NULL,
			intervention_type TEXT NOT NULL, -- tweet, video, declaration, speech, article, interview
			content TEXT NOT NULL,
			source_url TEXT,
			source_platform TEXT,
			published_at DATETIME NOT NULL,
			active BOOLEAN NOT NULL DEFAULT TRUE,
			updated_at DATETIME NOT NULL,
			FOREIGN KEY (actor_id) REFERENCES actors(id) ON DELETE CASCADE
		)`,

		`CREATE TABLE IF NOT EXISTS answers (
			id TEXT PRIMARY KEY,
			subject_id TEXT NOT NULL,
			question_key TEXT NOT NULL,
			value TEXT NOT NULL, -- JSON encoded raw value
			created_at DATETIME NOT NULL,
			UNIQUE(subject_id, question_key),
			FOREIGN KEY (question_key) REFERENCES questions(key)
		)`,

		`CREATE TABLE IF NOT EXISTS subject_portraits (
			id TEXT PRIMARY KEY,
			subject_id TEXT NOT NULL,
			dimension_key TEXT NOT NULL,
			position REAL NOT NULL,
			intensity REAL NOT NULL,
			confidence REAL NOT NULL,
			updated_at DATETIME NOT NULL,
			UNIQUE(subject_id, dimension_key)
		)`,

		`CREATE INDEX IF NOT EXISTS idx_questions_dimension ON questions(dimension_key)`,
		`CREATE INDEX IF NOT EXISTS idx_answers_subject ON answers(subject_id)`,
		`CREATE INDEX IF NOT EXISTS idx_subject_portraits_subject ON subject_portraits(subject_id)`,
		`CREATE INDEX IF NOT EXISTS idx_actors_country ON actors(country)`,
		`CREATE INDEX IF NOT EXISTS idx_interventions_actor_published ON interventions(actor_id, published_at)`,
	}

	for _, query := range queries {
		if _, err := db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute migration: %w", err)
		}
	}

	return nil
}

const (
	stmtInsertAnswer          = "insert_answer"
	stmtAnswersBySubject      = "answers_by_subject"
	stmtUpsertSubjectPortrait = "upsert_subject_portrait"
	stmtSubjectPortrait       = "subject_portrait"
	stmtActorPortrait         = "actor_portrait"
	stmtGetQuestion           = "get_question"
	stmtRecentInterventions   = "recent_interventions"
)

func (db *DB) initPreparedStatements(ctx context.Context) error {
	statements := map[string]string{
		stmtInsertAnswer: `INSERT INTO answers (id, subject_id, question_key, value, created_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(subject_id, question_key) DO NOTHING`,

		stmtAnswersBySubject: `SELECT a.question_key, q.dimension_key, q.kind, q.difficulty, a.value, a.created_at
			FROM answers a JOIN questions q ON q.key = a.question_key
			WHERE a.subject_id = ?
			ORDER BY a.created_at ASC, a.question_key ASC`,

		stmtUpsertSubjectPortrait: `INSERT INTO subject_portraits (id, subject_id, dimension_key, position, intensity, confidence, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(subject_id, dimension_key) DO UPDATE SET
			position = excluded.position,
			intensity = excluded.intensity,
			confidence = excluded.confidence,
			updated_at = excluded.updated_at`,

		stmtSubjectPortrait: `SELECT dimension_key, position, intensity, confidence, updated_at
			FROM subject_portraits WHERE subject_id = ?`,

		stmtActorPortrait: `SELECT dimension_key, position, intensity, confidence
			FROM actor_portraits WHERE actor_id = ?`,

		stmtGetQuestion: `SELECT key, dimension_key, text, kind, options, difficulty, position, country, is_universal, active
			FROM questions WHERE key = ?`,

		stmtRecentInterventions: `SELECT intervention_type, source_platform, content, source_url, published_at
			FROM interventions
			WHERE actor_id = ? AND active = TRUE
			ORDER BY published_at DESC
			LIMIT ?`,
	}

	db.mutex.Lock()
	defer db.mutex.Unlock()

	for name, query := range statements {
		stmt, err := db.PrepareContext(ctx, query)
		if err != nil {
			return fmt.Errorf("failed to prepare statement %s: %w", name, err)
		}
		db.prepared[name] = stmt

		slog.Debug("Prepared statement initialized", "name", name)
	}

	return nil
}

// GetPreparedStatement retrieves a prepared statement
func (db *DB) GetPreparedStatement(name string) (*sql.Stmt, error) {
	db.mutex.RLock()
	defer db.mutex.RUnlock()

	stmt, exists := db.prepared[name]
	if !exists {
		return nil, fmt.Errorf("prepared statement %s not found", name)
	}

	return stmt, nil
}

// GetPoolStats returns database connection pool statistics
func (db *DB) GetPoolStats() map[string]interface{} {
	return db.pool.GetStats()
}

// Close closes the database connection and prepared statements
func (db *DB) Close() error {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	for name, stmt := range db.prepared {
		if err := stmt.Close(); err != nil {
			slog.Warn("Failed to close prepared statement", "name", name, "error", err)
		}
	}
	db.prepared = make(map[string]*sql.Stmt)

	return db.DB.Close()
}
