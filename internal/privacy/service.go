// Package privacy pseudonymizes subject ids for logs and enforces the
// retention window of stored answers.
package privacy

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"time"

	"github.com/ZanzyTHEbar/value-compass/internal/monitoring"
)

// Purger removes subjects whose latest answer predates a cutoff.
// *database.Repository implements it.
type Purger interface {
	PurgeSubjectsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// HashSubject returns a short, stable pseudonym of a subject id. Log lines
// carry this instead of the id the client chose.
func HashSubject(subjectID string) string {
	hash := sha256.Sum256([]byte(subjectID))
	return hex.EncodeToString(hash[:])[:12]
}

// Service handles data retention
type Service struct {
	store     Purger
	retention time.Duration
	logger    *monitoring.Logger
	now       func() time.Time
}

// NewService creates a new privacy service. A zero retention keeps answers
// forever.
func NewService(store Purger, retention time.Duration, logger *monitoring.Logger) *Service {
	if logger == nil {
		logger = monitoring.NewLoggerTo(io.Discard, "error")
	}
	return &Service{
		store:     store,
		retention: retention,
		logger:    logger,
		now:       time.Now,
	}
}

// PurgeStale deletes subjects that have not answered within the retention
// window and returns how many were removed.
func (s *Service) PurgeStale(ctx context.Context) (int64, error) {
	if s.retention <= 0 {
		return 0, nil
	}
	cutoff := s.now().Add(-s.retention)

	n, err := s.store.PurgeSubjectsBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge stale subjects: %w", err)
	}

	s.logger.Info("Data cleanup completed", "cutoff", cutoff.UTC(), "subjects_deleted", n)
	return n, nil
}

// Run purges on every tick until ctx is done.
func (s *Service) Run(ctx context.Context, interval time.Duration) {
	if s.retention <= 0 || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.PurgeStale(ctx); err != nil {
				s.logger.Warn("Scheduled cleanup failed", "error", err)
			}
		}
	}
}

// RetentionInfo describes the retention policy for the health endpoint.
func (s *Service) RetentionInfo() map[string]interface{} {
	return map[string]interface{}{
		"answer_retention_hours": s.retention.Hours(),
		"anonymization_method":   "SHA-256",
	}
}
