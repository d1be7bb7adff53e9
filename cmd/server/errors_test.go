package main

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZanzyTHEbar/value-compass/internal/compass"
	"github.com/ZanzyTHEbar/value-compass/internal/database"
	apperrors "github.com/ZanzyTHEbar/value-compass/internal/errors"
	"github.com/ZanzyTHEbar/value-compass/internal/portrait"
)

func TestDomainErrorMappings(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		category apperrors.ErrorCategory
		status   int
	}{
		{"out of range", fmt.Errorf("dimension x: question y: %w", portrait.ErrOutOfRange), apperrors.CategoryValidation, http.StatusBadRequest},
		{"invalid kind", portrait.ErrInvalidAnswerKind, apperrors.CategoryValidation, http.StatusBadRequest},
		{"unknown question", portrait.ErrUnknownQuestion, apperrors.CategoryValidation, http.StatusBadRequest},
		{"skip limit", portrait.ErrSkipLimit, apperrors.CategoryValidation, http.StatusBadRequest},
		{"no answers", compass.ErrNoAnswers, apperrors.CategoryValidation, http.StatusBadRequest},
		{"not found", fmt.Errorf("subject s1: %w", database.ErrNotFound), apperrors.CategoryNotFound, http.StatusNotFound},
		{"answer exists", database.ErrAnswerExists, apperrors.CategoryConflict, http.StatusConflict},
		{"already answered", portrait.ErrAlreadyAnswered, apperrors.CategoryConflict, http.StatusConflict},
		{"unmapped", errors.New("disk on fire"), apperrors.CategoryInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			appErr := apperrors.ToAppError(tt.err)
			require.NotNil(t, appErr)
			assert.Equal(t, tt.category, appErr.Category)
			assert.Equal(t, tt.status, appErr.HTTPStatus)
		})
	}
}
