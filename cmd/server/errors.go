package main

import (
	"github.com/ZanzyTHEbar/value-compass/internal/compass"
	"github.com/ZanzyTHEbar/value-compass/internal/database"
	apperrors "github.com/ZanzyTHEbar/value-compass/internal/errors"
	"github.com/ZanzyTHEbar/value-compass/internal/portrait"
)

func init() {
	registerErrorMappings()
}

// registerErrorMappings tells the error layer how the domain sentinels
// surface over HTTP.
func registerErrorMappings() {
	apperrors.Register(apperrors.CategoryValidation, "Invalid answer",
		portrait.ErrInvalidAnswerKind,
		portrait.ErrOutOfRange,
		portrait.ErrUnknownQuestion,
		portrait.ErrSkipLimit,
		compass.ErrNoAnswers,
	)
	apperrors.Register(apperrors.CategoryNotFound, "Resource not found", database.ErrNotFound)
	apperrors.Register(apperrors.CategoryConflict, "Question already answered",
		database.ErrAnswerExists,
		portrait.ErrAlreadyAnswered,
	)
}
