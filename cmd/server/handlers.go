package main

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ZanzyTHEbar/value-compass/internal/catalog"
	"github.com/ZanzyTHEbar/value-compass/internal/database"
	apperrors "github.com/ZanzyTHEbar/value-compass/internal/errors"
	"github.com/ZanzyTHEbar/value-compass/internal/portrait"
	"github.com/ZanzyTHEbar/value-compass/internal/ranking"
	"github.com/ZanzyTHEbar/value-compass/internal/types"
)

const (
	defaultRankingLimit = 10
	maxRankingLimit     = 100
	positionBound       = 100.0
)

// health godoc
// @Summary Service health
// @Tags system
// @Produce json
// @Success 200 {object} types.HealthResponse
// @Failure 503 {object} types.HealthResponse
// @Router /health [get]
func (a *application) health(c *gin.Context) {
	resp := types.HealthResponse{
		Status:    "ok",
		Version:   version,
		Timestamp: time.Now().UTC(),
		Database:  a.db.GetPoolStats(),
		Cache:     a.cache.Stats(),
		RateLimit: a.limiter.GetStats(),
		Metrics:   a.metrics.GetStats(),

		Compression: a.compression.GetStats(),
		Privacy:     a.privacy.RetentionInfo(),
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := a.db.PingContext(ctx); err != nil {
		a.logger.Error("Health check failed", "component", "database", "error", err)
		resp.Status = "degraded"
		c.JSON(http.StatusServiceUnavailable, resp)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// listDimensions godoc
// @Summary Active value dimensions
// @Tags catalog
// @Produce json
// @Success 200 {object} types.ListResponse[catalog.Dimension]
// @Router /api/v1/dimensions [get]
func (a *application) listDimensions(c *gin.Context) {
	dims, err := a.service.Dimensions(c.Request.Context())
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, types.ListResponse[catalog.Dimension]{Items: dims, Total: len(dims)})
}

// listQuestions godoc
// @Summary Questions asked in a country
// @Tags catalog
// @Produce json
// @Param country query string false "Country filter; universal questions are always included"
// @Success 200 {object} types.ListResponse[catalog.Question]
// @Failure 400 {object} apperrors.AppError
// @Router /api/v1/questions [get]
func (a *application) listQuestions(c *gin.Context) {
	questions, err := a.service.Questions(c.Request.Context(), c.GetString("country"))
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, types.ListResponse[catalog.Question]{Items: questions, Total: len(questions)})
}

// listActors godoc
// @Summary Active political actors
// @Tags catalog
// @Produce json
// @Param country query string false "Country filter"
// @Success 200 {object} types.ListResponse[database.ActorRecord]
// @Failure 400 {object} apperrors.AppError
// @Router /api/v1/actors [get]
func (a *application) listActors(c *gin.Context) {
	actors, err := a.service.Actors(c.Request.Context(), c.GetString("country"))
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, types.ListResponse[database.ActorRecord]{Items: actors, Total: len(actors)})
}

// dimensionStats godoc
// @Summary Answer statistics per dimension
// @Tags catalog
// @Produce json
// @Success 200 {object} types.ListResponse[database.DimensionStats]
// @Router /api/v1/dimensions/stats [get]
func (a *application) dimensionStats(c *gin.Context) {
	stats, err := a.service.DimensionStats(c.Request.Context())
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, types.ListResponse[database.DimensionStats]{Items: stats, Total: len(stats)})
}

// questionStats godoc
// @Summary Answer statistics of one question
// @Tags catalog
// @Produce json
// @Param key path string true "Question key"
// @Success 200 {object} database.QuestionStats
// @Failure 404 {object} apperrors.AppError
// @Router /api/v1/questions/{key}/stats [get]
func (a *application) questionStats(c *gin.Context) {
	stats, err := a.service.QuestionStats(c.Request.Context(), c.Param("key"))
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// actorDetail godoc
// @Summary Actor with its portrait and recent interventions
// @Tags catalog
// @Produce json
// @Param actor path string true "Actor id"
// @Success 200 {object} compass.ActorDetail
// @Failure 404 {object} apperrors.AppError
// @Router /api/v1/actors/{actor} [get]
func (a *application) actorDetail(c *gin.Context) {
	detail, err := a.service.ActorDetail(c.Request.Context(), c.Param("actor"))
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// normalize godoc
// @Summary Normalize one raw answer
// @Tags scoring
// @Accept json
// @Produce json
// @Param request body types.NormalizeRequest true "Answer"
// @Success 200 {object} types.NormalizeResponse
// @Failure 400 {object} apperrors.AppError
// @Router /api/v1/normalize [post]
func (a *application) normalize(c *gin.Context) {
	var req types.NormalizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.Respond(c, apperrors.NewValidationError("Invalid request body", err.Error()))
		return
	}

	normalized, err := portrait.NormalizeRaw(req.Kind, req.Value)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, types.NormalizeResponse{Kind: req.Kind, Normalized: normalized})
}

// dimensionAlignment godoc
// @Summary Alignment of two positions on one dimension
// @Tags scoring
// @Accept json
// @Produce json
// @Param request body types.DimensionAlignmentRequest true "Positions in [-100,100]"
// @Success 200 {object} types.DimensionAlignmentResponse
// @Failure 400 {object} apperrors.AppError
// @Router /api/v1/alignment/dimension [post]
func (a *application) dimensionAlignment(c *gin.Context) {
	var req types.DimensionAlignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.Respond(c, apperrors.NewValidationError("Invalid request body", err.Error()))
		return
	}

	invalid := map[string]string{}
	if !inBounds(*req.UserPosition) {
		invalid["user_position"] = "must be between -100 and 100"
	}
	if !inBounds(*req.OtherPosition) {
		invalid["other_position"] = "must be between -100 and 100"
	}
	if len(invalid) > 0 {
		apperrors.Respond(c, apperrors.NewValidationErrorWithMap(invalid))
		return
	}

	score := portrait.DimensionAlignment(*req.UserPosition, *req.OtherPosition)
	c.JSON(http.StatusOK, types.DimensionAlignmentResponse{
		Alignment: score,
		Label:     portrait.AlignmentLabel(score),
		Color:     portrait.AlignmentColor(score),
	})
}

func inBounds(p float64) bool {
	return p >= -positionBound && p <= positionBound
}

// previewPortrait godoc
// @Summary Portrait of an unsaved answer sheet
// @Tags portraits
// @Accept json
// @Produce json
// @Param request body types.PreviewRequest true "Answer sheet"
// @Success 200 {object} types.PreviewResponse
// @Failure 400 {object} apperrors.AppError
// @Router /api/v1/portraits/preview [post]
func (a *application) previewPortrait(c *gin.Context) {
	var req types.PreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.Respond(c, apperrors.NewValidationError("Invalid request body", err.Error()))
		return
	}
	country, err := a.guard.SanitizeCountry(req.Country)
	if err != nil {
		apperrors.Respond(c, apperrors.NewValidationError("Invalid country", err.Error()))
		return
	}

	ctx := c.Request.Context()
	sheet, err := a.service.NewSheet(ctx, country, req.Answers, req.Skipped)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	preview, err := a.service.Preview(ctx, sheet, country)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	dims, err := a.service.Dimensions(ctx)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, types.PreviewResponse{
		PortraitResponse: types.NewPortraitResponse("", preview.Portrait, dims),
		Answered:         preview.Answered,
		Skipped:          preview.Skipped,
		Total:            preview.Total,
		Progress:         preview.Progress,
	})
}

// submitAnswers godoc
// @Summary Submit answers for a subject
// @Description Stores the answers and returns the rebuilt portrait. A question can be answered once per subject.
// @Tags subjects
// @Accept json
// @Produce json
// @Param id path string true "Subject id"
// @Param request body types.SubmitAnswersRequest true "Answers"
// @Success 200 {object} types.PortraitResponse
// @Failure 400 {object} apperrors.AppError
// @Failure 409 {object} apperrors.AppError
// @Failure 429 {object} apperrors.AppError
// @Router /api/v1/subjects/{id}/answers [post]
func (a *application) submitAnswers(c *gin.Context) {
	var req types.SubmitAnswersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.Respond(c, apperrors.NewValidationError("Invalid request body", err.Error()))
		return
	}
	country, err := a.guard.SanitizeCountry(req.Country)
	if err != nil {
		apperrors.Respond(c, apperrors.NewValidationError("Invalid country", err.Error()))
		return
	}

	subjectID := c.Param("id")
	ctx := c.Request.Context()
	p, err := a.service.SubmitAnswers(ctx, subjectID, country, req.Answers)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	a.respondPortrait(c, subjectID, p)
}

// getPortrait godoc
// @Summary Stored portrait of a subject
// @Tags subjects
// @Produce json
// @Param id path string true "Subject id"
// @Success 200 {object} types.PortraitResponse
// @Failure 404 {object} apperrors.AppError
// @Router /api/v1/subjects/{id}/portrait [get]
func (a *application) getPortrait(c *gin.Context) {
	subjectID := c.Param("id")
	p, err := a.service.Portrait(c.Request.Context(), subjectID)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	a.respondPortrait(c, subjectID, p)
}

func (a *application) respondPortrait(c *gin.Context, subjectID string, p portrait.Portrait) {
	dims, err := a.service.Dimensions(c.Request.Context())
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, types.NewPortraitResponse(subjectID, p, dims))
}

// deleteSubject godoc
// @Summary Delete every answer and the portrait of a subject
// @Tags subjects
// @Param id path string true "Subject id"
// @Success 204
// @Failure 404 {object} apperrors.AppError
// @Router /api/v1/subjects/{id} [delete]
func (a *application) deleteSubject(c *gin.Context) {
	if err := a.service.DeleteSubject(c.Request.Context(), c.Param("id")); err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// actorAlignment godoc
// @Summary Compare a subject with an actor
// @Tags alignment
// @Produce json
// @Param id path string true "Subject id"
// @Param actor path string true "Actor id"
// @Success 200 {object} compass.Alignment
// @Failure 404 {object} apperrors.AppError
// @Router /api/v1/subjects/{id}/actors/{actor}/alignment [get]
func (a *application) actorAlignment(c *gin.Context) {
	alignment, err := a.service.CompareWithActor(c.Request.Context(), c.Param("id"), c.Param("actor"))
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, alignment)
}

// rankings godoc
// @Summary Actors ranked by alignment with a subject
// @Tags alignment
// @Produce json
// @Param id path string true "Subject id"
// @Param limit query int false "Maximum rows (1-100)" default(10)
// @Param country query string false "Country filter"
// @Success 200 {object} types.ListResponse[ranking.Ranked]
// @Failure 400 {object} apperrors.AppError
// @Failure 404 {object} apperrors.AppError
// @Router /api/v1/subjects/{id}/rankings [get]
func (a *application) rankings(c *gin.Context) {
	limit := defaultRankingLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxRankingLimit {
			apperrors.Respond(c, apperrors.NewValidationError("Invalid limit", "limit must be an integer between 1 and 100"))
			return
		}
		limit = n
	}

	ranked, err := a.service.Rank(c.Request.Context(), c.Param("id"), c.GetString("country"), limit)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, types.ListResponse[ranking.Ranked]{Items: ranked, Total: len(ranked)})
}
