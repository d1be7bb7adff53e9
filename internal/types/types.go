// Package types holds the request and response bodies of the HTTP API.
package types

import (
	"time"

	"github.com/ZanzyTHEbar/value-compass/internal/catalog"
	"github.com/ZanzyTHEbar/value-compass/internal/compass"
	"github.com/ZanzyTHEbar/value-compass/internal/portrait"
)

// NormalizeRequest asks for the normalized value of one raw answer.
type NormalizeRequest struct {
	Kind  string `json:"kind" binding:"required" example:"direct_value"`
	Value any    `json:"value" swaggertype:"string" example:"4"`
}

// NormalizeResponse is the normalized value on the [-100,100] scale.
type NormalizeResponse struct {
	Kind       string  `json:"kind"`
	Normalized float64 `json:"normalized" example:"50"`
}

// DimensionAlignmentRequest carries two positions on one dimension.
type DimensionAlignmentRequest struct {
	UserPosition  *float64 `json:"user_position" binding:"required" example:"40"`
	OtherPosition *float64 `json:"other_position" binding:"required" example:"-20"`
}

// DimensionAlignmentResponse scores two positions.
type DimensionAlignmentResponse struct {
	Alignment int    `json:"alignment" example:"70"`
	Label     string `json:"label" example:"Moderate Alignment"`
	Color     string `json:"color" example:"blue"`
}

// PreviewRequest is an unsaved answer sheet.
type PreviewRequest struct {
	Country string           `json:"country,omitempty" example:"United States"`
	Answers []compass.Answer `json:"answers"`
	Skipped []string         `json:"skipped,omitempty"`
}

// SubmitAnswersRequest is a batch of answers for one subject.
type SubmitAnswersRequest struct {
	Country string           `json:"country,omitempty" example:"United States"`
	Answers []compass.Answer `json:"answers" binding:"required"`
}

// PortraitEntryView is a portrait entry with its presentation labels.
type PortraitEntryView struct {
	portrait.Entry
	Label          string `json:"label" example:"Moderate Individual Liberty"`
	Lean           string `json:"lean" example:"left"`
	Strength       string `json:"strength" example:"moderate"`
	HighConfidence bool   `json:"high_confidence"`
	LowConfidence  bool   `json:"low_confidence"`
}

// PortraitResponse is a subject portrait.
type PortraitResponse struct {
	SubjectID string              `json:"subject_id,omitempty"`
	Entries   []PortraitEntryView `json:"entries"`
}

// NewPortraitResponse labels every entry using the poles of its dimension.
func NewPortraitResponse(subjectID string, p portrait.Portrait, dims []catalog.Dimension) PortraitResponse {
	poles := make(map[string]catalog.Dimension, len(dims))
	for _, d := range dims {
		poles[d.Key] = d
	}
	entries := make([]PortraitEntryView, 0, len(p.Entries))
	for _, e := range p.Entries {
		d := poles[e.Dimension]
		entries = append(entries, PortraitEntryView{
			Entry:          e,
			Label:          e.PositionLabel(d.LeftPole, d.RightPole),
			Lean:           string(e.Lean()),
			Strength:       string(e.Strength()),
			HighConfidence: e.HighConfidence(),
			LowConfidence:  e.LowConfidence(),
		})
	}
	return PortraitResponse{SubjectID: subjectID, Entries: entries}
}

// PreviewResponse is a portrait built from an unsaved sheet.
type PreviewResponse struct {
	PortraitResponse
	Answered int `json:"answered"`
	Skipped  int `json:"skipped"`
	Total    int `json:"total"`
	Progress int `json:"progress"`
}

// ListResponse wraps a collection with its size.
type ListResponse[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
}

// HealthResponse is returned by the health endpoint.
type HealthResponse struct {
	Status    string                 `json:"status" example:"ok"`
	Version   string                 `json:"version" example:"1.0.0"`
	Timestamp time.Time              `json:"timestamp"`
	Database  map[string]interface{} `json:"database,omitempty"`
	Cache     map[string]interface{} `json:"cache,omitempty"`
	RateLimit map[string]interface{} `json:"rate_limit,omitempty"`
	Metrics   map[string]interface{} `json:"metrics,omitempty"`

	Compression map[string]interface{} `json:"compression,omitempty"`
	Privacy     map[string]interface{} `json:"privacy,omitempty"`
}
