package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZanzyTHEbar/value-compass/internal/catalog"
	"github.com/ZanzyTHEbar/value-compass/internal/portrait"
)

func TestNewPortraitResponse(t *testing.T) {
	dims := []catalog.Dimension{
		{Key: "liberty_authority", LeftPole: "Individual Liberty", RightPole: "Collective Authority"},
		{Key: "economic_equality", LeftPole: "Economic Equality", RightPole: "Free Markets"},
	}
	p := portrait.Portrait{Entries: []portrait.Entry{
		{Dimension: "liberty_authority", Position: -35, Intensity: 60, Confidence: 75},
		{Dimension: "economic_equality", Position: 80, Intensity: 80, Confidence: 40},
	}}

	resp := NewPortraitResponse("s1", p, dims)
	require.Len(t, resp.Entries, 2)

	la := resp.Entries[0]
	assert.Equal(t, "Moderate Individual Liberty", la.Label)
	assert.Equal(t, "left", la.Lean)
	assert.Equal(t, "moderate", la.Strength)
	assert.True(t, la.HighConfidence)

	ee := resp.Entries[1]
	assert.Equal(t, "Strong Free Markets", ee.Label)
	assert.True(t, ee.LowConfidence)

	data, err := json.Marshal(resp)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	first := decoded["entries"].([]any)[0].(map[string]any)
	assert.Equal(t, "liberty_authority", first["dimension"])
	assert.Equal(t, -35.0, first["position"])
	assert.Equal(t, "left", first["lean"])
}
