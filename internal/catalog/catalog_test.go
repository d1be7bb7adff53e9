package catalog

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZanzyTHEbar/value-compass/internal/portrait"
)

func TestDefaultCatalog(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	keys := c.DimensionKeys()
	assert.Equal(t, []string{
		"liberty_authority",
		"economic_equality",
		"tradition_progress",
		"nationalism_globalism",
		"security_privacy",
		"meritocracy_equity",
		"environment_growth",
		"direct_representative",
	}, keys)

	universal := c.QuestionsFor("")
	assert.Len(t, universal, 24)
	specs := make(map[string]int)
	for _, spec := range c.DimensionSpecs() {
		specs[spec.Key] = spec.TotalQuestions
	}
	assert.Equal(t, 5, specs["liberty_authority"], "country questions count toward coverage")
	assert.Equal(t, 3, specs["security_privacy"])
	assert.Equal(t, c.QuestionCounts()["economic_equality"], specs["economic_equality"])

	us := c.QuestionsFor("united states")
	assert.Len(t, us, 31)

	dem, ok := c.Actor("democratic-party")
	require.True(t, ok)
	assert.Equal(t, ActorParty, dem.Type)
	assert.Len(t, dem.Portrait, 8)
	assert.True(t, dem.Active)
	assert.Empty(t, dem.ValuePositions())

	lib, ok := c.Actor("libertarian-party")
	require.True(t, ok)
	assert.Empty(t, lib.Portrait)
	assert.Equal(t, -70.0, lib.ValuePositions()["liberty_authority"])
}

func TestQuestionDefaults(t *testing.T) {
	c, err := Parse([]byte(`
dimensions:
  - {key: a, name: A, left_pole: L, right_pole: R, position: 2}
  - {key: b, name: B, left_pole: L, right_pole: R, position: 1, active: false}
questions:
  - {key: q1, dimension: a, text: one, kind: direct_value, difficulty: 1, position: 2}
  - {key: q2, dimension: a, text: two, kind: dilemma, difficulty: 3, position: 1, country: France}
  - {key: q3, dimension: a, text: three, kind: tradeoff_slider, difficulty: 2, position: 3, active: false}
actors:
  - {key: x, name: X, type: organization}
`))
	require.NoError(t, err)

	assert.Equal(t, []string{"a"}, c.DimensionKeys())

	q1, _ := c.Question("q1")
	assert.True(t, q1.Universal)
	assert.True(t, q1.Active)
	q2, _ := c.Question("q2")
	assert.False(t, q2.Universal)

	assert.Len(t, c.QuestionsFor(""), 1)
	fr := c.QuestionsFor("france")
	require.Len(t, fr, 2)
	assert.Equal(t, "q2", fr[0].Key)

	assert.Equal(t, []portrait.DimensionSpec{{Key: "a", TotalQuestions: 2}}, c.DimensionSpecs())
	assert.Equal(t, []portrait.Question{
		{Key: "q2", Dimension: "a", Kind: portrait.KindDilemma, Difficulty: 3},
		{Key: "q1", Dimension: "a", Kind: portrait.KindDirectValue, Difficulty: 1},
	}, c.ScoringQuestions("France"))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr string
	}{
		{
			name: "unknown dimension",
			doc: `
dimensions: [{key: a}]
questions: [{key: q, dimension: z, kind: dilemma, difficulty: 1}]`,
			wantErr: `unknown dimension "z"`,
		},
		{
			name: "unknown kind",
			doc: `
dimensions: [{key: a}]
questions: [{key: q, dimension: a, kind: ranking, difficulty: 1}]`,
			wantErr: "invalid answer kind",
		},
		{
			name: "difficulty out of range",
			doc: `
dimensions: [{key: a}]
questions: [{key: q, dimension: a, kind: dilemma, difficulty: 6}]`,
			wantErr: "difficulty 6",
		},
		{
			name: "duplicate question",
			doc: `
dimensions: [{key: a}]
questions:
  - {key: q, dimension: a, kind: dilemma, difficulty: 1}
  - {key: q, dimension: a, kind: dilemma, difficulty: 1}`,
			wantErr: `duplicate question "q"`,
		},
		{
			name: "bad actor type",
			doc: `
dimensions: [{key: a}]
actors: [{key: x, type: union}]`,
			wantErr: `unknown type "union"`,
		},
		{
			name: "actor portrait out of range",
			doc: `
dimensions: [{key: a}]
actors: [{key: x, type: party, portrait: [{dimension: a, position: 140}]}]`,
			wantErr: "out of range",
		},
		{
			name: "bad intervention type",
			doc: `
dimensions: [{key: a}]
actors: [{key: x, type: personality, interventions: [{type: podcast, content: hi, published_at: 2024-01-01T00:00:00Z}]}]`,
			wantErr: `intervention 0: unknown type "podcast"`,
		},
		{
			name: "intervention without date",
			doc: `
dimensions: [{key: a}]
actors: [{key: x, type: personality, interventions: [{type: tweet, content: hi}]}]`,
			wantErr: "missing published_at",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestInterventions(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	biden, ok := c.Actor("joe-biden")
	require.True(t, ok)
	require.Len(t, biden.Interventions, 6)
	first := biden.Interventions[0]
	assert.Equal(t, InterventionTweet, first.Type)
	assert.Equal(t, "twitter", first.Platform)
	assert.True(t, first.Active, "active defaults to true")
	assert.Equal(t, time.Date(2024, 3, 10, 15, 0, 0, 0, time.UTC), first.PublishedAt.UTC())

	sanders, ok := c.Actor("bernie-sanders")
	require.True(t, ok)
	require.Len(t, sanders.Interventions, 3)
	assert.False(t, sanders.Interventions[2].Active)

	party, ok := c.Actor("democratic-party")
	require.True(t, ok)
	assert.Empty(t, party.Interventions)
}

func TestLoad(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)
	assert.NotEmpty(t, c.Actors)

	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte("dimensions: [{key: solo}]\n"), 0o644))
	c, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"solo"}, c.DimensionKeys())

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestActorsFor(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	all := c.ActorsFor("")
	assert.Len(t, all, 8)
	assert.Equal(t, "Bernie Sanders", all[0].Name)

	assert.Len(t, c.ActorsFor("United States"), 8)
	assert.Empty(t, c.ActorsFor("Canada"))
}

func TestLegacyPositions(t *testing.T) {
	got := LegacyPositions(map[string]any{
		"value_positions": map[string]any{"a": 10, "b": -20.5, "c": "30", "d": true},
	})
	assert.Equal(t, map[string]float64{"a": 10, "b": -20.5, "c": 30}, got)
	assert.Nil(t, LegacyPositions(nil))
}
