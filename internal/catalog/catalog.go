package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ZanzyTHEbar/value-compass/internal/portrait"
)

//go:embed default.yaml
var defaultCatalog []byte

// ActorType classifies political actors.
type ActorType string

const (
	ActorParty        ActorType = "party"
	ActorPersonality  ActorType = "personality"
	ActorOrganization ActorType = "organization"
)

// Dimension is a value axis with two named poles.
type Dimension struct {
	Key              string `yaml:"key" json:"key"`
	Name             string `yaml:"name" json:"name"`
	Description      string `yaml:"description" json:"description,omitempty"`
	LeftPole         string `yaml:"left_pole" json:"left_pole"`
	RightPole        string `yaml:"right_pole" json:"right_pole"`
	LeftDescription  string `yaml:"left_description" json:"left_description,omitempty"`
	RightDescription string `yaml:"right_description" json:"right_description,omitempty"`
	Position         int    `yaml:"position" json:"position"`
	Active           bool   `yaml:"active" json:"active"`
}

// UnmarshalYAML defaults Active to true when the field is omitted.
func (d *Dimension) UnmarshalYAML(n *yaml.Node) error {
	type plain Dimension
	p := plain{Active: true}
	if err := n.Decode(&p); err != nil {
		return err
	}
	*d = Dimension(p)
	return nil
}

// Question belongs to exactly one dimension.
type Question struct {
	Key        string         `yaml:"key" json:"key"`
	Dimension  string         `yaml:"dimension" json:"dimension"`
	Text       string         `yaml:"text" json:"text"`
	Kind       portrait.Kind  `yaml:"kind" json:"kind"`
	Options    map[string]any `yaml:"options" json:"options,omitempty"`
	Difficulty int            `yaml:"difficulty" json:"difficulty"`
	Position   int            `yaml:"position" json:"position"`
	Country    string         `yaml:"country" json:"country,omitempty"`
	Universal  bool           `yaml:"universal" json:"universal"`
	Active     bool           `yaml:"active" json:"active"`
}

// UnmarshalYAML defaults Active to true, and Universal to true for
// questions without a country.
func (q *Question) UnmarshalYAML(n *yaml.Node) error {
	type plain Question
	p := plain{Active: true}
	if err := n.Decode(&p); err != nil {
		return err
	}
	if p.Country == "" {
		p.Universal = true
	}
	*q = Question(p)
	return nil
}

// AppliesTo reports whether the question is asked in country. An empty
// country only sees universal questions.
func (q Question) AppliesTo(country string) bool {
	if q.Universal {
		return true
	}
	return country != "" && strings.EqualFold(q.Country, country)
}

// Scoring returns the question metadata the portrait builder needs.
func (q Question) Scoring() portrait.Question {
	return portrait.Question{Key: q.Key, Dimension: q.Dimension, Kind: q.Kind, Difficulty: q.Difficulty}
}

// InterventionType classifies public statements of an actor.
type InterventionType string

const (
	InterventionTweet       InterventionType = "tweet"
	InterventionVideo       InterventionType = "video"
	InterventionDeclaration InterventionType = "declaration"
	InterventionSpeech      InterventionType = "speech"
	InterventionArticle     InterventionType = "article"
	InterventionInterview   InterventionType = "interview"
)

func (t InterventionType) valid() bool {
	switch t {
	case InterventionTweet, InterventionVideo, InterventionDeclaration,
		InterventionSpeech, InterventionArticle, InterventionInterview:
		return true
	}
	return false
}

// Intervention is a dated public statement of an actor.
type Intervention struct {
	Type        InterventionType `yaml:"type" json:"type"`
	Platform    string           `yaml:"platform" json:"platform,omitempty"`
	Content     string           `yaml:"content" json:"content"`
	SourceURL   string           `yaml:"source_url" json:"source_url,omitempty"`
	PublishedAt time.Time        `yaml:"published_at" json:"published_at"`
	Active      bool             `yaml:"active" json:"-"`
}

// UnmarshalYAML defaults Active to true when the field is omitted.
func (i *Intervention) UnmarshalYAML(n *yaml.Node) error {
	type plain Intervention
	p := plain{Active: true}
	if err := n.Decode(&p); err != nil {
		return err
	}
	*i = Intervention(p)
	return nil
}

// Actor is a party, personality or organization with a known portrait.
type Actor struct {
	Key         string           `yaml:"key" json:"key"`
	Name        string           `yaml:"name" json:"name"`
	Type        ActorType        `yaml:"type" json:"type"`
	Country     string           `yaml:"country" json:"country,omitempty"`
	Role        string           `yaml:"role" json:"role,omitempty"`
	Party       string           `yaml:"party" json:"party,omitempty"`
	Description string           `yaml:"description" json:"description,omitempty"`
	ProgramURL  string           `yaml:"program_url" json:"program_url,omitempty"`
	Active      bool             `yaml:"active" json:"active"`
	Portrait    []portrait.Entry `yaml:"portrait" json:"portrait,omitempty"`
	Metadata    map[string]any   `yaml:"metadata" json:"metadata,omitempty"`

	Interventions []Intervention `yaml:"interventions" json:"interventions,omitempty"`
}

// UnmarshalYAML defaults Active to true when the field is omitted.
func (a *Actor) UnmarshalYAML(n *yaml.Node) error {
	type plain Actor
	p := plain{Active: true}
	if err := n.Decode(&p); err != nil {
		return err
	}
	*a = Actor(p)
	return nil
}

// ValuePositions reads the legacy metadata.value_positions map. Entries that
// are not numeric are skipped.
func (a Actor) ValuePositions() map[string]float64 {
	return LegacyPositions(a.Metadata)
}

// LegacyPositions extracts value_positions from an actor metadata map.
func LegacyPositions(metadata map[string]any) map[string]float64 {
	raw, ok := metadata["value_positions"].(map[string]any)
	if !ok {
		return nil
	}
	out := make(map[string]float64, len(raw))
	for k, v := range raw {
		switch n := v.(type) {
		case int:
			out[k] = float64(n)
		case int64:
			out[k] = float64(n)
		case float64:
			out[k] = n
		case string:
			if f, err := strconv.ParseFloat(n, 64); err == nil {
				out[k] = f
			}
		}
	}
	return out
}

// Catalog is the reference data: dimensions, questions and actors.
type Catalog struct {
	Version    int         `yaml:"version" json:"version"`
	Dimensions []Dimension `yaml:"dimensions" json:"dimensions"`
	Questions  []Question  `yaml:"questions" json:"questions"`
	Actors     []Actor     `yaml:"actors" json:"actors"`
}

// Default returns the embedded catalog.
func Default() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// Load reads a catalog from path, or the embedded default when path is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML catalog.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks referential integrity and value domains. All problems are
// reported together.
func (c *Catalog) Validate() error {
	var errs []error

	dims := make(map[string]bool, len(c.Dimensions))
	for _, d := range c.Dimensions {
		if d.Key == "" {
			errs = append(errs, errors.New("dimension with empty key"))
			continue
		}
		if dims[d.Key] {
			errs = append(errs, fmt.Errorf("duplicate dimension %q", d.Key))
		}
		dims[d.Key] = true
	}

	questions := make(map[string]bool, len(c.Questions))
	for _, q := range c.Questions {
		if q.Key == "" {
			errs = append(errs, fmt.Errorf("question %q has empty key", q.Text))
			continue
		}
		if questions[q.Key] {
			errs = append(errs, fmt.Errorf("duplicate question %q", q.Key))
		}
		questions[q.Key] = true
		if !dims[q.Dimension] {
			errs = append(errs, fmt.Errorf("question %q: unknown dimension %q", q.Key, q.Dimension))
		}
		if _, err := portrait.ParseKind(string(q.Kind)); err != nil {
			errs = append(errs, fmt.Errorf("question %q: %w", q.Key, err))
		}
		if q.Difficulty < 1 || q.Difficulty > 5 {
			errs = append(errs, fmt.Errorf("question %q: difficulty %d not in [1,5]", q.Key, q.Difficulty))
		}
	}

	actors := make(map[string]bool, len(c.Actors))
	for _, a := range c.Actors {
		if a.Key == "" {
			errs = append(errs, fmt.Errorf("actor %q has empty key", a.Name))
			continue
		}
		if actors[a.Key] {
			errs = append(errs, fmt.Errorf("duplicate actor %q", a.Key))
		}
		actors[a.Key] = true
		switch a.Type {
		case ActorParty, ActorPersonality, ActorOrganization:
		default:
			errs = append(errs, fmt.Errorf("actor %q: unknown type %q", a.Key, a.Type))
		}
		for _, e := range a.Portrait {
			if !dims[e.Dimension] {
				errs = append(errs, fmt.Errorf("actor %q: unknown dimension %q", a.Key, e.Dimension))
			}
			if e.Position < -100 || e.Position > 100 || e.Intensity < 0 || e.Intensity > 100 || e.Confidence < 0 || e.Confidence > 100 {
				errs = append(errs, fmt.Errorf("actor %q: %s entry out of range", a.Key, e.Dimension))
			}
		}
		for i, in := range a.Interventions {
			if !in.Type.valid() {
				errs = append(errs, fmt.Errorf("actor %q: intervention %d: unknown type %q", a.Key, i, in.Type))
			}
			if strings.TrimSpace(in.Content) == "" {
				errs = append(errs, fmt.Errorf("actor %q: intervention %d: empty content", a.Key, i))
			}
			if in.PublishedAt.IsZero() {
				errs = append(errs, fmt.Errorf("actor %q: intervention %d: missing published_at", a.Key, i))
			}
		}
	}

	return errors.Join(errs...)
}

// ActiveDimensions returns active dimensions ordered by position.
func (c *Catalog) ActiveDimensions() []Dimension {
	out := make([]Dimension, 0, len(c.Dimensions))
	for _, d := range c.Dimensions {
		if d.Active {
			out = append(out, d)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out
}

// DimensionKeys returns the active dimension keys in order.
func (c *Catalog) DimensionKeys() []string {
	dims := c.ActiveDimensions()
	keys := make([]string, len(dims))
	for i, d := range dims {
		keys[i] = d.Key
	}
	return keys
}

// Dimension looks up a dimension by key.
func (c *Catalog) Dimension(key string) (Dimension, bool) {
	for _, d := range c.Dimensions {
		if d.Key == key {
			return d, true
		}
	}
	return Dimension{}, false
}

// QuestionsFor returns the active questions asked in country, in order.
func (c *Catalog) QuestionsFor(country string) []Question {
	out := make([]Question, 0, len(c.Questions))
	for _, q := range c.Questions {
		if q.Active && q.AppliesTo(country) {
			out = append(out, q)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out
}

// Question looks up a question by key.
func (c *Catalog) Question(key string) (Question, bool) {
	for _, q := range c.Questions {
		if q.Key == key {
			return q, true
		}
	}
	return Question{}, false
}

// QuestionCounts returns the number of active questions per dimension,
// whatever country they are asked in.
func (c *Catalog) QuestionCounts() map[string]int {
	counts := make(map[string]int)
	for _, q := range c.Questions {
		if q.Active {
			counts[q.Dimension]++
		}
	}
	return counts
}

// DimensionSpecs pairs each active dimension with its active question count.
func (c *Catalog) DimensionSpecs() []portrait.DimensionSpec {
	return Specs(c.ActiveDimensions(), c.QuestionCounts())
}

// ScoringQuestions returns portrait metadata for the questions asked in country.
func (c *Catalog) ScoringQuestions(country string) []portrait.Question {
	qs := c.QuestionsFor(country)
	out := make([]portrait.Question, len(qs))
	for i, q := range qs {
		out[i] = q.Scoring()
	}
	return out
}

// ActorsFor returns active actors for country, or all active actors when
// country is empty, ordered by name.
func (c *Catalog) ActorsFor(country string) []Actor {
	out := make([]Actor, 0, len(c.Actors))
	for _, a := range c.Actors {
		if !a.Active {
			continue
		}
		if country != "" && !strings.EqualFold(a.Country, country) {
			continue
		}
		out = append(out, a)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Actor looks up an actor by key.
func (c *Catalog) Actor(key string) (Actor, bool) {
	for _, a := range c.Actors {
		if a.Key == key {
			return a, true
		}
	}
	return Actor{}, false
}

// Specs pairs dims with their question counts. Coverage is always measured
// against every active question of a dimension so that a stored answer set
// yields the same portrait whichever country it is rebuilt for.
func Specs(dims []Dimension, counts map[string]int) []portrait.DimensionSpec {
	out := make([]portrait.DimensionSpec, len(dims))
	for i, d := range dims {
		out[i] = portrait.DimensionSpec{Key: d.Key, TotalQuestions: counts[d.Key]}
	}
	return out
}
