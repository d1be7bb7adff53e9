package portrait

import "fmt"

// Entry is the derived portrait row for one (subject, dimension) pair.
type Entry struct {
	Dimension  string  `json:"dimension"`
	Position   float64 `json:"position"`
	Intensity  float64 `json:"intensity"`
	Confidence float64 `json:"confidence"`
	// PositionOnly marks entries that came from a flat position map with no
	// intensity or confidence recorded.
	PositionOnly bool `json:"position_only,omitempty"`
}

// Measures returns the numeric part of the entry.
func (e Entry) Measures() Measures {
	return Measures{Position: e.Position, Intensity: e.Intensity, Confidence: e.Confidence}
}

// Portrait holds exactly one entry per active dimension, in dimension order.
type Portrait struct {
	Entries []Entry `json:"entries"`
}

// Entry looks up the entry for a dimension key.
func (p Portrait) Entry(dimension string) (Entry, bool) {
	for _, e := range p.Entries {
		if e.Dimension == dimension {
			return e, true
		}
	}
	return Entry{}, false
}

// Positions flattens the portrait to dimension -> position.
func (p Portrait) Positions() map[string]float64 {
	out := make(map[string]float64, len(p.Entries))
	for _, e := range p.Entries {
		out[e.Dimension] = e.Position
	}
	return out
}

// Dimensions returns the entry keys in order.
func (p Portrait) Dimensions() []string {
	keys := make([]string, len(p.Entries))
	for i, e := range p.Entries {
		keys[i] = e.Dimension
	}
	return keys
}

// IsEmpty reports whether no entry carries any answered data.
func (p Portrait) IsEmpty() bool {
	for _, e := range p.Entries {
		if e.PositionOnly || e.Confidence > 0 || e.Intensity > 0 || e.Position != 0 {
			return false
		}
	}
	return true
}

// DimensionSpec describes one active dimension for building.
type DimensionSpec struct {
	Key            string
	TotalQuestions int
}

// RawAnswer is a kind-tagged answer value with the difficulty of its question.
type RawAnswer struct {
	QuestionKey string
	Kind        Kind
	Value       any
	Difficulty  int
}

// Build derives a portrait from a subject's answers grouped by dimension key.
// Every dimension in dims gets an entry; dimensions without answers get the
// zero entry and answers for dimensions outside dims are ignored. A single
// malformed answer fails the whole build.
func Build(answersByDimension map[string][]RawAnswer, dims []DimensionSpec) (Portrait, error) {
	entries := make([]Entry, 0, len(dims))
	for _, d := range dims {
		raws := answersByDimension[d.Key]
		values := make([]WeightedValue, 0, len(raws))
		for _, r := range raws {
			a, err := ParseAnswer(r.Kind, r.Value)
			if err != nil {
				return Portrait{}, fmt.Errorf("dimension %s: question %s: %w", d.Key, r.QuestionKey, err)
			}
			v, err := Normalize(a)
			if err != nil {
				return Portrait{}, fmt.Errorf("dimension %s: question %s: %w", d.Key, r.QuestionKey, err)
			}
			values = append(values, WeightedValue{Value: v, Weight: QuestionWeight(r.Difficulty)})
		}
		m := Aggregate(values, d.TotalQuestions)
		entries = append(entries, Entry{
			Dimension:  d.Key,
			Position:   m.Position,
			Intensity:  m.Intensity,
			Confidence: m.Confidence,
		})
	}
	return Portrait{Entries: entries}, nil
}

// FromEntries projects stored entries onto the active dimensions. Missing
// dimensions become zero entries and positions are clamped to range.
func FromEntries(entries []Entry, dims []string) Portrait {
	byKey := make(map[string]Entry, len(entries))
	for _, e := range entries {
		byKey[e.Dimension] = e
	}
	out := make([]Entry, 0, len(dims))
	for _, key := range dims {
		e, ok := byKey[key]
		if !ok {
			out = append(out, Entry{Dimension: key})
			continue
		}
		e.Position = clip(e.Position, -100, 100)
		e.Intensity = clip(e.Intensity, 0, 100)
		e.Confidence = clip(e.Confidence, 0, 100)
		out = append(out, e)
	}
	return Portrait{Entries: out}
}

// FromPositions builds a portrait from a flat dimension -> position map.
// Absent dimensions default to position 0.
func FromPositions(positions map[string]float64, dims []string) Portrait {
	out := make([]Entry, 0, len(dims))
	for _, key := range dims {
		out = append(out, Entry{
			Dimension:    key,
			Position:     clip(positions[key], -100, 100),
			PositionOnly: true,
		})
	}
	return Portrait{Entries: out}
}
