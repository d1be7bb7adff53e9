package portrait

import (
	"math"
	"sort"
)

const (
	maxDistance      = 200.0
	neutralAlignment = 50
	defaultWeighting = 50.0

	strongThreshold = 70
	weakThreshold   = 50
	highlightLimit  = 3
)

// DimensionAlignment scores two positions from 0 (opposite poles) to 100
// (identical).
func DimensionAlignment(userPosition, otherPosition float64) int {
	a := (1 - math.Abs(userPosition-otherPosition)/maxDistance) * 100
	return int(clip(math.Round(a), 0, 100))
}

// OverallAlignment averages dimension alignments over the user's entries,
// weighted by the user's intensity*confidence/100. Dimensions missing from
// other count as position 0. Returns 50 when there is nothing to weigh.
func OverallAlignment(user, other Portrait) int {
	if len(user.Entries) == 0 {
		return neutralAlignment
	}
	positions := other.Positions()

	var weighted, total float64
	for _, e := range user.Entries {
		a := DimensionAlignment(e.Position, positions[e.Dimension])
		w := entryWeight(e)
		weighted += float64(a) * w
		total += w
	}
	if total == 0 {
		return neutralAlignment
	}
	return int(math.Round(weighted / total))
}

func entryWeight(e Entry) float64 {
	if e.PositionOnly {
		return defaultWeighting * defaultWeighting / 100
	}
	return e.Intensity * e.Confidence / 100
}

// DimensionComparison is one row of a side-by-side comparison.
type DimensionComparison struct {
	Dimension     string `json:"dimension"`
	UserPosition  int    `json:"user_position"`
	OtherPosition int    `json:"other_position"`
	Alignment     int    `json:"alignment"`
}

// Comparison is the full result of comparing two portraits.
type Comparison struct {
	Overall    int                   `json:"overall"`
	Label      string                `json:"label"`
	Color      string                `json:"color"`
	Dimensions []DimensionComparison `json:"dimensions"`
	Strongest  []DimensionComparison `json:"strongest"`
	Weakest    []DimensionComparison `json:"weakest"`
}

// Compare builds per-dimension rows for every dimension in dims, plus the
// overall alignment and the best and worst aligned dimensions.
func Compare(user, other Portrait, dims []string) Comparison {
	userPos := user.Positions()
	otherPos := other.Positions()

	rows := make([]DimensionComparison, 0, len(dims))
	for _, key := range dims {
		u, o := userPos[key], otherPos[key]
		rows = append(rows, DimensionComparison{
			Dimension:     key,
			UserPosition:  int(math.Round(u)),
			OtherPosition: int(math.Round(o)),
			Alignment:     DimensionAlignment(u, o),
		})
	}

	overall := OverallAlignment(user, other)
	return Comparison{
		Overall:    overall,
		Label:      AlignmentLabel(overall),
		Color:      AlignmentColor(overall),
		Dimensions: rows,
		Strongest:  StrongestDimensions(rows),
		Weakest:    WeakestDimensions(rows),
	}
}

// StrongestDimensions returns up to three rows with alignment >= 70, best first.
func StrongestDimensions(rows []DimensionComparison) []DimensionComparison {
	out := filterRows(rows, func(r DimensionComparison) bool { return r.Alignment >= strongThreshold })
	sort.SliceStable(out, func(i, j int) bool { return out[i].Alignment > out[j].Alignment })
	return limitRows(out)
}

// WeakestDimensions returns up to three rows with alignment < 50, worst first.
func WeakestDimensions(rows []DimensionComparison) []DimensionComparison {
	out := filterRows(rows, func(r DimensionComparison) bool { return r.Alignment < weakThreshold })
	sort.SliceStable(out, func(i, j int) bool { return out[i].Alignment < out[j].Alignment })
	return limitRows(out)
}

func filterRows(rows []DimensionComparison, keep func(DimensionComparison) bool) []DimensionComparison {
	out := make([]DimensionComparison, 0, len(rows))
	for _, r := range rows {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

func limitRows(rows []DimensionComparison) []DimensionComparison {
	if len(rows) > highlightLimit {
		return rows[:highlightLimit]
	}
	return rows
}
