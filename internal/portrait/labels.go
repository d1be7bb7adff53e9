package portrait

import "math"

// AlignmentLabel buckets an alignment score for display.
func AlignmentLabel(score int) string {
	switch {
	case score >= 80:
		return "Strong Alignment"
	case score >= 60:
		return "Moderate Alignment"
	case score >= 40:
		return "Weak Alignment"
	default:
		return "Misalignment"
	}
}

// AlignmentColor is the badge color paired with AlignmentLabel.
func AlignmentColor(score int) string {
	switch {
	case score >= 80:
		return "green"
	case score >= 60:
		return "blue"
	case score >= 40:
		return "amber"
	default:
		return "red"
	}
}

type Lean string

const (
	LeanLeft   Lean = "left"
	LeanCenter Lean = "center"
	LeanRight  Lean = "right"
)

type Strength string

const (
	StrengthCentrist Strength = "centrist"
	StrengthModerate Strength = "moderate"
	StrengthStrong   Strength = "strong"
)

const (
	centristBand       = 20.0
	strongBand         = 50.0
	highConfidenceMark = 70.0
	lowConfidenceMark  = 50.0
)

// Lean reports which pole the entry leans towards.
func (e Entry) Lean() Lean {
	switch {
	case math.Abs(e.Position) < centristBand:
		return LeanCenter
	case e.Position < 0:
		return LeanLeft
	default:
		return LeanRight
	}
}

// Strength classifies how far the position sits from center.
func (e Entry) Strength() Strength {
	abs := math.Abs(e.Position)
	switch {
	case abs >= strongBand:
		return StrengthStrong
	case abs >= centristBand:
		return StrengthModerate
	default:
		return StrengthCentrist
	}
}

// PositionLabel names the position using the dimension's pole labels, e.g.
// "Strong Free Markets" or "Centrist".
func (e Entry) PositionLabel(leftPole, rightPole string) string {
	pole := rightPole
	if e.Lean() == LeanLeft {
		pole = leftPole
	}
	switch e.Strength() {
	case StrengthStrong:
		return "Strong " + pole
	case StrengthModerate:
		return "Moderate " + pole
	default:
		return "Centrist"
	}
}

func (e Entry) HighConfidence() bool { return e.Confidence >= highConfidenceMark }
func (e Entry) LowConfidence() bool  { return e.Confidence < lowConfidenceMark }

// DifficultyLabel buckets a 1-5 difficulty score.
func DifficultyLabel(difficulty int) string {
	switch {
	case difficulty <= 2:
		return "easy"
	case difficulty == 3:
		return "medium"
	default:
		return "hard"
	}
}
