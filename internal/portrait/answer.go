package portrait

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	// ErrInvalidAnswerKind is returned for an unrecognized question kind tag.
	ErrInvalidAnswerKind = errors.New("invalid answer kind")
	// ErrOutOfRange is returned when a value falls outside its kind's domain.
	ErrOutOfRange = errors.New("answer value out of range")
)

// Kind tags the four supported question encodings.
type Kind string

const (
	KindDirectValue      Kind = "direct_value"
	KindTradeoffSlider   Kind = "tradeoff_slider"
	KindPolicyPreference Kind = "policy_preference"
	KindDilemma          Kind = "dilemma"
)

// Kinds lists every supported kind in a stable order.
var Kinds = []Kind{KindDirectValue, KindTradeoffSlider, KindPolicyPreference, KindDilemma}

// ParseKind validates a kind tag.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindDirectValue, KindTradeoffSlider, KindPolicyPreference, KindDilemma:
		return k, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidAnswerKind, s)
}

// Answer is a kind-tagged answer value. The set of implementations is closed.
type Answer interface {
	Kind() Kind
	isAnswer()
}

// DirectValue is a Likert agreement in [1,5].
type DirectValue int

// TradeoffSlider is a slider position in [0,100].
type TradeoffSlider int

// PolicyPreference picks the left or right policy option.
type PolicyPreference string

// Dilemma picks option A or B.
type Dilemma string

const (
	PreferLeft  PolicyPreference = "left"
	PreferRight PolicyPreference = "right"

	OptionA Dilemma = "A"
	OptionB Dilemma = "B"
)

func (DirectValue) Kind() Kind      { return KindDirectValue }
func (TradeoffSlider) Kind() Kind   { return KindTradeoffSlider }
func (PolicyPreference) Kind() Kind { return KindPolicyPreference }
func (Dilemma) Kind() Kind          { return KindDilemma }

func (DirectValue) isAnswer()      {}
func (TradeoffSlider) isAnswer()   {}
func (PolicyPreference) isAnswer() {}
func (Dilemma) isAnswer()          {}

// Normalize maps an answer onto the signed [-100,100] scale.
func Normalize(a Answer) (float64, error) {
	switch v := a.(type) {
	case DirectValue:
		if v < 1 || v > 5 {
			return 0, fmt.Errorf("%w: direct_value %d not in [1,5]", ErrOutOfRange, int(v))
		}
		return float64(v-3) * 50, nil
	case TradeoffSlider:
		if v < 0 || v > 100 {
			return 0, fmt.Errorf("%w: tradeoff_slider %d not in [0,100]", ErrOutOfRange, int(v))
		}
		return float64(v-50) * 2, nil
	case PolicyPreference:
		switch v {
		case PreferLeft:
			return -100, nil
		case PreferRight:
			return 100, nil
		}
		return 0, fmt.Errorf("%w: policy_preference %q not left/right", ErrOutOfRange, string(v))
	case Dilemma:
		switch v {
		case OptionA:
			return -100, nil
		case OptionB:
			return 100, nil
		}
		return 0, fmt.Errorf("%w: dilemma %q not A/B", ErrOutOfRange, string(v))
	default:
		return 0, fmt.Errorf("%w: %T", ErrInvalidAnswerKind, a)
	}
}

// ParseAnswer converts a loosely typed value (as decoded from JSON or YAML)
// into the answer variant for kind. Numeric kinds accept integers, integral
// floats and numeric strings. A value of the wrong type, or outside the
// kind's domain, is out of range; an unknown kind is an invalid kind.
func ParseAnswer(kind Kind, raw any) (Answer, error) {
	switch kind {
	case KindDirectValue, KindTradeoffSlider:
		f, err := toNumber(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrOutOfRange, kind, err)
		}
		lo, hi := 1.0, 5.0
		if kind == KindTradeoffSlider {
			lo, hi = 0, 100
		}
		// checked as a float so huge values cannot wrap around in int
		if f < lo || f > hi {
			return nil, fmt.Errorf("%w: %s %s not in [%g,%g]",
				ErrOutOfRange, kind, strconv.FormatFloat(f, 'f', -1, 64), lo, hi)
		}
		if kind == KindTradeoffSlider {
			return TradeoffSlider(int(f)), nil
		}
		return DirectValue(int(f)), nil
	case KindPolicyPreference, KindDilemma:
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("%w: %s expects a string, got %T", ErrOutOfRange, kind, raw)
		}
		var a Answer = PolicyPreference(s)
		if kind == KindDilemma {
			a = Dilemma(s)
		}
		if _, err := Normalize(a); err != nil {
			return nil, err
		}
		return a, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrInvalidAnswerKind, string(kind))
}

// Value returns the canonical stored form of an answer: an int for numeric
// kinds and a string for choice kinds.
func Value(a Answer) any {
	switch v := a.(type) {
	case DirectValue:
		return int(v)
	case TradeoffSlider:
		return int(v)
	case PolicyPreference:
		return string(v)
	case Dilemma:
		return string(v)
	}
	return nil
}

// NormalizeRaw parses and normalizes in one step.
func NormalizeRaw(kind string, raw any) (float64, error) {
	k, err := ParseKind(kind)
	if err != nil {
		return 0, err
	}
	a, err := ParseAnswer(k, raw)
	if err != nil {
		return 0, err
	}
	return Normalize(a)
}

// toNumber returns raw as an integral float64.
func toNumber(raw any) (float64, error) {
	switch v := raw.(type) {
	case int:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case float32:
		return integral(float64(v))
	case float64:
		return integral(v)
	case json.Number:
		f, err := v.Float64()
		if err != nil && !errors.Is(err, strconv.ErrRange) {
			return 0, fmt.Errorf("not a number: %q", string(v))
		}
		return integral(f)
	case string:
		s := strings.TrimSpace(v)
		n, err := strconv.ParseInt(s, 10, 64)
		if err == nil {
			return float64(n), nil
		}
		if errors.Is(err, strconv.ErrRange) {
			f, _ := strconv.ParseFloat(s, 64)
			return f, nil
		}
		return 0, fmt.Errorf("not an integer: %q", v)
	case nil:
		return 0, errors.New("missing value")
	}
	return 0, fmt.Errorf("unsupported type %T", raw)
}

func integral(f float64) (float64, error) {
	if math.IsNaN(f) || f != math.Trunc(f) {
		return 0, fmt.Errorf("not an integer: %v", f)
	}
	return f, nil
}
