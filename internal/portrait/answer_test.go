package portrait

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeDirectValue(t *testing.T) {
	expected := map[int]float64{1: -100, 2: -50, 3: 0, 4: 50, 5: 100}
	for v, want := range expected {
		got, err := Normalize(DirectValue(v))
		require.NoError(t, err)
		assert.Equal(t, want, got, "direct_value %d", v)
		assert.Equal(t, float64((v-3)*50), got)
	}
}

func TestNormalizeTradeoffSlider(t *testing.T) {
	for v := 0; v <= 100; v++ {
		got, err := Normalize(TradeoffSlider(v))
		require.NoError(t, err)
		assert.Equal(t, float64((v-50)*2), got)
	}

	tests := []struct {
		name     string
		input    int
		expected float64
	}{
		{name: "left edge", input: 0, expected: -100},
		{name: "center", input: 50, expected: 0},
		{name: "right edge", input: 100, expected: 100},
		{name: "quarter", input: 25, expected: -50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(TradeoffSlider(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestNormalizeChoices(t *testing.T) {
	tests := []struct {
		name     string
		input    Answer
		expected float64
	}{
		{name: "policy left", input: PreferLeft, expected: -100},
		{name: "policy right", input: PreferRight, expected: 100},
		{name: "dilemma A", input: OptionA, expected: -100},
		{name: "dilemma B", input: OptionB, expected: 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestNormalizeOutOfRange(t *testing.T) {
	tests := []struct {
		name  string
		input Answer
	}{
		{name: "direct value zero", input: DirectValue(0)},
		{name: "direct value seven", input: DirectValue(7)},
		{name: "slider negative", input: TradeoffSlider(-1)},
		{name: "slider above max", input: TradeoffSlider(101)},
		{name: "policy center", input: PolicyPreference("center")},
		{name: "dilemma lowercase", input: Dilemma("a")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize(tt.input)
			assert.ErrorIs(t, err, ErrOutOfRange)
		})
	}
}

func TestNormalizeNilAnswer(t *testing.T) {
	_, err := Normalize(nil)
	assert.ErrorIs(t, err, ErrInvalidAnswerKind)
}

func TestParseKind(t *testing.T) {
	for _, k := range Kinds {
		got, err := ParseKind(string(k))
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}

	_, err := ParseKind("ranking")
	assert.ErrorIs(t, err, ErrInvalidAnswerKind)
	_, err = ParseKind("")
	assert.ErrorIs(t, err, ErrInvalidAnswerKind)
}

func TestParseAnswer(t *testing.T) {
	tests := []struct {
		name     string
		kind     Kind
		raw      any
		expected Answer
	}{
		{name: "int", kind: KindDirectValue, raw: 4, expected: DirectValue(4)},
		{name: "int64", kind: KindDirectValue, raw: int64(2), expected: DirectValue(2)},
		{name: "json float", kind: KindDirectValue, raw: float64(5), expected: DirectValue(5)},
		{name: "json number", kind: KindTradeoffSlider, raw: json.Number("75"), expected: TradeoffSlider(75)},
		{name: "numeric string", kind: KindTradeoffSlider, raw: " 30 ", expected: TradeoffSlider(30)},
		{name: "policy", kind: KindPolicyPreference, raw: "right", expected: PreferRight},
		{name: "dilemma", kind: KindDilemma, raw: "A", expected: OptionA},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAnswer(tt.kind, tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
			assert.Equal(t, tt.kind, got.Kind())
		})
	}
}

func TestParseAnswerErrors(t *testing.T) {
	tests := []struct {
		name    string
		kind    Kind
		raw     any
		wantErr error
	}{
		{name: "direct value seven", kind: KindDirectValue, raw: 7, wantErr: ErrOutOfRange},
		{name: "fractional float", kind: KindDirectValue, raw: 3.5, wantErr: ErrOutOfRange},
		{name: "non numeric string", kind: KindTradeoffSlider, raw: "half", wantErr: ErrOutOfRange},
		{name: "bool for slider", kind: KindTradeoffSlider, raw: true, wantErr: ErrOutOfRange},
		{name: "missing value", kind: KindDirectValue, raw: nil, wantErr: ErrOutOfRange},
		{name: "number for policy", kind: KindPolicyPreference, raw: 1, wantErr: ErrOutOfRange},
		{name: "unknown dilemma option", kind: KindDilemma, raw: "C", wantErr: ErrOutOfRange},
		{name: "unknown kind", kind: Kind("ranking"), raw: 1, wantErr: ErrInvalidAnswerKind},
		{name: "huge float", kind: KindDirectValue, raw: 1e20, wantErr: ErrOutOfRange},
		{name: "huge string", kind: KindTradeoffSlider, raw: "99999999999999999999", wantErr: ErrOutOfRange},
		{name: "huge json number", kind: KindDirectValue, raw: json.Number("1e400"), wantErr: ErrOutOfRange},
		{name: "negative int64", kind: KindTradeoffSlider, raw: int64(-1), wantErr: ErrOutOfRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseAnswer(tt.kind, tt.raw)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestParseAnswerReportsValueBeforeConversion(t *testing.T) {
	tests := []struct {
		name string
		kind Kind
		raw  any
		want string
	}{
		{"float", KindDirectValue, 1e20, "direct_value 100000000000000000000 not in [1,5]"},
		{"string", KindTradeoffSlider, "99999999999999999999", "tradeoff_slider 100000000000000000000 not in [0,100]"},
		{"small", KindDirectValue, 0, "direct_value 0 not in [1,5]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseAnswer(tt.kind, tt.raw)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
			assert.NotContains(t, err.Error(), "-9223372036854775808")
		})
	}
}

func TestNormalizeRaw(t *testing.T) {
	got, err := NormalizeRaw("direct_value", float64(1))
	require.NoError(t, err)
	assert.Equal(t, -100.0, got)

	got, err = NormalizeRaw("tradeoff_slider", 100)
	require.NoError(t, err)
	assert.Equal(t, 100.0, got)

	_, err = NormalizeRaw("free_text", "hello")
	assert.ErrorIs(t, err, ErrInvalidAnswerKind)

	_, err = NormalizeRaw("direct_value", 7)
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestValueIsCanonical(t *testing.T) {
	a, err := ParseAnswer(KindDirectValue, "4")
	require.NoError(t, err)
	assert.Equal(t, 4, Value(a))

	a, err = ParseAnswer(KindTradeoffSlider, json.Number("75"))
	require.NoError(t, err)
	assert.Equal(t, 75, Value(a))

	a, err = ParseAnswer(KindDilemma, "B")
	require.NoError(t, err)
	assert.Equal(t, "B", Value(a))

	assert.Nil(t, Value(nil))
}
