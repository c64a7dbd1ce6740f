package expr

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEval(t *testing.T) {
	tests := []struct {
		input string
		want  float64
	}{
		{"700", 700},
		{"  42  ", 42},
		{"0", 0},
		{"0.5", 0.5},
		{".25", 0.25},
		{"2100 / 3", 700},
		{"90 / 3", 30},
		{"1 + 2 * 3", 7},
		{"(1 + 2) * 3", 9},
		{"10 - 4 - 3", 3},
		{"100 / 4 / 5", 5},
		{"-5", -5},
		{"+5", 5},
		{"-(2 + 3)", -5},
		{"2 * -3", -6},
		{"0.1 + 0.2", 0.3},
		{"((((1))))", 1},
		{"1200/3+50", 450},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := Eval(tt.input)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestEval_DivisionKeepsPrecision(t *testing.T) {
	got, err := EvalDecimal("100 / 3")
	require.NoError(t, err)
	assert.Equal(t, "33.3333333333333333", got.String())
}

func TestEval_DivisionIsExactUntilTheEnd(t *testing.T) {
	tests := []struct {
		input string
		want  float64
	}{
		{"1/3*3", 1},
		{"100 / 3 * 3", 100},
		{"1/3 + 1/3 + 1/3", 1},
		{"(2100 / 7) / (1 / 7)", 2100},
		{"-1 / -3 * 3", 1},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := Eval(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEval_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"whitespace only", "   "},
		{"identifier", "sum / 3"},
		{"function call", "__import__('os')"},
		{"power operator", "2 ** 8"},
		{"modulo", "7 % 2"},
		{"exponent literal", "1e5"},
		{"trailing operator", "1 +"},
		{"leading operator", "* 2"},
		{"unbalanced open", "(1 + 2"},
		{"unbalanced close", "1 + 2)"},
		{"two dots", "1.2.3"},
		{"trailing dot", "5."},
		{"lone dot", "."},
		{"juxtaposed numbers", "1 2"},
		{"comma decimal", "5,50"},
		{"empty parens", "()"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Eval(tt.input)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidExpression)

			var syntaxErr *SyntaxError
			require.ErrorAs(t, err, &syntaxErr)
			assert.Equal(t, tt.input, syntaxErr.Input)
		})
	}
}

func TestEval_DivisionByZero(t *testing.T) {
	for _, input := range []string{"1 / 0", "5 / (2 - 2)", "0 / 0.0"} {
		_, err := Eval(input)
		require.Error(t, err, input)
		assert.ErrorIs(t, err, ErrDivisionByZero)
		assert.ErrorIs(t, err, ErrInvalidExpression)
	}
}

func TestEval_Limits(t *testing.T) {
	t.Run("too long", func(t *testing.T) {
		_, err := Eval(strings.Repeat("1+", MaxLength) + "1")
		assert.ErrorIs(t, err, ErrInvalidExpression)
	})

	t.Run("too deep", func(t *testing.T) {
		input := strings.Repeat("(", MaxDepth+1) + "1" + strings.Repeat(")", MaxDepth+1)
		_, err := Eval(input)
		assert.ErrorIs(t, err, ErrInvalidExpression)
	})

	t.Run("within depth", func(t *testing.T) {
		input := strings.Repeat("(", MaxDepth-1) + "1" + strings.Repeat(")", MaxDepth-1)
		got, err := Eval(input)
		require.NoError(t, err)
		assert.Equal(t, 1.0, got)
	})
}

func TestSyntaxError_Message(t *testing.T) {
	_, err := Eval("12 + x")
	var syntaxErr *SyntaxError
	require.True(t, errors.As(err, &syntaxErr))
	assert.Equal(t, 5, syntaxErr.Pos)
	assert.Contains(t, err.Error(), `"12 + x"`)
}
