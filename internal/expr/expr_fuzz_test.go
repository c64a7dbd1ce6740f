package expr

import (
	"errors"
	"math"
	"testing"
)

func FuzzEval(f *testing.F) {
	// Valid expressions.
	f.Add("700")
	f.Add("2100 / 3")
	f.Add("(1 + 2) * 3")
	f.Add("-0.5")
	f.Add(".5 + 1")

	// Invalid expressions.
	f.Add("")
	f.Add("sum / 3")
	f.Add("__import__('os').system('id')")
	f.Add("1 / 0")
	f.Add("((((")
	f.Add("1e308 * 1e308")

	f.Fuzz(func(t *testing.T, input string) {
		v, err := Eval(input)

		// Invariant 1: errors always match ErrInvalidExpression.
		if err != nil && !errors.Is(err, ErrInvalidExpression) {
			t.Errorf("Eval(%q) returned untyped error: %v", input, err)
		}

		// Invariant 2: a result is always a finite number.
		if err == nil && (math.IsNaN(v) || math.IsInf(v, 0)) {
			t.Errorf("Eval(%q) = %v, want finite", input, v)
		}

		// Invariant 3: a failed evaluation yields zero.
		if err != nil && v != 0 {
			t.Errorf("Eval(%q) returned %v with error: %v", input, v, err)
		}
	})
}
