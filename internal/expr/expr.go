// Package expr evaluates share expressions entered by users.
//
// Only a small arithmetic language is accepted: decimal numbers, the binary
// operators + - * /, unary signs and parentheses. Anything else is rejected
// with an error matching ErrInvalidExpression.
package expr

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

const (
	// MaxLength is the longest expression accepted, in bytes.
	MaxLength = 256
	// MaxDepth is the deepest nesting of parentheses and unary signs accepted.
	MaxDepth = 32
	// divisionPrecision is the number of decimal places kept by division.
	divisionPrecision = 16
)

var (
	ErrInvalidExpression = errors.New("invalid share expression")
	ErrDivisionByZero    = fmt.Errorf("%w: division by zero", ErrInvalidExpression)
)

// SyntaxError describes why an expression was rejected.
type SyntaxError struct {
	Input string
	Pos   int
	Msg   string
	Err   error
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("invalid share expression %q at position %d: %s", e.Input, e.Pos, e.Msg)
}

func (e *SyntaxError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrInvalidExpression
}

// Eval evaluates input and returns the result as a float64.
func Eval(input string) (float64, error) {
	d, err := EvalDecimal(input)
	if err != nil {
		return 0, err
	}
	f := d.InexactFloat64()
	if math.IsInf(f, 0) {
		return 0, &SyntaxError{Input: input, Pos: 0, Msg: "result out of range"}
	}
	return f, nil
}

// EvalDecimal evaluates input with exact decimal arithmetic.
func EvalDecimal(input string) (decimal.Decimal, error) {
	if len(input) > MaxLength {
		return decimal.Zero, &SyntaxError{Input: input, Pos: MaxLength, Msg: fmt.Sprintf("longer than %d bytes", MaxLength)}
	}
	p := &parser{input: input}
	p.skipSpace()
	if p.done() {
		return decimal.Zero, p.errorf("empty expression")
	}
	v, err := p.parseExpr()
	if err != nil {
		return decimal.Zero, err
	}
	p.skipSpace()
	if !p.done() {
		return decimal.Zero, p.errorf("unexpected %q", p.input[p.pos])
	}
	return v.decimal(), nil
}

type parser struct {
	input string
	pos   int
	depth int
}

func (p *parser) done() bool { return p.pos >= len(p.input) }

func (p *parser) peek() byte {
	p.skipSpace()
	if p.done() {
		return 0
	}
	return p.input[p.pos]
}

func (p *parser) skipSpace() {
	for !p.done() {
		switch p.input[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

func (p *parser) errorf(format string, args ...any) *SyntaxError {
	return &SyntaxError{Input: p.input, Pos: p.pos, Msg: fmt.Sprintf(format, args...)}
}

// ratio is an exact quotient num/den. Division is carried as a fraction and
// rounded once, so "1 / 3 * 3" evaluates to exactly 1.
type ratio struct {
	num, den decimal.Decimal
}

func whole(d decimal.Decimal) ratio { return ratio{num: d, den: decimal.NewFromInt(1)} }

func (r ratio) add(o ratio) ratio {
	return ratio{num: r.num.Mul(o.den).Add(o.num.Mul(r.den)), den: r.den.Mul(o.den)}
}

func (r ratio) sub(o ratio) ratio { return r.add(o.neg()) }

func (r ratio) mul(o ratio) ratio {
	return ratio{num: r.num.Mul(o.num), den: r.den.Mul(o.den)}
}

// quo assumes o is non-zero.
func (r ratio) quo(o ratio) ratio {
	return ratio{num: r.num.Mul(o.den), den: r.den.Mul(o.num)}
}

func (r ratio) neg() ratio { return ratio{num: r.num.Neg(), den: r.den} }

func (r ratio) isZero() bool { return r.num.IsZero() }

func (r ratio) decimal() decimal.Decimal {
	if r.den.Equal(decimal.NewFromInt(1)) {
		return r.num
	}
	return r.num.DivRound(r.den, divisionPrecision)
}

// expr := term (('+' | '-') term)*
func (p *parser) parseExpr() (ratio, error) {
	left, err := p.parseTerm()
	if err != nil {
		return ratio{}, err
	}
	for {
		op := p.peek()
		if op != '+' && op != '-' {
			return left, nil
		}
		p.pos++
		right, err := p.parseTerm()
		if err != nil {
			return ratio{}, err
		}
		if op == '+' {
			left = left.add(right)
		} else {
			left = left.sub(right)
		}
	}
}

// term := unary (('*' | '/') unary)*
func (p *parser) parseTerm() (ratio, error) {
	left, err := p.parseUnary()
	if err != nil {
		return ratio{}, err
	}
	for {
		op := p.peek()
		if op != '*' && op != '/' {
			return left, nil
		}
		opPos := p.pos
		p.pos++
		right, err := p.parseUnary()
		if err != nil {
			return ratio{}, err
		}
		if op == '*' {
			left = left.mul(right)
			continue
		}
		if right.isZero() {
			return ratio{}, &SyntaxError{Input: p.input, Pos: opPos, Msg: "division by zero", Err: ErrDivisionByZero}
		}
		left = left.quo(right)
	}
}

// unary := ('+' | '-') unary | primary
func (p *parser) parseUnary() (ratio, error) {
	if err := p.enter(); err != nil {
		return ratio{}, err
	}
	defer p.leave()

	switch p.peek() {
	case '+':
		p.pos++
		return p.parseUnary()
	case '-':
		p.pos++
		v, err := p.parseUnary()
		if err != nil {
			return ratio{}, err
		}
		return v.neg(), nil
	}
	return p.parsePrimary()
}

// primary := number | '(' expr ')'
func (p *parser) parsePrimary() (ratio, error) {
	c := p.peek()
	switch {
	case c == 0:
		return ratio{}, p.errorf("unexpected end of expression")
	case c == '(':
		p.pos++
		v, err := p.parseExpr()
		if err != nil {
			return ratio{}, err
		}
		if p.peek() != ')' {
			return ratio{}, p.errorf("missing closing parenthesis")
		}
		p.pos++
		return v, nil
	case isDigit(c) || c == '.':
		v, err := p.parseNumber()
		if err != nil {
			return ratio{}, err
		}
		return whole(v), nil
	default:
		return ratio{}, p.errorf("unexpected %q", c)
	}
}

// number := digits ['.' digits] | '.' digits
func (p *parser) parseNumber() (decimal.Decimal, error) {
	start := p.pos
	digits, dots := 0, 0
	for !p.done() {
		c := p.input[p.pos]
		if isDigit(c) {
			digits++
		} else if c == '.' {
			dots++
		} else {
			break
		}
		p.pos++
	}
	lit := p.input[start:p.pos]
	if digits == 0 || dots > 1 || lit[len(lit)-1] == '.' {
		return decimal.Zero, &SyntaxError{Input: p.input, Pos: start, Msg: fmt.Sprintf("malformed number %q", lit)}
	}
	v, err := decimal.NewFromString(lit)
	if err != nil {
		return decimal.Zero, &SyntaxError{Input: p.input, Pos: start, Msg: fmt.Sprintf("malformed number %q", lit)}
	}
	return v, nil
}

func (p *parser) enter() error {
	p.depth++
	if p.depth > MaxDepth {
		return p.errorf("nested deeper than %d", MaxDepth)
	}
	return nil
}

func (p *parser) leave() { p.depth-- }

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
