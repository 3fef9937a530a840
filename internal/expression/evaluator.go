package expression

import (
	"fmt"
	"math"
	"strconv"

	"github.com/karupanerura/cleancalc/internal/types"
)

const significantDigits = 12

func evaluatePostfix(rewritten string, postfix []token) (float64, error) {
	var stack []float64
	for _, tok := range postfix {
		switch t := tok.(type) {
		case numberToken:
			stack = append(stack, t.value)

		case operatorToken:
			if len(stack) < 2 {
				return 0, &types.Error{
					Tag: types.SyntaxErrorTag,
					Err: fmt.Errorf("missing operand for operator %q at %d: expr=%q", t.symbol, t.Pos()+1, rewritten),
				}
			}
			b := stack[len(stack)-1]
			a := stack[len(stack)-2]
			stack = stack[:len(stack)-2]

			v, err := applyOperator(t, a, b, rewritten)
			if err != nil {
				return 0, err
			}
			stack = append(stack, v)

		default:
			return 0, &types.Error{
				Tag: types.SyntaxErrorTag,
				Err: fmt.Errorf("unexpected token %s at %d: expr=%q", tok, tok.Pos()+1, rewritten),
			}
		}
	}

	if len(stack) != 1 {
		return 0, &types.Error{
			Tag: types.SyntaxErrorTag,
			Err: fmt.Errorf("expected a single value but %d values are left: expr=%q", len(stack), rewritten),
		}
	}

	v := stack[0]
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &types.Error{
			Tag: types.MathErrorTag,
			Err: fmt.Errorf("result is not finite (%v): expr=%q", v, rewritten),
		}
	}

	return roundSignificant(v), nil
}

// applyOperator computes a <op> b. '%' is math.Mod, so the sign of the result
// follows the dividend: -7 % 3 == -1.
func applyOperator(t operatorToken, a, b float64, rewritten string) (float64, error) {
	switch t.symbol {
	case '+':
		return a + b, nil
	case '-':
		return a - b, nil
	case '*':
		return a * b, nil
	case '/':
		if b == 0 {
			return 0, &types.Error{
				Tag: types.DivZeroErrorTag,
				Err: fmt.Errorf("division by zero at %d: expr=%q", t.Pos()+1, rewritten),
			}
		}
		return a / b, nil
	case '%':
		return math.Mod(a, b), nil
	default:
		return 0, &types.Error{
			Tag: types.UnknownOpErrorTag,
			Err: fmt.Errorf("unknown operator %q at %d: expr=%q", t.symbol, t.Pos()+1, rewritten),
		}
	}
}

// roundSignificant drops binary representation noise: 0.1+0.2 -> 0.3.
func roundSignificant(v float64) float64 {
	r, err := strconv.ParseFloat(strconv.FormatFloat(v, 'g', significantDigits, 64), 64)
	if err != nil {
		panic(fmt.Sprintf("should not reach here: cannot round %v: %v", v, err))
	}
	return r
}
