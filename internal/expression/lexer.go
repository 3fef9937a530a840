package expression

import (
	"errors"
	"fmt"
	"strconv"
	"unicode/utf8"

	"github.com/karupanerura/cleancalc/internal/types"
)

type lexer struct {
	source string
	index  int
	tokens []token
}

func newLexer(source string) *lexer {
	return &lexer{
		source: source,
		index:  0,
		tokens: nil,
	}
}

func (l *lexer) push(t token) {
	l.tokens = append(l.tokens, t)
}

func (l *lexer) tokenize() ([]token, error) {
	for l.index != len(l.source) {
		c := l.source[l.index]
		switch {
		case isSpace(c):
			l.index++ // just skip white spaces

		case c == '-' && l.inUnaryPosition():
			folded, err := l.consumeUnaryMinus()
			if err != nil {
				return nil, err
			}
			if !folded {
				l.push(operatorToken{posToken{l.index}, c})
				l.index++
			}

		case isDigit(c) || c == '.':
			tok, err := l.consumeNumber(false)
			if err != nil {
				return nil, err
			}
			l.push(tok)

		case isOperator(c):
			l.push(operatorToken{posToken{l.index}, c})
			l.index++

		case c == '(':
			l.push(openParenToken{posToken{l.index}})
			l.index++

		case c == ')':
			l.push(closeParenToken{posToken{l.index}})
			l.index++

		default:
			r, _ := utf8.DecodeRuneInString(l.source[l.index:])
			return nil, &types.Error{
				Tag: types.InvalidCharErrorTag,
				Err: fmt.Errorf("invalid character at %d: %q: expr=%q", l.index+1, r, l.source),
			}
		}
	}

	return l.tokens, nil
}

func (l *lexer) inUnaryPosition() bool {
	if len(l.tokens) == 0 {
		return true
	}

	switch l.tokens[len(l.tokens)-1].(type) {
	case operatorToken, openParenToken:
		return true
	default:
		return false
	}
}

// consumeUnaryMinus folds a unary '-' into the following numeral, or rewrites
// "-(" as "-1 * (". It reports false when neither applies and the '-' has to
// be read as a binary operator.
func (l *lexer) consumeUnaryMinus() (bool, error) {
	minusPos := l.index
	next := l.index + 1
	for next < len(l.source) && isSpace(l.source[next]) {
		next++
	}
	if next == len(l.source) {
		return false, nil
	}

	switch c := l.source[next]; {
	case isDigit(c) || c == '.':
		l.index = next
		tok, err := l.consumeNumber(true)
		if err != nil {
			return false, err
		}
		tok.pos = minusPos
		l.push(tok)
		return true, nil

	case c == '(':
		l.push(numberToken{posToken{minusPos}, -1})
		l.push(operatorToken{posToken{minusPos}, '*'})
		l.index++ // consume '-' only
		return true, nil

	default:
		return false, nil
	}
}

func (l *lexer) consumeNumber(negative bool) (numberToken, error) {
	beginsPos := l.index
	dots := 0
	for l.index != len(l.source) {
		c := l.source[l.index]
		if c == '.' {
			dots++
		} else if !isDigit(c) {
			break
		}
		l.index++
	}

	literal := l.source[beginsPos:l.index]
	if dots > 1 {
		return numberToken{}, &types.Error{
			Tag: types.BadNumberErrorTag,
			Err: fmt.Errorf("too many decimal points in %s at %d: expr=%q", literal, beginsPos+1, l.source),
		}
	}

	v, err := strconv.ParseFloat(literal, 64)
	if errors.Is(err, strconv.ErrRange) {
		// ok: overflow yields ±Inf and is reported by the evaluator
	} else if err != nil {
		return numberToken{}, &types.Error{
			Tag: types.BadNumberErrorTag,
			Err: fmt.Errorf("invalid number %s at %d: expr=%q", literal, beginsPos+1, l.source),
		}
	}
	if negative {
		v = -v
	}

	return numberToken{posToken{beginsPos}, v}, nil
}
