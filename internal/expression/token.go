package expression

import "strconv"

type token interface {
	Pos() int
	String() string
}

type posToken struct {
	pos int
}

func (t posToken) Pos() int {
	return t.pos
}

type numberToken struct {
	posToken
	value float64
}

func (t numberToken) String() string {
	return strconv.FormatFloat(t.value, 'g', -1, 64)
}

type operatorToken struct {
	posToken
	symbol byte
}

func (t operatorToken) String() string {
	return string(t.symbol)
}

type openParenToken struct {
	posToken
}

func (t openParenToken) String() string {
	return "("
}

type closeParenToken struct {
	posToken
}

func (t closeParenToken) String() string {
	return ")"
}

type operatorInfo struct {
	precedence     uint8
	rightAssociate bool
}

var operatorInfoMap = map[byte]operatorInfo{
	'+': {precedence: 1},
	'-': {precedence: 1},
	'*': {precedence: 2},
	'/': {precedence: 2},
	'%': {precedence: 2},
}

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}

func isOperator(c byte) bool {
	_, ok := operatorInfoMap[c]
	return ok
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r':
		return true
	default:
		return false
	}
}
