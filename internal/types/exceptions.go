package types

import (
	"errors"
	"strings"

	"github.com/samber/lo"
)

type ErrorTag string

const (
	BadNumberErrorTag     ErrorTag = "BadNumber"
	InvalidCharErrorTag   ErrorTag = "InvalidChar"
	ParenMismatchErrorTag ErrorTag = "ParenMismatch"
	SyntaxErrorTag        ErrorTag = "Syntax"
	DivZeroErrorTag       ErrorTag = "DivZero"
	UnknownOpErrorTag     ErrorTag = "UnknownOp"
	MathErrorTag          ErrorTag = "MathErr"
)

var AllErrorTags = []ErrorTag{
	BadNumberErrorTag,
	InvalidCharErrorTag,
	ParenMismatchErrorTag,
	SyntaxErrorTag,
	DivZeroErrorTag,
	UnknownOpErrorTag,
	MathErrorTag,
}

type Exception interface {
	error
	Exception() any
}

type Error struct {
	Tag   ErrorTag
	Err   error
	Extra map[string]any
}

var _ Exception = (*Error)(nil)

func (e *Error) Error() string {
	if e.Err == nil {
		return string(e.Tag)
	}

	var b strings.Builder
	b.WriteString(string(e.Tag))
	b.WriteString(": ")
	b.WriteString(e.Err.Error())
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error with the same tag, so that
// errors.Is(err, &types.Error{Tag: types.DivZeroErrorTag}) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Tag == e.Tag
}

func (e *Error) Exception() any {
	tags := []any{}
	for err := error(e); err != nil; err = errors.Unwrap(err) {
		if e, ok := err.(*Error); ok {
			tags = append(tags, e.Tag)
		}
	}

	o := map[string]any{
		"tags": tags,
	}
	if len(e.Extra) != 0 {
		o = lo.Assign(o, e.Extra)
	}
	return o
}

// TagOf returns the tag of the outermost *Error in err's chain, or "" if none.
func TagOf(err error) ErrorTag {
	var e *Error
	if errors.As(err, &e) {
		return e.Tag
	}
	return ""
}
