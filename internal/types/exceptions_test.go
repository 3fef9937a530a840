package types_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/karupanerura/cleancalc/internal/types"
)

func TestError(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("evaluate: %w", &types.Error{
		Tag:   types.DivZeroErrorTag,
		Err:   errors.New("divided by zero at 3"),
		Extra: map[string]any{"expression": "5/0"},
	})

	if got := types.TagOf(err); got != types.DivZeroErrorTag {
		t.Errorf("expect to %s but got %s", types.DivZeroErrorTag, got)
	}
	if !errors.Is(err, &types.Error{Tag: types.DivZeroErrorTag}) {
		t.Error("should match by tag")
	}
	if errors.Is(err, &types.Error{Tag: types.SyntaxErrorTag}) {
		t.Error("should not match other tags")
	}
	if got, expected := err.Error(), "evaluate: DivZero: divided by zero at 3"; got != expected {
		t.Errorf("expect to %q but got %q", expected, got)
	}

	var exception types.Exception
	if !errors.As(err, &exception) {
		t.Fatal("should be an exception")
	}
	expected := map[string]any{
		"tags":       []any{types.DivZeroErrorTag},
		"expression": "5/0",
	}
	if diff := cmp.Diff(expected, exception.Exception()); diff != "" {
		t.Errorf("unexpected exception (-want +got):\n%s", diff)
	}
}

func TestTagOf(t *testing.T) {
	t.Parallel()

	if got := types.TagOf(errors.New("plain")); got != "" {
		t.Errorf("expect to empty but got %q", got)
	}
	if got := types.TagOf(nil); got != "" {
		t.Errorf("expect to empty but got %q", got)
	}
}

func TestLabels(t *testing.T) {
	t.Parallel()

	for _, tag := range types.AllErrorTags {
		tag := tag
		t.Run(string(tag), func(t *testing.T) {
			t.Parallel()
			if types.ShortLabel(tag) == "Error" {
				t.Errorf("missing short label for %s", tag)
			}
			if types.LongLabel(tag) == "Unexpected error" {
				t.Errorf("missing long label for %s", tag)
			}
		})
	}

	if got := types.ShortLabel("Nope"); got != "Error" {
		t.Errorf("expect to fallback label but got %q", got)
	}
}
