package batch

import (
	"context"
	"fmt"

	"github.com/karupanerura/cleancalc/internal/expression"
	"github.com/karupanerura/cleancalc/internal/types"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

type ErrorResult struct {
	Code    types.ErrorTag `json:"code"`
	Message string         `json:"message"`
	Label   string         `json:"label"`
}

type Result struct {
	Expression string       `json:"expression"`
	Result     *float64     `json:"result,omitempty"`
	Error      *ErrorResult `json:"error,omitempty"`
}

// Evaluate evaluates every expression with at most limit goroutines (no limit
// when limit <= 0). Evaluation failures are reported per result; the returned
// error is only set when ctx is done before all results are ready.
func Evaluate(ctx context.Context, exprs []string, limit int) ([]Result, error) {
	results := lo.Map(exprs, func(expr string, _ int) Result {
		return Result{Expression: expr}
	})

	eg, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		eg.SetLimit(limit)
	}
	for i := range results {
		i := i
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("expressions[%d]: %w", i, err)
			}
			results[i] = evaluate(results[i].Expression)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func evaluate(expr string) Result {
	v, err := expression.Evaluate(expr)
	if err != nil {
		tag := types.TagOf(err)
		return Result{
			Expression: expr,
			Error: &ErrorResult{
				Code:    tag,
				Message: err.Error(),
				Label:   types.ShortLabel(tag),
			},
		}
	}
	return Result{Expression: expr, Result: &v}
}
