package expression

// Expr is a parsed expression. It holds no mutable state and may be evaluated
// concurrently.
type Expr struct {
	Source string

	empty     bool
	rewritten string
	postfix   []token
}

func (e *Expr) String() string {
	return e.Source
}

// Rewritten returns the source after percent and implicit multiplication
// rewriting, which is what the tokenizer actually reads.
func (e *Expr) Rewritten() string {
	return e.rewritten
}

// Postfix renders the expression in reverse polish notation.
func (e *Expr) Postfix() string {
	return renderPostfix(e.postfix)
}

func (e *Expr) Evaluate() (float64, error) {
	if e.empty {
		return 0, nil
	}
	return evaluatePostfix(e.rewritten, e.postfix)
}

// Evaluate parses and evaluates source in one go. Empty or whitespace-only
// input evaluates to 0.
func Evaluate(source string) (float64, error) {
	expr, err := ParseExpr(source)
	if err != nil {
		return 0, err
	}
	return expr.Evaluate()
}
