package expression

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/k0kubun/pp"
	"github.com/karupanerura/cleancalc/internal/types"
)

var parserDebugLog = false

func init() {
	if v, err := strconv.ParseBool(os.Getenv("CLEANCALC_EXPRESSION_DEBUG")); v && err == nil {
		parserDebugLog = true
	}
}

// SetDebug toggles the stage-by-stage debug log for ParseExpr.
func SetDebug(enabled bool) {
	parserDebugLog = enabled
}

type parser struct {
	source string
	debug  bool
}

func ParseExpr(source string) (*Expr, error) {
	p := &parser{source: source, debug: parserDebugLog}
	return p.parse()
}

func ParseExprWithDebugOutput(source string) (*Expr, error) {
	p := &parser{source: source, debug: true}
	return p.parse()
}

func (p *parser) parse() (*Expr, error) {
	if strings.TrimSpace(p.source) == "" {
		return &Expr{Source: p.source, empty: true}, nil
	}

	percentExpanded := rewritePercent(p.source)
	rewritten := insertImplicitMultiplication(percentExpanded)
	if p.debug {
		log.Println("source: ", p.source)
		log.Println("percent expanded: ", percentExpanded)
		log.Println("implicit multiplication: ", rewritten)
	}

	tokens, err := newLexer(rewritten).tokenize()
	if err != nil {
		return nil, err
	}
	if p.debug {
		pp.Println(tokens)
	}

	postfix, err := p.toPostfix(rewritten, tokens)
	if err != nil {
		return nil, err
	}
	if p.debug {
		log.Println("postfix: ", renderPostfix(postfix))
	}

	return &Expr{
		Source:    p.source,
		rewritten: rewritten,
		postfix:   postfix,
	}, nil
}

// toPostfix reorders tokens into RPN with the shunting-yard algorithm.
func (p *parser) toPostfix(rewritten string, tokens []token) ([]token, error) {
	out := make([]token, 0, len(tokens))
	var stack []token
	for _, tok := range tokens {
		switch t := tok.(type) {
		case numberToken:
			out = append(out, t)

		case operatorToken:
			info := operatorInfoMap[t.symbol]
			for len(stack) != 0 {
				top, isOP := stack[len(stack)-1].(operatorToken)
				if !isOP {
					break
				}
				topInfo := operatorInfoMap[top.symbol]
				if topInfo.precedence > info.precedence || (topInfo.precedence == info.precedence && !info.rightAssociate) {
					out = append(out, top)
					stack = stack[:len(stack)-1]
					continue
				}
				break
			}
			stack = append(stack, t)

		case openParenToken:
			stack = append(stack, t)

		case closeParenToken:
			found := false
			for len(stack) != 0 {
				top := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				if _, isOpen := top.(openParenToken); isOpen {
					found = true
					break
				}
				out = append(out, top)
			}
			if !found {
				return nil, p.createParenMismatchError(rewritten, t)
			}

		default:
			panic(fmt.Sprintf("should not reach here: unknown token %T in %s", tok, rewritten))
		}
	}

	for len(stack) != 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		switch top.(type) {
		case openParenToken, closeParenToken:
			return nil, p.createParenMismatchError(rewritten, top)
		}
		out = append(out, top)
	}

	return out, nil
}

func (p *parser) createParenMismatchError(rewritten string, t token) error {
	return &types.Error{
		Tag: types.ParenMismatchErrorTag,
		Err: fmt.Errorf("unbalanced parenthesis %s at %d: expr=%q", t, t.Pos()+1, rewritten),
	}
}

func renderPostfix(postfix []token) string {
	var b strings.Builder
	for i, tok := range postfix {
		if i != 0 {
			b.WriteByte(' ')
		}
		b.WriteString(tok.String())
	}
	return b.String()
}
