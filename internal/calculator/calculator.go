package calculator

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/karupanerura/cleancalc/internal/expression"
	"github.com/samber/lo"
)

const MaxHistory = 100

type HistoryItem struct {
	Expression string  `json:"expr" mapstructure:"expr"`
	Result     float64 `json:"result" mapstructure:"result"`
}

type State struct {
	Expression string        `json:"expression" mapstructure:"expression"`
	LastResult float64       `json:"lastResult" mapstructure:"lastResult"`
	History    []HistoryItem `json:"history" mapstructure:"history"`
}

type Persister interface {
	Save(State) error
}

// Calculator is a single calculator session. It is not safe for concurrent use.
type Calculator struct {
	state     State
	persister Persister
}

func New(state State, persister Persister) *Calculator {
	if len(state.History) > MaxHistory {
		state.History = state.History[len(state.History)-MaxHistory:]
	}
	return &Calculator{state: state, persister: persister}
}

func (c *Calculator) State() State {
	s := c.state
	s.History = append([]HistoryItem(nil), c.state.History...)
	return s
}

// History returns the history newest first.
func (c *Calculator) History() []HistoryItem {
	return lo.Reverse(append(make([]HistoryItem, 0, len(c.state.History)), c.state.History...))
}

func (c *Calculator) Append(value string) error {
	c.state.Expression += value
	return c.persist()
}

func (c *Calculator) SetExpression(expr string) error {
	c.state.Expression = expr
	return c.persist()
}

func (c *Calculator) Backspace() error {
	if c.state.Expression == "" {
		return nil
	}
	_, size := utf8.DecodeLastRuneInString(c.state.Expression)
	c.state.Expression = c.state.Expression[:len(c.state.Expression)-size]
	return c.persist()
}

func (c *Calculator) Clear() error {
	c.state.Expression = ""
	c.state.LastResult = 0
	return c.persist()
}

func (c *Calculator) ClearHistory() error {
	c.state.History = nil
	return c.persist()
}

// Evaluate evaluates the current expression. On failure the session is left
// untouched and the returned error carries the engine's tag.
func (c *Calculator) Evaluate() (float64, error) {
	v, err := expression.Evaluate(c.state.Expression)
	if err != nil {
		return 0, err
	}

	c.state.LastResult = v
	c.addToHistory(c.state.Expression, v)
	if err := c.persist(); err != nil {
		return v, err
	}
	return v, nil
}

// Recall restores the expression and result of a history entry. index counts
// from the newest entry, matching History.
func (c *Calculator) Recall(index int) error {
	if index < 0 || index >= len(c.state.History) {
		return fmt.Errorf("history index %d out of range [0, %d)", index, len(c.state.History))
	}

	item := c.state.History[len(c.state.History)-1-index]
	c.state.Expression = item.Expression
	c.state.LastResult = item.Result
	return c.persist()
}

func (c *Calculator) addToHistory(expr string, result float64) {
	if strings.TrimSpace(expr) == "" {
		return
	}
	c.state.History = append(c.state.History, HistoryItem{Expression: expr, Result: result})
	if len(c.state.History) > MaxHistory {
		c.state.History = c.state.History[len(c.state.History)-MaxHistory:]
	}
}

func (c *Calculator) persist() error {
	if c.persister == nil {
		return nil
	}
	if err := c.persister.Save(c.State()); err != nil {
		return fmt.Errorf("persister.Save: %w", err)
	}
	return nil
}
