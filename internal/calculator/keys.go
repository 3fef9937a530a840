package calculator

import "strings"

const (
	KeyEnter     = "Enter"
	KeyEquals    = "="
	KeyBackspace = "Backspace"
	KeyEscape    = "Escape"
	KeyPercent   = "%"
)

const appendableKeys = "0123456789+-*/()."

// HandleKey applies a single keyboard or keypad key to the session. Keys the
// calculator does not know are ignored. The returned error is the evaluation
// or persistence error, if any.
func (c *Calculator) HandleKey(key string) error {
	switch {
	case len(key) == 1 && strings.Contains(appendableKeys, key), key == KeyPercent:
		return c.Append(key)
	case key == KeyEnter, key == KeyEquals:
		_, err := c.Evaluate()
		return err
	case key == KeyBackspace:
		return c.Backspace()
	case key == KeyEscape:
		return c.Clear()
	default:
		return nil
	}
}
