package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/karupanerura/cleancalc/internal/batch"
	"github.com/karupanerura/cleancalc/internal/calculator"
	"github.com/karupanerura/cleancalc/internal/types"
)

func loadBatch(filePath string) ([]string, error) {
	var parseBatch func(io.Reader) ([]string, error)
	switch filepath.Ext(filePath) {
	case ".json":
		parseBatch = batch.ParseJSON
	case ".yaml", ".yml":
		parseBatch = batch.ParseYAML
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", filePath)
	}

	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("os.Open(%q): %w", filePath, err)
	}
	defer f.Close()

	exprs, err := parseBatch(f)
	if err != nil {
		return nil, fmt.Errorf("batch.Parse: %w", err)
	}
	return exprs, nil
}

type repl struct {
	calculator *calculator.Calculator
	in         io.Reader
	out        io.Writer
	prompt     bool
}

func (r *repl) run() error {
	scanner := bufio.NewScanner(r.in)
	for {
		if r.prompt {
			fmt.Fprint(r.out, "> ")
		}
		if !scanner.Scan() {
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		if line == ":quit" || line == ":q" {
			return nil
		}
		if err := r.handleLine(line); err != nil {
			return err
		}
	}
}

func (r *repl) handleLine(line string) error {
	var err error
	switch {
	case line == ":history":
		for i, item := range r.calculator.History() {
			fmt.Fprintf(r.out, "%d\t%s = %s\n", i, item.Expression, formatNumber(item.Result))
		}
		return nil

	case line == ":clear":
		err = r.calculator.Clear()

	case line == ":clear-history":
		err = r.calculator.ClearHistory()

	case strings.HasPrefix(line, ":use "):
		index, convErr := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, ":use ")))
		if convErr != nil {
			fmt.Fprintf(r.out, "invalid history index: %s\n", line)
			return nil
		}
		if err = r.calculator.Recall(index); err == nil {
			s := r.calculator.State()
			fmt.Fprintf(r.out, "%s = %s\n", s.Expression, formatNumber(s.LastResult))
		}

	case strings.HasPrefix(line, ":"):
		fmt.Fprintf(r.out, "unknown command: %s\n", line)
		return nil

	default:
		if err = r.calculator.SetExpression(line); err != nil {
			return err
		}
		var v float64
		if v, err = r.calculator.Evaluate(); err == nil {
			fmt.Fprintln(r.out, formatNumber(v))
		}
	}

	if tag := types.TagOf(err); tag != "" {
		fmt.Fprintf(r.out, "%s: %s (%s)\n", types.ShortLabel(tag), types.LongLabel(tag), tag)
		return nil
	} else if err != nil && strings.HasPrefix(line, ":use ") {
		fmt.Fprintln(r.out, err)
		return nil
	}
	return err
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
