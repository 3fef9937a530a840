package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"

	"github.com/goccy/go-json"
	"github.com/jessevdk/go-flags"
	"github.com/karupanerura/cleancalc/internal/batch"
	"github.com/karupanerura/cleancalc/internal/calculator"
	"github.com/karupanerura/cleancalc/internal/expression"
	"github.com/karupanerura/cleancalc/internal/server"
	"github.com/karupanerura/cleancalc/internal/storage"
	"github.com/mattn/go-isatty"
	"github.com/samber/lo"
)

type Option struct {
	File        string `short:"f" long:"file" description:"[OPTIONAL] Batch file of expressions (.yaml or .json)" required:"false"`
	Concurrency int    `short:"c" long:"concurrency" description:"[OPTIONAL] Maximum number of expressions evaluated at once" default:"8"`
	State       string `short:"s" long:"state" description:"[OPTIONAL] Calculator state file (.json or .yaml)" required:"false"`
	Listen      string `short:"l" long:"listen" description:"[OPTIONAL] Listen host and port to serve API" required:"false"`
	Audience    string `long:"audience" description:"[OPTIONAL] Require Google ID tokens issued for this audience" required:"false"`
	Debug       bool   `long:"debug" description:"[OPTIONAL] Log every evaluation stage"`
	Args        struct {
		Expressions []string `positional-arg-name:"EXPRESSION" description:"Expressions to evaluate (use -- before expressions starting with '-')"`
	} `positional-args:"yes"`
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	var opt Option
	parser := flags.NewParser(&opt, flags.Default)
	_, err := parser.ParseArgs(args)
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			return 0
		} else {
			parser.WriteHelp(os.Stdout)
			return 1
		}
	}
	if opt.Listen != "" && (opt.File != "" || len(opt.Args.Expressions) != 0) {
		parser.WriteHelp(os.Stdout)
		return 1
	}
	if opt.Debug {
		expression.SetDebug(true)
	}

	// server mode
	if opt.Listen != "" {
		store, err := openStore(opt.State)
		if err != nil {
			log.Printf("failed to open state: %v", err)
			return 1
		}
		if err = serveCalculator(opt.Listen, store, server.Option{Audience: opt.Audience}); err != nil {
			log.Printf("failed to serve calculator: %v", err)
			return 1
		}
		return 0
	}

	// batch mode
	if opt.File != "" || len(opt.Args.Expressions) != 0 {
		exprs := opt.Args.Expressions
		if opt.File != "" {
			fromFile, err := loadBatch(opt.File)
			if err != nil {
				log.Printf("failed to load batch file: %v", err)
				return 1
			}
			exprs = append(fromFile, exprs...)
		}
		return evaluateBatch(exprs, opt.Concurrency)
	}

	// interactive mode
	store, err := openStore(opt.State)
	if err != nil {
		log.Printf("failed to open state: %v", err)
		return 1
	}
	state, err := store.Load()
	if err != nil {
		log.Printf("failed to load state: %v", err)
		return 1
	}
	r := &repl{
		calculator: calculator.New(state, store),
		in:         os.Stdin,
		out:        os.Stdout,
		prompt:     isTerminal(os.Stdin),
	}
	if err = r.run(); err != nil {
		log.Printf("failed to read input: %v", err)
		return 1
	}
	return 0
}

func openStore(path string) (storage.Store, error) {
	if path == "" {
		return storage.NewMemoryStore(calculator.State{}), nil
	}

	store, err := storage.NewFileStore(path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewFileStore: %w", err)
	}
	return store, nil
}

func evaluateBatch(exprs []string, concurrency int) int {
	results, err := batch.Evaluate(context.Background(), exprs, concurrency)
	if err != nil {
		log.Printf("failed to evaluate expressions: %v", err)
		return 1
	}

	if err = dumpJSON(os.Stdout, results); err != nil {
		log.Printf("failed to dump results: %v", err)
		return 1
	}

	if lo.ContainsBy(results, func(r batch.Result) bool { return r.Error != nil }) {
		return 1
	}
	return 0
}

func serveCalculator(listen string, store storage.Store, opt server.Option) error {
	handler, err := server.NewHTTPHandler(store, opt)
	if err != nil {
		return err
	}

	srv := http.Server{
		Handler: handler,
		Addr:    listen,
	}

	log.Printf("Listen HTTP on %s", listen)
	if err := srv.ListenAndServe(); errors.Is(err, http.ErrServerClosed) {
		return nil
	} else if err != nil {
		return err
	}
	return nil
}

func isTerminal(v any) bool {
	f, ok := v.(interface{ Fd() uintptr })
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func dumpJSON(w io.Writer, v any) error {
	opts := []json.EncodeOptionFunc{json.DisableHTMLEscape()}
	if isTerminal(w) {
		opts = append(opts, json.Colorize(json.DefaultColorScheme))
	}

	b, err := json.MarshalIndentWithOption(v, "", "\t", opts...)
	if err != nil {
		return fmt.Errorf("json.MarshalIndentWithOption: %w", err)
	}

	if _, err = w.Write(b); err != nil {
		return fmt.Errorf("w.Write: %w", err)
	}
	if _, err = io.WriteString(w, "\n"); err != nil {
		return fmt.Errorf("io.WriteString: %w", err)
	}
	return nil
}
