package storage

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/goccy/go-json"
	reflect "github.com/goccy/go-reflect"
	"github.com/goccy/go-yaml"
	"github.com/karupanerura/cleancalc/internal/calculator"
	"github.com/mitchellh/mapstructure"
)

type format int

const (
	jsonFormat format = iota
	yamlFormat
)

// FileStore keeps the calculator state in a single JSON or YAML file,
// chosen by the file extension.
type FileStore struct {
	mu     sync.Mutex
	path   string
	format format
}

var _ Store = (*FileStore)(nil)

func NewFileStore(path string) (*FileStore, error) {
	var f format
	switch filepath.Ext(path) {
	case ".json":
		f = jsonFormat
	case ".yaml", ".yml":
		f = yamlFormat
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", path)
	}

	return &FileStore{path: path, format: f}, nil
}

// Load reads the saved state. A missing file is an empty state. Fields with
// unexpected types are dropped one by one instead of failing the whole load.
func (s *FileStore) Load() (calculator.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return calculator.State{}, nil
	} else if err != nil {
		return calculator.State{}, fmt.Errorf("os.ReadFile(%q): %w", s.path, err)
	}
	if len(bytes.TrimSpace(b)) == 0 {
		return calculator.State{}, nil
	}

	if s.format == yamlFormat {
		b, err = yaml.YAMLToJSON(b)
		if err != nil {
			return calculator.State{}, fmt.Errorf("yaml.YAMLToJSON: %w", err)
		}
	}

	var raw map[string]any
	if err := json.Unmarshal(b, &raw); err != nil {
		return calculator.State{}, fmt.Errorf("json.Unmarshal: %w", err)
	}

	var state calculator.State
	if err := mapstructure.Decode(sanitizeState(raw), &state); err != nil {
		return calculator.State{}, fmt.Errorf("mapstructure.Decode: %w", err)
	}
	return state, nil
}

func (s *FileStore) Save(state calculator.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("json.MarshalIndent: %w", err)
	}
	if s.format == yamlFormat {
		b, err = yaml.JSONToYAML(b)
		if err != nil {
			return fmt.Errorf("yaml.JSONToYAML: %w", err)
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), "."+filepath.Base(s.path)+".*")
	if err != nil {
		return fmt.Errorf("os.CreateTemp: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err = tmp.Write(b); err != nil {
		tmp.Close()
		return fmt.Errorf("tmp.Write: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("tmp.Close: %w", err)
	}
	if err = os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("os.Rename: %w", err)
	}
	return nil
}

func sanitizeState(raw map[string]any) map[string]any {
	sanitized := map[string]any{}
	if v, ok := raw["expression"]; ok {
		if isKind(v, reflect.String) {
			sanitized["expression"] = v
		} else {
			log.Printf("ignore saved expression: unexpected type %T", v)
		}
	}
	if v, ok := raw["lastResult"]; ok {
		if isKind(v, reflect.Float64) {
			sanitized["lastResult"] = v
		} else {
			log.Printf("ignore saved lastResult: unexpected type %T", v)
		}
	}
	if v, ok := raw["history"]; ok {
		if isKind(v, reflect.Slice) {
			sanitized["history"] = sanitizeHistory(reflect.ValueOf(v))
		} else {
			log.Printf("ignore saved history: unexpected type %T", v)
		}
	}
	return sanitized
}

func sanitizeHistory(items reflect.Value) []any {
	history := make([]any, 0, items.Len())
	for i, l := 0, items.Len(); i < l; i++ {
		item, ok := items.Index(i).Interface().(map[string]any)
		if !ok || !isKind(item["expr"], reflect.String) || !isKind(item["result"], reflect.Float64) {
			log.Printf("ignore saved history[%d]: unexpected value %v", i, items.Index(i).Interface())
			continue
		}
		history = append(history, item)
	}
	return history
}

func isKind(v any, kind reflect.Kind) bool {
	return reflect.ValueOf(v).Kind() == kind
}
