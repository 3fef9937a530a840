package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/goccy/go-json"
	"github.com/karupanerura/cleancalc/internal/calculator"
	"github.com/karupanerura/cleancalc/internal/expression"
	"github.com/karupanerura/cleancalc/internal/storage"
	"github.com/karupanerura/cleancalc/internal/types"
	"google.golang.org/api/idtoken"
)

const (
	evaluatePath   = "/v1/evaluate"
	calculatorPath = "/v1/calculator"
	historyPath    = "/v1/calculator/history"
)

var historyItemPathRegexp = regexp.MustCompile(`^/v1/calculator/history/([0-9]+):select$`)

type Option struct {
	// Audience enables bearer authentication with Google ID tokens when set.
	Audience string

	// ValidateToken overrides the ID token validation. Defaults to idtoken.Validate.
	ValidateToken func(ctx context.Context, token, audience string) error
}

type evaluateRequest struct {
	Expression string `json:"expression"`
}

type evaluateResponse struct {
	Expression string  `json:"expression"`
	Result     float64 `json:"result"`
}

type appendRequest struct {
	Value string `json:"value"`
}

type pressRequest struct {
	Key string `json:"key"`
}

type errorBody struct {
	Code       types.ErrorTag `json:"code"`
	Message    string         `json:"message"`
	ShortLabel string         `json:"shortLabel"`
	LongLabel  string         `json:"longLabel"`
	Exception  any            `json:"exception,omitempty"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

type httpHandler struct {
	mu            sync.RWMutex
	calculator    *calculator.Calculator
	audience      string
	validateToken func(ctx context.Context, token, audience string) error
}

func NewHTTPHandler(store storage.Store, opt Option) (http.Handler, error) {
	state, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("store.Load: %w", err)
	}

	h := &httpHandler{
		calculator:    calculator.New(state, store),
		audience:      opt.Audience,
		validateToken: opt.ValidateToken,
	}
	if h.validateToken == nil {
		h.validateToken = func(ctx context.Context, token, audience string) error {
			_, err := idtoken.Validate(ctx, token, audience)
			return err
		}
	}
	return h, nil
}

func (h *httpHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.audience != "" && !h.authorize(r) {
		w.Header().Set("WWW-Authenticate", "Bearer")
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	switch path := r.URL.Path; {
	case path == evaluatePath:
		if r.Method != http.MethodPost {
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
			return
		}
		h.evaluate(w, r)

	case path == calculatorPath:
		if r.Method != http.MethodGet {
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
			return
		}
		h.getCalculator(w, r)

	case strings.HasPrefix(path, calculatorPath+":"):
		if r.Method != http.MethodPost {
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
			return
		}
		h.callCalculatorMethod(w, r, strings.TrimPrefix(path, calculatorPath+":"))

	case path == historyPath:
		switch r.Method {
		case http.MethodGet:
			h.listHistory(w, r)
		case http.MethodDelete:
			h.clearHistory(w, r)
		default:
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		}

	case historyItemPathRegexp.MatchString(path):
		if r.Method != http.MethodPost {
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
			return
		}
		index, err := strconv.Atoi(historyItemPathRegexp.FindStringSubmatch(path)[1])
		if err != nil {
			http.Error(w, "Not Found", http.StatusNotFound)
			return
		}
		h.recallHistory(w, r, index)

	default:
		http.Error(w, "Not Found", http.StatusNotFound)
	}
}

func (h *httpHandler) authorize(r *http.Request) bool {
	const prefix = "Bearer "
	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(auth, prefix) {
		return false
	}

	if err := h.validateToken(r.Context(), strings.TrimPrefix(auth, prefix), h.audience); err != nil {
		log.Printf("failed to validate ID token: %v", err)
		return false
	}
	return true
}

func (h *httpHandler) evaluate(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var req evaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("failed to decode request body: %v", err)
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	v, err := expression.Evaluate(req.Expression)
	if err != nil {
		resError(w, err)
		return
	}
	resJSON(w, http.StatusOK, &evaluateResponse{Expression: req.Expression, Result: v})
}

func (h *httpHandler) getCalculator(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	resJSON(w, http.StatusOK, h.calculator.State())
}

func (h *httpHandler) callCalculatorMethod(w http.ResponseWriter, r *http.Request, method string) {
	defer r.Body.Close()

	var call func(*calculator.Calculator) error
	switch method {
	case "append":
		var req appendRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			log.Printf("failed to decode request body: %v", err)
			http.Error(w, "Bad Request", http.StatusBadRequest)
			return
		}
		call = func(c *calculator.Calculator) error { return c.Append(req.Value) }

	case "press":
		var req pressRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			log.Printf("failed to decode request body: %v", err)
			http.Error(w, "Bad Request", http.StatusBadRequest)
			return
		}
		call = func(c *calculator.Calculator) error { return c.HandleKey(req.Key) }

	case "backspace":
		call = (*calculator.Calculator).Backspace

	case "clear":
		call = (*calculator.Calculator).Clear

	case "evaluate":
		call = func(c *calculator.Calculator) error {
			_, err := c.Evaluate()
			return err
		}

	default:
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if err := call(h.calculator); err != nil {
		resError(w, err)
		return
	}
	resJSON(w, http.StatusOK, h.calculator.State())
}

func (h *httpHandler) listHistory(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	resJSON(w, http.StatusOK, map[string][]calculator.HistoryItem{"history": h.calculator.History()})
}

func (h *httpHandler) clearHistory(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.calculator.ClearHistory(); err != nil {
		resError(w, err)
		return
	}
	resJSON(w, http.StatusOK, h.calculator.State())
}

func (h *httpHandler) recallHistory(w http.ResponseWriter, r *http.Request, index int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if index >= len(h.calculator.History()) {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}
	if err := h.calculator.Recall(index); err != nil {
		resError(w, err)
		return
	}
	resJSON(w, http.StatusOK, h.calculator.State())
}

func resError(w http.ResponseWriter, err error) {
	var e *types.Error
	if !errors.As(err, &e) {
		log.Printf("failed to handle request: %v", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	resJSON(w, http.StatusUnprocessableEntity, &errorResponse{
		Error: errorBody{
			Code:       e.Tag,
			Message:    err.Error(),
			ShortLabel: types.ShortLabel(e.Tag),
			LongLabel:  types.LongLabel(e.Tag),
			Exception:  e.Exception(),
		},
	})
}

func resJSON(w http.ResponseWriter, status int, v any) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Printf("json.MarshalIndent: %v", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Length", strconv.Itoa(len(b)+1))
	w.WriteHeader(status)

	if _, err = w.Write(b); err != nil {
		log.Printf("w.Write: %v", err)
		return
	}
	if _, err = io.WriteString(w, "\n"); err != nil {
		log.Printf("io.WriteString: %v", err)
	}
}
