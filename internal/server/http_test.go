package server_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"
	"github.com/karupanerura/cleancalc/internal/calculator"
	"github.com/karupanerura/cleancalc/internal/server"
	"github.com/karupanerura/cleancalc/internal/storage"
)

func newHandler(t *testing.T, initial calculator.State, opt server.Option) (http.Handler, *storage.MemoryStore) {
	t.Helper()

	store := storage.NewMemoryStore(initial)
	h, err := server.NewHTTPHandler(store, opt)
	if err != nil {
		t.Fatal(err)
	}
	return h, store
}

func do(t *testing.T, h http.Handler, method, path, body string) (int, map[string]any) {
	t.Helper()

	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, path, nil)
	} else {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	var ret map[string]any
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(w.Body.Bytes(), &ret); err != nil {
			t.Fatalf("json.Unmarshal: %v: %s", err, w.Body.String())
		}
	}
	return w.Code, ret
}

func TestEvaluateAPI(t *testing.T) {
	t.Parallel()

	for _, tt := range []struct {
		method       string
		body         string
		expectedCode int
		expected     map[string]any
		expectedErr  string
	}{
		{
			method:       http.MethodPost,
			body:         `{"expression": "40%(50%+2)"}`,
			expectedCode: http.StatusOK,
			expected:     map[string]any{"expression": "40%(50%+2)", "result": float64(1)},
		},
		{
			method:       http.MethodPost,
			body:         `{"expression": ""}`,
			expectedCode: http.StatusOK,
			expected:     map[string]any{"expression": "", "result": float64(0)},
		},
		{
			method:       http.MethodPost,
			body:         `{"expression": "5/(2-2)"}`,
			expectedCode: http.StatusUnprocessableEntity,
			expectedErr:  "DivZero",
		},
		{
			method:       http.MethodPost,
			body:         `{"expression": "(1+2"}`,
			expectedCode: http.StatusUnprocessableEntity,
			expectedErr:  "ParenMismatch",
		},
		{
			method:       http.MethodPost,
			body:         `{`,
			expectedCode: http.StatusBadRequest,
		},
		{
			method:       http.MethodGet,
			expectedCode: http.StatusMethodNotAllowed,
		},
	} {
		tt := tt
		t.Run(tt.method+" "+tt.body, func(t *testing.T) {
			t.Parallel()

			h, _ := newHandler(t, calculator.State{}, server.Option{})
			code, ret := do(t, h, tt.method, "/v1/evaluate", tt.body)
			if code != tt.expectedCode {
				t.Fatalf("expect to %d but got %d", tt.expectedCode, code)
			}
			if tt.expected != nil {
				if diff := cmp.Diff(tt.expected, ret); diff != "" {
					t.Errorf("unexpected response (-want +got):\n%s", diff)
				}
			}
			if tt.expectedErr != "" {
				errBody, ok := ret["error"].(map[string]any)
				if !ok {
					t.Fatalf("missing error body: %+v", ret)
				}
				if errBody["code"] != tt.expectedErr {
					t.Errorf("expect to %s but got %v", tt.expectedErr, errBody["code"])
				}
				if errBody["shortLabel"] == "" || errBody["longLabel"] == "" {
					t.Errorf("missing labels: %+v", errBody)
				}
			}
		})
	}
}

func TestCalculatorAPI(t *testing.T) {
	t.Parallel()

	h, store := newHandler(t, calculator.State{}, server.Option{})

	for _, step := range []struct {
		method string
		path   string
		body   string
	}{
		{http.MethodPost, "/v1/calculator:append", `{"value": "2(3"}`},
		{http.MethodPost, "/v1/calculator:press", `{"key": "+"}`},
		{http.MethodPost, "/v1/calculator:append", `{"value": "4))"}`},
		{http.MethodPost, "/v1/calculator:backspace", ""},
		{http.MethodPost, "/v1/calculator:evaluate", ""},
	} {
		if code, ret := do(t, h, step.method, step.path, step.body); code != http.StatusOK {
			t.Fatalf("%s %s: unexpected status %d: %+v", step.method, step.path, code, ret)
		}
	}

	expected := calculator.State{
		Expression: "2(3+4)",
		LastResult: 14,
		History:    []calculator.HistoryItem{{Expression: "2(3+4)", Result: 14}},
	}
	saved, err := store.Load()
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(expected, saved); diff != "" {
		t.Errorf("unexpected saved state (-want +got):\n%s", diff)
	}

	code, ret := do(t, h, http.MethodGet, "/v1/calculator", "")
	if code != http.StatusOK {
		t.Fatalf("unexpected status %d", code)
	}
	if diff := cmp.Diff(map[string]any{
		"expression": "2(3+4)",
		"lastResult": float64(14),
		"history":    []any{map[string]any{"expr": "2(3+4)", "result": float64(14)}},
	}, ret); diff != "" {
		t.Errorf("unexpected state (-want +got):\n%s", diff)
	}

	// failed evaluation keeps the state
	do(t, h, http.MethodPost, "/v1/calculator:clear", "")
	do(t, h, http.MethodPost, "/v1/calculator:append", `{"value": "1.2.3"}`)
	code, ret = do(t, h, http.MethodPost, "/v1/calculator:evaluate", "")
	if code != http.StatusUnprocessableEntity {
		t.Fatalf("unexpected status %d: %+v", code, ret)
	}
	if got := ret["error"].(map[string]any)["code"]; got != "BadNumber" {
		t.Errorf("expect to BadNumber but got %v", got)
	}

	code, ret = do(t, h, http.MethodPost, "/v1/calculator/history/0:select", "")
	if code != http.StatusOK {
		t.Fatalf("unexpected status %d: %+v", code, ret)
	}
	if ret["expression"] != "2(3+4)" || ret["lastResult"] != float64(14) {
		t.Errorf("unexpected recalled state: %+v", ret)
	}

	if code, _ := do(t, h, http.MethodPost, "/v1/calculator/history/1:select", ""); code != http.StatusNotFound {
		t.Errorf("expect to 404 but got %d", code)
	}

	code, ret = do(t, h, http.MethodDelete, "/v1/calculator/history", "")
	if code != http.StatusOK {
		t.Fatalf("unexpected status %d", code)
	}
	code, ret = do(t, h, http.MethodGet, "/v1/calculator/history", "")
	if code != http.StatusOK {
		t.Fatalf("unexpected status %d", code)
	}
	if diff := cmp.Diff(map[string]any{"history": []any{}}, ret); diff != "" {
		t.Errorf("unexpected history (-want +got):\n%s", diff)
	}
}

func TestHistoryAPIOrder(t *testing.T) {
	t.Parallel()

	h, _ := newHandler(t, calculator.State{History: []calculator.HistoryItem{
		{Expression: "1", Result: 1},
		{Expression: "2", Result: 2},
	}}, server.Option{})

	code, ret := do(t, h, http.MethodGet, "/v1/calculator/history", "")
	if code != http.StatusOK {
		t.Fatalf("unexpected status %d", code)
	}
	expected := map[string]any{"history": []any{
		map[string]any{"expr": "2", "result": float64(2)},
		map[string]any{"expr": "1", "result": float64(1)},
	}}
	if diff := cmp.Diff(expected, ret); diff != "" {
		t.Errorf("unexpected history (-want +got):\n%s", diff)
	}
}

func TestRouting(t *testing.T) {
	t.Parallel()

	h, _ := newHandler(t, calculator.State{}, server.Option{})
	for _, tt := range []struct {
		method       string
		path         string
		expectedCode int
	}{
		{http.MethodGet, "/", http.StatusNotFound},
		{http.MethodGet, "/v1/unknown", http.StatusNotFound},
		{http.MethodPost, "/v1/calculator", http.StatusMethodNotAllowed},
		{http.MethodGet, "/v1/calculator:clear", http.StatusMethodNotAllowed},
		{http.MethodPost, "/v1/calculator:unknown", http.StatusNotFound},
		{http.MethodPut, "/v1/calculator/history", http.StatusMethodNotAllowed},
		{http.MethodGet, "/v1/calculator/history/0:select", http.StatusMethodNotAllowed},
		{http.MethodPost, "/v1/calculator/history/x:select", http.StatusNotFound},
	} {
		if code, _ := do(t, h, tt.method, tt.path, ""); code != tt.expectedCode {
			t.Errorf("%s %s: expect to %d but got %d", tt.method, tt.path, tt.expectedCode, code)
		}
	}
}

func TestAuthorization(t *testing.T) {
	t.Parallel()

	h, _ := newHandler(t, calculator.State{}, server.Option{
		Audience: "https://calc.example.com",
		ValidateToken: func(_ context.Context, token, audience string) error {
			if token == "good" && audience == "https://calc.example.com" {
				return nil
			}
			return errors.New("invalid token")
		},
	})

	for _, tt := range []struct {
		header       string
		expectedCode int
	}{
		{header: "", expectedCode: http.StatusUnauthorized},
		{header: "Basic Zm9vOmJhcg==", expectedCode: http.StatusUnauthorized},
		{header: "Bearer bad", expectedCode: http.StatusUnauthorized},
		{header: "Bearer good", expectedCode: http.StatusOK},
	} {
		r := httptest.NewRequest(http.MethodGet, "/v1/calculator", nil)
		if tt.header != "" {
			r.Header.Set("Authorization", tt.header)
		}
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		if w.Code != tt.expectedCode {
			t.Errorf("%q: expect to %d but got %d", tt.header, tt.expectedCode, w.Code)
		}
	}
}
