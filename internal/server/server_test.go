package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solverkit/descent/internal/config"
	"github.com/solverkit/descent/internal/logging"
)

// testConfig creates a test configuration with default values
func testConfig(t *testing.T) *config.Config {
	t.Helper()

	cfg := &config.Config{
		Environment: "test",
	}

	cfg.HTTP.Port = 8080
	cfg.HTTP.ReadTimeout = 30 * time.Second
	cfg.HTTP.WriteTimeout = 30 * time.Second
	cfg.HTTP.IdleTimeout = 120 * time.Second
	cfg.HTTP.ShutdownTimeout = 30 * time.Second

	cfg.Logging.Level = "error"
	cfg.Logging.Format = "json"
	cfg.Logging.Output = "stdout"

	cfg.Optimization.MaxIterations = 500
	cfg.Optimization.GradTolerance = 1e-6
	cfg.Optimization.Armijo = 1e-4
	cfg.Optimization.Growth = 2.1
	cfg.Optimization.Contraction = 0.5
	cfg.Optimization.MaxShrinks = 64

	return cfg
}

// testLogger creates a test logger
func testLogger(t *testing.T) *logging.Logger {
	t.Helper()

	logger, err := logging.NewLogger(&logging.Config{
		Level:  "error",
		Format: "json",
		Output: "stdout",
	})
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	return logger
}

func testRouter(t *testing.T) (*Server, chi.Router) {
	t.Helper()

	srv := NewServer(testConfig(t), testLogger(t))
	r := chi.NewRouter()
	srv.RegisterRoutes(r)
	return srv, r
}

func TestNewServer(t *testing.T) {
	srv := NewServer(testConfig(t), testLogger(t))
	assert.NotNil(t, srv, "Server should be created")
}

func TestRegisterRoutes(t *testing.T) {
	_, r := testRouter(t)

	tests := []struct {
		method      string
		path        string
		shouldExist bool
	}{
		{"POST", "/api/v1/optimize", true},
		{"GET", "/api/v1/status/123", true},
		{"DELETE", "/api/v1/optimization/123", true},
		{"POST", "/rpc", true},
		{"GET", "/healthz", false}, // Registered by main, not the server package
		{"GET", "/nonexistent", false},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, req)

			if tt.shouldExist && rr.Code == http.StatusNotFound {
				t.Errorf("Route %s %s should exist but returned 404", tt.method, tt.path)
			}
		})
	}
}

func TestOptimizeRejectsBadRequests(t *testing.T) {
	_, r := testRouter(t)

	tests := []struct {
		name string
		body string
	}{
		{name: "not json", body: "{"},
		{name: "missing objective", body: `{"initial": [1, 2]}`},
		{name: "missing initial", body: `{"objective": "sphere"}`},
		{name: "unknown objective", body: `{"objective": "ackley", "initial": [1]}`},
		{name: "unknown method", body: `{"objective": "sphere", "initial": [1], "method": "bfgs"}`},
		{name: "wrong dimension", body: `{"objective": "quadratic", "initial": [1, 2, 3]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/api/v1/optimize", bytes.NewBufferString(tt.body))
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, req)

			assert.Equal(t, http.StatusBadRequest, rr.Code)
		})
	}
}

func TestOptimizeEndToEnd(t *testing.T) {
	srv, r := testRouter(t)
	defer srv.Close()

	body := `{"objective": "sphere", "initial": [1, 2], "method": "polak-ribiere"}`
	req := httptest.NewRequest("POST", "/api/v1/optimize", bytes.NewBufferString(body))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	require.Equal(t, http.StatusAccepted, rr.Code)

	var started struct {
		OptimizationID string `json:"optimization_id"`
		Status         string `json:"status"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&started))
	require.NotEmpty(t, started.OptimizationID)

	// Poll until the run reaches a terminal state.
	deadline := time.Now().Add(5 * time.Second)
	var status map[string]interface{}
	for {
		req := httptest.NewRequest("GET", "/api/v1/status/"+started.OptimizationID, nil)
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)
		require.Equal(t, http.StatusOK, rr.Code)

		status = nil
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&status))
		if s := status["status"]; s == "completed" || s == "failed" || s == "cancelled" {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("run did not finish in time, last status: %v", status)
		}
		time.Sleep(10 * time.Millisecond)
	}

	require.Equal(t, "completed", status["status"])
	assert.Equal(t, true, status["converged"])

	solution, ok := status["solution"].(map[string]interface{})
	require.True(t, ok, "status should carry a solution")
	assert.Less(t, solution["value"].(float64), 1e-6)
}

func TestJSONRPCStartAndStatus(t *testing.T) {
	srv, r := testRouter(t)
	defer srv.Close()

	body := `{"jsonrpc": "2.0", "id": 1, "method": "optimization.start",
		"params": {"objective": "quadratic", "initial": [5, 5]}}`
	req := httptest.NewRequest("POST", "/rpc", bytes.NewBufferString(body))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var response struct {
		JSONRPC string `json:"jsonrpc"`
		ID      int    `json:"id"`
		Result  struct {
			OptimizationID string `json:"optimization_id"`
			Status         string `json:"status"`
		} `json:"result"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&response))
	assert.Equal(t, "2.0", response.JSONRPC)
	assert.Equal(t, 1, response.ID)
	assert.Equal(t, "pending", response.Result.Status)
	require.NotEmpty(t, response.Result.OptimizationID)
}

func TestJSONRPCUnknownMethod(t *testing.T) {
	_, r := testRouter(t)

	body := `{"jsonrpc": "2.0", "id": 7, "method": "optimization.pause", "params": {}}`
	req := httptest.NewRequest("POST", "/rpc", bytes.NewBufferString(body))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var response map[string]interface{}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&response))

	errObj, ok := response["error"].(map[string]interface{})
	require.True(t, ok, "response should contain error object")
	assert.Equal(t, float64(-32601), errObj["code"])
}

func TestCancelFinishedRunFails(t *testing.T) {
	srv, r := testRouter(t)
	defer srv.Close()

	// Unknown IDs cannot be cancelled.
	req := httptest.NewRequest("DELETE", "/api/v1/optimization/run_missing", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestClose(t *testing.T) {
	srv := NewServer(testConfig(t), testLogger(t))
	err := srv.Close()
	assert.NoError(t, err, "Close should not return an error")
}

func TestRespondWithError(t *testing.T) {
	srv := NewServer(testConfig(t), testLogger(t))

	tests := []struct {
		name       string
		code       int
		message    string
		id         interface{}
		expectedID interface{}
	}{
		{
			name:       "valid error response",
			code:       -32000,
			message:    "invalid input",
			id:         "123",
			expectedID: "123",
		},
		{
			name:       "nil id",
			code:       -32600,
			message:    "server error",
			id:         nil,
			expectedID: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			srv.respondWithError(rr, tt.code, tt.message, tt.id)

			assert.Equal(t, http.StatusOK, rr.Code, "JSON-RPC errors ride on HTTP 200")

			var response map[string]interface{}
			err := json.NewDecoder(rr.Body).Decode(&response)
			assert.NoError(t, err, "should decode response body")

			errObj, ok := response["error"].(map[string]interface{})
			assert.True(t, ok, "response should contain error object")
			assert.Equal(t, float64(tt.code), errObj["code"], "error code should match")
			assert.Equal(t, tt.message, errObj["message"], "error message should match")

			assert.Equal(t, tt.expectedID, response["id"], "response ID should match")
		})
	}
}
