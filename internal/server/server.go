package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/solverkit/descent/internal/config"
	"github.com/solverkit/descent/internal/logging"
	"github.com/solverkit/descent/internal/optimization"
	"github.com/solverkit/descent/internal/optimization/conjgrad"
	"github.com/solverkit/descent/internal/optimization/vecspace"
)

// Logger defines the logging interface used by the server.
// This allows us to be flexible with our logging implementation.
type Logger interface {
	Debug(msg string, fields ...map[string]interface{})
	Info(msg string, fields ...map[string]interface{})
	Warn(msg string, fields ...map[string]interface{})
	Error(msg string, fields ...map[string]interface{})
	Fatal(msg string, fields ...map[string]interface{})
	WithFields(fields map[string]interface{}) *logging.Logger
}

// RunState tracks one optimization run through its lifecycle. It is guarded
// by the server's run mutex and safe for concurrent access.
type RunState struct {
	ID          string
	Status      string // "pending", "running", "completed", "failed", "cancelled"
	Objective   string
	Method      string
	StartTime   time.Time
	EndTime     *time.Time
	LastUpdated time.Time

	// Result is set when the run reaches a terminal state.
	Result *optimization.Result[[]float64]
	Err    string

	CancelFunc context.CancelFunc
}

// Server exposes conjugate-gradient optimization runs over HTTP and
// JSON-RPC 2.0: start a run, poll its status, cancel it.
type Server struct {
	cfg    *config.Config
	logger Logger
	tracer optimization.Tracer

	runs   map[string]*RunState
	runsMu sync.RWMutex // protects the runs map
}

// NewServer creates a new server instance with the given config and logger.
func NewServer(cfg *config.Config, logger Logger) *Server {
	zl := logging.NewZapLogger(logger.WithFields(map[string]interface{}{
		"component": "optimizer",
	}))
	return &Server{
		cfg:    cfg,
		logger: logger,
		tracer: optimization.NewZapTracer(zl),
		runs:   make(map[string]*RunState),
	}
}

func (s *Server) RegisterRoutes(r chi.Router) {
	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/optimize", s.handleOptimize)
		r.Get("/status/{id}", s.handleStatus)
		r.Delete("/optimization/{id}", s.handleCancel)
	})

	// JSON-RPC 2.0 endpoint
	r.Post("/rpc", s.handleJSONRPC)
}

// startParams are the caller-supplied parameters of a run.
type startParams struct {
	Objective     string    `json:"objective"`
	Initial       []float64 `json:"initial"`
	Method        string    `json:"method"`
	MaxIterations int       `json:"max_iterations"`
	Tolerance     float64   `json:"tolerance"`
	// FixedStep switches from line search to a constant step size when
	// positive.
	FixedStep float64 `json:"fixed_step"`
}

// handleJSONRPC handles JSON-RPC 2.0 requests.
func (s *Server) handleJSONRPC(w http.ResponseWriter, r *http.Request) {
	var request struct {
		JSONRPC string          `json:"jsonrpc"`
		ID      interface{}     `json:"id"`
		Method  string          `json:"method"`
		Params  json.RawMessage `json:"params,omitempty"`
	}

	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		s.respondWithError(w, -32700, "Parse error", nil)
		return
	}

	if request.JSONRPC != "2.0" {
		s.respondWithError(w, -32600, "Invalid Request", nil)
		return
	}

	var result interface{}
	var err error

	switch request.Method {
	case "optimization.start":
		result, err = s.startRun(request.Params)
	case "optimization.status":
		result, err = s.runStatus(request.Params)
	case "optimization.cancel":
		err = s.cancelRun(request.Params)
	default:
		s.respondWithError(w, -32601, "Method not found", request.ID)
		return
	}

	if err != nil {
		s.respondWithError(w, -32000, err.Error(), request.ID)
		return
	}

	response := map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      request.ID,
		"result":  result,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// startRun validates the parameters, registers a run and launches it.
func (s *Server) startRun(raw json.RawMessage) (interface{}, error) {
	var params startParams
	if len(raw) == 0 {
		return nil, fmt.Errorf("missing required parameters")
	}
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, fmt.Errorf("invalid parameter format: %v", err)
	}
	if params.Objective == "" {
		return nil, fmt.Errorf("objective is required")
	}
	if len(params.Initial) == 0 {
		return nil, fmt.Errorf("initial point is required")
	}

	problem, err := lookupProblem(params.Objective, len(params.Initial))
	if err != nil {
		return nil, err
	}

	method := conjgrad.PolakRibiere
	if params.Method != "" {
		method, err = conjgrad.ParseMethod(params.Method)
		if err != nil {
			return nil, err
		}
	}

	opt, err := s.newOptimizer(problem, method, params)
	if err != nil {
		return nil, err
	}

	maxIter := params.MaxIterations
	if maxIter <= 0 {
		maxIter = s.cfg.Optimization.MaxIterations
	}
	tol := params.Tolerance
	if tol <= 0 {
		tol = s.cfg.Optimization.GradTolerance
	}

	id := fmt.Sprintf("run_%d", time.Now().UnixNano())
	ctx, cancel := context.WithCancel(context.Background())

	state := &RunState{
		ID:          id,
		Status:      "pending",
		Objective:   problem.Name,
		Method:      method.String(),
		StartTime:   time.Now(),
		LastUpdated: time.Now(),
		CancelFunc:  cancel,
	}

	s.runsMu.Lock()
	s.runs[id] = state
	s.runsMu.Unlock()

	runsStarted.Inc()
	go s.runOptimization(ctx, state, opt, maxIter, tol)

	return map[string]interface{}{
		"optimization_id": id,
		"status":          "pending",
	}, nil
}

// newOptimizer assembles the conjugate-gradient optimizer for one run from
// the request parameters and the service defaults.
func (s *Server) newOptimizer(problem Problem, method conjgrad.Method, params startParams) (*conjgrad.Optimizer[[]float64], error) {
	var step conjgrad.StepMethod
	if params.FixedStep > 0 {
		step = conjgrad.FixedStep{Size: params.FixedStep}
	} else {
		step = conjgrad.Backtracking{
			Armijo:      s.cfg.Optimization.Armijo,
			Contraction: s.cfg.Optimization.Contraction,
			Growth:      s.cfg.Optimization.Growth,
			MaxShrinks:  s.cfg.Optimization.MaxShrinks,
		}
	}

	return conjgrad.New(conjgrad.Config[[]float64]{
		Space:     vecspace.NewDense(len(params.Initial)),
		Objective: problem.Eval,
		Gradient:  problem.Grad,
		Method:    method,
		Step:      step,
		Tracer:    s.tracer,
	}, append([]float64(nil), params.Initial...))
}

// runOptimization executes one run to completion in a goroutine.
func (s *Server) runOptimization(ctx context.Context, state *RunState, opt *conjgrad.Optimizer[[]float64], maxIter int, tol float64) {
	s.runsMu.Lock()
	state.Status = "running"
	state.LastUpdated = time.Now()
	s.runsMu.Unlock()

	result, err := opt.Run(ctx, maxIter, tol)

	s.runsMu.Lock()
	defer s.runsMu.Unlock()

	now := time.Now()
	state.EndTime = &now
	state.LastUpdated = now

	switch {
	case errors.Is(err, context.Canceled):
		state.Status = "cancelled"
	case err != nil:
		s.logger.Error("Optimization failed", map[string]interface{}{
			"optimization_id": state.ID,
			"error":           err.Error(),
		})
		state.Status = "failed"
		state.Err = err.Error()
	default:
		state.Status = "completed"
		state.Result = result
		runIterations.Observe(float64(result.Iterations))
	}
	runsFinished.WithLabelValues(state.Status).Inc()
}

// runStatus reports the current status and result of a run.
func (s *Server) runStatus(raw json.RawMessage) (interface{}, error) {
	var params struct {
		OptimizationID string `json:"optimization_id"`
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("missing required parameters")
	}
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, fmt.Errorf("invalid parameter format: %v", err)
	}
	if params.OptimizationID == "" {
		return nil, fmt.Errorf("optimization_id is required")
	}

	s.runsMu.RLock()
	defer s.runsMu.RUnlock()

	state, exists := s.runs[params.OptimizationID]
	if !exists {
		return nil, fmt.Errorf("optimization not found")
	}

	response := map[string]interface{}{
		"status":      state.Status,
		"objective":   state.Objective,
		"method":      state.Method,
		"start_time":  state.StartTime.Format(time.RFC3339),
		"last_update": state.LastUpdated.Format(time.RFC3339),
	}

	if state.EndTime != nil {
		response["end_time"] = state.EndTime.Format(time.RFC3339)
	}
	if state.Err != "" {
		response["error"] = state.Err
	}
	if state.Result != nil {
		response["iterations"] = state.Result.Iterations
		response["converged"] = state.Result.Converged
		response["solution"] = map[string]interface{}{
			"point":     state.Result.Final.X,
			"value":     state.Result.Final.F,
			"step_size": state.Result.Final.StepSize,
		}
	}

	return response, nil
}

// cancelRun cancels a running optimization.
func (s *Server) cancelRun(raw json.RawMessage) error {
	var params struct {
		OptimizationID string `json:"optimization_id"`
	}
	if len(raw) == 0 {
		return fmt.Errorf("missing required parameters")
	}
	if err := json.Unmarshal(raw, &params); err != nil {
		return fmt.Errorf("invalid parameter format: %v", err)
	}
	if params.OptimizationID == "" {
		return fmt.Errorf("optimization_id is required")
	}

	s.runsMu.Lock()
	defer s.runsMu.Unlock()

	state, exists := s.runs[params.OptimizationID]
	if !exists {
		return fmt.Errorf("optimization not found")
	}

	switch state.Status {
	case "completed", "failed", "cancelled":
		return fmt.Errorf("cannot cancel optimization with status: %s", state.Status)
	}

	if state.CancelFunc != nil {
		state.CancelFunc()
	}

	state.Status = "cancelled"
	now := time.Now()
	state.EndTime = &now
	state.LastUpdated = now

	s.logger.Info("Optimization cancelled", map[string]interface{}{
		"optimization_id": params.OptimizationID,
	})

	return nil
}

// respondWithError sends a JSON-RPC 2.0 error response.
func (s *Server) respondWithError(w http.ResponseWriter, code int, message string, id interface{}) {
	s.logger.Error("Request error", map[string]interface{}{
		"status":  code,
		"message": message,
	})

	response := map[string]interface{}{
		"jsonrpc": "2.0",
		"error": map[string]interface{}{
			"code":    code,
			"message": message,
		},
		"id": id,
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}

// Close cancels all running optimizations.
func (s *Server) Close() error {
	s.runsMu.Lock()
	defer s.runsMu.Unlock()

	for _, run := range s.runs {
		if run.CancelFunc != nil {
			run.CancelFunc()
		}
	}
	return nil
}

// handleOptimize handles POST /api/v1/optimize.
func (s *Server) handleOptimize(w http.ResponseWriter, r *http.Request) {
	var params startParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	encoded, err := json.Marshal(params)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	result, err := s.startRun(encoded)

	w.Header().Set("Content-Type", "application/json")
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(result)
}

// handleStatus handles GET /api/v1/status/{id}.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		http.Error(w, "Missing optimization ID", http.StatusBadRequest)
		return
	}

	encoded, _ := json.Marshal(map[string]string{"optimization_id": id})
	result, err := s.runStatus(encoded)

	w.Header().Set("Content-Type", "application/json")
	if err != nil {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(result)
}

// handleCancel handles DELETE /api/v1/optimization/{id}.
func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		http.Error(w, "Missing optimization ID", http.StatusBadRequest)
		return
	}

	encoded, _ := json.Marshal(map[string]string{"optimization_id": id})
	err := s.cancelRun(encoded)

	w.Header().Set("Content-Type", "application/json")
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status": "cancellation requested",
	})
}
