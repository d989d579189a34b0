package rpc

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"autolend/native/lending"
	"autolend/observability"
)

const (
	jsonRPCVersion  = "2.0"
	maxRequestBytes = 1 << 20 // 1 MiB
)

const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeServerError    = -32000

	codeAccountNotFound         = -32040
	codeInsufficientLiquidity   = -32041
	codeUtilizationExceeded     = -32042
	codeCollateralBelowMinimum  = -32043
	codeLiquidationNotAllowed   = -32044
	codeNoOutstandingDebt       = -32045
	codeLiquidationSizeExceeded = -32046
	codeLiquidationOverpaid     = -32047
	codeAssetMismatch           = -32048
	codePoolNotInitialized      = -32049
)

// Server exposes the lending engine over JSON-RPC 2.0. Ledger operations run
// under one mutex: the engine itself holds no locks, so the server supplies
// the serialized, atomic execution the core's transaction model expects.
type Server struct {
	engine  *lending.Engine
	logger  *slog.Logger
	metrics *observability.LendingMetrics

	mu sync.Mutex
}

// NewServer wires the engine behind the RPC surface.
func NewServer(engine *lending.Engine, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		engine:  engine,
		logger:  logger,
		metrics: observability.Lending(),
	}
}

// Handler returns the HTTP handler serving the RPC endpoint, /metrics and
// /healthz.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handle)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

// Start serves the RPC surface on addr until the listener fails.
func (s *Server) Start(addr string) error {
	s.logger.Info("starting JSON-RPC server", slog.String("addr", addr))
	return http.ListenAndServe(addr, s.Handler())
}

type RPCRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
	ID      int               `json:"id"`
}

type RPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
}

type RPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, nil, codeInvalidRequest, "POST required", nil)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, nil, codeParseError, "unable to read request", nil)
		return
	}

	var req RPCRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, nil, codeParseError, "invalid JSON", err.Error())
		return
	}
	if req.JSONRPC != jsonRPCVersion {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "unsupported JSON-RPC version", nil)
		return
	}

	handler, ok := s.methods()[req.Method]
	if !ok {
		writeError(w, http.StatusNotFound, req.ID, codeMethodNotFound, "method not found", req.Method)
		return
	}
	handler(w, &req)
}

func writeError(w http.ResponseWriter, status int, id interface{}, code int, message string, data interface{}) {
	if status <= 0 {
		status = http.StatusBadRequest
	}
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	errObj := &RPCError{Code: code, Message: message}
	if data != nil {
		errObj.Data = data
	}
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Error: errObj}
	_ = json.NewEncoder(w).Encode(resp)
}

func writeResult(w http.ResponseWriter, id interface{}, result interface{}) {
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Result: result}
	_ = json.NewEncoder(w).Encode(resp)
}

// run executes one ledger operation under the server mutex and records its
// outcome.
func (s *Server) run(op string, fn func() (interface{}, error)) (interface{}, error) {
	start := time.Now()
	s.mu.Lock()
	result, err := fn()
	if err == nil {
		if pool, poolErr := s.engine.Pool(); poolErr == nil {
			s.metrics.SetPoolBalance(pool.Balance.InexactFloat64())
		}
	}
	s.mu.Unlock()

	outcome := "ok"
	if err != nil {
		outcome = "error"
		s.metrics.ObserveError(op, errorReason(err))
		s.logger.Warn("lending operation failed",
			slog.String("operation", op), slog.Any("error", err))
	}
	s.metrics.ObserveOperation(op, outcome, time.Since(start).Seconds())
	return result, err
}

func errorReason(err error) string {
	switch {
	case errors.Is(err, lending.ErrAccountNotFound):
		return "account_not_found"
	case errors.Is(err, lending.ErrInsufficientPoolLiquidity):
		return "insufficient_pool_liquidity"
	case errors.Is(err, lending.ErrUtilizationExceeded):
		return "utilization_exceeded"
	case errors.Is(err, lending.ErrCollateralBelowMinimum):
		return "collateral_below_minimum"
	case errors.Is(err, lending.ErrLiquidationNotAllowed):
		return "liquidation_not_allowed"
	case errors.Is(err, lending.ErrNoOutstandingDebt):
		return "no_outstanding_debt"
	case errors.Is(err, lending.ErrLiquidationSizeExceeded):
		return "liquidation_size_exceeded"
	case errors.Is(err, lending.ErrLiquidationOverpaid):
		return "liquidation_overpaid"
	case errors.Is(err, lending.ErrAssetMismatch):
		return "asset_mismatch"
	case errors.Is(err, lending.ErrInvalidAmount):
		return "invalid_amount"
	case errors.Is(err, lending.ErrPoolNotInitialized):
		return "pool_not_initialized"
	default:
		return "internal"
	}
}

func writeEngineError(w http.ResponseWriter, id interface{}, err error) {
	status, code := http.StatusInternalServerError, codeServerError
	switch {
	case errors.Is(err, lending.ErrAccountNotFound):
		status, code = http.StatusNotFound, codeAccountNotFound
	case errors.Is(err, lending.ErrInsufficientPoolLiquidity):
		status, code = http.StatusConflict, codeInsufficientLiquidity
	case errors.Is(err, lending.ErrUtilizationExceeded):
		status, code = http.StatusConflict, codeUtilizationExceeded
	case errors.Is(err, lending.ErrCollateralBelowMinimum):
		status, code = http.StatusConflict, codeCollateralBelowMinimum
	case errors.Is(err, lending.ErrLiquidationNotAllowed):
		status, code = http.StatusConflict, codeLiquidationNotAllowed
	case errors.Is(err, lending.ErrNoOutstandingDebt):
		status, code = http.StatusConflict, codeNoOutstandingDebt
	case errors.Is(err, lending.ErrLiquidationSizeExceeded):
		status, code = http.StatusConflict, codeLiquidationSizeExceeded
	case errors.Is(err, lending.ErrLiquidationOverpaid):
		status, code = http.StatusConflict, codeLiquidationOverpaid
	case errors.Is(err, lending.ErrAssetMismatch):
		status, code = http.StatusBadRequest, codeAssetMismatch
	case errors.Is(err, lending.ErrInvalidAmount):
		status, code = http.StatusBadRequest, codeInvalidParams
	case errors.Is(err, lending.ErrPoolNotInitialized):
		status, code = http.StatusServiceUnavailable, codePoolNotInitialized
	}
	writeError(w, status, id, code, err.Error(), nil)
}
