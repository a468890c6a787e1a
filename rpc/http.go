package rpc

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"

	"credpool/core"
	"credpool/observability"
	"credpool/observability/logging"
)

const maxRequestBytes = 1 << 20 // 1 MiB

// Options configures the JSON-RPC server.
type Options struct {
	// AdminSecret is the HMAC key validating admin bearer tokens. Admin
	// methods reject every request when empty.
	AdminSecret []byte
	Issuer      string

	RatePerSecond float64
	RateBurst     int

	Logger *slog.Logger
}

type handlerFunc func(r *http.Request, req *RPCRequest) (interface{}, *rpcError)

type Server struct {
	node *core.Node
	log  *slog.Logger
	auth *authenticator

	ratePerSecond rate.Limit
	rateBurst     int

	mu       sync.Mutex
	visitors map[string]*rate.Limiter

	handlers     map[string]handlerFunc
	adminMethods map[string]struct{}
}

func NewServer(node *core.Node, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	perSecond := opts.RatePerSecond
	if perSecond <= 0 {
		perSecond = 50
	}
	burst := opts.RateBurst
	if burst <= 0 {
		burst = 100
	}
	issuer := strings.TrimSpace(opts.Issuer)
	if issuer == "" {
		issuer = "credpool"
	}
	s := &Server{
		node:          node,
		log:           logger,
		auth:          newAuthenticator(opts.AdminSecret, issuer),
		ratePerSecond: rate.Limit(perSecond),
		rateBurst:     burst,
		visitors:      make(map[string]*rate.Limiter),
	}
	s.handlers = map[string]handlerFunc{
		"credpool_deposit":         s.handleDeposit,
		"credpool_withdraw":        s.handleWithdraw,
		"credpool_previewWithdraw": s.handlePreviewWithdraw,
		"credpool_balanceOf":       s.handleBalanceOf,
		"credpool_getLender":       s.handleGetLender,
		"credpool_openLoan":        s.handleOpenLoan,
		"credpool_repay":           s.handleRepay,
		"credpool_checkDefault":    s.handleCheckDefault,
		"credpool_isBanned":        s.handleIsBanned,
		"credpool_getLoan":         s.handleGetLoan,
		"credpool_getPolicy":       s.handleGetPolicy,
		"credpool_poolStats":       s.handlePoolStats,
		"credpool_events":          s.handleEvents,
		"credpool_unban":           s.handleUnban,
		"credpool_setOracle":       s.handleSetOracle,
		"credpool_setMinScore":     s.handleSetMinScore,
		"credpool_setDepositLock":  s.handleSetDepositLock,
	}
	s.adminMethods = map[string]struct{}{
		"credpool_unban":          {},
		"credpool_setOracle":      {},
		"credpool_setMinScore":    {},
		"credpool_setDepositLock": {},
	}
	return s
}

// Router assembles the HTTP surface: the JSON-RPC endpoint plus health and
// metrics probes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Post("/", s.handle)
	return otelhttp.NewHandler(r, "credpool.rpc")
}

// Start serves the router until the listener fails.
func (s *Server) Start(addr string) error {
	s.log.Info("starting JSON-RPC server", "addr", addr)
	server := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return server.ListenAndServe()
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	reader := http.MaxBytesReader(w, r.Body, maxRequestBytes)
	defer func() {
		_ = reader.Close()
	}()

	w.Header().Set("Content-Type", "application/json")

	if !s.allow(r) {
		observability.RPC().RecordThrottle("rate_limit")
		writeError(w, http.StatusTooManyRequests, nil, codeRateLimited, "too many requests", nil)
		return
	}

	body, err := io.ReadAll(reader)
	if err != nil {
		status := http.StatusBadRequest
		message := "failed to read request body"
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			status = http.StatusRequestEntityTooLarge
			message = fmt.Sprintf("request body exceeds %d bytes", maxRequestBytes)
		}
		writeError(w, status, nil, codeInvalidRequest, message, err.Error())
		return
	}
	if len(bytes.TrimSpace(body)) == 0 {
		writeError(w, http.StatusBadRequest, nil, codeInvalidRequest, "request body required", nil)
		return
	}

	req := &RPCRequest{}
	if err := json.Unmarshal(body, req); err != nil {
		writeError(w, http.StatusBadRequest, nil, codeParseError, "invalid JSON payload", err.Error())
		return
	}
	if req.JSONRPC != "" && req.JSONRPC != jsonRPCVersion {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "unsupported jsonrpc version", req.JSONRPC)
		return
	}
	if req.Method == "" {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "method required", nil)
		return
	}

	handler, ok := s.handlers[req.Method]
	if !ok {
		writeError(w, http.StatusNotFound, req.ID, codeMethodNotFound, "method not found", req.Method)
		return
	}
	if _, admin := s.adminMethods[req.Method]; admin {
		if err := s.auth.authorize(r, adminScope); err != nil {
			observability.RPC().Observe(req.Method, codeUnauthorized, 0)
			s.log.Warn("admin auth failed",
				"method", req.Method,
				"error", err.Error(),
				logging.MaskField("token", extractBearer(r.Header.Get("Authorization"))))
			writeError(w, http.StatusUnauthorized, req.ID, codeUnauthorized, err.Error(), nil)
			return
		}
	}

	start := time.Now()
	result, rpcErr := handler(r, req)
	duration := time.Since(start)
	if rpcErr != nil {
		observability.RPC().Observe(req.Method, rpcErr.Code, duration)
		s.log.Warn("rpc call failed", "method", req.Method, "code", rpcErr.Code, "error", rpcErr.Message)
		writeError(w, rpcErr.HTTPStatus, req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
		return
	}
	observability.RPC().Observe(req.Method, 0, duration)
	writeResult(w, req.ID, result)
}

func (s *Server) allow(r *http.Request) bool {
	id := clientID(r)
	s.mu.Lock()
	limiter, ok := s.visitors[id]
	if !ok {
		limiter = rate.NewLimiter(s.ratePerSecond, s.rateBurst)
		s.visitors[id] = limiter
	}
	s.mu.Unlock()
	return limiter.Allow()
}

func clientID(r *http.Request) string {
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		if comma := strings.IndexByte(ip, ','); comma > 0 {
			ip = ip[:comma]
		}
		if parsed := net.ParseIP(strings.TrimSpace(ip)); parsed != nil {
			return parsed.String()
		}
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// requireSingleObject unmarshals the lone params entry into out.
func requireSingleObject(req *RPCRequest, out interface{}) *rpcError {
	if len(req.Params) != 1 {
		return invalidParams("expected parameter object", nil)
	}
	if err := json.Unmarshal(req.Params[0], out); err != nil {
		return invalidParams("invalid parameter object", err.Error())
	}
	return nil
}

func requireNoParams(req *RPCRequest) *rpcError {
	if len(req.Params) != 0 {
		return invalidParams("no parameters expected", nil)
	}
	return nil
}
