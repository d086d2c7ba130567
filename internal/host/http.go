// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package host

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/samber/oops"

	"github.com/holomush/mediabutton/internal/observability"
	"github.com/holomush/mediabutton/internal/world"
	"github.com/holomush/mediabutton/pkg/plugin"
)

// UserHeader carries the clicking user's ID.
const UserHeader = "X-User-ID"

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// Handler serves the click ingress API:
//
//	POST /v1/objects/{id}/click           run the object's components
//	GET  /v1/components                   list registered components
//	POST /v1/components/{id}/settings     settings panel for field values
type Handler struct {
	host    *Host
	metrics *observability.Metrics
	mux     *http.ServeMux
}

// NewHandler creates the ingress handler. metrics may be nil.
func NewHandler(h *Host, metrics *observability.Metrics) *Handler {
	hd := &Handler{host: h, metrics: metrics, mux: http.NewServeMux()}
	hd.handle("POST /v1/objects/{id}/click", "click", hd.click)
	hd.handle("GET /v1/components", "components", hd.components)
	hd.handle("POST /v1/components/{id}/settings", "settings", hd.settings)
	return hd
}

// ServeHTTP implements http.Handler.
func (hd *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	hd.mux.ServeHTTP(w, r)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (hd *Handler) handle(pattern, route string, fn http.HandlerFunc) {
	hd.mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		fn(rec, r)
		if hd.metrics != nil {
			hd.metrics.RequestsTotal.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
			hd.metrics.RequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
		}
	})
}

func (hd *Handler) click(w http.ResponseWriter, r *http.Request) {
	userID := r.Header.Get(UserHeader)
	if userID == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: UserHeader + " header is required", Code: "MISSING_USER"})
		return
	}

	result, err := hd.host.Click(r.Context(), r.PathValue("id"), userID)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (hd *Handler) components(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"components": hd.host.Registry().Descriptors()})
}

func (hd *Handler) settings(w http.ResponseWriter, r *http.Request) {
	var fields plugin.Fields
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&fields); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "body must be a JSON object of field values", Code: "INVALID_BODY"})
		return
	}
	panel, err := hd.host.Registry().Settings(r.PathValue("id"), fields)
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	if panel == nil {
		panel = []plugin.SettingField{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"fields": panel})
}

func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	body := errorBody{Error: err.Error()}
	status := http.StatusInternalServerError
	if oopsErr, ok := oops.AsOops(err); ok {
		if code, ok := oopsErr.Code().(string); ok {
			body.Code = code
		}
	}
	switch {
	case errors.Is(err, world.ErrNotFound), body.Code == CodeUnknownComponent:
		status = http.StatusNotFound
	case body.Code == "INVALID_CLICK":
		status = http.StatusBadRequest
	default:
		slog.ErrorContext(ctx, "ingress request failed", "error", err)
		body.Error = "internal error"
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck // client may disconnect
	json.NewEncoder(w).Encode(v)
}

// Server serves a Handler on a TCP address.
type Server struct {
	addr       string
	handler    http.Handler
	listener   net.Listener
	httpServer *http.Server
	running    atomic.Bool
}

// NewServer creates an ingress server.
func NewServer(addr string, handler http.Handler) *Server {
	return &Server{addr: addr, handler: handler}
}

// Start begins serving. The returned channel receives any serve error and
// is closed when the server stops.
func (s *Server) Start() (<-chan error, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, oops.Errorf("ingress server already running")
	}
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		s.running.Store(false)
		return nil, oops.With("addr", s.addr).Wrap(err)
	}
	s.listener = listener

	httpSrv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.httpServer = httpSrv

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		if serveErr := httpSrv.Serve(listener); serveErr != nil && serveErr != http.ErrServerClosed {
			slog.Error("ingress server error", "error", serveErr)
			errCh <- serveErr
		}
	}()

	slog.Info("ingress server started", "addr", listener.Addr().String())
	return errCh, nil
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.running.Store(true)
			return oops.With("operation", "shutdown_ingress_server").Wrap(err)
		}
	}
	slog.Info("ingress server stopped")
	return nil
}

// Addr returns the listening address, or "" when not started.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return ""
}
