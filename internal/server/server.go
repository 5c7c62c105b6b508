// Package server exposes the compilation pipeline over HTTP for
// out-of-process editors. The service is stateless: every request carries a
// full graph document and the response carries the full pass chain.
package server

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/shaderflow/shaderflow/pkg/buildinfo"
	"github.com/shaderflow/shaderflow/pkg/errors"
	"github.com/shaderflow/shaderflow/pkg/graph"
	"github.com/shaderflow/shaderflow/pkg/pipeline"
)

// Server handles compile requests against a shared pipeline runner.
type Server struct {
	runner *pipeline.Runner
	logger *log.Logger
	router chi.Router
}

// New builds a server around the given runner. A nil logger discards.
func New(runner *pipeline.Runner, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	s := &Server{runner: runner, logger: logger}

	r := chi.NewRouter()
	r.Use(s.requestID)
	r.Use(s.logRequests)
	r.Get("/healthz", s.handleHealth)
	r.Get("/version", s.handleVersion)
	r.Post("/compile", s.handleCompile)
	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// requestIDHeader carries the per-request id on responses.
const requestIDHeader = "X-Request-Id"

func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"elapsed", time.Since(start),
			"id", rec.Header().Get(requestIDHeader),
		)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"version": buildinfo.Version,
		"commit":  buildinfo.Commit,
		"built":   buildinfo.Date,
	})
}

// compileRequest is the POST /compile body: a graph document plus run options.
type compileRequest struct {
	graph.Document
	Refresh       bool `json:"refresh,omitempty"`
	SkipInference bool `json:"skip_inference,omitempty"`
	ArrayCapacity int  `json:"array_capacity,omitempty"`
}

// compileResponse is the POST /compile success body.
type compileResponse struct {
	GraphHash string             `json:"graph_hash"`
	Passes    json.RawMessage    `json:"passes"`
	Stats     pipeline.Stats     `json:"stats"`
	Cache     pipeline.CacheInfo `json:"cache"`
}

func (s *Server) handleCompile(w http.ResponseWriter, r *http.Request) {
	var req compileRequest
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(&req); err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeInvalidDocument, err, "decode request"))
		return
	}

	g, output, err := graph.DecodeDocument(req.Document)
	if err != nil {
		writeError(w, err)
		return
	}

	res, err := s.runner.Execute(r.Context(), g, pipeline.Options{
		Output:        output,
		Refresh:       req.Refresh,
		SkipInference: req.SkipInference,
		ArrayCapacity: req.ArrayCapacity,
		Logger:        s.logger,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	passes, err := json.Marshal(res.Passes)
	if err != nil {
		writeError(w, errors.Wrap(errors.ErrCodeInternal, err, "encode passes"))
		return
	}
	writeJSON(w, http.StatusOK, compileResponse{
		GraphHash: res.GraphHash,
		Passes:    passes,
		Stats:     res.Stats,
		Cache:     res.CacheInfo,
	})
}

// errorBody is the JSON error envelope.
type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// statusFor maps error codes to HTTP status: malformed documents are the
// client's encoding problem (400), graphs that decode but cannot compile are
// semantic failures (422).
func statusFor(code errors.Code) int {
	switch code {
	case errors.ErrCodeInvalidDocument, errors.ErrCodeInvalidInput:
		return http.StatusBadRequest
	case errors.ErrCodeInvalidGraph, errors.ErrCodeNodeNotFound, errors.ErrCodePortNotFound:
		return http.StatusUnprocessableEntity
	case errors.ErrCodeNotFound, errors.ErrCodeFileNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	var body errorBody
	body.Error.Code = string(errors.GetCode(err))
	body.Error.Message = errors.UserMessage(err)
	if body.Error.Code == "" {
		body.Error.Code = string(errors.ErrCodeInternal)
	}
	writeJSON(w, statusFor(errors.GetCode(err)), body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
