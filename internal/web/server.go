/*
PURPOSE:
  HTTP front end: serves the form, runs submitted batches and returns the
  page, a JSON payload or a PNG chart.

REQUIREMENTS:
  User-specified:
  - GET / renders the empty form with defaults.
  - POST / accepts multipart/form-data with repeated `config` fields,
    `compute_mode` and any registry parameter.
  - Computation problems never produce a non-200 response; they are
    reported in the text trace.

  Implementation-discovered:
  - urlencoded bodies are accepted too (curl, tests).
  - JSON and PNG variants share the same pipeline as the HTML page.

ARCHITECTURE INTEGRATION:
  - Called by: internal/cli (serve)
  - Uses: internal/params, internal/engine, internal/output, internal/assets

ERROR HANDLING:
  - Request-level failures (unparseable body, unknown compute mode, bad
    selection token, panics outside a configuration) render
    "CRITICAL ERROR" with the stack.

USAGE:
  srv, err := web.New(calc, cfg.FormDefaults)
  http.ListenAndServe(addr, srv.Handler())

RELATED FILES:
  - internal/web/middleware.go
  - internal/assets/templates/index.html
*/

package web

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"runtime/debug"

	"github.com/daryltucker/wst-etc/internal/assets"
	"github.com/daryltucker/wst-etc/internal/engine"
	"github.com/daryltucker/wst-etc/internal/etc"
	"github.com/daryltucker/wst-etc/internal/model"
	"github.com/daryltucker/wst-etc/internal/output"
	"github.com/daryltucker/wst-etc/internal/params"
)

const maxBodyBytes = 10 << 20

// FieldConfig is the repeated form field carrying "<instrument>-<channel>".
const FieldConfig = "config"

// HealthChecker is implemented by backends that can report reachability.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Server is the HTTP front end.
type Server struct {
	dispatcher *engine.Dispatcher
	calc       etc.Calculator
	defaults   func() model.ParameterSet
	tmpl       *template.Template
	mux        *http.ServeMux
}

// New creates a Server with the embedded page template.
// defaults must return a fresh ParameterSet per call.
func New(calc etc.Calculator, defaults func() model.ParameterSet) (*Server, error) {
	return NewWithTemplates(calc, defaults, assets.Templates)
}

// NewWithTemplates creates a Server whose page is read from templates/index.html in fsys.
func NewWithTemplates(calc etc.Calculator, defaults func() model.ParameterSet, fsys fs.FS) (*Server, error) {
	if defaults == nil {
		defaults = params.Defaults
	}
	tmpl, err := template.ParseFS(fsys, "templates/index.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	s := &Server{
		dispatcher: engine.New(calc),
		calc:       calc,
		defaults:   defaults,
		tmpl:       tmpl,
		mux:        http.NewServeMux(),
	}
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /{$}", s.handleIndex)
	s.mux.HandleFunc("POST /{$}", s.handleSubmit)
	s.mux.HandleFunc("POST /api/compute", s.handleAPICompute)
	s.mux.HandleFunc("POST /plot.png", s.handlePlot)
	s.mux.HandleFunc("GET /favicon.ico", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
}

// Handler returns the routed handler wrapped with request logging.
func (s *Server) Handler() http.Handler {
	return withRequestID(s.mux)
}

// result is what one submission produces.
type result struct {
	Params      model.ParameterSet
	ComputeMode model.ComputeMode
	Selected    []string
	DebugOutput string
	Plot        *model.PlotData
	HasWarnings bool
}

func (s *Server) compute(r *http.Request) (res *result) {
	res = &result{Params: s.defaults(), ComputeMode: model.ModeDITNDIT}
	reqID := RequestID(r.Context())

	defer func() {
		if p := recover(); p != nil {
			s.critical(res, reqID, fmt.Errorf("%v", p), debug.Stack())
		}
	}()

	r.Body = http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	if err := parseForm(r); err != nil {
		s.critical(res, reqID, err, debug.Stack())
		return res
	}
	form := r.PostForm

	res.Params = params.Decode(form, res.Params)
	res.Selected = form[FieldConfig]

	// An empty selection wins over an unknown mode.
	mode, modeErr := model.ParseComputeMode(form.Get(model.KeyComputeMode))
	if modeErr == nil {
		res.ComputeMode = mode
	}
	if len(res.Selected) == 0 {
		output.Logger.Infow("No configuration selected", "request_id", reqID)
		res.DebugOutput = params.NoConfigurationMessage
		res.HasWarnings = true
		return res
	}
	if modeErr != nil {
		s.critical(res, reqID, modeErr, debug.Stack())
		return res
	}

	configs, err := params.Expand(res.Selected, res.Params)
	if err != nil {
		s.critical(res, reqID, err, debug.Stack())
		return res
	}

	output.Logger.Infow("Computing batch", "request_id", reqID, "mode", mode, "configs", len(configs))
	batch := s.dispatcher.Run(r.Context(), mode, configs)
	res.DebugOutput = engine.Trace(batch)
	res.Plot = engine.Report(batch)
	res.HasWarnings = batch.HasWarnings
	return res
}

func (s *Server) critical(res *result, reqID string, err error, stack []byte) {
	output.Logger.Errorw("Request failed", "request_id", reqID, "error", err)
	res.DebugOutput = engine.CriticalTrace(err, string(stack))
	res.Plot = nil
	res.HasWarnings = true
}

// parseForm accepts multipart and urlencoded bodies.
func parseForm(r *http.Request) error {
	err := r.ParseMultipartForm(maxBodyBytes)
	if errors.Is(err, http.ErrNotMultipart) {
		err = r.ParseForm()
	}
	if err != nil {
		return fmt.Errorf("failed to parse form: %w", err)
	}
	return nil
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, &result{Params: s.defaults(), ComputeMode: model.ModeDITNDIT})
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, s.compute(r))
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, res *result) {
	var buf bytes.Buffer
	if err := s.tmpl.ExecuteTemplate(&buf, "index.html", newPage(res)); err != nil {
		output.Logger.Errorw("Template failed", "request_id", RequestID(r.Context()), "error", err)
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleAPICompute(w http.ResponseWriter, r *http.Request) {
	res := s.compute(r)
	writeJSON(w, computeResponse{
		Params:      displayParams(res),
		DebugOutput: res.DebugOutput,
		PlotData:    res.Plot,
		HasWarnings: res.HasWarnings,
	})
}

func (s *Server) handlePlot(w http.ResponseWriter, r *http.Request) {
	res := s.compute(r)
	if res.Plot == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	var buf bytes.Buffer
	if err := output.RenderChart(&buf, res.Plot); err != nil {
		if errors.Is(err, output.ErrNoTraces) {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		output.Logger.Errorw("Chart failed", "request_id", RequestID(r.Context()), "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if hc, ok := s.calc.(HealthChecker); ok {
		if err := hc.Health(r.Context()); err != nil {
			output.Logger.Warnw("Backend unhealthy", "request_id", RequestID(r.Context()), "error", err)
			http.Error(w, "backend unavailable: "+err.Error(), http.StatusServiceUnavailable)
			return
		}
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}
