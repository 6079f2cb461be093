package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/google/uuid"

	"github.com/matzehuels/stippler/pkg/buildinfo"
	"github.com/matzehuels/stippler/pkg/config"
	"github.com/matzehuels/stippler/pkg/errors"
	"github.com/matzehuels/stippler/pkg/pipeline"
)

// Response headers.
const (
	HeaderRunID      = "X-Run-ID"
	HeaderRelaxCache = "X-Cache-Relax"
)

// contentTypes maps output formats to MIME types.
var contentTypes = map[string]string{
	pipeline.FormatSVG:   "image/svg+xml",
	pipeline.FormatPNG:   "image/png",
	pipeline.FormatJSON:  "application/json",
	pipeline.FormatDOT:   "text/vnd.graphviz; charset=utf-8",
	pipeline.FormatGraph: "image/svg+xml",
}

// errorResponse is the JSON body of every failed request.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
	RunID string `json:"run_id,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": buildinfo.Version,
	})
}

func (s *Server) handleStipple(w http.ResponseWriter, r *http.Request) {
	runID := uuid.NewString()
	w.Header().Set(HeaderRunID, runID)

	opts, err := s.parseOptions(r.URL.Query())
	if err != nil {
		s.writeError(w, runID, err)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{
				Error: "image exceeds " + strconv.FormatInt(s.cfg.MaxBodyBytes, 10) + " bytes",
				RunID: runID,
			})
			return
		}
		s.writeError(w, runID, errors.Wrap(errors.ErrCodeInvalidInput, err, "read body"))
		return
	}
	if len(body) == 0 {
		s.writeError(w, runID, errors.New(errors.ErrCodeInvalidImage, "empty request body"))
		return
	}

	opts.ImageData = body
	opts.RunID = runID
	result, err := s.runner.Execute(r.Context(), opts)
	if err != nil {
		s.writeError(w, runID, err)
		return
	}

	format := opts.Formats[0]
	relaxCache := "miss"
	if result.CacheInfo.RelaxHit {
		relaxCache = "hit"
	}
	w.Header().Set(HeaderRelaxCache, relaxCache)
	w.Header().Set("Content-Type", contentTypes[format])
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.Artifacts[format])
}

// parseOptions maps query parameters onto pipeline options. Unset
// parameters keep the pipeline defaults.
func (s *Server) parseOptions(q url.Values) (pipeline.Options, error) {
	var opts pipeline.Options
	p := queryParser{q: q}

	opts.Points = p.intParam("points")
	opts.Passes = p.intParam("passes")
	opts.Damping = p.floatParam("damping")
	opts.Polarity = q.Get("polarity")
	opts.Seed = p.uintParam("seed")
	opts.SeedStrategy = q.Get("seeding")
	opts.ShowCells = p.boolParam("cells")
	opts.ShowDelaunay = p.boolParam("delaunay")
	opts.ShowImage = p.boolParam("image")
	opts.PointRadius = p.floatParam("radius")
	opts.Scale = p.floatParam("scale")
	if raster := q.Get("raster"); raster != "" && p.err == nil {
		opts.RasterWidth, opts.RasterHeight, p.err = config.ParseRaster(raster)
	}
	if p.err != nil {
		return opts, p.err
	}

	format := q.Get("format")
	if format == "" {
		format = pipeline.FormatSVG
	}
	if err := pipeline.ValidateFormat(format); err != nil {
		return opts, err
	}
	opts.Formats = []string{format}

	if opts.Points > s.cfg.MaxPoints {
		return opts, errors.New(errors.ErrCodeInvalidInput, "points must be at most %d", s.cfg.MaxPoints)
	}
	if opts.Passes > s.cfg.MaxPasses {
		return opts, errors.New(errors.ErrCodeInvalidInput, "passes must be at most %d", s.cfg.MaxPasses)
	}
	return opts, nil
}

// writeError maps err onto a status code: bad input is the client's fault,
// an expired deadline means the server gave up, anything else is ours.
func (s *Server) writeError(w http.ResponseWriter, runID string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.IsInputError(err):
		status = http.StatusBadRequest
	case stderrors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	case stderrors.Is(err, context.Canceled):
		// Client went away; nobody reads the response.
		status = 499
	}
	if status >= 500 {
		s.logger.Error("stipple failed", "run", runID, "err", err)
	}

	msg := errors.UserMessage(err)
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}
	writeJSON(w, status, errorResponse{
		Error: msg,
		Code:  string(errors.GetCode(err)),
		RunID: runID,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// queryParser collects the first parse error across several parameters.
type queryParser struct {
	q   url.Values
	err error
}

func (p *queryParser) fail(name, raw string, err error) {
	if p.err == nil {
		p.err = errors.Wrap(errors.ErrCodeInvalidInput, err, "query parameter %s=%q", name, raw)
	}
}

func (p *queryParser) intParam(name string) int {
	raw := p.q.Get(name)
	if raw == "" {
		return 0
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		p.fail(name, raw, err)
	}
	return v
}

func (p *queryParser) uintParam(name string) uint64 {
	raw := p.q.Get(name)
	if raw == "" {
		return 0
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		p.fail(name, raw, err)
	}
	return v
}

func (p *queryParser) floatParam(name string) float64 {
	raw := p.q.Get(name)
	if raw == "" {
		return 0
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		p.fail(name, raw, err)
	}
	return v
}

func (p *queryParser) boolParam(name string) bool {
	raw := p.q.Get(name)
	if raw == "" {
		return false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		p.fail(name, raw, err)
	}
	return v
}
