// Package httpapi is a deprecated-but-supported REST facade over the
// merge engine, for callers that don't want a gRPC client. It covers
// only the merge-engine surface (analyze/merge), not the full
// catalog-management surface the gRPC/HTTP APIs used to share.
package httpapi

import (
	"encoding/base64"
	"log/slog"
	"net/http"

	"github.com/cartomix/stitchcore/internal/analyzer"
	"github.com/cartomix/stitchcore/internal/config"
	"github.com/cartomix/stitchcore/internal/domain"
	"github.com/cartomix/stitchcore/internal/exporter"
	"github.com/cartomix/stitchcore/internal/mixer"
	"github.com/cartomix/stitchcore/internal/wavio"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// Server provides HTTP REST endpoints over the merge engine.
type Server struct {
	cfg       *config.Config
	logger    *slog.Logger
	renderer  *mixer.Renderer
	analyzer  analyzer.Analyzer
	echo      *echo.Echo
	validate  *validator.Validate
}

// requestValidator adapts go-playground/validator to echo's Validator interface.
type requestValidator struct {
	v *validator.Validate
}

func (rv *requestValidator) Validate(i any) error {
	return rv.v.Struct(i)
}

// NewServer creates a new HTTP API server wrapping the merge engine.
func NewServer(cfg *config.Config, logger *slog.Logger, az analyzer.Analyzer) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	r := mixer.NewRenderer(az, logger)
	r.Mastering.TargetLoudnessLUFS = cfg.TargetLoudnessLUFS
	r.Mastering.TruePeakCeilingDB = cfg.TruePeakCeilingDB

	e := echo.New()
	e.HideBanner = true
	v := validator.New()
	e.Validator = &requestValidator{v: v}

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.CORS())
	e.Use(deprecationMiddleware)

	s := &Server{cfg: cfg, logger: logger, renderer: r, analyzer: az, echo: e, validate: v}
	s.registerRoutes()
	return s
}

// Handler returns the http.Handler to mount, e.g. via http.ListenAndServe.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// deprecationMiddleware adds RFC 8594 Sunset/Deprecation headers,
// pointing callers at the gRPC transport.
func deprecationMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Response().Header().Set("Sunset", "Wed, 01 Jul 2026 00:00:00 GMT")
		c.Response().Header().Set("Deprecation", "true")
		c.Response().Header().Set("X-API-Deprecation-Notice", "This HTTP REST API is deprecated. Prefer the gRPC EngineAPI service.")
		return next(c)
	}
}

func (s *Server) registerRoutes() {
	api := s.echo.Group("/api")
	api.GET("/health", s.handleHealth)
	api.POST("/analyze", s.handleAnalyze)
	api.POST("/merge", s.handleMerge)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// analyzeRequest is the JSON body for POST /api/analyze.
type analyzeRequest struct {
	WAVBase64 string `json:"wav_base64" validate:"required,base64"`
}

func (s *Server) handleAnalyze(c echo.Context) error {
	var req analyzeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	raw, err := base64.StdEncoding.DecodeString(req.WAVBase64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid base64 wav payload")
	}

	buf, err := wavio.Decode(raw)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	summary, err := s.analyzer.Analyze(c.Request().Context(), buf)
	if err != nil {
		s.logger.Error("analyze failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "analysis failed")
	}

	return c.JSON(http.StatusOK, summary)
}

// mergeRequest is the JSON body for POST /api/merge.
type mergeRequest struct {
	WAVABase64       string                `json:"wav_a_base64" validate:"required,base64"`
	WAVBBase64       string                `json:"wav_b_base64" validate:"required,base64"`
	CrossfadeSeconds float64               `json:"crossfade_seconds" validate:"gte=0"`
	MixMode          string                `json:"mix_mode" validate:"omitempty,oneof=festival club_smooth neutral"`
	PlanOverride     *domain.PlanOverride  `json:"plan_override,omitempty"`
	ExportName       string                `json:"export_name,omitempty"`
}

// mergeResponse is the JSON body returned by POST /api/merge.
type mergeResponse struct {
	WAVBase64  string                  `json:"wav_base64"`
	Plan       domain.TransitionPlan   `json:"plan"`
	AnalysisA  domain.AnalysisSummary  `json:"analysis_a"`
	AnalysisB  domain.AnalysisSummary  `json:"analysis_b"`
	BundlePath string                  `json:"bundle_path,omitempty"`
}

func (s *Server) handleMerge(c echo.Context) error {
	var req mergeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	rawA, err := base64.StdEncoding.DecodeString(req.WAVABase64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid base64 wav_a payload")
	}
	rawB, err := base64.StdEncoding.DecodeString(req.WAVBBase64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid base64 wav_b payload")
	}

	bufA, err := wavio.Decode(rawA)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "decode wav_a: "+err.Error())
	}
	bufB, err := wavio.Decode(rawB)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "decode wav_b: "+err.Error())
	}

	mode := domain.ModeNeutral
	if req.MixMode != "" {
		mode = domain.MixMode(req.MixMode)
	}
	crossfade := req.CrossfadeSeconds
	if crossfade == 0 {
		crossfade = s.cfg.CrossfadeSeconds
	}

	result, wav, err := s.renderer.Merge(c.Request().Context(), bufA, bufB, crossfade, mode, req.PlanOverride)
	if err != nil {
		s.logger.Error("merge failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "merge failed: "+err.Error())
	}

	resp := mergeResponse{
		WAVBase64: base64.StdEncoding.EncodeToString(wav),
		Plan:      result.Plan,
		AnalysisA: result.AnalysisA,
		AnalysisB: result.AnalysisB,
	}

	if req.ExportName != "" {
		exportDir := s.cfg.DataDir + "/exports/" + uuid.NewString()
		res, err := exporter.WriteMerge(exportDir, req.ExportName, wav, result)
		if err != nil {
			s.logger.Warn("export bundle failed", "error", err)
		} else {
			resp.BundlePath = res.BundlePath
		}
	}

	return c.JSON(http.StatusOK, resp)
}
