// Package server exposes the merge engine over gRPC. There are no
// protoc-generated stubs in this tree, so request/response payloads
// travel as google.golang.org/protobuf/types/known/structpb.Struct — a
// real, already-compiled protobuf message — built from the plain
// internal/domain structs via a JSON round trip, and the
// grpc.ServiceDesc is hand-registered in the same shape
// protoc-gen-go-grpc would emit.
package server

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cartomix/stitchcore/internal/analyzer"
	"github.com/cartomix/stitchcore/internal/config"
	"github.com/cartomix/stitchcore/internal/domain"
	"github.com/cartomix/stitchcore/internal/exporter"
	"github.com/cartomix/stitchcore/internal/mixer"
	"github.com/cartomix/stitchcore/internal/scanner"
	setplanner "github.com/cartomix/stitchcore/internal/setplanner"
	"github.com/cartomix/stitchcore/internal/storage"
	"github.com/cartomix/stitchcore/internal/wavio"
	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// serviceName is the fully-qualified gRPC service name, used for both
// method routing and the health server's serving-status key.
const serviceName = "stitchcore.engine.EngineAPI"

// EngineServer implements the EngineAPI service: Merge, AnalyzeTrack,
// ScanLibrary and PlanSet unary RPCs over the renderer, analyzer,
// scanner and set planner.
type EngineServer struct {
	cfg      *config.Config
	logger   *slog.Logger
	db       *storage.DB
	analyzer analyzer.Analyzer
	renderer *mixer.Renderer
}

// NewEngineServer constructs an EngineServer wired to the given
// config, logger, database, and analysis backend.
func NewEngineServer(cfg *config.Config, logger *slog.Logger, db *storage.DB, az analyzer.Analyzer) *EngineServer {
	if logger == nil {
		logger = slog.Default()
	}
	r := mixer.NewRenderer(az, logger)
	r.Mastering.TargetLoudnessLUFS = cfg.TargetLoudnessLUFS
	r.Mastering.TruePeakCeilingDB = cfg.TruePeakCeilingDB
	return &EngineServer{cfg: cfg, logger: logger, db: db, analyzer: az, renderer: r}
}

// Merge decodes two base64-encoded WAV payloads from the request
// struct, runs the full C6 pipeline, and returns the rendered WAV
// (base64) plus the resolved plan and both analyses as JSON strings.
//
// Request fields: wav_a (string, base64), wav_b (string, base64),
// crossfade_seconds (number), mix_mode (string: festival|club_smooth|neutral),
// plan_override (string, JSON-encoded domain.PlanOverride, optional),
// export_name (string, optional — when set, also writes an export
// bundle to the server's data dir and returns its path).
func (s *EngineServer) Merge(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.GetFields()

	wavA, err := decodeBase64Field(fields, "wav_a")
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "wav_a: %v", err)
	}
	wavB, err := decodeBase64Field(fields, "wav_b")
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "wav_b: %v", err)
	}

	bufA, err := wavio.Decode(wavA)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "decode wav_a: %v", err)
	}
	bufB, err := wavio.Decode(wavB)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "decode wav_b: %v", err)
	}

	crossfadeSeconds := 16.0
	if v, ok := fields["crossfade_seconds"]; ok {
		crossfadeSeconds = v.GetNumberValue()
	}

	mode := domain.ModeNeutral
	if v, ok := fields["mix_mode"]; ok {
		mode = domain.MixMode(v.GetStringValue())
	}

	var override *domain.PlanOverride
	if v, ok := fields["plan_override"]; ok && v.GetStringValue() != "" {
		override = &domain.PlanOverride{}
		if err := json.Unmarshal([]byte(v.GetStringValue()), override); err != nil {
			return nil, status.Errorf(codes.InvalidArgument, "plan_override: %v", err)
		}
	}

	result, wav, err := s.renderer.Merge(ctx, bufA, bufB, crossfadeSeconds, mode, override)
	if err != nil {
		s.logger.Error("merge failed", "error", err)
		return nil, status.Errorf(codes.Internal, "merge: %v", err)
	}

	planJSON, _ := json.Marshal(result.Plan)
	analysisAJSON, _ := json.Marshal(result.AnalysisA)
	analysisBJSON, _ := json.Marshal(result.AnalysisB)

	respFields := map[string]any{
		"wav":       base64.StdEncoding.EncodeToString(wav),
		"plan":      string(planJSON),
		"analysis_a": string(analysisAJSON),
		"analysis_b": string(analysisBJSON),
	}

	if v, ok := fields["export_name"]; ok && v.GetStringValue() != "" {
		name := v.GetStringValue()
		exportDir := s.cfg.DataDir + "/exports/" + uuid.NewString()
		res, err := exporter.WriteMerge(exportDir, name, wav, result)
		if err != nil {
			s.logger.Warn("export bundle failed", "error", err)
		} else {
			respFields["bundle_path"] = res.BundlePath
		}
	}

	resp, err := structpb.NewStruct(respFields)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return resp, nil
}

// AnalyzeTrack decodes a single base64 WAV payload and returns its
// domain.AnalysisSummary as a JSON string field. The result is cached
// by content hash in the analysis_cache table, so repeated requests
// for the same audio bytes skip re-analysis entirely.
func (s *EngineServer) AnalyzeTrack(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	wavData, err := decodeBase64Field(req.GetFields(), "wav")
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "wav: %v", err)
	}

	hash := contentHash(wavData)

	if s.db != nil {
		if cached, err := s.db.GetAnalysis(hash); err != nil {
			s.logger.Warn("analysis cache lookup failed", "error", err)
		} else if cached != nil {
			summaryJSON, _ := json.Marshal(cached)
			resp, err := structpb.NewStruct(map[string]any{"analysis": string(summaryJSON), "cached": true})
			if err != nil {
				return nil, status.Errorf(codes.Internal, "encode response: %v", err)
			}
			return resp, nil
		}
	}

	buf, err := wavio.Decode(wavData)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "decode wav: %v", err)
	}

	summary, err := s.analyzer.Analyze(ctx, buf)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "analyze: %v", err)
	}

	if s.db != nil {
		if err := s.db.PutAnalysis(hash, summary); err != nil {
			s.logger.Warn("analysis cache write failed", "error", err)
		}
	}

	summaryJSON, _ := json.Marshal(summary)
	resp, err := structpb.NewStruct(map[string]any{"analysis": string(summaryJSON)})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return resp, nil
}

// ScanLibrary walks the given filesystem roots via internal/scanner,
// upserting discovered tracks into the library index and, unless
// disabled, enqueuing analysis jobs for the newly discovered ones.
//
// Request fields: roots (list of strings, required), force_rescan
// (bool), enqueue_analysis (bool, default true), priority (number).
func (s *EngineServer) ScanLibrary(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.GetFields()

	rootsVal, ok := fields["roots"]
	if !ok || rootsVal.GetListValue() == nil {
		return nil, status.Error(codes.InvalidArgument, "roots: required")
	}
	var roots []string
	for _, v := range rootsVal.GetListValue().GetValues() {
		if r := v.GetStringValue(); r != "" {
			roots = append(roots, r)
		}
	}
	if len(roots) == 0 {
		return nil, status.Error(codes.InvalidArgument, "roots: at least one path required")
	}

	forceRescan := fields["force_rescan"].GetBoolValue()
	enqueueAnalysis := true
	if v, ok := fields["enqueue_analysis"]; ok {
		enqueueAnalysis = v.GetBoolValue()
	}
	priority := 0
	if v, ok := fields["priority"]; ok {
		priority = int(v.GetNumberValue())
	}

	sc := scanner.NewScanner(s.db, s.logger)
	progress := make(chan scanner.ScanProgress, 16)
	done := make(chan error, 1)
	go func() { done <- sc.Scan(ctx, roots, forceRescan, progress) }()

	var newTrackIDs []int64
	var processed, newCount, skipped int64
	var scanErrs []string

	for p := range progress {
		processed = p.Processed
		switch {
		case p.Status == "error":
			scanErrs = append(scanErrs, fmt.Sprintf("%s: %s", p.Path, p.Error))
		case p.IsNew:
			newCount++
			newTrackIDs = append(newTrackIDs, p.TrackID)
		case p.Status == "skipped":
			skipped++
		}
	}
	if err := <-done; err != nil && err != context.Canceled {
		return nil, status.Errorf(codes.Internal, "scan: %v", err)
	}

	if enqueueAnalysis && len(newTrackIDs) > 0 {
		if err := sc.EnqueueAnalysis(newTrackIDs, priority); err != nil {
			return nil, status.Errorf(codes.Internal, "enqueue analysis: %v", err)
		}
	}

	resp, err := structpb.NewStruct(map[string]any{
		"tracks_processed": float64(processed),
		"tracks_new":       float64(newCount),
		"tracks_skipped":   float64(skipped),
		"errors":           strings.Join(scanErrs, "; "),
	})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return resp, nil
}

// PlanSet orders a pool of previously analyzed tracks into a full DJ
// set via internal/setplanner, pulling each track's analysis summary
// from the analysis cache by content hash.
//
// Request fields: content_hashes (list of strings, required), mode
// (string: open_format|warm_up|peak_time), allow_key_jumps (bool),
// max_bpm_step (number), must_play_hashes/ban_hashes (list of
// strings), energy_overrides (struct mapping content hash to a 1-10
// energy rating; tracks without an override fall back to their
// measured energy curve average).
func (s *EngineServer) PlanSet(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.GetFields()

	hashesVal, ok := fields["content_hashes"]
	if !ok || hashesVal.GetListValue() == nil {
		return nil, status.Error(codes.InvalidArgument, "content_hashes: required")
	}

	var energyOverrides map[string]any
	if v, ok := fields["energy_overrides"]; ok && v.GetStructValue() != nil {
		energyOverrides = v.GetStructValue().AsMap()
	}

	var tracks []setplanner.Track
	for _, v := range hashesVal.GetListValue().GetValues() {
		hash := v.GetStringValue()
		if hash == "" {
			continue
		}
		summary, err := s.db.GetAnalysis(hash)
		if err != nil {
			return nil, status.Errorf(codes.Internal, "lookup analysis for %s: %v", hash, err)
		}
		if summary == nil {
			return nil, status.Errorf(codes.InvalidArgument, "no cached analysis for content hash %s", hash)
		}

		energyGlobal := 5
		if raw, ok := energyOverrides[hash]; ok {
			if f, ok := raw.(float64); ok {
				energyGlobal = int(f)
			}
		} else if len(summary.EnergyCurve) > 0 {
			energyGlobal = energyFromCurve(summary.EnergyCurve)
		}

		tracks = append(tracks, setplanner.Track{
			ContentHash:  hash,
			Summary:      *summary,
			EnergyGlobal: energyGlobal,
		})
	}

	opts := setplanner.Options{AllowKeyJumps: fields["allow_key_jumps"].GetBoolValue()}
	if v, ok := fields["mode"]; ok {
		switch v.GetStringValue() {
		case "warm_up":
			opts.Mode = setplanner.SetModeWarmUp
		case "peak_time":
			opts.Mode = setplanner.SetModePeakTime
		default:
			opts.Mode = setplanner.SetModeOpenFormat
		}
	}
	if v, ok := fields["max_bpm_step"]; ok {
		opts.MaxBPMStep = v.GetNumberValue()
	}
	if v, ok := fields["must_play_hashes"]; ok && v.GetListValue() != nil {
		opts.MustPlayHashes = map[string]bool{}
		for _, h := range v.GetListValue().GetValues() {
			opts.MustPlayHashes[h.GetStringValue()] = true
		}
	}
	if v, ok := fields["ban_hashes"]; ok && v.GetListValue() != nil {
		opts.BanHashes = map[string]bool{}
		for _, h := range v.GetListValue().GetValues() {
			opts.BanHashes[h.GetStringValue()] = true
		}
	}

	order, explanations, err := setplanner.Plan(tracks, opts)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "plan: %v", err)
	}

	orderJSON, _ := json.Marshal(order)
	explanationsJSON, _ := json.Marshal(explanations)

	resp, err := structpb.NewStruct(map[string]any{
		"order":        string(orderJSON),
		"explanations": string(explanationsJSON),
	})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return resp, nil
}

// energyFromCurve maps a 0-1 energy curve average to a 1-10 rating,
// the scale internal/setplanner.Track.EnergyGlobal expects.
func energyFromCurve(curve []float64) int {
	mean := stat.Mean(curve, nil)
	e := int(mean*10) + 1
	if e < 1 {
		e = 1
	}
	if e > 10 {
		e = 10
	}
	return e
}

func decodeBase64Field(fields map[string]*structpb.Value, key string) ([]byte, error) {
	v, ok := fields[key]
	if !ok || v.GetStringValue() == "" {
		return nil, fmt.Errorf("missing required field %q", key)
	}
	return base64.StdEncoding.DecodeString(v.GetStringValue())
}

// contentHash is the SHA-256 of all the raw encoded WAV bytes. It
// equals scanner.ComputeHash of the same file only when the file is at
// most 64KB, since ComputeHash hashes just the first 64KB.
func contentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func mergeHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	req := &structpb.Struct{}
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(*EngineServer).Merge(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/Merge"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(*EngineServer).Merge(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, req, info, handler)
}

func analyzeTrackHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	req := &structpb.Struct{}
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(*EngineServer).AnalyzeTrack(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/AnalyzeTrack"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(*EngineServer).AnalyzeTrack(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, req, info, handler)
}

func scanLibraryHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	req := &structpb.Struct{}
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(*EngineServer).ScanLibrary(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/ScanLibrary"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(*EngineServer).ScanLibrary(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, req, info, handler)
}

func planSetHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	req := &structpb.Struct{}
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(*EngineServer).PlanSet(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/PlanSet"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(*EngineServer).PlanSet(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, req, info, handler)
}

// ServiceDesc is the hand-authored equivalent of what
// protoc-gen-go-grpc would generate for a service with four unary
// RPCs taking and returning google.protobuf.Struct.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	// HandlerType is normally the service's generated interface type;
	// grpc.Server.RegisterService only checks that ss implements
	// Elem(HandlerType), and every type satisfies the empty interface,
	// so (*any)(nil) accepts *EngineServer without a matching stub.
	HandlerType: (*any)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Merge",
			Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
				return mergeHandler(srv, ctx, dec, interceptor)
			},
		},
		{
			MethodName: "AnalyzeTrack",
			Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
				return analyzeTrackHandler(srv, ctx, dec, interceptor)
			},
		},
		{
			MethodName: "ScanLibrary",
			Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
				return scanLibraryHandler(srv, ctx, dec, interceptor)
			},
		},
		{
			MethodName: "PlanSet",
			Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
				return planSetHandler(srv, ctx, dec, interceptor)
			},
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "internal/server/engine.proto",
}

// RegisterEngineAPIServer registers an EngineServer against a gRPC
// server, the same call shape protoc-gen-go-grpc's generated
// RegisterXServer function would have.
func RegisterEngineAPIServer(s grpc.ServiceRegistrar, srv *EngineServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// ServiceName returns the fully-qualified service name, used by
// cmd/engine to set the health server's serving status.
func ServiceName() string { return serviceName }
