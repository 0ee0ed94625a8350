package config

import (
	"flag"
	"os"
)

type Config struct {
	// Server settings
	Port     int
	HTTPPort int
	DataDir  string
	LogLevel string

	// Analyzer settings
	AnalyzerAddr string

	// Auth settings
	AuthEnabled bool

	// Mixing settings
	TargetLoudnessLUFS float64
	TruePeakCeilingDB  float64
	CrossfadeSeconds   float64
	MixMode            string
}

func Parse() *Config {
	cfg := &Config{}

	flag.IntVar(&cfg.Port, "port", 50051, "gRPC server port")
	flag.IntVar(&cfg.HTTPPort, "http-port", 8080, "deprecated HTTP REST facade port (0 disables it)")
	flag.StringVar(&cfg.DataDir, "data-dir", defaultDataDir(), "data directory for SQLite and blobs")
	flag.StringVar(&cfg.LogLevel, "log-level", "info", "log level (debug, info, warn, error)")
	flag.StringVar(&cfg.AnalyzerAddr, "analyzer-addr", "localhost:50052", "analyzer worker gRPC address")
	flag.BoolVar(&cfg.AuthEnabled, "auth", false, "enable API authentication (default: open for local use)")
	flag.Float64Var(&cfg.TargetLoudnessLUFS, "target-loudness", -14.0, "target integrated loudness in LUFS for mastered output")
	flag.Float64Var(&cfg.TruePeakCeilingDB, "true-peak-ceiling", -1.0, "true-peak ceiling in dBFS for the output limiter")
	flag.Float64Var(&cfg.CrossfadeSeconds, "crossfade-seconds", 16.0, "default crossfade length in seconds when a request doesn't specify one")
	flag.StringVar(&cfg.MixMode, "mix-mode", "neutral", "default mix mode (festival, club_smooth, neutral)")

	flag.Parse()
	return cfg
}

func defaultDataDir() string {
	if dir := os.Getenv("CARTOMIX_DATA_DIR"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".cartomix"
	}
	return home + "/.cartomix"
}
