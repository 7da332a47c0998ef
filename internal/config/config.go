// Package config loads gridsched's runtime configuration: data
// directories, the HTTP introspection port, logging, and the solver
// tunables named in spec.md §6, from a .env file and then the process
// environment — modeled on aristath-sentinel/internal/config's loading
// order (env file first, environment variables take the defaults that
// survive).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/aristath/gridsched/internal/problem"
)

// SolverTunables mirrors the names spec.md §6 recognizes via
// Problem.SetParam, loaded from the environment so a deployment can
// tune the solve cascade without a code change.
type SolverTunables struct {
	ScaleStrategy   int
	SimplexStrategy int
	TimeLimit       float64
	MaxConcurrency  int
	Solver          string
	RunCrossover    bool
	Warmstart       bool
}

// Config holds gridsched's runtime configuration.
type Config struct {
	DataDir  string // base directory for element-codec dumps and scenario output
	LogLevel string
	Port     int // internal/server listen port
	DevMode  bool

	Tunables SolverTunables
}

// Load reads .env (if present) then environment variables, falling back
// to defaults for anything unset.
func Load(dataDirOverride ...string) (*Config, error) {
	_ = godotenv.Load()

	dataDir := ""
	if len(dataDirOverride) > 0 && dataDirOverride[0] != "" {
		dataDir = dataDirOverride[0]
	} else {
		dataDir = getEnv("GRIDSCHED_DATA_DIR", "")
	}
	if dataDir == "" {
		dataDir = "./data"
	}
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("resolve data directory: %w", err)
	}
	if err := os.MkdirAll(absDataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:  absDataDir,
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Port:     getEnvAsInt("GRIDSCHED_PORT", 8090),
		DevMode:  getEnvAsBool("DEV_MODE", false),
		Tunables: SolverTunables{
			ScaleStrategy:   getEnvAsInt("GRIDSCHED_SCALE_STRATEGY", 2),
			SimplexStrategy: getEnvAsInt("GRIDSCHED_SIMPLEX_STRATEGY", 1),
			TimeLimit:       getEnvAsFloat("GRIDSCHED_TIME_LIMIT", 60),
			MaxConcurrency:  getEnvAsInt("GRIDSCHED_MAX_CONCURRENCY", 1),
			Solver:          getEnv("GRIDSCHED_SOLVER", "simplex"),
			RunCrossover:    getEnvAsBool("GRIDSCHED_RUN_CROSSOVER", true),
			Warmstart:       getEnvAsBool("GRIDSCHED_WARMSTART", true),
		},
	}
	return cfg, nil
}

// Apply pushes every tunable into p via SetParam, the one allowed path
// for a caller to influence the solve cascade (spec.md §6).
func (t SolverTunables) Apply(p *problem.Problem) error {
	crossover := "off"
	if t.RunCrossover {
		crossover = "on"
	}
	settings := map[string]any{
		"simplex-scale-strategy":  t.ScaleStrategy,
		"simplex-strategy":        t.SimplexStrategy,
		"time-limit":              t.TimeLimit,
		"simplex-max-concurrency": t.MaxConcurrency,
		"solver":                  t.Solver,
		"run-crossover":           crossover,
		"warmstart":               t.Warmstart,
	}
	for name, value := range settings {
		if err := p.SetParam(name, value); err != nil {
			return fmt.Errorf("apply solver tunable %s: %w", name, err)
		}
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultValue
}
