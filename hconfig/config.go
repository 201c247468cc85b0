// Package hconfig loads pipeline configuration from environment variables
// with functional-option overrides, mirroring the three-layer priority
// (defaults -> env vars -> options) of the teacher framework's core.Config.
package hconfig

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ServiceCreds holds the opaque per-service credentials the core passes
// through to external clients without interpreting them (§6.4).
type ServiceCreds struct {
	APIKey  string
	BaseURL string
	Model   string
}

// Config is the root configuration for a pipeline run.
type Config struct {
	// Workspace is the root directory under which sessions/<id>/ lives.
	Workspace string

	// MaxRetries is the retry bound read from MAX_RETRIES or the config
	// file. Nothing outside this package reads it: executor retries are set
	// through executor.Config, and no stage runs a regeneration cycle.
	MaxRetries int

	// ExecutorCapacity is the default semaphore size per external service.
	ExecutorCapacity int
	RetryDelay       time.Duration
	PerJobTimeout    time.Duration

	SolverTimeout             time.Duration
	SolverSamplingResolution  float64
	SolverMaxCandidates       int
	CollisionClearanceM       float64

	// AssetRetrievalEnabled/Threshold gate an optional retrieval step
	// before generation in the asset stage (§6.4).
	AssetRetrievalEnabled   bool
	AssetRetrievalThreshold float64

	// ReviewStages lists stage names requiring human approval between
	// completion and the next stage (§6.4).
	ReviewStages []string

	// Image, VLM, ThreeD hold the opaque per-service credentials named by
	// <SERVICE>_API_KEY / <SERVICE>_BASE_URL / <SERVICE>_MODEL.
	Image ServiceCreds
	VLM   ServiceCreds
	ThreeD ServiceCreds

	// RedisAddr is the Redis address for the distributed admission
	// controller (executor.RedisAdmission). It is only recorded here; no
	// code in this module reads it to build a Redis client, and there is no
	// Redis-backed cache.
	RedisAddr string
}

// Option mutates a Config after defaults and environment variables have
// been applied; options are the highest-priority layer.
type Option func(*Config)

// WithWorkspace overrides the workspace root.
func WithWorkspace(path string) Option {
	return func(c *Config) { c.Workspace = path }
}

// WithExecutorCapacity overrides the default semaphore size.
func WithExecutorCapacity(n int) Option {
	return func(c *Config) { c.ExecutorCapacity = n }
}

// WithMaxRetries overrides the retry/regeneration cap.
func WithMaxRetries(n int) Option {
	return func(c *Config) { c.MaxRetries = n }
}

// WithRedisAddr overrides the Redis address used for distributed
// admission control.
func WithRedisAddr(addr string) Option {
	return func(c *Config) { c.RedisAddr = addr }
}

func defaults() Config {
	return Config{
		Workspace:                "workspace",
		MaxRetries:               3,
		ExecutorCapacity:         2,
		RetryDelay:               2 * time.Second,
		PerJobTimeout:            120 * time.Second,
		SolverTimeout:            30 * time.Second,
		SolverSamplingResolution: 0.1,
		SolverMaxCandidates:      100,
		CollisionClearanceM:      0.02,
	}
}

// Load builds a Config from defaults, then environment variables, then the
// supplied options, in that priority order (later layers win).
func Load(opts ...Option) *Config {
	cfg := defaults()

	if v := os.Getenv("WORKSPACE"); v != "" {
		cfg.Workspace = v
	}
	if v, ok := envInt("MAX_RETRIES"); ok {
		cfg.MaxRetries = v
	}
	if v, ok := envInt("EXECUTOR_CAPACITY"); ok {
		cfg.ExecutorCapacity = v
	}
	if v, ok := envFloat("ASSET_RETRIEVAL_THRESHOLD"); ok {
		cfg.AssetRetrievalThreshold = v
	}
	cfg.AssetRetrievalEnabled = envBool("ASSET_RETRIEVAL_ENABLED")
	if v := os.Getenv("REVIEW_STAGES"); v != "" {
		cfg.ReviewStages = splitCSV(v)
	}
	cfg.RedisAddr = os.Getenv("REDIS_ADDR")

	cfg.Image = loadCreds("IMAGE")
	cfg.VLM = loadCreds("VLM")
	cfg.ThreeD = loadCreds("THREED")

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// fileConfig is the YAML-shaped alternate to env-var configuration,
// grounded on SPEC_FULL's note that the pipeline config may be supplied as
// a YAML file instead of environment variables. Fields are pointers so an
// omitted key leaves the defaults/env-derived value untouched.
type fileConfig struct {
	Workspace        *string  `yaml:"workspace"`
	MaxRetries       *int     `yaml:"max_retries"`
	ExecutorCapacity *int     `yaml:"executor_capacity"`
	RetryDelaySecs   *float64 `yaml:"retry_delay_seconds"`
	PerJobTimeoutSecs *float64 `yaml:"per_job_timeout_seconds"`

	SolverTimeoutSecs        *float64 `yaml:"solver_timeout_seconds"`
	SolverSamplingResolution *float64 `yaml:"solver_sampling_resolution"`
	SolverMaxCandidates      *int     `yaml:"solver_max_candidates"`
	CollisionClearanceM      *float64 `yaml:"collision_clearance_m"`

	AssetRetrievalEnabled   *bool    `yaml:"asset_retrieval_enabled"`
	AssetRetrievalThreshold *float64 `yaml:"asset_retrieval_threshold"`
	ReviewStages            []string `yaml:"review_stages"`

	RedisAddr *string `yaml:"redis_addr"`
}

// LoadFromFile builds a Config the same way Load does, then overlays any
// keys present in the YAML file at path, then applies opts — matching the
// defaults -> env -> file -> options priority order.
func LoadFromFile(path string, opts ...Option) (*Config, error) {
	cfg := Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("hconfig: reading config file: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("hconfig: parsing config file %s: %w", path, err)
	}
	applyFileConfig(cfg, fc)

	for _, opt := range opts {
		opt(cfg)
	}
	return cfg, nil
}

func applyFileConfig(cfg *Config, fc fileConfig) {
	if fc.Workspace != nil {
		cfg.Workspace = *fc.Workspace
	}
	if fc.MaxRetries != nil {
		cfg.MaxRetries = *fc.MaxRetries
	}
	if fc.ExecutorCapacity != nil {
		cfg.ExecutorCapacity = *fc.ExecutorCapacity
	}
	if fc.RetryDelaySecs != nil {
		cfg.RetryDelay = time.Duration(*fc.RetryDelaySecs * float64(time.Second))
	}
	if fc.PerJobTimeoutSecs != nil {
		cfg.PerJobTimeout = time.Duration(*fc.PerJobTimeoutSecs * float64(time.Second))
	}
	if fc.SolverTimeoutSecs != nil {
		cfg.SolverTimeout = time.Duration(*fc.SolverTimeoutSecs * float64(time.Second))
	}
	if fc.SolverSamplingResolution != nil {
		cfg.SolverSamplingResolution = *fc.SolverSamplingResolution
	}
	if fc.SolverMaxCandidates != nil {
		cfg.SolverMaxCandidates = *fc.SolverMaxCandidates
	}
	if fc.CollisionClearanceM != nil {
		cfg.CollisionClearanceM = *fc.CollisionClearanceM
	}
	if fc.AssetRetrievalEnabled != nil {
		cfg.AssetRetrievalEnabled = *fc.AssetRetrievalEnabled
	}
	if fc.AssetRetrievalThreshold != nil {
		cfg.AssetRetrievalThreshold = *fc.AssetRetrievalThreshold
	}
	if len(fc.ReviewStages) > 0 {
		cfg.ReviewStages = fc.ReviewStages
	}
	if fc.RedisAddr != nil {
		cfg.RedisAddr = *fc.RedisAddr
	}
}

func loadCreds(prefix string) ServiceCreds {
	return ServiceCreds{
		APIKey:  os.Getenv(prefix + "_API_KEY"),
		BaseURL: os.Getenv(prefix + "_BASE_URL"),
		Model:   os.Getenv(prefix + "_MODEL"),
	}
}

func envInt(name string) (int, bool) {
	v := os.Getenv(name)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

func envFloat(name string) (float64, bool) {
	v := os.Getenv(name)
	if v == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func envBool(name string) bool {
	v := strings.ToLower(os.Getenv(name))
	return v == "1" || v == "true" || v == "yes"
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// RequiresReview reports whether stage is listed in ReviewStages.
func (c *Config) RequiresReview(stage string) bool {
	for _, s := range c.ReviewStages {
		if s == stage {
			return true
		}
	}
	return false
}
