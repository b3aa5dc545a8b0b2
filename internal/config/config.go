// Package config builds the process configuration once at startup. Nothing
// outside this package reads the environment; the resulting Config is passed
// by reference into the worker and facade constructors.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Backend names accepted by Config.Backend.
const (
	BackendSqlite = "sqlite"
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Provider names accepted by Config.Provider.
const (
	ProviderMinimax   = "minimax"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
)

type Config struct {
	// Port the HTTP facade listens on.
	Port int

	// Backend selects the durable store hosting workflow state.
	Backend       string
	SqlitePath    string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Provider selects the generative collaborator backing all activities.
	Provider string

	// EnableAudit turns on the optional security audit step.
	EnableAudit bool

	// SplitFallback allows degrading to a single-task list equal to the
	// requirement when the splitter returns unusable output.
	SplitFallback bool

	// StepTimeout is the start-to-close timeout for one activity attempt.
	StepTimeout time.Duration

	// RunBudget bounds the total duration of one workflow execution.
	RunBudget time.Duration

	// ResultWait is how long the facade blocks for a workflow result
	// before answering with a still-running response.
	ResultWait time.Duration

	// MaxAttempts and RetryInterval shape the engine's activity retry
	// policy.
	MaxAttempts   int
	RetryInterval time.Duration

	// TraceStdout enables the stdout span exporter.
	TraceStdout bool

	Minimax   MinimaxConfig
	Anthropic AnthropicConfig
	Gemini    GeminiConfig
}

type MinimaxConfig struct {
	APIKey string
	APIURL string
	Model  string
}

type AnthropicConfig struct {
	APIKey string
	Model  string

	// UseBedrock routes requests through AWS Bedrock instead of the
	// Anthropic API.
	UseBedrock     bool
	AWSRegion      string
	AWSProfile     string
	BedrockModelID string
}

type GeminiConfig struct {
	APIKey string
	Model  string
}

// Load reads the configuration from the environment with defaults applied.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("port", 3001)
	v.SetDefault("backend", BackendSqlite)
	v.SetDefault("sqlite_path", "snapcloud.sqlite")
	v.SetDefault("redis_addr", "localhost:6379")
	v.SetDefault("redis_db", 0)
	v.SetDefault("provider", ProviderMinimax)
	v.SetDefault("enable_audit", false)
	v.SetDefault("split_fallback", true)
	v.SetDefault("step_timeout", 10*time.Minute)
	v.SetDefault("run_budget", 30*time.Minute)
	v.SetDefault("result_wait", 2*time.Minute)
	v.SetDefault("max_attempts", 3)
	v.SetDefault("retry_interval", 5*time.Second)
	v.SetDefault("trace_stdout", false)
	v.SetDefault("minimax_api_url", "https://api.minimax.io/v1/text/chatcompletion_v2")
	v.SetDefault("minimax_model", "MiniMax-M1")
	v.SetDefault("anthropic_model", "claude-sonnet-4-20250514")
	v.SetDefault("gemini_model", "gemini-2.0-flash")

	// Environment names kept compatible with the original deployment.
	bind := map[string]string{
		"port":             "PORT",
		"backend":          "SNAPCLOUD_BACKEND",
		"sqlite_path":      "SNAPCLOUD_SQLITE_PATH",
		"redis_addr":       "SNAPCLOUD_REDIS_ADDR",
		"redis_password":   "SNAPCLOUD_REDIS_PASSWORD",
		"redis_db":         "SNAPCLOUD_REDIS_DB",
		"provider":         "SNAPCLOUD_PROVIDER",
		"enable_audit":     "SNAPCLOUD_ENABLE_AUDIT",
		"split_fallback":   "SNAPCLOUD_SPLIT_FALLBACK",
		"step_timeout":     "SNAPCLOUD_STEP_TIMEOUT",
		"run_budget":       "SNAPCLOUD_RUN_BUDGET",
		"result_wait":      "SNAPCLOUD_RESULT_WAIT",
		"max_attempts":     "SNAPCLOUD_MAX_ATTEMPTS",
		"retry_interval":   "SNAPCLOUD_RETRY_INTERVAL",
		"trace_stdout":     "SNAPCLOUD_TRACE_STDOUT",
		"minimax_api_key":  "MINIMAX_API_KEY",
		"minimax_api_url":  "MINIMAX_API_URL",
		"minimax_model":    "MINIMAX_MODEL",
		"anthropic_key":    "ANTHROPIC_API_KEY",
		"anthropic_model":  "ANTHROPIC_MODEL",
		"use_bedrock":      "SNAPCLOUD_USE_BEDROCK",
		"aws_region":       "AWS_REGION",
		"aws_profile":      "AWS_PROFILE",
		"bedrock_model_id": "BEDROCK_MODEL_ID",
		"gemini_api_key":   "GEMINI_API_KEY",
		"gemini_model":     "GEMINI_MODEL",
	}
	for key, env := range bind {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("binding %s: %w", env, err)
		}
	}

	cfg := &Config{
		Port:          v.GetInt("port"),
		Backend:       v.GetString("backend"),
		SqlitePath:    v.GetString("sqlite_path"),
		RedisAddr:     v.GetString("redis_addr"),
		RedisPassword: v.GetString("redis_password"),
		RedisDB:       v.GetInt("redis_db"),
		Provider:      v.GetString("provider"),
		EnableAudit:   v.GetBool("enable_audit"),
		SplitFallback: v.GetBool("split_fallback"),
		StepTimeout:   v.GetDuration("step_timeout"),
		RunBudget:     v.GetDuration("run_budget"),
		ResultWait:    v.GetDuration("result_wait"),
		MaxAttempts:   v.GetInt("max_attempts"),
		RetryInterval: v.GetDuration("retry_interval"),
		TraceStdout:   v.GetBool("trace_stdout"),
		Minimax: MinimaxConfig{
			APIKey: v.GetString("minimax_api_key"),
			APIURL: v.GetString("minimax_api_url"),
			Model:  v.GetString("minimax_model"),
		},
		Anthropic: AnthropicConfig{
			APIKey:         v.GetString("anthropic_key"),
			Model:          v.GetString("anthropic_model"),
			UseBedrock:     v.GetBool("use_bedrock"),
			AWSRegion:      v.GetString("aws_region"),
			AWSProfile:     v.GetString("aws_profile"),
			BedrockModelID: v.GetString("bedrock_model_id"),
		},
		Gemini: GeminiConfig{
			APIKey: v.GetString("gemini_api_key"),
			Model:  v.GetString("gemini_model"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Backend {
	case BackendSqlite, BackendMemory, BackendRedis:
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}

	switch c.Provider {
	case ProviderMinimax, ProviderAnthropic, ProviderGemini:
	default:
		return fmt.Errorf("unknown provider %q", c.Provider)
	}

	if c.MaxAttempts < 1 {
		return fmt.Errorf("max attempts must be at least 1, got %d", c.MaxAttempts)
	}
	if c.StepTimeout <= 0 {
		return fmt.Errorf("step timeout must be positive, got %v", c.StepTimeout)
	}

	return nil
}
