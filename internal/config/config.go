package config

import (
	"os"
	"strconv"
	"strings"

	crr "github.com/jwaldner/crr/crr_lib"
	"gopkg.in/yaml.v2"
)

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	LogLevel string `yaml:"log_level"`
	LogFile  string `yaml:"log_file"`
}

// EngineConfig represents lattice engine configuration
type EngineConfig struct {
	ExecutionMode string `yaml:"execution_mode"` // auto, parallel, cpu
	Workers       int    `yaml:"workers"`        // 0 = GOMAXPROCS
	DefaultSteps  int    `yaml:"default_steps"`  // Used when a request omits steps
	MaxSteps      int    `yaml:"max_steps"`      // Requests above this are rejected
	MaxBatchSize  int    `yaml:"max_batch_size"` // Max contracts per /api/batch request
}

// GreeksConfig represents finite-difference settings
type GreeksConfig struct {
	RelativeStep    float64 `yaml:"relative_step"`
	MinAbsoluteStep float64 `yaml:"min_absolute_step"` // 0 = fail with division by zero on r=0 or σ=0
}

type Config struct {
	// Server settings
	Port string

	// Logging settings
	Logging LoggingConfig `yaml:"logging"`
	// Engine settings
	Engine EngineConfig `yaml:"engine"`
	// Greek estimator settings
	Greeks GreeksConfig `yaml:"greeks"`
}

type YAMLConfig struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`

	Logging LoggingConfig `yaml:"logging"`
	Engine  EngineConfig  `yaml:"engine"`
	Greeks  GreeksConfig  `yaml:"greeks"`
}

// Load reads the environment and overlays config.yaml (or the file named by
// CRR_CONFIG) when it exists. Values set in YAML win over the environment.
func Load() *Config {
	cfg := &Config{
		Port: getEnv("PORT", "8080"),
		Logging: LoggingConfig{
			LogLevel: getEnv("LOG_LEVEL", "info"),
			LogFile:  getEnv("LOG_FILE", "crr.log"),
		},

		// Default engine configuration
		Engine: EngineConfig{
			ExecutionMode: getEnv("ENGINE_EXECUTION_MODE", "auto"),
			Workers:       getEnvInt("ENGINE_WORKERS", 0),
			DefaultSteps:  getEnvInt("ENGINE_DEFAULT_STEPS", 100),
			MaxSteps:      getEnvInt("ENGINE_MAX_STEPS", 20000),
			MaxBatchSize:  getEnvInt("ENGINE_MAX_BATCH_SIZE", 1000),
		},

		Greeks: GreeksConfig{
			RelativeStep:    getEnvFloat("GREEKS_RELATIVE_STEP", crr.DefaultRelativeStep),
			MinAbsoluteStep: getEnvFloat("GREEKS_MIN_ABSOLUTE_STEP", 0),
		},
	}

	if yamlCfg := loadYAMLConfig(getEnv("CRR_CONFIG", "config.yaml")); yamlCfg != nil {
		if yamlCfg.Server.Port != "" {
			cfg.Port = yamlCfg.Server.Port
		}

		// Logging configuration from YAML
		if yamlCfg.Logging.LogLevel != "" {
			cfg.Logging.LogLevel = yamlCfg.Logging.LogLevel
		}
		if yamlCfg.Logging.LogFile != "" {
			cfg.Logging.LogFile = yamlCfg.Logging.LogFile
		}

		// Engine configuration from YAML
		if yamlCfg.Engine.ExecutionMode != "" {
			cfg.Engine.ExecutionMode = yamlCfg.Engine.ExecutionMode
		}
		if yamlCfg.Engine.Workers > 0 {
			cfg.Engine.Workers = yamlCfg.Engine.Workers
		}
		if yamlCfg.Engine.DefaultSteps > 0 {
			cfg.Engine.DefaultSteps = yamlCfg.Engine.DefaultSteps
		}
		if yamlCfg.Engine.MaxSteps > 0 {
			cfg.Engine.MaxSteps = yamlCfg.Engine.MaxSteps
		}
		if yamlCfg.Engine.MaxBatchSize > 0 {
			cfg.Engine.MaxBatchSize = yamlCfg.Engine.MaxBatchSize
		}

		// Greeks configuration from YAML
		if yamlCfg.Greeks.RelativeStep > 0 {
			cfg.Greeks.RelativeStep = yamlCfg.Greeks.RelativeStep
		}
		if yamlCfg.Greeks.MinAbsoluteStep > 0 {
			cfg.Greeks.MinAbsoluteStep = yamlCfg.Greeks.MinAbsoluteStep
		}
	}

	return cfg
}

// EngineOptions converts the configuration for crr.NewEngine
func (c *Config) EngineOptions() crr.EngineOptions {
	return crr.EngineOptions{
		ExecutionMode:   crr.ExecutionMode(strings.ToLower(c.Engine.ExecutionMode)),
		Workers:         c.Engine.Workers,
		DefaultSteps:    c.Engine.DefaultSteps,
		MaxSteps:        c.Engine.MaxSteps,
		RelativeStep:    c.Greeks.RelativeStep,
		MinAbsoluteStep: c.Greeks.MinAbsoluteStep,
	}
}

func loadYAMLConfig(path string) *YAMLConfig {
	data, err := os.ReadFile(path)
	if err != nil {
		// Missing file is fine, env and defaults apply
		return nil
	}

	var yamlCfg YAMLConfig
	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		// Could not parse - silently return nil
		return nil
	}

	return &yamlCfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}
