// Package config loads CLI settings from an optional YAML file, CAUSAL_*
// environment variables and a local .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/ravi-parthasarathy/causalagent/pkg/llm"
)

const (
	EnvPrefix = "CAUSAL"
	// FileName is the base name searched for in the working directory.
	FileName = "causal"
)

// Config is the resolved configuration.
type Config struct {
	Models Models    `mapstructure:"models" yaml:"models"`
	LLM    LLMConfig `mapstructure:"llm" yaml:"llm"`
	Log    Log       `mapstructure:"log" yaml:"log"`
	Batch  Batch     `mapstructure:"batch" yaml:"batch"`

	// File is the config file that was read, or "" when none was.
	File string `mapstructure:"-" yaml:"-"`
}

// Models holds model IDs ("provider:model"). Empty per-step entries fall
// back to Default.
type Models struct {
	Default   string `mapstructure:"default" yaml:"default"`
	Classify  string `mapstructure:"classify" yaml:"classify"`
	Extract   string `mapstructure:"extract" yaml:"extract"`
	Summarize string `mapstructure:"summarize" yaml:"summarize"`
}

type LLMConfig struct {
	Timeout     time.Duration `mapstructure:"timeout" yaml:"timeout"`
	MaxTokens   int           `mapstructure:"max_tokens" yaml:"max_tokens"`
	MaxAttempts int           `mapstructure:"max_attempts" yaml:"max_attempts"`
}

type Log struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

type Batch struct {
	Concurrency int `mapstructure:"concurrency" yaml:"concurrency"`
}

// Step names accepted by ModelFor.
const (
	StepClassify  = "classify"
	StepExtract   = "extract"
	StepSummarize = "summarize"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("models.default", "openai:gpt-4o")
	v.SetDefault("models.classify", "")
	v.SetDefault("models.extract", "")
	v.SetDefault("models.summarize", "")
	v.SetDefault("llm.timeout", 60*time.Second)
	v.SetDefault("llm.max_tokens", 1024)
	v.SetDefault("llm.max_attempts", 1)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("batch.concurrency", 4)
}

// Default returns the built-in configuration.
func Default() Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	// Defaults always decode.
	_ = v.Unmarshal(&cfg)
	return cfg
}

// Load resolves configuration. path names an explicit config file, which
// must exist; when empty, ./causal.yaml and then
// $HOME/.config/causal/config.yaml are tried and may be absent.
func Load(path string) (Config, error) {
	// A missing .env is normal.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	file := path
	if file == "" {
		file = findDefaultFile()
	}
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", file, err)
		}
	}

	cfg := Config{File: file}
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func findDefaultFile() string {
	candidates := []string{FileName + ".yaml"}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".config", FileName, "config.yaml"))
	}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c
		}
	}
	return ""
}

// Validate checks value ranges and model ID syntax.
func (c Config) Validate() error {
	var errs []error
	for _, m := range []struct{ key, id string }{
		{"models.default", c.Models.Default},
		{"models.classify", c.Models.Classify},
		{"models.extract", c.Models.Extract},
		{"models.summarize", c.Models.Summarize},
	} {
		if m.id == "" && m.key != "models.default" {
			continue
		}
		if _, _, err := llm.ParseModelID(m.id); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", m.key, err))
		}
	}
	if c.LLM.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("llm.timeout must be positive, got %s", c.LLM.Timeout))
	}
	if c.LLM.MaxTokens <= 0 {
		errs = append(errs, fmt.Errorf("llm.max_tokens must be positive, got %d", c.LLM.MaxTokens))
	}
	if c.LLM.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("llm.max_attempts must be at least 1, got %d", c.LLM.MaxAttempts))
	}
	if c.Batch.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("batch.concurrency must be at least 1, got %d", c.Batch.Concurrency))
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level %q: want debug, info, warn or error", c.Log.Level))
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format %q: want text or json", c.Log.Format))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// ModelFor returns the model ID for step, falling back to Models.Default.
func (c Config) ModelFor(step string) string {
	var id string
	switch step {
	case StepClassify:
		id = c.Models.Classify
	case StepExtract:
		id = c.Models.Extract
	case StepSummarize:
		id = c.Models.Summarize
	}
	if id == "" {
		return c.Models.Default
	}
	return id
}
