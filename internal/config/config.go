// Package config reads process configuration from the environment. It is
// only called from entry points; everything below them receives explicit
// values.
package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/codingconcepts/env"

	"limpopo-ai/internal/integrations/inference"
)

var logLevels = []string{"debug", "info", "warn", "error"}

type Config struct {
	// GitHubToken is deliberately not required here: a missing token is
	// reported by inference.NewClient so callers get remediation text.
	GitHubToken    string        `env:"GITHUB_TOKEN"`
	TokenParameter string        `env:"GITHUB_TOKEN_PARAM"`
	Endpoint       string        `env:"INFERENCE_ENDPOINT" default:"https://models.github.ai/inference"`
	Model          string        `env:"INFERENCE_MODEL" default:"openai/gpt-5"`
	Timeout        time.Duration `env:"INFERENCE_TIMEOUT" default:"60s"`

	LogLevel         string `env:"LOG_LEVEL" default:"info"`
	DescriptionTable string `env:"DESCRIPTION_TABLE"`
	MaxQuestionLen   int    `env:"MAX_QUESTION_LENGTH" default:"2000"`
}

// TokenSource looks up a credential by parameter name.
type TokenSource interface {
	Token(ctx context.Context, name string) (string, error)
}

// Load populates a Config from the environment and validates it.
func Load() (Config, error) {
	var cfg Config
	if err := env.Set(&cfg); err != nil {
		return Config{}, &ConfigError{Op: "load", Err: err}
	}
	cfg.GitHubToken = strings.TrimSpace(cfg.GitHubToken)
	cfg.TokenParameter = strings.TrimSpace(cfg.TokenParameter)
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))

	if err := cfg.validate(); err != nil {
		return Config{}, &ConfigError{Op: "validate", Err: err}
	}
	return cfg, nil
}

func (c Config) validate() error {
	var errs []error
	if c.Timeout <= 0 {
		errs = append(errs, &InvalidValueError{Key: "INFERENCE_TIMEOUT", Value: c.Timeout})
	}
	if c.MaxQuestionLen <= 0 {
		errs = append(errs, &InvalidValueError{Key: "MAX_QUESTION_LENGTH", Value: c.MaxQuestionLen})
	}
	if !validLogLevel(c.LogLevel) {
		errs = append(errs, &InvalidValueError{Key: "LOG_LEVEL", Value: c.LogLevel, AllowedValues: logLevels})
	}
	return errors.Join(errs...)
}

func validLogLevel(level string) bool {
	for _, l := range logLevels {
		if l == level {
			return true
		}
	}
	return false
}

// NeedsTokenLookup reports whether the token must come from the parameter store.
func (c Config) NeedsTokenLookup() bool {
	return c.GitHubToken == "" && c.TokenParameter != ""
}

// ResolveToken fills an empty GitHubToken from src when TokenParameter is
// set. An explicit GITHUB_TOKEN always wins.
func (c *Config) ResolveToken(ctx context.Context, src TokenSource) error {
	if !c.NeedsTokenLookup() {
		return nil
	}
	if src == nil {
		return &ConfigError{Op: "resolve token", Err: errors.New("token source must not be nil")}
	}
	token, err := src.Token(ctx, c.TokenParameter)
	if err != nil {
		return &ConfigError{Op: "resolve token", Err: fmt.Errorf("parameter %q: %w", c.TokenParameter, err)}
	}
	c.GitHubToken = strings.TrimSpace(token)
	return nil
}

// Inference projects the configuration onto the inference client's config.
func (c Config) Inference() inference.Config {
	return inference.Config{
		Endpoint:   c.Endpoint,
		Model:      c.Model,
		Credential: c.GitHubToken,
		Timeout:    c.Timeout,
	}
}
