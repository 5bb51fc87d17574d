// Package assistant – config.go defines all configuration structures for
// the SlackPilot assistant.
package assistant

import (
	"github.com/jholhewres/slackpilot/pkg/slackpilot/channels/slack"
)

// Config holds all bot configuration.
type Config struct {
	// Name is the bot name shown in logs.
	Name string `yaml:"name"`

	// OpenAI configures the remote assistant service.
	OpenAI OpenAIConfig `yaml:"openai"`

	// Slack is the Slack channel config.
	Slack slack.Config `yaml:"slack"`

	// Redaction configures sensitive-information redaction of prompts.
	Redaction RedactionConfig `yaml:"redaction"`

	// Logging configures log output.
	Logging LoggingConfig `yaml:"logging"`
}

// Provider selects the remote assistant service flavor.
type Provider string

const (
	// ProviderDefault is the standard OpenAI API.
	ProviderDefault Provider = "default"

	// ProviderAzure is the Azure OpenAI enterprise gateway.
	ProviderAzure Provider = "azure"
)

// OpenAIConfig configures the connection to the assistant service.
type OpenAIConfig struct {
	// Provider is "default" or "azure".
	Provider Provider `yaml:"provider"`

	// APIKey authenticates against the service.
	APIKey string `yaml:"api_key"`

	// BaseURL overrides the API endpoint (required for azure).
	BaseURL string `yaml:"base_url"`

	// APIVersion is the Azure API version (azure only).
	APIVersion string `yaml:"api_version"`

	// DeploymentID is the Azure deployment name (azure only).
	DeploymentID string `yaml:"deployment_id"`

	// AssistantID identifies which remote assistant executes runs.
	AssistantID string `yaml:"assistant_id"`

	// TimeoutSeconds bounds how long a run may take to finish.
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

// LoggingConfig configures log output.
type LoggingConfig struct {
	// Level is "debug", "info", "warn" or "error".
	Level string `yaml:"level"`

	// Format is "json" or "text".
	Format string `yaml:"format"`
}

// RedactionConfig configures prompt redaction.
type RedactionConfig struct {
	// Enabled turns redaction on.
	Enabled bool `yaml:"enabled"`

	// Rules overrides the built-in rule set when non-empty.
	Rules []RedactionRule `yaml:"rules"`
}

// RedactionRule is one regexp substitution applied to outgoing prompts.
type RedactionRule struct {
	// Pattern is the regexp to redact.
	Pattern string `yaml:"pattern"`

	// Replacement is the placeholder written in place of matches.
	Replacement string `yaml:"replacement"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Name: "SlackPilot",
		OpenAI: OpenAIConfig{
			Provider:       ProviderDefault,
			TimeoutSeconds: 30,
		},
		Slack: slack.DefaultConfig(),
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}
