// Package assistant – client.go selects and builds the remote assistant
// service client. Two flavors exist: the standard OpenAI API and the Azure
// OpenAI enterprise gateway. Selection is a pure function of the configured
// provider; no network I/O happens here.
package assistant

import (
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// NewAPIClient builds an OpenAI client for the configured provider.
// The azure flavor requires base_url, api_version and deployment_id;
// a missing field is an ErrConfiguration.
func NewAPIClient(cfg OpenAIConfig) (*openai.Client, error) {
	switch cfg.Provider {
	case "", ProviderDefault:
		clientCfg := openai.DefaultConfig(cfg.APIKey)
		if cfg.BaseURL != "" {
			clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
		}
		return openai.NewClientWithConfig(clientCfg), nil

	case ProviderAzure:
		if cfg.BaseURL == "" {
			return nil, fmt.Errorf("%w: base_url is required for the azure provider", ErrConfiguration)
		}
		if cfg.APIVersion == "" {
			return nil, fmt.Errorf("%w: api_version is required for the azure provider", ErrConfiguration)
		}
		if cfg.DeploymentID == "" {
			return nil, fmt.Errorf("%w: deployment_id is required for the azure provider", ErrConfiguration)
		}

		clientCfg := openai.DefaultAzureConfig(cfg.APIKey, cfg.BaseURL)
		clientCfg.APIVersion = cfg.APIVersion
		deployment := cfg.DeploymentID
		clientCfg.AzureModelMapperFunc = func(string) string { return deployment }
		return openai.NewClientWithConfig(clientCfg), nil

	default:
		return nil, fmt.Errorf("%w: unknown provider %q", ErrConfiguration, cfg.Provider)
	}
}
