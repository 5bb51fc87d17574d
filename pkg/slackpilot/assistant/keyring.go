// Package assistant – keyring.go provides secure credential storage using
// the operating system's native keyring (Linux: Secret Service/GNOME
// Keyring, macOS: Keychain, Windows: Credential Manager).
//
// Priority for resolving the API key:
//  1. OS keyring (encrypted by the OS, requires user session)
//  2. Environment variable (OPENAI_API_KEY)
//  3. .env file (loaded by godotenv)
//  4. config.yaml value (least secure — plaintext on disk)
package assistant

import (
	"log/slog"

	"github.com/zalando/go-keyring"
)

const (
	// keyringService is the service name used in the OS keyring.
	keyringService = "slackpilot"

	// keyringAPIKey is the key name for the OpenAI API key.
	keyringAPIKey = "api_key"
)

// StoreKeyring saves a secret to the OS keyring.
func StoreKeyring(key, value string) error {
	return keyring.Set(keyringService, key, value)
}

// GetKeyring retrieves a secret from the OS keyring.
// Returns empty string if not found.
func GetKeyring(key string) string {
	val, err := keyring.Get(keyringService, key)
	if err != nil {
		return ""
	}
	return val
}

// DeleteKeyring removes a secret from the OS keyring.
func DeleteKeyring(key string) error {
	return keyring.Delete(keyringService, key)
}

// KeyringAvailable checks if the OS keyring is accessible.
func KeyringAvailable() bool {
	// Try a write+delete cycle with a test key.
	testKey := "__slackpilot_test__"
	if err := keyring.Set(keyringService, testKey, "test"); err != nil {
		return false
	}
	_ = keyring.Delete(keyringService, testKey)
	return true
}

// StoreAPIKey saves the OpenAI API key to the OS keyring.
func StoreAPIKey(value string) error {
	return StoreKeyring(keyringAPIKey, value)
}

// ResolveAPIKey resolves the API key using the priority chain:
// keyring → env/config (already resolved by the loader).
// Updates the config in-place with the resolved value.
func ResolveAPIKey(cfg *Config, logger *slog.Logger) {
	// 1. OS keyring (encrypted by the OS).
	if val := GetKeyring(keyringAPIKey); val != "" {
		cfg.OpenAI.APIKey = val
		logger.Debug("API key loaded from OS keyring")
		return
	}

	// 2. Env/config value resolved during load.
	if cfg.OpenAI.APIKey != "" && !IsEnvReference(cfg.OpenAI.APIKey) {
		logger.Debug("API key loaded from config/env")
		return
	}

	logger.Warn("no OpenAI API key found",
		"hint", "run 'slackpilot setup' or set OPENAI_API_KEY")
}
