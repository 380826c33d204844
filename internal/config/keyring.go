package config

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/zalando/go-keyring"
)

const (
	// KeyringService is the service name in the OS keychain
	KeyringService = "SprintBrief"

	// KeyringAPIKeyItem is the key for the OpenAI API key
	KeyringAPIKeyItem = "openai-api-key"

	// KeyringGeminiKeyItem is the key for the Gemini API key
	KeyringGeminiKeyItem = "gemini-api-key"

	// KeyringGitHubTokenItem is the key for the GitHub token
	KeyringGitHubTokenItem = "github-token"
)

// KeyringManager handles secure credential storage in OS keychain
type KeyringManager struct {
	logger *slog.Logger
}

// NewKeyringManager creates a new keyring manager
func NewKeyringManager() *KeyringManager {
	return &KeyringManager{
		logger: slog.Default().With("component", "keyring"),
	}
}

// get returns the stored secret, "" when it was never set
func (km *KeyringManager) get(item string) (string, error) {
	secret, err := keyring.Get(KeyringService, item)
	if err == keyring.ErrNotFound {
		return "", nil
	}
	if err != nil {
		km.logger.Error("failed to read from keychain", "item", item, "error", err)
		return "", fmt.Errorf("failed to read from OS keychain: %w", err)
	}
	km.logger.Debug("secret retrieved from keychain", "item", item)
	return secret, nil
}

func (km *KeyringManager) set(item, secret string) error {
	if secret == "" {
		return fmt.Errorf("%s cannot be empty", item)
	}
	if err := keyring.Set(KeyringService, item, secret); err != nil {
		km.logger.Error("failed to save to keychain", "item", item, "error", err)
		return fmt.Errorf("failed to save to OS keychain: %w", err)
	}
	km.logger.Info("secret saved to keychain", "service", KeyringService, "item", item)
	return nil
}

func (km *KeyringManager) delete(item string) error {
	err := keyring.Delete(KeyringService, item)
	if err == keyring.ErrNotFound {
		// Already deleted, not an error
		return nil
	}
	if err != nil {
		km.logger.Error("failed to delete from keychain", "item", item, "error", err)
		return fmt.Errorf("failed to delete from OS keychain: %w", err)
	}
	km.logger.Info("secret deleted from keychain", "item", item)
	return nil
}

// GetAPIKey retrieves the OpenAI API key from OS keychain
func (km *KeyringManager) GetAPIKey() (string, error) { return km.get(KeyringAPIKeyItem) }

// SetAPIKey stores the OpenAI API key in OS keychain
func (km *KeyringManager) SetAPIKey(apiKey string) error { return km.set(KeyringAPIKeyItem, apiKey) }

// DeleteAPIKey removes the OpenAI API key from OS keychain
func (km *KeyringManager) DeleteAPIKey() error { return km.delete(KeyringAPIKeyItem) }

func (km *KeyringManager) GetGeminiKey() (string, error) { return km.get(KeyringGeminiKeyItem) }

func (km *KeyringManager) SetGeminiKey(apiKey string) error {
	return km.set(KeyringGeminiKeyItem, apiKey)
}

func (km *KeyringManager) DeleteGeminiKey() error { return km.delete(KeyringGeminiKeyItem) }

// GetGitHubToken retrieves the GitHub token from OS keychain
func (km *KeyringManager) GetGitHubToken() (string, error) { return km.get(KeyringGitHubTokenItem) }

// SetGitHubToken stores the GitHub token in OS keychain
func (km *KeyringManager) SetGitHubToken(token string) error {
	return km.set(KeyringGitHubTokenItem, token)
}

// DeleteGitHubToken removes the GitHub token from OS keychain
func (km *KeyringManager) DeleteGitHubToken() error { return km.delete(KeyringGitHubTokenItem) }

// IsAvailable checks if OS keychain is available.
// Returns false on headless systems (CI/CD) where keychain isn't available.
func (km *KeyringManager) IsAvailable() bool {
	_, err := keyring.Get(KeyringService, "test-availability")
	if err == keyring.ErrNotFound {
		return true
	}
	if err != nil {
		km.logger.Debug("keychain not available", "error", err)
		return false
	}
	return true
}

// KeySourceInfo describes where a credential is coming from
type KeySourceInfo struct {
	Source      string // "env", "keychain", "config", "none"
	Secure      bool
	Recommended string
}

// GetAPIKeySource determines where the OpenAI API key is coming from
func (km *KeyringManager) GetAPIKeySource(cfg *Config) KeySourceInfo {
	if os.Getenv("OPENAI_API_KEY") != "" {
		return KeySourceInfo{Source: "env", Secure: true, Recommended: "Using environment variable (good for CI/CD)"}
	}
	if key, _ := km.GetAPIKey(); key != "" {
		return KeySourceInfo{Source: "keychain", Secure: true, Recommended: "Stored securely in OS keychain"}
	}
	if cfg != nil && cfg.LLM.OpenAIKey != "" {
		return KeySourceInfo{Source: "config", Secure: false, Recommended: "Plaintext storage detected. Run: brief configure"}
	}
	return KeySourceInfo{Source: "none", Secure: false, Recommended: "No API key configured; briefs use the deterministic composer. Run: brief configure"}
}

// MaskAPIKey masks an API key for display.
// Shows first 7 chars and last 4 chars: "sk-proj...abc123"
func MaskAPIKey(apiKey string) string {
	if apiKey == "" {
		return "(not set)"
	}
	if len(apiKey) < 12 {
		return "***"
	}
	return fmt.Sprintf("%s...%s", apiKey[:7], apiKey[len(apiKey)-4:])
}
