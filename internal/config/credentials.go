package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/rohankatakam/sprintbrief/internal/errors"
)

// CredentialManager handles credential retrieval with priority chain.
// Priority: Environment Variables → Keychain → Credentials File → Interactive Prompt
type CredentialManager struct {
	mode     DeploymentMode
	keyring  *KeyringManager
	credPath string
	in       io.Reader
	out      io.Writer
	reader   *bufio.Reader // piped input, shared across prompts
}

// Credentials holds all user credentials
type Credentials struct {
	OpenAIAPIKey string `yaml:"openai_api_key,omitempty"`
	GeminiAPIKey string `yaml:"gemini_api_key,omitempty"`
	GitHubToken  string `yaml:"github_token,omitempty"`
}

// NewCredentialManager creates a new credential manager
func NewCredentialManager() *CredentialManager {
	return &CredentialManager{
		mode:     DetectMode(),
		keyring:  NewKeyringManager(),
		credPath: filepath.Join(HomeDir(), "credentials.yaml"),
		in:       os.Stdin,
		out:      os.Stdout,
	}
}

// GetGitHubToken retrieves the GitHub token using priority chain.
// The token is optional: public repositories work without one.
func (cm *CredentialManager) GetGitHubToken() (string, error) {
	if token := firstEnv("GITHUB_TOKEN", "GH_TOKEN"); token != "" {
		return token, nil
	}

	if cm.keyring.IsAvailable() {
		if token, err := cm.keyring.GetGitHubToken(); err == nil && token != "" {
			return token, nil
		}
	}

	if creds, err := cm.loadCredentialsFile(); err == nil && creds.GitHubToken != "" {
		return creds.GitHubToken, nil
	}

	if cm.mode.AllowsInteractivePrompts() && isInteractive() {
		fmt.Fprintln(cm.out, "\nGitHub token not found (optional).")
		fmt.Fprintln(cm.out, "   Required for: private repos, higher rate limits")
		fmt.Fprintln(cm.out, "   Create one at: https://github.com/settings/tokens")
		fmt.Fprint(cm.out, "Enter GitHub token (or press Enter to skip): ")

		token, _ := cm.readSecurely()
		if token != "" {
			if err := cm.SaveCredentials(Credentials{GitHubToken: token}); err != nil {
				return "", err
			}
		}
		return token, nil
	}

	return "", nil
}

// GetOpenAIAPIKey retrieves the OpenAI key using priority chain.
// A missing key disables the remote narrative stage; it is not an error
// for callers that can fall back.
func (cm *CredentialManager) GetOpenAIAPIKey() (string, error) {
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		return key, nil
	}

	if cm.keyring.IsAvailable() {
		if key, err := cm.keyring.GetAPIKey(); err == nil && key != "" {
			return key, nil
		}
	}

	if creds, err := cm.loadCredentialsFile(); err == nil && creds.OpenAIAPIKey != "" {
		return creds.OpenAIAPIKey, nil
	}

	return "", errors.ConfigErrorf(
		"OPENAI_API_KEY not found. Set it via:\n"+
			"  1. Environment variable: export OPENAI_API_KEY=sk-...\n"+
			"  2. Run: brief configure (to set up keychain)\n"+
			"  3. Credentials file: %s", cm.credPath)
}

// SaveCredentials saves credentials to keychain (preferred) or the
// credentials file (fallback)
func (cm *CredentialManager) SaveCredentials(creds Credentials) error {
	if cm.keyring.IsAvailable() {
		if creds.OpenAIAPIKey != "" {
			if err := cm.keyring.SetAPIKey(creds.OpenAIAPIKey); err != nil {
				return errors.Wrap(err, errors.ErrorTypeConfig, errors.SeverityHigh,
					"failed to save OpenAI API key to keychain")
			}
		}
		if creds.GeminiAPIKey != "" {
			if err := cm.keyring.SetGeminiKey(creds.GeminiAPIKey); err != nil {
				return errors.Wrap(err, errors.ErrorTypeConfig, errors.SeverityHigh,
					"failed to save Gemini API key to keychain")
			}
		}
		if creds.GitHubToken != "" {
			if err := cm.keyring.SetGitHubToken(creds.GitHubToken); err != nil {
				return errors.Wrap(err, errors.ErrorTypeConfig, errors.SeverityHigh,
					"failed to save GitHub token to keychain")
			}
		}
		return nil
	}

	// merge with whatever is already on disk
	existing, err := cm.loadCredentialsFile()
	if err != nil {
		existing = &Credentials{}
	}
	if creds.OpenAIAPIKey != "" {
		existing.OpenAIAPIKey = creds.OpenAIAPIKey
	}
	if creds.GeminiAPIKey != "" {
		existing.GeminiAPIKey = creds.GeminiAPIKey
	}
	if creds.GitHubToken != "" {
		existing.GitHubToken = creds.GitHubToken
	}
	return cm.saveCredentialsFile(*existing)
}

// ClearCredentials removes stored secrets from the keychain and deletes the
// credentials file. Environment variables are left alone.
func (cm *CredentialManager) ClearCredentials() error {
	if cm.keyring.IsAvailable() {
		for _, del := range []func() error{
			cm.keyring.DeleteAPIKey,
			cm.keyring.DeleteGeminiKey,
			cm.keyring.DeleteGitHubToken,
		} {
			if err := del(); err != nil {
				return errors.Wrap(err, errors.ErrorTypeConfig, errors.SeverityHigh, "failed to clear keychain credentials")
			}
		}
	}

	if err := os.Remove(cm.credPath); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, errors.ErrorTypeConfig, errors.SeverityHigh, "failed to remove credentials file")
	}
	return nil
}

// PromptSecret asks for one secret on the configured output and reads it
// without echo when stdin is a terminal
func (cm *CredentialManager) PromptSecret(label string) (string, error) {
	fmt.Fprintf(cm.out, "%s: ", label)
	return cm.readSecurely()
}

func (cm *CredentialManager) loadCredentialsFile() (*Credentials, error) {
	data, err := os.ReadFile(cm.credPath)
	if err != nil {
		return nil, err
	}

	var creds Credentials
	if err := yaml.Unmarshal(data, &creds); err != nil {
		return nil, err
	}
	return &creds, nil
}

func (cm *CredentialManager) saveCredentialsFile(creds Credentials) error {
	if err := os.MkdirAll(filepath.Dir(cm.credPath), 0700); err != nil {
		return err
	}

	data, err := yaml.Marshal(creds)
	if err != nil {
		return err
	}

	// user-only read/write
	return os.WriteFile(cm.credPath, data, 0600)
}

// readSecurely reads a secret without echoing when possible
func (cm *CredentialManager) readSecurely() (string, error) {
	if f, ok := cm.in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cm.out)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(b)), nil
	}

	if cm.reader == nil {
		cm.reader = bufio.NewReader(cm.in)
	}
	line, err := cm.reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// isInteractive returns true if stdin is a terminal (not piped)
func isInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// GetMode returns the current deployment mode
func (cm *CredentialManager) GetMode() DeploymentMode {
	return cm.mode
}

// CredentialsPath returns the path of the fallback credentials file
func (cm *CredentialManager) CredentialsPath() string {
	return cm.credPath
}
