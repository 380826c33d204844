package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/rohankatakam/sprintbrief/internal/errors"
)

// Transport names for GitHub access
const (
	TransportREST     = "rest"
	TransportEnvelope = "envelope"
)

// Config holds all configuration settings
type Config struct {
	// GitHub access
	GitHub GitHubConfig `yaml:"github" mapstructure:"github"`

	// Narrative model
	LLM LLMConfig `yaml:"llm" mapstructure:"llm"`

	// HTTP boundary
	Server ServerConfig `yaml:"server" mapstructure:"server"`

	// Logging
	Log LogConfig `yaml:"log" mapstructure:"log"`
}

type GitHubConfig struct {
	Token       string        `yaml:"token" mapstructure:"token"`
	BaseURL     string        `yaml:"base_url" mapstructure:"base_url"`         // REST API root
	Transport   string        `yaml:"transport" mapstructure:"transport"`       // "rest" or "envelope"
	EnvelopeURL string        `yaml:"envelope_url" mapstructure:"envelope_url"` // tool endpoint for the envelope transport
	RateLimit   float64       `yaml:"rate_limit" mapstructure:"rate_limit"`     // requests per second, 0 = unpaced
	Timeout     time.Duration `yaml:"timeout" mapstructure:"timeout"`           // per request
}

type LLMConfig struct {
	Provider      string        `yaml:"provider" mapstructure:"provider"` // "openai", "gemini", "none", "" = auto
	OpenAIKey     string        `yaml:"openai_key" mapstructure:"openai_key"`
	OpenAIModel   string        `yaml:"openai_model" mapstructure:"openai_model"`
	OpenAIBaseURL string        `yaml:"openai_base_url" mapstructure:"openai_base_url"`
	GeminiKey     string        `yaml:"gemini_key" mapstructure:"gemini_key"`
	GeminiModel   string        `yaml:"gemini_model" mapstructure:"gemini_model"`
	Timeout       time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UseKeychain   bool          `yaml:"use_keychain" mapstructure:"use_keychain"` // Prefer keychain over config file
}

type ServerConfig struct {
	Addr           string        `yaml:"addr" mapstructure:"addr"`
	RequestTimeout time.Duration `yaml:"request_timeout" mapstructure:"request_timeout"`
}

type LogConfig struct {
	Level string `yaml:"level" mapstructure:"level"`
	File  string `yaml:"file" mapstructure:"file"`
	JSON  bool   `yaml:"json" mapstructure:"json"`
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		GitHub: GitHubConfig{
			BaseURL:     "https://api.github.com/",
			Transport:   TransportREST,
			EnvelopeURL: "https://api.githubcopilot.com/mcp",
			Timeout:     30 * time.Second,
		},
		LLM: LLMConfig{
			OpenAIModel: "gpt-4o-mini",
			GeminiModel: "gemini-2.0-flash",
			Timeout:     45 * time.Second,
		},
		Server: ServerConfig{
			Addr:           ":8080",
			RequestTimeout: 2 * time.Minute,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// HomeDir is the per-user directory for config and logs
func HomeDir() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".sprintbrief")
}

// Load loads configuration from file
func Load(path string) (*Config, error) {
	// Load .env files first (in order of precedence)
	loadEnvFiles()

	v := viper.New()
	v.SetConfigType("yaml")

	// Set defaults
	cfg := Default()
	v.SetDefault("github", cfg.GitHub)
	v.SetDefault("llm", cfg.LLM)
	v.SetDefault("server", cfg.Server)
	v.SetDefault("log", cfg.Log)

	// Load from environment variables
	v.SetEnvPrefix("BRIEF")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".sprintbrief")
		v.AddConfigPath(".")
		v.AddConfigPath(HomeDir())
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, errors.Wrap(err, errors.ErrorTypeConfig, errors.SeverityCritical, "failed to read config")
		}
		// Config file not found is OK, use defaults
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, errors.SeverityCritical, "failed to unmarshal config")
	}

	applyEnvOverrides(cfg, NewKeyringManager())

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to config.
// Precedence: 1. Env var (highest) 2. Keychain 3. Config file (lowest)
func applyEnvOverrides(cfg *Config, km *KeyringManager) {
	// GitHub configuration
	if token := firstEnv("GITHUB_TOKEN", "GH_TOKEN"); token != "" {
		cfg.GitHub.Token = token
	} else if cfg.GitHub.Token == "" && km.IsAvailable() {
		if token, err := km.GetGitHubToken(); err == nil && token != "" {
			cfg.GitHub.Token = token
		}
	}
	cfg.GitHub.BaseURL = GetString("GITHUB_API_URL", cfg.GitHub.BaseURL)
	cfg.GitHub.Transport = GetString("GITHUB_TRANSPORT", cfg.GitHub.Transport)
	cfg.GitHub.EnvelopeURL = GetString("GITHUB_MCP_URL", cfg.GitHub.EnvelopeURL)
	cfg.GitHub.RateLimit = GetFloat("GITHUB_RATE_LIMIT", cfg.GitHub.RateLimit)
	cfg.GitHub.Timeout = GetDuration("GITHUB_TIMEOUT", cfg.GitHub.Timeout)

	// LLM configuration
	cfg.LLM.Provider = GetString("LLM_PROVIDER", cfg.LLM.Provider)
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		cfg.LLM.OpenAIKey = key
	} else if cfg.LLM.OpenAIKey == "" && km.IsAvailable() {
		if key, err := km.GetAPIKey(); err == nil && key != "" {
			cfg.LLM.OpenAIKey = key
			cfg.LLM.UseKeychain = true
		}
	}
	cfg.LLM.OpenAIModel = GetString("OPENAI_MODEL", cfg.LLM.OpenAIModel)
	cfg.LLM.OpenAIBaseURL = GetString("OPENAI_BASE_URL", cfg.LLM.OpenAIBaseURL)
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		cfg.LLM.GeminiKey = key
	} else if cfg.LLM.GeminiKey == "" && km.IsAvailable() {
		if key, err := km.GetGeminiKey(); err == nil && key != "" {
			cfg.LLM.GeminiKey = key
		}
	}
	cfg.LLM.GeminiModel = GetString("GEMINI_MODEL", cfg.LLM.GeminiModel)
	cfg.LLM.Timeout = GetDuration("LLM_TIMEOUT", cfg.LLM.Timeout)

	// Server configuration
	cfg.Server.Addr = GetString("BRIEF_ADDR", cfg.Server.Addr)

	// Logging configuration
	cfg.Log.Level = GetString("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.File = expandPath(GetString("LOG_FILE", cfg.Log.File))
	cfg.Log.JSON = GetBool("LOG_JSON", cfg.Log.JSON)
}

// expandPath expands ~ to home directory
func expandPath(path string) string {
	if path == "" {
		return path
	}
	if path[0] == '~' {
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, path[1:])
	}
	return path
}

// Save saves configuration to file. Secrets are never written; they belong
// in the environment or the keychain.
func (c *Config) Save(path string) error {
	v := viper.New()
	v.SetConfigType("yaml")

	github := c.GitHub
	github.Token = ""
	llm := c.LLM
	llm.OpenAIKey = ""
	llm.GeminiKey = ""

	v.Set("github", github)
	v.Set("llm", llm)
	v.Set("server", c.Server)
	v.Set("log", c.Log)

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}
