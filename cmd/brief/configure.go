package main

import (
	"fmt"
	"path/filepath"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/rohankatakam/sprintbrief/internal/config"
)

var (
	configureProvider  string
	configureTransport string
	configureClear     bool
)

var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Store GitHub and model credentials (OS keychain when available)",
	Long: `Prompt for the GitHub token and narrative model keys and store them securely.

Secrets go to the OS keychain; without one they go to ~/.sprintbrief/credentials.yaml
(mode 0600). Non-secret settings are written to ~/.sprintbrief/config.yaml.
Press Enter at any prompt to keep the current value.

--clear removes stored secrets from the keychain and the credentials file.`,
	RunE: runConfigure,
}

func init() {
	configureCmd.Flags().StringVar(&configureProvider, "provider", "", "narrative provider: openai, gemini or none")
	configureCmd.Flags().StringVar(&configureTransport, "transport", "", "GitHub transport: rest or envelope")
	configureCmd.Flags().BoolVar(&configureClear, "clear", false, "remove stored credentials and exit")
}

func runConfigure(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "SprintBrief configuration")
	fmt.Fprintln(out, "━━━━━━━━━━━━━━━━━━━━━━━━━")

	cm := config.NewCredentialManager()
	km := config.NewKeyringManager()

	if configureClear {
		if err := cm.ClearCredentials(); err != nil {
			return err
		}
		fmt.Fprintln(out, "✅ Stored credentials removed")
		return nil
	}

	fmt.Fprintf(out, "Mode: %s\n", cm.GetMode().Description())
	if km.IsAvailable() {
		fmt.Fprintf(out, "Secrets are stored in the OS keychain (%s)\n\n", keychainLocation())
	} else {
		fmt.Fprintf(out, "OS keychain not available, secrets go to %s\n\n", cm.CredentialsPath())
	}

	source := km.GetAPIKeySource(cfg)
	fmt.Fprintf(out, "OpenAI key: %s (%s)\n", config.MaskAPIKey(cfg.LLM.OpenAIKey), source.Recommended)
	fmt.Fprintf(out, "GitHub token: %s\n\n", config.MaskAPIKey(cfg.GitHub.Token))

	var creds config.Credentials
	var err error
	if creds.GitHubToken, err = cm.PromptSecret("GitHub token (optional, raises rate limits)"); err != nil {
		return err
	}
	if creds.OpenAIAPIKey, err = cm.PromptSecret("OpenAI API key (optional, sk-...)"); err != nil {
		return err
	}
	if creds.GeminiAPIKey, err = cm.PromptSecret("Gemini API key (optional)"); err != nil {
		return err
	}

	if creds != (config.Credentials{}) {
		if err := cm.SaveCredentials(creds); err != nil {
			return err
		}
		fmt.Fprintln(out, "✅ Credentials saved")
	}

	if configureProvider == "" && configureTransport == "" {
		return nil
	}

	if configureProvider != "" {
		cfg.LLM.Provider = configureProvider
		cfg.LLM.UseKeychain = km.IsAvailable()
	}
	if configureTransport != "" {
		cfg.GitHub.Transport = configureTransport
	}
	if err := cfg.Validate(config.ValidationContextAll).Err(); err != nil {
		return err
	}

	path := cfgFile
	if path == "" {
		path = filepath.Join(config.HomeDir(), "config.yaml")
	}
	if err := cfg.Save(path); err != nil {
		return err
	}
	fmt.Fprintf(out, "✅ Settings saved to %s\n", path)
	return nil
}

func keychainLocation() string {
	switch runtime.GOOS {
	case "darwin":
		return "macOS Keychain"
	case "windows":
		return "Windows Credential Manager"
	default:
		return "Secret Service"
	}
}
