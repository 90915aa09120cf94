package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"tmods/internal/domain"
	"tmods/internal/source/curseforge"
	"tmods/internal/storage/config"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// authProviders lists the catalogs that take an API key. Modrinth needs none.
var authProviders = []domain.Provider{domain.ProviderCurseForge}

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage catalog API keys",
	Long: `Manage the CurseForge API key. Modrinth needs no authentication.

The key is looked up in this order: the CURSEFORGE_API_KEY environment
variable, the key stored by 'tmods auth login', then curseforge_api_key in
config.yaml. Without a key, CurseForge is left out of searches.

Use 'tmods auth login' to store a key.
Use 'tmods auth logout' to remove it.
Use 'tmods auth status' to check which key is in use.`,
}

var authLoginCmd = &cobra.Command{
	Use:   "login [provider]",
	Short: "Store an API key",
	Long: `Store an API key for a catalog (default: curseforge).

For CurseForge:
  1. Visit https://console.curseforge.com/
  2. Create a project and generate an API key
  3. Copy your API key`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAuthLogin,
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout [provider]",
	Short: "Remove a stored API key",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runAuthLogout,
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show which API keys are configured",
	RunE:  runAuthStatus,
}

func init() {
	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authLogoutCmd)
	authCmd.AddCommand(authStatusCmd)
	rootCmd.AddCommand(authCmd)
}

// authProvider returns the provider named in args, defaulting to CurseForge
func authProvider(args []string) (domain.Provider, error) {
	if len(args) == 0 {
		return domain.ProviderCurseForge, nil
	}
	for _, p := range authProviders {
		if string(p) == args[0] {
			return p, nil
		}
	}
	if args[0] == string(domain.ProviderModrinth) {
		return "", fmt.Errorf("modrinth does not need an API key")
	}
	return "", fmt.Errorf("unsupported provider: %s (supported: curseforge)", args[0])
}

func runAuthLogin(cmd *cobra.Command, args []string) error {
	provider, err := authProvider(args)
	if err != nil {
		return err
	}

	apiKey, err := readAPIKey()
	if err != nil {
		return fmt.Errorf("reading API key: %w", err)
	}
	if apiKey == "" {
		return fmt.Errorf("API key cannot be empty")
	}

	fmt.Print("Validating... ")
	client := curseforge.NewClient(nil, apiKey, config.DefaultUserAgent)
	if err := client.ValidateAPIKey(context.Background()); err != nil {
		fmt.Println("failed")
		return fmt.Errorf("invalid API key: %w", err)
	}
	fmt.Println("done")

	service, err := initService()
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer func() {
		if err := service.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "warning: closing service: %v\n", err)
		}
	}()

	if err := service.SaveSourceToken(provider, apiKey); err != nil {
		return fmt.Errorf("saving token: %w", err)
	}

	fmt.Printf("Successfully authenticated with %s!\n", provider.DisplayName())
	if os.Getenv(config.EnvCurseForgeAPIKey) != "" {
		fmt.Println(colorYellow(config.EnvCurseForgeAPIKey + " is set and takes precedence over the stored key."))
	}
	return nil
}

func runAuthLogout(cmd *cobra.Command, args []string) error {
	provider, err := authProvider(args)
	if err != nil {
		return err
	}

	service, err := initService()
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer func() {
		if err := service.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "warning: closing service: %v\n", err)
		}
	}()

	if err := service.DeleteSourceToken(provider); err != nil {
		return fmt.Errorf("removing token: %w", err)
	}

	fmt.Printf("Removed %s credentials.\n", provider.DisplayName())
	return nil
}

func runAuthStatus(cmd *cobra.Command, args []string) error {
	service, err := initService()
	if err != nil {
		return fmt.Errorf("initializing service: %w", err)
	}
	defer func() {
		if err := service.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "warning: closing service: %v\n", err)
		}
	}()

	fmt.Printf("%s: no authentication needed\n", domain.ProviderModrinth.DisplayName())

	for _, provider := range authProviders {
		name := provider.DisplayName()

		if apiKey := os.Getenv(config.EnvCurseForgeAPIKey); apiKey != "" {
			fmt.Printf("%s: authenticated via %s (key: %s)\n", name, config.EnvCurseForgeAPIKey, maskAPIKey(apiKey))
			continue
		}

		token, err := service.GetSourceToken(provider)
		if err != nil {
			return fmt.Errorf("checking %s: %w", provider, err)
		}
		if token != nil {
			fmt.Printf("%s: authenticated (key: %s)\n", name, maskAPIKey(token.APIKey))
			continue
		}

		if key := service.Config().CurseForgeAPIKey; key != "" {
			fmt.Printf("%s: authenticated via config.yaml (key: %s)\n", name, maskAPIKey(key))
			continue
		}

		fmt.Printf("%s: %s\n", name, colorYellow("not authenticated"))
	}

	return nil
}

// readAPIKey prompts for and reads an API key from the terminal
func readAPIKey() (string, error) {
	fmt.Print("Enter API key: ")

	// Try to read securely (hidden input)
	if term.IsTerminal(int(os.Stdin.Fd())) {
		keyBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Println()
		if err != nil {
			return "", fmt.Errorf("reading password: %w", err)
		}
		return strings.TrimSpace(string(keyBytes)), nil
	}

	// Fallback for non-terminal input (e.g., piped input)
	reader := bufio.NewReader(os.Stdin)
	key, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("reading input: %w", err)
	}
	return strings.TrimSpace(key), nil
}

// maskAPIKey returns a masked version of the API key (shows first 3 and last 3 chars)
func maskAPIKey(key string) string {
	if len(key) <= 6 {
		return "***"
	}
	return key[:3] + "..." + key[len(key)-3:]
}
