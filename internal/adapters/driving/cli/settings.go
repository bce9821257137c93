package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/lineage/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure embedding providers, the vector backend, the face
detection service and matching defaults.

Every key can also be supplied through the environment, e.g.
LINEAGE_EMBEDDING_API_KEY overrides embedding.api_key.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print one setting",
	Args:  cobra.ExactArgs(1),
	RunE:  runSettingsGet,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> [value]",
	Short: "Change one setting",
	Long: `Change one setting. Omit the value for secret keys to be prompted for it
without echo.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runSettingsSet,
}

var settingsKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List settable keys",
	RunE:  runSettingsKeys,
}

var settingsValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the settings can build every component",
	Long: `Check the settings for consistency, then ping the configured embedding
providers and detection service. Use --offline to skip the pings.`,
	RunE: runSettingsValidate,
}

var settingsValidateOffline bool

var settingsEmbeddingCmd = &cobra.Command{
	Use:   "embedding",
	Short: "Configure embedding provider",
	Long:  `Interactively choose the embedding provider used for ingested text.`,
	RunE:  runSettingsEmbedding,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsGetCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsKeysCmd)
	settingsCmd.AddCommand(settingsValidateCmd)
	settingsCmd.AddCommand(settingsEmbeddingCmd)
	rootCmd.AddCommand(settingsCmd)

	settingsValidateCmd.Flags().BoolVar(&settingsValidateOffline, "offline", false, "skip connectivity checks")
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	entries, err := settingsService.List()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")

	section := ""
	for _, e := range entries {
		group, name, _ := strings.Cut(e.Key, ".")
		if group != section {
			section = group
			cmd.Println()
			cmd.Printf("[%s]\n", section)
		}
		cmd.Printf("  %s: %s\n", name, displayValue(e))
	}
	cmd.Println()

	if err := settingsService.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
		cmd.Println("Run 'lineage settings set <key> <value>' to fix configuration issues.")
	} else {
		cmd.Println("Configuration is valid.")
	}

	return nil
}

func runSettingsGet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	entries, err := settingsService.List()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	for _, e := range entries {
		if e.Key == args[0] {
			cmd.Println(displayValue(e))
			return nil
		}
	}
	return fmt.Errorf("unknown setting %q", args[0])
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	key := args[0]
	var value string
	if len(args) == 2 {
		value = args[1]
	} else {
		if !isSecretKey(key) {
			return fmt.Errorf("a value is required for %s", key)
		}
		cmd.Printf("Enter %s: ", key)
		value = readPassword(cmd.InOrStdin(), bufio.NewReader(cmd.InOrStdin()))
		cmd.Println()
	}

	if err := settingsService.Set(key, value); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	cmd.Printf("%s updated\n", key)
	return nil
}

func runSettingsKeys(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	for _, key := range settingsService.Keys() {
		cmd.Println(key)
	}
	return nil
}

func runSettingsValidate(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}
	if err := settingsService.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if !settingsValidateOffline {
		if err := settingsService.CheckConnectivity(cmd.Context()); err != nil {
			return fmt.Errorf("connectivity check failed: %w", err)
		}
	}
	cmd.Println("Configuration is valid.")
	return nil
}

func runSettingsEmbedding(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	reader := bufio.NewReader(cmd.InOrStdin())
	return configureEmbeddingProvider(cmd, reader)
}

func configureEmbeddingProvider(cmd *cobra.Command, reader *bufio.Reader) error {
	cmd.Println("Select Embedding Provider")
	providers := domain.AllEmbeddingProviders()
	for i, p := range providers {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	input := readLine(reader)
	idx := parseChoice(input, len(providers), 1)
	selectedProvider := providers[idx-1]

	if err := settingsService.Set("embedding.provider", selectedProvider.String()); err != nil {
		return fmt.Errorf("failed to configure embedding provider: %w", err)
	}

	// Local providers take no model or credentials.
	if selectedProvider.IsLocal() {
		cmd.Printf("Embedding provider configured: %s\n", selectedProvider.Description())
		return nil
	}

	defaultModel := domain.DefaultEmbeddingModels()[selectedProvider]
	cmd.Printf("Enter model name [%s]: ", defaultModel)
	model := readLine(reader)
	if model == "" {
		model = defaultModel
	}
	if err := settingsService.Set("embedding.model", model); err != nil {
		return fmt.Errorf("failed to set model: %w", err)
	}
	if dims, ok := domain.EmbeddingDimensions()[model]; ok {
		if err := settingsService.Set("embedding.dimensions", strconv.Itoa(dims)); err != nil {
			return fmt.Errorf("failed to set dimensions: %w", err)
		}
	}

	if selectedProvider.RequiresAPIKey() {
		cmd.Print("Enter API key: ")
		apiKey := readPassword(cmd.InOrStdin(), reader)
		cmd.Println()
		if apiKey == "" {
			return errors.New("API key is required for this provider")
		}
		if err := settingsService.Set("embedding.api_key", apiKey); err != nil {
			return fmt.Errorf("failed to set API key: %w", err)
		}
	}

	cmd.Printf("Embedding provider configured: %s (%s)\n", selectedProvider.Description(), model)
	return nil
}

// Helper functions.

func displayValue(e domain.SettingEntry) string {
	switch {
	case e.Value == "":
		return "(not set)"
	case e.Secret:
		return maskAPIKey(e.Value)
	default:
		return e.Value
	}
}

func isSecretKey(key string) bool {
	if settingsService == nil {
		return false
	}
	entries, err := settingsService.List()
	if err != nil {
		return false
	}
	for _, e := range entries {
		if e.Key == key {
			return e.Secret
		}
	}
	return false
}

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

// readPassword reads without echo when in is a terminal, otherwise a line from reader.
func readPassword(in io.Reader, reader *bufio.Reader) string {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		password, err := term.ReadPassword(int(f.Fd()))
		if err == nil {
			return string(password)
		}
	}
	return readLine(reader)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
