package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/vidmirror/internal/core/domain"
	"github.com/custodia-labs/vidmirror/internal/core/ports/driving"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and change settings stored in the config file.

Secrets may also be supplied through the environment:
  VIDMIRROR_SOURCE_TOKEN, VIDMIRROR_TARGET_API_KEY and VIDMIRROR_DATABASE_URL.`,
	Annotations: map[string]string{annotationSettingsOnly: "true"},
	RunE:        runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a setting",
	Long: `Set a setting in the config file.

Durations accept Go duration strings such as "300ms" or "1h".
Example:
  vidmirror settings set mirror.inter_item_delay 500ms`,
	Args: cobra.ExactArgs(2),
	RunE: runSettingsSet,
}

var settingsSetSecretCmd = &cobra.Command{
	Use:   "set-secret <key>",
	Short: "Set a secret setting without echoing it",
	Args:  cobra.ExactArgs(1),
	RunE:  runSettingsSetSecret,
}

// readSecret reads a secret from the terminal. Replaced in tests.
var readSecret = readPassword

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsSetSecretCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	entries, err := settingsService.Entries()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")

	section := ""
	for _, e := range entries {
		name, key, _ := strings.Cut(e.Key, ".")
		if name != section {
			section = name
			cmd.Println()
			cmd.Printf("[%s]\n", section)
		}
		value := e.Value
		if value == "" {
			value = "(not set)"
		}
		cmd.Printf("  %-24s %s", key, value)
		if e.Origin != "default" {
			cmd.Printf("  (%s)", e.Origin)
		}
		cmd.Println()
	}

	if err := settingsService.Validate(); err != nil {
		cmd.Println()
		cmd.Printf("Warning: %v\n", err)
	}
	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	if err := settingsService.Set(args[0], args[1]); err != nil {
		return fmt.Errorf("failed to set %s: %w", args[0], err)
	}
	cmd.Printf("Set %s\n", args[0])
	return nil
}

func runSettingsSetSecret(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	key := args[0]
	entries, err := settingsService.Entries()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	if !isSecretEntry(entries, key) {
		return fmt.Errorf("%w: %s is not a secret setting", domain.ErrInvalidInput, key)
	}

	cmd.Printf("Enter %s: ", key)
	value := readSecret()
	cmd.Println()
	if value == "" {
		return fmt.Errorf("%w: empty value", domain.ErrInvalidInput)
	}

	if err := settingsService.Set(key, value); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	cmd.Printf("Set %s\n", key)
	return nil
}

func isSecretEntry(entries []driving.SettingEntry, key string) bool {
	for _, e := range entries {
		if e.Key == key {
			return e.Secret
		}
	}
	return false
}

//nolint:errcheck // CLI helper, error ignored for UX
func readPassword() string {
	if term.IsTerminal(int(os.Stdin.Fd())) {
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err == nil {
			return string(password)
		}
	}
	reader := bufio.NewReader(os.Stdin)
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}
