// Package cli implements the vidmirror command line using cobra.
// Commands reach the core through driving ports held in package-level
// variables, set either directly with SetServices or lazily by the
// Bootstrap function once flags are parsed.
package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/vidmirror/internal/core/ports/driving"
	"github.com/custodia-labs/vidmirror/internal/logger"
)

// version is set at build time via SetVersion.
var version = "dev"

// Services holds the driving ports used by the commands.
type Services struct {
	Settings driving.SettingsService
	Mirror   driving.MirrorService
	Mapping  driving.MappingService

	// NewScheduler builds a scheduler for the given run options.
	NewScheduler func(opts driving.MirrorOptions) driving.Scheduler
}

// Bootstrap builds the services for a config directory. An empty configDir
// selects the default location. When settingsOnly is set only the settings
// service is needed and no store is opened. The returned function releases
// stores.
type Bootstrap func(configDir string, settingsOnly bool) (*Services, func() error, error)

var (
	settingsService driving.SettingsService
	mirrorService   driving.MirrorService
	mappingService  driving.MappingService
	newScheduler    func(opts driving.MirrorOptions) driving.Scheduler

	bootstrap     Bootstrap
	closeServices func() error
)

// Command annotations read by setup. Both apply to subcommands too.
const (
	// annotationNoServices marks commands that run without bootstrapping.
	annotationNoServices = "no-services"

	// annotationSettingsOnly marks commands that only need settings.
	annotationSettingsOnly = "settings-only"
)

var rootCmd = &cobra.Command{
	Use:   "vidmirror",
	Short: "Mirror a Source video library into a Target library",
	Long: `vidmirror walks the folder hierarchy of a Source video platform,
recreates the folders in a Target platform and records, for every Source
video, which Target video it corresponds to.

Runs are idempotent: videos that already have a mapping are skipped without
contacting the Target. Configuration lives in ~/.vidmirror/config.toml.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "print progress and debug logs")
	rootCmd.PersistentFlags().String("config", "", "config directory (default ~/.vidmirror)")
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	version = v
}

// SetBootstrap sets the function that builds services after flag parsing.
func SetBootstrap(b Bootstrap) {
	bootstrap = b
}

// SetServices injects services directly, bypassing Bootstrap.
func SetServices(s *Services) {
	if s == nil {
		s = &Services{}
	}
	settingsService = s.Settings
	mirrorService = s.Mirror
	mappingService = s.Mapping
	newScheduler = s.NewScheduler
}

// ExecuteContext runs the root command.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// Close releases the resources created by Bootstrap.
func Close() error {
	if closeServices == nil {
		return nil
	}
	err := closeServices()
	closeServices = nil
	return err
}

func setup(cmd *cobra.Command, _ []string) error {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		return err
	}
	logger.SetVerbose(verbose)

	if bootstrap == nil || hasAnnotation(cmd, annotationNoServices) {
		return nil
	}
	if closeServices != nil {
		return errors.New("services already initialised")
	}

	configDir, err := cmd.Flags().GetString("config")
	if err != nil {
		return err
	}

	services, closeFn, err := bootstrap(configDir, hasAnnotation(cmd, annotationSettingsOnly))
	if err != nil {
		return err
	}
	SetServices(services)
	closeServices = closeFn
	return nil
}

func hasAnnotation(cmd *cobra.Command, key string) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations[key] == "true" {
			return true
		}
	}
	return false
}
