package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/libsync/internal/config"
	"github.com/oshokin/libsync/internal/logger"
	"github.com/oshokin/libsync/internal/service/installer"
	"github.com/oshokin/libsync/internal/version"
)

// errUnknownLogLevel is returned for unsupported --log-level values.
var errUnknownLogLevel = errors.New("unknown log level")

var (
	// configPath to the configuration YAML file.
	configPath string
	// manifestFile overrides the manifest location.
	manifestFile string
	// destination overrides the extraction directory.
	destination string
	// logLevel is the minimum level of printed messages.
	logLevel string
	// force reinstalls every library.
	force bool

	// rootCmd represents the base command for downloading and extracting libraries.
	rootCmd = &cobra.Command{
		Use:               "libsync [linux|windows]",
		Short:             "Download and extract pre-built third-party libraries",
		Long:              "Download every library whose archive changed since the previous run, extract it and record the installed identifiers in the manifest.",
		Args:              cobra.MaximumNArgs(1),
		ValidArgs:         []string{"linux", "windows"},
		SilenceUsage:      true,
		PersistentPreRunE: applyLogLevel,
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			return installer.Run(ctx, buildOptions(args))
		},
	}
)

// Execute runs the libsync CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	defer logger.Sync()

	if err := rootCmd.Execute(); err != nil {
		logger.Sync()
		os.Exit(1)
	}
}

// buildOptions collects flags and the optional platform argument.
func buildOptions(args []string) *installer.Options {
	options := &installer.Options{
		ConfigPath:   configPath,
		ManifestFile: manifestFile,
		Destination:  destination,
		Force:        force,
	}

	if len(args) > 0 {
		options.Platform = args[0]
	}

	return options
}

// applyLogLevel configures the global logger from the --log-level flag.
func applyLogLevel(_ *cobra.Command, _ []string) error {
	if !logger.SetLevelString(logLevel) {
		return fmt.Errorf("%w: %s", errUnknownLogLevel, logLevel)
	}

	return nil
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	flags.StringVarP(&manifestFile, "manifest", "m", "", "path to the manifest file (default from settings, then "+config.DefaultManifestFilename+")")
	flags.StringVarP(&destination, "dir", "d", "", "directory to extract libraries into (default from settings, then the working directory)")
	flags.StringVarP(&logLevel, "log-level", "l", "info", "log level: debug, info, warn, error")
	flags.BoolVarP(&force, "force", "f", false, "reinstall every library even if the manifest matches")

	rootCmd.AddCommand(statusCmd)
}
