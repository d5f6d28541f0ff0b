package installer

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/oshokin/libsync/internal/archive"
	"github.com/oshokin/libsync/internal/config"
	"github.com/oshokin/libsync/internal/domain/library"
	"github.com/oshokin/libsync/internal/fetcher"
	"github.com/oshokin/libsync/internal/logger"
	"github.com/oshokin/libsync/internal/repository/manifest"
)

// Options are inputs accepted by the installer entry points.
type Options struct {
	// ConfigPath is the optional path to the settings YAML file.
	ConfigPath string
	// Platform overrides the configured platform ("linux" or "windows").
	Platform string
	// ManifestFile overrides the configured manifest location.
	ManifestFile string
	// Destination overrides the configured extraction directory.
	Destination string
	// Force reinstalls every library.
	Force bool
}

// Status is the outcome of a dry run.
type Status struct {
	// Platform is the resolved target platform.
	Platform library.Platform
	// ManifestFile is the manifest that was consulted.
	ManifestFile string
	// Catalog is the full catalog in install order.
	Catalog library.Catalog
	// Pending are the libraries a run would install.
	Pending library.Catalog
	// UpToDate are the libraries matching the manifest.
	UpToDate library.Catalog
}

// Run executes a provisioning run and is the public entry point for the CLI.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "libsync")

	settings, err := loadSettings(opts)
	if err != nil {
		return err
	}

	ctx = logger.WithFields(ctx, "platform", settings.Platform)

	release, err := acquireMarker(ctx, settings.Destination)
	if err != nil {
		return err
	}

	defer release()

	inst, err := newFromSettings(settings, opts.Force)
	if err != nil {
		return err
	}

	catalog := settings.Catalog()

	logger.DebugKV(ctx, "Synchronizing libraries",
		"libraries", catalog.Names(),
		"destination", settings.Destination)

	report, err := inst.Sync(ctx, catalog)
	if err != nil {
		logger.ErrorKV(ctx, "Provisioning failed",
			"error", err, "installed", report.Installed)

		return err
	}

	logger.InfoKV(ctx, "Provisioning completed",
		"installed", len(report.Installed),
		"skipped", len(report.Skipped),
		"manifest", settings.ManifestFile)

	return nil
}

// Check reports which libraries a run would install without downloading anything.
func Check(ctx context.Context, opts *Options) (*Status, error) {
	ctx = logger.WithName(ctx, "libsync")

	settings, err := loadSettings(opts)
	if err != nil {
		return nil, err
	}

	inst, err := newFromSettings(settings, opts.Force)
	if err != nil {
		return nil, err
	}

	catalog := settings.Catalog()

	pending, err := inst.Plan(ctx, catalog)
	if err != nil {
		return nil, err
	}

	pendingNames := make(map[string]struct{}, len(pending))
	for _, entry := range pending {
		pendingNames[entry.Name] = struct{}{}
	}

	status := &Status{
		Platform:     settings.PlatformValue(),
		ManifestFile: settings.ManifestFile,
		Catalog:      catalog,
		Pending:      pending,
	}

	for _, entry := range catalog {
		if _, found := pendingNames[entry.Name]; !found {
			status.UpToDate = append(status.UpToDate, entry)
		}
	}

	return status, nil
}

// loadSettings reads the settings file and applies command-line overrides.
// A missing default settings file falls back to the built-in catalog.
func loadSettings(opts *Options) (*config.Config, error) {
	if opts == nil {
		opts = new(Options)
	}

	configPath := opts.ConfigPath
	isDefaultPath := configPath == "" || configPath == config.DefaultConfigFilename

	settings, err := config.Load(configPath)

	switch {
	case err == nil:
	case isDefaultPath && errors.Is(err, os.ErrNotExist):
		settings = new(config.Config)
	default:
		return nil, fmt.Errorf("load settings: %w", err)
	}

	if opts.Platform != "" {
		settings.Platform = opts.Platform
	}

	if opts.ManifestFile != "" {
		settings.ManifestFile = opts.ManifestFile
	}

	if opts.Destination != "" {
		settings.Destination = opts.Destination
	}

	if err = config.Validate(settings); err != nil {
		return nil, fmt.Errorf("validate settings: %w", err)
	}

	return settings, nil
}

// newFromSettings wires the production collaborators.
func newFromSettings(settings *config.Config, force bool) (*Installer, error) {
	platform := settings.PlatformValue()

	drive := fetcher.NewDriveFetcher(
		fetcher.WithBaseURL(settings.DownloadURL),
		fetcher.WithTimeout(settings.Timeout),
	)

	return New(
		manifest.NewFileRepository(settings.ManifestFile),
		drive,
		archive.ForPlatform(platform),
		WithPlatform(platform),
		WithDestination(settings.Destination),
		WithForce(force),
	)
}
