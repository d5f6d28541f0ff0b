package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/oshokin/libsync/internal/domain/library"
)

// Library is a single catalog entry as written in the settings file.
type Library struct {
	// Name is the library name.
	Name string `yaml:"name"`
	// ID is the remote file identifier of the archive.
	ID string `yaml:"id"`
}

// Config holds the parameters of a provisioning run.
type Config struct {
	// Platform is "linux" or "windows"; empty means the current OS.
	Platform string `yaml:"platform"`
	// ManifestFile is the path to the JSON manifest of installed identifiers.
	ManifestFile string `yaml:"manifest_file"`
	// Destination is the directory archives are extracted into.
	Destination string `yaml:"destination"`
	// DownloadURL is the base URL of the file host.
	DownloadURL string `yaml:"download_url"`
	// Timeout bounds a single archive download.
	Timeout time.Duration `yaml:"timeout"`
	// Libraries overrides the built-in catalog when not empty.
	Libraries []Library `yaml:"libraries,omitempty"`
}

const (
	// DefaultConfigFilename is the default filename for settings.
	DefaultConfigFilename = "libsync-settings.yaml"

	// DefaultManifestFilename is the default filename for the manifest.
	DefaultManifestFilename = "history.json"

	// DefaultDestination extracts archives into the working directory.
	DefaultDestination = "."

	// DefaultDownloadURL is the Google Drive download endpoint.
	DefaultDownloadURL = "https://drive.usercontent.google.com"

	// DefaultTimeout is the default duration of a single archive download.
	// Library archives are large, so it is generous.
	DefaultTimeout = 30 * time.Minute

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600
)

// errConfigIsNotSet is returned when a nil configuration is provided.
var errConfigIsNotSet = errors.New("configuration is not set")

// Default returns settings for the current platform with the built-in catalog.
func Default() *Config {
	cfg := new(Config)

	// Defaults never fail validation.
	_ = Validate(cfg)

	return cfg
}

// Load reads configuration from the provided path and validates essential fields.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes settings to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks the provided settings and fills defaults for empty fields.
func Validate(settings *Config) error {
	if settings == nil {
		return errConfigIsNotSet
	}

	platform, err := library.ParsePlatform(settings.Platform)
	if err != nil {
		return err
	}

	settings.Platform = platform.String()

	if settings.ManifestFile == "" {
		settings.ManifestFile = DefaultManifestFilename
	}

	if settings.Destination == "" {
		settings.Destination = DefaultDestination
	}

	if settings.Timeout <= 0 {
		settings.Timeout = DefaultTimeout
	}

	if settings.DownloadURL == "" {
		settings.DownloadURL = DefaultDownloadURL
	}

	if _, err = url.ParseRequestURI(settings.DownloadURL); err != nil {
		return fmt.Errorf("invalid download URL: %w", err)
	}

	if len(settings.Libraries) == 0 {
		return nil
	}

	if err = settings.Catalog().Validate(); err != nil {
		return fmt.Errorf("invalid libraries: %w", err)
	}

	return nil
}

// PlatformValue returns the parsed platform. Call it after Validate.
func (c *Config) PlatformValue() library.Platform {
	return library.Platform(c.Platform)
}

// Catalog returns the configured libraries, or the built-in catalog for the
// platform when none are listed.
func (c *Config) Catalog() library.Catalog {
	if len(c.Libraries) == 0 {
		return library.DefaultCatalog(c.PlatformValue())
	}

	catalog := make(library.Catalog, 0, len(c.Libraries))
	for _, lib := range c.Libraries {
		catalog = append(catalog, library.Entry{Name: lib.Name, ID: lib.ID})
	}

	return catalog
}
