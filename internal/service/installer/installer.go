package installer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/oshokin/libsync/internal/archive"
	"github.com/oshokin/libsync/internal/domain/library"
	"github.com/oshokin/libsync/internal/fetcher"
	"github.com/oshokin/libsync/internal/logger"
	"github.com/oshokin/libsync/internal/repository/manifest"
)

const (
	// workDirPattern names the per-run directory holding downloaded archives.
	workDirPattern = "libsync-"

	// progressStep is how many downloaded bytes separate two progress messages.
	progressStep = 64 << 20
)

// errDependencyMissing is returned when the installer is built without a collaborator.
var errDependencyMissing = errors.New("installer dependency is not set")

// Report lists what a run did, in catalog order.
type Report struct {
	// Installed are the libraries downloaded and extracted by the run.
	Installed []string
	// Skipped are the libraries already matching the manifest.
	Skipped []string
}

// Installer keeps a destination directory in sync with a catalog.
type Installer struct {
	// repository loads and saves the manifest.
	repository manifest.Repository
	// fetcher downloads archives by identifier.
	fetcher fetcher.Fetcher
	// extractor unpacks downloaded archives.
	extractor archive.Extractor
	// platform selects the temporary archive extension.
	platform library.Platform
	// destination is where archives are extracted.
	destination string
	// tempRoot is the parent of the per-run download directory; empty means os.TempDir.
	tempRoot string
	// force reinstalls every entry regardless of the manifest.
	force bool
}

// Option configures Installer behaviour.
type Option func(*Installer)

// WithPlatform sets the platform used to name temporary archives.
func WithPlatform(p library.Platform) Option {
	return func(i *Installer) {
		if p != "" {
			i.platform = p
		}
	}
}

// WithDestination sets the extraction directory.
func WithDestination(dir string) Option {
	return func(i *Installer) {
		if dir != "" {
			i.destination = dir
		}
	}
}

// WithTempDir sets the parent directory for downloaded archives.
func WithTempDir(dir string) Option {
	return func(i *Installer) {
		i.tempRoot = dir
	}
}

// WithForce makes every entry count as changed.
func WithForce(force bool) Option {
	return func(i *Installer) {
		i.force = force
	}
}

// New creates an installer from its collaborators.
func New(
	repository manifest.Repository,
	fetch fetcher.Fetcher,
	extractor archive.Extractor,
	opts ...Option,
) (*Installer, error) {
	if repository == nil || fetch == nil || extractor == nil {
		return nil, errDependencyMissing
	}

	i := &Installer{
		repository:  repository,
		fetcher:     fetch,
		extractor:   extractor,
		platform:    library.CurrentPlatform(),
		destination: ".",
	}

	for _, opt := range opts {
		opt(i)
	}

	return i, nil
}

// Plan returns the entries that Sync would install, without side effects.
func (i *Installer) Plan(ctx context.Context, catalog library.Catalog) ([]library.Entry, error) {
	if err := catalog.Validate(); err != nil {
		return nil, fmt.Errorf("validate catalog: %w", err)
	}

	previous, err := i.repository.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load manifest: %w", err)
	}

	pending := make([]library.Entry, 0, len(catalog))

	for _, entry := range catalog {
		if i.force || previous.NeedsInstall(entry) {
			pending = append(pending, entry)
		}
	}

	return pending, nil
}

// Sync installs every new or changed entry in catalog order and then records
// the whole catalog as the manifest. On failure the returned report holds the
// entries processed before the failing one and the manifest is not written.
func (i *Installer) Sync(ctx context.Context, catalog library.Catalog) (*Report, error) {
	report := new(Report)

	if err := catalog.Validate(); err != nil {
		return report, fmt.Errorf("validate catalog: %w", err)
	}

	previous, err := i.repository.Load(ctx)
	if err != nil {
		return report, fmt.Errorf("load manifest: %w", err)
	}

	workDir, err := os.MkdirTemp(i.tempRoot, workDirPattern)
	if err != nil {
		return report, fmt.Errorf("create download directory: %w: %w", library.ErrFilesystem, err)
	}

	defer func() {
		_ = os.RemoveAll(workDir)
	}()

	for _, entry := range catalog {
		if err = ctx.Err(); err != nil {
			return report, err
		}

		entryCtx := logger.WithFields(ctx, "library", entry.Name, "id", entry.ID)

		if !i.force && !previous.NeedsInstall(entry) {
			logger.Debug(entryCtx, "Library is up to date")

			report.Skipped = append(report.Skipped, entry.Name)

			continue
		}

		logger.Info(entryCtx, "Installing library")

		if err = i.install(entryCtx, workDir, entry); err != nil {
			return report, fmt.Errorf("install %s: %w", entry.Name, err)
		}

		logger.Info(entryCtx, "Library installed")

		report.Installed = append(report.Installed, entry.Name)
	}

	if err = i.repository.Save(ctx, catalog.Manifest()); err != nil {
		return report, fmt.Errorf("save manifest: %w", err)
	}

	return report, nil
}

// install downloads, extracts and removes the archive of a single entry.
func (i *Installer) install(ctx context.Context, workDir string, entry library.Entry) error {
	archivePath := filepath.Join(workDir, entry.Name+i.platform.ArchiveExtension())

	if err := i.download(ctx, entry.ID, archivePath); err != nil {
		return err
	}

	logger.DebugKV(ctx, "Extracting archive", "archive", archivePath, "destination", i.destination)

	if err := i.extractor.Extract(ctx, archivePath, i.destination); err != nil {
		return err
	}

	if err := os.Remove(archivePath); err != nil {
		return fmt.Errorf("remove %s: %w: %w", archivePath, library.ErrFilesystem, err)
	}

	return nil
}

// download stores the archive of id at archivePath.
func (i *Installer) download(ctx context.Context, id, archivePath string) error {
	body, err := i.fetcher.Fetch(ctx, id)
	if err != nil {
		return err
	}

	defer func() {
		_ = body.Close()
	}()

	outputFile, err := os.Create(filepath.Clean(archivePath))
	if err != nil {
		return fmt.Errorf("create %s: %w: %w", archivePath, library.ErrFilesystem, err)
	}

	source := &progressReader{ctx: ctx, reader: body}

	if _, err = io.Copy(outputFile, source); err != nil {
		_ = outputFile.Close()

		if source.err != nil {
			return fmt.Errorf("fetch %s: %w: %w", id, library.ErrDownloadFailed, err)
		}

		return fmt.Errorf("write %s: %w: %w", archivePath, library.ErrFilesystem, err)
	}

	if err = outputFile.Close(); err != nil {
		return fmt.Errorf("write %s: %w: %w", archivePath, library.ErrFilesystem, err)
	}

	logger.DebugKV(ctx, "Downloaded archive", "path", archivePath, "bytes", source.total)

	return nil
}

// progressReader counts downloaded bytes, logs progress and remembers read errors.
type progressReader struct {
	ctx    context.Context //nolint:containedctx // Used for logging only.
	reader io.Reader
	total  int64
	logged int64
	err    error
}

// Read implements io.Reader.
func (r *progressReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	r.total += int64(n)

	if r.total-r.logged >= progressStep {
		r.logged = r.total
		logger.InfoKV(r.ctx, "Downloading", "megabytes", r.total>>20)
	}

	if err != nil && !errors.Is(err, io.EOF) {
		r.err = err
	}

	return n, err
}
