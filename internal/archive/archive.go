package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/oshokin/libsync/internal/domain/library"
)

const (
	// DefaultDirMode is used for directories without a recorded mode.
	DefaultDirMode os.FileMode = 0o755

	// DefaultFileMode is used for files without a recorded mode.
	DefaultFileMode os.FileMode = 0o644
)

var (
	// errUnsafePath is returned for entries escaping the destination directory.
	errUnsafePath = errors.New("archive entry escapes destination")
	// errUnsupportedEntry is returned for entry types that cannot be restored.
	errUnsupportedEntry = errors.New("unsupported archive entry")
)

// Extractor unpacks an archive file into a directory.
type Extractor interface {
	Extract(ctx context.Context, archivePath, destDir string) error
}

// ForPlatform returns the extractor for the platform archive format.
//
//nolint:ireturn // Callers only need the interface.
func ForPlatform(p library.Platform) Extractor {
	if p == library.PlatformWindows {
		return Zip{}
	}

	return TarBzip2{}
}

// extractFailed wraps err into library.ErrExtractFailed.
func extractFailed(archivePath string, err error) error {
	return fmt.Errorf("extract %s: %w: %w", archivePath, library.ErrExtractFailed, err)
}

// safeJoin resolves an entry name inside destDir.
func safeJoin(destDir, name string) (string, error) {
	name = strings.ReplaceAll(name, `\`, "/")
	if filepath.IsAbs(name) || strings.HasPrefix(name, "/") {
		return "", fmt.Errorf("%s: %w", name, errUnsafePath)
	}

	target := filepath.Join(destDir, filepath.FromSlash(name))

	rel, err := filepath.Rel(destDir, target)
	if err != nil {
		return "", fmt.Errorf("%s: %w", name, errUnsafePath)
	}

	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s: %w", name, errUnsafePath)
	}

	return target, nil
}

// writeFile replaces target with the contents of r.
func writeFile(target string, r io.Reader, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), DefaultDirMode); err != nil {
		return err
	}

	if mode.Perm() == 0 {
		mode = DefaultFileMode
	}

	// Remove first so that read-only files and symlinks are replaced, not followed.
	if err := os.Remove(target); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	file, err := os.OpenFile(filepath.Clean(target), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode.Perm())
	if err != nil {
		return err
	}

	if _, err = io.Copy(file, r); err != nil {
		_ = file.Close()

		return err
	}

	return file.Close()
}

// makeDir creates a directory entry.
func makeDir(target string, mode os.FileMode) error {
	if mode.Perm() == 0 {
		mode = DefaultDirMode
	}

	return os.MkdirAll(target, mode.Perm()|0o700)
}

// makeSymlink replaces target with a link that must stay inside destDir.
func makeSymlink(destDir, target, linkName string) error {
	resolved := linkName
	if !filepath.IsAbs(resolved) {
		resolved = filepath.Join(filepath.Dir(target), filepath.FromSlash(linkName))
	}

	rel, err := filepath.Rel(destDir, resolved)
	if err != nil || filepath.IsAbs(linkName) || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("link %s -> %s: %w", target, linkName, errUnsafePath)
	}

	if err = os.MkdirAll(filepath.Dir(target), DefaultDirMode); err != nil {
		return err
	}

	if err = os.Remove(target); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	return os.Symlink(linkName, target)
}
