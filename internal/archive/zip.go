package archive

import (
	"archive/zip"
	"context"
	"fmt"
	"path/filepath"
	"strings"
)

// Zip extracts .zip archives.
type Zip struct{}

// Extract unpacks every entry of the archive into destDir.
func (Zip) Extract(ctx context.Context, archivePath, destDir string) error {
	reader, err := zip.OpenReader(filepath.Clean(archivePath))
	if err != nil {
		return extractFailed(archivePath, err)
	}

	defer func() {
		_ = reader.Close()
	}()

	for _, entry := range reader.File {
		if err = ctx.Err(); err != nil {
			return extractFailed(archivePath, err)
		}

		if err = extractZipEntry(entry, destDir); err != nil {
			return extractFailed(archivePath, err)
		}
	}

	return nil
}

// extractZipEntry restores a single zip entry.
func extractZipEntry(entry *zip.File, destDir string) error {
	target, err := safeJoin(destDir, entry.Name)
	if err != nil {
		return err
	}

	mode := entry.Mode()

	if entry.FileInfo().IsDir() || strings.HasSuffix(entry.Name, "/") {
		return makeDir(target, mode)
	}

	content, err := entry.Open()
	if err != nil {
		return fmt.Errorf("open %s: %w", entry.Name, err)
	}

	defer func() {
		_ = content.Close()
	}()

	if err = writeFile(target, content, mode); err != nil {
		return fmt.Errorf("write %s: %w", entry.Name, err)
	}

	return nil
}
