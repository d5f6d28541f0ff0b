package archive

import (
	"archive/tar"
	"compress/bzip2"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// TarBzip2 extracts .tar.bz2 archives.
type TarBzip2 struct{}

// Extract unpacks every entry of the archive into destDir.
func (TarBzip2) Extract(ctx context.Context, archivePath, destDir string) error {
	file, err := os.Open(filepath.Clean(archivePath))
	if err != nil {
		return extractFailed(archivePath, err)
	}

	defer func() {
		_ = file.Close()
	}()

	if err = extractTar(ctx, tar.NewReader(bzip2.NewReader(file)), destDir); err != nil {
		return extractFailed(archivePath, err)
	}

	return nil
}

// extractTar walks tar entries and restores them under destDir.
func extractTar(ctx context.Context, reader *tar.Reader, destDir string) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		header, err := reader.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}

		if err != nil {
			return fmt.Errorf("read tar entry: %w", err)
		}

		if err = extractTarEntry(reader, header, destDir); err != nil {
			return err
		}
	}
}

// extractTarEntry restores a single tar entry.
func extractTarEntry(reader *tar.Reader, header *tar.Header, destDir string) error {
	target, err := safeJoin(destDir, header.Name)
	if err != nil {
		return err
	}

	mode := header.FileInfo().Mode()

	switch header.Typeflag {
	case tar.TypeDir:
		return makeDir(target, mode)
	case tar.TypeReg, tar.TypeRegA: //nolint:staticcheck // Old archivers still write TypeRegA.
		return writeFile(target, reader, mode)
	case tar.TypeSymlink:
		return makeSymlink(destDir, target, header.Linkname)
	case tar.TypeLink:
		source, err := safeJoin(destDir, header.Linkname)
		if err != nil {
			return err
		}

		if err = os.Remove(target); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}

		return os.Link(source, target)
	case tar.TypeXGlobalHeader, tar.TypeXHeader:
		return nil
	default:
		return fmt.Errorf("%s (type %q): %w", header.Name, header.Typeflag, errUnsupportedEntry)
	}
}
