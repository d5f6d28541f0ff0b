package archive

import (
	"archive/zip"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/libsync/internal/domain/library"
)

// zipEntry describes a file written into a test zip archive.
type zipEntry struct {
	name    string
	content string
}

// writeTestZip creates a zip archive with the provided entries and returns its path.
func writeTestZip(t *testing.T, entries ...zipEntry) string {
	t.Helper()

	var buf bytes.Buffer

	zw := zip.NewWriter(&buf)

	for _, entry := range entries {
		w, err := zw.Create(entry.name)
		require.NoError(t, err)

		if entry.content != "" {
			_, err = w.Write([]byte(entry.content))
			require.NoError(t, err)
		}
	}

	require.NoError(t, zw.Close())

	path := filepath.Join(t.TempDir(), "test.zip")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))

	return path
}

// TestForPlatform verifies the extractor matches the platform archive format.
func TestForPlatform(t *testing.T) {
	t.Parallel()

	require.IsType(t, TarBzip2{}, ForPlatform(library.PlatformLinux))
	require.IsType(t, Zip{}, ForPlatform(library.PlatformWindows))
}

// TestTarBzip2_Extract verifies directories, files and symlinks are restored.
func TestTarBzip2_Extract(t *testing.T) {
	t.Parallel()

	dest := t.TempDir()

	// Stale content is overwritten.
	require.NoError(t, os.MkdirAll(filepath.Join(dest, "include", "boost"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dest, "include", "boost", "version.hpp"), []byte("old"), 0o600))

	require.NoError(t, TarBzip2{}.Extract(context.Background(), filepath.Join("testdata", "libs.tar.bz2"), dest))

	header, err := os.ReadFile(filepath.Join(dest, "include", "boost", "version.hpp"))
	require.NoError(t, err)
	require.Equal(t, "#define BOOST_VERSION 108300\n", string(header))

	lib, err := os.ReadFile(filepath.Join(dest, "lib", "libboost.a"))
	require.NoError(t, err)
	require.Equal(t, "!<arch>\n", string(lib))

	if runtime.GOOS != "windows" {
		link, err := os.Readlink(filepath.Join(dest, "lib", "libboost.so"))
		require.NoError(t, err)
		require.Equal(t, "libboost.a", link)
	}
}

// TestTarBzip2_ExtractTwice verifies re-extraction over an existing tree succeeds.
func TestTarBzip2_ExtractTwice(t *testing.T) {
	t.Parallel()

	dest := t.TempDir()
	archivePath := filepath.Join("testdata", "libs.tar.bz2")

	require.NoError(t, TarBzip2{}.Extract(context.Background(), archivePath, dest))
	require.NoError(t, TarBzip2{}.Extract(context.Background(), archivePath, dest))
}

// TestTarBzip2_Failures verifies corrupt and hostile archives fail with ErrExtractFailed.
func TestTarBzip2_Failures(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"corrupt":        "corrupt.tar.bz2",
		"path traversal": "escape.tar.bz2",
		"symlink escape": "badlink.tar.bz2",
		"missing":        "missing.tar.bz2",
	}

	for name, file := range cases {
		file := file
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			parent := t.TempDir()
			dest := filepath.Join(parent, "dest")
			require.NoError(t, os.Mkdir(dest, 0o755))

			err := TarBzip2{}.Extract(context.Background(), filepath.Join("testdata", file), dest)
			require.ErrorIs(t, err, library.ErrExtractFailed)

			_, statErr := os.Stat(filepath.Join(parent, "escape.txt"))
			require.ErrorIs(t, statErr, os.ErrNotExist)
		})
	}
}

// TestZip_Extract verifies nested files are extracted and existing ones overwritten.
func TestZip_Extract(t *testing.T) {
	t.Parallel()

	archivePath := writeTestZip(t,
		zipEntry{name: "include/"},
		zipEntry{name: "include/opus/opus.h", content: "#pragma once\n"},
		zipEntry{name: "lib/opus.lib", content: "lib"},
	)

	dest := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dest, "lib"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dest, "lib", "opus.lib"), []byte("stale"), 0o600))

	require.NoError(t, Zip{}.Extract(context.Background(), archivePath, dest))

	header, err := os.ReadFile(filepath.Join(dest, "include", "opus", "opus.h"))
	require.NoError(t, err)
	require.Equal(t, "#pragma once\n", string(header))

	lib, err := os.ReadFile(filepath.Join(dest, "lib", "opus.lib"))
	require.NoError(t, err)
	require.Equal(t, "lib", string(lib))
}

// TestZip_Failures verifies corrupt and hostile archives fail with ErrExtractFailed.
func TestZip_Failures(t *testing.T) {
	t.Parallel()

	corrupt := filepath.Join(t.TempDir(), "corrupt.zip")
	require.NoError(t, os.WriteFile(corrupt, []byte("PK not a zip"), 0o600))

	escape := writeTestZip(t, zipEntry{name: "../escape.txt", content: "nope"})

	for _, archivePath := range []string{corrupt, escape} {
		err := Zip{}.Extract(context.Background(), archivePath, t.TempDir())
		require.ErrorIs(t, err, library.ErrExtractFailed)
	}
}

// TestExtract_Canceled verifies a canceled context stops extraction.
func TestExtract_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := TarBzip2{}.Extract(ctx, filepath.Join("testdata", "libs.tar.bz2"), t.TempDir())
	require.ErrorIs(t, err, context.Canceled)

	err = Zip{}.Extract(ctx, writeTestZip(t, zipEntry{name: "a.txt", content: "a"}), t.TempDir())
	require.ErrorIs(t, err, context.Canceled)
}

// TestSafeJoin covers the path checks directly.
func TestSafeJoin(t *testing.T) {
	t.Parallel()

	dest := t.TempDir()

	target, err := safeJoin(dest, "include/boost/../boost/config.hpp")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dest, "include", "boost", "config.hpp"), target)

	for _, name := range []string{"../x", "/etc/passwd", `..\x`, "a/../../x"} {
		_, err = safeJoin(dest, name)
		require.ErrorIs(t, err, errUnsafePath, name)
	}
}
