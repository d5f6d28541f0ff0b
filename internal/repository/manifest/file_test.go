package manifest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/libsync/internal/domain/library"
)

// TestFileRepository_Missing verifies Load returns an empty manifest for a missing file.
func TestFileRepository_Missing(t *testing.T) {
	t.Parallel()

	repo := NewFileRepository(filepath.Join(t.TempDir(), "history.json"))

	m, err := repo.Load(context.Background())
	require.NoError(t, err)
	require.NotNil(t, m)
	require.Empty(t, m)
}

// TestFileRepository_SaveLoad_Roundtrip ensures Save followed by Load returns the same mapping.
func TestFileRepository_SaveLoad_Roundtrip(t *testing.T) {
	t.Parallel()

	file := filepath.Join(t.TempDir(), "history.json")
	repo := NewFileRepository(file)

	want := library.Manifest{"A": "x", "B": "y"}

	require.NoError(t, repo.Save(context.Background(), want))

	got, err := repo.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, want, got)

	_, err = os.Stat(file)
	require.NoError(t, err)
}

// TestFileRepository_Overwrite ensures Save replaces previous content entirely and leaves no siblings.
func TestFileRepository_Overwrite(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	repo := NewFileRepository(filepath.Join(dir, "history.json"))

	require.NoError(t, repo.Save(context.Background(), library.Manifest{"old": "1", "A": "x"}))
	require.NoError(t, repo.Save(context.Background(), library.Manifest{"A": "z"}))

	got, err := repo.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, library.Manifest{"A": "z"}, got)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

// TestFileRepository_CreatesParentDirectory verifies nested manifest paths work.
func TestFileRepository_CreatesParentDirectory(t *testing.T) {
	t.Parallel()

	repo := NewFileRepository(filepath.Join(t.TempDir(), "state", "history.json"))

	require.NoError(t, repo.Save(context.Background(), library.Manifest{"A": "x"}))

	got, err := repo.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, library.Manifest{"A": "x"}, got)
}

// TestFileRepository_ReadsPlainJSON verifies manifests written by other tools are accepted.
func TestFileRepository_ReadsPlainJSON(t *testing.T) {
	t.Parallel()

	file := filepath.Join(t.TempDir(), "history.json")
	require.NoError(t, os.WriteFile(file, []byte(`{"boost": "1Gmtj", "db": "1rnQ"}`), 0o600))

	got, err := NewFileRepository(file).Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, library.Manifest{"boost": "1Gmtj", "db": "1rnQ"}, got)
}

// TestFileRepository_Corrupt verifies invalid documents are reported as ErrManifestCorrupt.
func TestFileRepository_Corrupt(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"invalid json": `{"boost": `,
		"array":        `["boost"]`,
		"number value": `{"boost": 1}`,
		"nested value": `{"boost": {"id": "x"}}`,
	}

	for name, contents := range cases {
		contents := contents
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			file := filepath.Join(t.TempDir(), "history.json")
			require.NoError(t, os.WriteFile(file, []byte(contents), 0o600))

			_, err := NewFileRepository(file).Load(context.Background())
			require.ErrorIs(t, err, library.ErrManifestCorrupt)
		})
	}
}

// TestFileRepository_EmptyFile verifies a zero-length file is reported as ErrManifestCorrupt.
func TestFileRepository_EmptyFile(t *testing.T) {
	t.Parallel()

	file := filepath.Join(t.TempDir(), "history.json")
	require.NoError(t, os.WriteFile(file, nil, 0o600))

	got, err := NewFileRepository(file).Load(context.Background())
	require.ErrorIs(t, err, library.ErrManifestCorrupt)
	require.Nil(t, got)
}

// TestFileRepository_PlaceholderIsValid verifies the file prepared before the first save loads as an empty manifest.
func TestFileRepository_PlaceholderIsValid(t *testing.T) {
	t.Parallel()

	repo := NewFileRepository(filepath.Join(t.TempDir(), "nested", "history.json"))
	require.NoError(t, repo.ensureTarget())

	got, err := repo.Load(context.Background())
	require.NoError(t, err)
	require.Empty(t, got)
}
