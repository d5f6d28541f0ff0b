package manifest

import (
	"bytes"
	"context"
	"crypto"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	goupdate "github.com/doitdistributed/go-update"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/oshokin/libsync/internal/domain/library"

	// Ensure SHA256 available for checksum calculation.
	_ "crypto/sha256"
)

const (
	// DefaultFileMode is the permission of the manifest file.
	DefaultFileMode os.FileMode = 0o644

	// DefaultDirMode is the permission of directories created for the manifest.
	DefaultDirMode os.FileMode = 0o755

	// checksumFunction verifies the bytes written by go-update.
	checksumFunction = crypto.SHA256
)

// emptyDocument is the placeholder written before the first save.
var emptyDocument = []byte("{}\n")

// errNotString is returned when a manifest value is not a JSON string.
var errNotString = errors.New("identifier is not a string")

// Repository defines persistence operations for the manifest.
type Repository interface {
	Load(ctx context.Context) (library.Manifest, error)
	Save(ctx context.Context, manifest library.Manifest) error
}

// FileRepository persists the manifest to a JSON file on disk.
// JSON is produced and consumed via protobuf JSON (protojson) over a
// structpb.Struct, which maps one-to-one onto a top-level JSON object.
type FileRepository struct {
	// path is the filesystem location of the JSON manifest.
	path string
	// mu protects concurrent access to the manifest file.
	mu sync.Mutex
}

// NewFileRepository creates a repository that reads/writes JSON at the provided path.
func NewFileRepository(path string) *FileRepository {
	return &FileRepository{
		path: filepath.Clean(path),
	}
}

// Path returns the location of the manifest file.
func (r *FileRepository) Path() string {
	return r.path
}

// Load reads the manifest from disk.
// A missing file yields an empty manifest; any other content must be a JSON
// object of strings.
func (r *FileRepository) Load(_ context.Context) (library.Manifest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	contents, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return make(library.Manifest), nil
		}

		return nil, fmt.Errorf("read manifest file %s: %w: %w", r.path, library.ErrManifestCorrupt, err)
	}

	manifest, err := decode(contents)
	if err != nil {
		return nil, fmt.Errorf("decode manifest file %s: %w: %w", r.path, library.ErrManifestCorrupt, err)
	}

	return manifest, nil
}

// Save replaces the manifest on disk with the provided mapping.
func (r *FileRepository) Save(_ context.Context, manifest library.Manifest) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := encode(manifest)
	if err != nil {
		return fmt.Errorf("encode manifest: %w: %w", library.ErrFilesystem, err)
	}

	if err = r.ensureTarget(); err != nil {
		return fmt.Errorf("prepare manifest file %s: %w: %w", r.path, library.ErrFilesystem, err)
	}

	hasher := checksumFunction.New()
	_, _ = hasher.Write(data)

	options := goupdate.Options{
		TargetPath: r.path,
		TargetMode: DefaultFileMode,
		Checksum:   hasher.Sum(nil),
		Hash:       checksumFunction,
	}

	if err = goupdate.Apply(bytes.NewReader(data), options); err != nil {
		return fmt.Errorf("write manifest file %s: %w: %w", r.path, library.ErrFilesystem, err)
	}

	return nil
}

// ensureTarget creates the parent directory and an empty JSON object when the
// manifest is missing, since go-update swaps an existing file.
func (r *FileRepository) ensureTarget() error {
	if err := os.MkdirAll(filepath.Dir(r.path), DefaultDirMode); err != nil {
		return err
	}

	if _, err := os.Stat(r.path); err == nil || !errors.Is(err, os.ErrNotExist) {
		return err
	}

	return os.WriteFile(r.path, emptyDocument, DefaultFileMode)
}

// decode converts a JSON object of strings into a Manifest.
func decode(contents []byte) (library.Manifest, error) {
	var document structpb.Struct
	if err := protojson.Unmarshal(contents, &document); err != nil {
		return nil, err
	}

	manifest := make(library.Manifest, len(document.GetFields()))

	for name, value := range document.GetFields() {
		id, ok := value.GetKind().(*structpb.Value_StringValue)
		if !ok {
			return nil, fmt.Errorf("library %q: %w", name, errNotString)
		}

		manifest[name] = id.StringValue
	}

	return manifest, nil
}

// encode converts a Manifest into an indented JSON object.
func encode(manifest library.Manifest) ([]byte, error) {
	document := &structpb.Struct{
		Fields: make(map[string]*structpb.Value, len(manifest)),
	}

	for name, id := range manifest {
		document.Fields[name] = structpb.NewStringValue(id)
	}

	marshalOptions := protojson.MarshalOptions{
		Multiline: true,
		Indent:    "  ",
	}

	return marshalOptions.Marshal(document)
}
