package library

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// errEmptyCatalog is returned when a catalog has no entries.
	errEmptyCatalog = errors.New("catalog is empty")
	// errEmptyName is returned when an entry has no library name.
	errEmptyName = errors.New("library name must be provided")
	// errEmptyID is returned when an entry has no remote identifier.
	errEmptyID = errors.New("library identifier must be provided")
	// errDuplicateName is returned when two entries share a library name.
	errDuplicateName = errors.New("duplicate library name")
	// errInvalidName is returned when a name cannot be used as a file name.
	errInvalidName = errors.New("invalid library name")
)

// Entry is a single library of the catalog.
type Entry struct {
	// Name is the library name, also used to name the temporary archive.
	Name string
	// ID is the opaque remote identifier of the archive version.
	ID string
}

// Catalog is the ordered list of libraries to install.
// Entries are processed in slice order.
type Catalog []Entry

// Validate checks that the catalog is non-empty and every entry is usable.
func (c Catalog) Validate() error {
	if len(c) == 0 {
		return errEmptyCatalog
	}

	seen := make(map[string]struct{}, len(c))

	for i, entry := range c {
		if entry.Name == "" {
			return fmt.Errorf("entry %d: %w", i, errEmptyName)
		}

		if strings.ContainsAny(entry.Name, `/\`) || entry.Name == "." || entry.Name == ".." {
			return fmt.Errorf("entry %q: %w", entry.Name, errInvalidName)
		}

		if entry.ID == "" {
			return fmt.Errorf("entry %q: %w", entry.Name, errEmptyID)
		}

		if _, found := seen[entry.Name]; found {
			return fmt.Errorf("entry %q: %w", entry.Name, errDuplicateName)
		}

		seen[entry.Name] = struct{}{}
	}

	return nil
}

// Names returns library names in catalog order.
func (c Catalog) Names() []string {
	names := make([]string, 0, len(c))
	for _, entry := range c {
		names = append(names, entry.Name)
	}

	return names
}

// Manifest returns the mapping that a successful run records for this catalog.
func (c Catalog) Manifest() Manifest {
	result := make(Manifest, len(c))
	for _, entry := range c {
		result[entry.Name] = entry.ID
	}

	return result
}

// Manifest maps library names to the identifier that was last installed.
type Manifest map[string]string

// NeedsInstall reports whether the entry is absent from the manifest or was
// installed with another identifier.
func (m Manifest) NeedsInstall(entry Entry) bool {
	installedID, found := m[entry.Name]

	return !found || installedID != entry.ID
}
