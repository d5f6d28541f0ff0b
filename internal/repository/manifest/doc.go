// Package manifest implements persistence for the library Manifest.
//
// The FileRepository stores and loads the manifest as a flat JSON object on
// disk and exposes a Repository interface that the installer depends on.
// Writes replace the file through a sibling temporary file and a rename, so an
// interrupted write never leaves a truncated manifest behind.
package manifest
