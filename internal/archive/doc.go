// Package archive extracts library archives into a destination directory.
//
// TarBzip2 handles the Linux archives and Zip the Windows ones. Both keep the
// internal directory structure, overwrite existing files and refuse entries
// that would land outside the destination.
package archive
