package library

import "errors"

var (
	// ErrManifestCorrupt is returned when the previous manifest exists but cannot be decoded.
	ErrManifestCorrupt = errors.New("manifest is corrupt")
	// ErrDownloadFailed is returned when a remote archive could not be fetched.
	ErrDownloadFailed = errors.New("download failed")
	// ErrExtractFailed is returned when an archive is unreadable or corrupt.
	ErrExtractFailed = errors.New("extract failed")
	// ErrFilesystem is returned when a temporary archive or the manifest cannot be written or removed.
	ErrFilesystem = errors.New("filesystem error")
)
