// Package installer downloads library archives and keeps them in sync with a catalog.
//
// For every catalog entry whose identifier differs from the one recorded in
// the manifest, it fetches the archive into a temporary directory, extracts
// it into the destination and deletes the download. The manifest is replaced
// with the full catalog only after every entry succeeded; any failure aborts
// the run and leaves the manifest untouched.
package installer
