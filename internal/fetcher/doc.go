// Package fetcher downloads library archives from the remote file host.
//
// The Fetcher interface addresses archives by an opaque identifier. The
// DriveFetcher implementation talks to the Google Drive download endpoint
// and follows the confirmation page Drive serves for large files.
package fetcher
