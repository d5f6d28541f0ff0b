// Package config defines the settings used by libsync and provides helpers to
// load, validate and save them in YAML format.
//
// The Config type holds the target platform, an optional catalog override,
// the manifest location, the destination directory and download parameters.
package config
