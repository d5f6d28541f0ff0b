// Package library contains core domain types for library provisioning.
//
// It defines the ordered Catalog of libraries to install, the Manifest of
// identifiers installed by the previous run, the target Platform and the
// error taxonomy shared by every layer of the installer.
package library
