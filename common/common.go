// Package common holds identifiers and setup helpers shared by every binary.
package common

// PackageName is used as the metrics namespace and default service tag.
const PackageName = "chainregistry"

// Version is set at build time via -ldflags.
var Version = "dev"
