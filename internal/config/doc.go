// Package config defines the format-agnostic configuration model of a mart
// build and the Loader interface that format-specific packages, such as
// hcl_adapter, implement.
package config
