// Package manifest parses and validates agent definition files and loads
// them into an agent registry.
//
// A definition file is YAML, TOML or JSON. It lists one or more agents
// and may pin the thinky versions it works with through a semver
// constraint. Files are checked against an embedded JSON Schema before
// anything is registered.
package manifest
