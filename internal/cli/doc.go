// Package cli defines the Cobra command tree for the thinky CLI. Each file
// registers one top-level command with the root command. Commands delegate
// to the internal packages and only handle flags, output formatting and
// the wiring between discovery, the runner and the run store.
package cli
