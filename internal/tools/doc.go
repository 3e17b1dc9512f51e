// Package tools holds the catalog of functions agents may call during a run
// and the bundled builtin tools.
package tools
