// Package discover turns an agent directory into a set of loadable units.
//
// ResolveModulePath computes the dotted import path and the search root for
// a directory (or the parent of a file). A Discoverer then walks the search
// root and hands every agent definition file to a Loader, which is expected
// to register the agents it declares. Discovery itself knows nothing about
// the registry.
//
// One broken unit never stops its siblings: load failures are logged and
// collected in the Report, and the walk moves on.
package discover
