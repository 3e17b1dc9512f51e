// Package registry maps agent ids to the factories that build them. Ids are
// unique: a second registration under a taken id fails and leaves the first
// in place. Lookups construct a fresh agent on every call, and ids are listed
// in registration order. A Registry is populated during discovery at startup
// and is safe for concurrent reads afterwards.
package registry
