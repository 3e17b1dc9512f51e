// Package scaffold generates new agent projects from embedded templates. It
// powers the "thinky init" command, producing a .env wired to the chosen
// provider and an agents/ directory with a starter definition.
package scaffold
