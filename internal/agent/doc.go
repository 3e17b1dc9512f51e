// Package agent defines the Agent value handed to the runner and the Factory
// contract the registry stores.
package agent
