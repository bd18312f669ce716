// Package driving provides interfaces for user-facing adapters (primary/inbound ports).
// CLI, TUI and watcher adapters drive the core through these interfaces.
package driving
