// Package driven provides interfaces for infrastructure adapters (secondary/outbound ports).
// The core services depend only on these interfaces; adapters implement them.
package driven
