// Package domain holds the core value types, the filesystem and logging
// capability ports, and the typed error taxonomy shared by the planner,
// executor, and orchestrator. Nothing in this package performs I/O;
// internal/adapters supplies the concrete FS and Logger implementations.
package domain
