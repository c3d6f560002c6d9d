// Package ports declares the boundary interfaces of the fin state container.
// Adapters under pkg/adapters implement the driven ports (SnapshotStore,
// DistributedLocker); the processor implements the driving port (Dispatcher).
package ports
