// Package domain contains the shared value types of the fin state container:
// actions, lifecycle events, and the sentinel errors understood by the
// dispatch pipeline. It has no behavior of its own and no dependencies on
// the processor, so adapters and applications can share these types freely.
package domain
