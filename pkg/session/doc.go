// Package session provides serialized, optionally persistent access to
// named state domains. It supplies the mutual exclusion the processor core
// assumes from its caller, backed by per-ID reference-counted locks and an
// optional distributed locker for multi-replica deployments.
package session
