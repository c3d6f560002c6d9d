package domain

import "errors"

// ErrRejected is the sentinel returned by a reducer or middleware to veto
// an action. It aborts the rest of the pipeline without committing and is
// reported through the processor's rejected handler, never through the
// error return of Dispatch.
var ErrRejected = errors.New("action rejected")

// ErrNoReducer is returned by Dispatch when no reducer has been configured.
var ErrNoReducer = errors.New("no reducer configured")

// ErrReentrantDispatch is returned by Dispatch when it is called from within
// a stage of an already running pipeline on the same processor.
var ErrReentrantDispatch = errors.New("reentrant dispatch")

// ErrSnapshotNotFound is returned when a snapshot ID cannot be found in a store.
var ErrSnapshotNotFound = errors.New("snapshot not found")
