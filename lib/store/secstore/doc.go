// Package secstore implements the store.IStore interface on top of the
// envelope codec, the replica manager and the namespace manager.
//
// Every public operation is serialized behind a single coarse mutex that
// the caller owns and the store merely borrows. This keeps observable state
// transitions totally ordered: between a completed Store and a subsequent
// Retrieve under the same mutex, the read sees the stored value or a
// strictly later one. The store performs no background work and offers no
// cancellation; operations run to completion.
//
// Multi-process safety is explicitly not provided. The caller must not let
// another process mutate the replica directories concurrently.
package secstore
