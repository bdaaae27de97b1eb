// Package namespace manages the module hierarchy overlaid on the replica
// directories and enumerates stored keys across the triple-replica view.
//
// Modules are plain directories, mirrored under each of the three replica
// bases. Key enumeration follows a quorum policy: of the three per-base
// result sets, the largest one is returned, so a replica that fell behind
// in writes cannot hide keys from the caller. Module enumeration follows
// the opposite policy and returns the union across bases, because modules
// represent namespace intent and should appear as long as any replica
// still remembers them.
//
// Directory walks use an explicit work queue rather than recursion.
package namespace
