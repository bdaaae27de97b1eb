// Package platform defines the capability contract between the store core
// and the host operating system, plus two implementations of it.
//
// The core consumes exactly three capabilities: the three replica base
// directories, the current user name and a stable machine identifier. User
// name and machine id feed into key derivation, which is what binds stored
// records to the host they were written on.
//
// Implementations:
//
//   - NewOSProvider: discovers the capabilities from the local OS. Replica
//     bases are hidden directories under the user config dir, the Documents
//     folder and the user cache dir; the machine id is read from the
//     machine-id files common on unix-like systems.
//
//   - NewStaticProvider: returns fixed, caller-supplied values. Used by the
//     test suites to get deterministic key material and temp-dir replica
//     bases, and by host applications that manage storage locations
//     themselves.
package platform
