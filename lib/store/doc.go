// Package store provides the public interface for a machine-bound secure
// key-value store that persists small typed values in an encrypted,
// triple-replicated on-disk format. It defines the value model, the store
// interface and a unified error reporting scheme shared by all
// implementations.
//
// The package focuses on:
//   - A unified interface (IStore) for typed store/retrieve operations,
//     namespace management and key enumeration
//   - A tagged value union (Value) covering the five storable types:
//     byte-string, int64, float32, float64 and bool
//   - A structured error system (Error/RetCode) so applications can react
//     to specific conditions (not found, type mismatch, I/O failure)
//     instead of parsing error strings
//
// Key Components:
//
//   - IStore Interface: The core abstraction for interacting with the
//     store. Read operations additionally report a drift flag that tells
//     the caller whether the value came from three healthy, bitwise-equal
//     replicas or was recovered from a degraded replica set.
//
//   - Value / TypeTag: Every stored record carries a three-character type
//     tag. Value is the tagged union over the supported types; its
//     canonical textual form is what actually gets encrypted and written.
//
//   - Error System: Typed error codes with descriptive messages. CodeOf
//     unwraps arbitrarily nested causes down to the underlying RetCode.
//
// Implementations:
//
//	The package includes one implementation of the IStore interface:
//
//	- Secure Store (secstore): Encrypts every value with a key derived from
//	  the local user and machine identity and writes it to three
//	  independent replica directories, recovering from loss or corruption
//	  of any single replica by majority voting.
//	  Available in the "github.com/jklemens/sKV/lib/store/secstore" package.
package store
