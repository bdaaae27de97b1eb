// Package replica implements the triple-replica write/read protocol.
//
// Every record exists as three independent files, one under each replica
// base directory, at the path <base>/<module>/.<data_key>.jkl. Writes go to
// all three replicas and succeed as long as at least one file lands; reads
// load all three, decode the survivors and pick the returned value by
// majority vote.
//
// The drift flag returned by Retrieve is the reader's trust signal. Because
// ciphertexts are salted, three bitwise-equal replicas can only stem from
// the same store call; any mismatch means a replica was tampered with, lost
// or left behind by an incomplete write. A drifting read still recovers the
// value when possible, and the caller may re-store it to re-synchronize.
//
// Voting is performed after decryption and integrity verification, so a
// corrupted or forged replica cannot influence the outcome.
package replica
