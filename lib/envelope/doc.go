// Package envelope implements the per-record cryptographic envelope and the
// key derivation that binds records to the local machine.
//
// Every stored value is wrapped in the plaintext structure
//
//	type_tag(3) | value_text | base64(SHA512(type_tag|value_text))(88) | salt(32) | NUL(1)
//
// which is then encrypted as a whole with AES-256-CBC and PKCS#7 padding.
// Key and IV are derived with PBKDF2-HMAC-SHA-256 over the concatenation of
// user name, machine id and data key, with an empty salt and 1000
// iterations, so that the same identity always derives the same key
// material. The 32 random salt bytes at the tail make repeated encodes of
// identical values produce distinct ciphertexts; bitwise-equal replicas
// therefore share provenance, not merely value, which is what the replica
// voting relies on.
//
// Known limitations of the format, kept for on-disk compatibility:
//
//   - The integrity field is an unkeyed SHA-512 over the plaintext prefix.
//     It detects corruption and wrong-key decryption but does not
//     authenticate: an attacker able to forge plaintext can forge its hash.
//   - PBKDF2 runs 1000 iterations with a zero-byte salt, far below current
//     recommendations. A format revision would need a per-install salt and
//     a higher work factor.
//   - The IV is derived from the same KDF output as the key, so encryption
//     is deterministic per (identity, data key). This trades CBC semantic
//     security for replica comparability.
//   - Encode appends one NUL past the salt and Decode strips salt+1 bytes;
//     existing record files depend on this trailer.
//
// The derived-key cache memoizes PBKDF2 output per data key, keeping the
// KDF off the hot path of repeated operations on the same key.
package envelope
