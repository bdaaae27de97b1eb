package envelope

import (
	"crypto/sha256"

	"github.com/puzpuzpuz/xsync/v3"
	"golang.org/x/crypto/pbkdf2"
)

// --------------------------------------------------------------------------
// Key Derivation
// --------------------------------------------------------------------------

// KDF parameters. The empty salt and the fixed iteration count are part of
// the on-disk format: the same (user, machine, data key) triple must always
// derive the same key and IV, otherwise replicas written at different times
// could never be compared.
const (
	kdfIterations = 1000
	kdfOutputLen  = 64

	keyLen = 32 // AES-256 key
	ivLen  = 16 // CBC IV
)

// keyMaterial is the derived symmetric key and IV for one data key.
type keyMaterial struct {
	key [keyLen]byte
	iv  [ivLen]byte
}

// keysFor returns the derived key material for dataKey, deriving and caching
// it on first use. PBKDF2 at 1000 iterations sits on every store and
// retrieve path; since derivation is deterministic per data key the result
// can be memoized.
//
// Thread-safety: This method is thread-safe, the cache is a concurrent map.
func (c *Codec) keysFor(dataKey string) keyMaterial {
	if m, ok := c.derived.Load(dataKey); ok {
		return m
	}

	password := []byte(c.userName + c.machineID + dataKey)
	raw := pbkdf2.Key(password, nil, kdfIterations, kdfOutputLen, sha256.New)

	var m keyMaterial
	copy(m.key[:], raw[:keyLen])
	copy(m.iv[:], raw[keyLen:keyLen+ivLen])

	c.derived.Store(dataKey, m)
	return m
}

// newKeyCache creates the concurrent derived-key cache.
func newKeyCache() *xsync.MapOf[string, keyMaterial] {
	return xsync.NewMapOf[string, keyMaterial]()
}
