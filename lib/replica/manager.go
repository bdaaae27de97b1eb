package replica

import (
	"bytes"
	"os"

	"github.com/VictoriaMetrics/metrics"
	"github.com/bitmark-inc/logger"
	"github.com/jklemens/sKV/lib/envelope"
	"github.com/jklemens/sKV/lib/store"
)

// --------------------------------------------------------------------------
// Load Status
// --------------------------------------------------------------------------

// LoadStatus classifies how many replicas of a record were readable.
type LoadStatus int

const (
	LoadAllMissing LoadStatus = iota // no replica alive
	LoadPartial                      // exactly one replica alive
	LoadQuorum                       // two or three replicas alive
)

// --------------------------------------------------------------------------
// Manager
// --------------------------------------------------------------------------

// Manager owns the three replica base directories and performs the
// synchronized write-to-all / read-from-all protocol with voting-based
// recovery.
//
// Thread-safety: Manager itself is stateless between calls; callers
// serialize operations through the facade mutex.
type Manager struct {
	bases          [3]string
	codec          *envelope.Codec
	log            *logger.L
	metricsEnabled bool
}

// NewManager creates a replica manager over the three base directories.
func NewManager(bases [3]string, codec *envelope.Codec, metricsEnabled bool) *Manager {
	return &Manager{
		bases:          bases,
		codec:          codec,
		log:            logger.New("replica"),
		metricsEnabled: metricsEnabled,
	}
}

// Bases returns the three replica base directories.
func (m *Manager) Bases() [3]string {
	return m.bases
}

// paths maps (module, dataKey) to the three replica file paths.
func (m *Manager) paths(module, dataKey string) ([3]string, error) {
	var paths [3]string

	normalized, err := NormalizeModule(module)
	if err != nil {
		return paths, err
	}
	if err := ValidateDataKey(dataKey); err != nil {
		return paths, err
	}

	for i, base := range m.bases {
		paths[i] = recordPath(base, normalized, dataKey)
	}
	return paths, nil
}

// --------------------------------------------------------------------------
// Write Path
// --------------------------------------------------------------------------

// Write stores the ciphertext on all three replicas. A failing replica is
// logged and skipped; the call succeeds if at least one replica was
// written. The module directory must already exist on a replica for that
// replica's write to succeed.
func (m *Manager) Write(module, dataKey string, ciphertext []byte) error {
	paths, err := m.paths(module, dataKey)
	if err != nil {
		return err
	}

	written := 0
	for i, path := range paths {
		if err := writeRecord(path, ciphertext); err != nil {
			m.log.Warnf("write of %q to replica %d failed: %s", dataKey, i, err)
			if m.metricsEnabled {
				metrics.GetOrCreateCounter("skv_replica_write_errors_total").Inc()
			}
			continue
		}
		written++
	}

	if written == 0 {
		return store.NewError(store.RetCIOFailure, "write failed on all three replicas: "+dataKey)
	}
	return nil
}

// writeRecord replaces the file at path with the given bytes. The previous
// file is removed first; some filesystems refuse to truncate hidden files
// in place.
func writeRecord(path string, data []byte) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// --------------------------------------------------------------------------
// Read Path
// --------------------------------------------------------------------------

// Read loads the raw ciphertext of all three replicas. Missing and empty
// files yield a nil slot. The returned status classifies the number of
// live replicas.
func (m *Manager) Read(module, dataKey string) ([3][]byte, LoadStatus, error) {
	var raw [3][]byte

	paths, err := m.paths(module, dataKey)
	if err != nil {
		return raw, LoadAllMissing, err
	}

	missing := 0
	for i, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil || len(data) == 0 {
			missing++
			continue
		}
		raw[i] = data
	}

	switch missing {
	case 3:
		return raw, LoadAllMissing, nil
	case 2:
		return raw, LoadPartial, nil
	default:
		return raw, LoadQuorum, nil
	}
}

// Retrieve reads all replicas of a record, decodes the survivors and picks
// the returned value by majority vote. The drift result is false only when
// all three replicas were present and bitwise equal; since ciphertexts are
// salted, bitwise equality implies the replicas stem from the same store
// call and were never touched.
//
// Voting happens after decryption and integrity check, so corrupted or
// forged ciphertext cannot cast a vote.
func (m *Manager) Retrieve(module, dataKey string, expected store.TypeTag) (string, bool, error) {
	raw, status, err := m.Read(module, dataKey)
	if err != nil {
		return "", false, err
	}
	if status == LoadAllMissing {
		return "", false, store.NewError(store.RetCNotFound, "no replica found for key: "+dataKey)
	}

	drift := !strongAgreement(raw)
	if drift {
		m.log.Infof("replica drift detected for key %q", dataKey)
	}

	// decode every live replica; failures are absorbed per replica
	type candidate struct {
		tag  store.TypeTag
		text string
	}
	candidates := make([]candidate, 0, 3)
	for _, ciphertext := range raw {
		if ciphertext == nil {
			continue
		}
		tag, text, err := m.codec.Decode(ciphertext, dataKey)
		if err != nil {
			continue
		}
		candidates = append(candidates, candidate{tag: tag, text: text})
	}

	if len(candidates) == 0 {
		return "", false, store.NewError(store.RetCNotFound, "no replica yielded a valid record for key: "+dataKey)
	}

	matching := candidates[:0:0]
	for _, c := range candidates {
		if c.tag == expected {
			matching = append(matching, c)
		}
	}
	if len(matching) == 0 {
		return "", false, store.NewError(store.RetCTypeMismatch,
			"record for key "+dataKey+" has type "+string(candidates[0].tag)+", expected "+string(expected))
	}

	// majority vote; with no agreement the first survivor wins
	for i := 0; i < len(matching); i++ {
		for j := i + 1; j < len(matching); j++ {
			if matching[i].text == matching[j].text {
				return matching[i].text, drift, nil
			}
		}
	}
	return matching[0].text, drift, nil
}

// strongAgreement reports whether all three replicas are present and
// bitwise equal.
func strongAgreement(raw [3][]byte) bool {
	pairs := 0
	for i := 0; i < 3; i++ {
		for j := i + 1; j < 3; j++ {
			if raw[i] != nil && bytes.Equal(raw[i], raw[j]) {
				pairs++
			}
		}
	}
	return pairs >= 2
}

// --------------------------------------------------------------------------
// Delete Path
// --------------------------------------------------------------------------

// Delete removes the record from every replica, best-effort. Missing files
// are not an error; the call fails only if the removal failed on all three
// replicas.
func (m *Manager) Delete(module, dataKey string) error {
	paths, err := m.paths(module, dataKey)
	if err != nil {
		return err
	}

	failed := 0
	for i, path := range paths {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			m.log.Warnf("delete of %q on replica %d failed: %s", dataKey, i, err)
			failed++
		}
	}

	if failed == 3 {
		return store.NewError(store.RetCIOFailure, "delete failed on all three replicas: "+dataKey)
	}
	return nil
}
