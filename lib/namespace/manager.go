package namespace

import (
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bitmark-inc/logger"
	"github.com/jklemens/sKV/lib/replica"
	"github.com/jklemens/sKV/lib/store"
)

// --------------------------------------------------------------------------
// Manager
// --------------------------------------------------------------------------

// Manager creates, lists and removes modules (directories) and enumerates
// stored keys under the triple-replica view.
//
// Thread-safety: Manager is stateless between calls; callers serialize
// operations through the facade mutex.
type Manager struct {
	bases [3]string
	log   *logger.L
}

// NewManager creates a namespace manager over the three base directories.
func NewManager(bases [3]string) *Manager {
	return &Manager{
		bases: bases,
		log:   logger.New("namespace"),
	}
}

// --------------------------------------------------------------------------
// Module Mutation
// --------------------------------------------------------------------------

// CreateModule creates parent/name under every base, including intermediate
// directories. A parent of "" or "*" means the base itself. The operation
// is idempotent and succeeds if at least one base accepted the mutation.
func (m *Manager) CreateModule(parent, name string) error {
	if name == "" {
		return store.NewError(store.RetCInvalidOperation, "empty module name")
	}

	// "" and "*" both mean the base itself; "*" must not survive as a
	// literal path component
	path := name
	if parent != "" && parent != "*" {
		path = parent + "/" + name
	}
	full, err := replica.NormalizeModule(path)
	if err != nil {
		return err
	}
	if full == "" {
		return store.NewError(store.RetCInvalidOperation, "module path resolves to the replica base")
	}

	failed := 0
	for i, base := range m.bases {
		if err := os.MkdirAll(filepath.Join(base, filepath.FromSlash(full)), 0700); err != nil {
			m.log.Warnf("create module %q on replica %d failed: %s", full, i, err)
			failed++
		}
	}

	if failed == 3 {
		return store.NewError(store.RetCIOFailure, "create module failed on all three replicas: "+full)
	}
	return nil
}

// RemoveModule recursively deletes the module directory tree under every
// base.
func (m *Manager) RemoveModule(modulePath string) error {
	full, err := replica.NormalizeModule(modulePath)
	if err != nil {
		return err
	}
	if full == "" {
		return store.NewError(store.RetCInvalidOperation, "refusing to remove the replica base")
	}

	failed := 0
	for i, base := range m.bases {
		if err := os.RemoveAll(filepath.Join(base, filepath.FromSlash(full))); err != nil {
			m.log.Warnf("remove module %q on replica %d failed: %s", full, i, err)
			failed++
		}
	}

	if failed == 3 {
		return store.NewError(store.RetCIOFailure, "remove module failed on all three replicas: "+full)
	}
	return nil
}

// DeleteAllData removes every record file and every module directory on
// every base, leaving the bases themselves in place.
func (m *Manager) DeleteAllData() error {
	failed := 0
	for i, base := range m.bases {
		entries, err := os.ReadDir(base)
		if err != nil {
			m.log.Warnf("delete all on replica %d failed: %s", i, err)
			failed++
			continue
		}
		for _, entry := range entries {
			if err := os.RemoveAll(filepath.Join(base, entry.Name())); err != nil {
				m.log.Warnf("delete all on replica %d failed: %s", i, err)
			}
		}
	}

	if failed == 3 {
		return store.NewError(store.RetCIOFailure, "delete all failed on all three replicas")
	}
	return nil
}

// DeleteAllDataFromModule removes every record file under the module
// subtree on every base. The directory tree stays in place, so the module
// remains listed afterwards.
func (m *Manager) DeleteAllDataFromModule(modulePath string) error {
	full, err := replica.NormalizeModule(modulePath)
	if err != nil {
		return err
	}

	for i, base := range m.bases {
		root := filepath.Join(base, filepath.FromSlash(full))
		for _, ref := range walkRecords(root) {
			target := filepath.Join(root, filepath.FromSlash(ref.Module), replica.RecordFileName(ref.Key))
			if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
				m.log.Warnf("delete of %q on replica %d failed: %s", ref.Key, i, err)
			}
		}
	}
	return nil
}

// --------------------------------------------------------------------------
// Key Enumeration
// --------------------------------------------------------------------------

// ListAllKeys enumerates every stored record. Of the three per-base result
// sets the one with the largest count wins; on equal counts the
// lower-indexed replica is preferred. A replica that fell behind in writes
// must not hide keys from the caller.
func (m *Manager) ListAllKeys() ([]store.KeyRef, error) {
	return m.listKeys(func(string) bool { return true }), nil
}

// ListKeysInModule enumerates records whose module path contains module as
// a slash-bounded component sequence, i.e. records in the module itself and
// in all of its descendants.
func (m *Manager) ListKeysInModule(module string) ([]store.KeyRef, error) {
	full, err := replica.NormalizeModule(module)
	if err != nil {
		return nil, err
	}
	return m.listKeys(func(rel string) bool {
		return containsComponent(rel, full)
	}), nil
}

// ListDirectKeysInModule enumerates records stored directly inside module,
// without descending further.
func (m *Manager) ListDirectKeysInModule(module string) ([]store.KeyRef, error) {
	full, err := replica.NormalizeModule(module)
	if err != nil {
		return nil, err
	}
	return m.listKeys(func(rel string) bool {
		return endsWithComponent(rel, full)
	}), nil
}

// Contains reports whether dataKey appears anywhere in the key listing.
func (m *Manager) Contains(dataKey string) (bool, error) {
	keys, err := m.ListAllKeys()
	if err != nil {
		return false, err
	}
	for _, ref := range keys {
		if ref.Key == dataKey {
			return true, nil
		}
	}
	return false, nil
}

// listKeys walks every base, filters the per-base result sets and returns
// the largest one.
func (m *Manager) listKeys(match func(rel string) bool) []store.KeyRef {
	best := []store.KeyRef{}
	for i := len(m.bases) - 1; i >= 0; i-- {
		refs := []store.KeyRef{}
		for _, ref := range walkRecords(m.bases[i]) {
			if match(ref.Module) {
				refs = append(refs, ref)
			}
		}
		// iterating high to low index makes ties prefer the lower index
		if len(refs) >= len(best) {
			best = refs
		}
	}

	sort.Slice(best, func(i, j int) bool {
		if best[i].Module != best[j].Module {
			return best[i].Module < best[j].Module
		}
		return best[i].Key < best[j].Key
	})
	return best
}

// --------------------------------------------------------------------------
// Module Enumeration
// --------------------------------------------------------------------------

// ListAllModules returns every module directory present on any base, sorted
// and deduplicated. Modules represent namespace intent and should appear as
// long as any replica still remembers them, hence the union (the opposite
// policy from key listing).
func (m *Manager) ListAllModules() ([]string, error) {
	return m.listModules(func(string) bool { return true }), nil
}

// ListSubmodules returns every module whose path contains prefix as a
// substring. Note the filter is a plain substring match, not a path-prefix
// match: "foo" also matches "barfoo".
func (m *Manager) ListSubmodules(prefix string) ([]string, error) {
	return m.listModules(func(rel string) bool {
		return strings.Contains(rel, prefix)
	}), nil
}

func (m *Manager) listModules(match func(rel string) bool) []string {
	seen := make(map[string]struct{})
	for _, base := range m.bases {
		for _, rel := range walkModules(base) {
			if match(rel) {
				seen[rel] = struct{}{}
			}
		}
	}

	modules := make([]string, 0, len(seen))
	for rel := range seen {
		modules = append(modules, rel)
	}
	sort.Strings(modules)
	return modules
}

// --------------------------------------------------------------------------
// Directory Walk
// --------------------------------------------------------------------------

// walkRecords enumerates all record files under root. The walk uses an
// explicit work queue instead of recursion to bound stack use on deep
// module trees. Unreadable directories are skipped.
func walkRecords(root string) []store.KeyRef {
	refs := []store.KeyRef{}
	queue := []string{""}

	for len(queue) > 0 {
		rel := queue[0]
		queue = queue[1:]

		entries, err := os.ReadDir(filepath.Join(root, filepath.FromSlash(rel)))
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() {
				queue = append(queue, path.Join(rel, entry.Name()))
				continue
			}
			if key, ok := replica.RecordKeyFromName(entry.Name()); ok {
				refs = append(refs, store.KeyRef{Module: rel, Key: key})
			}
		}
	}
	return refs
}

// walkModules enumerates all directories under root as slash-separated
// relative paths.
func walkModules(root string) []string {
	modules := []string{}
	queue := []string{""}

	for len(queue) > 0 {
		rel := queue[0]
		queue = queue[1:]

		entries, err := os.ReadDir(filepath.Join(root, filepath.FromSlash(rel)))
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}
			child := path.Join(rel, entry.Name())
			modules = append(modules, child)
			queue = append(queue, child)
		}
	}
	return modules
}

// --------------------------------------------------------------------------
// Path Matching
// --------------------------------------------------------------------------

// containsComponent reports whether rel contains module as a slash-bounded
// component sequence. An empty module matches everything.
func containsComponent(rel, module string) bool {
	if module == "" {
		return true
	}
	return strings.Contains("/"+rel+"/", "/"+module+"/")
}

// endsWithComponent reports whether rel ends with module as a slash-bounded
// component sequence. An empty module matches only the root.
func endsWithComponent(rel, module string) bool {
	if module == "" {
		return rel == ""
	}
	return rel == module || strings.HasSuffix(rel, "/"+module)
}
