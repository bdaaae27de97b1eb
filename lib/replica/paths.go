package replica

import (
	"path/filepath"
	"strings"

	"github.com/jklemens/sKV/lib/store"
)

// --------------------------------------------------------------------------
// Record Naming
// --------------------------------------------------------------------------

const (
	// Record files are named ".<data_key>.jkl" inside their module
	// directory. The leading dot hides them on unix-like systems.
	recordPrefix = "."
	recordExt    = ".jkl"

	// maxKeyLen keeps the resulting filename below common platform limits.
	maxKeyLen = 250 - len(recordPrefix) - len(recordExt)
)

// RecordFileName returns the on-disk filename for a data key.
func RecordFileName(dataKey string) string {
	return recordPrefix + dataKey + recordExt
}

// RecordKeyFromName reverses RecordFileName. It reports false for filenames
// that are not record files, including the ".DS_Store" droppings macOS
// leaves behind.
func RecordKeyFromName(name string) (string, bool) {
	if name == ".DS_Store" {
		return "", false
	}
	if !strings.HasPrefix(name, recordPrefix) || !strings.HasSuffix(name, recordExt) {
		return "", false
	}
	if len(name) <= len(recordPrefix)+len(recordExt) {
		return "", false
	}
	key := name[len(recordPrefix) : len(name)-len(recordExt)]
	if key == "" {
		return "", false
	}
	return key, true
}

// --------------------------------------------------------------------------
// Input Validation
// --------------------------------------------------------------------------

// ValidateDataKey rejects keys that cannot become a safe filename
// component: empty keys, keys with path separators and keys with a leading
// dot (which would collide with the record prefix).
func ValidateDataKey(dataKey string) error {
	switch {
	case dataKey == "":
		return store.NewError(store.RetCInvalidOperation, "empty data key")
	case strings.ContainsAny(dataKey, `/\`):
		return store.NewError(store.RetCInvalidOperation, "data key contains a path separator: "+dataKey)
	case strings.HasPrefix(dataKey, "."):
		return store.NewError(store.RetCInvalidOperation, "data key starts with a dot: "+dataKey)
	case len(dataKey) > maxKeyLen:
		return store.NewError(store.RetCInvalidOperation, "data key exceeds filename limit")
	}
	return nil
}

// NormalizeModule canonicalizes a module path to the form "a/b/c" with no
// leading or trailing slash. "" and "*" both mean the replica base itself.
// Components that would escape the base ("..", ".") are rejected, as are
// backslashes.
func NormalizeModule(module string) (string, error) {
	if module == "" || module == "*" {
		return "", nil
	}
	if strings.Contains(module, `\`) {
		return "", store.NewError(store.RetCInvalidOperation, "module path contains a backslash: "+module)
	}

	parts := make([]string, 0, 4)
	for _, part := range strings.Split(module, "/") {
		switch part {
		case "":
			// tolerate leading, trailing and doubled slashes
		case ".", "..":
			return "", store.NewError(store.RetCInvalidOperation, "module path escapes the replica base: "+module)
		default:
			parts = append(parts, part)
		}
	}
	return strings.Join(parts, "/"), nil
}

// recordPath maps one (base, module, data key) triple to its file path.
// The module must already be in normalized form.
func recordPath(base, module, dataKey string) string {
	if module == "" {
		return filepath.Join(base, RecordFileName(dataKey))
	}
	return filepath.Join(base, filepath.FromSlash(module), RecordFileName(dataKey))
}
