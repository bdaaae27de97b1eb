package platform

import (
	"os"
	"os/user"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

const (
	// appDir is the name of the replica directories created under each
	// anchor location. The leading dot hides them on unix-like systems.
	appDir = ".skv"

	// dirPerm is the mode for created replica directories.
	dirPerm = 0700
)

// machineIDFiles are probed in order for a stable host identifier.
var machineIDFiles = []string{
	"/etc/machine-id",
	"/var/lib/dbus/machine-id",
	"/etc/hostid",
}

// --------------------------------------------------------------------------
// OS Provider
// --------------------------------------------------------------------------

type osProvider struct{}

// NewOSProvider creates a Provider backed by the local operating system.
// The three replica bases are anchored at the user config directory, the
// user's Documents folder and the user cache directory, so that the loss of
// any single location (cache wipe, Documents cleanup) leaves two replicas
// intact.
func NewOSProvider() Provider {
	return &osProvider{}
}

func (p *osProvider) BasePaths() ([3]string, error) {
	var paths [3]string

	cfg, err := os.UserConfigDir()
	if err != nil {
		return paths, errors.Wrap(err, "platform: user config dir unavailable")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return paths, errors.Wrap(err, "platform: user home dir unavailable")
	}

	cache, err := os.UserCacheDir()
	if err != nil {
		return paths, errors.Wrap(err, "platform: user cache dir unavailable")
	}

	paths[0] = filepath.Join(cfg, appDir)
	paths[1] = filepath.Join(home, "Documents", appDir)
	paths[2] = filepath.Join(cache, appDir)

	for _, path := range paths {
		if err := os.MkdirAll(path, dirPerm); err != nil {
			return paths, errors.Wrapf(err, "platform: cannot create base dir %s", path)
		}
	}

	return paths, nil
}

func (p *osProvider) UserName() (string, error) {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username, nil
	}

	// user.Current can fail in minimal environments (no passwd database)
	for _, key := range []string{"USER", "LOGNAME"} {
		if name := os.Getenv(key); name != "" {
			return name, nil
		}
	}

	return "", errors.New("platform: cannot determine current user")
}

func (p *osProvider) MachineID() (string, error) {
	for _, file := range machineIDFiles {
		raw, err := os.ReadFile(file)
		if err != nil {
			continue
		}
		if id := strings.TrimSpace(string(raw)); id != "" {
			return id, nil
		}
	}

	// last resort: the host name is less stable but keeps the store usable
	// on systems without a machine-id file
	if host, err := os.Hostname(); err == nil && host != "" {
		return host, nil
	}

	return "", errors.New("platform: cannot determine machine id")
}
