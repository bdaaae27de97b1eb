package platform

import (
	"github.com/pkg/errors"
)

// --------------------------------------------------------------------------
// Static Provider
// --------------------------------------------------------------------------

type staticProvider struct {
	paths   [3]string
	user    string
	machine string
}

// NewStaticProvider creates a deterministic Provider returning fixed values.
// It is intended for tests and for host applications that manage replica
// locations themselves. BasePaths returns the paths as given and does not
// create the directories.
func NewStaticProvider(paths [3]string, userName, machineID string) Provider {
	return &staticProvider{
		paths:   paths,
		user:    userName,
		machine: machineID,
	}
}

func (p *staticProvider) BasePaths() ([3]string, error) {
	for _, path := range p.paths {
		if path == "" {
			return p.paths, errors.New("platform: empty base path")
		}
	}
	return p.paths, nil
}

func (p *staticProvider) UserName() (string, error) {
	if p.user == "" {
		return "", errors.New("platform: empty user name")
	}
	return p.user, nil
}

func (p *staticProvider) MachineID() (string, error) {
	if p.machine == "" {
		return "", errors.New("platform: empty machine id")
	}
	return p.machine, nil
}
