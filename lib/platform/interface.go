package platform

// --------------------------------------------------------------------------
// Interface Definition
// --------------------------------------------------------------------------

// Provider supplies the host capabilities the store core consumes: three
// stable replica base directories, the name of the current user and a stable
// machine identifier. The core treats all three as opaque; they only need to
// be deterministic for a given user on a given host, because user name and
// machine id participate in key derivation and the base paths anchor the
// replica layout.
//
// Failure of any capability is fatal at store construction.
type Provider interface {
	// BasePaths returns three absolute directory paths, created if absent.
	// Each path is intended to live on an independent user-writable
	// location so that loss of one does not imply loss of the others.
	BasePaths() (paths [3]string, err error)
	// UserName returns the name of the current user.
	UserName() (name string, err error)
	// MachineID returns a stable identifier of the local machine.
	MachineID() (id string, err error)
}
