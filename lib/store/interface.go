package store

import (
	"fmt"
)

// --------------------------------------------------------------------------
// Interface Definition
// --------------------------------------------------------------------------

// KeyRef identifies one stored record in the namespace. Module is the
// slash-separated directory path relative to the replica base ("" for the
// root), Key is the data key the record was stored under.
type KeyRef struct {
	Module string
	Key    string
}

// IStore is the interface for interacting with a machine-bound secure
// key-value store. All write operations return only an error (nil on
// success), while read operations return the requested data along with an
// error (nil on success).
//
// Read operations additionally return a drift flag: drift is false when all
// three replicas were present and bitwise equal, and true when the value was
// recovered from a degraded replica set (one or two replicas missing,
// corrupted or stale). A caller that observes drift may re-store the value
// to re-synchronize the replicas.
type IStore interface {
	// Store inserts or updates a record under dataKey in the root module.
	Store(dataKey string, value Value) (err error)
	// StoreToModule inserts or updates a record under dataKey inside the
	// given module. The module directory must already exist (see
	// CreateModule); writing to a missing module fails.
	StoreToModule(module, dataKey string, value Value) (err error)
	// Retrieve reads the record stored under dataKey from the root module.
	// The tag selects the expected type; a valid record of a different type
	// yields a type-mismatch error.
	Retrieve(dataKey string, tag TypeTag) (value Value, drift bool, err error)
	// RetrieveFromModule reads the record stored under dataKey inside the
	// given module.
	RetrieveFromModule(module, dataKey string, tag TypeTag) (value Value, drift bool, err error)
	// Delete removes the record stored under dataKey from the root module.
	// Removal is best-effort on every replica.
	Delete(dataKey string) (err error)
	// DeleteFromModule removes the record stored under dataKey inside the
	// given module.
	DeleteFromModule(module, dataKey string) (err error)
	// DeleteAll removes every record and every module on all replicas.
	DeleteAll() (err error)

	// CreateModule creates the module parent/name on every replica,
	// including intermediate directories. A parent of "" or "*" means the
	// replica base itself. The operation is idempotent.
	CreateModule(parent, name string) (err error)
	// RemoveModule recursively deletes the module directory tree on every
	// replica.
	RemoveModule(path string) (err error)
	// DeleteAllDataFromModule removes every record file under the module
	// subtree on every replica, leaving the directory tree in place.
	DeleteAllDataFromModule(path string) (err error)

	// GetAllKeys enumerates every stored record. Of the three per-replica
	// views the largest one is returned, so a replica that fell behind in
	// writes cannot hide keys from the caller.
	GetAllKeys() (keys []KeyRef, err error)
	// GetKeysInModule enumerates records whose module path contains module
	// as a slash-bounded component (the module itself and all descendants).
	GetKeysInModule(module string) (keys []KeyRef, err error)
	// GetDirectKeysInModule enumerates records stored directly inside
	// module (no deeper descendants).
	GetDirectKeysInModule(module string) (keys []KeyRef, err error)
	// GetAllModules returns every module directory present on any replica,
	// sorted and deduplicated.
	GetAllModules() (modules []string, err error)
	// GetAllSubmodules returns every module whose path contains prefix as a
	// substring. Note: substring, not path-prefix, so "foo" also matches
	// "barfoo".
	GetAllSubmodules(prefix string) (modules []string, err error)
	// Contains reports whether dataKey appears anywhere in the store.
	Contains(dataKey string) (found bool, err error)
}

// --------------------------------------------------------------------------
// Custom Error Type
// --------------------------------------------------------------------------

// Error is a custom error type that wraps a return code (of type RetCode)
// and an error message.
type Error struct {
	Code RetCode // The return code
	Msg  string  // The error message.
}

// Error implements the error interface.
func (e *Error) Error() string {
	errorCode := ""
	switch e.Code {
	case RetCSuccess:
		errorCode = "Success"
	case RetCNotFound:
		errorCode = "NotFound"
	case RetCTypeMismatch:
		errorCode = "TypeMismatch"
	case RetCCapabilityFailure:
		errorCode = "CapabilityFailure"
	case RetCIOFailure:
		errorCode = "IOFailure"
	case RetCInvalidOperation:
		errorCode = "InvalidOperation"
	default:
		errorCode = "Unknown"
	}

	return fmt.Sprintf("SecureStoreError (code %s): %s", errorCode, e.Msg)
}

// NewError creates a new store Error with the given code and message.
func NewError(code RetCode, msg string) *Error {
	return &Error{
		Code: code,
		Msg:  msg,
	}
}

// CodeOf extracts the RetCode from an error returned by this package.
// A nil error maps to RetCSuccess, a foreign error to RetCIOFailure.
func CodeOf(err error) RetCode {
	if err == nil {
		return RetCSuccess
	}
	for {
		if e, ok := err.(*Error); ok {
			return e.Code
		}
		type causer interface{ Cause() error }
		type unwrapper interface{ Unwrap() error }
		switch v := err.(type) {
		case causer:
			err = v.Cause()
		case unwrapper:
			err = v.Unwrap()
		default:
			return RetCIOFailure
		}
	}
}

// --------------------------------------------------------------------------
// Return Codes
// --------------------------------------------------------------------------

type RetCode uint64

const (
	RetCSuccess           RetCode = iota // 0: Operation completed successfully.
	RetCNotFound                         // 1: No replica yielded a valid record of the expected type.
	RetCTypeMismatch                     // 2: Record valid but its type tag or value text disagrees with the requested type.
	RetCCapabilityFailure                // 3: Platform provider could not supply user name, machine id or base paths.
	RetCIOFailure                        // 4: All replica writes failed, or a namespace mutation failed on every base.
	RetCInvalidOperation                 // 5: Invalid data key or module path.
)
