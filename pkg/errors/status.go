// Copyright 2025 The NMO Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package errors

import (
	"fmt"
	"strings"
)

// Status is an error status code.
type Status uint64

const (
	// OK indicates success. It is never carried by an Error.
	OK Status = 0

	// UnknownError is an error of unknown origin, typically a wrapped
	// collaborator error.
	UnknownError Status = 1

	// InvalidArgument is a nil, zero-sized, or otherwise unusable argument.
	InvalidArgument Status = 2

	// InvalidState is an operation attempted in the wrong mode, such as
	// reading a chunk that is open for writing.
	InvalidState Status = 3

	// OutOfMemory is an allocation failure reported by an arena.
	OutOfMemory Status = 4

	// Corruption is malformed or truncated serialized input.
	Corruption Status = 5

	// NotFound is a lookup miss. Lookup methods return it as data, not as a
	// failure of the lookup itself.
	NotFound Status = 6

	// AlreadyExists is a duplicate registration.
	AlreadyExists Status = 7

	// VersionIncompatible is a type or chunk outside its version-validity
	// window.
	VersionIncompatible Status = 8

	// NoMigrationPath is a migration request with no defined transform
	// between the source and target versions.
	NoMigrationPath Status = 9

	// IOError is a failure reported by the collaborating stream layer,
	// distinct from corruption of the bytes themselves.
	IOError Status = 10
)

// StatusByName returns the status code with the given name, or OK if the name
// is not recognized.
func StatusByName(s string) Status {
	switch strings.ToLower(s) {
	case "unknown", "unknownerror":
		return UnknownError
	case "invalidargument":
		return InvalidArgument
	case "invalidstate":
		return InvalidState
	case "outofmemory":
		return OutOfMemory
	case "corruption":
		return Corruption
	case "notfound":
		return NotFound
	case "alreadyexists":
		return AlreadyExists
	case "versionincompatible":
		return VersionIncompatible
	case "nomigrationpath":
		return NoMigrationPath
	case "ioerror":
		return IOError
	default:
		return OK
	}
}

func (s Status) String() string {
	switch s {
	case OK:
		return "ok"
	case UnknownError:
		return "unknown"
	case InvalidArgument:
		return "invalidArgument"
	case InvalidState:
		return "invalidState"
	case OutOfMemory:
		return "outOfMemory"
	case Corruption:
		return "corruption"
	case NotFound:
		return "notFound"
	case AlreadyExists:
		return "alreadyExists"
	case VersionIncompatible:
		return "versionIncompatible"
	case NoMigrationPath:
		return "noMigrationPath"
	case IOError:
		return "ioError"
	default:
		return fmt.Sprintf("Status:%d", uint64(s))
	}
}

// Success returns true if the status represents success.
func (s Status) Success() bool { return s == OK }

// IsKnownError returns true if the status is non-zero and not UnknownError.
func (s Status) IsKnownError() bool { return s != OK && s != UnknownError }

// GetEnumValue returns the status as a number.
func (s Status) GetEnumValue() uint64 { return uint64(s) }

// SetEnumValue sets the status from a number. SetEnumValue returns false if
// the number is not a valid status.
func (s *Status) SetEnumValue(v uint64) bool {
	u := Status(v)
	switch u {
	case OK, UnknownError, InvalidArgument, InvalidState, OutOfMemory,
		Corruption, NotFound, AlreadyExists, VersionIncompatible,
		NoMigrationPath, IOError:
		*s = u
		return true
	default:
		return false
	}
}

// Error implements error.
func (s Status) Error() string { return s.String() }
