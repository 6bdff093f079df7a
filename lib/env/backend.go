package env

import (
	"fmt"
	"strings"
)

// --------------------------------------------------------------------------
// Backend Identifiers
// --------------------------------------------------------------------------

// Backend identifies a kind of environment implementation.
// The set of backends is closed and known at compile time; whether a backend
// can actually be used in this build is answered by IsCompiledIn.
type Backend uint8

const (
	BackendLocal  Backend = iota // Local filesystem (os package)
	BackendHdfs                  // Hadoop distributed filesystem (build tag "hdfs")
	BackendMemory                // In-memory filesystem with a fake clock
	BackendCustom                // User supplied backend registered at runtime
)

// Backends returns all known backends in declaration order.
func Backends() []Backend {
	return []Backend{BackendLocal, BackendHdfs, BackendMemory, BackendCustom}
}

func (b Backend) String() string {
	switch b {
	case BackendLocal:
		return "local"
	case BackendHdfs:
		return "hdfs"
	case BackendMemory:
		return "memory"
	case BackendCustom:
		return "custom"
	default:
		return fmt.Sprintf("unknown(%d)", b)
	}
}

// Remote reports whether constructing the backend may block on the network.
func (b Backend) Remote() bool {
	return b == BackendHdfs
}

// ParseBackend maps a backend name or URI scheme to a Backend.
// The lookup is case-insensitive and accepts a few common aliases.
func ParseBackend(name string) (Backend, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "local", "file", "posix":
		return BackendLocal, true
	case "hdfs":
		return BackendHdfs, true
	case "memory", "mem", "mock":
		return BackendMemory, true
	case "custom":
		return BackendCustom, true
	default:
		return 0, false
	}
}

// --------------------------------------------------------------------------
// Identifier strings
// --------------------------------------------------------------------------

// SplitScheme splits "<scheme>://<rest>" into its two parts.
// Nothing but the separator is inspected, so even a malformed remainder
// yields the scheme. ok is false if the string has no scheme at all.
func SplitScheme(uri string) (scheme, rest string, ok bool) {
	scheme, rest, ok = strings.Cut(uri, "://")
	if !ok || scheme == "" {
		return "", uri, false
	}
	return strings.ToLower(scheme), rest, true
}
