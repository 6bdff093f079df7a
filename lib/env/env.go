package env

import (
	"io"
	"time"
)

// --------------------------------------------------------------------------
// Environment Interface
// --------------------------------------------------------------------------

// Env is the contract every backend satisfies. The storage engine performs
// all file I/O, background work and time queries through an Env instead of
// using platform primitives directly.
//
// File names are backend paths. Backends define their own path rules,
// which callers can check up front with ValidatePath.
type Env interface {

	// --------------------------------------------------------------------------
	// Identity
	// --------------------------------------------------------------------------

	// Backend returns the kind of this environment.
	Backend() Backend

	// Descriptor returns the connection descriptor the environment was created with
	// (a root directory, a namenode URI, ...). It may be empty.
	Descriptor() string

	// ValidatePath reports whether path is acceptable as a database location.
	ValidatePath(path string) error

	// --------------------------------------------------------------------------
	// Files
	// --------------------------------------------------------------------------

	// NewSequentialFile opens a file for reading from the start.
	// A missing file is reported with KindNotFound.
	NewSequentialFile(name string) (SequentialFile, error)

	// NewRandomAccessFile opens a file for positional reads.
	NewRandomAccessFile(name string) (RandomAccessFile, error)

	// NewWritableFile creates a new file, replacing any existing file with the same name.
	NewWritableFile(name string) (WritableFile, error)

	// NewAppendableFile opens a file for appending, creating it if necessary.
	NewAppendableFile(name string) (WritableFile, error)

	// FileExists reports whether a file or directory exists.
	FileExists(name string) (bool, error)

	// GetChildren returns the names of the direct children of dir, relative to dir.
	GetChildren(dir string) ([]string, error)

	// DeleteFile removes a file.
	DeleteFile(name string) error

	// RenameFile renames src to target, replacing target if it exists.
	RenameFile(src, target string) error

	// GetFileSize returns the size of a file in bytes.
	GetFileSize(name string) (uint64, error)

	// GetFileModificationTime returns the last modification time of a file.
	GetFileModificationTime(name string) (time.Time, error)

	// --------------------------------------------------------------------------
	// Directories
	// --------------------------------------------------------------------------

	CreateDir(name string) error
	CreateDirIfMissing(name string) error
	DeleteDir(name string) error

	// --------------------------------------------------------------------------
	// Locking
	// --------------------------------------------------------------------------

	// LockFile acquires an exclusive lock on the named file, creating it if needed.
	// It does not wait: if the lock is held the call fails immediately.
	LockFile(name string) (FileLock, error)

	// UnlockFile releases a lock acquired by LockFile.
	UnlockFile(lock FileLock) error

	// --------------------------------------------------------------------------
	// Threads
	// --------------------------------------------------------------------------

	// Schedule runs fn on the environment's background pool.
	// It fails with KindResourceAlreadyClosed once the environment is closed.
	Schedule(fn func()) error

	// --------------------------------------------------------------------------
	// Clock
	// --------------------------------------------------------------------------

	NowMicros() uint64
	NowNanos() uint64

	// GetCurrentTime returns the number of seconds since the unix epoch.
	GetCurrentTime() int64

	SleepForMicroseconds(micros int64)

	// Close releases all backend resources and waits for scheduled work.
	// Only the Handle that owns an environment calls Close.
	Close() error
}

// --------------------------------------------------------------------------
// File Interfaces
// --------------------------------------------------------------------------

// SequentialFile reads a file front to back. It is used by a single goroutine at a time.
type SequentialFile interface {
	io.Reader

	// Skip advances the read position by n bytes, stopping at the end of the file.
	Skip(n int64) error

	io.Closer
}

// RandomAccessFile supports concurrent positional reads.
type RandomAccessFile interface {
	io.ReaderAt
	io.Closer
}

// WritableFile is a buffered, append-only file.
type WritableFile interface {
	io.Writer

	// Flush hands buffered data to the backend.
	Flush() error

	// Sync flushes and makes the data durable.
	Sync() error

	io.Closer
}

// FileLock identifies a lock acquired with Env.LockFile.
type FileLock interface {
	Name() string
}
