// Package memory implements env.Env entirely in memory.
//
// Files are kept in an ordered table (github.com/google/btree) keyed by their
// normalised path, so listing a directory is a range scan. Directories and
// lock files are entries of their own; lock files cannot be opened as data
// files. Paths must be absolute.
//
// The clock follows the wall clock but can be moved forward with
// FakeSleepForMicroseconds. SleepForMicroseconds never blocks, which keeps
// time-dependent tests fast and deterministic. Corrupt damages a file in place
// for tests of checksum handling.
//
// All data is dropped when the environment is closed.
package memory
