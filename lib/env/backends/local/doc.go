// Package local implements env.Env on top of the local filesystem.
//
// Names are OS paths. If the environment was created with a root directory,
// relative names are resolved against it; absolute names are used as they are.
// Writable files are buffered and only reach the OS on Flush, Sync or Close.
//
// LockFile combines an in-process lock table with flock(2) on unix systems, so
// a database directory cannot be opened twice, neither by this process nor by
// another one.
package local
