// Package hdfs implements env.Env on top of the Hadoop distributed filesystem.
//
// The backend is only part of a build made with `-tags hdfs`. Without the tag
// New returns the BackendUnavailable error "Not compiled with hdfs support"
// and the github.com/colinmarc/hdfs/v2 client is not linked. ParseArgs is
// available in every build.
//
// Semantics that differ from a local filesystem:
//   - Writable files are flushed to the datanodes on Flush and Sync; HDFS has no
//     separate fsync.
//   - RenameFile removes an existing target first.
//   - LockFile always succeeds. HDFS has no advisory locks, so exclusive access
//     to a database directory is the caller's responsibility.
package hdfs
