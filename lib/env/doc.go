// Package env defines the environment abstraction that the storage engine uses
// for file I/O, background threads and time. Backends implement the Env
// interface; the engine never touches the operating system directly.
//
// The package focuses on:
//   - A single Env contract shared by all backends
//   - Build-time capability detection for optional backends
//   - Typed, programmatically distinguishable errors
//   - An explicit acquire/release lifecycle for environment handles
//
// Key Components:
//
//   - Backend: A closed enumeration of backend kinds (local, hdfs, memory, custom).
//     ParseBackend maps names and URI schemes (including aliases such as "file"
//     or "mem") to a Backend.
//
//   - Capability Table: IsCompiledIn answers whether a backend was included in the
//     build. The answer comes from build tags (the HDFS backend requires
//     `-tags hdfs`) and never changes while the process runs. A missing backend is
//     a normal answer, not an error.
//
//   - Handle: The resource representing one configured backend instance. Handles are
//     created by the registry package, owned by their creator and released exactly
//     once. A handle may also record a failed construction; it then reports the
//     original error to everyone who tries to use it and releasing it is a no-op.
//     Storage instances take references with Acquire, and a referenced handle
//     refuses to be released.
//
//   - Error: Every failure is an *Error with a Kind and a message. Kinds are compared
//     with errors.Is against the Err* sentinels or read with KindOf. The message for
//     a missing backend is exactly "Not compiled with <name> support".
//
//   - ThreadPool and SystemClock: Building blocks that backends embed to implement
//     the threading and clock parts of Env.
//
// Typical usage together with the registry and db packages:
//
//	h, err := registry.ConstructURI(ctx, "hdfs://namenode:8020/data")
//	if err != nil {
//		return err // e.g. "Not compiled with hdfs support"
//	}
//	defer h.Release()
//
//	database, err := db.Open(&db.Options{CreateIfMissing: true, Env: h}, "/ekv")
//
// Related Packages:
//
// The registry package (github.com/ValentinKolb/eKV/lib/env/registry) maps backend
// identifiers to constructors and enforces that the capability check runs before
// any argument parsing or I/O.
//
// The backends/local, backends/memory and backends/hdfs packages contain the
// implementations. The testing package (github.com/ValentinKolb/eKV/lib/env/testing)
// provides a conformance suite that every backend runs.
package env
