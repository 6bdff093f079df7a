// Package registry constructs environment handles from backend identifiers.
//
// Construction always starts with the capability check. If the requested
// backend is not part of the build, Construct fails immediately with
//
//	Not compiled with <name> support
//
// (kind env.KindBackendUnavailable) and neither parses the arguments nor
// touches the filesystem or the network. Backends that are compiled in but
// cannot be initialised, for example an unreachable namenode, fail with
// env.KindBackendConstructionFailed instead.
//
// Every call to Construct returns a handle, also on failure. A failed handle
// only carries the error; a storage instance opened with it reports that
// error unchanged, and releasing it does nothing. Callers therefore may
// write
//
//	h, err := registry.Construct(ctx, env.BackendHdfs, "hdfs://localhost:5000")
//	defer h.Release()
//
// without special-casing the error path.
//
// Identifier strings have the form <scheme>://<args>. The built-in schemes
// are local (file, posix), memory (mem, mock) and hdfs. Additional schemes
// can be registered with RegisterCustom; they are constructed as
// env.BackendCustom. A string without a scheme names a local directory.
package registry
