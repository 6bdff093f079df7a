// Package db provides an embedded key-value storage instance that performs all
// of its I/O through an environment (github.com/ValentinKolb/eKV/lib/env).
//
// The package focuses on:
//   - A strict open path that validates the environment before any I/O
//   - Crash recovery from a checksummed write-ahead log
//   - Compressed, checksummed table snapshots
//   - Per-database statistics
//
// Key Components:
//
//   - Options: The configuration object. It references an environment handle
//     (Options.Env) without owning it and is copied when the database is opened.
//     The options a database was last opened with are stored as YAML in its
//     OPTIONS file and can be read back with ReadOptions.
//
//   - Open: Validates in a fixed order. (1) The environment handle: a handle
//     whose construction failed makes Open return exactly that error, so a
//     request for a backend that is not compiled in fails with
//     "Not compiled with <name> support" and nothing is touched. A released
//     handle fails with env.KindResourceAlreadyClosed. (2) The path, as
//     defined by the backend. (3) CreateIfMissing and ErrorIfExists.
//
//   - DB: Put, Get, Delete, Has, Keys and Flush. All keys are held in an
//     ordered in-memory table (github.com/google/btree). Operations on a
//     database that is not open fail with env.KindInvalidState; closing twice
//     fails with env.KindResourceAlreadyClosed.
//
// On-disk layout of a database directory:
//
//	LOCK      exclusive lock held while the database is open
//	IDENTITY  unique id of the database (UUID)
//	OPTIONS   YAML dump of the options
//	TABLE     snapshot of all keys, optionally compressed (snappy, zstd, lz4)
//	WAL       records written since the last snapshot
//
// Every write is appended to the WAL before it is applied. Once the WAL grows
// beyond Options.WriteBufferSize a flush is scheduled on the environment's
// background pool; it rewrites TABLE and starts an empty WAL. On open the
// WAL is replayed on top of TABLE. A damaged tail of the WAL, as left by a
// crash during a write, is dropped unless Options.ParanoidChecks is set.
//
// Example:
//
//	h, err := registry.Construct(ctx, env.BackendMemory, "test")
//	if err != nil {
//		return err
//	}
//	defer h.Release()
//
//	err = db.WithDB(&db.Options{CreateIfMissing: true, Env: h}, "/db", func(d *db.DB) error {
//		return d.Put("key", []byte("value"))
//	})
package db
