package testing

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/ValentinKolb/eKV/lib/db"
	"github.com/ValentinKolb/eKV/lib/env"
)

// EnvFactory returns a live environment handle and a database path inside it.
// The factory owns the handle and releases it in a cleanup function.
type EnvFactory func(tb testing.TB) (*env.Handle, string)

// RunDBBenchmarks runs all database benchmarks on the environments created by factory
func RunDBBenchmarks(b *testing.B, name string, factory EnvFactory) {

	b.Run("Put", func(b *testing.B) {
		benchmarkPut(b, open(b, factory))
	})

	b.Run("PutExisting", func(b *testing.B) {
		benchmarkPutExisting(b, open(b, factory))
	})

	b.Run("PutLargeValue", func(b *testing.B) {
		benchmarkPutLargeValue(b, open(b, factory))
	})

	b.Run("Get", func(b *testing.B) {
		benchmarkGet(b, open(b, factory))
	})

	b.Run("Delete", func(b *testing.B) {
		benchmarkDelete(b, open(b, factory))
	})

	b.Run("Has", func(b *testing.B) {
		benchmarkHas(b, open(b, factory))
	})

	b.Run("Has(not)", func(b *testing.B) {
		benchmarkHasNot(b, open(b, factory))
	})

	b.Run("FlushReopen", func(b *testing.B) {
		benchmarkFlushReopen(b, factory)
	})

	b.Run("MixedUsage", func(b *testing.B) {
		benchmarkMixedUsage(b, open(b, factory))
	})
}

// open creates a database in a fresh environment and closes it when the benchmark ends
func open(b *testing.B, factory EnvFactory) *db.DB {
	h, path := factory(b)
	database, err := db.Open(&db.Options{CreateIfMissing: true, Env: h}, path)
	if err != nil {
		b.Fatalf("Open failed: %v", err)
	}
	b.Cleanup(func() {
		_ = database.Close()
	})
	return database
}

// fill writes n keys and returns them
func fill(b *testing.B, database *db.DB, n int) []string {
	keys := make([]string, n)
	for i := 0; i < n; i++ {
		keys[i] = fmt.Sprintf("test-key-%d", i)
		if err := database.Put(keys[i], []byte(fmt.Sprintf("test-value-%d", i))); err != nil {
			b.Fatalf("Put failed: %v", err)
		}
	}
	return keys
}

// --------------------------------------------------------------------------
// Benchmark functions
// --------------------------------------------------------------------------

// Benchmark for Put operation
func benchmarkPut(b *testing.B, database *db.DB) {
	var counter int64

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			i := atomic.AddInt64(&counter, 1)
			key := fmt.Sprintf("test-key-%d", i)
			value := []byte(fmt.Sprintf("test-value-%d", i))
			_ = database.Put(key, value)
		}
	})
}

// Benchmark for Put operation with existing keys
func benchmarkPutExisting(b *testing.B, database *db.DB) {
	numKeys := min(b.N, 10000)
	keys := fill(b, database, numKeys)

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		counter := 0
		for pb.Next() {
			_ = database.Put(keys[counter%numKeys], []byte(fmt.Sprintf("test-value-%d", counter)))
			counter++
		}
	})
}

// Benchmark for Put operation with large values
func benchmarkPutLargeValue(b *testing.B, database *db.DB) {
	value := make([]byte, 64*1024)
	for i := range value {
		value[i] = byte(i % 251)
	}

	b.SetBytes(int64(len(value)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = database.Put(fmt.Sprintf("large-key-%d", i%100), value)
	}
}

// Benchmark for Get operation
func benchmarkGet(b *testing.B, database *db.DB) {
	numKeys := min(b.N, 10000)
	keys := fill(b, database, numKeys)

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		counter := 0
		for pb.Next() {
			_, _, _ = database.Get(keys[counter%numKeys])
			counter++
		}
	})
}

// Benchmark for Delete operation
func benchmarkDelete(b *testing.B, database *db.DB) {
	keys := fill(b, database, b.N)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = database.Delete(keys[i])
	}
}

// Benchmark for Has operation on existing keys
func benchmarkHas(b *testing.B, database *db.DB) {
	numKeys := min(b.N, 10000)
	keys := fill(b, database, numKeys)

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		counter := 0
		for pb.Next() {
			_, _ = database.Has(keys[counter%numKeys])
			counter++
		}
	})
}

// Benchmark for Has operation on missing keys
func benchmarkHasNot(b *testing.B, database *db.DB) {
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		counter := 0
		for pb.Next() {
			_, _ = database.Has(fmt.Sprintf("missing-key-%d", counter))
			counter++
		}
	})
}

// Benchmark for Flush and the recovery done by Open.
// Both lock the entire database, so they run sequentially.
func benchmarkFlushReopen(b *testing.B, factory EnvFactory) {
	h, path := factory(b)
	opts := &db.Options{CreateIfMissing: true, Env: h}

	database, err := db.Open(opts, path)
	if err != nil {
		b.Fatalf("Open failed: %v", err)
	}
	fill(b, database, 10000)

	b.Run("Flush", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			// a write per round, otherwise there is nothing to flush
			_ = database.Put("flush-key", []byte(fmt.Sprintf("flush-value-%d", i)))
			if err := database.Flush(); err != nil {
				b.Fatalf("Flush failed: %v", err)
			}
		}
	})

	if err := database.Close(); err != nil {
		b.Fatalf("Close failed: %v", err)
	}

	b.Run("Reopen", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			reopened, err := db.Open(opts, path)
			if err != nil {
				b.Fatalf("Open failed: %v", err)
			}
			_ = reopened.Close()
		}
	})
}

// Benchmark for mixed usage patterns
func benchmarkMixedUsage(b *testing.B, database *db.DB) {
	numKeys := min(b.N, 100000)
	keys := fill(b, database, numKeys)

	// Counter for atomic access
	var counter int64

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		localCounter := 0

		for pb.Next() {
			idx := int(atomic.AddInt64(&counter, 1)-1) % numKeys

			// Select operation (0-1: get, 2: put, 3: delete, 4: has)
			switch localCounter % 5 {
			case 0, 1:
				_, _, _ = database.Get(keys[idx])
			case 2:
				_ = database.Put(keys[idx], []byte(fmt.Sprintf("new-value-%d", localCounter)))
			case 3:
				_ = database.Delete(keys[idx])
			case 4:
				_, _ = database.Has(keys[idx])
			}
			localCounter++
		}
	})
}
