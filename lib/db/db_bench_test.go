package db_test

import (
	"context"
	"testing"

	dbtesting "github.com/ValentinKolb/eKV/lib/db/testing"
	"github.com/ValentinKolb/eKV/lib/env"
	"github.com/ValentinKolb/eKV/lib/env/registry"
)

func handleFactory(backend env.Backend, root func(tb testing.TB) string, path string) dbtesting.EnvFactory {
	return func(tb testing.TB) (*env.Handle, string) {
		h, err := registry.Construct(context.Background(), backend, root(tb))
		if err != nil {
			tb.Fatalf("Construct failed: %v", err)
		}
		tb.Cleanup(func() {
			// databases close in their own cleanup, which runs first
			_ = h.Release()
		})
		return h, path
	}
}

func BenchmarkMemory(b *testing.B) {
	dbtesting.RunDBBenchmarks(b, "Memory", handleFactory(env.BackendMemory,
		func(testing.TB) string { return "" }, "/bench"))
}

func BenchmarkLocal(b *testing.B) {
	dbtesting.RunDBBenchmarks(b, "Local", handleFactory(env.BackendLocal,
		func(tb testing.TB) string { return tb.TempDir() }, "bench"))
}
