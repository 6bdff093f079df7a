// Package testing provides standardised benchmarks for the db package that
// can be run on any storage environment.
//
// The benchmarks open a database through a handle from the factory, so the
// same workload can be compared between backends:
//
//	factory := func(tb testing.TB) (*env.Handle, string) {
//		h, _ := registry.Construct(context.Background(), env.BackendMemory, "")
//		tb.Cleanup(func() { _ = h.Release() })
//		return h, "/bench"
//	}
//
//	dbtesting.RunDBBenchmarks(b, "Memory", factory)
package testing
