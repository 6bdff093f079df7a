// Package testing provides a conformance suite for implementations of the
// env.Env interface.
//
// Every backend runs the same suite so that the storage engine can rely on
// identical semantics for files, directories, locks, background work and the
// clock, whatever the backend. Behaviour the suite does not pin down (path
// syntax, whether lock files can be read) is left to the backend.
//
// Example usage:
//
//	func TestConformance(t *testing.T) {
//		envtesting.RunEnvTests(t, "MyEnv", func(t *testing.T) (env.Env, string) {
//			return NewMyEnv(), "/base"
//		})
//	}
package testing
