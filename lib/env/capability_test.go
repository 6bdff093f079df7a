package env

import "testing"

func TestAlwaysCompiledIn(t *testing.T) {
	for _, b := range []Backend{BackendLocal, BackendMemory, BackendCustom} {
		if !IsCompiledIn(b) {
			t.Errorf("Expected %s to be compiled in", b)
		}
	}
}

func TestHdfsFollowsBuildTag(t *testing.T) {
	if IsCompiledIn(BackendHdfs) != hdfsCompiledIn {
		t.Errorf("Capability of hdfs does not follow the build tag")
	}
}

func TestUnknownBackendNotCompiledIn(t *testing.T) {
	if IsCompiledIn(Backend(200)) {
		t.Errorf("Expected unknown backend not to be compiled in")
	}
}

func TestCapabilitiesIsACopy(t *testing.T) {
	table := Capabilities()
	if len(table) != len(Backends()) {
		t.Fatalf("Expected %d entries, got %d", len(Backends()), len(table))
	}

	table[BackendHdfs] = !table[BackendHdfs]
	if IsCompiledIn(BackendHdfs) != hdfsCompiledIn {
		t.Errorf("Mutating the returned table changed the capability")
	}
}
