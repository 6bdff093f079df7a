package env

import "testing"

func TestParseBackend(t *testing.T) {
	tests := []struct {
		name    string
		backend Backend
		ok      bool
	}{
		{"local", BackendLocal, true},
		{"File", BackendLocal, true},
		{"posix", BackendLocal, true},
		{"hdfs", BackendHdfs, true},
		{" HDFS ", BackendHdfs, true},
		{"memory", BackendMemory, true},
		{"mock", BackendMemory, true},
		{"mem", BackendMemory, true},
		{"custom", BackendCustom, true},
		{"s3", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		b, ok := ParseBackend(tt.name)
		if ok != tt.ok || (ok && b != tt.backend) {
			t.Errorf("ParseBackend(%q): expected (%s, %t), got (%s, %t)", tt.name, tt.backend, tt.ok, b, ok)
		}
	}
}

func TestBackendNamesRoundTrip(t *testing.T) {
	for _, b := range Backends() {
		parsed, ok := ParseBackend(b.String())
		if !ok || parsed != b {
			t.Errorf("Expected %s to parse back to itself", b)
		}
	}
	if got := Backend(42).String(); got != "unknown(42)" {
		t.Errorf("Unexpected name for an unknown backend: %s", got)
	}
}

func TestRemote(t *testing.T) {
	for _, b := range Backends() {
		if b.Remote() != (b == BackendHdfs) {
			t.Errorf("Unexpected Remote() for %s", b)
		}
	}
}

func TestSplitScheme(t *testing.T) {
	tests := []struct {
		uri    string
		scheme string
		rest   string
		ok     bool
	}{
		{"hdfs://localhost:5000", "hdfs", "localhost:5000", true},
		{"HDFS://nn:1/a", "hdfs", "nn:1/a", true},
		{"hdfs://", "hdfs", "", true},
		{"hdfs://%%%", "hdfs", "%%%", true},
		{"/tmp/db", "", "/tmp/db", false},
		{"://x", "", "://x", false},
		{"c:/data", "", "c:/data", false},
	}

	for _, tt := range tests {
		scheme, rest, ok := SplitScheme(tt.uri)
		if scheme != tt.scheme || rest != tt.rest || ok != tt.ok {
			t.Errorf("SplitScheme(%q): expected (%q, %q, %t), got (%q, %q, %t)",
				tt.uri, tt.scheme, tt.rest, tt.ok, scheme, rest, ok)
		}
	}
}
