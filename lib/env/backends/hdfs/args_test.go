package hdfs

import (
	"errors"
	"testing"

	"github.com/ValentinKolb/eKV/lib/env"
)

func TestParseArgs(t *testing.T) {
	tests := []struct {
		uri       string
		addresses []string
		user      string
		root      string
	}{
		{"hdfs://localhost:5000", []string{"localhost:5000"}, "", ""},
		{"hdfs://localhost:5000/", []string{"localhost:5000"}, "", ""},
		{"hdfs://nn1:8020,nn2:8020/data/ekv", []string{"nn1:8020", "nn2:8020"}, "", "/data/ekv"},
		{"HDFS://alice@nn:9000/x//y/", []string{"nn:9000"}, "alice", "/x/y"},
		{"hdfs://[::1]:8020", []string{"[::1]:8020"}, "", ""},
		{"hdfs://default/warehouse", nil, "", "/warehouse"},
	}

	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			args, err := ParseArgs(tt.uri)
			if err != nil {
				t.Fatalf("ParseArgs(%q) failed: %v", tt.uri, err)
			}
			if len(args.Addresses) != len(tt.addresses) {
				t.Fatalf("Expected addresses %v, got %v", tt.addresses, args.Addresses)
			}
			for i := range tt.addresses {
				if args.Addresses[i] != tt.addresses[i] {
					t.Errorf("Expected address %s, got %s", tt.addresses[i], args.Addresses[i])
				}
			}
			if args.User != tt.user {
				t.Errorf("Expected user %q, got %q", tt.user, args.User)
			}
			if args.Root != tt.root {
				t.Errorf("Expected root %q, got %q", tt.root, args.Root)
			}
		})
	}
}

func TestParseArgsMalformed(t *testing.T) {
	for _, uri := range []string{
		"",
		"localhost:5000",
		"file:///tmp",
		"hdfs://",
		"hdfs:///data",
		"hdfs://@nn:8020",
		"hdfs://nn",
		"hdfs://:8020",
		"hdfs://nn:0",
		"hdfs://nn:99999",
		"hdfs://nn:port",
		"hdfs://nn1:8020,",
	} {
		t.Run(uri, func(t *testing.T) {
			_, err := ParseArgs(uri)
			if err == nil {
				t.Fatalf("Expected ParseArgs(%q) to fail", uri)
			}
			if !errors.Is(err, env.ErrBackendConstructionFailed) {
				t.Errorf("Expected BackendConstructionFailed, got %v", env.KindOf(err))
			}
		})
	}
}

func TestArgsString(t *testing.T) {
	for _, uri := range []string{
		"hdfs://localhost:5000",
		"hdfs://bob@nn1:8020,nn2:8020/data",
		"hdfs://default/warehouse",
	} {
		args, err := ParseArgs(uri)
		if err != nil {
			t.Fatalf("ParseArgs(%q) failed: %v", uri, err)
		}
		if got := args.String(); got != uri {
			t.Errorf("Expected %q, got %q", uri, got)
		}
	}
}
