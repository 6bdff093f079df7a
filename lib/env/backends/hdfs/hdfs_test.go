//go:build hdfs

package hdfs

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/ValentinKolb/eKV/lib/env"
	envtesting "github.com/ValentinKolb/eKV/lib/env/testing"
)

// EKV_HDFS_URI names a reachable cluster, e.g. hdfs://localhost:8020/tmp/ekv-test.
const uriVariable = "EKV_HDFS_URI"

func TestConformance(t *testing.T) {
	uri := os.Getenv(uriVariable)
	if uri == "" {
		t.Skipf("%s not set", uriVariable)
	}

	envtesting.RunEnvTests(t, "HdfsEnv", func(t *testing.T) (env.Env, string) {
		e, err := New(context.Background(), uri)
		if err != nil {
			t.Fatalf("New(%s) failed: %v", uri, err)
		}
		return e, "/tmp/ekv-test/" + t.Name()
	})
}

func TestDialHonoursContext(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	// non-routable address, the dial either times out or fails
	_, err := New(ctx, "hdfs://10.255.255.1:8020")
	if !errors.Is(err, env.ErrBackendConstructionFailed) {
		t.Fatalf("Expected BackendConstructionFailed, got %v", err)
	}
}

func TestNewRejectsMalformedURI(t *testing.T) {
	_, err := New(context.Background(), "hdfs://nn")
	if !errors.Is(err, env.ErrBackendConstructionFailed) {
		t.Fatalf("Expected BackendConstructionFailed, got %v", err)
	}
}
