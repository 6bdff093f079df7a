package util

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ValentinKolb/eKV/lib/common"
	"github.com/ValentinKolb/eKV/lib/env"
)

func TestWrapString(t *testing.T) {
	text := strings.Repeat("word ", 30)
	for _, line := range strings.Split(WrapString(text), "\n") {
		if len(line) > Wrap {
			t.Errorf("Line longer than %d characters: %q", Wrap, line)
		}
	}
	if got := WrapString(""); got != "" {
		t.Errorf("Expected empty string, got %q", got)
	}
}

func TestConstructEnv(t *testing.T) {
	h, err := ConstructEnv(context.Background(), &common.Config{EnvURI: "mem://"})
	if err != nil {
		t.Fatalf("ConstructEnv failed: %v", err)
	}
	if h.Backend() != env.BackendMemory {
		t.Errorf("Expected memory backend, got %s", h.Backend())
	}
	if err := h.Release(); err != nil {
		t.Errorf("Release failed: %v", err)
	}

	h, err = ConstructEnv(context.Background(), &common.Config{EnvURI: "s3://bucket"})
	if !errors.Is(err, env.ErrBackendUnavailable) {
		t.Errorf("Expected BackendUnavailable, got %v", err)
	}
	if h == nil || h.Err() != err {
		t.Errorf("Expected a failed handle carrying the error")
	}
}
