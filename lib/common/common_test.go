package common

import (
	"strings"
	"testing"
	"time"

	"github.com/ValentinKolb/eKV/lib/db"
	"github.com/ValentinKolb/eKV/lib/env"
	"github.com/lni/dragonboat/v4/logger"
)

func TestParseLogLevel(t *testing.T) {
	tests := map[string]logger.LogLevel{
		"debug":   logger.DEBUG,
		"INFO":    logger.INFO,
		"warn":    logger.WARNING,
		"warning": logger.WARNING,
		" error ": logger.ERROR,
	}
	for in, want := range tests {
		got, err := ParseLogLevel(in)
		if err != nil || got != want {
			t.Errorf("ParseLogLevel(%q): expected %v, got %v (%v)", in, want, got, err)
		}
	}
	if _, err := ParseLogLevel("verbose"); err == nil {
		t.Errorf("Expected an error for an unknown level")
	}
	if err := InitLoggers("verbose"); err == nil {
		t.Errorf("Expected InitLoggers to reject an unknown level")
	}
}

func TestConfigConversion(t *testing.T) {
	c := &Config{
		CreateIfMissing:     true,
		Sync:                true,
		WriteBufferSize:     1024,
		Compression:         "zstd",
		RemoteTimeoutSecond: 3,
		BackgroundThreads:   2,
	}

	ro := c.ToRegistryOptions()
	if ro.RemoteTimeout != 3*time.Second || ro.BackgroundThreads != 2 {
		t.Errorf("Unexpected registry options %+v", ro)
	}

	h := env.NewFailedHandle(env.BackendHdfs, "", env.NotCompiledError("hdfs"))
	opts, err := c.ToDBOptions(h)
	if err != nil {
		t.Fatalf("ToDBOptions failed: %v", err)
	}
	if !opts.CreateIfMissing || !opts.Sync || opts.WriteBufferSize != 1024 || opts.Compression != db.CompressionZstd || opts.Env != h {
		t.Errorf("Unexpected db options %+v", opts)
	}

	c.Compression = "gzip"
	if _, err := c.ToDBOptions(h); err == nil {
		t.Errorf("Expected an error for an unknown compression")
	}
}

func TestConfigString(t *testing.T) {
	s := (&Config{DBPath: "/data", LogLevel: "info"}).String()
	for _, want := range []string{"ENVIRONMENT", "(working directory)", "DATABASE", "/data", "LOGGING"} {
		if !strings.Contains(s, want) {
			t.Errorf("Expected %q in\n%s", want, s)
		}
	}
}
