package memory

import (
	"errors"
	"io"
	"testing"

	"github.com/ValentinKolb/eKV/lib/env"
	envtesting "github.com/ValentinKolb/eKV/lib/env/testing"
)

func TestConformance(t *testing.T) {
	envtesting.RunEnvTests(t, "MemoryEnv", func(t *testing.T) (env.Env, string) {
		return New(t.Name()), "/db"
	})
}

func write(t *testing.T, e *Env, name, data string) {
	t.Helper()
	w, err := e.NewWritableFile(name)
	if err != nil {
		t.Fatalf("NewWritableFile(%s) failed: %v", name, err)
	}
	if _, err := w.Write([]byte(data)); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
}

func TestNormalizePath(t *testing.T) {
	tests := map[string]string{
		"/":          "/",
		"/a":         "/a",
		"/a/":        "/a",
		"//a///b//":  "/a/b",
		"/a/b/c.log": "/a/b/c.log",
	}
	for in, want := range tests {
		if got := normalizePath(in); got != want {
			t.Errorf("normalizePath(%q): expected %q, got %q", in, want, got)
		}
	}
}

func TestNormalizedNamesShareFiles(t *testing.T) {
	e := New("normalize")
	defer e.Close()

	write(t, e, "//db///CURRENT", "v1")

	size, err := e.GetFileSize("/db/CURRENT")
	if err != nil {
		t.Fatalf("GetFileSize failed: %v", err)
	}
	if size != 2 {
		t.Errorf("Expected size 2, got %d", size)
	}
}

func TestChildrenWithoutDirectoryEntry(t *testing.T) {
	e := New("children")
	defer e.Close()

	write(t, e, "/db/a/1", "x")
	write(t, e, "/db/a/2", "x")
	write(t, e, "/db/b", "x")

	children, err := e.GetChildren("/db")
	if err != nil {
		t.Fatalf("GetChildren failed: %v", err)
	}
	if len(children) != 2 || children[0] != "a" || children[1] != "b" {
		t.Errorf("Expected [a b], got %v", children)
	}

	exists, err := e.FileExists("/db/a")
	if err != nil || !exists {
		t.Errorf("Expected implicit directory to exist, got %v (%v)", exists, err)
	}
}

func TestLockFileCannotBeOpened(t *testing.T) {
	e := New("locks")
	defer e.Close()

	lock, err := e.LockFile("/db/LOCK")
	if err != nil {
		t.Fatalf("LockFile failed: %v", err)
	}

	_, err = e.NewSequentialFile("/db/LOCK")
	if !errors.Is(err, env.ErrInvalidArgument) {
		t.Errorf("Expected InvalidArgument when opening a lock file, got %v", err)
	}

	write(t, e, "/db/DATA", "x")
	if _, err := e.LockFile("/db/DATA"); !errors.Is(err, env.ErrInvalidArgument) {
		t.Errorf("Expected InvalidArgument when locking a data file, got %v", err)
	}

	if err := e.UnlockFile(lock); err != nil {
		t.Errorf("UnlockFile failed: %v", err)
	}

	other := New("other")
	defer other.Close()
	if err := other.UnlockFile(lock); !errors.Is(err, env.ErrInvalidArgument) {
		t.Errorf("Expected InvalidArgument for a foreign lock, got %v", err)
	}
}

func TestValidatePath(t *testing.T) {
	e := New("validate")
	defer e.Close()

	if err := e.ValidatePath("/tmp/db"); err != nil {
		t.Errorf("Expected absolute path to be valid, got %v", err)
	}
	for _, p := range []string{"", "relative/db", "/a\x00b"} {
		if err := e.ValidatePath(p); !errors.Is(err, env.ErrInvalidArgument) {
			t.Errorf("Expected InvalidArgument for %q, got %v", p, err)
		}
	}
}

func TestCorrupt(t *testing.T) {
	e := New("corrupt")
	defer e.Close()

	write(t, e, "/db/TABLE", "abc")
	if err := e.Corrupt("/db/TABLE", 1); err != nil {
		t.Fatalf("Corrupt failed: %v", err)
	}

	r, _ := e.NewSequentialFile("/db/TABLE")
	data, _ := io.ReadAll(r)
	if data[1] != 'b'^0xff {
		t.Errorf("Expected byte 1 to be flipped, got %q", data)
	}

	if err := e.Corrupt("/db/TABLE", 3); !errors.Is(err, env.ErrInvalidArgument) {
		t.Errorf("Expected InvalidArgument for an offset past the end, got %v", err)
	}
}

func TestFakeSleep(t *testing.T) {
	e := New("clock")
	defer e.Close()

	start := e.NowMicros()
	e.FakeSleepForMicroseconds(3_600_000_000)

	if got := e.NowMicros() - start; got < 3_600_000_000 {
		t.Errorf("Expected the clock to advance by an hour, got %dus", got)
	}
	if got := e.NowNanos() / 1000; got < start+3_600_000_000 {
		t.Errorf("Expected NowNanos to follow the fake clock")
	}
}

func TestClosedEnvDropsFiles(t *testing.T) {
	e := New("closed")
	write(t, e, "/db/x", "x")

	if err := e.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if _, err := e.GetFileSize("/db/x"); !errors.Is(err, env.ErrResourceAlreadyClosed) {
		t.Errorf("Expected ResourceAlreadyClosed, got %v", err)
	}
}
