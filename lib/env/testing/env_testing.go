package testing

import (
	"bytes"
	"errors"
	"io"
	"path"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ValentinKolb/eKV/lib/env"
)

// EnvFactory creates a fresh environment together with a base directory
// that the tests may use. The directory need not exist yet.
type EnvFactory func(t *testing.T) (env.Env, string)

// RunEnvTests runs the conformance suite against an env.Env implementation.
// Environments that are still open at the end of a test are closed.
func RunEnvTests(t *testing.T, name string, factory EnvFactory) {
	t.Run(name, func(t *testing.T) {
		t.Run("WriteRead", func(t *testing.T) {
			testWriteRead(t, setup(t, factory))
		})

		t.Run("Append", func(t *testing.T) {
			testAppend(t, setup(t, factory))
		})

		t.Run("Skip", func(t *testing.T) {
			testSkip(t, setup(t, factory))
		})

		t.Run("RandomAccess", func(t *testing.T) {
			testRandomAccess(t, setup(t, factory))
		})

		t.Run("FileMetadata", func(t *testing.T) {
			testFileMetadata(t, setup(t, factory))
		})

		t.Run("MissingFiles", func(t *testing.T) {
			testMissingFiles(t, setup(t, factory))
		})

		t.Run("Children", func(t *testing.T) {
			testChildren(t, setup(t, factory))
		})

		t.Run("Rename", func(t *testing.T) {
			testRename(t, setup(t, factory))
		})

		t.Run("Directories", func(t *testing.T) {
			testDirectories(t, setup(t, factory))
		})

		t.Run("Locks", func(t *testing.T) {
			testLocks(t, setup(t, factory))
		})

		t.Run("Schedule", func(t *testing.T) {
			testSchedule(t, setup(t, factory))
		})

		t.Run("Clock", func(t *testing.T) {
			testClock(t, setup(t, factory))
		})

		t.Run("Close", func(t *testing.T) {
			testClose(t, setup(t, factory))
		})
	})
}

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

type fixture struct {
	env  env.Env
	base string
}

func (f fixture) path(name string) string {
	return path.Join(f.base, name)
}

// setup creates the environment and its base directory and closes the
// environment when the test ends.
func setup(t *testing.T, factory EnvFactory) fixture {
	t.Helper()

	e, base := factory(t)
	t.Cleanup(func() {
		if err := e.Close(); err != nil && !errors.Is(err, env.ErrResourceAlreadyClosed) {
			t.Errorf("Close failed: %v", err)
		}
	})

	if err := e.CreateDirIfMissing(base); err != nil {
		t.Fatalf("CreateDirIfMissing(%s) failed: %v", base, err)
	}
	return fixture{env: e, base: base}
}

func writeFile(t *testing.T, e env.Env, name string, data []byte) {
	t.Helper()

	w, err := e.NewWritableFile(name)
	if err != nil {
		t.Fatalf("NewWritableFile(%s) failed: %v", name, err)
	}
	if _, err := w.Write(data); err != nil {
		t.Fatalf("Write(%s) failed: %v", name, err)
	}
	if err := w.Sync(); err != nil {
		t.Fatalf("Sync(%s) failed: %v", name, err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close(%s) failed: %v", name, err)
	}
}

func readFile(t *testing.T, e env.Env, name string) []byte {
	t.Helper()

	r, err := e.NewSequentialFile(name)
	if err != nil {
		t.Fatalf("NewSequentialFile(%s) failed: %v", name, err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("Read(%s) failed: %v", name, err)
	}
	return data
}

func requireKind(t *testing.T, err error, kind env.Kind, what string) {
	t.Helper()

	if err == nil {
		t.Errorf("Expected %s to fail with %s", what, kind)
		return
	}
	if got := env.KindOf(err); got != kind {
		t.Errorf("Expected %s to fail with %s, got %s (%v)", what, kind, got, err)
	}
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testWriteRead(t *testing.T, f fixture) {
	name := f.path("data")
	value := []byte("hello environment")

	writeFile(t, f.env, name, value)

	if got := readFile(t, f.env, name); !bytes.Equal(got, value) {
		t.Errorf("Expected %q, got %q", value, got)
	}

	// a new writable file replaces the old content
	writeFile(t, f.env, name, []byte("short"))
	if got := readFile(t, f.env, name); string(got) != "short" {
		t.Errorf("Expected %q after rewrite, got %q", "short", got)
	}

	// empty files are valid
	writeFile(t, f.env, f.path("empty"), nil)
	if got := readFile(t, f.env, f.path("empty")); len(got) != 0 {
		t.Errorf("Expected empty file, got %d bytes", len(got))
	}
}

func testAppend(t *testing.T, f fixture) {
	name := f.path("log")

	for _, chunk := range []string{"one,", "two,", "three"} {
		w, err := f.env.NewAppendableFile(name)
		if err != nil {
			t.Fatalf("NewAppendableFile failed: %v", err)
		}
		if _, err := w.Write([]byte(chunk)); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
		if err := w.Close(); err != nil {
			t.Fatalf("Close failed: %v", err)
		}
	}

	if got := readFile(t, f.env, name); string(got) != "one,two,three" {
		t.Errorf("Expected %q, got %q", "one,two,three", got)
	}
}

func testSkip(t *testing.T, f fixture) {
	name := f.path("skip")
	writeFile(t, f.env, name, []byte("0123456789"))

	r, err := f.env.NewSequentialFile(name)
	if err != nil {
		t.Fatalf("NewSequentialFile failed: %v", err)
	}
	defer r.Close()

	buf := make([]byte, 2)
	if _, err := io.ReadFull(r, buf); err != nil || string(buf) != "01" {
		t.Fatalf("Expected %q, got %q (%v)", "01", buf, err)
	}
	if err := r.Skip(3); err != nil {
		t.Fatalf("Skip failed: %v", err)
	}
	if _, err := io.ReadFull(r, buf); err != nil || string(buf) != "56" {
		t.Fatalf("Expected %q after skip, got %q (%v)", "56", buf, err)
	}

	// skipping past the end stops at the end
	if err := r.Skip(100); err != nil {
		t.Fatalf("Skip past end failed: %v", err)
	}
	if n, err := r.Read(buf); n != 0 || err != io.EOF {
		t.Errorf("Expected EOF after skipping past the end, got n=%d err=%v", n, err)
	}
}

func testRandomAccess(t *testing.T, f fixture) {
	name := f.path("random")
	writeFile(t, f.env, name, []byte("abcdefghij"))

	r, err := f.env.NewRandomAccessFile(name)
	if err != nil {
		t.Fatalf("NewRandomAccessFile failed: %v", err)
	}
	defer r.Close()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(off int64) {
			defer wg.Done()
			buf := make([]byte, 2)
			if _, err := r.ReadAt(buf, off); err != nil {
				t.Errorf("ReadAt(%d) failed: %v", off, err)
				return
			}
			want := "abcdefghij"[off : off+2]
			if string(buf) != want {
				t.Errorf("ReadAt(%d): expected %q, got %q", off, want, buf)
			}
		}(int64(i))
	}
	wg.Wait()

	buf := make([]byte, 4)
	n, err := r.ReadAt(buf, 8)
	if n != 2 || err != io.EOF {
		t.Errorf("Expected short read with EOF at the end, got n=%d err=%v", n, err)
	}
}

func testFileMetadata(t *testing.T, f fixture) {
	name := f.path("meta")
	before := time.Now().Add(-time.Minute)
	writeFile(t, f.env, name, []byte("12345"))

	size, err := f.env.GetFileSize(name)
	if err != nil {
		t.Fatalf("GetFileSize failed: %v", err)
	}
	if size != 5 {
		t.Errorf("Expected size 5, got %d", size)
	}

	mtime, err := f.env.GetFileModificationTime(name)
	if err != nil {
		t.Fatalf("GetFileModificationTime failed: %v", err)
	}
	if mtime.Before(before) {
		t.Errorf("Modification time %v is older than the write", mtime)
	}

	exists, err := f.env.FileExists(name)
	if err != nil || !exists {
		t.Errorf("Expected file to exist, got %v (%v)", exists, err)
	}
}

func testMissingFiles(t *testing.T, f fixture) {
	name := f.path("does-not-exist")

	exists, err := f.env.FileExists(name)
	if err != nil {
		t.Fatalf("FileExists failed: %v", err)
	}
	if exists {
		t.Errorf("Expected missing file not to exist")
	}

	_, err = f.env.NewSequentialFile(name)
	requireKind(t, err, env.KindNotFound, "NewSequentialFile")

	_, err = f.env.NewRandomAccessFile(name)
	requireKind(t, err, env.KindNotFound, "NewRandomAccessFile")

	_, err = f.env.GetFileSize(name)
	requireKind(t, err, env.KindNotFound, "GetFileSize")

	_, err = f.env.GetFileModificationTime(name)
	requireKind(t, err, env.KindNotFound, "GetFileModificationTime")

	requireKind(t, f.env.DeleteFile(name), env.KindNotFound, "DeleteFile")
	requireKind(t, f.env.RenameFile(name, f.path("other")), env.KindNotFound, "RenameFile")

	_, err = f.env.GetChildren(f.path("missing-dir"))
	requireKind(t, err, env.KindNotFound, "GetChildren")
}

func testChildren(t *testing.T, f fixture) {
	dir := f.path("children")
	if err := f.env.CreateDir(dir); err != nil {
		t.Fatalf("CreateDir failed: %v", err)
	}

	children, err := f.env.GetChildren(dir)
	if err != nil {
		t.Fatalf("GetChildren on empty dir failed: %v", err)
	}
	if len(children) != 0 {
		t.Errorf("Expected no children, got %v", children)
	}

	for _, name := range []string{"c", "a", "b"} {
		writeFile(t, f.env, path.Join(dir, name), []byte(name))
	}
	if err := f.env.CreateDir(path.Join(dir, "sub")); err != nil {
		t.Fatalf("CreateDir(sub) failed: %v", err)
	}
	writeFile(t, f.env, path.Join(dir, "sub", "nested"), []byte("x"))

	children, err = f.env.GetChildren(dir)
	if err != nil {
		t.Fatalf("GetChildren failed: %v", err)
	}
	sort.Strings(children)

	want := []string{"a", "b", "c", "sub"}
	if len(children) != len(want) {
		t.Fatalf("Expected children %v, got %v", want, children)
	}
	for i := range want {
		if children[i] != want[i] {
			t.Errorf("Expected children %v, got %v", want, children)
			break
		}
	}
}

func testRename(t *testing.T, f fixture) {
	src := f.path("src")
	dst := f.path("dst")

	writeFile(t, f.env, src, []byte("payload"))
	writeFile(t, f.env, dst, []byte("old"))

	if err := f.env.RenameFile(src, dst); err != nil {
		t.Fatalf("RenameFile failed: %v", err)
	}

	if exists, _ := f.env.FileExists(src); exists {
		t.Errorf("Expected source to be gone after rename")
	}
	if got := readFile(t, f.env, dst); string(got) != "payload" {
		t.Errorf("Expected target to be replaced, got %q", got)
	}
}

func testDirectories(t *testing.T, f fixture) {
	dir := f.path("dir")

	if err := f.env.CreateDir(dir); err != nil {
		t.Fatalf("CreateDir failed: %v", err)
	}
	requireKind(t, f.env.CreateDir(dir), env.KindIOError, "CreateDir on an existing directory")

	if err := f.env.CreateDirIfMissing(dir); err != nil {
		t.Errorf("CreateDirIfMissing on an existing directory failed: %v", err)
	}

	exists, err := f.env.FileExists(dir)
	if err != nil || !exists {
		t.Errorf("Expected directory to exist, got %v (%v)", exists, err)
	}

	if err := f.env.DeleteDir(dir); err != nil {
		t.Fatalf("DeleteDir failed: %v", err)
	}
	if exists, _ := f.env.FileExists(dir); exists {
		t.Errorf("Expected directory to be gone")
	}
}

func testLocks(t *testing.T, f fixture) {
	name := f.path("LOCK")

	lock, err := f.env.LockFile(name)
	if err != nil {
		t.Fatalf("LockFile failed: %v", err)
	}
	if lock.Name() == "" {
		t.Errorf("Expected lock to have a name")
	}

	_, err = f.env.LockFile(name)
	requireKind(t, err, env.KindIOError, "LockFile on a held lock")

	if err := f.env.UnlockFile(lock); err != nil {
		t.Fatalf("UnlockFile failed: %v", err)
	}

	lock, err = f.env.LockFile(name)
	if err != nil {
		t.Fatalf("LockFile after unlock failed: %v", err)
	}
	if err := f.env.UnlockFile(lock); err != nil {
		t.Errorf("UnlockFile failed: %v", err)
	}
}

func testSchedule(t *testing.T, f fixture) {
	const jobs = 64

	var (
		done atomic.Int32
		wg   sync.WaitGroup
	)
	wg.Add(jobs)
	for i := 0; i < jobs; i++ {
		err := f.env.Schedule(func() {
			defer wg.Done()
			done.Add(1)
		})
		if err != nil {
			wg.Done()
			t.Fatalf("Schedule failed: %v", err)
		}
	}
	wg.Wait()

	if got := done.Load(); got != jobs {
		t.Errorf("Expected %d jobs to run, got %d", jobs, got)
	}
}

func testClock(t *testing.T, f fixture) {
	micros := f.env.NowMicros()
	nanos := f.env.NowNanos()
	if micros == 0 || nanos == 0 {
		t.Fatalf("Expected a running clock, got micros=%d nanos=%d", micros, nanos)
	}

	f.env.SleepForMicroseconds(1000)

	if after := f.env.NowMicros(); after < micros+1000 {
		t.Errorf("Expected the clock to advance by at least 1ms, got %dus", after-micros)
	}
	if secs := f.env.GetCurrentTime(); secs < time.Now().Add(-time.Hour).Unix() {
		t.Errorf("GetCurrentTime is far in the past: %d", secs)
	}
}

func testClose(t *testing.T, f fixture) {
	var ran atomic.Bool
	if err := f.env.Schedule(func() {
		time.Sleep(10 * time.Millisecond)
		ran.Store(true)
	}); err != nil {
		t.Fatalf("Schedule failed: %v", err)
	}

	if err := f.env.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if !ran.Load() {
		t.Errorf("Expected Close to wait for scheduled work")
	}

	requireKind(t, f.env.Schedule(func() {}), env.KindResourceAlreadyClosed, "Schedule after Close")
	requireKind(t, f.env.Close(), env.KindResourceAlreadyClosed, "second Close")

	_, err := f.env.NewWritableFile(f.path("after-close"))
	requireKind(t, err, env.KindResourceAlreadyClosed, "NewWritableFile after Close")
}
