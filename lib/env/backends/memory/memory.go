package memory

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ValentinKolb/eKV/lib/env"
	"github.com/google/btree"
	"github.com/lni/dragonboat/v4/logger"
)

var log = logger.GetLogger("memory")

// btreeDegree is the fan-out of the file table.
const btreeDegree = 16

// node is one entry of the file table (file, directory or lock file).
type node struct {
	name string
	file *memFile
}

func lessNode(a, b node) bool {
	return a.name < b.name
}

// Env is an in-memory environment. Files live in an ordered table keyed by
// their normalised path; directories are entries of their own. The clock is the
// wall clock shifted by the total amount of fake sleep.
//
// Thread-safety: All methods are safe for concurrent use.
type Env struct {
	name string

	mu     sync.Mutex
	files  *btree.BTreeG[node] // nil after Close
	pool   *env.ThreadPool
	closed atomic.Bool

	fakeSleepMicros atomic.Int64
}

// New creates an empty in-memory environment. The name is only used for
// identification and may be empty.
func New(name string) *Env {
	log.Debugf("created memory environment %q", name)
	return &Env{
		name:  name,
		files: btree.NewG[node](btreeDegree, lessNode),
		pool:  env.NewThreadPool(0),
	}
}

// --------------------------------------------------------------------------
// Helpers
// --------------------------------------------------------------------------

// normalizePath collapses repeated slashes and drops a trailing slash.
func normalizePath(p string) string {
	var sb strings.Builder
	sb.Grow(len(p))
	for i := 0; i < len(p); i++ {
		c := p[i]
		if c == '/' && sb.Len() > 0 && p[i-1] == '/' {
			continue
		}
		sb.WriteByte(c)
	}
	out := sb.String()
	if len(out) > 1 && strings.HasSuffix(out, "/") {
		out = out[:len(out)-1]
	}
	return out
}

// childPrefix returns the prefix shared by all entries below dir.
func childPrefix(dir string) string {
	if strings.HasSuffix(dir, "/") {
		return dir
	}
	return dir + "/"
}

func notFound(name string) error {
	return env.NewError(env.KindNotFound, fmt.Sprintf("%s: File not found", name))
}

func (e *Env) closedError() error {
	return env.NewError(env.KindResourceAlreadyClosed, fmt.Sprintf("memory environment %q is closed", e.name))
}

// lookup returns the entry for a normalised name. Callers hold e.mu.
func (e *Env) lookup(fn string) (*memFile, bool) {
	n, ok := e.files.Get(node{name: fn})
	return n.file, ok
}

// hasChildren reports whether any entry lives below fn. Callers hold e.mu.
func (e *Env) hasChildren(fn string) bool {
	prefix := childPrefix(fn)
	found := false
	e.files.AscendGreaterOrEqual(node{name: prefix}, func(n node) bool {
		found = strings.HasPrefix(n.name, prefix)
		return false
	})
	return found
}

// stat looks up any entry by its normalised name.
func (e *Env) stat(fn string) (*memFile, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.files == nil {
		return nil, e.closedError()
	}
	f, ok := e.lookup(fn)
	if !ok {
		return nil, notFound(fn)
	}
	return f, nil
}

// openFile looks up a regular file for reading.
func (e *Env) openFile(name string) (*memFile, error) {
	fn := normalizePath(name)

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.files == nil {
		return nil, e.closedError()
	}
	f, ok := e.lookup(fn)
	if !ok {
		return nil, notFound(fn)
	}
	if f.isLock {
		return nil, env.NewError(env.KindInvalidArgument, fmt.Sprintf("%s: Cannot open a lock file.", fn))
	}
	if f.isDir {
		return nil, env.NewError(env.KindInvalidArgument, fmt.Sprintf("%s: Is a directory", fn))
	}
	return f, nil
}

// --------------------------------------------------------------------------
// Identity
// --------------------------------------------------------------------------

func (e *Env) Backend() env.Backend {
	return env.BackendMemory
}

func (e *Env) Descriptor() string {
	return e.name
}

// ValidatePath accepts absolute, non-empty paths.
func (e *Env) ValidatePath(path string) error {
	switch {
	case path == "":
		return env.NewError(env.KindInvalidArgument, "empty path")
	case !strings.HasPrefix(path, "/"):
		return env.NewError(env.KindInvalidArgument, fmt.Sprintf("%s: memory environment requires an absolute path", path))
	case strings.ContainsRune(path, 0):
		return env.NewError(env.KindInvalidArgument, "path contains a NUL byte")
	}
	return nil
}

// --------------------------------------------------------------------------
// Files
// --------------------------------------------------------------------------

func (e *Env) NewSequentialFile(name string) (env.SequentialFile, error) {
	f, err := e.openFile(name)
	if err != nil {
		return nil, err
	}
	return &sequentialFile{file: f}, nil
}

func (e *Env) NewRandomAccessFile(name string) (env.RandomAccessFile, error) {
	f, err := e.openFile(name)
	if err != nil {
		return nil, err
	}
	return &randomAccessFile{file: f}, nil
}

func (e *Env) NewWritableFile(name string) (env.WritableFile, error) {
	fn := normalizePath(name)

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.files == nil {
		return nil, e.closedError()
	}
	f := newMemFile(e.NowMicros())
	e.files.ReplaceOrInsert(node{name: fn, file: f})
	return &writableFile{file: f, env: e}, nil
}

func (e *Env) NewAppendableFile(name string) (env.WritableFile, error) {
	fn := normalizePath(name)

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.files == nil {
		return nil, e.closedError()
	}
	f, ok := e.lookup(fn)
	if !ok {
		f = newMemFile(e.NowMicros())
		e.files.ReplaceOrInsert(node{name: fn, file: f})
	} else if f.isLock || f.isDir {
		return nil, env.NewError(env.KindInvalidArgument, fmt.Sprintf("%s: not a regular file", fn))
	}
	return &writableFile{file: f, env: e}, nil
}

func (e *Env) FileExists(name string) (bool, error) {
	fn := normalizePath(name)

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.files == nil {
		return false, e.closedError()
	}
	if _, ok := e.lookup(fn); ok {
		return true, nil
	}
	// also a directory if anything lives below it
	return e.hasChildren(fn), nil
}

func (e *Env) GetChildren(dir string) ([]string, error) {
	d := normalizePath(dir)
	prefix := childPrefix(d)

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.files == nil {
		return nil, e.closedError()
	}

	_, found := e.lookup(d)
	seen := make(map[string]struct{})
	children := make([]string, 0)

	e.files.AscendGreaterOrEqual(node{name: prefix}, func(n node) bool {
		if !strings.HasPrefix(n.name, prefix) {
			return false
		}
		found = true
		child := n.name[len(prefix):]
		if i := strings.IndexByte(child, '/'); i >= 0 {
			child = child[:i]
		}
		if _, dup := seen[child]; !dup {
			seen[child] = struct{}{}
			children = append(children, child)
		}
		return true
	})

	if !found {
		return nil, notFound(d)
	}
	return children, nil
}

func (e *Env) DeleteFile(name string) error {
	fn := normalizePath(name)

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.files == nil {
		return e.closedError()
	}
	if _, ok := e.files.Delete(node{name: fn}); !ok {
		return notFound(fn)
	}
	return nil
}

func (e *Env) RenameFile(src, target string) error {
	s := normalizePath(src)
	t := normalizePath(target)

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.files == nil {
		return e.closedError()
	}
	n, ok := e.files.Delete(node{name: s})
	if !ok {
		return notFound(s)
	}
	e.files.ReplaceOrInsert(node{name: t, file: n.file})
	return nil
}

func (e *Env) GetFileSize(name string) (uint64, error) {
	fn := normalizePath(name)

	f, err := e.stat(fn)
	if err != nil {
		return 0, err
	}
	return uint64(f.size()), nil
}

func (e *Env) GetFileModificationTime(name string) (time.Time, error) {
	fn := normalizePath(name)

	f, err := e.stat(fn)
	if err != nil {
		return time.Time{}, err
	}
	return time.UnixMicro(int64(f.modified())), nil
}

// Corrupt flips the byte at offset in the named file. It is used by tests to
// check that readers detect damaged data.
func (e *Env) Corrupt(name string, offset int) error {
	f, err := e.openFile(name)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if offset < 0 || offset >= len(f.data) {
		return env.NewError(env.KindInvalidArgument, fmt.Sprintf("offset %d outside of file", offset))
	}
	f.data[offset] ^= 0xff
	return nil
}

// --------------------------------------------------------------------------
// Directories
// --------------------------------------------------------------------------

func (e *Env) CreateDir(name string) error {
	dn := normalizePath(name)

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.files == nil {
		return e.closedError()
	}
	if _, ok := e.lookup(dn); ok {
		return env.NewError(env.KindIOError, fmt.Sprintf("%s: already exists", dn))
	}
	e.files.ReplaceOrInsert(node{name: dn, file: newMemDir(e.NowMicros())})
	return nil
}

func (e *Env) CreateDirIfMissing(name string) error {
	err := e.CreateDir(name)
	if env.KindOf(err) == env.KindIOError {
		return nil
	}
	return err
}

func (e *Env) DeleteDir(name string) error {
	return e.DeleteFile(name)
}

// --------------------------------------------------------------------------
// Locking
// --------------------------------------------------------------------------

type fileLock struct {
	name string
	env  *Env
}

func (l *fileLock) Name() string {
	return l.name
}

func (e *Env) LockFile(name string) (env.FileLock, error) {
	fn := normalizePath(name)

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.files == nil {
		return nil, e.closedError()
	}
	f, ok := e.lookup(fn)
	if !ok {
		f = newMemLock(e.NowMicros())
		e.files.ReplaceOrInsert(node{name: fn, file: f})
	} else if !f.isLock {
		return nil, env.NewError(env.KindInvalidArgument, fmt.Sprintf("%s: Not a lock file.", fn))
	}
	if !f.lock() {
		return nil, env.NewError(env.KindIOError, fmt.Sprintf("%s: Lock is already held.", fn))
	}
	return &fileLock{name: fn, env: e}, nil
}

func (e *Env) UnlockFile(lock env.FileLock) error {
	l, ok := lock.(*fileLock)
	if !ok || l.env != e {
		return env.NewError(env.KindInvalidArgument, "lock was not acquired from this environment")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.files == nil {
		return e.closedError()
	}
	if f, ok := e.lookup(l.name); ok {
		if !f.isLock {
			return env.NewError(env.KindInvalidArgument, fmt.Sprintf("%s: Not a lock file.", l.name))
		}
		f.unlock()
	}
	return nil
}

// --------------------------------------------------------------------------
// Threads & Clock
// --------------------------------------------------------------------------

func (e *Env) Schedule(fn func()) error {
	if e.closed.Load() {
		return e.closedError()
	}
	return e.pool.Schedule(fn)
}

func (e *Env) NowMicros() uint64 {
	return uint64(time.Now().UnixMicro() + e.fakeSleepMicros.Load())
}

func (e *Env) NowNanos() uint64 {
	return uint64(time.Now().UnixNano() + e.fakeSleepMicros.Load()*1000)
}

func (e *Env) GetCurrentTime() int64 {
	return time.Now().Unix() + e.fakeSleepMicros.Load()/1_000_000
}

// SleepForMicroseconds advances the fake clock instead of sleeping.
func (e *Env) SleepForMicroseconds(micros int64) {
	e.FakeSleepForMicroseconds(micros)
}

// FakeSleepForMicroseconds shifts the clock forward without sleeping.
func (e *Env) FakeSleepForMicroseconds(micros int64) {
	if micros > 0 {
		e.fakeSleepMicros.Add(micros)
	}
}

// Close waits for scheduled work and drops all files.
func (e *Env) Close() error {
	if e.closed.Swap(true) {
		return e.closedError()
	}
	e.pool.Close()

	e.mu.Lock()
	e.files = nil
	e.mu.Unlock()

	log.Debugf("closed memory environment %q", e.name)
	return nil
}
