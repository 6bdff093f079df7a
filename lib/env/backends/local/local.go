package local

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/ValentinKolb/eKV/lib/env"
	"github.com/lni/dragonboat/v4/logger"
)

var log = logger.GetLogger("local")

// Options configures a local environment.
type Options struct {
	Root              string // Directory that relative names are resolved against ("" = working directory)
	BackgroundThreads int    // Size of the background pool (0 = number of CPUs)
}

// Env is an environment backed by the local filesystem.
//
// Thread-safety: All methods are safe for concurrent use.
type Env struct {
	env.SystemClock

	root   string
	pool   *env.ThreadPool
	closed atomic.Bool
}

// New creates a local environment. The root, if given, must be an existing
// directory; relative file names are resolved against it.
func New(opts Options) (*Env, error) {
	if opts.Root != "" {
		info, err := os.Stat(opts.Root)
		if err != nil {
			return nil, env.WrapError(env.KindBackendConstructionFailed,
				fmt.Sprintf("local root %s is not accessible", opts.Root), err)
		}
		if !info.IsDir() {
			return nil, env.NewError(env.KindBackendConstructionFailed,
				fmt.Sprintf("local root %s is not a directory", opts.Root))
		}
	}

	log.Debugf("created local environment (root=%q)", opts.Root)
	return &Env{
		root: opts.Root,
		pool: env.NewThreadPool(opts.BackgroundThreads),
	}, nil
}

// resolve maps a name to an OS path.
func (e *Env) resolve(name string) string {
	if e.root == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(e.root, name)
}

func (e *Env) checkOpen() error {
	if e.closed.Load() {
		return env.NewError(env.KindResourceAlreadyClosed, "local environment is closed")
	}
	return nil
}

// --------------------------------------------------------------------------
// Identity
// --------------------------------------------------------------------------

func (e *Env) Backend() env.Backend {
	return env.BackendLocal
}

func (e *Env) Descriptor() string {
	return e.root
}

func (e *Env) ValidatePath(path string) error {
	switch {
	case strings.TrimSpace(path) == "":
		return env.NewError(env.KindInvalidArgument, "empty path")
	case strings.ContainsRune(path, 0):
		return env.NewError(env.KindInvalidArgument, "path contains a NUL byte")
	}

	info, err := os.Stat(e.resolve(path))
	if err == nil && !info.IsDir() {
		return env.NewError(env.KindInvalidArgument, fmt.Sprintf("%s: not a directory", path))
	}
	return nil
}

// --------------------------------------------------------------------------
// Files
// --------------------------------------------------------------------------

func (e *Env) NewSequentialFile(name string) (env.SequentialFile, error) {
	if err := e.checkOpen(); err != nil {
		return nil, err
	}
	f, err := os.Open(e.resolve(name))
	if err != nil {
		return nil, env.IOError(name, err)
	}
	return &sequentialFile{f: f}, nil
}

func (e *Env) NewRandomAccessFile(name string) (env.RandomAccessFile, error) {
	if err := e.checkOpen(); err != nil {
		return nil, err
	}
	f, err := os.Open(e.resolve(name))
	if err != nil {
		return nil, env.IOError(name, err)
	}
	return &randomAccessFile{f: f}, nil
}

func (e *Env) NewWritableFile(name string) (env.WritableFile, error) {
	return e.openWritable(name, os.O_CREATE|os.O_TRUNC|os.O_WRONLY)
}

func (e *Env) NewAppendableFile(name string) (env.WritableFile, error) {
	return e.openWritable(name, os.O_CREATE|os.O_APPEND|os.O_WRONLY)
}

func (e *Env) openWritable(name string, flag int) (env.WritableFile, error) {
	if err := e.checkOpen(); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(e.resolve(name), flag, 0o644)
	if err != nil {
		return nil, env.IOError(name, err)
	}
	return newWritableFile(f), nil
}

func (e *Env) FileExists(name string) (bool, error) {
	if err := e.checkOpen(); err != nil {
		return false, err
	}
	_, err := os.Stat(e.resolve(name))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, os.ErrNotExist):
		return false, nil
	default:
		return false, env.IOError(name, err)
	}
}

func (e *Env) GetChildren(dir string) ([]string, error) {
	if err := e.checkOpen(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(e.resolve(dir))
	if err != nil {
		return nil, env.IOError(dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	return names, nil
}

func (e *Env) DeleteFile(name string) error {
	if err := e.checkOpen(); err != nil {
		return err
	}
	return env.IOError(name, os.Remove(e.resolve(name)))
}

func (e *Env) RenameFile(src, target string) error {
	if err := e.checkOpen(); err != nil {
		return err
	}
	return env.IOError(src, os.Rename(e.resolve(src), e.resolve(target)))
}

func (e *Env) GetFileSize(name string) (uint64, error) {
	if err := e.checkOpen(); err != nil {
		return 0, err
	}
	info, err := os.Stat(e.resolve(name))
	if err != nil {
		return 0, env.IOError(name, err)
	}
	return uint64(info.Size()), nil
}

func (e *Env) GetFileModificationTime(name string) (time.Time, error) {
	if err := e.checkOpen(); err != nil {
		return time.Time{}, err
	}
	info, err := os.Stat(e.resolve(name))
	if err != nil {
		return time.Time{}, env.IOError(name, err)
	}
	return info.ModTime(), nil
}

// --------------------------------------------------------------------------
// Directories
// --------------------------------------------------------------------------

func (e *Env) CreateDir(name string) error {
	if err := e.checkOpen(); err != nil {
		return err
	}
	return env.IOError(name, os.Mkdir(e.resolve(name), 0o755))
}

func (e *Env) CreateDirIfMissing(name string) error {
	if err := e.checkOpen(); err != nil {
		return err
	}
	return env.IOError(name, os.MkdirAll(e.resolve(name), 0o755))
}

func (e *Env) DeleteDir(name string) error {
	if err := e.checkOpen(); err != nil {
		return err
	}
	return env.IOError(name, os.Remove(e.resolve(name)))
}

// --------------------------------------------------------------------------
// Threads
// --------------------------------------------------------------------------

func (e *Env) Schedule(fn func()) error {
	if err := e.checkOpen(); err != nil {
		return err
	}
	return e.pool.Schedule(fn)
}

// Close waits for scheduled work. Locks held through this environment stay
// held until they are unlocked.
func (e *Env) Close() error {
	if e.closed.Swap(true) {
		return env.NewError(env.KindResourceAlreadyClosed, "local environment is closed")
	}
	e.pool.Close()
	log.Debugf("closed local environment (root=%q)", e.root)
	return nil
}
