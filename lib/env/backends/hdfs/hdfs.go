//go:build hdfs

package hdfs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"sync/atomic"
	"time"

	"github.com/ValentinKolb/eKV/lib/env"
	"github.com/colinmarc/hdfs/v2"
	"github.com/colinmarc/hdfs/v2/hadoopconf"
	"github.com/lni/dragonboat/v4/logger"
)

var log = logger.GetLogger("hdfs")

// Env is an environment backed by an HDFS cluster.
//
// Thread-safety: All methods are safe for concurrent use.
type Env struct {
	env.SystemClock

	args   Args
	client *hdfs.Client
	pool   *env.ThreadPool
	closed atomic.Bool
}

// New parses the URI and connects to the namenode.
func New(ctx context.Context, uri string) (env.Env, error) {
	args, err := ParseArgs(uri)
	if err != nil {
		return nil, err
	}
	return Dial(ctx, args)
}

type dialResult struct {
	client *hdfs.Client
	err    error
}

// Dial connects to the namenodes named in args and checks that the root
// directory is reachable. If ctx ends first the connection attempt is
// abandoned; a client that is established afterwards is closed.
func Dial(ctx context.Context, args Args) (*Env, error) {
	done := make(chan dialResult, 1)
	go func() {
		c, err := connect(args)
		done <- dialResult{client: c, err: err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return nil, env.WrapError(env.KindBackendConstructionFailed,
				fmt.Sprintf("cannot connect to %s", args), r.err)
		}
		log.Infof("connected to %s", args)
		return &Env{
			args:   args,
			client: r.client,
			pool:   env.NewThreadPool(0),
		}, nil

	case <-ctx.Done():
		go func() {
			if r := <-done; r.client != nil {
				_ = r.client.Close()
			}
		}()
		return nil, env.WrapError(env.KindBackendConstructionFailed,
			fmt.Sprintf("cannot connect to %s", args), ctx.Err())
	}
}

func connect(args Args) (*hdfs.Client, error) {
	var opts hdfs.ClientOptions
	if len(args.Addresses) == 0 {
		conf, err := hadoopconf.LoadFromEnvironment()
		if err != nil {
			return nil, err
		}
		opts = hdfs.ClientOptionsFromConf(conf)
		if len(opts.Addresses) == 0 {
			return nil, errors.New("no namenode configured in the hadoop configuration")
		}
	} else {
		opts.Addresses = args.Addresses
	}
	if args.User != "" {
		opts.User = args.User
	}

	client, err := hdfs.NewClient(opts)
	if err != nil {
		return nil, err
	}

	root := args.Root
	if root == "" {
		root = "/"
	}
	if _, err := client.Stat(root); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

// --------------------------------------------------------------------------
// Helpers
// --------------------------------------------------------------------------

func (e *Env) resolve(name string) string {
	if e.args.Root == "" || path.IsAbs(name) {
		return name
	}
	return path.Join(e.args.Root, name)
}

func (e *Env) checkOpen() error {
	if e.closed.Load() {
		return env.NewError(env.KindResourceAlreadyClosed, fmt.Sprintf("hdfs environment %s is closed", e.args))
	}
	return nil
}

// --------------------------------------------------------------------------
// Identity
// --------------------------------------------------------------------------

func (e *Env) Backend() env.Backend {
	return env.BackendHdfs
}

func (e *Env) Descriptor() string {
	return e.args.String()
}

func (e *Env) ValidatePath(p string) error {
	switch {
	case strings.TrimSpace(p) == "":
		return env.NewError(env.KindInvalidArgument, "empty path")
	case strings.ContainsRune(p, 0):
		return env.NewError(env.KindInvalidArgument, "path contains a NUL byte")
	case e.args.Root == "" && !path.IsAbs(p):
		return env.NewError(env.KindInvalidArgument, fmt.Sprintf("%s: hdfs environment without root requires an absolute path", p))
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
	r, err := e.client.Open(e.resolve(name))
	if err != nil {
		return nil, env.IOError(name, err)
	}
	return &sequentialFile{r: r, name: name}, nil
}

func (e *Env) NewRandomAccessFile(name string) (env.RandomAccessFile, error) {
	if err := e.checkOpen(); err != nil {
		return nil, err
	}
	r, err := e.client.Open(e.resolve(name))
	if err != nil {
		return nil, env.IOError(name, err)
	}
	return &randomAccessFile{r: r, name: name}, nil
}

func (e *Env) NewWritableFile(name string) (env.WritableFile, error) {
	if err := e.checkOpen(); err != nil {
		return nil, err
	}
	p := e.resolve(name)
	if err := e.client.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, env.IOError(name, err)
	}
	w, err := e.client.Create(p)
	if err != nil {
		return nil, env.IOError(name, err)
	}
	return &writableFile{w: w, name: name}, nil
}

func (e *Env) NewAppendableFile(name string) (env.WritableFile, error) {
	if err := e.checkOpen(); err != nil {
		return nil, err
	}
	p := e.resolve(name)
	w, err := e.client.Append(p)
	if errors.Is(err, os.ErrNotExist) {
		w, err = e.client.Create(p)
	}
	if err != nil {
		return nil, env.IOError(name, err)
	}
	return &writableFile{w: w, name: name}, nil
}

func (e *Env) FileExists(name string) (bool, error) {
	if err := e.checkOpen(); err != nil {
		return false, err
	}
	_, err := e.client.Stat(e.resolve(name))
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
	infos, err := e.client.ReadDir(e.resolve(dir))
	if err != nil {
		return nil, env.IOError(dir, err)
	}
	names := make([]string, 0, len(infos))
	for _, info := range infos {
		names = append(names, info.Name())
	}
	return names, nil
}

func (e *Env) DeleteFile(name string) error {
	if err := e.checkOpen(); err != nil {
		return err
	}
	return env.IOError(name, e.client.Remove(e.resolve(name)))
}

// RenameFile replaces target. HDFS refuses to rename onto an existing file.
func (e *Env) RenameFile(src, target string) error {
	if err := e.checkOpen(); err != nil {
		return err
	}
	t := e.resolve(target)
	if err := e.client.Remove(t); err != nil && !errors.Is(err, os.ErrNotExist) {
		return env.IOError(target, err)
	}
	return env.IOError(src, e.client.Rename(e.resolve(src), t))
}

func (e *Env) GetFileSize(name string) (uint64, error) {
	if err := e.checkOpen(); err != nil {
		return 0, err
	}
	info, err := e.client.Stat(e.resolve(name))
	if err != nil {
		return 0, env.IOError(name, err)
	}
	return uint64(info.Size()), nil
}

func (e *Env) GetFileModificationTime(name string) (time.Time, error) {
	if err := e.checkOpen(); err != nil {
		return time.Time{}, err
	}
	info, err := e.client.Stat(e.resolve(name))
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
	return env.IOError(name, e.client.Mkdir(e.resolve(name), 0o755))
}

func (e *Env) CreateDirIfMissing(name string) error {
	if err := e.checkOpen(); err != nil {
		return err
	}
	return env.IOError(name, e.client.MkdirAll(e.resolve(name), 0o755))
}

func (e *Env) DeleteDir(name string) error {
	return e.DeleteFile(name)
}

// --------------------------------------------------------------------------
// Locking
// --------------------------------------------------------------------------

type fileLock struct {
	name string
}

func (l *fileLock) Name() string {
	return l.name
}

// LockFile always succeeds.
func (e *Env) LockFile(name string) (env.FileLock, error) {
	if err := e.checkOpen(); err != nil {
		return nil, err
	}
	return &fileLock{name: e.resolve(name)}, nil
}

func (e *Env) UnlockFile(lock env.FileLock) error {
	if _, ok := lock.(*fileLock); !ok {
		return env.NewError(env.KindInvalidArgument, "lock was not acquired from an hdfs environment")
	}
	return nil
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

// Close waits for scheduled work and disconnects from the namenode.
func (e *Env) Close() error {
	if e.closed.Swap(true) {
		return e.checkOpen()
	}
	e.pool.Close()
	log.Infof("disconnecting from %s", e.args)
	return env.IOError("close hdfs client", e.client.Close())
}

// --------------------------------------------------------------------------
// File types
// --------------------------------------------------------------------------

type sequentialFile struct {
	r    *hdfs.FileReader
	name string
}

func (s *sequentialFile) Read(p []byte) (int, error) {
	n, err := s.r.Read(p)
	if err != nil && err != io.EOF {
		return n, env.IOError(s.name, err)
	}
	return n, err
}

func (s *sequentialFile) Skip(n int64) error {
	pos, err := s.r.Seek(0, io.SeekCurrent)
	if err != nil {
		return env.IOError(s.name, err)
	}
	target := pos + n
	if size := s.r.Stat().Size(); target > size {
		target = size
	}
	_, err = s.r.Seek(target, io.SeekStart)
	return env.IOError(s.name, err)
}

func (s *sequentialFile) Close() error {
	return env.IOError(s.name, s.r.Close())
}

type randomAccessFile struct {
	r    *hdfs.FileReader
	name string
}

func (r *randomAccessFile) ReadAt(p []byte, off int64) (int, error) {
	n, err := r.r.ReadAt(p, off)
	if err != nil && err != io.EOF {
		return n, env.IOError(r.name, err)
	}
	return n, err
}

func (r *randomAccessFile) Close() error {
	return env.IOError(r.name, r.r.Close())
}

type writableFile struct {
	w    *hdfs.FileWriter
	name string
}

func (w *writableFile) Write(p []byte) (int, error) {
	n, err := w.w.Write(p)
	return n, env.IOError(w.name, err)
}

func (w *writableFile) Flush() error {
	return env.IOError(w.name, w.w.Flush())
}

func (w *writableFile) Sync() error {
	return w.Flush()
}

func (w *writableFile) Close() error {
	return env.IOError(w.name, w.w.Close())
}
