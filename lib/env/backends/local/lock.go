package local

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/ValentinKolb/eKV/lib/env"
	"github.com/puzpuzpuz/xsync/v3"
)

// lockedFiles tracks the locks held by this process. OS file locks do not
// reliably exclude a second acquisition from the same process on every platform.
var lockedFiles = xsync.NewMapOf[string, struct{}]()

type fileLock struct {
	name     string // absolute path, key in lockedFiles
	f        *os.File
	env      *Env
	mu       sync.Mutex
	released bool
}

func (l *fileLock) Name() string {
	return l.name
}

func (e *Env) LockFile(name string) (env.FileLock, error) {
	if err := e.checkOpen(); err != nil {
		return nil, err
	}

	path, err := filepath.Abs(e.resolve(name))
	if err != nil {
		return nil, env.IOError(name, err)
	}

	if _, held := lockedFiles.LoadOrStore(path, struct{}{}); held {
		return nil, env.NewError(env.KindIOError, fmt.Sprintf("lock %s: already held by process", path))
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		lockedFiles.Delete(path)
		return nil, env.IOError("lock "+path, err)
	}
	if err := lockFD(f); err != nil {
		_ = f.Close()
		lockedFiles.Delete(path)
		return nil, env.IOError("lock "+path, err)
	}

	return &fileLock{name: path, f: f, env: e}, nil
}

func (e *Env) UnlockFile(lock env.FileLock) error {
	l, ok := lock.(*fileLock)
	if !ok || l.env != e {
		return env.NewError(env.KindInvalidArgument, "lock was not acquired from this environment")
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.released {
		// the table entry may already belong to a newer lock
		return env.NewError(env.KindResourceAlreadyClosed, fmt.Sprintf("lock %s: already released", l.name))
	}
	l.released = true

	unlockErr := unlockFD(l.f)
	closeErr := l.f.Close()
	lockedFiles.Delete(l.name)

	if unlockErr != nil {
		return env.IOError("unlock "+l.name, unlockErr)
	}
	return env.IOError("unlock "+l.name, closeErr)
}
