package memory

import (
	"io"
	"sync"

	"github.com/ValentinKolb/eKV/lib/env"
)

// memFile is the shared state behind all open instances of one file.
type memFile struct {
	mu       sync.RWMutex
	data     []byte
	modMicro uint64
	isDir    bool
	isLock   bool
	locked   bool
}

func newMemFile(now uint64) *memFile {
	return &memFile{modMicro: now}
}

func newMemDir(now uint64) *memFile {
	return &memFile{modMicro: now, isDir: true}
}

func newMemLock(now uint64) *memFile {
	return &memFile{modMicro: now, isLock: true}
}

func (f *memFile) size() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.data)
}

func (f *memFile) modified() uint64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.modMicro
}

// lock returns false if the lock is already held.
func (f *memFile) lock() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.locked {
		return false
	}
	f.locked = true
	return true
}

func (f *memFile) unlock() {
	f.mu.Lock()
	f.locked = false
	f.mu.Unlock()
}

// readAt copies data starting at off into p.
func (f *memFile) readAt(p []byte, off int64) (int, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if off >= int64(len(f.data)) {
		return 0, io.EOF
	}
	n := copy(p, f.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// --------------------------------------------------------------------------
// Sequential reads
// --------------------------------------------------------------------------

type sequentialFile struct {
	file   *memFile
	pos    int64
	closed bool
}

func (s *sequentialFile) Read(p []byte) (int, error) {
	if s.closed {
		return 0, env.NewError(env.KindResourceAlreadyClosed, "file is closed")
	}
	if len(p) == 0 {
		return 0, nil
	}
	n, err := s.file.readAt(p, s.pos)
	s.pos += int64(n)
	if n > 0 && err == io.EOF {
		err = nil
	}
	return n, err
}

func (s *sequentialFile) Skip(n int64) error {
	if s.closed {
		return env.NewError(env.KindResourceAlreadyClosed, "file is closed")
	}
	size := int64(s.file.size())
	s.pos += n
	if s.pos > size {
		s.pos = size
	}
	return nil
}

func (s *sequentialFile) Close() error {
	s.closed = true
	return nil
}

// --------------------------------------------------------------------------
// Random reads
// --------------------------------------------------------------------------

type randomAccessFile struct {
	file *memFile
}

func (r *randomAccessFile) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, env.NewError(env.KindInvalidArgument, "negative offset")
	}
	return r.file.readAt(p, off)
}

func (r *randomAccessFile) Close() error {
	return nil
}

// --------------------------------------------------------------------------
// Writes
// --------------------------------------------------------------------------

// writableFile appends straight into the shared buffer, so Flush and Sync have
// nothing to do besides rejecting use after Close.
type writableFile struct {
	file   *memFile
	env    *Env
	closed bool
}

func (w *writableFile) Write(p []byte) (int, error) {
	if w.closed {
		return 0, env.NewError(env.KindResourceAlreadyClosed, "file is closed")
	}
	w.file.mu.Lock()
	w.file.data = append(w.file.data, p...)
	w.file.modMicro = w.env.NowMicros()
	w.file.mu.Unlock()
	return len(p), nil
}

func (w *writableFile) Flush() error {
	if w.closed {
		return env.NewError(env.KindResourceAlreadyClosed, "file is closed")
	}
	return nil
}

func (w *writableFile) Sync() error {
	return w.Flush()
}

func (w *writableFile) Close() error {
	if w.closed {
		return env.NewError(env.KindResourceAlreadyClosed, "file is closed")
	}
	w.closed = true
	return nil
}
