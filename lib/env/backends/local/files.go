package local

import (
	"bufio"
	"io"
	"os"

	"github.com/ValentinKolb/eKV/lib/env"
)

// writeBufferSize is the buffer size of writable files.
const writeBufferSize = 64 * 1024

// --------------------------------------------------------------------------
// Sequential reads
// --------------------------------------------------------------------------

type sequentialFile struct {
	f *os.File
}

func (s *sequentialFile) Read(p []byte) (int, error) {
	n, err := s.f.Read(p)
	if err != nil && err != io.EOF {
		return n, env.IOError(s.f.Name(), err)
	}
	return n, err
}

// Skip seeks forward, stopping at the end of the file.
func (s *sequentialFile) Skip(n int64) error {
	pos, err := s.f.Seek(0, io.SeekCurrent)
	if err != nil {
		return env.IOError(s.f.Name(), err)
	}
	info, err := s.f.Stat()
	if err != nil {
		return env.IOError(s.f.Name(), err)
	}
	target := pos + n
	if target > info.Size() {
		target = info.Size()
	}
	_, err = s.f.Seek(target, io.SeekStart)
	return env.IOError(s.f.Name(), err)
}

func (s *sequentialFile) Close() error {
	return env.IOError(s.f.Name(), s.f.Close())
}

// --------------------------------------------------------------------------
// Random reads
// --------------------------------------------------------------------------

type randomAccessFile struct {
	f *os.File
}

func (r *randomAccessFile) ReadAt(p []byte, off int64) (int, error) {
	n, err := r.f.ReadAt(p, off)
	if err != nil && err != io.EOF {
		return n, env.IOError(r.f.Name(), err)
	}
	return n, err
}

func (r *randomAccessFile) Close() error {
	return env.IOError(r.f.Name(), r.f.Close())
}

// --------------------------------------------------------------------------
// Writes
// --------------------------------------------------------------------------

type writableFile struct {
	f  *os.File
	bw *bufio.Writer
}

func newWritableFile(f *os.File) *writableFile {
	return &writableFile{
		f:  f,
		bw: bufio.NewWriterSize(f, writeBufferSize),
	}
}

func (w *writableFile) Write(p []byte) (int, error) {
	n, err := w.bw.Write(p)
	return n, env.IOError(w.f.Name(), err)
}

func (w *writableFile) Flush() error {
	return env.IOError(w.f.Name(), w.bw.Flush())
}

func (w *writableFile) Sync() error {
	if err := w.Flush(); err != nil {
		return err
	}
	return env.IOError(w.f.Name(), w.f.Sync())
}

func (w *writableFile) Close() error {
	flushErr := w.Flush()
	closeErr := env.IOError(w.f.Name(), w.f.Close())
	if flushErr != nil {
		return flushErr
	}
	return closeErr
}
