package db

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"

	"github.com/ValentinKolb/eKV/lib/db/internal"
	"github.com/ValentinKolb/eKV/lib/env"
)

// frameOverhead is Len(4) + CRC(4) around every logged record.
const frameOverhead = 8

// maxRecordSize bounds the length field so that a damaged length does not
// cause a huge allocation during recovery.
const maxRecordSize = 1 << 30

// --------------------------------------------------------------------------
// Writer
// --------------------------------------------------------------------------

// walWriter appends framed records to the log.
// Format per record: Len(4) | Data(N) | CRC(4), big endian, CRC over Data.
type walWriter struct {
	f    env.WritableFile
	name string
	sync bool
	size int64
	buf  []byte
}

// newWAL creates an empty log, replacing an existing one.
func newWAL(e env.Env, name string, sync bool) (*walWriter, error) {
	f, err := e.NewWritableFile(name)
	if err != nil {
		return nil, err
	}
	return &walWriter{f: f, name: name, sync: sync}, nil
}

// append writes one record and hands it to the backend. With sync set the
// record is durable when append returns.
func (w *walWriter) append(rec *internal.Record) (int, error) {
	w.buf = w.buf[:0]
	w.buf = binary.BigEndian.AppendUint32(w.buf, uint32(rec.SizeBytes()))
	w.buf = rec.AppendTo(w.buf)
	w.buf = binary.BigEndian.AppendUint32(w.buf, crc32.ChecksumIEEE(w.buf[4:]))

	if _, err := w.f.Write(w.buf); err != nil {
		return 0, env.IOError(w.name, err)
	}
	var err error
	if w.sync {
		err = w.f.Sync()
	} else {
		err = w.f.Flush()
	}
	if err != nil {
		return 0, env.IOError(w.name, err)
	}
	w.size += int64(len(w.buf))
	return len(w.buf), nil
}

func (w *walWriter) close() error {
	if err := w.f.Sync(); err != nil {
		_ = w.f.Close()
		return err
	}
	return w.f.Close()
}

// --------------------------------------------------------------------------
// Recovery
// --------------------------------------------------------------------------

// errTornRecord marks a record that was only partly written.
var errTornRecord = errors.New("incomplete record at end of log")

// replayWAL calls fn for every intact record of the log in order. It stops at
// the first damaged record and reports it as damage; err is only set for
// I/O failures and errors returned by fn. A missing log is empty.
func replayWAL(e env.Env, name string, fn func(*internal.Record) error) (records int, damage error, err error) {
	f, err := e.NewSequentialFile(name)
	if env.KindOf(err) == env.KindNotFound {
		return 0, nil, nil
	}
	if err != nil {
		return 0, nil, err
	}
	defer f.Close()

	r := bufio.NewReader(f)
	header := make([]byte, 4)
	var (
		rec    internal.Record
		offset int64
	)

	for {
		if _, err := io.ReadFull(r, header); err != nil {
			switch {
			case err == io.EOF:
				return records, nil, nil
			case errors.Is(err, io.ErrUnexpectedEOF):
				return records, damageAt(offset, errTornRecord), nil
			default:
				return records, nil, env.IOError(name, err)
			}
		}

		length := binary.BigEndian.Uint32(header)
		if length > maxRecordSize {
			return records, damageAt(offset, fmt.Errorf("record length %d exceeds limit", length)), nil
		}

		frame := make([]byte, int(length)+4)
		if _, err := io.ReadFull(r, frame); err != nil {
			if err == io.EOF || errors.Is(err, io.ErrUnexpectedEOF) {
				return records, damageAt(offset, errTornRecord), nil
			}
			return records, nil, env.IOError(name, err)
		}

		data := frame[:length]
		if crc32.ChecksumIEEE(data) != binary.BigEndian.Uint32(frame[length:]) {
			return records, damageAt(offset, errors.New("checksum mismatch")), nil
		}
		if err := rec.Deserialize(data); err != nil {
			return records, damageAt(offset, err), nil
		}
		if err := fn(&rec); err != nil {
			return records, nil, err
		}
		rec.Value = nil // fn may keep the value

		records++
		offset += int64(length) + frameOverhead
	}
}

func damageAt(offset int64, cause error) error {
	return fmt.Errorf("offset %d: %w", offset, cause)
}
