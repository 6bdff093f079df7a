package db

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ValentinKolb/eKV/lib/db/internal"
	"github.com/ValentinKolb/eKV/lib/env"
	"github.com/ValentinKolb/eKV/lib/env/registry"
	"github.com/google/btree"
	"github.com/google/uuid"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/rcrowley/go-metrics"
)

var log = logger.GetLogger("db")

// btreeDegree is the fan-out of the memtable.
const btreeDegree = 32

type state uint8

const (
	stateUnopened state = iota // zero value: never opened
	stateOpen
	stateClosed
)

// entry is one key of the memtable.
type entry struct {
	key   string
	value []byte
}

func lessEntry(a, b entry) bool {
	return a.key < b.key
}

// --------------------------------------------------------------------------
// Database
// --------------------------------------------------------------------------

// DB is a key-value storage instance that keeps all of its files in an
// environment. All keys live in an ordered in-memory table; writes are
// logged before they are applied and the table is periodically written to
// the environment as a compressed snapshot.
//
// A DB references the environment handle it was opened with and must be
// closed before that handle is released.
//
// Thread-safety: All methods are safe for concurrent use.
type DB struct {
	path     string
	opts     Options
	handle   *env.Handle
	env      env.Env
	drop     func()
	ownsEnv  bool
	lock     env.FileLock
	identity string

	mu           sync.RWMutex
	state        state
	mem          *btree.BTreeG[entry]
	wal          *walWriter
	walErr       error // sticky log failure, rejects further writes
	seq          uint64
	tableSeq     uint64
	flushPending bool

	bg    sync.WaitGroup
	stats *stats
}

// Open opens the database at path.
//
// The environment handle in opts is checked before anything else: a handle
// whose construction failed makes Open return that construction error
// unchanged, without touching any storage. Then the backend validates the
// path, and CreateIfMissing and ErrorIfExists are applied.
//
// A nil opts uses DefaultOptions.
func Open(opts *Options, path string) (_ *DB, err error) {
	o := DefaultOptions()
	if opts != nil {
		o = *opts
	}

	handle, ownsEnv := o.Env, false
	if handle == nil {
		handle, err = registry.Construct(context.Background(), env.BackendLocal, "")
		if err != nil {
			return nil, err
		}
		ownsEnv = true
	}
	if err := handle.Err(); err != nil {
		return nil, err
	}

	e, drop, err := handle.Acquire()
	if err != nil {
		return nil, err
	}

	d := &DB{
		path:    path,
		opts:    o,
		handle:  handle,
		env:     e,
		drop:    drop,
		ownsEnv: ownsEnv,
		mem:     btree.NewG[entry](btreeDegree, lessEntry),
		stats:   newStats(),
	}

	// undo releases everything acquired so far, in reverse order
	var undo []func()
	defer func() {
		if err != nil {
			for i := len(undo) - 1; i >= 0; i-- {
				undo[i]()
			}
		}
	}()
	undo = append(undo, d.releaseEnv)

	if err = d.opts.normalize(); err != nil {
		return nil, err
	}
	if err = e.ValidatePath(path); err != nil {
		if env.KindOf(err) == env.KindUnknown {
			err = env.WrapError(env.KindInvalidArgument, fmt.Sprintf("%s: invalid path", path), err)
		}
		return nil, err
	}

	exists, err := e.FileExists(d.file(identityFileName))
	if err != nil {
		return nil, err
	}
	switch {
	case !exists && !d.opts.CreateIfMissing:
		return nil, env.NewError(env.KindInvalidArgument, fmt.Sprintf("%s: does not exist (create_if_missing is false)", path))
	case exists && d.opts.ErrorIfExists:
		return nil, env.NewError(env.KindInvalidArgument, fmt.Sprintf("%s: exists (error_if_exists is true)", path))
	}

	if err = e.CreateDirIfMissing(path); err != nil {
		return nil, err
	}
	if d.lock, err = e.LockFile(d.file(lockFileName)); err != nil {
		return nil, err
	}
	undo = append(undo, func() { _ = e.UnlockFile(d.lock) })

	if err = d.loadIdentity(exists); err != nil {
		return nil, err
	}
	if err = d.writeOptions(); err != nil {
		return nil, err
	}
	if err = d.recover(); err != nil {
		return nil, err
	}
	undo = append(undo, func() {
		if d.wal != nil {
			_ = d.wal.close()
		}
	})

	d.state = stateOpen
	openDBs.Add(1)
	log.Infof("opened database %s on %s (identity=%s, keys=%d, seq=%d)", path, e.Backend(), d.identity, d.mem.Len(), d.seq)
	return d, nil
}

// WithDB opens a database, passes it to fn and closes it on every exit path.
// An error from fn takes precedence over an error from Close.
func WithDB(opts *Options, path string, fn func(*DB) error) (err error) {
	d, err := Open(opts, path)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := d.Close(); err == nil {
			err = closeErr
		}
	}()
	return fn(d)
}

// --------------------------------------------------------------------------
// Open helpers
// --------------------------------------------------------------------------

func (d *DB) file(name string) string {
	return joinPath(d.path, name)
}

// releaseEnv drops the reference on the handle and releases a private handle.
func (d *DB) releaseEnv() {
	d.drop()
	if d.ownsEnv {
		if err := d.handle.Release(); err != nil {
			log.Warningf("releasing private environment of %s failed: %v", d.path, err)
		}
	}
}

// loadIdentity creates the IDENTITY file of a new database or reads the
// existing one.
func (d *DB) loadIdentity(exists bool) error {
	name := d.file(identityFileName)

	if !exists {
		d.identity = uuid.NewString()
		return writeFileAtomic(d.env, name, []byte(d.identity+"\n"))
	}

	data, err := readFile(d.env, name)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(strings.TrimSpace(string(data)))
	if err != nil {
		return env.WrapError(env.KindCorruption, fmt.Sprintf("%s: invalid identity", name), err)
	}
	d.identity = id.String()
	return nil
}

func (d *DB) writeOptions() error {
	data, err := marshalOptions(d.env.Backend(), d.opts)
	if err != nil {
		return env.WrapError(env.KindIOError, "cannot encode options", err)
	}
	return writeFileAtomic(d.env, d.file(optionsFileName), data)
}

// recover loads the table, replays the log on top of it and starts a fresh log.
func (d *DB) recover() error {
	var err error
	if d.tableSeq, err = readTable(d.env, d.file(tableFileName), d.mem); err != nil {
		return err
	}
	d.seq = d.tableSeq

	walName := d.file(walFileName)
	applied := 0
	_, damage, err := replayWAL(d.env, walName, func(rec *internal.Record) error {
		if rec.Seq <= d.tableSeq {
			return nil // already part of the table
		}
		d.apply(rec)
		applied++
		return nil
	})
	if err != nil {
		return err
	}
	if damage != nil {
		if d.opts.ParanoidChecks {
			return env.WrapError(env.KindCorruption, fmt.Sprintf("%s: damaged log", walName), damage)
		}
		log.Warningf("%s: dropping damaged log tail: %v", walName, damage)
	}
	d.stats.replayed.Inc(int64(applied))

	if applied > 0 {
		return d.flushLocked()
	}
	return d.rotateWAL()
}

func (d *DB) apply(rec *internal.Record) {
	switch rec.Type {
	case internal.RecordTPut:
		d.mem.ReplaceOrInsert(entry{key: rec.Key, value: rec.Value})
	case internal.RecordTDelete:
		d.mem.Delete(entry{key: rec.Key})
	}
	if rec.Seq > d.seq {
		d.seq = rec.Seq
	}
}

// --------------------------------------------------------------------------
// State checks
// --------------------------------------------------------------------------

func (d *DB) checkOpen() error {
	switch d.state {
	case stateOpen:
		return nil
	case stateClosed:
		return env.NewError(env.KindInvalidState, fmt.Sprintf("database %s is closed", d.path))
	default:
		return env.NewError(env.KindInvalidState, "database is not open")
	}
}

func (d *DB) checkWritable() error {
	if err := d.checkOpen(); err != nil {
		return err
	}
	return d.walErr
}

func nilDB() error {
	return env.NewError(env.KindInvalidState, "nil database")
}

// --------------------------------------------------------------------------
// Write Operations
// --------------------------------------------------------------------------

// Put inserts or updates a key.
func (d *DB) Put(key string, value []byte) error {
	if d == nil {
		return nilDB()
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.checkWritable(); err != nil {
		return err
	}
	if err := d.logRecord(internal.RecordTPut, key, value); err != nil {
		return err
	}
	d.mem.ReplaceOrInsert(entry{key: key, value: bytes.Clone(value)})
	d.stats.puts.Inc(1)
	return nil
}

// Delete removes a key. Deleting a missing key is not an error.
func (d *DB) Delete(key string) error {
	if d == nil {
		return nilDB()
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.checkWritable(); err != nil {
		return err
	}
	if err := d.logRecord(internal.RecordTDelete, key, nil); err != nil {
		return err
	}
	d.mem.Delete(entry{key: key})
	d.stats.deletes.Inc(1)
	return nil
}

// logRecord writes a record and schedules a flush once the log is large
// enough. Callers hold d.mu.
func (d *DB) logRecord(t internal.RecordType, key string, value []byte) error {
	rec := internal.Record{Type: t, Seq: d.seq + 1, Key: key, Value: value}
	n, err := d.wal.append(&rec)
	if err != nil {
		d.walErr = err
		log.Errorf("%s: log write failed, database is read-only from now on: %v", d.path, err)
		return err
	}
	d.seq = rec.Seq
	d.stats.logged(n)
	d.maybeScheduleFlush()
	return nil
}

func (d *DB) maybeScheduleFlush() {
	if d.flushPending || d.wal.size < int64(d.opts.WriteBufferSize) {
		return
	}
	d.flushPending = true
	d.bg.Add(1)
	err := d.env.Schedule(func() {
		defer d.bg.Done()
		d.backgroundFlush()
	})
	if err != nil {
		d.bg.Done()
		d.flushPending = false
		log.Warningf("%s: cannot schedule flush: %v", d.path, err)
	}
}

func (d *DB) backgroundFlush() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.flushPending = false
	if d.state != stateOpen || d.walErr != nil {
		return
	}
	if err := d.flushLocked(); err != nil {
		log.Errorf("%s: background flush failed: %v", d.path, err)
	}
}

// --------------------------------------------------------------------------
// Query Operations
// --------------------------------------------------------------------------

// Get returns a copy of the value stored for key. The boolean reports
// whether the key exists.
func (d *DB) Get(key string) ([]byte, bool, error) {
	if d == nil {
		return nil, false, nilDB()
	}
	d.mu.RLock()
	defer d.mu.RUnlock()

	if err := d.checkOpen(); err != nil {
		return nil, false, err
	}
	d.stats.gets.Inc(1)
	it, ok := d.mem.Get(entry{key: key})
	if !ok {
		return nil, false, nil
	}
	d.stats.hits.Inc(1)
	return bytes.Clone(it.value), true, nil
}

// Has reports whether key exists.
func (d *DB) Has(key string) (bool, error) {
	if d == nil {
		return false, nilDB()
	}
	d.mu.RLock()
	defer d.mu.RUnlock()

	if err := d.checkOpen(); err != nil {
		return false, err
	}
	return d.mem.Has(entry{key: key}), nil
}

// Keys returns the keys starting with prefix in ascending order.
func (d *DB) Keys(prefix string) ([]string, error) {
	if d == nil {
		return nil, nilDB()
	}
	d.mu.RLock()
	defer d.mu.RUnlock()

	if err := d.checkOpen(); err != nil {
		return nil, err
	}
	keys := make([]string, 0)
	d.mem.AscendGreaterOrEqual(entry{key: prefix}, func(it entry) bool {
		if !strings.HasPrefix(it.key, prefix) {
			return false
		}
		keys = append(keys, it.key)
		return true
	})
	return keys, nil
}

// --------------------------------------------------------------------------
// Persistence Operations
// --------------------------------------------------------------------------

// Flush writes all logged changes to the table file and starts a new log.
func (d *DB) Flush() error {
	if d == nil {
		return nilDB()
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.checkWritable(); err != nil {
		return err
	}
	if d.seq == d.tableSeq {
		return nil
	}
	return d.flushLocked()
}

// flushLocked writes the table and rotates the log. Callers hold d.mu.
func (d *DB) flushLocked() error {
	start := time.Now()
	if err := writeTable(d.env, d.file(tableFileName), d.mem, d.seq, d.opts.Compression); err != nil {
		return err
	}
	d.tableSeq = d.seq
	if err := d.rotateWAL(); err != nil {
		return err
	}
	d.stats.flushed(start)
	log.Debugf("%s: flushed %d keys up to seq %d in %s", d.path, d.mem.Len(), d.seq, time.Since(start))
	return nil
}

// rotateWAL replaces the log with an empty one. Everything in the old log
// must be covered by the table.
func (d *DB) rotateWAL() error {
	if d.wal != nil {
		if err := d.wal.close(); err != nil {
			log.Warningf("%s: closing log failed: %v", d.path, err)
		}
		d.wal = nil
	}
	w, err := newWAL(d.env, d.file(walFileName), d.opts.Sync)
	if err != nil {
		d.walErr = err
		return err
	}
	d.wal = w
	return nil
}

// Close waits for background work, closes the log and releases the lock and
// the environment reference. Closing twice fails with ResourceAlreadyClosed.
func (d *DB) Close() error {
	if d == nil {
		return nilDB()
	}

	d.mu.Lock()
	switch d.state {
	case stateUnopened:
		d.mu.Unlock()
		return d.checkOpen()
	case stateClosed:
		d.mu.Unlock()
		return env.NewError(env.KindResourceAlreadyClosed, fmt.Sprintf("database %s is already closed", d.path))
	}
	d.state = stateClosed
	d.mu.Unlock()

	d.bg.Wait()

	d.mu.Lock()
	defer d.mu.Unlock()

	var errs []error
	if d.wal != nil {
		errs = append(errs, d.wal.close())
		d.wal = nil
	}
	errs = append(errs, d.env.UnlockFile(d.lock))
	d.releaseEnv()
	openDBs.Add(-1)

	log.Infof("closed database %s", d.path)
	return errors.Join(errs...)
}

// --------------------------------------------------------------------------
// Information
// --------------------------------------------------------------------------

// Path returns the directory of the database.
func (d *DB) Path() string {
	return d.path
}

// Identity returns the unique id stored in the IDENTITY file.
func (d *DB) Identity() string {
	return d.identity
}

// Options returns a copy of the options the database was opened with.
func (d *DB) Options() Options {
	return d.opts
}

// Stats returns a snapshot of the database statistics.
func (d *DB) Stats() (Stats, error) {
	if d == nil {
		return Stats{}, nilDB()
	}
	d.mu.RLock()
	defer d.mu.RUnlock()

	if err := d.checkOpen(); err != nil {
		return Stats{}, err
	}
	s := Stats{
		Keys:      d.mem.Len(),
		LastSeq:   d.seq,
		TableSeq:  d.tableSeq,
		Puts:      d.stats.puts.Count(),
		Deletes:   d.stats.deletes.Count(),
		Gets:      d.stats.gets.Count(),
		Hits:      d.stats.hits.Count(),
		WALBytes:  d.stats.walBytes.Count(),
		Replayed:  d.stats.replayed.Count(),
		Flushes:   d.stats.flushes.Count(),
		FlushMean: time.Duration(d.stats.flushes.Mean()),
	}
	if d.wal != nil {
		s.WALSize = d.wal.size
	}
	return s, nil
}

// Metrics returns the registry with the per-database counters, for use
// with go-metrics reporters.
func (d *DB) Metrics() metrics.Registry {
	return d.stats.registry
}
