package db

import (
	"errors"
	"testing"

	"github.com/ValentinKolb/eKV/lib/db/internal"
	"github.com/ValentinKolb/eKV/lib/env"
	"github.com/ValentinKolb/eKV/lib/env/backends/memory"
	"github.com/google/btree"
)

func writeRaw(t *testing.T, e env.Env, name string, data []byte) {
	t.Helper()
	f, err := e.NewWritableFile(name)
	if err != nil {
		t.Fatalf("NewWritableFile failed: %v", err)
	}
	_, _ = f.Write(data)
	if err := f.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
}

func TestReplayWAL(t *testing.T) {
	e := memory.New("wal")
	defer e.Close()

	w, err := newWAL(e, "/WAL", false)
	if err != nil {
		t.Fatalf("newWAL failed: %v", err)
	}
	for i, key := range []string{"a", "b", "c"} {
		if _, err := w.append(&internal.Record{Type: internal.RecordTPut, Seq: uint64(i + 1), Key: key, Value: []byte(key)}); err != nil {
			t.Fatalf("append failed: %v", err)
		}
	}
	size := w.size
	if err := w.close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	var keys []string
	n, damage, err := replayWAL(e, "/WAL", func(r *internal.Record) error {
		keys = append(keys, r.Key+string(r.Value))
		return nil
	})
	if err != nil || damage != nil || n != 3 {
		t.Fatalf("Expected 3 clean records, got n=%d damage=%v err=%v", n, damage, err)
	}
	if keys[0] != "aa" || keys[2] != "cc" {
		t.Errorf("Unexpected records %v", keys)
	}

	// a torn tail keeps the intact prefix
	data, _ := readFile(e, "/WAL")
	writeRaw(t, e, "/WAL", data[:size-3])
	n, damage, err = replayWAL(e, "/WAL", func(*internal.Record) error { return nil })
	if err != nil || n != 2 || !errors.Is(damage, errTornRecord) {
		t.Errorf("Expected 2 records and a torn tail, got n=%d damage=%v err=%v", n, damage, err)
	}

	// an absurd length is damage, not an allocation
	writeRaw(t, e, "/WAL", []byte{0xff, 0xff, 0xff, 0xff, 1, 2, 3})
	_, damage, err = replayWAL(e, "/WAL", func(*internal.Record) error { return nil })
	if err != nil || damage == nil {
		t.Errorf("Expected damage for an oversized length, got damage=%v err=%v", damage, err)
	}

	// errors of the callback stop the replay
	writeRaw(t, e, "/WAL", data)
	stop := errors.New("stop")
	_, _, err = replayWAL(e, "/WAL", func(*internal.Record) error { return stop })
	if !errors.Is(err, stop) {
		t.Errorf("Expected the callback error, got %v", err)
	}

	n, damage, err = replayWAL(e, "/missing", nil)
	if n != 0 || damage != nil || err != nil {
		t.Errorf("Expected a missing log to be empty")
	}
}

func TestReadTableErrors(t *testing.T) {
	e := memory.New("table")
	defer e.Close()

	mem := btree.NewG[entry](btreeDegree, lessEntry)
	mem.ReplaceOrInsert(entry{key: "k", value: []byte("v")})
	if err := writeTable(e, "/TABLE", mem, 9, CompressionSnappy); err != nil {
		t.Fatalf("writeTable failed: %v", err)
	}
	valid, _ := readFile(e, "/TABLE")

	loaded := btree.NewG[entry](btreeDegree, lessEntry)
	seq, err := readTable(e, "/TABLE", loaded)
	if err != nil || seq != 9 || loaded.Len() != 1 {
		t.Fatalf("Expected one entry at seq 9, got seq=%d len=%d err=%v", seq, loaded.Len(), err)
	}

	tests := map[string][]byte{
		"short":    valid[:10],
		"magic":    append([]byte("BADMAGIC"), valid[8:]...),
		"checksum": append(append([]byte{}, valid[:len(valid)-1]...), valid[len(valid)-1]^1),
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			writeRaw(t, e, "/TABLE", data)
			_, err := readTable(e, "/TABLE", btree.NewG[entry](btreeDegree, lessEntry))
			if env.KindOf(err) != env.KindCorruption {
				t.Errorf("Expected Corruption, got %v", err)
			}
		})
	}

	if seq, err := readTable(e, "/missing", loaded); seq != 0 || err != nil {
		t.Errorf("Expected a missing table to be empty, got seq=%d err=%v", seq, err)
	}
}

func TestParseCompression(t *testing.T) {
	for in, want := range map[string]Compression{
		"":       CompressionNone,
		"none":   CompressionNone,
		"Snappy": CompressionSnappy,
		"zstd":   CompressionZstd,
		" lz4 ":  CompressionLZ4,
	} {
		got, err := ParseCompression(in)
		if err != nil || got != want {
			t.Errorf("ParseCompression(%q): expected %s, got %s (%v)", in, want, got, err)
		}
	}
	if _, err := ParseCompression("gzip"); !errors.Is(err, env.ErrInvalidArgument) {
		t.Errorf("Expected InvalidArgument, got %v", err)
	}
}
