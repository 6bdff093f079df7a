package db

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"

	"github.com/ValentinKolb/eKV/lib/db/internal"
	"github.com/ValentinKolb/eKV/lib/env"
	"github.com/google/btree"
)

// Table file layout (little endian):
//
//	Magic(8) | Version(1) | Compression(1) | LastSeq(8) | Count(8) | Body | CRC(4)
//
// Body is the (possibly compressed) sequence of Len(4) | Record entries. The
// CRC covers everything before it.
const (
	tableMagic      = "EKVTABLE"
	tableVersion    = 1
	tableHeaderSize = len(tableMagic) + 1 + 1 + 8 + 8
)

// writeTable stores a snapshot of mem, which reflects all records up to lastSeq.
func writeTable(e env.Env, name string, mem *btree.BTreeG[entry], lastSeq uint64, c Compression) error {
	var body []byte
	rec := internal.Record{Type: internal.RecordTPut, Seq: lastSeq}
	mem.Ascend(func(it entry) bool {
		rec.Key, rec.Value = it.key, it.value
		body = binary.LittleEndian.AppendUint32(body, uint32(rec.SizeBytes()))
		body = rec.AppendTo(body)
		return true
	})

	compressed, err := compress(c.code(), body)
	if err != nil {
		return env.WrapError(env.KindIOError, fmt.Sprintf("%s: cannot compress table", name), err)
	}

	buf := bytes.NewBuffer(make([]byte, 0, tableHeaderSize+len(compressed)+4))
	buf.WriteString(tableMagic)
	buf.WriteByte(tableVersion)
	buf.WriteByte(c.code())
	_ = binary.Write(buf, binary.LittleEndian, lastSeq)
	_ = binary.Write(buf, binary.LittleEndian, uint64(mem.Len()))
	buf.Write(compressed)
	_ = binary.Write(buf, binary.LittleEndian, crc32.ChecksumIEEE(buf.Bytes()))

	return writeFileAtomic(e, name, buf.Bytes())
}

// readTable loads a table into mem and returns the sequence number it covers.
// A missing table is an empty database.
func readTable(e env.Env, name string, mem *btree.BTreeG[entry]) (uint64, error) {
	data, err := readFile(e, name)
	if env.KindOf(err) == env.KindNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	corrupt := func(format string, args ...any) error {
		return env.NewError(env.KindCorruption, fmt.Sprintf("%s: %s", name, fmt.Sprintf(format, args...)))
	}

	if len(data) < tableHeaderSize+4 {
		return 0, corrupt("file too short (%d bytes)", len(data))
	}
	payload, trailer := data[:len(data)-4], data[len(data)-4:]
	if crc32.ChecksumIEEE(payload) != binary.LittleEndian.Uint32(trailer) {
		return 0, corrupt("checksum mismatch")
	}
	if string(payload[:len(tableMagic)]) != tableMagic {
		return 0, corrupt("magic number mismatch")
	}

	pos := len(tableMagic)
	if v := payload[pos]; v != tableVersion {
		return 0, corrupt("unsupported version %d (expected %d)", v, tableVersion)
	}
	code := payload[pos+1]
	lastSeq := binary.LittleEndian.Uint64(payload[pos+2:])
	count := binary.LittleEndian.Uint64(payload[pos+10:])

	body, err := decompress(code, payload[tableHeaderSize:])
	if err != nil {
		return 0, env.WrapError(env.KindCorruption, fmt.Sprintf("%s: cannot decompress", name), err)
	}

	var rec internal.Record
	for i := uint64(0); i < count; i++ {
		if len(body) < 4 {
			return 0, corrupt("entry %d truncated", i)
		}
		n := binary.LittleEndian.Uint32(body)
		if uint64(len(body)-4) < uint64(n) {
			return 0, corrupt("entry %d truncated", i)
		}
		if err := rec.Deserialize(body[4 : 4+n]); err != nil {
			return 0, corrupt("entry %d: %v", i, err)
		}
		mem.ReplaceOrInsert(entry{key: rec.Key, value: rec.Value})
		rec.Value = nil
		body = body[4+n:]
	}
	if len(body) != 0 {
		return 0, corrupt("%d trailing bytes", len(body))
	}
	return lastSeq, nil
}
