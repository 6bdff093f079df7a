package internal

import (
	"encoding/binary"
	"fmt"
)

// RecordType defines the mutations that can be logged.
type RecordType uint8

const (
	RecordTPut    RecordType = iota + 1 // Insert or update an entry.
	RecordTDelete                       // Delete an entry.
)

func (rt RecordType) String() string {
	switch rt {
	case RecordTPut:
		return "Put"
	case RecordTDelete:
		return "Delete"
	default:
		return fmt.Sprintf("Unknown(%d)", rt)
	}
}

// headerSize is Type(1) + Seq(8) + KeyLen(4).
const headerSize = 1 + 8 + 4

// Record is a single mutation (one entry in the write-ahead log or the table).
type Record struct {
	Type  RecordType
	Seq   uint64
	Key   string
	Value []byte
}

// SizeBytes returns the exact number of bytes needed to serialize this record
func (r *Record) SizeBytes() int {
	return headerSize + len(r.Key) + len(r.Value)
}

// Serialize serializes a record into a byte array with the format:
// 1 byte for the record type,
// 8 bytes for the sequence number (big endian),
// 4 bytes for key length (big endian),
// N bytes for key data,
// N bytes for value data (optional)
func (r *Record) Serialize() []byte {
	return r.AppendTo(make([]byte, 0, r.SizeBytes()))
}

// AppendTo appends the serialized record to buf.
func (r *Record) AppendTo(buf []byte) []byte {
	buf = append(buf, byte(r.Type))
	buf = binary.BigEndian.AppendUint64(buf, r.Seq)
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(r.Key)))
	buf = append(buf, r.Key...)
	return append(buf, r.Value...)
}

// Deserialize extracts all record fields from a byte array.
// The value is copied, data may be reused by the caller.
func (r *Record) Deserialize(data []byte) error {
	if len(data) < headerSize {
		return fmt.Errorf("data too short for record (%d bytes)", len(data))
	}

	r.Type = RecordType(data[0])
	if r.Type != RecordTPut && r.Type != RecordTDelete {
		return fmt.Errorf("unknown record type %d", data[0])
	}
	r.Seq = binary.BigEndian.Uint64(data[1:9])

	keyLen := binary.BigEndian.Uint32(data[9:13])
	if uint64(len(data)) < uint64(headerSize)+uint64(keyLen) {
		return fmt.Errorf("data too short for key of length %d", keyLen)
	}
	end := headerSize + int(keyLen)
	r.Key = string(data[headerSize:end])

	if len(data) > end {
		r.Value = append(r.Value[:0], data[end:]...)
	} else {
		r.Value = nil
	}
	return nil
}
