package internal

import (
	"bytes"
	"testing"
)

func TestSizeBytes(t *testing.T) {
	tests := []struct {
		name     string
		record   Record
		expected int
	}{
		{
			name:     "Record with key and value",
			record:   Record{Type: RecordTPut, Seq: 7, Key: "testkey", Value: []byte("testvalue")},
			expected: 1 + 8 + 4 + 7 + 9,
		},
		{
			name:     "Delete without value",
			record:   Record{Type: RecordTDelete, Seq: 8, Key: "testkey"},
			expected: 1 + 8 + 4 + 7,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if size := tt.record.SizeBytes(); size != tt.expected {
				t.Errorf("SizeBytes() = %v, want %v", size, tt.expected)
			}
			if n := len(tt.record.Serialize()); n != tt.expected {
				t.Errorf("len(Serialize()) = %v, want %v", n, tt.expected)
			}
		})
	}
}

func TestSerializeDeserialize(t *testing.T) {
	tests := []struct {
		name   string
		record Record
	}{
		{"Put", Record{Type: RecordTPut, Seq: 1, Key: "k", Value: []byte("v")}},
		{"Put with empty key", Record{Type: RecordTPut, Seq: 2, Key: "", Value: []byte("value")}},
		{"Put with binary value", Record{Type: RecordTPut, Seq: 3, Key: "bin", Value: []byte{0, 1, 2, 0xff}}},
		{"Delete", Record{Type: RecordTDelete, Seq: 1 << 40, Key: "gone"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := tt.record.Serialize()

			var got Record
			if err := got.Deserialize(data); err != nil {
				t.Fatalf("Deserialize() error = %v", err)
			}
			if got.Type != tt.record.Type || got.Seq != tt.record.Seq || got.Key != tt.record.Key {
				t.Errorf("Deserialize() = %+v, want %+v", got, tt.record)
			}
			if !bytes.Equal(got.Value, tt.record.Value) {
				t.Errorf("Value = %v, want %v", got.Value, tt.record.Value)
			}

			// the value must not alias the input
			if len(data) > 0 && len(got.Value) > 0 {
				data[len(data)-1] ^= 0xff
				if !bytes.Equal(got.Value, tt.record.Value) {
					t.Errorf("Value aliases the serialized data")
				}
			}
		})
	}
}

func TestDeserializeErrors(t *testing.T) {
	valid := (&Record{Type: RecordTPut, Seq: 1, Key: "key", Value: []byte("v")}).Serialize()

	tests := []struct {
		name string
		data []byte
	}{
		{"Empty", nil},
		{"Header too short", valid[:headerSize-1]},
		{"Key truncated", valid[:headerSize+2]},
		{"Unknown type", append([]byte{9}, valid[1:]...)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var r Record
			if err := r.Deserialize(tt.data); err == nil {
				t.Errorf("Expected Deserialize to fail")
			}
		})
	}
}

func TestRecordTypeString(t *testing.T) {
	if RecordTPut.String() != "Put" || RecordTDelete.String() != "Delete" {
		t.Errorf("Unexpected names")
	}
	if RecordType(0).String() != "Unknown(0)" {
		t.Errorf("Unexpected name for an unknown type: %s", RecordType(0))
	}
}
