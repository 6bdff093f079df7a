package db

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression codes as stored in the table header.
const (
	codeNone byte = iota
	codeSnappy
	codeZstd
	codeLZ4
)

func (c Compression) code() byte {
	switch c {
	case CompressionSnappy:
		return codeSnappy
	case CompressionZstd:
		return codeZstd
	case CompressionLZ4:
		return codeLZ4
	default:
		return codeNone
	}
}

var (
	zstdOnce    sync.Once
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
	zstdErr     error
)

// initZstd creates the shared encoder and decoder. Both are safe for
// concurrent use with EncodeAll and DecodeAll.
func initZstd() error {
	zstdOnce.Do(func() {
		zstdEncoder, zstdErr = zstd.NewWriter(nil)
		if zstdErr != nil {
			return
		}
		zstdDecoder, zstdErr = zstd.NewReader(nil)
	})
	return zstdErr
}

// compress encodes data with the given code.
func compress(code byte, data []byte) ([]byte, error) {
	switch code {
	case codeNone:
		return data, nil
	case codeSnappy:
		return snappy.Encode(nil, data), nil
	case codeZstd:
		if err := initZstd(); err != nil {
			return nil, err
		}
		return zstdEncoder.EncodeAll(data, nil), nil
	case codeLZ4:
		var buf bytes.Buffer
		w := lz4.NewWriter(&buf)
		if _, err := w.Write(data); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("unknown compression code %d", code)
	}
}

// decompress reverses compress.
func decompress(code byte, data []byte) ([]byte, error) {
	switch code {
	case codeNone:
		return data, nil
	case codeSnappy:
		return snappy.Decode(nil, data)
	case codeZstd:
		if err := initZstd(); err != nil {
			return nil, err
		}
		return zstdDecoder.DecodeAll(data, nil)
	case codeLZ4:
		return io.ReadAll(lz4.NewReader(bytes.NewReader(data)))
	default:
		return nil, fmt.Errorf("unknown compression code %d", code)
	}
}
