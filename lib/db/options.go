package db

import (
	"fmt"
	"strings"

	"github.com/ValentinKolb/eKV/lib/env"
	"gopkg.in/yaml.v3"
)

// DefaultWriteBufferSize is the amount of logged data after which the table is
// rewritten in the background.
const DefaultWriteBufferSize = 4 << 20

// --------------------------------------------------------------------------
// Compression
// --------------------------------------------------------------------------

// Compression selects how the table file is compressed.
type Compression string

const (
	CompressionNone   Compression = "none"
	CompressionSnappy Compression = "snappy"
	CompressionZstd   Compression = "zstd"
	CompressionLZ4    Compression = "lz4"
)

// ParseCompression maps a name to a Compression. The empty string means none.
func ParseCompression(name string) (Compression, error) {
	switch c := Compression(strings.ToLower(strings.TrimSpace(name))); c {
	case "", CompressionNone:
		return CompressionNone, nil
	case CompressionSnappy, CompressionZstd, CompressionLZ4:
		return c, nil
	default:
		return "", env.NewError(env.KindInvalidArgument,
			fmt.Sprintf("unknown compression %q (expected none, snappy, zstd or lz4)", name))
	}
}

// --------------------------------------------------------------------------
// Options
// --------------------------------------------------------------------------

// Options configures a database. Open copies the struct, so changing it
// afterwards does not affect an open database.
type Options struct {
	// CreateIfMissing creates the database if it does not exist.
	CreateIfMissing bool `yaml:"create_if_missing"`
	// ErrorIfExists fails Open if the database already exists.
	ErrorIfExists bool `yaml:"error_if_exists"`
	// ParanoidChecks turns a damaged log tail into an error instead of
	// dropping it during recovery.
	ParanoidChecks bool `yaml:"paranoid_checks"`
	// Sync makes every write durable before it returns.
	Sync bool `yaml:"sync"`
	// WriteBufferSize is the log size that triggers a background flush (0 = DefaultWriteBufferSize).
	WriteBufferSize int `yaml:"write_buffer_size"`
	// Compression of the table file.
	Compression Compression `yaml:"compression"`

	// Env is the environment to store the database in. The database holds a
	// reference but does not own it; the handle must stay live until the
	// database is closed. Nil selects a private local environment that the
	// database owns.
	Env *env.Handle `yaml:"-"`
}

// DefaultOptions returns the options used when Open is called with nil.
func DefaultOptions() Options {
	return Options{
		WriteBufferSize: DefaultWriteBufferSize,
		Compression:     CompressionNone,
	}
}

// normalize fills in defaults and rejects invalid values.
func (o *Options) normalize() error {
	if o.WriteBufferSize < 0 {
		return env.NewError(env.KindInvalidArgument, fmt.Sprintf("negative write buffer size %d", o.WriteBufferSize))
	}
	if o.WriteBufferSize == 0 {
		o.WriteBufferSize = DefaultWriteBufferSize
	}
	c, err := ParseCompression(string(o.Compression))
	if err != nil {
		return err
	}
	o.Compression = c
	return nil
}

// --------------------------------------------------------------------------
// OPTIONS file
// --------------------------------------------------------------------------

// optionsFile is the content of the OPTIONS file.
type optionsFile struct {
	Backend string `yaml:"backend"`
	Options `yaml:",inline"`
}

func marshalOptions(backend env.Backend, o Options) ([]byte, error) {
	return yaml.Marshal(&optionsFile{Backend: backend.String(), Options: o})
}

// ReadOptions reads the options a database was last opened with.
// The returned options have no environment set.
func ReadOptions(e env.Env, path string) (Options, error) {
	data, err := readFile(e, joinPath(path, optionsFileName))
	if err != nil {
		return Options{}, err
	}
	var f optionsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Options{}, env.WrapError(env.KindCorruption, fmt.Sprintf("%s: invalid options file", path), err)
	}
	return f.Options, nil
}
