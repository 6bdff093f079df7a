package db

import (
	"io"
	"path"

	"github.com/ValentinKolb/eKV/lib/env"
)

// File names inside a database directory.
const (
	lockFileName     = "LOCK"
	identityFileName = "IDENTITY"
	optionsFileName  = "OPTIONS"
	tableFileName    = "TABLE"
	walFileName      = "WAL"
	tempSuffix       = ".tmp"
)

func joinPath(dir, name string) string {
	return path.Join(dir, name)
}

// readFile reads a whole file through the environment.
func readFile(e env.Env, name string) ([]byte, error) {
	f, err := e.NewSequentialFile(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, env.IOError(name, err)
	}
	return data, nil
}

// writeFileAtomic writes data to a temporary file and renames it to name, so
// readers see either the old or the new content.
func writeFileAtomic(e env.Env, name string, data []byte) error {
	tmp := name + tempSuffix

	f, err := e.NewWritableFile(tmp)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return env.IOError(tmp, err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return e.RenameFile(tmp, name)
}
