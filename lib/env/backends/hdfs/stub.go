//go:build !hdfs

package hdfs

import (
	"context"

	"github.com/ValentinKolb/eKV/lib/env"
)

// New fails without looking at its arguments: this build does not contain
// the HDFS client.
func New(_ context.Context, _ string) (env.Env, error) {
	return nil, env.NotCompiledError(Scheme)
}
