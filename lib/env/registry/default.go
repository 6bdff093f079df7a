package registry

import (
	"context"

	"github.com/ValentinKolb/eKV/lib/env"
)

// Default is the registry used by the package-level functions.
var Default = New(DefaultOptions())

// Construct calls Default.Construct.
func Construct(ctx context.Context, backend env.Backend, args string) (*env.Handle, error) {
	return Default.Construct(ctx, backend, args)
}

// ConstructURI calls Default.ConstructURI.
func ConstructURI(ctx context.Context, uri string) (*env.Handle, error) {
	return Default.ConstructURI(ctx, uri)
}

// RegisterCustom calls Default.RegisterCustom.
func RegisterCustom(scheme string, c Constructor) error {
	return Default.RegisterCustom(scheme, c)
}

// WithEnv calls Default.WithEnv.
func WithEnv(ctx context.Context, backend env.Backend, args string, fn func(*env.Handle) error) error {
	return Default.WithEnv(ctx, backend, args, fn)
}
