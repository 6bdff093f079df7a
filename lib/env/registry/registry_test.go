package registry

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/ValentinKolb/eKV/lib/env"
	"github.com/ValentinKolb/eKV/lib/env/backends/memory"
	"github.com/stretchr/testify/require"
)

func requireNoHdfs(t *testing.T) {
	t.Helper()
	if env.IsCompiledIn(env.BackendHdfs) {
		t.Skip("built with hdfs support")
	}
}

func TestUnavailableBackend(t *testing.T) {
	requireNoHdfs(t)

	live := env.LiveHandles()
	for _, args := range []string{
		"hdfs://localhost:5000",
		"hdfs://",
		"definitely not a uri",
		"",
	} {
		t.Run(args, func(t *testing.T) {
			h, err := Construct(context.Background(), env.BackendHdfs, args)
			require.Error(t, err)
			require.ErrorIs(t, err, env.ErrBackendUnavailable)
			require.Equal(t, env.KindBackendUnavailable, env.KindOf(err))
			require.Equal(t, "Not compiled with hdfs support", err.Error())

			require.NotNil(t, h)
			require.Same(t, err, h.Err())
			require.Equal(t, env.BackendHdfs, h.Backend())

			_, envErr := h.Env()
			require.Same(t, err, envErr)

			require.NoError(t, h.Release())
			require.NoError(t, h.Release())
		})
	}
	require.Equal(t, live, env.LiveHandles())
}

func TestUnavailableBackendCancelledContext(t *testing.T) {
	requireNoHdfs(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Construct(ctx, env.BackendHdfs, "hdfs://localhost:5000")
	require.ErrorIs(t, err, env.ErrBackendUnavailable)
}

func TestConstructURI(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		uri     string
		backend env.Backend
	}{
		{dir, env.BackendLocal},
		{"file://" + dir, env.BackendLocal},
		{"LOCAL://" + dir, env.BackendLocal},
		{"mem://test", env.BackendMemory},
		{"memory://", env.BackendMemory},
	}

	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			h, err := ConstructURI(context.Background(), tt.uri)
			require.NoError(t, err)
			require.Equal(t, tt.backend, h.Backend())
			require.Equal(t, tt.uri, h.Descriptor())

			e, err := h.Env()
			require.NoError(t, err)
			require.Equal(t, tt.backend, e.Backend())

			require.NoError(t, h.Release())
		})
	}
}

func TestConstructURIUnknownScheme(t *testing.T) {
	h, err := ConstructURI(context.Background(), "s3://bucket/prefix")
	require.ErrorIs(t, err, env.ErrBackendUnavailable)
	require.Equal(t, "Not compiled with s3 support", err.Error())
	require.Equal(t, env.BackendCustom, h.Backend())
	require.NoError(t, h.Release())
}

func TestConstructURIHdfsSkipsParsing(t *testing.T) {
	requireNoHdfs(t)

	_, err := ConstructURI(context.Background(), "hdfs://%%%:not-a-port")
	require.ErrorIs(t, err, env.ErrBackendUnavailable)
	require.Equal(t, "Not compiled with hdfs support", err.Error())
}

func TestConstructionFailed(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing")

	h, err := Construct(context.Background(), env.BackendLocal, missing)
	require.ErrorIs(t, err, env.ErrBackendConstructionFailed)
	require.False(t, errors.Is(err, env.ErrBackendUnavailable))
	require.NotNil(t, h)
	require.Same(t, err, h.Err())
	require.NoError(t, h.Release())
}

func TestReleaseLifecycle(t *testing.T) {
	h, err := Construct(context.Background(), env.BackendMemory, "lifecycle")
	require.NoError(t, err)

	live := env.LiveHandles()

	e, drop, err := h.Acquire()
	require.NoError(t, err)
	require.Equal(t, 1, h.Refs())

	// referenced handles stay live
	require.ErrorIs(t, h.Release(), env.ErrInvalidState)
	require.False(t, h.Released())
	require.NoError(t, e.CreateDir("/still-usable"))

	drop()
	drop()
	require.Equal(t, 0, h.Refs())

	require.NoError(t, h.Release())
	require.True(t, h.Released())
	require.Equal(t, live-1, env.LiveHandles())

	err = h.Release()
	require.ErrorIs(t, err, env.ErrResourceAlreadyClosed)
	require.Equal(t, "memory environment already released", err.Error())

	_, err = h.Env()
	require.ErrorIs(t, err, env.ErrResourceAlreadyClosed)
	_, _, err = h.Acquire()
	require.ErrorIs(t, err, env.ErrResourceAlreadyClosed)
}

func TestRegisterCustom(t *testing.T) {
	r := New(DefaultOptions())

	var gotArgs string
	require.NoError(t, r.RegisterCustom("test", func(_ context.Context, args string) (env.Env, error) {
		gotArgs = args
		return memory.New(args), nil
	}))

	require.ErrorIs(t, r.RegisterCustom("test", nil), env.ErrInvalidArgument)
	require.ErrorIs(t, r.RegisterCustom("other", nil), env.ErrInvalidArgument)
	for _, reserved := range []string{"local", "file", "hdfs", "mem", "custom"} {
		require.ErrorIs(t, r.RegisterCustom(reserved, func(context.Context, string) (env.Env, error) {
			return nil, nil
		}), env.ErrInvalidArgument, reserved)
	}

	h, err := r.ConstructURI(context.Background(), "test://bucket")
	require.NoError(t, err)
	require.Equal(t, env.BackendCustom, h.Backend())
	require.Equal(t, "test://bucket", gotArgs)
	require.NoError(t, h.Release())

	// other registries do not see the backend
	_, err = New(DefaultOptions()).ConstructURI(context.Background(), "test://bucket")
	require.ErrorIs(t, err, env.ErrBackendUnavailable)
}

func TestRegisterCustomSchemeCase(t *testing.T) {
	r := New(DefaultOptions())

	require.NoError(t, r.RegisterCustom(" S3 ", func(_ context.Context, args string) (env.Env, error) {
		return memory.New(""), nil
	}))
	require.ErrorIs(t, r.RegisterCustom("s3", func(context.Context, string) (env.Env, error) {
		return nil, nil
	}), env.ErrInvalidArgument)

	for _, uri := range []string{"S3://bucket", "s3://bucket"} {
		h, err := r.ConstructURI(context.Background(), uri)
		require.NoError(t, err, uri)
		require.Equal(t, env.BackendCustom, h.Backend())
		require.NoError(t, h.Release())
	}

	for _, bad := range []string{"s3://", "a/b", "x:y"} {
		require.ErrorIs(t, r.RegisterCustom(bad, func(context.Context, string) (env.Env, error) {
			return nil, nil
		}), env.ErrInvalidArgument, bad)
	}
}

func TestCustomConstructorErrors(t *testing.T) {
	r := New(DefaultOptions())
	cause := errors.New("bucket not found")

	require.NoError(t, r.RegisterCustom("broken", func(context.Context, string) (env.Env, error) {
		return nil, cause
	}))
	require.NoError(t, r.RegisterCustom("empty", func(context.Context, string) (env.Env, error) {
		return nil, nil
	}))

	h, err := r.ConstructURI(context.Background(), "broken://x")
	require.ErrorIs(t, err, env.ErrBackendConstructionFailed)
	require.ErrorIs(t, err, cause)
	require.NoError(t, h.Release())

	_, err = r.ConstructURI(context.Background(), "empty://x")
	require.ErrorIs(t, err, env.ErrBackendConstructionFailed)

	_, err = r.Construct(context.Background(), env.BackendCustom, "no scheme")
	require.ErrorIs(t, err, env.ErrBackendConstructionFailed)
}

func TestWithEnv(t *testing.T) {
	var handle *env.Handle
	err := WithEnv(context.Background(), env.BackendMemory, "scoped", func(h *env.Handle) error {
		handle = h
		return nil
	})
	require.NoError(t, err)
	require.True(t, handle.Released())

	fnErr := errors.New("boom")
	err = WithEnv(context.Background(), env.BackendMemory, "scoped", func(h *env.Handle) error {
		handle = h
		return fnErr
	})
	require.ErrorIs(t, err, fnErr)
	require.True(t, handle.Released())

	// a reference that outlives fn makes the release fail
	err = WithEnv(context.Background(), env.BackendMemory, "leak", func(h *env.Handle) error {
		_, _, err := h.Acquire()
		return err
	})
	require.ErrorIs(t, err, env.ErrInvalidState)
}

func TestWithEnvUnavailable(t *testing.T) {
	requireNoHdfs(t)

	called := false
	err := WithEnv(context.Background(), env.BackendHdfs, "hdfs://localhost:5000", func(*env.Handle) error {
		called = true
		return nil
	})
	require.ErrorIs(t, err, env.ErrBackendUnavailable)
	require.False(t, called)
}
