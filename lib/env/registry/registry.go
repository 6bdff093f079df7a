package registry

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ValentinKolb/eKV/lib/env"
	"github.com/ValentinKolb/eKV/lib/env/backends/hdfs"
	"github.com/ValentinKolb/eKV/lib/env/backends/local"
	"github.com/ValentinKolb/eKV/lib/env/backends/memory"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
)

var log = logger.GetLogger("registry")

// Constructor creates a custom environment from its full identifier string
// ("<scheme>://...").
type Constructor func(ctx context.Context, args string) (env.Env, error)

// Options configures a Registry.
type Options struct {
	// RemoteTimeout bounds the construction of remote backends when the
	// context has no deadline of its own (0 = no bound).
	RemoteTimeout time.Duration
	// BackgroundThreads is the pool size of local environments (0 = number of CPUs).
	BackgroundThreads int
}

// DefaultOptions returns the options of the Default registry.
func DefaultOptions() Options {
	return Options{
		RemoteTimeout: 10 * time.Second,
	}
}

// Registry maps backend identifiers to constructors. It does not cache or
// pool handles: every call constructs a new environment owned by the caller.
//
// Thread-safety: All methods are safe for concurrent use.
type Registry struct {
	opts   Options
	custom *xsync.MapOf[string, Constructor]
}

// New creates a registry with the given options and no custom backends.
func New(opts Options) *Registry {
	return &Registry{
		opts:   opts,
		custom: xsync.NewMapOf[string, Constructor](),
	}
}

// RegisterCustom makes a custom backend available under a URI scheme.
// Schemes are case-insensitive. Built-in schemes and schemes that are already
// registered are rejected.
func (r *Registry) RegisterCustom(scheme string, c Constructor) error {
	scheme = strings.ToLower(strings.TrimSpace(scheme))
	if scheme == "" || c == nil {
		return env.NewError(env.KindInvalidArgument, "custom backend needs a scheme and a constructor")
	}
	if strings.ContainsAny(scheme, ":/") {
		return env.NewError(env.KindInvalidArgument, fmt.Sprintf("scheme %q must not contain ':' or '/'", scheme))
	}
	if _, builtin := env.ParseBackend(scheme); builtin {
		return env.NewError(env.KindInvalidArgument, fmt.Sprintf("scheme %q is reserved for a built-in backend", scheme))
	}
	if _, loaded := r.custom.LoadOrStore(scheme, c); loaded {
		return env.NewError(env.KindInvalidArgument, fmt.Sprintf("custom backend %q is already registered", scheme))
	}
	log.Debugf("registered custom backend %q", scheme)
	return nil
}

// Construct creates an environment for the backend.
//
// The capability check runs first: a backend that is not compiled in fails
// with the BackendUnavailable error "Not compiled with <name> support" without
// looking at args. Otherwise args is handed to the backend; a backend that
// cannot be initialised fails with BackendConstructionFailed.
//
// The returned handle is never nil. After a failure it is a failed handle that
// carries the returned error: it can be passed on in db.Options, where opening
// reports that error, and releasing it is a no-op.
func (r *Registry) Construct(ctx context.Context, backend env.Backend, args string) (*env.Handle, error) {
	if !env.IsCompiledIn(backend) {
		return r.fail(backend, args, env.NotCompiledError(backend.String()))
	}

	if backend.Remote() && r.opts.RemoteTimeout > 0 {
		if _, ok := ctx.Deadline(); !ok {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, r.opts.RemoteTimeout)
			defer cancel()
		}
	}

	var (
		e   env.Env
		err error
	)
	switch backend {
	case env.BackendLocal:
		e, err = r.constructLocal(args)
	case env.BackendHdfs:
		e, err = hdfs.New(ctx, args)
	case env.BackendMemory:
		e, err = memory.New(stripScheme(args)), nil
	case env.BackendCustom:
		e, err = r.constructCustom(ctx, args)
	default:
		err = env.NotCompiledError(backend.String())
	}
	if err != nil {
		if env.KindOf(err) == env.KindUnknown {
			err = env.WrapError(env.KindBackendConstructionFailed,
				fmt.Sprintf("cannot construct %s environment from %q", backend, args), err)
		}
		return r.fail(backend, args, err)
	}

	env.RecordConstruct(backend, env.ResultOK)
	log.Infof("constructed %s environment %q", backend, args)
	return env.NewHandle(backend, args, e), nil
}

// ConstructURI selects the backend from the scheme of uri and constructs it.
// A string without a scheme is a local directory. Only the scheme is
// inspected before the capability check; an unknown scheme that no custom
// backend is registered for is reported as not compiled in.
func (r *Registry) ConstructURI(ctx context.Context, uri string) (*env.Handle, error) {
	scheme, _, ok := env.SplitScheme(uri)
	if !ok {
		return r.Construct(ctx, env.BackendLocal, uri)
	}
	if b, known := env.ParseBackend(scheme); known {
		return r.Construct(ctx, b, uri)
	}
	return r.Construct(ctx, env.BackendCustom, uri)
}

// WithEnv constructs an environment, passes it to fn and releases it on every
// exit path. An error from fn takes precedence over an error from Release.
func (r *Registry) WithEnv(ctx context.Context, backend env.Backend, args string, fn func(*env.Handle) error) (err error) {
	h, err := r.Construct(ctx, backend, args)
	if err != nil {
		return err
	}
	defer func() {
		if releaseErr := h.Release(); err == nil {
			err = releaseErr
		}
	}()
	return fn(h)
}

// --------------------------------------------------------------------------
// Backend constructors
// --------------------------------------------------------------------------

func (r *Registry) constructLocal(args string) (env.Env, error) {
	return local.New(local.Options{
		Root:              stripScheme(args),
		BackgroundThreads: r.opts.BackgroundThreads,
	})
}

func (r *Registry) constructCustom(ctx context.Context, args string) (env.Env, error) {
	scheme, _, ok := env.SplitScheme(args)
	if !ok {
		return nil, env.NewError(env.KindBackendConstructionFailed,
			fmt.Sprintf("custom backend identifier %q has no scheme", args))
	}
	c, found := r.custom.Load(scheme)
	if !found {
		return nil, env.NotCompiledError(scheme)
	}
	e, err := c(ctx, args)
	if err == nil && e == nil {
		err = fmt.Errorf("constructor for %q returned no environment", scheme)
	}
	return e, err
}

func (r *Registry) fail(backend env.Backend, args string, err error) (*env.Handle, error) {
	if env.KindOf(err) == env.KindBackendUnavailable {
		env.RecordConstruct(backend, env.ResultUnavailable)
		log.Debugf("%s environment unavailable: %v", backend, err)
	} else {
		env.RecordConstruct(backend, env.ResultFailed)
		log.Warningf("cannot construct %s environment: %v", backend, err)
	}
	return env.NewFailedHandle(backend, args, err), err
}

// stripScheme drops a leading "<scheme>://" from args.
func stripScheme(args string) string {
	if _, rest, ok := env.SplitScheme(args); ok {
		return rest
	}
	return args
}
