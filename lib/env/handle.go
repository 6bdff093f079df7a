package env

import (
	"fmt"
	"sync"
)

// --------------------------------------------------------------------------
// Environment Handle
// --------------------------------------------------------------------------

// Handle is one configured backend instance. It is exclusively owned by whoever
// constructed it and must be released exactly once after a successful construction.
//
// A handle can also represent a construction that failed. Such a handle is
// never usable: every accessor returns the construction error unchanged, and
// Release is a no-op. This lets callers hand the outcome of a construction
// to a storage instance, which then reports the original error.
//
// Storage instances take references with Acquire. The handle cannot be
// released while references are outstanding.
//
// Thread-safety: All methods are safe for concurrent use.
type Handle struct {
	backend    Backend
	descriptor string
	err        error // construction error (nil for live handles)

	mu       sync.Mutex
	env      Env
	released bool
	refs     int
}

// NewHandle wraps a successfully constructed environment.
func NewHandle(backend Backend, descriptor string, e Env) *Handle {
	liveHandles.Add(1)
	return &Handle{
		backend:    backend,
		descriptor: descriptor,
		env:        e,
	}
}

// NewFailedHandle records a construction that failed with err.
func NewFailedHandle(backend Backend, descriptor string, err error) *Handle {
	return &Handle{
		backend:    backend,
		descriptor: descriptor,
		err:        err,
	}
}

// Backend returns the backend this handle was constructed for.
func (h *Handle) Backend() Backend {
	return h.backend
}

// Descriptor returns the backend arguments the handle was constructed with.
func (h *Handle) Descriptor() string {
	return h.descriptor
}

// Err returns the construction error, or nil for a handle that was constructed successfully.
func (h *Handle) Err() error {
	if h == nil {
		return nil
	}
	return h.err
}

// Env returns the environment without taking a reference.
func (h *Handle) Env() (Env, error) {
	if h == nil {
		return nil, NewError(KindInvalidState, "nil environment handle")
	}
	if h.err != nil {
		return nil, h.err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.released {
		return nil, h.releasedError()
	}
	return h.env, nil
}

// Acquire returns the environment and takes a reference on the handle.
// The returned function drops the reference; calling it more than once has no effect.
func (h *Handle) Acquire() (Env, func(), error) {
	if h == nil {
		return nil, nil, NewError(KindInvalidState, "nil environment handle")
	}
	if h.err != nil {
		return nil, nil, h.err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.released {
		return nil, nil, h.releasedError()
	}
	h.refs++

	var once sync.Once
	drop := func() {
		once.Do(func() {
			h.mu.Lock()
			h.refs--
			h.mu.Unlock()
		})
	}
	return h.env, drop, nil
}

// Refs returns the number of outstanding references.
func (h *Handle) Refs() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.refs
}

// Released reports whether Release has completed on a live handle.
func (h *Handle) Released() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.released
}

// Release closes the environment.
//
//   - On a failed or nil handle it does nothing and returns nil.
//   - While storage instances still reference the handle it fails with
//     KindInvalidState and the handle stays live.
//   - A second release fails with KindResourceAlreadyClosed.
func (h *Handle) Release() error {
	if h == nil || h.err != nil {
		return nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.released {
		return h.releasedError()
	}
	if h.refs > 0 {
		return NewError(KindInvalidState, fmt.Sprintf(
			"%s environment is still used by %d storage instance(s)", h.backend, h.refs))
	}

	h.released = true
	liveHandles.Add(-1)
	return h.env.Close()
}

func (h *Handle) releasedError() error {
	return NewError(KindResourceAlreadyClosed, fmt.Sprintf("%s environment already released", h.backend))
}

func (h *Handle) String() string {
	switch {
	case h == nil:
		return "<nil>"
	case h.err != nil:
		return fmt.Sprintf("%s(%s): failed: %v", h.backend, h.descriptor, h.err)
	case h.Released():
		return fmt.Sprintf("%s(%s): released", h.backend, h.descriptor)
	default:
		return fmt.Sprintf("%s(%s): live", h.backend, h.descriptor)
	}
}
