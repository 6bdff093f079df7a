package env

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"testing"
)

func TestNotCompiledError(t *testing.T) {
	err := NotCompiledError("hdfs")

	if err.Error() != "Not compiled with hdfs support" {
		t.Errorf("Unexpected message: %q", err.Error())
	}
	if err.Kind != KindBackendUnavailable {
		t.Errorf("Expected kind %s, got %s", KindBackendUnavailable, err.Kind)
	}
	if !errors.Is(err, ErrBackendUnavailable) {
		t.Errorf("Expected errors.Is to match the sentinel")
	}
	if errors.Is(err, ErrBackendConstructionFailed) {
		t.Errorf("Expected kinds to be distinguishable")
	}
}

func TestErrorWrapping(t *testing.T) {
	cause := errors.New("connection refused")
	err := WrapError(KindBackendConstructionFailed, "cannot connect", cause)

	if err.Error() != "cannot connect: connection refused" {
		t.Errorf("Unexpected message: %q", err.Error())
	}
	if !errors.Is(err, cause) {
		t.Errorf("Expected the cause to be reachable")
	}

	outer := fmt.Errorf("open db: %w", err)
	if KindOf(outer) != KindBackendConstructionFailed {
		t.Errorf("Expected KindOf to see through wrapping, got %s", KindOf(outer))
	}
	if !errors.Is(outer, ErrBackendConstructionFailed) {
		t.Errorf("Expected errors.Is to see through wrapping")
	}
}

func TestKindOf(t *testing.T) {
	if KindOf(nil) != KindUnknown {
		t.Errorf("Expected KindUnknown for nil")
	}
	if KindOf(errors.New("plain")) != KindUnknown {
		t.Errorf("Expected KindUnknown for a foreign error")
	}
	if KindOf(NewError(KindCorruption, "bad crc")) != KindCorruption {
		t.Errorf("Expected KindCorruption")
	}
}

func TestIOError(t *testing.T) {
	if IOError("x", nil) != nil {
		t.Errorf("Expected nil for a nil error")
	}

	notExist := &fs.PathError{Op: "open", Path: "/x", Err: fs.ErrNotExist}
	if KindOf(IOError("open /x", notExist)) != KindNotFound {
		t.Errorf("Expected missing files to map to NotFound")
	}

	if KindOf(IOError("write", os.ErrPermission)) != KindIOError {
		t.Errorf("Expected other errors to map to IOError")
	}

	typed := NewError(KindInvalidArgument, "bad")
	if got := IOError("ctx", typed); got != error(typed) {
		t.Errorf("Expected typed errors to pass through unchanged")
	}
}

func TestKindNames(t *testing.T) {
	for kind := KindUnknown; kind <= KindCorruption; kind++ {
		if kind != KindUnknown && kind.String() == "Unknown" {
			t.Errorf("Kind %d has no name", kind)
		}
	}
}
