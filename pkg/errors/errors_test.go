package errors

import (
	stdErrors "errors"
	"net/http"
	"testing"
)

func TestErrorIncludesInternal(t *testing.T) {
	internal := stdErrors.New("boom")
	err := Wrap(internal, "failed")

	if err.Error() != "failed: boom" {
		t.Fatalf("unexpected error string: %s", err.Error())
	}
}

func TestWithInternalCopies(t *testing.T) {
	base := New("TEST", "test", 400)
	with := base.WithInternal(stdErrors.New("oops"))

	if with == base {
		t.Fatal("expected WithInternal to return a copy")
	}

	if base.Internal != nil {
		t.Fatal("expected original error to remain unchanged")
	}

	if with.Internal == nil {
		t.Fatal("expected internal error to be set")
	}
}

func TestWithMessageCopies(t *testing.T) {
	with := ErrConflict.WithMessage("profile already created")

	if with == ErrConflict {
		t.Fatal("expected WithMessage to return a copy")
	}
	if with.Message != "profile already created" {
		t.Fatalf("unexpected message: %s", with.Message)
	}
	if with.StatusCode != http.StatusConflict {
		t.Fatalf("expected conflict status, got %d", with.StatusCode)
	}
}

func TestFromError(t *testing.T) {
	appErr := ErrNotFound
	if out := FromError(appErr); out != appErr {
		t.Fatal("expected FromError to return the same AppError instance")
	}

	raw := stdErrors.New("raw")
	out := FromError(raw)
	if out.Code != ErrInternalServer.Code {
		t.Fatalf("expected internal server code, got %s", out.Code)
	}
	if out.Internal == nil {
		t.Fatal("expected internal error to be attached")
	}
}

func TestNewBadRequest(t *testing.T) {
	err := NewBadRequest("invalid payload")

	if err.Code != ErrBadRequest.Code {
		t.Fatalf("expected code %s, got %s", ErrBadRequest.Code, err.Code)
	}
	if err.Message != "invalid payload" {
		t.Fatalf("unexpected message: %s", err.Message)
	}
}

func TestErrorsIsThroughUnwrap(t *testing.T) {
	sentinel := stdErrors.New("sentinel")
	wrapped := ErrInternalServer.WithInternal(sentinel)

	if !stdErrors.Is(wrapped, sentinel) {
		t.Fatal("expected errors.Is to find the internal error")
	}
}
