package fault

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindHelpersSeeThroughWrapping(t *testing.T) {
	base := New(Timeout, "fetch inbox", errors.New("deadline exceeded"))
	wrapped := fmt.Errorf("sync account: %w", base)

	if !IsTimeout(wrapped) {
		t.Error("IsTimeout must match through fmt.Errorf wrapping")
	}
	if IsNetwork(wrapped) || IsStorage(wrapped) || IsValidation(wrapped) {
		t.Error("wrong kind matched")
	}
}

func TestUnwrapReachesCause(t *testing.T) {
	cause := errors.New("disk full")
	f := New(Storage, "put message", cause)
	if !errors.Is(f, cause) {
		t.Error("errors.Is must reach the underlying cause")
	}
}

func TestErrorMessage(t *testing.T) {
	f := Errorf(Validation, "generated email %q has no @", "bogus")
	want := `generated email "bogus" has no @: validation failure`
	if f.Error() != want {
		t.Errorf("Error() = %q, want %q", f.Error(), want)
	}

	withCause := New(Network, "fetch inbox", errors.New("connection refused"))
	if got := withCause.Error(); got != "fetch inbox: network failure: connection refused" {
		t.Errorf("Error() = %q", got)
	}
}

func TestPlainErrorsMatchNoKind(t *testing.T) {
	err := errors.New("plain")
	if IsStorage(err) || IsNetwork(err) || IsTimeout(err) || IsValidation(err) {
		t.Error("plain error must not match any kind")
	}
}
