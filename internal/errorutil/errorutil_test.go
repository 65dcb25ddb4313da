package errorutil

import (
	"errors"
	"testing"
)

func TestWrapNil(t *testing.T) {
	if Wrap(nil, "context") != nil {
		t.Fatal("expected nil")
	}
	if Wrapf(nil, "context %d", 1) != nil {
		t.Fatal("expected nil")
	}
}

func TestWrapKeepsChain(t *testing.T) {
	base := errors.New("base")

	err := Wrapf(Wrap(base, "inner"), "outer %q", "x")
	if !errors.Is(err, base) {
		t.Fatalf("expected %v to wrap %v", err, base)
	}

	if got, want := err.Error(), `outer "x": inner: base`; got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}
