package cmdlog

import (
	"errors"
	"testing"
)

func TestRunPassesErrorThrough(t *testing.T) {
	want := errors.New("boom")
	if got := Run("test-fail", func() error { return want }); got != want {
		t.Fatalf("got %v, want %v", got, want)
	}
	if err := Run("test-ok", func() error { return nil }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRunInvokesBodyOnce(t *testing.T) {
	calls := 0
	_ = Run("test-count", func() error { calls++; return nil })
	if calls != 1 {
		t.Fatalf("body ran %d times", calls)
	}
}
