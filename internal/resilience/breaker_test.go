package resilience

import (
	"errors"
	"testing"
	"time"
)

var errProvider = errors.New("provider down")

func TestBreakerOpensAfterMaxFailures(t *testing.T) {
	b := NewBreaker(3, time.Minute)

	for range 3 {
		_ = b.Execute(func() error { return errProvider })
	}

	err := b.Execute(func() error { return nil })
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("expected ErrCircuitOpen, got %v", err)
	}
}

func TestBreakerSuccessResetsFailures(t *testing.T) {
	b := NewBreaker(3, time.Minute)

	_ = b.Execute(func() error { return errProvider })
	_ = b.Execute(func() error { return errProvider })
	if err := b.Execute(func() error { return nil }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Two more failures should not open the circuit (count was reset).
	_ = b.Execute(func() error { return errProvider })
	_ = b.Execute(func() error { return errProvider })
	if err := b.Execute(func() error { return nil }); errors.Is(err, ErrCircuitOpen) {
		t.Error("circuit should still be closed after reset")
	}
}

func TestBreakerHalfOpenRecovers(t *testing.T) {
	b := NewBreaker(1, time.Minute)
	current := time.Now()
	b.now = func() time.Time { return current }

	_ = b.Execute(func() error { return errProvider })
	if err := b.Execute(func() error { return nil }); !errors.Is(err, ErrCircuitOpen) {
		t.Fatal("circuit should be open")
	}

	// After the timeout the next call probes and a success closes the circuit.
	current = current.Add(2 * time.Minute)
	if err := b.Execute(func() error { return nil }); err != nil {
		t.Fatalf("half-open probe should run: %v", err)
	}
	if err := b.Execute(func() error { return nil }); err != nil {
		t.Errorf("circuit should be closed again: %v", err)
	}
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	b := NewBreaker(1, time.Minute)
	current := time.Now()
	b.now = func() time.Time { return current }

	_ = b.Execute(func() error { return errProvider })
	current = current.Add(2 * time.Minute)
	_ = b.Execute(func() error { return errProvider })

	if err := b.Execute(func() error { return nil }); !errors.Is(err, ErrCircuitOpen) {
		t.Error("failed probe should reopen the circuit")
	}
}
