package provider

import (
	"testing"
	"time"
)

func TestNewCircuitBreaker(t *testing.T) {
	cb := NewCircuitBreaker("test")

	if cb.Name() != "test" {
		t.Errorf("Name() = %q, want %q", cb.Name(), "test")
	}
	if cb.State() != BreakerClosed {
		t.Errorf("State() = %v, want BreakerClosed", cb.State())
	}
	if cb.Failures() != 0 {
		t.Errorf("Failures() = %d, want 0", cb.Failures())
	}
}

func TestCircuitBreaker_AllowWhenClosed(t *testing.T) {
	cb := NewCircuitBreaker("test")
	if !cb.Allow() {
		t.Error("Allow() = false, want true when closed")
	}
}

func TestCircuitBreaker_TripsAfterThreshold(t *testing.T) {
	cb := NewCircuitBreaker("test")

	cb.RecordFailure()
	cb.RecordFailure()
	if cb.State() != BreakerClosed {
		t.Errorf("State() = %v after 2 failures, want BreakerClosed", cb.State())
	}

	cb.RecordFailure()
	if cb.State() != BreakerOpen {
		t.Errorf("State() = %v after 3 failures, want BreakerOpen", cb.State())
	}
}

func TestCircuitBreaker_RejectsWhenOpen(t *testing.T) {
	cb := NewCircuitBreaker("test")
	cb.RecordFailure()
	cb.RecordFailure()
	cb.RecordFailure()

	if cb.Allow() {
		t.Error("Allow() = true, want false when open")
	}
}

func TestCircuitBreaker_RecoverySuccessClosesBreaker(t *testing.T) {
	cb := NewCircuitBreaker("test")
	cb.RecordFailure()
	cb.RecordFailure()
	cb.RecordFailure()

	cb.RecordSuccess()

	if cb.State() != BreakerClosed {
		t.Errorf("State() = %v after success, want BreakerClosed", cb.State())
	}
	if cb.Failures() != 0 {
		t.Errorf("Failures() = %d after success, want 0", cb.Failures())
	}
}

func TestCircuitBreaker_TransitionsToHalfOpenAfterTimeout(t *testing.T) {
	cb := NewCircuitBreaker("test")
	mockTime := time.Now()
	cb.now = func() time.Time { return mockTime }

	cb.RecordFailure()
	cb.RecordFailure()
	cb.RecordFailure()

	mockTime = mockTime.Add(30 * time.Second)
	if cb.Allow() {
		t.Error("Allow() = true before recovery timeout, want false")
	}

	mockTime = mockTime.Add(31 * time.Second)
	if !cb.Allow() {
		t.Error("Allow() = false after recovery timeout, want true")
	}
	if cb.State() != BreakerHalfOpen {
		t.Errorf("State() = %v, want BreakerHalfOpen", cb.State())
	}
}
