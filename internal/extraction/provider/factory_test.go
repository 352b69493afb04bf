package provider

import (
	"context"
	"testing"
)

func TestNewFactory_AlwaysRegistersDeterministic(t *testing.T) {
	f := NewFactory(context.Background(), "")
	if !f.HasProvider("deterministic") {
		t.Fatal("HasProvider(\"deterministic\") = false, want true")
	}

	p, err := f.GetProvider()
	if err != nil {
		t.Fatalf("GetProvider() error = %v", err)
	}
	if p.Name() != "deterministic" {
		t.Errorf("GetProvider() = %q, want deterministic (no external keys set)", p.Name())
	}
}

func TestFactory_FallsBackToDeterministicWhenPrimaryBreakerOpen(t *testing.T) {
	f := NewFactory(context.Background(), "deterministic")
	breaker := f.breakers["deterministic"]
	breaker.RecordFailure()
	breaker.RecordFailure()
	breaker.RecordFailure()

	p, err := f.GetProvider()
	if err != nil {
		t.Fatalf("GetProvider() error = %v", err)
	}
	if p.Name() != "deterministic" {
		t.Errorf("GetProvider() = %q, want deterministic (always-available final fallback)", p.Name())
	}
}

func TestFactory_ReportSuccessAndFailureUpdateBreaker(t *testing.T) {
	f := NewFactory(context.Background(), "deterministic")

	f.ReportFailure("deterministic")
	f.ReportFailure("deterministic")
	f.ReportFailure("deterministic")
	if f.breakers["deterministic"].State() != BreakerOpen {
		t.Fatal("breaker did not open after 3 reported failures")
	}

	f.ReportSuccess("deterministic")
	if f.breakers["deterministic"].State() != BreakerClosed {
		t.Error("breaker did not close after reported success")
	}
}
