package provider

import (
	"context"
	"fmt"
	"os"
)

// Factory holds every available provider and a circuit breaker per
// provider, auto-detecting external providers from environment variables
// exactly as the sibling teacher family's LLM factory does.
type Factory struct {
	providers map[string]Provider
	breakers  map[string]*CircuitBreaker
	primary   string
}

// NewFactory builds a Factory. The deterministic provider is always
// registered. Claude is registered if ANTHROPIC_API_KEY is set; Gemini is
// registered if GOOGLE_API_KEY or GEMINI_API_KEY is set. primary names the
// provider tried first; it falls back to "deterministic" if unset.
func NewFactory(ctx context.Context, primary string) *Factory {
	if primary == "" {
		primary = "deterministic"
	}

	f := &Factory{
		providers: make(map[string]Provider),
		breakers:  make(map[string]*CircuitBreaker),
		primary:   primary,
	}

	f.register(NewDeterministicProvider())

	if os.Getenv("ANTHROPIC_API_KEY") != "" {
		if p, err := NewAnthropicProvider(); err == nil {
			f.register(p)
		}
	}

	if os.Getenv("GOOGLE_API_KEY") != "" || os.Getenv("GEMINI_API_KEY") != "" {
		if p, err := NewGeminiProvider(ctx); err == nil {
			f.register(p)
		}
	}

	return f
}

func (f *Factory) register(p Provider) {
	f.providers[p.Name()] = p
	f.breakers[p.Name()] = NewCircuitBreaker(p.Name())
}

// GetProvider returns the primary provider if its breaker allows requests,
// otherwise falls back to any other provider whose breaker allows requests,
// and finally to the always-available deterministic provider.
func (f *Factory) GetProvider() (Provider, error) {
	if p, ok := f.providers[f.primary]; ok {
		if b := f.breakers[f.primary]; b == nil || b.Allow() {
			return p, nil
		}
	}

	for name, p := range f.providers {
		if name == f.primary || name == "deterministic" {
			continue
		}
		if b := f.breakers[name]; b == nil || b.Allow() {
			return p, nil
		}
	}

	if p, ok := f.providers["deterministic"]; ok {
		return p, nil
	}

	return nil, fmt.Errorf("provider: no providers available")
}

// ReportSuccess resets providerName's breaker to closed.
func (f *Factory) ReportSuccess(providerName string) {
	if b, ok := f.breakers[providerName]; ok {
		b.RecordSuccess()
	}
}

// ReportFailure records a transport failure against providerName's breaker.
func (f *Factory) ReportFailure(providerName string) {
	if b, ok := f.breakers[providerName]; ok {
		b.RecordFailure()
	}
}

// HasProvider reports whether name is registered.
func (f *Factory) HasProvider(name string) bool {
	_, ok := f.providers[name]
	return ok
}

// Primary returns the name of the provider configured as primary, the
// provider identity captured into the run fingerprint.
func (f *Factory) Primary() string {
	return f.primary
}
