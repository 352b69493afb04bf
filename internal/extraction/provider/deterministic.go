package provider

import "context"

// DeterministicFixedRationale is the fixed rationale the deterministic
// provider always emits, per spec §4.8: "Deterministic-fallback: never
// calls out; emits Absent with a fixed rationale."
const DeterministicFixedRationale = "deterministic-fallback: no external extraction provider configured"

// DeterministicProvider never makes an external call. It is always
// registered and is the only provider the module requires to run
// end-to-end.
type DeterministicProvider struct{}

// NewDeterministicProvider creates a DeterministicProvider.
func NewDeterministicProvider() *DeterministicProvider {
	return &DeterministicProvider{}
}

// Name returns "deterministic".
func (p *DeterministicProvider) Name() string {
	return "deterministic"
}

// Extract always returns Absent with DeterministicFixedRationale, ignoring req.
func (p *DeterministicProvider) Extract(_ context.Context, _ *Request) (*Record, error) {
	return &Record{
		Status:    "Absent",
		Rationale: DeterministicFixedRationale,
	}, nil
}
