package bundle

import (
	"github.com/verascope/verascope/internal/canonical"
	"github.com/verascope/verascope/internal/domain"
)

// payload is the checksummed portion of a bundle: everything in
// bundle_id@version.json except the checksum field itself.
type payload struct {
	Regime       string              `json:"regime"`
	BundleID     string              `json:"bundle_id"`
	Version      string              `json:"version"`
	Jurisdiction string              `json:"jurisdiction"`
	Obligations  []domain.Obligation `json:"obligations"`
	Overlays     []domain.Overlay    `json:"overlays,omitempty"`
}

func toPayload(b *domain.Bundle) payload {
	return payload{
		Regime:       b.Regime,
		BundleID:     b.BundleID,
		Version:      b.Version,
		Jurisdiction: b.Jurisdiction,
		Obligations:  b.Obligations,
		Overlays:     b.Overlays,
	}
}

// Canonicalize computes b's canonical JSON payload bytes and checksum,
// leaving b.Checksum untouched. Two bundles with identical
// (regime, bundle_id, version, jurisdiction, obligations, overlays) produce
// identical bytes and checksums regardless of authoring order within maps.
func Canonicalize(b *domain.Bundle) (canonicalBytes []byte, checksum string, err error) {
	p := toPayload(b)
	canonicalBytes, err = canonical.Marshal(p)
	if err != nil {
		return nil, "", err
	}
	checksum = canonical.ChecksumBytes(canonicalBytes)
	return canonicalBytes, checksum, nil
}

// Stamp computes and assigns b.Checksum in place.
func Stamp(b *domain.Bundle) error {
	_, checksum, err := Canonicalize(b)
	if err != nil {
		return err
	}
	b.Checksum = checksum
	return nil
}
