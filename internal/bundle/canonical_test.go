package bundle

import "testing"

func TestCanonicalize_RoundTripIsStable(t *testing.T) {
	b := validBundle()

	bytes1, sum1, err := Canonicalize(b)
	if err != nil {
		t.Fatalf("Canonicalize() error = %v", err)
	}
	bytes2, sum2, err := Canonicalize(b)
	if err != nil {
		t.Fatalf("Canonicalize() error = %v", err)
	}

	if string(bytes1) != string(bytes2) {
		t.Errorf("canonical bytes differ across calls on identical input")
	}
	if sum1 != sum2 {
		t.Errorf("checksum differs across calls on identical input")
	}
}

func TestCanonicalize_ChecksumChangesWithContent(t *testing.T) {
	a := validBundle()
	b := validBundle()
	b.Obligations[0].Title = "a different title"

	_, sumA, err := Canonicalize(a)
	if err != nil {
		t.Fatalf("Canonicalize() error = %v", err)
	}
	_, sumB, err := Canonicalize(b)
	if err != nil {
		t.Fatalf("Canonicalize() error = %v", err)
	}
	if sumA == sumB {
		t.Error("checksum unchanged despite differing obligation title")
	}
}

func TestStamp_AssignsChecksum(t *testing.T) {
	b := validBundle()
	if err := Stamp(b); err != nil {
		t.Fatalf("Stamp() error = %v", err)
	}
	if b.Checksum == "" {
		t.Error("Stamp() left Checksum empty")
	}
}
