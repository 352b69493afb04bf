package canonical

import "testing"

func TestMarshal_SortsKeysAndIsStable(t *testing.T) {
	a := map[string]any{"b": 1, "a": 2, "c": []any{3, 2, 1}}
	b := map[string]any{"c": []any{3, 2, 1}, "a": 2, "b": 1}

	gotA, err := Marshal(a)
	if err != nil {
		t.Fatalf("Marshal(a) error: %v", err)
	}
	gotB, err := Marshal(b)
	if err != nil {
		t.Fatalf("Marshal(b) error: %v", err)
	}

	if string(gotA) != string(gotB) {
		t.Errorf("Marshal() not key-order independent: %s != %s", gotA, gotB)
	}

	want := `{"a":2,"b":1,"c":[3,2,1]}`
	if string(gotA) != want {
		t.Errorf("Marshal() = %s, want %s", gotA, want)
	}
}

func TestMarshal_PreservesArrayOrder(t *testing.T) {
	v := []any{3, 1, 2}
	got, err := Marshal(v)
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}
	if string(got) != "[3,1,2]" {
		t.Errorf("Marshal() = %s, want [3,1,2]", got)
	}
}

func TestChecksum_Deterministic(t *testing.T) {
	v := map[string]any{"regime": "CSRD", "version": "2026.01"}

	c1, err := Checksum(v)
	if err != nil {
		t.Fatalf("Checksum() error: %v", err)
	}
	c2, err := Checksum(v)
	if err != nil {
		t.Fatalf("Checksum() error: %v", err)
	}

	if c1 != c2 {
		t.Errorf("Checksum() not deterministic: %s != %s", c1, c2)
	}
	if len(c1) != 64 {
		t.Errorf("Checksum() length = %d, want 64", len(c1))
	}
}

func TestChecksum_DependsOnlyOnCanonicalBytes(t *testing.T) {
	v1 := map[string]any{"a": 1, "b": 2}
	v2 := map[string]any{"b": 2, "a": 1}

	c1, _ := Checksum(v1)
	c2, _ := Checksum(v2)

	if c1 != c2 {
		t.Errorf("Checksum() depends on key order: %s != %s", c1, c2)
	}
}

func TestChecksum_DifferentValuesDiffer(t *testing.T) {
	c1, _ := Checksum(map[string]any{"a": 1})
	c2, _ := Checksum(map[string]any{"a": 2})

	if c1 == c2 {
		t.Error("different values produced the same checksum")
	}
}

func TestChecksumBytes_MatchesRawSHA256(t *testing.T) {
	got := ChecksumBytes([]byte("hello"))
	if len(got) != 64 {
		t.Errorf("ChecksumBytes() length = %d, want 64", len(got))
	}
	// Known SHA-256("hello") hex digest.
	const knownHelloSHA256 = "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"
	if got != knownHelloSHA256 {
		t.Errorf("ChecksumBytes(\"hello\") = %s, want %s", got, knownHelloSHA256)
	}
}
