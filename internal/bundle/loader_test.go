package bundle

import (
	"os"
	"path/filepath"
	"testing"
)

const testBundleTOML = `
regime = "CSRD"
bundle_id = "esrs_mini"
version = "1.0.0"
jurisdiction = "*"

[[obligations]]
obligation_code = "E1-6"
standard = "E1"
title = "Gross Scopes 1, 2, 3 GHG emissions"
mandatory = true

  [[obligations.datapoints]]
  datapoint_key = "e1-6-scope1"
  title = "Scope 1 emissions"
  disclosure_ref = "ESRS E1-6 P44a"
  datapoint_type = "metric"
  requires_baseline = true
`

func writeTestBundle(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
}

func TestParseFile_ValidatesAndStampsChecksum(t *testing.T) {
	dir := t.TempDir()
	writeTestBundle(t, dir, "esrs_mini.toml", testBundleTOML)

	b, err := ParseFile(filepath.Join(dir, "esrs_mini.toml"))
	if err != nil {
		t.Fatalf("ParseFile() error = %v", err)
	}
	if b.BundleID != "esrs_mini" || b.Version != "1.0.0" {
		t.Errorf("ParseFile() = %+v, want bundle_id=esrs_mini version=1.0.0", b)
	}
	if b.Checksum == "" {
		t.Error("ParseFile() left Checksum empty")
	}
	if len(b.Obligations) != 1 || len(b.Obligations[0].Datapoints) != 1 {
		t.Fatalf("ParseFile() obligations/datapoints = %+v, want one of each", b.Obligations)
	}
	if !b.Obligations[0].Datapoints[0].RequiresBaseline {
		t.Error("ParseFile() lost requires_baseline = true")
	}
}

func TestParseFile_RejectsInvalidBundle(t *testing.T) {
	dir := t.TempDir()
	writeTestBundle(t, dir, "bad.toml", `
regime = "CSRD"
bundle_id = ""
version = "1.0.0"
jurisdiction = "*"
`)

	if _, err := ParseFile(filepath.Join(dir, "bad.toml")); err == nil {
		t.Fatal("ParseFile() = nil error, want validation failure for empty bundle_id")
	}
}

func TestLoader_LoadAll_SkipsNonTOMLFiles(t *testing.T) {
	dir := t.TempDir()
	writeTestBundle(t, dir, "esrs_mini.toml", testBundleTOML)
	writeTestBundle(t, dir, "README.md", "not a bundle")

	bundles, err := NewLoader(dir).LoadAll()
	if err != nil {
		t.Fatalf("LoadAll() error = %v", err)
	}
	if len(bundles) != 1 {
		t.Fatalf("LoadAll() returned %d bundles, want 1", len(bundles))
	}
}
