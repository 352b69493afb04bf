package bundle

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/verascope/verascope/internal/domain"
)

// Loader reads TOML-authored bundle files from a directory, validates them,
// and stamps a canonical checksum — mirroring the teacher family's
// TOML-source-to-compiled-artifact split for its recipe catalog.
type Loader struct {
	dir string
}

// NewLoader creates a Loader rooted at dir.
func NewLoader(dir string) *Loader {
	return &Loader{dir: dir}
}

// ParseFile loads, validates, and checksum-stamps a single TOML bundle file.
func ParseFile(path string) (*domain.Bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("bundle: read %s: %w", path, err)
	}

	var raw tomlBundle
	if _, err := toml.Decode(string(data), &raw); err != nil {
		return nil, fmt.Errorf("bundle: decode %s: %w", path, err)
	}

	b := raw.toDomain()
	if err := Validate(b); err != nil {
		return nil, fmt.Errorf("bundle: %s: %w", path, err)
	}
	if err := Stamp(b); err != nil {
		return nil, fmt.Errorf("bundle: checksum %s: %w", path, err)
	}
	return b, nil
}

// LoadAll parses every *.toml file directly under l.dir (no recursion into
// subdirectories; a bundles/ directory is a flat catalog).
func (l *Loader) LoadAll() ([]*domain.Bundle, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, fmt.Errorf("bundle: read dir %s: %w", l.dir, err)
	}

	var out []*domain.Bundle
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".toml" {
			continue
		}
		b, err := ParseFile(filepath.Join(l.dir, e.Name()))
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}
