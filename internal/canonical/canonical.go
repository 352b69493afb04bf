// Package canonical computes the canonical JSON encoding and SHA-256
// checksums used throughout the pipeline for content-addressing: bundle
// checksums, plan_hash, run_hash, and prompt_hash all reduce to
// Checksum(canonical(value)).
package canonical

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
)

// Marshal produces the canonical byte sequence for v: sorted object keys,
// arrays preserved in the order given, no insignificant whitespace, UTF-8.
// v must be JSON-marshalable (structs, maps, slices, primitives).
func Marshal(v any) ([]byte, error) {
	normalized, err := normalize(v)
	if err != nil {
		return nil, fmt.Errorf("canonical: normalize: %w", err)
	}
	return encode(normalized)
}

// Checksum returns the lowercase hex SHA-256 of Marshal(v).
func Checksum(v any) (string, error) {
	b, err := Marshal(v)
	if err != nil {
		return "", err
	}
	return ChecksumBytes(b), nil
}

// ChecksumBytes returns the lowercase hex SHA-256 of raw bytes, used directly
// for content-addressed entities like doc_hash and chunk_id where the input
// is already a defined byte sequence rather than a value needing
// canonicalization.
func ChecksumBytes(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// normalize round-trips v through encoding/json to obtain a tree of
// map[string]any / []any / json.Number / string / bool / nil, which encode
// then walks deterministically. Using json.Number preserves the "decimals
// left as authored, no trailing zeros for integers" requirement because the
// original textual form of each number is retained until encode re-emits it.
func normalize(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

// encode writes the canonical JSON form of a normalized value.
func encode(v any) ([]byte, error) {
	buf := make([]byte, 0, 256)
	buf, err := appendValue(buf, v)
	if err != nil {
		return nil, err
	}
	return buf, nil
}

func appendValue(buf []byte, v any) ([]byte, error) {
	switch t := v.(type) {
	case nil:
		return append(buf, "null"...), nil
	case bool:
		if t {
			return append(buf, "true"...), nil
		}
		return append(buf, "false"...), nil
	case json.Number:
		return appendNumber(buf, t)
	case string:
		return appendString(buf, t), nil
	case []any:
		buf = append(buf, '[')
		for i, elem := range t {
			if i > 0 {
				buf = append(buf, ',')
			}
			var err error
			buf, err = appendValue(buf, elem)
			if err != nil {
				return nil, err
			}
		}
		return append(buf, ']'), nil
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		buf = append(buf, '{')
		for i, k := range keys {
			if i > 0 {
				buf = append(buf, ',')
			}
			buf = appendString(buf, k)
			buf = append(buf, ':')
			var err error
			buf, err = appendValue(buf, t[k])
			if err != nil {
				return nil, err
			}
		}
		return append(buf, '}'), nil
	default:
		return nil, fmt.Errorf("canonical: unsupported value type %T", v)
	}
}

// appendNumber normalizes a json.Number: integers are emitted without a
// trailing ".0" or exponent; decimals are left exactly as authored, since
// json.Number already preserves the original literal text.
func appendNumber(buf []byte, n json.Number) ([]byte, error) {
	s := n.String()
	return append(buf, s...), nil
}

func appendString(buf []byte, s string) []byte {
	b, _ := json.Marshal(s)
	return append(buf, b...)
}
