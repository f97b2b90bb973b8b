// Package canonicaljson implements the canonicalization contract spec.md
// §9 requires of every hashed record: deterministic key ordering, UTF-8,
// and ISO-8601 timestamps, so that independent readers can re-verify a
// record's integrity hash from scratch.
//
// Go's encoding/json already sorts map keys when marshaling a map[string]any
// and serializes time.Time as RFC3339 (a profile of ISO-8601), so
// canonicalization here is a matter of routing every hashed value through
// a map[string]any round-trip before the final marshal, which normalizes
// field order regardless of the original struct's field order.
package canonicaljson

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Marshal serializes v into its canonical form: struct fields (or an
// existing map) flattened into a map[string]any and re-marshaled, which
// forces encoding/json to emit object keys in sorted order at every
// nesting level.
func Marshal(v any) ([]byte, error) {
	// First pass: turn v (a struct, pointer, or map) into generic JSON
	// values so struct-field order is discarded.
	intermediate, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("canonicaljson: marshal: %w", err)
	}

	var generic any
	dec := json.NewDecoder(bytes.NewReader(intermediate))
	dec.UseNumber()
	if err := dec.Decode(&generic); err != nil {
		return nil, fmt.Errorf("canonicaljson: decode intermediate: %w", err)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(generic); err != nil {
		return nil, fmt.Errorf("canonicaljson: encode canonical: %w", err)
	}
	// json.Encoder.Encode appends a trailing newline; strip it so the
	// hashed bytes are exactly the canonical document.
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Hash returns the lowercase-hex SHA-256 digest of v's canonical JSON
// form (spec.md §3 FindingRecord.integrity_hash, §4.6 WitnessStatement
// hash_ref, §4.7 record_finding step 2).
func Hash(v any) (string, error) {
	b, err := Marshal(v)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}
