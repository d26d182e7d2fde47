// Package typekey derives stable identifiers for reconstructible entity kinds.
//
// A TypeKey is the base shape name followed by a digest of the kind's sorted
// configuration entries:
//
//	Counter:4f1c2a9e0b7d3e55
//
// It is used only to look up a constructor when a child must be rebuilt from
// serialized data, never as an entity identity. Keys are deterministic within
// a process; they are not promised to survive a change of encoding version.
package typekey

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/rewind/internal/snapshot"
)

// digestLen is the number of hex characters of the config digest kept in a key.
const digestLen = 16

// Entry is one configuration entry of a kind.
type Entry struct {
	Key   string
	Value snapshot.Value
}

// E is a shorthand for Entry.
func E(key string, value snapshot.Value) Entry {
	return Entry{Key: key, Value: value}
}

// Generate returns shape + ":" + hash(sorted config entries).
// Entry order does not matter. Duplicate keys are rejected.
func Generate(shape string, config ...Entry) (string, error) {
	if shape == "" {
		return "", fmt.Errorf("typekey: shape name is required")
	}
	if strings.Contains(shape, ":") {
		return "", fmt.Errorf("typekey: shape name %q must not contain ':'", shape)
	}

	sorted := slices.Clone(config)
	slices.SortFunc(sorted, func(a, b Entry) int {
		return snapshot.CompareKeys(a.Key, b.Key)
	})

	entries := make(snapshot.List, len(sorted))
	for i, e := range sorted {
		if i > 0 && sorted[i-1].Key == e.Key {
			return "", fmt.Errorf("typekey: duplicate config entry %q", e.Key)
		}
		value := e.Value
		if value == nil {
			value = snapshot.Null{}
		}
		entries[i] = snapshot.List{snapshot.String(e.Key), value}
	}

	digest, err := snapshot.Digest(snapshot.DomainTypeKey, entries)
	if err != nil {
		return "", fmt.Errorf("typekey: %s: %w", shape, err)
	}
	return shape + ":" + digest[:digestLen], nil
}

// MustGenerate is like Generate but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustGenerate(shape string, config ...Entry) string {
	key, err := Generate(shape, config...)
	if err != nil {
		panic(err)
	}
	return key
}

// Shape returns the base shape name of a key.
func Shape(key string) string {
	shape, _, _ := strings.Cut(key, ":")
	return shape
}
