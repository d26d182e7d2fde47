package snapshot

import (
	"encoding/json"
	"fmt"
)

// MarshalJSON encodes the plain form canonically.
func (s Snapshot) MarshalJSON() ([]byte, error) {
	return MarshalCanonical(s.Value())
}

// UnmarshalJSON decodes the plain form. Children are ordered by position, then id.
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	obj, err := ParseObject(data)
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	parsed, err := FromValue(obj)
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	*s = parsed
	return nil
}

// MarshalHistory encodes a history as a canonical JSON array.
func MarshalHistory(h []Snapshot) ([]byte, error) {
	list := make(List, len(h))
	for i, s := range h {
		list[i] = s.Value()
	}
	return MarshalCanonical(list)
}

// UnmarshalHistory decodes a JSON array of snapshots.
func UnmarshalHistory(data []byte) ([]Snapshot, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("history: %w", err)
	}
	out := make([]Snapshot, len(raw))
	for i, r := range raw {
		if err := out[i].UnmarshalJSON(r); err != nil {
			return nil, fmt.Errorf("history[%d]: %w", i, err)
		}
	}
	return out, nil
}
