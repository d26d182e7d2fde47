package store

import (
	"encoding/json"
	"fmt"

	"github.com/klauspost/compress/zstd"

	"github.com/roach88/rewind/internal/snapshot"
)

// Shared codecs; EncodeAll and DecodeAll are safe for concurrent use.
var (
	payloadEncoder, _ = zstd.NewWriter(nil)
	payloadDecoder, _ = zstd.NewReader(nil)
)

// OperationID computes the content-addressed id of an operation.
// Same session, seq, op, arg, child and digest produce the same id.
func OperationID(op Operation) (string, error) {
	return snapshot.Digest(snapshot.DomainOperation, snapshot.List{
		snapshot.String(op.Session),
		snapshot.Int(op.Seq),
		snapshot.String(op.Op),
		snapshot.Int(op.Arg),
		snapshot.String(op.ChildID),
		snapshot.String(op.Digest),
	})
}

// marshalPayload encodes the snapshot (and history, when present) as
// canonical JSON and compresses it with zstd.
func marshalPayload(s snapshot.Snapshot, history []snapshot.Snapshot) ([]byte, error) {
	obj := snapshot.Object{"snapshot": s.Value()}
	if history != nil {
		list := make(snapshot.List, len(history))
		for i, h := range history {
			list[i] = h.Value()
		}
		obj["history"] = list
	}

	data, err := snapshot.MarshalCanonical(obj)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return payloadEncoder.EncodeAll(data, nil), nil
}

// unmarshalPayload reverses marshalPayload.
func unmarshalPayload(data []byte) (snapshot.Snapshot, []snapshot.Snapshot, error) {
	raw, err := payloadDecoder.DecodeAll(data, nil)
	if err != nil {
		return snapshot.Snapshot{}, nil, fmt.Errorf("decompress payload: %w", err)
	}

	var p struct {
		Snapshot snapshot.Snapshot `json:"snapshot"`
		History  json.RawMessage   `json:"history"`
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return snapshot.Snapshot{}, nil, fmt.Errorf("unmarshal payload: %w", err)
	}
	if p.History == nil {
		return p.Snapshot, nil, nil
	}

	history, err := snapshot.UnmarshalHistory(p.History)
	if err != nil {
		return snapshot.Snapshot{}, nil, fmt.Errorf("unmarshal payload: %w", err)
	}
	return p.Snapshot, history, nil
}
