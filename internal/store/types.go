package store

import "github.com/roach88/rewind/internal/snapshot"

// Session describes one observed Rewindable run.
type Session struct {
	Token      string `json:"token"`
	Kind       string `json:"kind"`
	TypeKey    string `json:"type_key"`
	Model      string `json:"model"`
	Scenario   string `json:"scenario,omitempty"`
	CreatedSeq int64  `json:"created_seq"`
}

// Operation is one journal-changing operation of a session.
type Operation struct {
	ID      string `json:"id"`
	Session string `json:"session"`
	Seq     int64  `json:"seq"`
	Op      string `json:"op"`
	Arg     int    `json:"arg"`
	ChildID string `json:"child_id,omitempty"`

	// Index and Len describe the journal after the operation.
	Index int `json:"index"`
	Len   int `json:"len"`

	// Digest is the snapshot digest of Snapshot.
	Digest string `json:"digest"`

	Snapshot snapshot.Snapshot   `json:"snapshot"`
	History  []snapshot.Snapshot `json:"history,omitempty"`
}
