package snapshot

import (
	"encoding/hex"
	"fmt"

	"lukechampine.com/blake3"
)

// Domain prefixes for digests.
// Version suffix enables future algorithm migration.
const (
	DomainSnapshot  = "rewind/snapshot/v1"
	DomainTypeKey   = "rewind/typekey/v1"
	DomainOperation = "rewind/operation/v1"
)

// hashWithDomain computes a BLAKE3-256 hash with domain separation.
// Format: BLAKE3(domain + 0x00 + data)
// The null byte keeps the domain/data boundary unambiguous.
func hashWithDomain(domain string, data []byte) string {
	h := blake3.New(32, nil)
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Digest returns the hex digest of v's canonical encoding under domain.
func Digest(domain string, v Value) (string, error) {
	canonical, err := MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("digest: %w", err)
	}
	return hashWithDomain(domain, canonical), nil
}

// MustDigest is like Digest but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustDigest(domain string, v Value) string {
	d, err := Digest(domain, v)
	if err != nil {
		panic(err)
	}
	return d
}

// SnapshotDigest is the content digest of a Snapshot's plain form.
func SnapshotDigest(s Snapshot) (string, error) {
	return Digest(DomainSnapshot, s.Value())
}
