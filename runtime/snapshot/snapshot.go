// Package snapshot turns an executor result into a self-contained record
// with a deterministic binary encoding.
//
// Script values are converted to plain data first, so a snapshot can be
// decoded without an interpreter. The encoding is canonical CBOR: the same
// snapshot always produces the same bytes, and Hash ignores the run id so
// two runs of a deterministic script hash the same.
package snapshot

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
	"github.com/opal-lang/hsl/core/invariant"
	"github.com/opal-lang/hsl/runtime/executor"
	"golang.org/x/crypto/blake2b"
)

// Version is the snapshot layout version.
const Version uint8 = 1

// Snapshot is the plain-data form of one run.
type Snapshot struct {
	Version     uint8
	RunID       string
	SourceName  string
	Fingerprint Fingerprint
	Globals     map[string]Value
	Tests       []Test
	Diagnostics []Diagnostic
	Steps       int64 // zero unless telemetry was enabled
}

// Fingerprint is the BLAKE2b-256 digest of a script's source text.
type Fingerprint [32]byte

// FingerprintOf hashes source.
func FingerprintOf(source string) Fingerprint {
	return blake2b.Sum256([]byte(source))
}

func (f Fingerprint) String() string { return hex.EncodeToString(f[:]) }

// Test is the outcome of one test block.
type Test struct {
	Name    string
	Passed  bool
	Message string `cbor:",omitempty"`
	Line    int
}

// Diagnostic is a reported error without its rendered excerpt.
type Diagnostic struct {
	Phase   string
	Message string
	Line    int
	Column  int
}

// Take records result, which must come from running source.
func Take(sourceName, source string, result *executor.Result) *Snapshot {
	// INPUT CONTRACT (preconditions)
	invariant.NotNil(result, "result")

	s := &Snapshot{
		Version:     Version,
		RunID:       result.RunID,
		SourceName:  sourceName,
		Fingerprint: FingerprintOf(source),
	}
	if result.Globals != nil {
		s.Globals = make(map[string]Value, len(result.Globals))
		for name, v := range result.Globals {
			s.Globals[name] = Convert(v)
		}
	}
	for _, t := range result.Tests {
		s.Tests = append(s.Tests, Test{Name: t.Name, Passed: t.Passed, Message: t.Message, Line: t.Position.Line})
	}
	for _, d := range result.Diagnostics {
		s.Diagnostics = append(s.Diagnostics, Diagnostic{
			Phase:   d.Phase.String(),
			Message: d.Message,
			Line:    d.Line,
			Column:  d.Column,
		})
	}
	if result.Telemetry != nil {
		s.Steps = result.Telemetry.Steps
	}
	return s
}

var encMode = func() cbor.EncMode {
	em, err := cbor.CanonicalEncOptions().EncMode()
	invariant.Invariant(err == nil, "canonical CBOR options must be valid: %v", err)
	return em
}()

// MarshalBinary produces the canonical CBOR encoding.
func (s *Snapshot) MarshalBinary() ([]byte, error) {
	// Alias type: cbor would otherwise call MarshalBinary again.
	type snapshotAlias Snapshot
	data, err := encMode.Marshal((*snapshotAlias)(s))
	if err != nil {
		return nil, fmt.Errorf("CBOR encoding failed: %w", err)
	}
	return data, nil
}

// UnmarshalBinary decodes data produced by MarshalBinary.
func (s *Snapshot) UnmarshalBinary(data []byte) error {
	type snapshotAlias Snapshot
	var alias snapshotAlias
	if err := cbor.Unmarshal(data, &alias); err != nil {
		return fmt.Errorf("CBOR decoding failed: %w", err)
	}
	if alias.Version != Version {
		return fmt.Errorf("unsupported snapshot version %d (want %d)", alias.Version, Version)
	}
	*s = Snapshot(alias)
	return nil
}

// WriteTo writes the encoding to w.
func (s *Snapshot) WriteTo(w io.Writer) (int64, error) {
	data, err := s.MarshalBinary()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(data)
	return int64(n), err
}

// Read decodes one snapshot from r.
func Read(r io.Reader) (*Snapshot, error) {
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	s := &Snapshot{}
	if err := s.UnmarshalBinary(buf.Bytes()); err != nil {
		return nil, err
	}
	return s, nil
}

// Hash digests everything but the run id.
func (s *Snapshot) Hash() ([32]byte, error) {
	content := *s
	content.RunID = ""
	data, err := content.MarshalBinary()
	if err != nil {
		return [32]byte{}, err
	}
	return blake2b.Sum256(data), nil
}
