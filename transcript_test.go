// SPDX-FileCopyrightText: (C) 2024 Intel Corporation
// SPDX-License-Identifier: Apache 2.0

package spdm_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/device-attestation/go-spdm"
	"github.com/device-attestation/go-spdm/protocol"
)

func TestTranscriptAppend(t *testing.T) {
	var ts spdm.Transcript
	if err := ts.Append([]byte("abc")); err != nil {
		t.Fatal(err)
	}
	if err := ts.Append([]byte("def")); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(ts.Bytes(), []byte("abcdef")) {
		t.Fatalf("transcript %q", ts.Bytes())
	}
	if ts.Len() != 6 {
		t.Fatalf("Len() = %d", ts.Len())
	}

	ts.Reset()
	if ts.Len() != 0 || len(ts.Bytes()) != 0 {
		t.Fatal("Reset did not clear the transcript")
	}
}

func TestTranscriptOverflow(t *testing.T) {
	var ts spdm.Transcript
	if err := ts.Append(make([]byte, spdm.TranscriptSize)); err != nil {
		t.Fatal(err)
	}
	// One more byte must fail and record nothing.
	if err := ts.Append([]byte{0x00}); !errors.Is(err, spdm.ErrTranscriptOverflow) {
		t.Fatalf("expected ErrTranscriptOverflow, got %v", err)
	}
	if ts.Len() != spdm.TranscriptSize {
		t.Fatalf("failed append changed length to %d", ts.Len())
	}

	var fresh spdm.Transcript
	if err := fresh.Append(make([]byte, spdm.TranscriptSize+1)); !errors.Is(err, spdm.ErrTranscriptOverflow) {
		t.Fatalf("expected ErrTranscriptOverflow, got %v", err)
	}
	if fresh.Len() != 0 {
		t.Fatal("oversized append recorded bytes")
	}
}

func TestTranscriptDigest(t *testing.T) {
	var a, b spdm.Transcript
	if err := a.Append([]byte("hello")); err != nil {
		t.Fatal(err)
	}
	if err := b.Append([]byte("hel")); err != nil {
		t.Fatal(err)
	}
	if err := b.Append([]byte("lo")); err != nil {
		t.Fatal(err)
	}

	// The digest depends only on the byte stream, not append boundaries.
	da := a.Digest(protocol.HashSHA384)
	db := b.Digest(protocol.HashSHA384)
	if !bytes.Equal(da, db) {
		t.Fatal("digest depends on append boundaries")
	}
	if len(da) != 48 {
		t.Fatalf("digest is %d bytes", len(da))
	}
	if !bytes.Equal(da, protocol.HashSHA384.Sum([]byte("hello"))) {
		t.Fatal("digest does not match direct hash")
	}
}

func TestTranscriptCopySemantics(t *testing.T) {
	var ts spdm.Transcript
	if err := ts.Append([]byte("original")); err != nil {
		t.Fatal(err)
	}
	snapshot := ts
	if err := ts.Append([]byte(" extended")); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(snapshot.Bytes(), []byte("original")) {
		t.Fatal("copied transcript shares storage with the original")
	}
}
