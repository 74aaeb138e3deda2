// SPDX-FileCopyrightText: (C) 2024 Intel Corporation
// SPDX-License-Identifier: Apache 2.0

package spdm

import (
	"github.com/device-attestation/go-spdm/protocol"
)

// Transcript is the append-only byte log of every handshake message, in the
// order sent and received. Its hash under the negotiated base hash
// algorithm is what the responder signs in CHALLENGE_AUTH.
//
// A request is appended before it is dispatched; a response is appended
// only after it parses and validates. The backing storage is a fixed
// TranscriptSize-byte array, so a Transcript value is freely copyable and
// portable across goroutines.
type Transcript struct {
	buf [TranscriptSize]byte
	n   int
}

// Append records msg. It fails with ErrTranscriptOverflow, recording
// nothing, if the transcript would exceed TranscriptSize.
func (t *Transcript) Append(msg []byte) error {
	if t.n+len(msg) > TranscriptSize {
		return ErrTranscriptOverflow
	}
	copy(t.buf[t.n:], msg)
	t.n += len(msg)
	return nil
}

// Bytes returns the recorded transcript. The slice aliases the transcript's
// storage and is invalidated by the next Append.
func (t *Transcript) Bytes() []byte { return t.buf[:t.n] }

// Len returns the recorded length in bytes.
func (t *Transcript) Len() int { return t.n }

// Reset discards all recorded messages.
func (t *Transcript) Reset() { t.n = 0 }

// Digest hashes the recorded transcript with the given algorithm.
func (t *Transcript) Digest(alg protocol.BaseHashAlgo) []byte {
	return alg.Sum(t.Bytes())
}
