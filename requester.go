// SPDX-FileCopyrightText: (C) 2024 Intel Corporation
// SPDX-License-Identifier: Apache 2.0

package spdm

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"time"

	"github.com/device-attestation/go-spdm/protocol"
)

// responderError surfaces an ERROR response as the terminal
// *protocol.ErrorMessage error. It returns nil for any other frame,
// including ones too short to hold a header; those fail in the message
// parser instead.
func responderError(buf []byte) error {
	if !protocol.IsError(buf) {
		return nil
	}
	msg, err := protocol.ParseError(buf)
	if err != nil {
		return err
	}
	return msg
}

// Expect returns nil iff buf begins with a response header carrying the
// given version and code. It is an ergonomic wrapper around
// protocol.ParseHeader for callers dispatching on a single expected type;
// the full message must still be validated by the state's handle method.
func Expect(buf []byte, version, code uint8) error {
	ok, err := protocol.ParseHeader(buf, version, code)
	if err != nil {
		return err
	}
	if !ok {
		return &protocol.UnexpectedMsgError{Expected: code, Got: buf[1]}
	}
	return nil
}

// Requester drives the full handshake over a Transport for callers that do
// not need to interleave their own I/O between phases. The zero value plus
// a Transport and trust anchors is usable; other fields default per
// DefaultCTExponent, DefaultReqFlags, DefaultAlgorithms, DefaultChunkSize,
// crypto/rand, and time.Now.
type Requester struct {
	// Transport performs message passing and may be implemented over MCTP,
	// PCIe DOE, serial, and others.
	Transport Transport

	// Anchors is the trust anchor set responder chains must root in.
	Anchors *TrustAnchorSet

	// Rand supplies challenge nonces.
	Rand io.Reader

	// Now supplies the time for certificate validity checks.
	Now func() time.Time

	CTExponent  uint8
	Flags       protocol.ReqFlags
	Algorithms  *protocol.NegotiateAlgorithms
	ChunkSize   uint16
	SummaryType uint8

	transcript Transcript
	slots      SlotTable
}

// Authenticate runs the handshake against the given slot and returns the
// terminal Authenticated state. The transcript and slot table are reset
// first, so a Requester may be reused for sequential handshakes.
func (r *Requester) Authenticate(ctx context.Context, slot uint8) (Authenticated, error) {
	if r.Transport == nil {
		return Authenticated{}, fmt.Errorf("no transport configured")
	}
	rng := r.Rand
	if rng == nil {
		rng = rand.Reader
	}
	now := r.Now
	if now == nil {
		now = time.Now
	}
	ctExponent := r.CTExponent
	if ctExponent == 0 {
		ctExponent = DefaultCTExponent
	}
	flags := r.Flags
	if flags == 0 {
		flags = DefaultReqFlags
	}
	algs := DefaultAlgorithms()
	if r.Algorithms != nil {
		algs = *r.Algorithms
	}
	chunk := r.ChunkSize
	if chunk == 0 {
		chunk = DefaultChunkSize
	}

	r.transcript.Reset()
	r.slots.Clear()
	buf := make([]byte, MaxCertChainSize+protocol.HeaderSize+64)

	send := func(n int) ([]byte, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return r.Transport.Send(ctx, buf[:n])
	}

	// Version
	vs := Start()
	n, err := vs.WriteGetVersion(&r.transcript, buf)
	if err != nil {
		return Authenticated{}, fmt.Errorf("error writing GET_VERSION: %w", err)
	}
	resp, err := send(n)
	if err != nil {
		return Authenticated{}, fmt.Errorf("error sending GET_VERSION: %w", err)
	}
	caps, err := vs.HandleVersion(&r.transcript, resp)
	if err != nil {
		return Authenticated{}, fmt.Errorf("error handling VERSION: %w", err)
	}

	// Capabilities
	n, err = caps.WriteGetCapabilities(&r.transcript, buf, protocol.GetCapabilities{
		CTExponent: ctExponent,
		Flags:      flags,
	})
	if err != nil {
		return Authenticated{}, fmt.Errorf("error writing GET_CAPABILITIES: %w", err)
	}
	resp, err = send(n)
	if err != nil {
		return Authenticated{}, fmt.Errorf("error sending GET_CAPABILITIES: %w", err)
	}
	algState, err := caps.HandleCapabilities(&r.transcript, resp)
	if err != nil {
		return Authenticated{}, fmt.Errorf("error handling CAPABILITIES: %w", err)
	}
	// Identity authentication needs certificates and challenge support.
	if algState.RspFlags&protocol.RspCertCap == 0 || algState.RspFlags&protocol.RspChalCap == 0 {
		return Authenticated{}, fmt.Errorf("responder lacks CERT/CHAL capability: %s", algState.RspFlags)
	}

	// Algorithms
	n, err = algState.WriteNegotiateAlgorithms(&r.transcript, buf, algs)
	if err != nil {
		return Authenticated{}, fmt.Errorf("error writing NEGOTIATE_ALGORITHMS: %w", err)
	}
	resp, err = send(n)
	if err != nil {
		return Authenticated{}, fmt.Errorf("error sending NEGOTIATE_ALGORITHMS: %w", err)
	}
	digState, err := algState.HandleAlgorithms(&r.transcript, resp)
	if err != nil {
		return Authenticated{}, fmt.Errorf("error handling ALGORITHMS: %w", err)
	}

	// Digests
	n, err = digState.WriteGetDigests(&r.transcript, buf)
	if err != nil {
		return Authenticated{}, fmt.Errorf("error writing GET_DIGESTS: %w", err)
	}
	resp, err = send(n)
	if err != nil {
		return Authenticated{}, fmt.Errorf("error sending GET_DIGESTS: %w", err)
	}
	certState, err := digState.HandleDigests(&r.transcript, &r.slots, resp)
	if err != nil {
		return Authenticated{}, fmt.Errorf("error handling DIGESTS: %w", err)
	}

	// Certificate chain, chunk by chunk
	for !certState.Complete() {
		n, err = certState.WriteGetCertificate(&r.transcript, &r.slots, buf, slot, chunk)
		if err != nil {
			return Authenticated{}, fmt.Errorf("error writing GET_CERTIFICATE: %w", err)
		}
		resp, err = send(n)
		if err != nil {
			return Authenticated{}, fmt.Errorf("error sending GET_CERTIFICATE: %w", err)
		}
		certState, err = certState.HandleCertificate(&r.transcript, &r.slots, resp)
		if err != nil {
			return Authenticated{}, fmt.Errorf("error handling CERTIFICATE: %w", err)
		}
	}
	chalState, err := certState.VerifyChain(&r.slots, r.Anchors, now())
	if err != nil {
		return Authenticated{}, fmt.Errorf("error verifying certificate chain: %w", err)
	}

	// Challenge
	n, err = chalState.WriteChallenge(&r.transcript, buf, rng, r.SummaryType)
	if err != nil {
		return Authenticated{}, fmt.Errorf("error writing CHALLENGE: %w", err)
	}
	resp, err = send(n)
	if err != nil {
		return Authenticated{}, fmt.Errorf("error sending CHALLENGE: %w", err)
	}
	auth, err := chalState.HandleChallengeAuth(&r.transcript, &r.slots, resp)
	if err != nil {
		return Authenticated{}, fmt.Errorf("error handling CHALLENGE_AUTH: %w", err)
	}
	return auth, nil
}

// Transcript returns the transcript of the last handshake. The slice
// aliases internal storage and is invalidated by the next Authenticate.
func (r *Requester) Transcript() []byte { return r.transcript.Bytes() }

// Slot returns the requester's mirror of the given slot after a handshake.
func (r *Requester) Slot(i uint8) (*Slot, error) { return r.slots.Get(i) }
