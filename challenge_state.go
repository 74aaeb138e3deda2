// SPDX-FileCopyrightText: (C) 2024 Intel Corporation
// SPDX-License-Identifier: Apache 2.0

package spdm

import (
	"bytes"
	"fmt"
	"io"

	"github.com/device-attestation/go-spdm/protocol"
)

// ChallengeState is the final step of identity authentication: challenge
// the responder to sign the transcript with the leaf key of the verified
// chain.
type ChallengeState struct {
	Negotiation Negotiation
	Slot        uint8

	summaryType uint8
	nonce       [protocol.NonceSize]byte
	sent        bool
}

// WriteChallenge encodes a CHALLENGE request into buf and appends it to the
// transcript. The 32-byte nonce is drawn from rng and must never repeat
// across handshakes, so rng should be a cryptographic entropy source.
// summaryType asks for no, TCB, or all-measurement summary hashes and needs
// a measurement-capable responder for anything but SummaryNone.
func (s *ChallengeState) WriteChallenge(ts *Transcript, buf []byte, rng io.Reader, summaryType uint8) (int, error) {
	if summaryType != protocol.SummaryNone && s.Negotiation.RspFlags.MeasCap() == 0 {
		return 0, fmt.Errorf("measurement summary requested but responder has no MEAS capability")
	}
	req := protocol.Challenge{Slot: s.Slot, SummaryType: summaryType}
	if _, err := io.ReadFull(rng, req.Nonce[:]); err != nil {
		return 0, fmt.Errorf("error drawing challenge nonce: %w", err)
	}
	n, err := req.Encode(s.Negotiation.Version.Base(), buf)
	if err != nil {
		return 0, err
	}
	if err := ts.Append(buf[:n]); err != nil {
		return 0, err
	}
	s.summaryType = summaryType
	s.nonce = req.Nonce
	s.sent = true
	return n, nil
}

// HandleChallengeAuth consumes a CHALLENGE_AUTH response. The response must
// answer the challenged slot, echo the challenge nonce, and carry the
// slot's own chain digest. The signature is verified over the hash of the
// transcript snapshot taken immediately before the signature bytes: every
// message so far plus this response up to, but excluding, the signature
// field. On success the machine enters the terminal Authenticated phase.
func (s ChallengeState) HandleChallengeAuth(ts *Transcript, slots *SlotTable, buf []byte) (Authenticated, error) {
	if err := responderError(buf); err != nil {
		return Authenticated{}, err
	}
	if !s.sent {
		return Authenticated{}, fmt.Errorf("no outstanding challenge")
	}
	hasSummary := s.summaryType != protocol.SummaryNone && s.Negotiation.RspFlags.MeasCap() != 0
	msg, err := protocol.ParseChallengeAuth(buf, s.Negotiation.Version.Base(),
		s.Negotiation.DigestSize(), s.Negotiation.SignatureSize(), hasSummary)
	if err != nil {
		return Authenticated{}, err
	}

	if msg.Slot != s.Slot {
		return Authenticated{}, fmt.Errorf("%w: got slot %d, challenged %d", ErrSlotMismatch, msg.Slot, s.Slot)
	}
	if msg.Nonce != s.nonce {
		return Authenticated{}, ErrNonceMismatch
	}
	slot, err := slots.Get(s.Slot)
	if err != nil {
		return Authenticated{}, err
	}
	if !bytes.Equal(msg.CertChainHash, slot.Digest()) {
		return Authenticated{}, ErrDigestMismatch
	}
	leaf := slot.Leaf()
	if leaf == nil {
		return Authenticated{}, fmt.Errorf("%w: slot %d chain not verified", ErrCertChainInvalid, s.Slot)
	}

	// The responder signs the hash of the transcript up to, but excluding,
	// the signature field of this very message.
	signedLen := len(buf) - len(msg.Signature)
	h := s.Negotiation.BaseHash.New()
	h.Write(ts.Bytes())
	h.Write(buf[:signedLen])
	digest := h.Sum(nil)

	if err := verifySignature(s.Negotiation.BaseAsym, s.Negotiation.BaseHash.HashFunc(),
		leaf.PublicKey, digest, msg.Signature); err != nil {
		return Authenticated{}, err
	}

	if err := ts.Append(buf); err != nil {
		return Authenticated{}, err
	}
	return Authenticated{Negotiation: s.Negotiation, Slot: s.Slot}, nil
}
