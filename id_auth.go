// SPDX-FileCopyrightText: (C) 2024 Intel Corporation
// SPDX-License-Identifier: Apache 2.0

package spdm

import (
	"fmt"
	"time"

	"github.com/device-attestation/go-spdm/protocol"
)

// DigestsState is the first step of identity authentication: learn which
// slots the responder populates and the digest of each chain.
type DigestsState struct {
	Negotiation Negotiation
}

// WriteGetDigests encodes a GET_DIGESTS request into buf and appends it to
// the transcript.
func (s *DigestsState) WriteGetDigests(ts *Transcript, buf []byte) (int, error) {
	n, err := protocol.GetDigests{}.Encode(s.Negotiation.Version.Base(), buf)
	if err != nil {
		return 0, err
	}
	if err := ts.Append(buf[:n]); err != nil {
		return 0, err
	}
	return n, nil
}

// HandleDigests consumes a DIGESTS response and stores the digests for slot
// indices below NumSlots. Digests announced for higher slots are parsed to
// advance the cursor but discarded; challenging such a slot later fails
// with ErrSlotIndexOutOfRange.
func (s DigestsState) HandleDigests(ts *Transcript, slots *SlotTable, buf []byte) (CertificateState, error) {
	if err := responderError(buf); err != nil {
		return CertificateState{}, err
	}
	msg, err := protocol.ParseDigests(buf, s.Negotiation.Version.Base(), s.Negotiation.DigestSize())
	if err != nil {
		return CertificateState{}, err
	}
	if err := ts.Append(buf); err != nil {
		return CertificateState{}, err
	}
	cursor := 0
	for i := uint8(0); i < 8; i++ {
		if msg.SlotMask&(1<<i) == 0 {
			continue
		}
		digest := msg.Digests[cursor]
		cursor++
		slot, err := slots.Get(i)
		if err != nil {
			continue // announced but not mirrored
		}
		slot.SetDigest(digest)
	}
	return CertificateState{Negotiation: s.Negotiation}, nil
}

// CertificateState retrieves one slot's certificate chain, one portion per
// round trip. It transitions to itself while RemainderLength is nonzero;
// once the chain is complete and matches the announced digest, VerifyChain
// moves to the Challenge phase.
type CertificateState struct {
	Negotiation Negotiation

	req       protocol.GetCertificate
	total     int
	haveTotal bool
	done      bool
}

// WriteGetCertificate encodes a GET_CERTIFICATE request for the next
// portion of the given slot's chain, offering to receive at most maxLen
// bytes. The slot must hold a digest learned from DIGESTS.
func (s *CertificateState) WriteGetCertificate(ts *Transcript, slots *SlotTable, buf []byte, slotIdx uint8, maxLen uint16) (int, error) {
	slot, err := slots.Get(slotIdx)
	if err != nil {
		return 0, err
	}
	if !slot.Occupied() {
		return 0, fmt.Errorf("%w: slot %d has no announced digest", ErrSlotIndexOutOfRange, slotIdx)
	}
	req := protocol.GetCertificate{Slot: slotIdx, Offset: uint16(slot.ChainLen()), Length: maxLen}
	n, err := req.Encode(s.Negotiation.Version.Base(), buf)
	if err != nil {
		return 0, err
	}
	if err := ts.Append(buf[:n]); err != nil {
		return 0, err
	}
	s.req = req
	return n, nil
}

// HandleCertificate consumes one CERTIFICATE portion. Each chunk must
// answer the outstanding request's slot, fit within the requested length,
// and stay consistent with the total chain length learned from the first
// chunk. On the final chunk the assembled chain is hashed and compared with
// the digest announced in DIGESTS; a mismatch clears the slot and fails
// with ErrDigestMismatch.
func (s CertificateState) HandleCertificate(ts *Transcript, slots *SlotTable, buf []byte) (CertificateState, error) {
	if err := responderError(buf); err != nil {
		return CertificateState{}, err
	}
	msg, err := protocol.ParseCertificate(buf, s.Negotiation.Version.Base())
	if err != nil {
		return CertificateState{}, err
	}
	if msg.Slot != s.req.Slot {
		return CertificateState{}, fmt.Errorf("%w: got slot %d, requested %d", ErrSlotMismatch, msg.Slot, s.req.Slot)
	}
	if msg.PortionLength > s.req.Length {
		return CertificateState{}, fmt.Errorf("%w: portion %d exceeds requested %d", ErrCertLengthInvalid, msg.PortionLength, s.req.Length)
	}
	total := int(s.req.Offset) + int(msg.PortionLength) + int(msg.RemainderLength)
	if s.haveTotal && total != s.total {
		return CertificateState{}, fmt.Errorf("%w: chain total changed from %d to %d", ErrCertLengthInvalid, s.total, total)
	}

	slot, err := slots.Get(msg.Slot)
	if err != nil {
		return CertificateState{}, err
	}
	if int(s.req.Offset) != slot.ChainLen() {
		return CertificateState{}, fmt.Errorf("%w: offset %d does not resume at %d retrieved bytes", ErrCertLengthInvalid, s.req.Offset, slot.ChainLen())
	}
	// Check both bounds before mutating either the transcript or the slot,
	// so a rejected chunk leaves no partial state behind.
	if slot.ChainLen()+int(msg.PortionLength) > MaxCertChainSize {
		return CertificateState{}, fmt.Errorf("%w: %d bytes exceed the %d byte bound", ErrCertChainTooLarge, slot.ChainLen()+int(msg.PortionLength), MaxCertChainSize)
	}
	if err := ts.Append(buf); err != nil {
		return CertificateState{}, err
	}
	if err := slot.AppendChain(msg.Portion); err != nil {
		return CertificateState{}, err
	}

	next := s
	next.total = total
	next.haveTotal = true
	if msg.RemainderLength == 0 {
		if !slot.verifyDigest(s.Negotiation.BaseHash) {
			slot.Clear()
			return CertificateState{}, ErrDigestMismatch
		}
		slot.markComplete()
		next.done = true
	}
	return next, nil
}

// Complete reports whether the chain has been fully retrieved and matched
// against its announced digest.
func (s CertificateState) Complete() bool { return s.done }

// VerifyChain parses the retrieved chain as DER certificates and validates
// it: the root must be one of the caller's trust anchors, every link must
// chain by issuer/subject and signature, and every certificate must be
// valid at the caller-supplied time. On success the parsed chain is stored
// in the slot and the machine enters the Challenge phase.
func (s CertificateState) VerifyChain(slots *SlotTable, anchors *TrustAnchorSet, now time.Time) (ChallengeState, error) {
	if !s.done {
		return ChallengeState{}, fmt.Errorf("%w: chain retrieval incomplete", ErrCertChainInvalid)
	}
	slot, err := slots.Get(s.req.Slot)
	if err != nil {
		return ChallengeState{}, err
	}
	certs, err := parseCertChain(slot.Chain(), s.Negotiation.BaseHash)
	if err != nil {
		return ChallengeState{}, err
	}
	if err := verifyChain(certs, anchors, now); err != nil {
		return ChallengeState{}, err
	}
	slot.setCerts(certs)
	return ChallengeState{Negotiation: s.Negotiation, Slot: s.req.Slot}, nil
}
