// SPDX-FileCopyrightText: (C) 2024 Intel Corporation
// SPDX-License-Identifier: Apache 2.0

package spdm

import (
	"bytes"
	"crypto/x509"

	"github.com/device-attestation/go-spdm/protocol"
)

const maxDigestSize = 64 // SHA-512

// Slot mirrors one of the responder's certificate-chain slots: the digest
// announced in DIGESTS, the chain bytes retrieved chunk by chunk, and the
// parsed certificates once the chain has been verified. A slot is occupied
// once a digest has been stored for it; an occupied, complete slot always
// satisfies digest == Hash(chain).
type Slot struct {
	digest    [maxDigestSize]byte
	digestLen uint8
	chain     [MaxCertChainSize]byte
	chainLen  int
	complete  bool
	certs     []*x509.Certificate
}

// Occupied reports whether a digest has been stored for this slot.
func (s *Slot) Occupied() bool { return s.digestLen != 0 }

// SetDigest stores the chain digest announced by the responder and discards
// any previously retrieved chain bytes.
func (s *Slot) SetDigest(d []byte) {
	s.Clear()
	s.digestLen = uint8(copy(s.digest[:], d))
}

// Digest returns the stored chain digest, or nil for an unoccupied slot.
func (s *Slot) Digest() []byte {
	if s.digestLen == 0 {
		return nil
	}
	return s.digest[:s.digestLen]
}

// AppendChain adds one retrieved portion to the chain buffer. It fails with
// ErrCertChainTooLarge, appending nothing, if the chain would exceed
// MaxCertChainSize.
func (s *Slot) AppendChain(portion []byte) error {
	if s.chainLen+len(portion) > MaxCertChainSize {
		return ErrCertChainTooLarge
	}
	copy(s.chain[s.chainLen:], portion)
	s.chainLen += len(portion)
	return nil
}

// Chain returns the chain bytes retrieved so far.
func (s *Slot) Chain() []byte { return s.chain[:s.chainLen] }

// ChainLen returns the number of chain bytes retrieved so far.
func (s *Slot) ChainLen() int { return s.chainLen }

// Complete reports whether the full chain has been retrieved and matched
// against the announced digest.
func (s *Slot) Complete() bool { return s.complete }

// markComplete records that the retrieved chain hashed to the announced
// digest.
func (s *Slot) markComplete() { s.complete = true }

// setCerts stores the parsed chain after verification. The final entry is
// the leaf.
func (s *Slot) setCerts(certs []*x509.Certificate) { s.certs = certs }

// Leaf returns the leaf certificate of a verified chain, or nil before
// verification.
func (s *Slot) Leaf() *x509.Certificate {
	if len(s.certs) == 0 {
		return nil
	}
	return s.certs[len(s.certs)-1]
}

// Certs returns the parsed, verified chain, root first, or nil before
// verification.
func (s *Slot) Certs() []*x509.Certificate { return s.certs }

// Clear marks the slot unoccupied and discards all chain state.
func (s *Slot) Clear() {
	s.digestLen = 0
	s.chainLen = 0
	s.complete = false
	s.certs = nil
}

// verifyDigest checks that the retrieved chain hashes to the announced
// digest under alg.
func (s *Slot) verifyDigest(alg protocol.BaseHashAlgo) bool {
	d := s.Digest()
	if d == nil {
		return false
	}
	return bytes.Equal(alg.Sum(s.Chain()), d)
}

// SlotTable holds the requester's mirror of the first NumSlots responder
// slots. It is exclusively owned by the handshake it belongs to.
type SlotTable struct {
	slots [NumSlots]Slot
}

// Get returns the slot at index i, or ErrSlotIndexOutOfRange for indices
// the requester does not mirror.
func (st *SlotTable) Get(i uint8) (*Slot, error) {
	if int(i) >= NumSlots {
		return nil, ErrSlotIndexOutOfRange
	}
	return &st.slots[i], nil
}

// Clear resets every slot.
func (st *SlotTable) Clear() {
	for i := range st.slots {
		st.slots[i].Clear()
	}
}
