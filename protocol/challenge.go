// SPDX-FileCopyrightText: (C) 2024 Intel Corporation
// SPDX-License-Identifier: Apache 2.0

package protocol

import (
	"github.com/device-attestation/go-spdm/wire"
)

// NonceSize is the size of the challenge nonce. A nonce must never repeat
// across handshakes.
const NonceSize = 32

// Measurement summary hash types carried in CHALLENGE Param2
const (
	SummaryNone uint8 = 0x00
	SummaryTCB  uint8 = 0x01
	SummaryAll  uint8 = 0xFF
)

// Challenge is the CHALLENGE request.
type Challenge struct {
	Slot        uint8
	SummaryType uint8
	Nonce       [NonceSize]byte
}

// Type returns the request code.
func (Challenge) Type() uint8 { return ChallengeCode }

// Encode serializes the request into buf, returning the number of bytes
// written.
func (m Challenge) Encode(version uint8, buf []byte) (int, error) {
	e := wire.NewEncoder(buf)
	Header{Version: version, Code: ChallengeCode, Param1: m.Slot, Param2: m.SummaryType}.Encode(e)
	e.PutBytes(m.Nonce[:])
	if err := e.Err(); err != nil {
		return 0, err
	}
	return e.Len(), nil
}

// ParseChallenge validates and decodes a CHALLENGE request.
func ParseChallenge(buf []byte, version uint8) (Challenge, error) {
	if err := CheckHeader(buf, version, ChallengeCode); err != nil {
		return Challenge{}, err
	}
	m := Challenge{Slot: buf[2], SummaryType: buf[3]}
	d := wire.NewDecoder(buf)
	d.Skip(HeaderSize)
	copy(m.Nonce[:], d.Bytes(NonceSize))
	if err := d.Finish(); err != nil {
		return Challenge{}, err
	}
	return m, nil
}

// ChallengeAuth is the CHALLENGE_AUTH response. The signature covers the
// hash of the message transcript up to, but excluding, the signature field.
type ChallengeAuth struct {
	Slot          uint8
	SlotMask      uint8
	CertChainHash []byte
	Nonce         [NonceSize]byte
	// MeasurementSummaryHash is present only when the request asked for a
	// summary and the responder is measurement-capable.
	MeasurementSummaryHash []byte
	OpaqueData             []byte
	Signature              []byte
}

// Type returns the response code.
func (ChallengeAuth) Type() uint8 { return ChallengeAuthCode }

// Encode serializes the response into buf, returning the number of bytes
// written.
func (m ChallengeAuth) Encode(version uint8, buf []byte) (int, error) {
	e := wire.NewEncoder(buf)
	Header{Version: version, Code: ChallengeAuthCode, Param1: m.Slot, Param2: m.SlotMask}.Encode(e)
	e.PutBytes(m.CertChainHash)
	e.PutBytes(m.Nonce[:])
	e.PutBytes(m.MeasurementSummaryHash)
	e.PutUint16(uint16(len(m.OpaqueData)))
	e.PutBytes(m.OpaqueData)
	e.PutBytes(m.Signature)
	if err := e.Err(); err != nil {
		return 0, err
	}
	return e.Len(), nil
}

// ParseChallengeAuth validates and decodes a CHALLENGE_AUTH response.
// digestSize and sigSize are fixed by the negotiated algorithms; hasSummary
// states whether a measurement summary hash field is expected.
func ParseChallengeAuth(buf []byte, version uint8, digestSize, sigSize int, hasSummary bool) (ChallengeAuth, error) {
	if err := CheckHeader(buf, version, ChallengeAuthCode); err != nil {
		return ChallengeAuth{}, err
	}
	// Param1 carries the slot in its low nibble; the high bits flag basic
	// mutual auth, which this requester never asks for.
	m := ChallengeAuth{Slot: buf[2] & 0x0F, SlotMask: buf[3]}
	d := wire.NewDecoder(buf)
	d.Skip(HeaderSize)
	m.CertChainHash = append([]byte(nil), d.Bytes(digestSize)...)
	copy(m.Nonce[:], d.Bytes(NonceSize))
	if hasSummary {
		m.MeasurementSummaryHash = append([]byte(nil), d.Bytes(digestSize)...)
	}
	opaqueLen := int(d.Uint16())
	m.OpaqueData = append([]byte(nil), d.Bytes(opaqueLen)...)
	m.Signature = append([]byte(nil), d.Bytes(sigSize)...)
	if err := d.Finish(); err != nil {
		return ChallengeAuth{}, err
	}
	return m, nil
}

// SignedLength returns the number of bytes of an encoded CHALLENGE_AUTH
// message that are covered by its own signature, i.e. everything before the
// signature field.
func (m ChallengeAuth) SignedLength(encoded int) int {
	return encoded - len(m.Signature)
}
