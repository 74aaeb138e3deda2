// SPDX-FileCopyrightText: (C) 2024 Intel Corporation
// SPDX-License-Identifier: Apache 2.0

package protocol

import (
	"errors"
	"math/bits"

	"github.com/device-attestation/go-spdm/wire"
)

// ErrDigestWidthMismatch is returned when a digest field does not match the
// width fixed by the negotiated base hash algorithm.
var ErrDigestWidthMismatch = errors.New("digest width does not match negotiated hash")

// GetDigests is the GET_DIGESTS request. It has no payload.
type GetDigests struct{}

// Type returns the request code.
func (GetDigests) Type() uint8 { return GetDigestsCode }

// Encode serializes the request into buf, returning the number of bytes
// written.
func (GetDigests) Encode(version uint8, buf []byte) (int, error) {
	e := wire.NewEncoder(buf)
	Header{Version: version, Code: GetDigestsCode}.Encode(e)
	if err := e.Err(); err != nil {
		return 0, err
	}
	return e.Len(), nil
}

// ParseGetDigests validates a GET_DIGESTS request.
func ParseGetDigests(buf []byte, version uint8) (GetDigests, error) {
	if err := CheckHeader(buf, version, GetDigestsCode); err != nil {
		return GetDigests{}, err
	}
	d := wire.NewDecoder(buf)
	d.Skip(HeaderSize)
	if err := d.Finish(); err != nil {
		return GetDigests{}, err
	}
	return GetDigests{}, nil
}

// Digests is the DIGESTS response carrying one cert-chain digest per slot
// bit set in SlotMask, in ascending slot order.
type Digests struct {
	SlotMask uint8
	Digests  [][]byte
}

// Type returns the response code.
func (Digests) Type() uint8 { return DigestsCode }

// Encode serializes the response into buf, returning the number of bytes
// written. Every digest must have the negotiated width.
func (m Digests) Encode(version uint8, buf []byte) (int, error) {
	if len(m.Digests) != bits.OnesCount8(m.SlotMask) {
		return 0, ErrDigestWidthMismatch
	}
	e := wire.NewEncoder(buf)
	Header{Version: version, Code: DigestsCode, Param2: m.SlotMask}.Encode(e)
	for _, digest := range m.Digests {
		e.PutBytes(digest)
	}
	if err := e.Err(); err != nil {
		return 0, err
	}
	return e.Len(), nil
}

// ParseDigests validates and decodes a DIGESTS response. digestSize is the
// width fixed by the negotiated base hash algorithm.
func ParseDigests(buf []byte, version uint8, digestSize int) (Digests, error) {
	if err := CheckHeader(buf, version, DigestsCode); err != nil {
		return Digests{}, err
	}
	m := Digests{SlotMask: buf[3]}
	d := wire.NewDecoder(buf)
	d.Skip(HeaderSize)
	count := bits.OnesCount8(m.SlotMask)
	if d.Remaining() != count*digestSize {
		return Digests{}, ErrDigestWidthMismatch
	}
	for i := 0; i < count; i++ {
		digest := make([]byte, digestSize)
		copy(digest, d.Bytes(digestSize))
		m.Digests = append(m.Digests, digest)
	}
	if err := d.Finish(); err != nil {
		return Digests{}, err
	}
	return m, nil
}
