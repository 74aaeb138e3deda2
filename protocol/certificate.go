// SPDX-FileCopyrightText: (C) 2024 Intel Corporation
// SPDX-License-Identifier: Apache 2.0

package protocol

import (
	"github.com/device-attestation/go-spdm/wire"
)

// GetCertificate requests one portion of the certificate chain stored in a
// slot. Length is the most bytes the requester is willing to receive in the
// response.
type GetCertificate struct {
	Slot   uint8
	Offset uint16
	Length uint16
}

// Type returns the request code.
func (GetCertificate) Type() uint8 { return GetCertificateCode }

// Encode serializes the request into buf, returning the number of bytes
// written.
func (m GetCertificate) Encode(version uint8, buf []byte) (int, error) {
	e := wire.NewEncoder(buf)
	Header{Version: version, Code: GetCertificateCode, Param1: m.Slot}.Encode(e)
	e.PutUint16(m.Offset)
	e.PutUint16(m.Length)
	if err := e.Err(); err != nil {
		return 0, err
	}
	return e.Len(), nil
}

// ParseGetCertificate validates and decodes a GET_CERTIFICATE request.
func ParseGetCertificate(buf []byte, version uint8) (GetCertificate, error) {
	if err := CheckHeader(buf, version, GetCertificateCode); err != nil {
		return GetCertificate{}, err
	}
	m := GetCertificate{Slot: buf[2]}
	d := wire.NewDecoder(buf)
	d.Skip(HeaderSize)
	m.Offset = d.Uint16()
	m.Length = d.Uint16()
	if err := d.Finish(); err != nil {
		return GetCertificate{}, err
	}
	return m, nil
}

// Certificate is the CERTIFICATE response carrying one portion of a slot's
// chain. RemainderLength is the number of bytes left after this portion.
type Certificate struct {
	Slot            uint8
	PortionLength   uint16
	RemainderLength uint16
	Portion         []byte
}

// Type returns the response code.
func (Certificate) Type() uint8 { return CertificateCode }

// Encode serializes the response into buf, returning the number of bytes
// written.
func (m Certificate) Encode(version uint8, buf []byte) (int, error) {
	e := wire.NewEncoder(buf)
	Header{Version: version, Code: CertificateCode, Param1: m.Slot}.Encode(e)
	e.PutUint16(uint16(len(m.Portion)))
	e.PutUint16(m.RemainderLength)
	e.PutBytes(m.Portion)
	if err := e.Err(); err != nil {
		return 0, err
	}
	return e.Len(), nil
}

// ParseCertificate validates and decodes a CERTIFICATE response. The
// returned portion is copied out of buf.
func ParseCertificate(buf []byte, version uint8) (Certificate, error) {
	if err := CheckHeader(buf, version, CertificateCode); err != nil {
		return Certificate{}, err
	}
	m := Certificate{Slot: buf[2]}
	d := wire.NewDecoder(buf)
	d.Skip(HeaderSize)
	m.PortionLength = d.Uint16()
	m.RemainderLength = d.Uint16()
	portion := d.Bytes(int(m.PortionLength))
	if err := d.Finish(); err != nil {
		return Certificate{}, err
	}
	m.Portion = make([]byte, len(portion))
	copy(m.Portion, portion)
	return m, nil
}
