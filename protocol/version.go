// SPDX-FileCopyrightText: (C) 2024 Intel Corporation
// SPDX-License-Identifier: Apache 2.0

package protocol

import (
	"errors"
	"fmt"

	"github.com/device-attestation/go-spdm/wire"
)

// VersionNumber is an SPDM version entry: major, minor, update version, and
// alpha packed into four nibbles, ordered most significant first so that
// numeric comparison orders versions correctly.
type VersionNumber uint16

// Published SPDM versions
const (
	Version10 VersionNumber = 0x1000
	Version11 VersionNumber = 0x1100
	Version12 VersionNumber = 0x1200
)

// GetVersionBase is the header version byte of GET_VERSION and VERSION.
// Version discovery always speaks 1.0.
const GetVersionBase uint8 = 0x10

// MakeVersion packs the four version nibbles into a VersionNumber.
func MakeVersion(major, minor, update, alpha uint8) VersionNumber {
	return VersionNumber(major&0xF)<<12 |
		VersionNumber(minor&0xF)<<8 |
		VersionNumber(update&0xF)<<4 |
		VersionNumber(alpha&0xF)
}

// Major returns the major version nibble.
func (v VersionNumber) Major() uint8 { return uint8(v >> 12) }

// Minor returns the minor version nibble.
func (v VersionNumber) Minor() uint8 { return uint8(v>>8) & 0xF }

// Update returns the update version nibble.
func (v VersionNumber) Update() uint8 { return uint8(v>>4) & 0xF }

// Alpha returns the alpha nibble. Nonzero alpha marks a pre-release.
func (v VersionNumber) Alpha() uint8 { return uint8(v) & 0xF }

// Base returns the major/minor byte carried in message headers once this
// version has been negotiated.
func (v VersionNumber) Base() uint8 { return uint8(v >> 8) }

// Compare returns -1, 0, or 1 ordering by (major, minor, update, alpha).
func (v VersionNumber) Compare(o VersionNumber) int {
	switch {
	case v < o:
		return -1
	case v > o:
		return 1
	default:
		return 0
	}
}

func (v VersionNumber) String() string {
	if v.Update() == 0 && v.Alpha() == 0 {
		return fmt.Sprintf("%d.%d", v.Major(), v.Minor())
	}
	return fmt.Sprintf("%d.%d.%d.%d", v.Major(), v.Minor(), v.Update(), v.Alpha())
}

// MaxVersionEntries bounds the entry list of a VERSION response.
const MaxVersionEntries = 16

// ErrTooManyVersionEntries is returned when a VERSION response advertises
// more entries than MaxVersionEntries.
var ErrTooManyVersionEntries = errors.New("VERSION response entry count exceeds limit")

// GetVersion is the GET_VERSION request. It has no payload and is always
// sent as version 1.0.
type GetVersion struct{}

// Type returns the request code.
func (GetVersion) Type() uint8 { return GetVersionCode }

// Encode serializes the request into buf, returning the number of bytes
// written.
func (GetVersion) Encode(buf []byte) (int, error) {
	e := wire.NewEncoder(buf)
	Header{Version: GetVersionBase, Code: GetVersionCode}.Encode(e)
	if err := e.Err(); err != nil {
		return 0, err
	}
	return e.Len(), nil
}

// ParseGetVersion validates a GET_VERSION request.
func ParseGetVersion(buf []byte) (GetVersion, error) {
	d := wire.NewDecoder(buf)
	hdr := DecodeHeader(d)
	if err := d.Finish(); err != nil {
		return GetVersion{}, err
	}
	if hdr.Version != GetVersionBase || hdr.Code != GetVersionCode {
		return GetVersion{}, &UnexpectedMsgError{Expected: GetVersionCode, Got: hdr.Code}
	}
	return GetVersion{}, nil
}

// Version is the VERSION response listing every version the responder
// speaks.
type Version struct {
	Entries []VersionNumber
}

// Type returns the response code.
func (Version) Type() uint8 { return VersionCode }

// Encode serializes the response into buf, returning the number of bytes
// written.
func (m Version) Encode(buf []byte) (int, error) {
	if len(m.Entries) > MaxVersionEntries {
		return 0, ErrTooManyVersionEntries
	}
	e := wire.NewEncoder(buf)
	Header{Version: GetVersionBase, Code: VersionCode}.Encode(e)
	e.PutReserved(1)
	e.PutUint8(uint8(len(m.Entries)))
	for _, v := range m.Entries {
		e.PutUint16(uint16(v))
	}
	if err := e.Err(); err != nil {
		return 0, err
	}
	return e.Len(), nil
}

// ParseVersion validates and decodes a VERSION response.
func ParseVersion(buf []byte) (Version, error) {
	d := wire.NewDecoder(buf)
	hdr := DecodeHeader(d)
	d.Reserved(1)
	count := int(d.Uint8())
	if err := d.Err(); err != nil {
		return Version{}, err
	}
	if hdr.Code != VersionCode {
		return Version{}, &UnexpectedMsgError{Expected: VersionCode, Got: hdr.Code}
	}
	if hdr.Version != GetVersionBase {
		return Version{}, ErrVersionMismatch
	}
	if count > MaxVersionEntries {
		return Version{}, ErrTooManyVersionEntries
	}
	msg := Version{Entries: make([]VersionNumber, count)}
	for i := range msg.Entries {
		msg.Entries[i] = VersionNumber(d.Uint16())
	}
	if err := d.Finish(); err != nil {
		return Version{}, err
	}
	return msg, nil
}
