// SPDX-FileCopyrightText: (C) 2024 Intel Corporation
// SPDX-License-Identifier: Apache 2.0

package protocol

import (
	"errors"
	"strings"

	"github.com/device-attestation/go-spdm/wire"
)

// ErrInvalidCapabilityCombination is returned when an advertised flag set
// violates the DSP0274 v1.1 cross-capability rules.
var ErrInvalidCapabilityCombination = errors.New("invalid capability flag combination")

// MaxCTExponent is the largest allowed cryptographic timeout exponent. The
// timeout is 2^CTExponent microseconds.
const MaxCTExponent = 63

// ErrCTExponentOutOfRange is returned when a CT exponent exceeds
// MaxCTExponent.
var ErrCTExponentOutOfRange = errors.New("CT exponent out of range")

// ReqFlags is the requester capability bit-set carried in GET_CAPABILITIES.
type ReqFlags uint32

// Requester capability flags (DSP0274 v1.1 table 9)
const (
	ReqCertCap             ReqFlags = 1 << 1
	ReqChalCap             ReqFlags = 1 << 2
	ReqEncryptCap          ReqFlags = 1 << 6
	ReqMacCap              ReqFlags = 1 << 7
	ReqMutAuthCap          ReqFlags = 1 << 8
	ReqKeyExCap            ReqFlags = 1 << 9
	ReqPSKCap              ReqFlags = 1 << 10 // 2-bit field, bit 11 reserved for requesters
	ReqEncapCap            ReqFlags = 1 << 12
	ReqHbeatCap            ReqFlags = 1 << 13
	ReqKeyUpdCap           ReqFlags = 1 << 14
	ReqHandshakeInClearCap ReqFlags = 1 << 15
	ReqPubKeyIDCap         ReqFlags = 1 << 16
)

var reqFlagNames = []struct {
	flag ReqFlags
	name string
}{
	{ReqCertCap, "CERT"},
	{ReqChalCap, "CHAL"},
	{ReqEncryptCap, "ENCRYPT"},
	{ReqMacCap, "MAC"},
	{ReqMutAuthCap, "MUT_AUTH"},
	{ReqKeyExCap, "KEY_EX"},
	{ReqPSKCap, "PSK"},
	{ReqEncapCap, "ENCAP"},
	{ReqHbeatCap, "HBEAT"},
	{ReqKeyUpdCap, "KEY_UPD"},
	{ReqHandshakeInClearCap, "HANDSHAKE_IN_THE_CLEAR"},
	{ReqPubKeyIDCap, "PUB_KEY_ID"},
}

func (f ReqFlags) String() string {
	var names []string
	for _, fn := range reqFlagNames {
		if f&fn.flag != 0 {
			names = append(names, fn.name)
		}
	}
	return strings.Join(names, "|")
}

// Validate checks the requester flag set against the v1.1 cross-capability
// rules.
func (f ReqFlags) Validate() error {
	// Requesters only use bit 10 of the PSK field; bit 11 is reserved.
	if f&(1<<11) != 0 {
		return ErrInvalidCapabilityCombination
	}
	if f&(ReqEncryptCap|ReqMacCap) != 0 && f&(ReqKeyExCap|ReqPSKCap) == 0 {
		return ErrInvalidCapabilityCombination
	}
	if f&(ReqKeyExCap|ReqPSKCap) != 0 && f&(ReqEncryptCap|ReqMacCap) == 0 {
		return ErrInvalidCapabilityCombination
	}
	if f&ReqHandshakeInClearCap != 0 && f&ReqKeyExCap == 0 {
		return ErrInvalidCapabilityCombination
	}
	if f&ReqMutAuthCap != 0 && f&ReqEncapCap == 0 {
		return ErrInvalidCapabilityCombination
	}
	if f&ReqCertCap != 0 && f&ReqPubKeyIDCap != 0 {
		return ErrInvalidCapabilityCombination
	}
	return nil
}

// RspFlags is the responder capability bit-set carried in CAPABILITIES.
type RspFlags uint32

// Responder capability flags (DSP0274 v1.1 table 10)
const (
	RspCacheCap            RspFlags = 1 << 0
	RspCertCap             RspFlags = 1 << 1
	RspChalCap             RspFlags = 1 << 2
	RspMeasCapNoSig        RspFlags = 1 << 3 // 2-bit MEAS_CAP field, bits 3-4
	RspMeasCapSig          RspFlags = 2 << 3
	RspMeasFreshCap        RspFlags = 1 << 5
	RspEncryptCap          RspFlags = 1 << 6
	RspMacCap              RspFlags = 1 << 7
	RspMutAuthCap          RspFlags = 1 << 8
	RspKeyExCap            RspFlags = 1 << 9
	RspPSKCap              RspFlags = 1 << 10 // 2-bit PSK_CAP field, bits 10-11
	RspPSKCapWithContext   RspFlags = 2 << 10
	RspEncapCap            RspFlags = 1 << 12
	RspHbeatCap            RspFlags = 1 << 13
	RspKeyUpdCap           RspFlags = 1 << 14
	RspHandshakeInClearCap RspFlags = 1 << 15
	RspPubKeyIDCap         RspFlags = 1 << 16
)

var rspFlagNames = []struct {
	flag RspFlags
	name string
}{
	{RspCacheCap, "CACHE"},
	{RspCertCap, "CERT"},
	{RspChalCap, "CHAL"},
	{RspMeasCapNoSig, "MEAS"},
	{RspMeasCapSig, "MEAS_SIG"},
	{RspMeasFreshCap, "MEAS_FRESH"},
	{RspEncryptCap, "ENCRYPT"},
	{RspMacCap, "MAC"},
	{RspMutAuthCap, "MUT_AUTH"},
	{RspKeyExCap, "KEY_EX"},
	{RspPSKCap, "PSK"},
	{RspPSKCapWithContext, "PSK_WITH_CONTEXT"},
	{RspEncapCap, "ENCAP"},
	{RspHbeatCap, "HBEAT"},
	{RspKeyUpdCap, "KEY_UPD"},
	{RspHandshakeInClearCap, "HANDSHAKE_IN_THE_CLEAR"},
	{RspPubKeyIDCap, "PUB_KEY_ID"},
}

func (f RspFlags) String() string {
	var names []string
	for _, fn := range rspFlagNames {
		if f&fn.flag != 0 {
			names = append(names, fn.name)
		}
	}
	return strings.Join(names, "|")
}

// MeasCap returns the 2-bit measurement capability field: 0 none, 1
// measurements without signature, 2 measurements with signature, 3 reserved.
func (f RspFlags) MeasCap() uint8 { return uint8(f>>3) & 0x3 }

// PSKCap returns the 2-bit pre-shared key capability field: 0 none, 1 PSK
// without session context, 2 PSK with session context, 3 reserved.
func (f RspFlags) PSKCap() uint8 { return uint8(f>>10) & 0x3 }

// Validate checks the responder flag set against the v1.1 cross-capability
// rules. Any violation means the responder cannot be negotiated with.
func (f RspFlags) Validate() error {
	if f.MeasCap() == 3 || f.PSKCap() == 3 {
		return ErrInvalidCapabilityCombination
	}
	// Measurements and challenges both require an identity to sign with.
	if f.MeasCap() != 0 && f&(RspCertCap|RspPubKeyIDCap) == 0 {
		return ErrInvalidCapabilityCombination
	}
	if f&RspChalCap != 0 && f&(RspCertCap|RspPubKeyIDCap) == 0 {
		return ErrInvalidCapabilityCombination
	}
	if f&(RspEncryptCap|RspMacCap) != 0 && f&RspKeyExCap == 0 && f.PSKCap() == 0 {
		return ErrInvalidCapabilityCombination
	}
	if (f&RspKeyExCap != 0 || f.PSKCap() != 0) && f&(RspEncryptCap|RspMacCap) == 0 {
		return ErrInvalidCapabilityCombination
	}
	if f&RspHandshakeInClearCap != 0 && f&RspKeyExCap == 0 {
		return ErrInvalidCapabilityCombination
	}
	if f&RspMutAuthCap != 0 && f&RspEncapCap == 0 {
		return ErrInvalidCapabilityCombination
	}
	if f&RspCertCap != 0 && f&RspPubKeyIDCap != 0 {
		return ErrInvalidCapabilityCombination
	}
	return nil
}

// GetCapabilities is the GET_CAPABILITIES request.
type GetCapabilities struct {
	CTExponent uint8
	Flags      ReqFlags
}

// Type returns the request code.
func (GetCapabilities) Type() uint8 { return GetCapabilitiesCode }

// Encode serializes the request into buf, returning the number of bytes
// written. The version byte is the one negotiated in the Version phase.
func (m GetCapabilities) Encode(version uint8, buf []byte) (int, error) {
	if m.CTExponent > MaxCTExponent {
		return 0, ErrCTExponentOutOfRange
	}
	e := wire.NewEncoder(buf)
	Header{Version: version, Code: GetCapabilitiesCode}.Encode(e)
	e.PutReserved(1)
	e.PutUint8(m.CTExponent)
	e.PutReserved(2)
	e.PutUint32(uint32(m.Flags))
	if err := e.Err(); err != nil {
		return 0, err
	}
	return e.Len(), nil
}

// ParseGetCapabilities validates and decodes a GET_CAPABILITIES request.
func ParseGetCapabilities(buf []byte, version uint8) (GetCapabilities, error) {
	if err := CheckHeader(buf, version, GetCapabilitiesCode); err != nil {
		return GetCapabilities{}, err
	}
	d := wire.NewDecoder(buf)
	d.Skip(HeaderSize)
	d.Reserved(1)
	ct := d.Uint8()
	d.Reserved(2)
	flags := ReqFlags(d.Uint32())
	if err := d.Finish(); err != nil {
		return GetCapabilities{}, err
	}
	if ct > MaxCTExponent {
		return GetCapabilities{}, ErrCTExponentOutOfRange
	}
	return GetCapabilities{CTExponent: ct, Flags: flags}, nil
}

// Capabilities is the CAPABILITIES response.
type Capabilities struct {
	CTExponent uint8
	Flags      RspFlags
}

// Type returns the response code.
func (Capabilities) Type() uint8 { return CapabilitiesCode }

// Encode serializes the response into buf, returning the number of bytes
// written.
func (m Capabilities) Encode(version uint8, buf []byte) (int, error) {
	e := wire.NewEncoder(buf)
	Header{Version: version, Code: CapabilitiesCode}.Encode(e)
	e.PutReserved(1)
	e.PutUint8(m.CTExponent)
	e.PutReserved(2)
	e.PutUint32(uint32(m.Flags))
	if err := e.Err(); err != nil {
		return 0, err
	}
	return e.Len(), nil
}

// ParseCapabilities validates and decodes a CAPABILITIES response.
func ParseCapabilities(buf []byte, version uint8) (Capabilities, error) {
	if err := CheckHeader(buf, version, CapabilitiesCode); err != nil {
		return Capabilities{}, err
	}
	d := wire.NewDecoder(buf)
	d.Skip(HeaderSize)
	d.Reserved(1)
	ct := d.Uint8()
	d.Reserved(2)
	flags := RspFlags(d.Uint32())
	if err := d.Finish(); err != nil {
		return Capabilities{}, err
	}
	if ct > MaxCTExponent {
		return Capabilities{}, ErrCTExponentOutOfRange
	}
	return Capabilities{CTExponent: ct, Flags: flags}, nil
}
