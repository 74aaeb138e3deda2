// SPDX-FileCopyrightText: (C) 2024 Intel Corporation
// SPDX-License-Identifier: Apache 2.0

package protocol_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/device-attestation/go-spdm/protocol"
)

func TestGetCapabilitiesEncoding(t *testing.T) {
	msg := protocol.GetCapabilities{
		CTExponent: 12,
		Flags:      protocol.ReqCertCap | protocol.ReqChalCap,
	}
	buf := make([]byte, 16)
	n, err := msg.Encode(0x11, buf)
	if err != nil {
		t.Fatal(err)
	}
	expect := []byte{
		0x11, 0xE1, 0x00, 0x00, // header
		0x00,                   // reserved
		0x0C,                   // CT exponent
		0x00, 0x00,             // reserved
		0x06, 0x00, 0x00, 0x00, // flags, little-endian
	}
	if !bytes.Equal(buf[:n], expect) {
		t.Fatalf("encoded % x, expected % x", buf[:n], expect)
	}

	got, err := protocol.ParseGetCapabilities(buf[:n], 0x11)
	if err != nil {
		t.Fatal(err)
	}
	if got != msg {
		t.Fatalf("parsed %+v, expected %+v", got, msg)
	}
}

func TestCapabilitiesRoundTrip(t *testing.T) {
	msg := protocol.Capabilities{
		CTExponent: 20,
		Flags:      protocol.RspCacheCap | protocol.RspCertCap | protocol.RspChalCap | protocol.RspMeasCapSig,
	}
	buf := make([]byte, 16)
	n, err := msg.Encode(0x12, buf)
	if err != nil {
		t.Fatal(err)
	}
	got, err := protocol.ParseCapabilities(buf[:n], 0x12)
	if err != nil {
		t.Fatal(err)
	}
	if got != msg {
		t.Fatalf("parsed %+v, expected %+v", got, msg)
	}
}

func TestCTExponentRange(t *testing.T) {
	if _, err := (protocol.GetCapabilities{CTExponent: 64}).Encode(0x11, make([]byte, 16)); !errors.Is(err, protocol.ErrCTExponentOutOfRange) {
		t.Fatalf("expected ErrCTExponentOutOfRange, got %v", err)
	}
	buf := []byte{0x11, 0x61, 0x00, 0x00, 0x00, 0x7F, 0x00, 0x00, 0x02, 0x00, 0x00, 0x00}
	if _, err := protocol.ParseCapabilities(buf, 0x11); !errors.Is(err, protocol.ErrCTExponentOutOfRange) {
		t.Fatalf("expected ErrCTExponentOutOfRange, got %v", err)
	}
}

func TestReqFlagsValidate(t *testing.T) {
	for _, c := range []struct {
		name  string
		flags protocol.ReqFlags
		valid bool
	}{
		{"cert and chal", protocol.ReqCertCap | protocol.ReqChalCap, true},
		{"full session stack", protocol.ReqCertCap | protocol.ReqChalCap | protocol.ReqEncryptCap | protocol.ReqMacCap | protocol.ReqKeyExCap, true},
		{"encrypt without key exchange", protocol.ReqCertCap | protocol.ReqEncryptCap, false},
		{"key exchange without encrypt or mac", protocol.ReqCertCap | protocol.ReqKeyExCap, false},
		{"handshake in the clear without key exchange", protocol.ReqCertCap | protocol.ReqHandshakeInClearCap, false},
		{"mutual auth without encap", protocol.ReqCertCap | protocol.ReqMutAuthCap, false},
		{"mutual auth with encap", protocol.ReqCertCap | protocol.ReqMutAuthCap | protocol.ReqEncapCap, true},
		{"cert and public key id exclusive", protocol.ReqCertCap | protocol.ReqPubKeyIDCap, false},
		{"reserved PSK bit", protocol.ReqCertCap | protocol.ReqFlags(1<<11), false},
	} {
		t.Run(c.name, func(t *testing.T) {
			err := c.flags.Validate()
			if c.valid && err != nil {
				t.Fatalf("%s rejected: %v", c.flags, err)
			}
			if !c.valid && !errors.Is(err, protocol.ErrInvalidCapabilityCombination) {
				t.Fatalf("%s accepted", c.flags)
			}
		})
	}
}

func TestRspFlagsValidate(t *testing.T) {
	for _, c := range []struct {
		name  string
		flags protocol.RspFlags
		valid bool
	}{
		{"cert and chal", protocol.RspCertCap | protocol.RspChalCap, true},
		{"measurements with cert", protocol.RspCertCap | protocol.RspChalCap | protocol.RspMeasCapSig, true},
		{"measurements without identity", protocol.RspMeasCapSig, false},
		{"chal without identity", protocol.RspChalCap, false},
		{"chal with public key id", protocol.RspChalCap | protocol.RspPubKeyIDCap, true},
		{"reserved meas value", protocol.RspCertCap | protocol.RspMeasCapNoSig | protocol.RspMeasCapSig, false},
		{"reserved psk value", protocol.RspCertCap | protocol.RspPSKCap | protocol.RspPSKCapWithContext, false},
		{"encrypt without key exchange or psk", protocol.RspCertCap | protocol.RspEncryptCap, false},
		{"encrypt with psk only", protocol.RspCertCap | protocol.RspEncryptCap | protocol.RspPSKCap, true},
		{"key exchange without encrypt or mac", protocol.RspCertCap | protocol.RspKeyExCap, false},
		{"handshake in the clear without key exchange", protocol.RspCertCap | protocol.RspHandshakeInClearCap, false},
		{"mutual auth without encap", protocol.RspCertCap | protocol.RspMutAuthCap, false},
		{"cert and public key id exclusive", protocol.RspCertCap | protocol.RspPubKeyIDCap, false},
	} {
		t.Run(c.name, func(t *testing.T) {
			err := c.flags.Validate()
			if c.valid && err != nil {
				t.Fatalf("%s rejected: %v", c.flags, err)
			}
			if !c.valid && !errors.Is(err, protocol.ErrInvalidCapabilityCombination) {
				t.Fatalf("%s accepted", c.flags)
			}
		})
	}
}

func TestMeasCapField(t *testing.T) {
	if got := (protocol.RspCertCap | protocol.RspMeasCapSig).MeasCap(); got != 2 {
		t.Errorf("MeasCap() = %d, expected 2", got)
	}
	if got := protocol.RspMeasCapNoSig.MeasCap(); got != 1 {
		t.Errorf("MeasCap() = %d, expected 1", got)
	}
	if got := protocol.RspPSKCapWithContext.PSKCap(); got != 2 {
		t.Errorf("PSKCap() = %d, expected 2", got)
	}
}
