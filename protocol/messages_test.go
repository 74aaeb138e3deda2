// SPDX-FileCopyrightText: (C) 2024 Intel Corporation
// SPDX-License-Identifier: Apache 2.0

package protocol_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/device-attestation/go-spdm/protocol"
)

func TestDigestsRoundTrip(t *testing.T) {
	d0 := bytes.Repeat([]byte{0xA1}, 48)
	d2 := bytes.Repeat([]byte{0xB2}, 48)
	msg := protocol.Digests{SlotMask: 0b101, Digests: [][]byte{d0, d2}}

	buf := make([]byte, 256)
	n, err := msg.Encode(0x11, buf)
	if err != nil {
		t.Fatal(err)
	}
	got, err := protocol.ParseDigests(buf[:n], 0x11, 48)
	if err != nil {
		t.Fatal(err)
	}
	if got.SlotMask != 0b101 || len(got.Digests) != 2 {
		t.Fatalf("parsed mask %#b with %d digests", got.SlotMask, len(got.Digests))
	}
	if !bytes.Equal(got.Digests[0], d0) || !bytes.Equal(got.Digests[1], d2) {
		t.Fatal("digests corrupted in round trip")
	}
}

func TestParseDigestsWidthMismatch(t *testing.T) {
	// Two slots announced but payload sized for one digest.
	buf := append([]byte{0x11, 0x01, 0x00, 0b11}, bytes.Repeat([]byte{0xCC}, 48)...)
	if _, err := protocol.ParseDigests(buf, 0x11, 48); !errors.Is(err, protocol.ErrDigestWidthMismatch) {
		t.Fatalf("expected ErrDigestWidthMismatch, got %v", err)
	}
}

func TestGetCertificateEncoding(t *testing.T) {
	msg := protocol.GetCertificate{Slot: 0, Offset: 0x0200, Length: 0x0100}
	buf := make([]byte, 16)
	n, err := msg.Encode(0x11, buf)
	if err != nil {
		t.Fatal(err)
	}
	expect := []byte{0x11, 0x82, 0x00, 0x00, 0x00, 0x02, 0x00, 0x01}
	if !bytes.Equal(buf[:n], expect) {
		t.Fatalf("encoded % x, expected % x", buf[:n], expect)
	}
	got, err := protocol.ParseGetCertificate(buf[:n], 0x11)
	if err != nil {
		t.Fatal(err)
	}
	if got != msg {
		t.Fatalf("parsed %+v, expected %+v", got, msg)
	}
}

func TestCertificateRoundTrip(t *testing.T) {
	portion := bytes.Repeat([]byte{0xDE}, 200)
	msg := protocol.Certificate{Slot: 0, RemainderLength: 1000, Portion: portion}
	buf := make([]byte, 512)
	n, err := msg.Encode(0x11, buf)
	if err != nil {
		t.Fatal(err)
	}
	got, err := protocol.ParseCertificate(buf[:n], 0x11)
	if err != nil {
		t.Fatal(err)
	}
	if got.PortionLength != 200 || got.RemainderLength != 1000 || !bytes.Equal(got.Portion, portion) {
		t.Fatalf("parsed %+v", got)
	}
	// The portion must not alias the input buffer.
	buf[8] ^= 0xFF
	if !bytes.Equal(got.Portion, portion) {
		t.Fatal("parsed portion aliases input buffer")
	}
}

func TestCertificatePortionTruncated(t *testing.T) {
	// PortionLength claims more bytes than the message carries.
	buf := []byte{0x11, 0x02, 0x00, 0x00, 0x10, 0x00, 0x00, 0x00, 0xAA, 0xBB}
	if _, err := protocol.ParseCertificate(buf, 0x11); err == nil {
		t.Fatal("truncated portion accepted")
	}
}

func TestChallengeRoundTrip(t *testing.T) {
	msg := protocol.Challenge{Slot: 0, SummaryType: protocol.SummaryAll}
	for i := range msg.Nonce {
		msg.Nonce[i] = byte(i)
	}
	buf := make([]byte, 64)
	n, err := msg.Encode(0x12, buf)
	if err != nil {
		t.Fatal(err)
	}
	if n != protocol.HeaderSize+protocol.NonceSize {
		t.Fatalf("encoded %d bytes", n)
	}
	got, err := protocol.ParseChallenge(buf[:n], 0x12)
	if err != nil {
		t.Fatal(err)
	}
	if got != msg {
		t.Fatalf("parsed %+v, expected %+v", got, msg)
	}
}

func TestChallengeAuthRoundTrip(t *testing.T) {
	const digestSize, sigSize = 48, 96
	msg := protocol.ChallengeAuth{
		Slot:          0,
		SlotMask:      0x01,
		CertChainHash: bytes.Repeat([]byte{0x11}, digestSize),
		OpaqueData:    []byte("opaque"),
		Signature:     bytes.Repeat([]byte{0x55}, sigSize),
	}
	for i := range msg.Nonce {
		msg.Nonce[i] = byte(0xF0 ^ i)
	}

	t.Run("without summary", func(t *testing.T) {
		buf := make([]byte, 512)
		n, err := msg.Encode(0x11, buf)
		if err != nil {
			t.Fatal(err)
		}
		got, err := protocol.ParseChallengeAuth(buf[:n], 0x11, digestSize, sigSize, false)
		if err != nil {
			t.Fatal(err)
		}
		if got.Slot != 0 || got.SlotMask != 0x01 || got.Nonce != msg.Nonce {
			t.Fatalf("parsed %+v", got)
		}
		if !bytes.Equal(got.Signature, msg.Signature) || !bytes.Equal(got.OpaqueData, msg.OpaqueData) {
			t.Fatal("fields corrupted in round trip")
		}
		if sl := got.SignedLength(n); sl != n-sigSize {
			t.Fatalf("SignedLength = %d, expected %d", sl, n-sigSize)
		}
	})

	t.Run("with summary", func(t *testing.T) {
		withSummary := msg
		withSummary.MeasurementSummaryHash = bytes.Repeat([]byte{0x22}, digestSize)
		buf := make([]byte, 512)
		n, err := withSummary.Encode(0x11, buf)
		if err != nil {
			t.Fatal(err)
		}
		got, err := protocol.ParseChallengeAuth(buf[:n], 0x11, digestSize, sigSize, true)
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(got.MeasurementSummaryHash, withSummary.MeasurementSummaryHash) {
			t.Fatal("summary hash corrupted in round trip")
		}
	})

	t.Run("summary expectation mismatch", func(t *testing.T) {
		buf := make([]byte, 512)
		n, err := msg.Encode(0x11, buf)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := protocol.ParseChallengeAuth(buf[:n], 0x11, digestSize, sigSize, true); err == nil {
			t.Fatal("message without summary parsed as if one were present")
		}
	})

	t.Run("mutual auth bits masked from slot", func(t *testing.T) {
		buf := make([]byte, 512)
		n, err := msg.Encode(0x11, buf)
		if err != nil {
			t.Fatal(err)
		}
		buf[2] |= 0x80 // basic mutual auth requested flag
		got, err := protocol.ParseChallengeAuth(buf[:n], 0x11, digestSize, sigSize, false)
		if err != nil {
			t.Fatal(err)
		}
		if got.Slot != 0 {
			t.Fatalf("Slot = %d, expected high Param1 bits masked", got.Slot)
		}
	})
}

func TestErrorMessage(t *testing.T) {
	msg := &protocol.ErrorMessage{Code: protocol.ErrUnsupportedRequest, Data: 0x83, Extended: []byte{0x01, 0x02}}
	buf := make([]byte, 16)
	n, err := msg.Encode(0x11, buf)
	if err != nil {
		t.Fatal(err)
	}
	expect := []byte{0x11, 0x7F, 0x07, 0x83, 0x01, 0x02}
	if !bytes.Equal(buf[:n], expect) {
		t.Fatalf("encoded % x, expected % x", buf[:n], expect)
	}

	if !protocol.IsError(buf[:n]) {
		t.Fatal("IsError did not recognize ERROR frame")
	}
	got, err := protocol.ParseError(buf[:n])
	if err != nil {
		t.Fatal(err)
	}
	if got.Code != protocol.ErrUnsupportedRequest || got.Data != 0x83 || !bytes.Equal(got.Extended, msg.Extended) {
		t.Fatalf("parsed %+v", got)
	}

	var asErr error = got
	if asErr.Error() == "" {
		t.Fatal("empty error string")
	}
}

func TestParseErrorIgnoresVersion(t *testing.T) {
	// A responder reporting MajorVersionMismatch answers with its own
	// version byte; the frame must still parse.
	buf := []byte{0x10, 0x7F, 0x41, 0x00}
	got, err := protocol.ParseError(buf)
	if err != nil {
		t.Fatal(err)
	}
	if got.Code != protocol.ErrMajorVersionMismatch {
		t.Fatalf("Code = %v", got.Code)
	}
}

func TestPhaseOf(t *testing.T) {
	for code, phase := range map[uint8]protocol.Phase{
		protocol.GetVersionCode:          protocol.VersionPhase,
		protocol.CapabilitiesCode:        protocol.CapabilitiesPhase,
		protocol.NegotiateAlgorithmsCode: protocol.AlgorithmsPhase,
		protocol.GetDigestsCode:          protocol.IDAuthPhase,
		protocol.CertificateCode:         protocol.IDAuthPhase,
		protocol.ChallengeAuthCode:       protocol.IDAuthPhase,
		protocol.ErrorCode:               protocol.AnyPhase,
		0x55:                             protocol.UnknownPhase,
	} {
		if got := protocol.Of(code); got != phase {
			t.Errorf("Of(%#x) = %s, expected %s", code, got, phase)
		}
	}
}
