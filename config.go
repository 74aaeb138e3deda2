// SPDX-FileCopyrightText: (C) 2024 Intel Corporation
// SPDX-License-Identifier: Apache 2.0

package spdm

import "github.com/device-attestation/go-spdm/protocol"

// The number of certificate-chain slots mirrored by the requester. A
// responder can expose up to 8 slots; digests announced for slots at or
// above NumSlots are parsed but discarded.
const NumSlots = 1

// MaxCertChainSize is the largest certificate chain accepted into a slot.
// The absolute maximum allowed by the protocol is 65536 bytes.
const MaxCertChainSize = 1536

// TranscriptSize bounds the message transcript. It must be larger than
// MaxCertChainSize plus the handshake message overhead around it.
const TranscriptSize = 2048

// SupportedVersions lists the protocol versions this requester speaks,
// lowest first.
var SupportedVersions = []protocol.VersionNumber{
	protocol.Version11,
	protocol.Version12,
}

// DefaultReqFlags is the capability set advertised by default: certificate
// retrieval and challenge-response authentication, nothing session-related.
const DefaultReqFlags = protocol.ReqCertCap | protocol.ReqChalCap

// DefaultCTExponent advertises a cryptographic timeout of 2^12 microseconds.
const DefaultCTExponent = 12

// DefaultChunkSize is the GET_CERTIFICATE portion length requested per
// round trip when the caller does not choose one.
const DefaultChunkSize = 512

// DefaultAlgorithms returns the algorithm offer used when the caller does
// not supply one: DMTF measurements, the full SHA-2/SHA-3 hash set, and
// ECDSA plus RSA signature algorithms, with session algorithm structures
// advertised for responders that will go on to key exchange.
func DefaultAlgorithms() protocol.NegotiateAlgorithms {
	return protocol.NegotiateAlgorithms{
		MeasurementSpecs: protocol.MeasurementSpecDMTF,
		BaseAsymAlgos: protocol.AsymECDSAP256 | protocol.AsymECDSAP384 | protocol.AsymECDSAP521 |
			protocol.AsymRSASSA2048 | protocol.AsymRSASSA3072 |
			protocol.AsymRSAPSS2048 | protocol.AsymRSAPSS3072,
		BaseHashAlgos: protocol.HashSHA256 | protocol.HashSHA384 | protocol.HashSHA512 |
			protocol.HashSHA3256 | protocol.HashSHA3384 | protocol.HashSHA3512,
		AlgStructs: []protocol.AlgStruct{
			{Type: protocol.AlgTypeDHE, Supported: protocol.DHESecP256R1 | protocol.DHESecP384R1},
			{Type: protocol.AlgTypeAEAD, Supported: protocol.AEADAES128GCM | protocol.AEADAES256GCM | protocol.AEADChaCha20Poly1305},
			{Type: protocol.AlgTypeReqBaseAsym, Supported: uint16(protocol.AsymECDSAP256 | protocol.AsymECDSAP384)},
			{Type: protocol.AlgTypeKeySchedule, Supported: protocol.KeyScheduleSPDM},
		},
	}
}
