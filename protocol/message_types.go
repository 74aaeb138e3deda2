// SPDX-FileCopyrightText: (C) 2024 Intel Corporation
// SPDX-License-Identifier: Apache 2.0

package protocol

// Request codes (DSP0274 v1.1 table 4)
const (
	GetDigestsCode          uint8 = 0x81
	GetCertificateCode      uint8 = 0x82
	ChallengeCode           uint8 = 0x83
	GetVersionCode          uint8 = 0x84
	GetCapabilitiesCode     uint8 = 0xE1
	NegotiateAlgorithmsCode uint8 = 0xE3
)

// Response codes (DSP0274 v1.1 table 5)
const (
	DigestsCode       uint8 = 0x01
	CertificateCode   uint8 = 0x02
	ChallengeAuthCode uint8 = 0x03
	VersionCode       uint8 = 0x04
	CapabilitiesCode  uint8 = 0x61
	AlgorithmsCode    uint8 = 0x63
	ErrorCode         uint8 = 0x7F
)

// ResponseOf returns the response code paired with a request code, or 0 for
// an unknown request.
func ResponseOf(reqCode uint8) uint8 {
	switch reqCode {
	case GetDigestsCode:
		return DigestsCode
	case GetCertificateCode:
		return CertificateCode
	case ChallengeCode:
		return ChallengeAuthCode
	case GetVersionCode:
		return VersionCode
	case GetCapabilitiesCode:
		return CapabilitiesCode
	case NegotiateAlgorithmsCode:
		return AlgorithmsCode
	default:
		return 0
	}
}
