// SPDX-FileCopyrightText: (C) 2024 Intel Corporation
// SPDX-License-Identifier: Apache 2.0

// Package protocol contains common protocol-related types and values.
package protocol

// Phase is a stage of the SPDM pre-session handshake.
type Phase uint8

// Phase enumeration values
const (
	UnknownPhase Phase = iota
	VersionPhase
	CapabilitiesPhase
	AlgorithmsPhase
	IDAuthPhase
	AnyPhase // for the ERROR response type
)

func (p Phase) String() string {
	switch p {
	case VersionPhase:
		return "Version"
	case CapabilitiesPhase:
		return "Capabilities"
	case AlgorithmsPhase:
		return "Algorithms"
	case IDAuthPhase:
		return "IdAuth"
	case AnyPhase:
		return "Any"
	default:
		return "Unknown"
	}
}

// Of returns the phase a given request/response code belongs to.
func Of(code uint8) Phase {
	switch code {
	case GetVersionCode, VersionCode:
		return VersionPhase
	case GetCapabilitiesCode, CapabilitiesCode:
		return CapabilitiesPhase
	case NegotiateAlgorithmsCode, AlgorithmsCode:
		return AlgorithmsPhase
	case GetDigestsCode, DigestsCode,
		GetCertificateCode, CertificateCode,
		ChallengeCode, ChallengeAuthCode:
		return IDAuthPhase
	case ErrorCode:
		return AnyPhase
	default:
		return UnknownPhase
	}
}
