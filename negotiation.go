// SPDX-FileCopyrightText: (C) 2024 Intel Corporation
// SPDX-License-Identifier: Apache 2.0

package spdm

import "github.com/device-attestation/go-spdm/protocol"

// Negotiation carries the parameters fixed by the Version, Capabilities,
// and Algorithms phases. It is read-only once the identity authentication
// phase begins.
type Negotiation struct {
	Version       protocol.VersionNumber
	ReqCTExponent uint8
	ReqFlags      protocol.ReqFlags
	RspCTExponent uint8
	RspFlags      protocol.RspFlags

	MeasurementSpec protocol.MeasurementSpec
	BaseHash        protocol.BaseHashAlgo
	BaseAsym        protocol.BaseAsymAlgo
}

// DigestSize returns the width of every digest field after the Algorithms
// phase.
func (n Negotiation) DigestSize() int { return n.BaseHash.Size() }

// SignatureSize returns the wire size of responder signatures.
func (n Negotiation) SignatureSize() int { return n.BaseAsym.SignatureSize() }
