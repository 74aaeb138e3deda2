// SPDX-FileCopyrightText: (C) 2024 Intel Corporation
// SPDX-License-Identifier: Apache 2.0

package spdm

import (
	"github.com/device-attestation/go-spdm/protocol"
)

// CapabilitiesState is the second phase: exchange capability flags and
// cryptographic timeout exponents.
type CapabilitiesState struct {
	Version protocol.VersionNumber

	ctExponent uint8
	flags      protocol.ReqFlags
}

// WriteGetCapabilities encodes a GET_CAPABILITIES request into buf and
// appends it to the transcript. The advertised flags must themselves be a
// legal combination.
func (s *CapabilitiesState) WriteGetCapabilities(ts *Transcript, buf []byte, req protocol.GetCapabilities) (int, error) {
	if err := req.Flags.Validate(); err != nil {
		return 0, err
	}
	n, err := req.Encode(s.Version.Base(), buf)
	if err != nil {
		return 0, err
	}
	if err := ts.Append(buf[:n]); err != nil {
		return 0, err
	}
	s.ctExponent = req.CTExponent
	s.flags = req.Flags
	return n, nil
}

// HandleCapabilities consumes a CAPABILITIES response, checks the
// responder's flag set against the cross-capability rules, and moves to the
// Algorithms phase.
func (s CapabilitiesState) HandleCapabilities(ts *Transcript, buf []byte) (AlgorithmsState, error) {
	if err := responderError(buf); err != nil {
		return AlgorithmsState{}, err
	}
	msg, err := protocol.ParseCapabilities(buf, s.Version.Base())
	if err != nil {
		return AlgorithmsState{}, err
	}
	if err := msg.Flags.Validate(); err != nil {
		return AlgorithmsState{}, err
	}
	if err := ts.Append(buf); err != nil {
		return AlgorithmsState{}, err
	}
	return AlgorithmsState{
		Version:       s.Version,
		ReqCTExponent: s.ctExponent,
		ReqFlags:      s.flags,
		RspCTExponent: msg.CTExponent,
		RspFlags:      msg.Flags,
	}, nil
}
