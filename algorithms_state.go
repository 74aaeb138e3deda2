// SPDX-FileCopyrightText: (C) 2024 Intel Corporation
// SPDX-License-Identifier: Apache 2.0

package spdm

import (
	"fmt"

	"github.com/device-attestation/go-spdm/protocol"
)

// AlgorithmsState is the third phase: negotiate the base hash and signature
// algorithms. Its outcome fixes the digest width of every later message and
// the digest capability used by the transcript and slot table.
type AlgorithmsState struct {
	Version       protocol.VersionNumber
	ReqCTExponent uint8
	ReqFlags      protocol.ReqFlags
	RspCTExponent uint8
	RspFlags      protocol.RspFlags

	offered protocol.NegotiateAlgorithms
}

// WriteNegotiateAlgorithms encodes a NEGOTIATE_ALGORITHMS request into buf
// and appends it to the transcript, recording the offer for validating the
// responder's selection.
func (s *AlgorithmsState) WriteNegotiateAlgorithms(ts *Transcript, buf []byte, req protocol.NegotiateAlgorithms) (int, error) {
	n, err := req.Encode(s.Version.Base(), buf)
	if err != nil {
		return 0, err
	}
	if err := ts.Append(buf[:n]); err != nil {
		return 0, err
	}
	s.offered = req
	return n, nil
}

// HandleAlgorithms consumes an ALGORITHMS response. The selection must name
// exactly one base hash and one base signature algorithm, each drawn from
// the requester's offer, and every algorithm structure selection must be a
// subset of what was offered. On success the negotiated parameters are
// frozen and the machine enters identity authentication.
func (s AlgorithmsState) HandleAlgorithms(ts *Transcript, buf []byte) (DigestsState, error) {
	if err := responderError(buf); err != nil {
		return DigestsState{}, err
	}
	msg, err := protocol.ParseAlgorithms(buf, s.Version.Base())
	if err != nil {
		return DigestsState{}, err
	}

	if msg.BaseHashSel == 0 || msg.BaseAsymSel == 0 {
		return DigestsState{}, ErrNoCommonAlgorithm
	}
	if !msg.BaseHashSel.IsSingle() {
		return DigestsState{}, fmt.Errorf("%w: hash selection 0x%x is not a single algorithm", ErrNoCommonAlgorithm, uint32(msg.BaseHashSel))
	}
	if !msg.BaseAsymSel.IsSingle() {
		return DigestsState{}, fmt.Errorf("%w: signature selection 0x%x is not a single algorithm", ErrNoCommonAlgorithm, uint32(msg.BaseAsymSel))
	}
	if msg.BaseHashSel&s.offered.BaseHashAlgos == 0 {
		return DigestsState{}, fmt.Errorf("%w: %s was not offered", ErrNoCommonAlgorithm, msg.BaseHashSel)
	}
	if msg.BaseAsymSel&s.offered.BaseAsymAlgos == 0 {
		return DigestsState{}, fmt.Errorf("%w: %s was not offered", ErrNoCommonAlgorithm, msg.BaseAsymSel)
	}
	if msg.MeasurementSpecSel&^s.offered.MeasurementSpecs != 0 {
		return DigestsState{}, fmt.Errorf("%w: measurement spec 0x%x was not offered", ErrNoCommonAlgorithm, uint8(msg.MeasurementSpecSel))
	}
	if err := checkAlgStructs(s.offered.AlgStructs, msg.AlgStructs); err != nil {
		return DigestsState{}, err
	}

	if err := ts.Append(buf); err != nil {
		return DigestsState{}, err
	}
	return DigestsState{Negotiation: Negotiation{
		Version:         s.Version,
		ReqCTExponent:   s.ReqCTExponent,
		ReqFlags:        s.ReqFlags,
		RspCTExponent:   s.RspCTExponent,
		RspFlags:        s.RspFlags,
		MeasurementSpec: msg.MeasurementSpecSel,
		BaseHash:        msg.BaseHashSel,
		BaseAsym:        msg.BaseAsymSel,
	}}, nil
}

// checkAlgStructs verifies that every algorithm structure the responder
// selected from is one the requester offered, and that each selection is a
// subset of the corresponding offer.
func checkAlgStructs(offered, selected []protocol.AlgStruct) error {
	for _, sel := range selected {
		var offer *protocol.AlgStruct
		for i := range offered {
			if offered[i].Type == sel.Type {
				offer = &offered[i]
				break
			}
		}
		if offer == nil {
			return fmt.Errorf("%w: %s selection was not offered", ErrNoCommonAlgorithm, sel.Type)
		}
		if sel.Supported&^offer.Supported != 0 {
			return fmt.Errorf("%w: %s selection 0x%x is not a subset of offer 0x%x",
				ErrNoCommonAlgorithm, sel.Type, sel.Supported, offer.Supported)
		}
	}
	return nil
}
