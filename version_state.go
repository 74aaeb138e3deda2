// SPDX-FileCopyrightText: (C) 2024 Intel Corporation
// SPDX-License-Identifier: Apache 2.0

package spdm

import (
	"github.com/device-attestation/go-spdm/protocol"
)

// Start enters the first state of the requester state machine, the Version
// phase. The transcript and slot table are owned by the caller and threaded
// through every state; a fresh handshake needs fresh instances of both.
func Start() VersionState { return VersionState{} }

// VersionState is the initial phase: discover the protocol versions the
// responder speaks. GET_VERSION also resets the responder's handshake
// state, so the transcript begins here.
type VersionState struct{}

// WriteGetVersion encodes a GET_VERSION request into buf and appends it to
// the transcript. It returns the number of bytes to dispatch.
func (VersionState) WriteGetVersion(ts *Transcript, buf []byte) (int, error) {
	n, err := protocol.GetVersion{}.Encode(buf)
	if err != nil {
		return 0, err
	}
	if err := ts.Append(buf[:n]); err != nil {
		return 0, err
	}
	return n, nil
}

// HandleVersion consumes a VERSION response and selects the highest entry
// this requester supports, tie-broken by wire order among equal entries.
// With no supported overlap it fails with ErrNoCommonVersion and the state
// remains usable.
func (VersionState) HandleVersion(ts *Transcript, buf []byte) (CapabilitiesState, error) {
	if err := responderError(buf); err != nil {
		return CapabilitiesState{}, err
	}
	msg, err := protocol.ParseVersion(buf)
	if err != nil {
		return CapabilitiesState{}, err
	}
	selected := selectVersion(msg.Entries)
	if selected == 0 {
		return CapabilitiesState{}, ErrNoCommonVersion
	}
	if err := ts.Append(buf); err != nil {
		return CapabilitiesState{}, err
	}
	return CapabilitiesState{Version: selected}, nil
}

func selectVersion(entries []protocol.VersionNumber) protocol.VersionNumber {
	var best protocol.VersionNumber
	for _, entry := range entries {
		if !supportedVersion(entry) {
			continue
		}
		// Strict comparison keeps the earliest of equal entries.
		if entry.Compare(best) > 0 {
			best = entry
		}
	}
	return best
}

func supportedVersion(v protocol.VersionNumber) bool {
	for _, s := range SupportedVersions {
		if v == s {
			return true
		}
	}
	return false
}
