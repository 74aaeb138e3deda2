// SPDX-FileCopyrightText: (C) 2024 Intel Corporation
// SPDX-License-Identifier: Apache 2.0

/*
Package spdm implements the requester side of the SPDM pre-session
handshake: version discovery, capability and algorithm negotiation, and
responder identity authentication via certificate chains and a signed
challenge.

The handshake is a sequence of phase-typed states. Each phase is its own
type exposing exactly two kinds of operation: writing that phase's request
into a caller-provided buffer, and handling that phase's response, which
consumes the state by value and returns the successor phase. Feeding a
later-phase response to an earlier-phase state is therefore impossible to
express. States hold only small negotiation results; the transcript and
certificate slot table are passed in by the caller, so states stay cheap to
copy and safe to move across goroutines.

	ts := new(spdm.Transcript)
	slots := new(spdm.SlotTable)
	vs := spdm.Start()
	n, _ := vs.WriteGetVersion(ts, buf)
	// ... dispatch buf[:n], receive resp ...
	cs, err := vs.HandleVersion(ts, resp)

The Requester type drives all phases over a Transport for callers that do
not need to interleave their own I/O. All blocking calls take a
context.Context.

The core performs no I/O, no logging, and no dynamic allocation in its
steady state: the transcript and chain buffers are fixed arrays bounded by
TranscriptSize and MaxCertChainSize.
*/
package spdm
