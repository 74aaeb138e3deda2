// SPDX-FileCopyrightText: (C) 2024 Intel Corporation
// SPDX-License-Identifier: Apache 2.0

package spdm

// Authenticated is the terminal phase of the pre-session handshake: the
// responder's identity in Slot has been authenticated under the negotiated
// parameters. It exposes no further operations; session establishment and
// measurement retrieval build on it elsewhere.
type Authenticated struct {
	Negotiation Negotiation
	Slot        uint8
}
