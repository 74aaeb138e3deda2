// SPDX-FileCopyrightText: (C) 2024 Intel Corporation
// SPDX-License-Identifier: Apache 2.0

package spdm

import "errors"

// Negotiation errors
var (
	// ErrNoCommonVersion is returned when the responder's VERSION entries
	// share no version with SupportedVersions.
	ErrNoCommonVersion = errors.New("no common version with responder")

	// ErrNoCommonAlgorithm is returned when the ALGORITHMS selection is
	// empty or names an algorithm the requester did not offer.
	ErrNoCommonAlgorithm = errors.New("no common algorithm with responder")
)

// Identity authentication errors
var (
	// ErrSlotIndexOutOfRange is returned for a slot the requester does not
	// mirror, either beyond NumSlots or one whose digest was discarded.
	ErrSlotIndexOutOfRange = errors.New("certificate slot index out of range")

	// ErrSlotMismatch is returned when a response names a different slot
	// than the request it answers.
	ErrSlotMismatch = errors.New("response slot does not match request slot")

	// ErrCertLengthInvalid is returned when a CERTIFICATE chunk is
	// inconsistent with the requested length or the learned total chain
	// length.
	ErrCertLengthInvalid = errors.New("certificate portion length invalid")

	// ErrCertChainTooLarge is returned before appending a portion that
	// would push a slot past MaxCertChainSize.
	ErrCertChainTooLarge = errors.New("certificate chain exceeds maximum size")

	// ErrDigestMismatch is returned when a retrieved chain does not hash to
	// the digest the responder announced, or when CHALLENGE_AUTH carries a
	// cert chain hash differing from the slot digest.
	ErrDigestMismatch = errors.New("certificate chain digest mismatch")

	// ErrUntrustedRoot is returned when the chain root is not in the
	// caller-supplied trust anchor set.
	ErrUntrustedRoot = errors.New("certificate chain root is not a trust anchor")

	// ErrCertChainInvalid is returned for a chain that fails structural,
	// chaining, or validity-period checks.
	ErrCertChainInvalid = errors.New("certificate chain invalid")

	// ErrNonceMismatch is returned when CHALLENGE_AUTH echoes a different
	// nonce than the challenge carried.
	ErrNonceMismatch = errors.New("challenge nonce mismatch")

	// ErrSignatureInvalid is returned when the CHALLENGE_AUTH signature
	// does not verify over the transcript.
	ErrSignatureInvalid = errors.New("challenge signature verification failed")
)

// ErrTranscriptOverflow is returned when appending a message would push the
// transcript past TranscriptSize. Nothing is appended.
var ErrTranscriptOverflow = errors.New("transcript overflow")
