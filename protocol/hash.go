// SPDX-FileCopyrightText: (C) 2024 Intel Corporation
// SPDX-License-Identifier: Apache 2.0

package protocol

import (
	"crypto"
	"crypto/sha256"
	"crypto/sha512"
	"hash"

	"golang.org/x/crypto/sha3"
)

// BaseHashAlgo is the measurement/base hash algorithm bit-set negotiated in
// the Algorithms phase (DSP0274 v1.1 table 14). A selection holds exactly
// one bit; an offer may hold several.
type BaseHashAlgo uint32

// Base hash algorithms
const (
	HashSHA256  BaseHashAlgo = 1 << 0
	HashSHA384  BaseHashAlgo = 1 << 1
	HashSHA512  BaseHashAlgo = 1 << 2
	HashSHA3256 BaseHashAlgo = 1 << 3
	HashSHA3384 BaseHashAlgo = 1 << 4
	HashSHA3512 BaseHashAlgo = 1 << 5
)

func (a BaseHashAlgo) String() string {
	switch a {
	case HashSHA256:
		return "SHA-256"
	case HashSHA384:
		return "SHA-384"
	case HashSHA512:
		return "SHA-512"
	case HashSHA3256:
		return "SHA3-256"
	case HashSHA3384:
		return "SHA3-384"
	case HashSHA3512:
		return "SHA3-512"
	}
	return "unknown"
}

// IsSingle reports whether exactly one algorithm bit is set, i.e. whether a
// is a valid selection rather than an offer.
func (a BaseHashAlgo) IsSingle() bool {
	return a != 0 && a&(a-1) == 0
}

// New returns a fresh hash state for the selected algorithm, or nil if a is
// not a single known algorithm.
func (a BaseHashAlgo) New() hash.Hash {
	switch a {
	case HashSHA256:
		return sha256.New()
	case HashSHA384:
		return sha512.New384()
	case HashSHA512:
		return sha512.New()
	case HashSHA3256:
		return sha3.New256()
	case HashSHA3384:
		return sha3.New384()
	case HashSHA3512:
		return sha3.New512()
	}
	return nil
}

// Size returns the digest width in bytes, or 0 if a is not a single known
// algorithm. This width defines every digest field that follows the
// Algorithms phase.
func (a BaseHashAlgo) Size() int {
	switch a {
	case HashSHA256, HashSHA3256:
		return sha256.Size
	case HashSHA384, HashSHA3384:
		return sha512.Size384
	case HashSHA512, HashSHA3512:
		return sha512.Size
	}
	return 0
}

// HashFunc implements crypto.SignerOpts.
func (a BaseHashAlgo) HashFunc() crypto.Hash {
	switch a {
	case HashSHA256:
		return crypto.SHA256
	case HashSHA384:
		return crypto.SHA384
	case HashSHA512:
		return crypto.SHA512
	case HashSHA3256:
		return crypto.SHA3_256
	case HashSHA3384:
		return crypto.SHA3_384
	case HashSHA3512:
		return crypto.SHA3_512
	}
	return 0
}

// Sum computes the digest of data with the selected algorithm.
func (a BaseHashAlgo) Sum(data []byte) []byte {
	h := a.New()
	if h == nil {
		return nil
	}
	h.Write(data)
	return h.Sum(nil)
}

// hashPreference orders algorithms strongest digest first, SHA2 before SHA3
// at equal width. Selection among common algorithms follows this order.
var hashPreference = []BaseHashAlgo{
	HashSHA512, HashSHA3512, HashSHA384, HashSHA3384, HashSHA256, HashSHA3256,
}

// StrongestCommonHash returns the preferred algorithm present in both offers,
// or 0 if the offers do not intersect.
func StrongestCommonHash(a, b BaseHashAlgo) BaseHashAlgo {
	common := a & b
	for _, alg := range hashPreference {
		if common&alg != 0 {
			return alg
		}
	}
	return 0
}
