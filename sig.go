// SPDX-FileCopyrightText: (C) 2024 Intel Corporation
// SPDX-License-Identifier: Apache 2.0

package spdm

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rsa"
	"fmt"
	"math/big"

	"github.com/device-attestation/go-spdm/protocol"
)

// verifySignature checks sig over digest with the negotiated signature
// algorithm and the responder's leaf public key. ECDSA signatures are the
// raw fixed-width concatenation r||s; RSA signatures are PKCS#1 v1.5 or PSS
// according to the selection.
func verifySignature(asym protocol.BaseAsymAlgo, hashFunc crypto.Hash, pub crypto.PublicKey, digest, sig []byte) error {
	if len(sig) != asym.SignatureSize() {
		return fmt.Errorf("%w: signature is %d bytes, %s needs %d",
			ErrSignatureInvalid, len(sig), asym, asym.SignatureSize())
	}

	switch asym {
	case protocol.AsymECDSAP256, protocol.AsymECDSAP384, protocol.AsymECDSAP521:
		key, ok := pub.(*ecdsa.PublicKey)
		if !ok {
			return fmt.Errorf("%w: %s selected but leaf key is %T", ErrSignatureInvalid, asym, pub)
		}
		if key.Curve != curveFor(asym) {
			return fmt.Errorf("%w: %s selected but leaf key is on %s", ErrSignatureInvalid, asym, key.Curve.Params().Name)
		}
		half := len(sig) / 2
		r := new(big.Int).SetBytes(sig[:half])
		s := new(big.Int).SetBytes(sig[half:])
		if !ecdsa.Verify(key, digest, r, s) {
			return ErrSignatureInvalid
		}
		return nil

	case protocol.AsymRSASSA2048, protocol.AsymRSASSA3072, protocol.AsymRSASSA4096:
		key, ok := pub.(*rsa.PublicKey)
		if !ok {
			return fmt.Errorf("%w: %s selected but leaf key is %T", ErrSignatureInvalid, asym, pub)
		}
		if err := rsa.VerifyPKCS1v15(key, hashFunc, digest, sig); err != nil {
			return ErrSignatureInvalid
		}
		return nil

	case protocol.AsymRSAPSS2048, protocol.AsymRSAPSS3072, protocol.AsymRSAPSS4096:
		key, ok := pub.(*rsa.PublicKey)
		if !ok {
			return fmt.Errorf("%w: %s selected but leaf key is %T", ErrSignatureInvalid, asym, pub)
		}
		opts := &rsa.PSSOptions{SaltLength: rsa.PSSSaltLengthEqualsHash, Hash: hashFunc}
		if err := rsa.VerifyPSS(key, hashFunc, digest, sig, opts); err != nil {
			return ErrSignatureInvalid
		}
		return nil
	}
	return fmt.Errorf("%w: unsupported signature algorithm %s", ErrSignatureInvalid, asym)
}

func curveFor(asym protocol.BaseAsymAlgo) elliptic.Curve {
	switch asym {
	case protocol.AsymECDSAP256:
		return elliptic.P256()
	case protocol.AsymECDSAP384:
		return elliptic.P384()
	case protocol.AsymECDSAP521:
		return elliptic.P521()
	}
	return nil
}
