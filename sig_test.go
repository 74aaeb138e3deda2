// SPDX-FileCopyrightText: (C) 2024 Intel Corporation
// SPDX-License-Identifier: Apache 2.0

package spdm

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha512"
	"errors"
	"testing"

	"github.com/device-attestation/go-spdm/protocol"
)

func TestVerifySignatureECDSA(t *testing.T) {
	key, err := ecdsa.GenerateKey(elliptic.P384(), rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	digest := sha512.Sum384([]byte("transcript"))

	r, s, err := ecdsa.Sign(rand.Reader, key, digest[:])
	if err != nil {
		t.Fatal(err)
	}
	sig := make([]byte, 96)
	r.FillBytes(sig[:48])
	s.FillBytes(sig[48:])

	if err := verifySignature(protocol.AsymECDSAP384, crypto.SHA384, &key.PublicKey, digest[:], sig); err != nil {
		t.Fatal(err)
	}

	t.Run("corrupted signature", func(t *testing.T) {
		bad := append([]byte(nil), sig...)
		bad[10] ^= 0xFF
		if err := verifySignature(protocol.AsymECDSAP384, crypto.SHA384, &key.PublicKey, digest[:], bad); !errors.Is(err, ErrSignatureInvalid) {
			t.Fatalf("expected ErrSignatureInvalid, got %v", err)
		}
	})

	t.Run("wrong length", func(t *testing.T) {
		if err := verifySignature(protocol.AsymECDSAP384, crypto.SHA384, &key.PublicKey, digest[:], sig[:64]); !errors.Is(err, ErrSignatureInvalid) {
			t.Fatalf("expected ErrSignatureInvalid, got %v", err)
		}
	})

	t.Run("curve mismatch", func(t *testing.T) {
		p256, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
		if err != nil {
			t.Fatal(err)
		}
		if err := verifySignature(protocol.AsymECDSAP384, crypto.SHA384, &p256.PublicKey, digest[:], sig); !errors.Is(err, ErrSignatureInvalid) {
			t.Fatalf("expected ErrSignatureInvalid, got %v", err)
		}
	})

	t.Run("key type mismatch", func(t *testing.T) {
		rsaKey, err := rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			t.Fatal(err)
		}
		if err := verifySignature(protocol.AsymECDSAP384, crypto.SHA384, &rsaKey.PublicKey, digest[:], sig); !errors.Is(err, ErrSignatureInvalid) {
			t.Fatalf("expected ErrSignatureInvalid, got %v", err)
		}
	})
}

func TestVerifySignatureRSA(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatal(err)
	}
	digest := sha512.Sum384([]byte("transcript"))

	t.Run("PKCS1v15", func(t *testing.T) {
		sig, err := rsa.SignPKCS1v15(rand.Reader, key, crypto.SHA384, digest[:])
		if err != nil {
			t.Fatal(err)
		}
		if err := verifySignature(protocol.AsymRSASSA2048, crypto.SHA384, &key.PublicKey, digest[:], sig); err != nil {
			t.Fatal(err)
		}
		sig[0] ^= 0xFF
		if err := verifySignature(protocol.AsymRSASSA2048, crypto.SHA384, &key.PublicKey, digest[:], sig); !errors.Is(err, ErrSignatureInvalid) {
			t.Fatalf("expected ErrSignatureInvalid, got %v", err)
		}
	})

	t.Run("PSS", func(t *testing.T) {
		opts := &rsa.PSSOptions{SaltLength: rsa.PSSSaltLengthEqualsHash, Hash: crypto.SHA384}
		sig, err := rsa.SignPSS(rand.Reader, key, crypto.SHA384, digest[:], opts)
		if err != nil {
			t.Fatal(err)
		}
		if err := verifySignature(protocol.AsymRSAPSS2048, crypto.SHA384, &key.PublicKey, digest[:], sig); err != nil {
			t.Fatal(err)
		}
		// A PSS signature must not verify under the PKCS#1 v1.5 selection.
		if err := verifySignature(protocol.AsymRSASSA2048, crypto.SHA384, &key.PublicKey, digest[:], sig); !errors.Is(err, ErrSignatureInvalid) {
			t.Fatalf("expected ErrSignatureInvalid, got %v", err)
		}
	})
}
