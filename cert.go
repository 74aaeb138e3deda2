// SPDX-FileCopyrightText: (C) 2024 Intel Corporation
// SPDX-License-Identifier: Apache 2.0

package spdm

import (
	"bytes"
	"crypto/x509"
	"fmt"
	"time"

	"github.com/device-attestation/go-spdm/protocol"
	"github.com/device-attestation/go-spdm/wire"
)

// TrustAnchorSet is a read-only collection of DER certificates the caller
// trusts as chain roots.
type TrustAnchorSet struct {
	anchors []*x509.Certificate
}

// NewTrustAnchorSet builds a set from the given certificates.
func NewTrustAnchorSet(certs ...*x509.Certificate) *TrustAnchorSet {
	s := &TrustAnchorSet{}
	for _, c := range certs {
		s.Add(c)
	}
	return s
}

// Add inserts a trust anchor.
func (s *TrustAnchorSet) Add(cert *x509.Certificate) {
	s.anchors = append(s.anchors, cert)
}

// Contains reports whether cert is byte-identical to one of the anchors.
func (s *TrustAnchorSet) Contains(cert *x509.Certificate) bool {
	if s == nil {
		return false
	}
	for _, a := range s.anchors {
		if bytes.Equal(a.Raw, cert.Raw) {
			return true
		}
	}
	return false
}

// Len returns the number of anchors.
func (s *TrustAnchorSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.anchors)
}

// certChainHeaderSize is the envelope preceding the DER certificates in a
// slot's chain: total length, reserved, then the hash of the root
// certificate.
func certChainHeaderSize(hashSize int) int { return 2 + 2 + hashSize }

// EncodeCertChain builds the wire form of a slot's certificate chain:
//
//	Length   uint16  ;; of the entire chain, this header included
//	Reserved uint16
//	RootHash [H]     ;; hash of the first (root) certificate
//	Certificates     ;; concatenated DER, root first, leaf last
func EncodeCertChain(hashAlg protocol.BaseHashAlgo, ders ...[]byte) ([]byte, error) {
	if len(ders) == 0 {
		return nil, fmt.Errorf("empty certificate chain")
	}
	total := certChainHeaderSize(hashAlg.Size())
	for _, der := range ders {
		total += len(der)
	}
	if total > 65536 {
		return nil, ErrCertChainTooLarge
	}
	out := make([]byte, total)
	e := wire.NewEncoder(out)
	e.PutUint16(uint16(total))
	e.PutReserved(2)
	e.PutBytes(hashAlg.Sum(ders[0]))
	for _, der := range ders {
		e.PutBytes(der)
	}
	if err := e.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// parseCertChain validates a retrieved chain envelope and parses its DER
// certificates, root first.
func parseCertChain(data []byte, hashAlg protocol.BaseHashAlgo) ([]*x509.Certificate, error) {
	hdrSize := certChainHeaderSize(hashAlg.Size())
	if len(data) < hdrSize {
		return nil, fmt.Errorf("%w: chain shorter than its header", ErrCertChainInvalid)
	}
	d := wire.NewDecoder(data)
	length := int(d.Uint16())
	d.Skip(2)
	rootHash := d.Bytes(hashAlg.Size())
	if length != len(data) {
		return nil, fmt.Errorf("%w: declared length %d, have %d bytes", ErrCertChainInvalid, length, len(data))
	}
	certs, err := x509.ParseCertificates(data[hdrSize:])
	if err != nil {
		return nil, fmt.Errorf("%w: parsing DER certificates: %v", ErrCertChainInvalid, err)
	}
	if len(certs) == 0 {
		return nil, fmt.Errorf("%w: chain carries no certificates", ErrCertChainInvalid)
	}
	if !bytes.Equal(rootHash, hashAlg.Sum(certs[0].Raw)) {
		return nil, fmt.Errorf("%w: root hash field does not match root certificate", ErrCertChainInvalid)
	}
	return certs, nil
}

// verifyChain checks the root against the trust anchors, then issuer/subject
// chaining, signatures, and validity windows down to the leaf. The chain is
// ordered root first.
func verifyChain(certs []*x509.Certificate, anchors *TrustAnchorSet, now time.Time) error {
	if !anchors.Contains(certs[0]) {
		return ErrUntrustedRoot
	}
	for i, cert := range certs {
		if now.Before(cert.NotBefore) || now.After(cert.NotAfter) {
			return fmt.Errorf("%w: certificate %d not valid at %s", ErrCertChainInvalid, i, now.UTC().Format(time.RFC3339))
		}
		if i == 0 {
			continue
		}
		parent := certs[i-1]
		if !bytes.Equal(cert.RawIssuer, parent.RawSubject) {
			return fmt.Errorf("%w: certificate %d issuer does not match its parent's subject", ErrCertChainInvalid, i)
		}
		if err := cert.CheckSignatureFrom(parent); err != nil {
			return fmt.Errorf("%w: certificate %d signature: %v", ErrCertChainInvalid, i, err)
		}
	}
	return nil
}
