// SPDX-FileCopyrightText: (C) 2024 Intel Corporation
// SPDX-License-Identifier: Apache 2.0

// Package spdmtest provides an in-memory responder for driving full
// handshakes in tests, directly implementing spdm.Transport with no real
// I/O.
package spdmtest

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"fmt"
	"io"
	"math/big"
	"testing"
	"time"

	"github.com/device-attestation/go-spdm"
	"github.com/device-attestation/go-spdm/protocol"
)

// Responder implements the responder half of the pre-session handshake as
// an spdm.Transport. The zero configuration from New negotiates the highest
// offered version, the strongest common algorithms, and serves a generated
// three-certificate ECDSA chain from slot 0.
type Responder struct {
	// Log receives one line per request and response frame. New wires it to
	// TestingLog; nil disables frame logging.
	Log io.Writer

	Versions   []protocol.VersionNumber
	Flags      protocol.RspFlags
	CTExponent uint8
	HashAlgos  protocol.BaseHashAlgo
	AsymAlgos  protocol.BaseAsymAlgo

	Key   *ecdsa.PrivateKey
	Certs [][]byte // DER, root first, leaf last
	root  *x509.Certificate

	// CorruptChainDigest makes DIGESTS announce a digest that the served
	// chain does not hash to.
	CorruptChainDigest bool

	// CorruptNonce makes CHALLENGE_AUTH echo a nonce differing in one byte.
	CorruptNonce bool

	// ModifyResponse, when set, rewrites every response before it is
	// returned. It sees the request for context.
	ModifyResponse func(req, resp []byte) []byte

	// negotiated state
	hash       protocol.BaseHashAlgo
	asym       protocol.BaseAsymAlgo
	chain      []byte
	transcript bytes.Buffer
}

// New returns a responder with a freshly generated three-certificate ECDSA
// P-256 chain and a capability set sufficient for identity authentication.
func New(t *testing.T) *Responder {
	return NewWithChain(t, elliptic.P256(), protocol.AsymECDSAP256)
}

// NewWithChain returns a responder serving a chain generated on the given
// curve. The advertised signature algorithms must match the leaf key's
// curve, so asym is taken alongside it.
func NewWithChain(t *testing.T, curve elliptic.Curve, asym protocol.BaseAsymAlgo) *Responder {
	t.Helper()
	certs, key, root := GenerateChain(t, curve)
	return &Responder{
		Log:        TestingLog(t),
		Versions:   []protocol.VersionNumber{protocol.Version10, protocol.Version11, protocol.Version12},
		Flags:      protocol.RspCertCap | protocol.RspChalCap | protocol.RspMeasCapSig | protocol.RspMeasFreshCap,
		CTExponent: 10,
		HashAlgos:  protocol.HashSHA256 | protocol.HashSHA384 | protocol.HashSHA512,
		AsymAlgos:  asym,
		Key:        key,
		Certs:      certs,
		root:       root,
	}
}

// Root returns the chain's root certificate for use as a trust anchor.
func (r *Responder) Root() *x509.Certificate { return r.root }

// Anchors returns a trust anchor set holding the chain root.
func (r *Responder) Anchors() *spdm.TrustAnchorSet {
	return spdm.NewTrustAnchorSet(r.root)
}

// Chain returns the wire form of the served certificate chain. It is only
// available once algorithms have been negotiated.
func (r *Responder) Chain() []byte { return r.chain }

// Transcript returns the responder's view of the handshake transcript:
// every accepted request and every response it produced, in order.
func (r *Responder) Transcript() []byte { return r.transcript.Bytes() }

// ChainDigest returns the digest DIGESTS announces for slot 0.
func (r *Responder) ChainDigest() []byte {
	digest := r.hash.Sum(r.chain)
	if r.CorruptChainDigest {
		digest[0] ^= 0xFF
	}
	return digest
}

// Send implements spdm.Transport.
func (r *Responder) Send(ctx context.Context, req []byte) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	if len(req) < protocol.HeaderSize {
		return nil, fmt.Errorf("request shorter than header: %d bytes", len(req))
	}
	if r.Log != nil {
		fmt.Fprintf(r.Log, "request  %02x: % x\n", req[1], req)
	}

	resp, err := r.respond(req)
	if err != nil {
		return nil, err
	}
	if r.ModifyResponse != nil {
		resp = r.ModifyResponse(req, resp)
	}
	if r.Log != nil {
		fmt.Fprintf(r.Log, "response %02x: % x\n", resp[1], resp)
	}
	return resp, nil
}

func (r *Responder) respond(req []byte) ([]byte, error) {
	version := req[0]
	buf := make([]byte, 4096)

	switch req[1] {
	case protocol.GetVersionCode:
		if _, err := protocol.ParseGetVersion(req); err != nil {
			return nil, err
		}
		// GET_VERSION resets all handshake state.
		r.transcript.Reset()
		r.transcript.Write(req)
		n, err := protocol.Version{Entries: r.Versions}.Encode(buf)
		if err != nil {
			return nil, err
		}
		r.transcript.Write(buf[:n])
		return buf[:n], nil

	case protocol.GetCapabilitiesCode:
		if _, err := protocol.ParseGetCapabilities(req, version); err != nil {
			return nil, err
		}
		r.transcript.Write(req)
		n, err := protocol.Capabilities{CTExponent: r.CTExponent, Flags: r.Flags}.Encode(version, buf)
		if err != nil {
			return nil, err
		}
		r.transcript.Write(buf[:n])
		return buf[:n], nil

	case protocol.NegotiateAlgorithmsCode:
		msg, err := protocol.ParseNegotiateAlgorithms(req, version)
		if err != nil {
			return nil, err
		}
		r.transcript.Write(req)
		r.hash = protocol.StrongestCommonHash(msg.BaseHashAlgos, r.HashAlgos)
		r.asym = protocol.StrongestCommonAsym(msg.BaseAsymAlgos, r.AsymAlgos)
		if r.hash == 0 || r.asym == 0 {
			return r.errorResponse(version, protocol.ErrInvalidRequest, 0)
		}
		r.chain, err = spdm.EncodeCertChain(r.hash, r.Certs...)
		if err != nil {
			return nil, err
		}
		var structs []protocol.AlgStruct
		for _, offered := range msg.AlgStructs {
			// Select the lowest offered bit of each structure.
			structs = append(structs, protocol.AlgStruct{
				Type:      offered.Type,
				Supported: offered.Supported & -offered.Supported,
			})
		}
		n, err := protocol.Algorithms{
			MeasurementSpecSel:  msg.MeasurementSpecs & protocol.MeasurementSpecDMTF,
			MeasurementHashAlgo: protocol.MeasurementHashFor(r.hash),
			BaseAsymSel:         r.asym,
			BaseHashSel:         r.hash,
			AlgStructs:          structs,
		}.Encode(version, buf)
		if err != nil {
			return nil, err
		}
		r.transcript.Write(buf[:n])
		return buf[:n], nil

	case protocol.GetDigestsCode:
		if _, err := protocol.ParseGetDigests(req, version); err != nil {
			return nil, err
		}
		r.transcript.Write(req)
		n, err := protocol.Digests{
			SlotMask: 0x01,
			Digests:  [][]byte{r.ChainDigest()},
		}.Encode(version, buf)
		if err != nil {
			return nil, err
		}
		r.transcript.Write(buf[:n])
		return buf[:n], nil

	case protocol.GetCertificateCode:
		msg, err := protocol.ParseGetCertificate(req, version)
		if err != nil {
			return nil, err
		}
		if msg.Slot != 0 || int(msg.Offset) > len(r.chain) {
			return r.errorResponse(version, protocol.ErrInvalidRequest, 0)
		}
		r.transcript.Write(req)
		portion := r.chain[msg.Offset:]
		if len(portion) > int(msg.Length) {
			portion = portion[:msg.Length]
		}
		remainder := len(r.chain) - int(msg.Offset) - len(portion)
		n, err := protocol.Certificate{
			Slot:            msg.Slot,
			RemainderLength: uint16(remainder),
			Portion:         portion,
		}.Encode(version, buf)
		if err != nil {
			return nil, err
		}
		r.transcript.Write(buf[:n])
		return buf[:n], nil

	case protocol.ChallengeCode:
		msg, err := protocol.ParseChallenge(req, version)
		if err != nil {
			return nil, err
		}
		if msg.Slot != 0 {
			return r.errorResponse(version, protocol.ErrInvalidRequest, 0)
		}
		r.transcript.Write(req)
		auth := protocol.ChallengeAuth{
			Slot:          msg.Slot,
			SlotMask:      1 << msg.Slot,
			CertChainHash: r.ChainDigest(),
			Nonce:         msg.Nonce,
		}
		if r.CorruptNonce {
			auth.Nonce[0] ^= 0x01
		}
		if msg.SummaryType != protocol.SummaryNone && r.Flags.MeasCap() != 0 {
			auth.MeasurementSummaryHash = r.hash.Sum([]byte("measurement summary"))
		}
		auth.OpaqueData = []byte("spdmtest responder")

		// Sign the transcript including this message up to the signature.
		n, err := auth.Encode(version, buf)
		if err != nil {
			return nil, err
		}
		h := r.hash.New()
		h.Write(r.transcript.Bytes())
		h.Write(buf[:n])
		sig, err := r.sign(h.Sum(nil))
		if err != nil {
			return nil, err
		}
		auth.Signature = sig
		n, err = auth.Encode(version, buf)
		if err != nil {
			return nil, err
		}
		r.transcript.Write(buf[:n])
		return buf[:n], nil
	}

	return r.errorResponse(version, protocol.ErrUnsupportedRequest, req[1])
}

// sign produces the fixed-width r||s signature format.
func (r *Responder) sign(digest []byte) ([]byte, error) {
	ri, si, err := ecdsa.Sign(rand.Reader, r.Key, digest)
	if err != nil {
		return nil, err
	}
	half := r.asym.SignatureSize() / 2
	sig := make([]byte, 2*half)
	ri.FillBytes(sig[:half])
	si.FillBytes(sig[half:])
	return sig, nil
}

func (r *Responder) errorResponse(version uint8, code protocol.ResponderCode, data uint8) ([]byte, error) {
	buf := make([]byte, 16)
	msg := &protocol.ErrorMessage{Code: code, Data: data}
	n, err := msg.Encode(version, buf)
	if err != nil {
		return nil, err
	}
	return buf[:n], nil
}

// GenerateChain creates a throwaway root CA, intermediate CA, and leaf on
// the given curve, returning the DER chain root first, the leaf private
// key, and the parsed root certificate.
func GenerateChain(t *testing.T, curve elliptic.Curve) ([][]byte, *ecdsa.PrivateKey, *x509.Certificate) {
	t.Helper()

	rootKey, err := ecdsa.GenerateKey(curve, rand.Reader)
	if err != nil {
		t.Fatalf("generating root key: %v", err)
	}
	intKey, err := ecdsa.GenerateKey(curve, rand.Reader)
	if err != nil {
		t.Fatalf("generating intermediate key: %v", err)
	}
	leafKey, err := ecdsa.GenerateKey(curve, rand.Reader)
	if err != nil {
		t.Fatalf("generating leaf key: %v", err)
	}

	notBefore := time.Now().Add(-time.Hour)
	notAfter := time.Now().Add(24 * time.Hour)

	rootTmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "spdmtest root"},
		NotBefore:             notBefore,
		NotAfter:              notAfter,
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageDigitalSignature,
		BasicConstraintsValid: true,
		IsCA:                  true,
	}
	rootDER, err := x509.CreateCertificate(rand.Reader, rootTmpl, rootTmpl, &rootKey.PublicKey, rootKey)
	if err != nil {
		t.Fatalf("creating root certificate: %v", err)
	}
	rootCert, err := x509.ParseCertificate(rootDER)
	if err != nil {
		t.Fatalf("parsing root certificate: %v", err)
	}

	intTmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(2),
		Subject:               pkix.Name{CommonName: "spdmtest intermediate"},
		NotBefore:             notBefore,
		NotAfter:              notAfter,
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageDigitalSignature,
		BasicConstraintsValid: true,
		IsCA:                  true,
	}
	intDER, err := x509.CreateCertificate(rand.Reader, intTmpl, rootCert, &intKey.PublicKey, rootKey)
	if err != nil {
		t.Fatalf("creating intermediate certificate: %v", err)
	}
	intCert, err := x509.ParseCertificate(intDER)
	if err != nil {
		t.Fatalf("parsing intermediate certificate: %v", err)
	}

	leafTmpl := &x509.Certificate{
		SerialNumber: big.NewInt(3),
		Subject:      pkix.Name{CommonName: "spdmtest responder"},
		NotBefore:    notBefore,
		NotAfter:     notAfter,
		KeyUsage:     x509.KeyUsageDigitalSignature,
	}
	leafDER, err := x509.CreateCertificate(rand.Reader, leafTmpl, intCert, &leafKey.PublicKey, intKey)
	if err != nil {
		t.Fatalf("creating leaf certificate: %v", err)
	}

	return [][]byte{rootDER, intDER, leafDER}, leafKey, rootCert
}
