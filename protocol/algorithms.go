// SPDX-FileCopyrightText: (C) 2024 Intel Corporation
// SPDX-License-Identifier: Apache 2.0

package protocol

import (
	"errors"
	"fmt"

	"github.com/device-attestation/go-spdm/wire"
)

// MeasurementSpec is the measurement specification bit-set. Only the DMTF
// specification is defined by DSP0274.
type MeasurementSpec uint8

// Measurement specifications
const (
	MeasurementSpecDMTF MeasurementSpec = 1 << 0
)

// BaseAsymAlgo is the base asymmetric signature algorithm bit-set
// (DSP0274 v1.1 table 13). A selection holds exactly one bit.
type BaseAsymAlgo uint32

// Base asymmetric signature algorithms
const (
	AsymRSASSA2048 BaseAsymAlgo = 1 << 0
	AsymRSAPSS2048 BaseAsymAlgo = 1 << 1
	AsymRSASSA3072 BaseAsymAlgo = 1 << 2
	AsymRSAPSS3072 BaseAsymAlgo = 1 << 3
	AsymECDSAP256  BaseAsymAlgo = 1 << 4
	AsymRSASSA4096 BaseAsymAlgo = 1 << 5
	AsymRSAPSS4096 BaseAsymAlgo = 1 << 6
	AsymECDSAP384  BaseAsymAlgo = 1 << 7
	AsymECDSAP521  BaseAsymAlgo = 1 << 8
)

func (a BaseAsymAlgo) String() string {
	switch a {
	case AsymRSASSA2048:
		return "RSASSA-2048"
	case AsymRSAPSS2048:
		return "RSAPSS-2048"
	case AsymRSASSA3072:
		return "RSASSA-3072"
	case AsymRSAPSS3072:
		return "RSAPSS-3072"
	case AsymECDSAP256:
		return "ECDSA-P256"
	case AsymRSASSA4096:
		return "RSASSA-4096"
	case AsymRSAPSS4096:
		return "RSAPSS-4096"
	case AsymECDSAP384:
		return "ECDSA-P384"
	case AsymECDSAP521:
		return "ECDSA-P521"
	}
	return "unknown"
}

// IsSingle reports whether exactly one algorithm bit is set.
func (a BaseAsymAlgo) IsSingle() bool {
	return a != 0 && a&(a-1) == 0
}

// SignatureSize returns the wire size in bytes of a signature produced by
// the selected algorithm, or 0 for an unknown selection. ECDSA signatures
// are the raw concatenation r||s.
func (a BaseAsymAlgo) SignatureSize() int {
	switch a {
	case AsymRSASSA2048, AsymRSAPSS2048:
		return 256
	case AsymRSASSA3072, AsymRSAPSS3072:
		return 384
	case AsymRSASSA4096, AsymRSAPSS4096:
		return 512
	case AsymECDSAP256:
		return 64
	case AsymECDSAP384:
		return 96
	case AsymECDSAP521:
		return 132
	}
	return 0
}

// asymPreference orders signature algorithms strongest first.
var asymPreference = []BaseAsymAlgo{
	AsymECDSAP521, AsymECDSAP384, AsymECDSAP256,
	AsymRSAPSS4096, AsymRSASSA4096,
	AsymRSAPSS3072, AsymRSASSA3072,
	AsymRSAPSS2048, AsymRSASSA2048,
}

// StrongestCommonAsym returns the preferred algorithm present in both
// offers, or 0 if the offers do not intersect.
func StrongestCommonAsym(a, b BaseAsymAlgo) BaseAsymAlgo {
	common := a & b
	for _, alg := range asymPreference {
		if common&alg != 0 {
			return alg
		}
	}
	return 0
}

// MeasurementHashAlgo is the measurement hash bit-set carried in the
// ALGORITHMS response. Bit 0 selects raw bit-stream measurements; the
// remaining bits mirror BaseHashAlgo shifted left by one.
type MeasurementHashAlgo uint32

// MeasHashRaw selects raw bit-stream measurement blocks.
const MeasHashRaw MeasurementHashAlgo = 1 << 0

// MeasurementHashFor maps a base hash selection to its measurement hash bit.
func MeasurementHashFor(h BaseHashAlgo) MeasurementHashAlgo {
	return MeasurementHashAlgo(h) << 1
}

// AlgType identifies a negotiable algorithm class carried in an
// AlgStructure entry.
type AlgType uint8

// Algorithm structure types (DSP0274 v1.1 table 17)
const (
	AlgTypeDHE         AlgType = 2
	AlgTypeAEAD        AlgType = 3
	AlgTypeReqBaseAsym AlgType = 4
	AlgTypeKeySchedule AlgType = 5
)

func (t AlgType) String() string {
	switch t {
	case AlgTypeDHE:
		return "DHE"
	case AlgTypeAEAD:
		return "AEAD"
	case AlgTypeReqBaseAsym:
		return "ReqBaseAsym"
	case AlgTypeKeySchedule:
		return "KeySchedule"
	}
	return "unknown"
}

// DHE group bits
const (
	DHEFFDHE2048 uint16 = 1 << 0
	DHEFFDHE3072 uint16 = 1 << 1
	DHEFFDHE4096 uint16 = 1 << 2
	DHESecP256R1 uint16 = 1 << 3
	DHESecP384R1 uint16 = 1 << 4
	DHESecP521R1 uint16 = 1 << 5
)

// AEAD cipher suite bits
const (
	AEADAES128GCM        uint16 = 1 << 0
	AEADAES256GCM        uint16 = 1 << 1
	AEADChaCha20Poly1305 uint16 = 1 << 2
)

// Key schedule bits
const (
	KeyScheduleSPDM uint16 = 1 << 0
)

// AlgStruct is one AlgStructure entry of NEGOTIATE_ALGORITHMS or ALGORITHMS.
// Extended algorithms within an entry are parsed but not retained.
type AlgStruct struct {
	Type      AlgType
	Supported uint16
}

const algStructFixedWidth = 2 // bytes of the AlgSupported field

func (s AlgStruct) encode(e *wire.Encoder) {
	e.PutUint8(uint8(s.Type))
	e.PutUint8(algStructFixedWidth << 4) // no extended algorithms
	e.PutUint16(s.Supported)
}

func decodeAlgStruct(d *wire.Decoder) AlgStruct {
	s := AlgStruct{Type: AlgType(d.Uint8())}
	algCount := d.Uint8()
	if fixed := int(algCount >> 4); fixed == algStructFixedWidth {
		s.Supported = d.Uint16()
	} else {
		d.Skip(fixed)
	}
	d.Skip(4 * int(algCount&0xF)) // extended algorithm entries
	return s
}

func (s AlgStruct) wireSize() int { return 2 + algStructFixedWidth }

// ExtAlg is an extended (registry-scoped) algorithm descriptor.
type ExtAlg struct {
	Registry uint8
	ID       uint16
}

func (a ExtAlg) encode(e *wire.Encoder) {
	e.PutUint8(a.Registry)
	e.PutReserved(1)
	e.PutUint16(a.ID)
}

func decodeExtAlg(d *wire.Decoder) ExtAlg {
	a := ExtAlg{Registry: d.Uint8()}
	d.Skip(1)
	a.ID = d.Uint16()
	return a
}

// MaxExtAlgs bounds the extended algorithm lists of either message.
const MaxExtAlgs = 8

// MaxAlgStructs bounds the AlgStructure list of either message.
const MaxAlgStructs = 4

// ErrTooManyAlgorithms is returned when an algorithm list exceeds its bound.
var ErrTooManyAlgorithms = errors.New("algorithm list exceeds limit")

// NegotiateAlgorithms is the NEGOTIATE_ALGORITHMS request advertising every
// algorithm the requester supports.
type NegotiateAlgorithms struct {
	MeasurementSpecs MeasurementSpec
	BaseAsymAlgos    BaseAsymAlgo
	BaseHashAlgos    BaseHashAlgo
	ExtAsym          []ExtAlg
	ExtHash          []ExtAlg
	AlgStructs       []AlgStruct
}

// Type returns the request code.
func (NegotiateAlgorithms) Type() uint8 { return NegotiateAlgorithmsCode }

func (m NegotiateAlgorithms) wireSize() int {
	n := HeaderSize + 2 + 1 + 1 + 4 + 4 + 12 + 1 + 1 + 2
	n += 4 * (len(m.ExtAsym) + len(m.ExtHash))
	for _, s := range m.AlgStructs {
		n += s.wireSize()
	}
	return n
}

// Encode serializes the request into buf, returning the number of bytes
// written.
func (m NegotiateAlgorithms) Encode(version uint8, buf []byte) (int, error) {
	if len(m.ExtAsym) > MaxExtAlgs || len(m.ExtHash) > MaxExtAlgs || len(m.AlgStructs) > MaxAlgStructs {
		return 0, ErrTooManyAlgorithms
	}
	e := wire.NewEncoder(buf)
	Header{
		Version: version,
		Code:    NegotiateAlgorithmsCode,
		Param1:  uint8(len(m.AlgStructs)),
	}.Encode(e)
	e.PutUint16(uint16(m.wireSize()))
	e.PutUint8(uint8(m.MeasurementSpecs))
	e.PutReserved(1)
	e.PutUint32(uint32(m.BaseAsymAlgos))
	e.PutUint32(uint32(m.BaseHashAlgos))
	e.PutReserved(12)
	e.PutUint8(uint8(len(m.ExtAsym)))
	e.PutUint8(uint8(len(m.ExtHash)))
	e.PutReserved(2)
	for _, a := range m.ExtAsym {
		a.encode(e)
	}
	for _, a := range m.ExtHash {
		a.encode(e)
	}
	for _, s := range m.AlgStructs {
		s.encode(e)
	}
	if err := e.Err(); err != nil {
		return 0, err
	}
	return e.Len(), nil
}

// ParseNegotiateAlgorithms validates and decodes a NEGOTIATE_ALGORITHMS
// request.
func ParseNegotiateAlgorithms(buf []byte, version uint8) (NegotiateAlgorithms, error) {
	if err := CheckHeader(buf, version, NegotiateAlgorithmsCode); err != nil {
		return NegotiateAlgorithms{}, err
	}
	numStructs := int(buf[2])
	d := wire.NewDecoder(buf)
	d.Skip(HeaderSize)
	length := int(d.Uint16())
	var m NegotiateAlgorithms
	m.MeasurementSpecs = MeasurementSpec(d.Uint8())
	d.Reserved(1)
	m.BaseAsymAlgos = BaseAsymAlgo(d.Uint32())
	m.BaseHashAlgos = BaseHashAlgo(d.Uint32())
	d.Reserved(12)
	extAsymCount := int(d.Uint8())
	extHashCount := int(d.Uint8())
	d.Reserved(2)
	if err := d.Err(); err != nil {
		return NegotiateAlgorithms{}, err
	}
	if extAsymCount > MaxExtAlgs || extHashCount > MaxExtAlgs || numStructs > MaxAlgStructs {
		return NegotiateAlgorithms{}, ErrTooManyAlgorithms
	}
	for i := 0; i < extAsymCount; i++ {
		m.ExtAsym = append(m.ExtAsym, decodeExtAlg(d))
	}
	for i := 0; i < extHashCount; i++ {
		m.ExtHash = append(m.ExtHash, decodeExtAlg(d))
	}
	for i := 0; i < numStructs; i++ {
		m.AlgStructs = append(m.AlgStructs, decodeAlgStruct(d))
	}
	if err := d.Finish(); err != nil {
		return NegotiateAlgorithms{}, err
	}
	if length != len(buf) {
		return NegotiateAlgorithms{}, fmt.Errorf("declared length %d does not match message length %d", length, len(buf))
	}
	return m, nil
}

// Algorithms is the ALGORITHMS response fixing the responder's selection.
type Algorithms struct {
	MeasurementSpecSel  MeasurementSpec
	MeasurementHashAlgo MeasurementHashAlgo
	BaseAsymSel         BaseAsymAlgo
	BaseHashSel         BaseHashAlgo
	ExtAsymSel          []ExtAlg
	ExtHashSel          []ExtAlg
	AlgStructs          []AlgStruct
}

// Type returns the response code.
func (Algorithms) Type() uint8 { return AlgorithmsCode }

func (m Algorithms) wireSize() int {
	n := HeaderSize + 2 + 1 + 1 + 4 + 4 + 4 + 12 + 1 + 1 + 2
	n += 4 * (len(m.ExtAsymSel) + len(m.ExtHashSel))
	for _, s := range m.AlgStructs {
		n += s.wireSize()
	}
	return n
}

// Encode serializes the response into buf, returning the number of bytes
// written.
func (m Algorithms) Encode(version uint8, buf []byte) (int, error) {
	if len(m.ExtAsymSel) > MaxExtAlgs || len(m.ExtHashSel) > MaxExtAlgs || len(m.AlgStructs) > MaxAlgStructs {
		return 0, ErrTooManyAlgorithms
	}
	e := wire.NewEncoder(buf)
	Header{
		Version: version,
		Code:    AlgorithmsCode,
		Param1:  uint8(len(m.AlgStructs)),
	}.Encode(e)
	e.PutUint16(uint16(m.wireSize()))
	e.PutUint8(uint8(m.MeasurementSpecSel))
	e.PutReserved(1)
	e.PutUint32(uint32(m.MeasurementHashAlgo))
	e.PutUint32(uint32(m.BaseAsymSel))
	e.PutUint32(uint32(m.BaseHashSel))
	e.PutReserved(12)
	e.PutUint8(uint8(len(m.ExtAsymSel)))
	e.PutUint8(uint8(len(m.ExtHashSel)))
	e.PutReserved(2)
	for _, a := range m.ExtAsymSel {
		a.encode(e)
	}
	for _, a := range m.ExtHashSel {
		a.encode(e)
	}
	for _, s := range m.AlgStructs {
		s.encode(e)
	}
	if err := e.Err(); err != nil {
		return 0, err
	}
	return e.Len(), nil
}

// ParseAlgorithms validates and decodes an ALGORITHMS response.
func ParseAlgorithms(buf []byte, version uint8) (Algorithms, error) {
	if err := CheckHeader(buf, version, AlgorithmsCode); err != nil {
		return Algorithms{}, err
	}
	numStructs := int(buf[2])
	d := wire.NewDecoder(buf)
	d.Skip(HeaderSize)
	length := int(d.Uint16())
	var m Algorithms
	m.MeasurementSpecSel = MeasurementSpec(d.Uint8())
	d.Reserved(1)
	m.MeasurementHashAlgo = MeasurementHashAlgo(d.Uint32())
	m.BaseAsymSel = BaseAsymAlgo(d.Uint32())
	m.BaseHashSel = BaseHashAlgo(d.Uint32())
	d.Reserved(12)
	extAsymCount := int(d.Uint8())
	extHashCount := int(d.Uint8())
	d.Reserved(2)
	if err := d.Err(); err != nil {
		return Algorithms{}, err
	}
	if extAsymCount > MaxExtAlgs || extHashCount > MaxExtAlgs || numStructs > MaxAlgStructs {
		return Algorithms{}, ErrTooManyAlgorithms
	}
	for i := 0; i < extAsymCount; i++ {
		m.ExtAsymSel = append(m.ExtAsymSel, decodeExtAlg(d))
	}
	for i := 0; i < extHashCount; i++ {
		m.ExtHashSel = append(m.ExtHashSel, decodeExtAlg(d))
	}
	for i := 0; i < numStructs; i++ {
		m.AlgStructs = append(m.AlgStructs, decodeAlgStruct(d))
	}
	if err := d.Finish(); err != nil {
		return Algorithms{}, err
	}
	if length != len(buf) {
		return Algorithms{}, fmt.Errorf("declared length %d does not match message length %d", length, len(buf))
	}
	return m, nil
}
