// SPDX-FileCopyrightText: (C) 2024 Intel Corporation
// SPDX-License-Identifier: Apache 2.0

package protocol

import (
	"errors"
	"fmt"

	"github.com/device-attestation/go-spdm/wire"
)

// HeaderSize is the size of the header carried by every SPDM message.
const HeaderSize = 4

// Header errors
var (
	ErrHeaderTooShort  = errors.New("buffer shorter than 4-byte message header")
	ErrVersionMismatch = errors.New("response version does not match negotiated version")
)

// UnexpectedMsgError is returned when a response carries a different code
// than the one the current phase expects.
type UnexpectedMsgError struct {
	Expected uint8
	Got      uint8
}

func (e *UnexpectedMsgError) Error() string {
	return fmt.Sprintf("unexpected message: expected code 0x%02x, got 0x%02x", e.Expected, e.Got)
}

// Header is the fixed 4-byte preamble of every SPDM request and response.
type Header struct {
	Version uint8 // major/minor packed as two nibbles
	Code    uint8
	Param1  uint8
	Param2  uint8
}

// Encode writes the header through e.
func (h Header) Encode(e *wire.Encoder) {
	e.PutUint8(h.Version)
	e.PutUint8(h.Code)
	e.PutUint8(h.Param1)
	e.PutUint8(h.Param2)
}

// DecodeHeader reads a header through d.
func DecodeHeader(d *wire.Decoder) Header {
	return Header{
		Version: d.Uint8(),
		Code:    d.Uint8(),
		Param1:  d.Uint8(),
		Param2:  d.Uint8(),
	}
}

// ParseHeader reports whether buf begins with a header carrying the given
// version and code. It fails with ErrHeaderTooShort when fewer than 4 bytes
// are available. A true result is a hint only: the full message must still
// be validated by its Parse function.
func ParseHeader(buf []byte, version, code uint8) (bool, error) {
	if len(buf) < HeaderSize {
		return false, ErrHeaderTooShort
	}
	return buf[0] == version && buf[1] == code, nil
}

// CheckHeader validates the version and code of a response header,
// distinguishing a version mismatch from an unexpected message code.
func CheckHeader(buf []byte, version, code uint8) error {
	if len(buf) < HeaderSize {
		return ErrHeaderTooShort
	}
	if buf[1] != code {
		return &UnexpectedMsgError{Expected: code, Got: buf[1]}
	}
	if buf[0] != version {
		return ErrVersionMismatch
	}
	return nil
}
