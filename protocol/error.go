// SPDX-FileCopyrightText: (C) 2024 Intel Corporation
// SPDX-License-Identifier: Apache 2.0

package protocol

import (
	"encoding/hex"
	"fmt"

	"github.com/device-attestation/go-spdm/wire"
)

// ResponderCode is the error code of an ERROR response.
type ResponderCode uint8

// Error code values (DSP0274 v1.1 table 23)
const (
	// The request message or one of its fields is malformed.
	//
	// ErrorData: 0
	ErrInvalidRequest ResponderCode = 0x01

	// The responder received the request but cannot service it at this
	// time. The requester may retry.
	//
	// ErrorData: 0
	ErrBusy ResponderCode = 0x03

	// The request arrived out of the order required by the protocol state
	// machine, e.g. CHALLENGE before NEGOTIATE_ALGORITHMS.
	//
	// ErrorData: 0
	ErrUnexpectedRequest ResponderCode = 0x04

	// An unclassified responder-side failure.
	//
	// ErrorData: 0
	ErrUnspecified ResponderCode = 0x05

	// Decryption or verification of a secured message failed. Not expected
	// before session establishment.
	//
	// ErrorData: 0
	ErrDecryptError ResponderCode = 0x06

	// The request code is recognized but not supported by this responder.
	//
	// ErrorData: the offending request code
	ErrUnsupportedRequest ResponderCode = 0x07

	// A request is already being serviced on this connection.
	//
	// ErrorData: 0
	ErrRequestInFlight ResponderCode = 0x08

	// The response to an encapsulated request carried an invalid code.
	//
	// ErrorData: 0
	ErrInvalidResponseCode ResponderCode = 0x09

	// The responder cannot open another session.
	//
	// ErrorData: 0
	ErrSessionLimitExceeded ResponderCode = 0x0A

	// No common major version between requester and responder.
	//
	// ErrorData: 0
	ErrMajorVersionMismatch ResponderCode = 0x41

	// The response is not ready; the requester should poll with
	// RESPOND_IF_READY. The extended data carries the token and timing.
	//
	// ErrorData: the original request code
	ErrResponseNotReady ResponderCode = 0x42

	// The responder lost state and asks the requester to restart the
	// handshake from GET_VERSION.
	//
	// ErrorData: 0
	ErrRequestResynch ResponderCode = 0x43

	// Vendor or standards-body defined error; extended data identifies the
	// registry.
	ErrVendorDefined ResponderCode = 0xFF
)

func (c ResponderCode) String() string {
	switch c {
	case ErrInvalidRequest:
		return "InvalidRequest"
	case ErrBusy:
		return "Busy"
	case ErrUnexpectedRequest:
		return "UnexpectedRequest"
	case ErrUnspecified:
		return "Unspecified"
	case ErrDecryptError:
		return "DecryptError"
	case ErrUnsupportedRequest:
		return "UnsupportedRequest"
	case ErrRequestInFlight:
		return "RequestInFlight"
	case ErrInvalidResponseCode:
		return "InvalidResponseCode"
	case ErrSessionLimitExceeded:
		return "SessionLimitExceeded"
	case ErrMajorVersionMismatch:
		return "MajorVersionMismatch"
	case ErrResponseNotReady:
		return "ResponseNotReady"
	case ErrRequestResynch:
		return "RequestResynch"
	case ErrVendorDefined:
		return "VendorDefined"
	default:
		return fmt.Sprintf("0x%02x", uint8(c))
	}
}

// ErrorMessage is the ERROR response (code 0x7F). It indicates that the
// previous request could not be processed and terminates the handshake; the
// requester state that received it must be dropped.
//
// Param1 carries the error code and Param2 an error-code-specific data
// byte. Some codes append extended error data, which is retained verbatim.
type ErrorMessage struct {
	Code     ResponderCode
	Data     uint8
	Extended []byte
}

// Type returns the response code.
func (ErrorMessage) Type() uint8 { return ErrorCode }

// String implements Stringer.
func (e *ErrorMessage) String() string {
	if len(e.Extended) == 0 {
		return fmt.Sprintf("responder error %s [data=0x%02x]", e.Code, e.Data)
	}
	return fmt.Sprintf("responder error %s [data=0x%02x,extended=%s]",
		e.Code, e.Data, hex.EncodeToString(e.Extended))
}

// Error implements the standard error interface.
func (e *ErrorMessage) Error() string { return e.String() }

// Encode serializes the response into buf, returning the number of bytes
// written.
func (e *ErrorMessage) Encode(version uint8, buf []byte) (int, error) {
	enc := wire.NewEncoder(buf)
	Header{Version: version, Code: ErrorCode, Param1: uint8(e.Code), Param2: e.Data}.Encode(enc)
	enc.PutBytes(e.Extended)
	if err := enc.Err(); err != nil {
		return 0, err
	}
	return enc.Len(), nil
}

// ParseError decodes an ERROR response. The header version byte is not
// checked against the negotiated version: a responder reporting
// MajorVersionMismatch answers with its own version.
func ParseError(buf []byte) (*ErrorMessage, error) {
	if len(buf) < HeaderSize {
		return nil, ErrHeaderTooShort
	}
	if buf[1] != ErrorCode {
		return nil, &UnexpectedMsgError{Expected: ErrorCode, Got: buf[1]}
	}
	e := &ErrorMessage{Code: ResponderCode(buf[2]), Data: buf[3]}
	if rest := buf[HeaderSize:]; len(rest) > 0 {
		e.Extended = append([]byte(nil), rest...)
	}
	return e, nil
}

// IsError reports whether buf begins with an ERROR response header.
func IsError(buf []byte) bool {
	return len(buf) >= HeaderSize && buf[1] == ErrorCode
}
