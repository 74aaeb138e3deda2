// SPDX-FileCopyrightText: (C) 2024 Intel Corporation
// SPDX-License-Identifier: Apache 2.0

// Package wire implements the little-endian binary primitives shared by all
// SPDM message codecs.
//
// Every multi-byte integer on the SPDM wire is little-endian. Encoders write
// into caller-provided buffers and never allocate; decoders consume a single
// message from a buffer and report leftover bytes as an error. Both carry a
// sticky error so a message codec can chain field operations and check the
// error once at the end.
package wire

import "errors"

// Codec errors
var (
	ErrBufferTooSmall       = errors.New("buffer too small for encoded message")
	ErrPayloadTooShort      = errors.New("payload too short")
	ErrTrailingBytes        = errors.New("unexpected trailing bytes after message")
	ErrReservedFieldNonzero = errors.New("reserved field is nonzero")
)

// Encoder appends little-endian fields to a fixed caller-provided buffer.
type Encoder struct {
	buf []byte
	off int
	err error
}

// NewEncoder returns an encoder writing into buf starting at offset 0.
func NewEncoder(buf []byte) *Encoder {
	return &Encoder{buf: buf}
}

func (e *Encoder) grow(n int) []byte {
	if e.err != nil {
		return nil
	}
	if e.off+n > len(e.buf) {
		e.err = ErrBufferTooSmall
		return nil
	}
	b := e.buf[e.off : e.off+n]
	e.off += n
	return b
}

// PutUint8 writes a single byte.
func (e *Encoder) PutUint8(v uint8) {
	if b := e.grow(1); b != nil {
		b[0] = v
	}
}

// PutUint16 writes v in little-endian byte order.
func (e *Encoder) PutUint16(v uint16) {
	if b := e.grow(2); b != nil {
		b[0] = byte(v)
		b[1] = byte(v >> 8)
	}
}

// PutUint32 writes v in little-endian byte order.
func (e *Encoder) PutUint32(v uint32) {
	if b := e.grow(4); b != nil {
		b[0] = byte(v)
		b[1] = byte(v >> 8)
		b[2] = byte(v >> 16)
		b[3] = byte(v >> 24)
	}
}

// PutBytes writes p verbatim.
func (e *Encoder) PutBytes(p []byte) {
	if b := e.grow(len(p)); b != nil {
		copy(b, p)
	}
}

// PutReserved writes n zero bytes.
func (e *Encoder) PutReserved(n int) {
	if b := e.grow(n); b != nil {
		for i := range b {
			b[i] = 0
		}
	}
}

// Len returns the number of bytes written so far.
func (e *Encoder) Len() int { return e.off }

// Err returns the first error encountered while encoding, if any.
func (e *Encoder) Err() error { return e.err }

// Decoder consumes little-endian fields from a buffer.
type Decoder struct {
	buf []byte
	off int
	err error
}

// NewDecoder returns a decoder reading from buf starting at offset 0.
func NewDecoder(buf []byte) *Decoder {
	return &Decoder{buf: buf}
}

func (d *Decoder) take(n int) []byte {
	if d.err != nil {
		return nil
	}
	if d.off+n > len(d.buf) {
		d.err = ErrPayloadTooShort
		return nil
	}
	b := d.buf[d.off : d.off+n]
	d.off += n
	return b
}

// Uint8 reads a single byte.
func (d *Decoder) Uint8() uint8 {
	if b := d.take(1); b != nil {
		return b[0]
	}
	return 0
}

// Uint16 reads a little-endian uint16.
func (d *Decoder) Uint16() uint16 {
	if b := d.take(2); b != nil {
		return uint16(b[0]) | uint16(b[1])<<8
	}
	return 0
}

// Uint32 reads a little-endian uint32.
func (d *Decoder) Uint32() uint32 {
	if b := d.take(4); b != nil {
		return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
	}
	return 0
}

// Bytes reads the next n bytes. The returned slice aliases the decoder's
// buffer and must be copied if retained.
func (d *Decoder) Bytes(n int) []byte {
	return d.take(n)
}

// Reserved reads n bytes and fails with ErrReservedFieldNonzero unless all
// are zero.
func (d *Decoder) Reserved(n int) {
	b := d.take(n)
	if b == nil {
		return
	}
	for _, v := range b {
		if v != 0 {
			d.err = ErrReservedFieldNonzero
			return
		}
	}
}

// Skip advances past n bytes without inspecting them.
func (d *Decoder) Skip(n int) { d.take(n) }

// Remaining returns the number of unread bytes.
func (d *Decoder) Remaining() int {
	if n := len(d.buf) - d.off; n > 0 {
		return n
	}
	return 0
}

// Offset returns the number of bytes consumed so far.
func (d *Decoder) Offset() int { return d.off }

// Err returns the first error encountered while decoding, if any.
func (d *Decoder) Err() error { return d.err }

// Finish returns the sticky error, or ErrTrailingBytes if the buffer was not
// fully consumed.
func (d *Decoder) Finish() error {
	if d.err != nil {
		return d.err
	}
	if d.off != len(d.buf) {
		return ErrTrailingBytes
	}
	return nil
}
