// SPDX-FileCopyrightText: (C) 2024 Intel Corporation
// SPDX-License-Identifier: Apache 2.0

package wire_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/device-attestation/go-spdm/wire"
)

func TestEncoderLittleEndian(t *testing.T) {
	buf := make([]byte, 16)
	e := wire.NewEncoder(buf)
	e.PutUint8(0x11)
	e.PutUint16(0x2233)
	e.PutUint32(0x44556677)
	e.PutReserved(2)
	e.PutBytes([]byte{0xAA, 0xBB})
	if err := e.Err(); err != nil {
		t.Fatal(err)
	}

	expect := []byte{0x11, 0x33, 0x22, 0x77, 0x66, 0x55, 0x44, 0x00, 0x00, 0xAA, 0xBB}
	if !bytes.Equal(buf[:e.Len()], expect) {
		t.Fatalf("encoded % x, expected % x", buf[:e.Len()], expect)
	}
}

func TestEncoderBufferTooSmall(t *testing.T) {
	e := wire.NewEncoder(make([]byte, 3))
	e.PutUint16(0x0102)
	e.PutUint32(0x03040506)
	e.PutUint8(0xFF) // must not panic after the error
	if err := e.Err(); !errors.Is(err, wire.ErrBufferTooSmall) {
		t.Fatalf("expected ErrBufferTooSmall, got %v", err)
	}
	if e.Len() != 2 {
		t.Fatalf("expected 2 bytes written before failure, got %d", e.Len())
	}
}

func TestDecoderRoundTrip(t *testing.T) {
	buf := make([]byte, 16)
	e := wire.NewEncoder(buf)
	e.PutUint8(0x01)
	e.PutUint16(0xBEEF)
	e.PutUint32(0xDEADBEEF)
	e.PutReserved(3)
	e.PutBytes([]byte("ab"))
	if err := e.Err(); err != nil {
		t.Fatal(err)
	}

	d := wire.NewDecoder(buf[:e.Len()])
	if got := d.Uint8(); got != 0x01 {
		t.Errorf("Uint8() = %#x", got)
	}
	if got := d.Uint16(); got != 0xBEEF {
		t.Errorf("Uint16() = %#x", got)
	}
	if got := d.Uint32(); got != 0xDEADBEEF {
		t.Errorf("Uint32() = %#x", got)
	}
	d.Reserved(3)
	if got := d.Bytes(2); !bytes.Equal(got, []byte("ab")) {
		t.Errorf("Bytes(2) = %q", got)
	}
	if err := d.Finish(); err != nil {
		t.Fatal(err)
	}
}

func TestDecoderErrors(t *testing.T) {
	t.Run("payload too short", func(t *testing.T) {
		d := wire.NewDecoder([]byte{0x01, 0x02})
		d.Uint32()
		if err := d.Finish(); !errors.Is(err, wire.ErrPayloadTooShort) {
			t.Fatalf("expected ErrPayloadTooShort, got %v", err)
		}
	})

	t.Run("trailing bytes", func(t *testing.T) {
		d := wire.NewDecoder([]byte{0x01, 0x02, 0x03})
		d.Uint16()
		if err := d.Finish(); !errors.Is(err, wire.ErrTrailingBytes) {
			t.Fatalf("expected ErrTrailingBytes, got %v", err)
		}
	})

	t.Run("reserved field nonzero", func(t *testing.T) {
		d := wire.NewDecoder([]byte{0x00, 0x05})
		d.Reserved(2)
		if err := d.Finish(); !errors.Is(err, wire.ErrReservedFieldNonzero) {
			t.Fatalf("expected ErrReservedFieldNonzero, got %v", err)
		}
	})

	t.Run("error is sticky", func(t *testing.T) {
		d := wire.NewDecoder([]byte{0xFF})
		d.Reserved(1)
		first := d.Err()
		d.Uint32() // would be ErrPayloadTooShort if not sticky
		if !errors.Is(d.Err(), first) {
			t.Fatalf("error changed from %v to %v", first, d.Err())
		}
	})
}

func TestDecoderRemaining(t *testing.T) {
	d := wire.NewDecoder([]byte{1, 2, 3, 4, 5})
	if d.Remaining() != 5 || d.Offset() != 0 {
		t.Fatalf("fresh decoder: remaining %d, offset %d", d.Remaining(), d.Offset())
	}
	d.Uint16()
	if d.Remaining() != 3 || d.Offset() != 2 {
		t.Fatalf("after Uint16: remaining %d, offset %d", d.Remaining(), d.Offset())
	}
	d.Skip(3)
	if d.Remaining() != 0 {
		t.Fatalf("after Skip: remaining %d", d.Remaining())
	}
}
