// SPDX-FileCopyrightText: (C) 2024 Intel Corporation
// SPDX-License-Identifier: Apache 2.0

package spdm_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/device-attestation/go-spdm"
)

func TestSlotTableBounds(t *testing.T) {
	var st spdm.SlotTable
	if _, err := st.Get(0); err != nil {
		t.Fatal(err)
	}
	if _, err := st.Get(spdm.NumSlots); !errors.Is(err, spdm.ErrSlotIndexOutOfRange) {
		t.Fatalf("expected ErrSlotIndexOutOfRange, got %v", err)
	}
	if _, err := st.Get(7); !errors.Is(err, spdm.ErrSlotIndexOutOfRange) {
		t.Fatalf("expected ErrSlotIndexOutOfRange, got %v", err)
	}
}

func TestSlotDigestLifecycle(t *testing.T) {
	var st spdm.SlotTable
	slot, err := st.Get(0)
	if err != nil {
		t.Fatal(err)
	}
	if slot.Occupied() {
		t.Fatal("fresh slot occupied")
	}
	if slot.Digest() != nil {
		t.Fatal("fresh slot has a digest")
	}

	digest := bytes.Repeat([]byte{0xAB}, 48)
	slot.SetDigest(digest)
	if !slot.Occupied() {
		t.Fatal("slot not occupied after SetDigest")
	}
	if !bytes.Equal(slot.Digest(), digest) {
		t.Fatal("digest not stored")
	}

	if err := slot.AppendChain([]byte{1, 2, 3}); err != nil {
		t.Fatal(err)
	}
	// A new digest announcement discards partially retrieved chain bytes.
	slot.SetDigest(digest)
	if slot.ChainLen() != 0 {
		t.Fatal("SetDigest kept stale chain bytes")
	}
}

func TestSlotAppendChain(t *testing.T) {
	var st spdm.SlotTable
	slot, _ := st.Get(0)

	if err := slot.AppendChain(bytes.Repeat([]byte{0x01}, 1000)); err != nil {
		t.Fatal(err)
	}
	if err := slot.AppendChain(bytes.Repeat([]byte{0x02}, spdm.MaxCertChainSize-1000)); err != nil {
		t.Fatal(err)
	}
	if slot.ChainLen() != spdm.MaxCertChainSize {
		t.Fatalf("ChainLen() = %d", slot.ChainLen())
	}

	// The next byte must be rejected without partial append.
	if err := slot.AppendChain([]byte{0x03}); !errors.Is(err, spdm.ErrCertChainTooLarge) {
		t.Fatalf("expected ErrCertChainTooLarge, got %v", err)
	}
	if slot.ChainLen() != spdm.MaxCertChainSize {
		t.Fatal("failed append changed chain length")
	}

	if got := slot.Chain(); got[0] != 0x01 || got[len(got)-1] != 0x02 {
		t.Fatal("chain bytes corrupted")
	}
}

func TestSlotClear(t *testing.T) {
	var st spdm.SlotTable
	slot, _ := st.Get(0)
	slot.SetDigest(bytes.Repeat([]byte{0xCD}, 32))
	if err := slot.AppendChain([]byte{1, 2, 3}); err != nil {
		t.Fatal(err)
	}

	st.Clear()
	if slot.Occupied() || slot.ChainLen() != 0 || slot.Complete() || slot.Leaf() != nil {
		t.Fatal("Clear left slot state behind")
	}
}
