// SPDX-FileCopyrightText: (C) 2024 Intel Corporation
// SPDX-License-Identifier: Apache 2.0

package spdmtest

import (
	"bytes"
	"io"
	"testing"
)

// TestingLog adapts t into an io.Writer for handshake frame logging.
func TestingLog(t *testing.T) io.Writer { return (*frameLog)(t) }

type frameLog testing.T

// Write implements io.Writer.
func (t *frameLog) Write(p []byte) (int, error) {
	(*testing.T)(t).Helper()
	t.Log(string(bytes.TrimSpace(p)))
	return len(p), nil
}
