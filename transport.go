// SPDX-FileCopyrightText: (C) 2024 Intel Corporation
// SPDX-License-Identifier: Apache 2.0

package spdm

import "context"

// Transport abstracts the underlying MCTP/PCIe DOE/serial transport for
// sending one request frame and receiving its response frame. The core
// never performs I/O itself; implementations own framing, timeouts, and
// retries below the message layer.
type Transport interface {
	// Send dispatches an encoded request and returns the encoded response.
	Send(ctx context.Context, req []byte) ([]byte, error)
}
