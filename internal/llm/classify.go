package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"syscall"
)

// classifyTransportError maps an error from the HTTP round trip to a failure class.
// Timeouts are checked first because url.Error wraps both timeouts and dial errors.
func classifyTransportError(err error) FailureClass {
	if errors.Is(err, context.DeadlineExceeded) {
		return FailureTimeout
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return FailureTimeout
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return FailureConnectivity
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return FailureConnectivity
	}

	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) {
		return FailureConnectivity
	}

	return FailureUnclassified
}

// classifySDKError is classifyTransportError extended with the decoding
// errors an SDK surfaces when a 2xx body cannot be parsed.
func classifySDKError(err error) FailureClass {
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return FailureMalformedResponse
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return FailureMalformedResponse
	}

	return classifyTransportError(err)
}
