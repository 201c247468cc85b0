package pipeline

import (
	"errors"

	"github.com/holodeck-scenegen/scenegen/clients"
	"github.com/holodeck-scenegen/scenegen/herr"
)

// classifyFailure maps a client error to the herr.Kind a caller should
// wrap it in, consulting clients.FailureClassifier when the error
// implements it and falling back to fallback otherwise (e.g. errors
// originating outside the clients seam). This is what lets a transport
// failure be retried by the bounded executor while an auth or
// invalid-input failure fails fast, regardless of which stage produced it.
func classifyFailure(err error, fallback herr.Kind) herr.Kind {
	var fc clients.FailureClassifier
	if !errors.As(err, &fc) {
		return fallback
	}
	switch fc.Kind() {
	case clients.FailureTransport:
		return herr.KindUpstreamTransport
	case clients.FailureRateLimited:
		return herr.KindUpstreamRateLimited
	case clients.FailureAuth:
		return herr.KindUpstreamAuth
	case clients.FailureInvalidInput:
		return herr.KindInvalidInput
	case clients.FailurePolicyRefused:
		return herr.KindUpstreamRefused
	default:
		return fallback
	}
}
