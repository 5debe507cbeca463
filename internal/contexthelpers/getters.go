package contexthelpers

import (
	"context"
)

func CSRFToken(ctx context.Context) string {
	csrfToken, ok := ctx.Value(csrfTokenContextKey).(string)
	if !ok {
		return ""
	}

	return csrfToken
}

func CSPNonce(ctx context.Context) string {
	nonce, ok := ctx.Value(cspNonceContextKey).(string)
	if !ok {
		return ""
	}

	return nonce
}

// KioskID returns the id of the kiosk session bound to the request, or "" before binding.
func KioskID(ctx context.Context) string {
	id, ok := ctx.Value(kioskIDContextKey).(string)
	if !ok {
		return ""
	}

	return id
}
