package contexthelpers

import (
	"context"
	"net/http"
)

func SetCSRFToken(r *http.Request, csrfToken string) *http.Request {
	ctx := r.Context()
	ctx = context.WithValue(ctx, csrfTokenContextKey, csrfToken)
	return r.WithContext(ctx)
}

func SetCSPNonce(r *http.Request, nonce string) *http.Request {
	ctx := r.Context()
	ctx = context.WithValue(ctx, cspNonceContextKey, nonce)
	return r.WithContext(ctx)
}

func SetKioskID(r *http.Request, kioskID string) *http.Request {
	ctx := r.Context()
	ctx = context.WithValue(ctx, kioskIDContextKey, kioskID)
	return r.WithContext(ctx)
}
