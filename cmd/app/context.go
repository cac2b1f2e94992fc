package main

import (
	"context"
	"net/http"

	"github.com/sushihentaime/blogpost/internal/userservice"
)

type contextKey string

const (
	identityContextKey  = contextKey("identity")
	requestIDContextKey = contextKey("request_id")
)

func (app *application) createIdentityContext(r *http.Request, identity userservice.Identity) *http.Request {
	ctx := context.WithValue(r.Context(), identityContextKey, identity)
	return r.WithContext(ctx)
}

// getIdentityContext returns the anonymous identity when authenticate did not run.
func (app *application) getIdentityContext(r *http.Request) userservice.Identity {
	identity, ok := r.Context().Value(identityContextKey).(userservice.Identity)
	if !ok {
		return userservice.AnonymousIdentity
	}
	return identity
}

func requestID(r *http.Request) string {
	id, _ := r.Context().Value(requestIDContextKey).(string)
	return id
}
