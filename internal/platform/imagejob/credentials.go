package imagejob

import (
	"errors"
	"net/http"
	"strings"
)

// ErrNoCredential indicates no connection credential was present on the
// request.
var ErrNoCredential = errors.New("no connection credential on request")

// HeaderCredentialResolver resolves the connection credential from the
// Authorization header (Bearer scheme), falling back to the X-Connection-Token
// header used by browser clients that cannot set Authorization.
type HeaderCredentialResolver struct{}

// NewHeaderCredentialResolver creates a HeaderCredentialResolver.
func NewHeaderCredentialResolver() *HeaderCredentialResolver {
	return &HeaderCredentialResolver{}
}

// Resolve implements CredentialResolver.
func (hr *HeaderCredentialResolver) Resolve(r *http.Request) (Credential, error) {
	if auth := r.Header.Get("Authorization"); auth != "" {
		parts := strings.SplitN(auth, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") && parts[1] != "" {
			return Credential(parts[1]), nil
		}
	}

	if token := r.Header.Get("X-Connection-Token"); token != "" {
		return Credential(token), nil
	}

	return "", ErrNoCredential
}
