package imagejob

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeaderCredentialResolver(t *testing.T) {
	t.Parallel()

	resolver := NewHeaderCredentialResolver()

	t.Run("bearer token", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.Header.Set("Authorization", "Bearer secret-token")

		cred, err := resolver.Resolve(req)
		require.NoError(t, err)
		assert.Equal(t, Credential("secret-token"), cred)
	})

	t.Run("connection token header fallback", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.Header.Set("X-Connection-Token", "fallback-token")

		cred, err := resolver.Resolve(req)
		require.NoError(t, err)
		assert.Equal(t, Credential("fallback-token"), cred)
	})

	t.Run("missing credential", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodPost, "/", nil)
		_, err := resolver.Resolve(req)
		assert.ErrorIs(t, err, ErrNoCredential)
	})

	t.Run("malformed authorization header", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.Header.Set("Authorization", "Basic abc123")
		_, err := resolver.Resolve(req)
		assert.ErrorIs(t, err, ErrNoCredential)
	})
}
