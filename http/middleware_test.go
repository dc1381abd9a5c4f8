package http_test

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sagarc03/presignd"
	presignhttp "github.com/sagarc03/presignd/http"
	"github.com/stretchr/testify/assert"
)

type verifierFunc func(r *http.Request) error

func (f verifierFunc) Verify(r *http.Request) error { return f(r) }

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
}

func TestAuthMiddleware_PublicAccess(t *testing.T) {
	wrapped := presignhttp.AuthMiddleware(nil)(okHandler())

	rec := httptest.NewRecorder()
	wrapped.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/videos/a.mp4", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestAuthMiddleware_Rejects(t *testing.T) {
	verifier := verifierFunc(func(*http.Request) error {
		return fmt.Errorf("signature expired: %w", presignd.ErrUnauthorized)
	})
	wrapped := presignhttp.AuthMiddleware(verifier)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler should not be called")
	}))

	rec := httptest.NewRecorder()
	wrapped.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/videos/a.mp4", nil))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "signature expired")
}

func TestAuthMiddleware_Accepts(t *testing.T) {
	var seen *http.Request
	verifier := verifierFunc(func(r *http.Request) error {
		seen = r
		return nil
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/videos/a.mp4", nil)
	presignhttp.AuthMiddleware(verifier)(okHandler()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Same(t, req, seen)
}

func TestAuthMiddleware_VerifierFailureIsInternal(t *testing.T) {
	verifier := verifierFunc(func(*http.Request) error { return errors.New("secret store offline") })

	rec := httptest.NewRecorder()
	presignhttp.AuthMiddleware(verifier)(okHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/a", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRequestLogger_PassesThrough(t *testing.T) {
	rec := httptest.NewRecorder()
	presignhttp.RequestLogger(okHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz?X-Amz-Signature=abc", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}
