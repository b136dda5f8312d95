// Package sessiontest runs an in-process identity provider that signs
// session tokens for tests.
package sessiontest

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	jose "gopkg.in/go-jose/go-jose.v2"
)

const keyID = "pint-test"

// Issuer serves OIDC discovery and a JWKS over httptest and signs tokens
// with the key it publishes.
type Issuer struct {
	// URL is the issuer URL, also the "iss" claim of every token.
	URL string

	server *httptest.Server
	signer jose.Signer
}

// NewIssuer starts an issuer that is shut down when t finishes.
func NewIssuer(t testing.TB) *Issuer {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	signer, err := jose.NewSigner(
		jose.SigningKey{Algorithm: jose.RS256, Key: key},
		(&jose.SignerOptions{}).WithType("JWT").WithHeader("kid", keyID),
	)
	if err != nil {
		t.Fatalf("create signer: %v", err)
	}

	iss := &Issuer{signer: signer}
	jwks := jose.JSONWebKeySet{Keys: []jose.JSONWebKey{{
		Key:       &key.PublicKey,
		KeyID:     keyID,
		Algorithm: string(jose.RS256),
		Use:       "sig",
	}}}

	mux := http.NewServeMux()
	mux.HandleFunc("/.well-known/openid-configuration", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{
			"issuer":                 iss.URL,
			"authorization_endpoint": iss.URL + "/authorize",
			"token_endpoint":         iss.URL + "/token",
			"jwks_uri":               iss.URL + "/jwks",
			"id_token_signing_alg_values_supported": []string{string(jose.RS256)},
		})
	})
	mux.HandleFunc("/jwks", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, jwks)
	})

	iss.server = httptest.NewServer(mux)
	iss.URL = iss.server.URL
	t.Cleanup(iss.server.Close)
	return iss
}

// JWKSURL returns the URL the signing keys are published at.
func (i *Issuer) JWKSURL() string {
	return i.URL + "/jwks"
}

// Token signs a session token for sub that expires in an hour.
func (i *Issuer) Token(t testing.TB, sub string) string {
	t.Helper()
	now := time.Now()
	return i.Sign(t, map[string]any{
		"iss": i.URL,
		"sub": sub,
		"iat": now.Unix(),
		"exp": now.Add(time.Hour).Unix(),
	})
}

// Sign signs arbitrary claims with the published key.
func (i *Issuer) Sign(t testing.TB, claims map[string]any) string {
	t.Helper()
	payload, err := json.Marshal(claims)
	if err != nil {
		t.Fatalf("marshal claims: %v", err)
	}
	obj, err := i.signer.Sign(payload)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	raw, err := obj.CompactSerialize()
	if err != nil {
		t.Fatalf("serialize token: %v", err)
	}
	return raw
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
