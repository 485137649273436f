package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/simple-auth/pkg/mfa"
	"github.com/tendant/simple-auth/pkg/mfasettings"
	"github.com/tendant/simple-auth/pkg/recoverycodes"
	"github.com/tendant/simple-auth/pkg/totp"
	"github.com/tendant/simple-auth/pkg/user"
)

func setupTestServer(t *testing.T) (*httptest.Server, *jwtauth.JWTAuth, user.User) {
	t.Helper()
	dataDir := t.TempDir()

	userRepo, err := user.NewFileUserRepository(dataDir)
	require.NoError(t, err)
	users := user.NewUserService(userRepo)

	u, err := users.Register(context.Background(), user.RegisterParams{
		Email:    "jane@example.com",
		Password: "pass-1234",
	})
	require.NoError(t, err)

	settingsRepo, err := mfasettings.NewFileMfaSettingsRepository(dataDir)
	require.NoError(t, err)
	codeRepo, err := recoverycodes.NewFileRecoveryCodeRepository(dataDir)
	require.NoError(t, err)

	orchestrator := mfa.NewOrchestrator(
		users,
		mfasettings.NewStore(settingsRepo),
		totp.NewKeyProvider(users, "simple-auth"),
		recoverycodes.NewManager(codeRepo),
	)

	tokenAuth := jwtauth.New("HS256", []byte("test-secret"), nil)

	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(jwtauth.Verifier(tokenAuth))
		r.Use(jwtauth.Authenticator(tokenAuth))
		r.Mount("/mfa", NewHandler(orchestrator).Routes())
	})

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)
	return server, tokenAuth, u
}

func authedRequest(t *testing.T, tokenAuth *jwtauth.JWTAuth, method, url string, sub string) *http.Request {
	t.Helper()
	_, tokenString, err := tokenAuth.Encode(map[string]interface{}{"sub": sub})
	require.NoError(t, err)

	req, err := http.NewRequest(method, url, nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+tokenString)
	return req
}

func TestEnableFactorEndpoint(t *testing.T) {
	server, tokenAuth, u := setupTestServer(t)

	// authenticator before email is rejected
	req := authedRequest(t, tokenAuth, http.MethodPost, server.URL+"/mfa/factors/authenticator/enable", u.ID.String())
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// email factor enables cleanly
	req = authedRequest(t, tokenAuth, http.MethodPost, server.URL+"/mfa/factors/email/enable", u.ID.String())
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// now the authenticator enrolls and returns the key material
	req = authedRequest(t, tokenAuth, http.MethodPost, server.URL+"/mfa/factors/authenticator/enable", u.ID.String())
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body EnableFactorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.True(t, body.Enabled)
	assert.NotEmpty(t, body.FormattedKey)
	assert.Contains(t, body.QRCodeURI, "otpauth://totp/")
}

func TestStatusAndRecoveryCodesEndpoints(t *testing.T) {
	server, tokenAuth, u := setupTestServer(t)

	req := authedRequest(t, tokenAuth, http.MethodPost, server.URL+"/mfa/recovery-codes", u.ID.String())
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var codes RecoveryCodesResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&codes))
	assert.Len(t, codes.Codes, recoverycodes.DefaultCodeCount)

	req = authedRequest(t, tokenAuth, http.MethodGet, server.URL+"/mfa/status", u.ID.String())
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var status StatusResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	assert.Equal(t, recoverycodes.DefaultCodeCount, status.RecoveryCodesRemaining)
}

func TestUnauthenticatedRequestRejected(t *testing.T) {
	server, _, _ := setupTestServer(t)

	resp, err := http.Get(server.URL + "/mfa/status")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
