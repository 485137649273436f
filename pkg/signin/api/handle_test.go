package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/simple-auth/pkg/mfasettings"
	"github.com/tendant/simple-auth/pkg/notification"
	"github.com/tendant/simple-auth/pkg/recoverycodes"
	"github.com/tendant/simple-auth/pkg/signin"
	"github.com/tendant/simple-auth/pkg/tokengenerator"
	"github.com/tendant/simple-auth/pkg/totp"
	"github.com/tendant/simple-auth/pkg/user"
)

type capturingNotifier struct {
	sent []notification.NotificationData
}

func (n *capturingNotifier) Send(noticeType notification.NoticeType, data notification.NotificationData) error {
	n.sent = append(n.sent, data)
	return nil
}

type testEnv struct {
	server   *httptest.Server
	notifier *capturingNotifier
	settings *mfasettings.Store
	recovery *recoverycodes.Manager
	user     user.User
}

func setupTestServer(t *testing.T) *testEnv {
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
	settings := mfasettings.NewStore(settingsRepo)

	codeRepo, err := recoverycodes.NewFileRecoveryCodeRepository(dataDir)
	require.NoError(t, err)
	recovery := recoverycodes.NewManager(codeRepo)

	notifier := &capturingNotifier{}
	coordinator := signin.NewCoordinator(
		users,
		settings,
		totp.NewKeyProvider(users, "simple-auth"),
		recovery,
		tokengenerator.NewJwtService(
			tokengenerator.NewJwtTokenGenerator("test-secret", "simple-auth", "simple-auth")),
		notifier,
	)

	r := chi.NewRouter()
	r.Mount("/auth", NewHandler(coordinator, tokengenerator.NewCookieSetter(true, false)).Routes())

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)
	return &testEnv{
		server:   server,
		notifier: notifier,
		settings: settings,
		recovery: recovery,
		user:     u,
	}
}

func postJSON(t *testing.T, url string, body interface{}) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	return resp
}

func TestLoginEndpoint(t *testing.T) {
	env := setupTestServer(t)

	resp := postJSON(t, env.server.URL+"/auth/login", LoginRequest{
		Email:    "jane@example.com",
		Password: "pass-1234",
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body LoginResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, string(signin.LoginStatusSuccess), body.Status)

	names := make(map[string]bool)
	for _, c := range resp.Cookies() {
		names[c.Name] = true
	}
	assert.True(t, names[tokengenerator.ACCESS_TOKEN_NAME])
	assert.True(t, names[tokengenerator.REFRESH_TOKEN_NAME])
}

func TestLoginEndpointWrongPassword(t *testing.T) {
	env := setupTestServer(t)

	resp := postJSON(t, env.server.URL+"/auth/login", LoginRequest{
		Email:    "jane@example.com",
		Password: "wrong",
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestTwoFactorFlowOverHTTP(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()
	require.NoError(t, env.settings.SetEmail(ctx, env.user.ID, true))

	resp := postJSON(t, env.server.URL+"/auth/login", LoginRequest{
		Email:    "jane@example.com",
		Password: "pass-1234",
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	var login LoginResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&login))
	assert.Equal(t, string(signin.LoginStatusTwoFactorRequired), login.Status)
	require.NotEmpty(t, login.TempToken)
	require.Len(t, login.TwoFactorMethods, 1)
	assert.Equal(t, "email", login.TwoFactorMethods[0].Type)
	assert.Equal(t, "j**e@example.com", login.TwoFactorMethods[0].DeliveryOptions[0].DisplayValue)

	resp = postJSON(t, env.server.URL+"/auth/2fa/send", SendPasscodeRequest{TempToken: login.TempToken})
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, env.notifier.sent, 1)
	passcode := env.notifier.sent[0].Data["Passcode"]

	resp = postJSON(t, env.server.URL+"/auth/2fa/validate", CompleteTwoFactorRequest{
		TempToken: login.TempToken,
		Passcode:  passcode,
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	names := make(map[string]bool)
	for _, c := range resp.Cookies() {
		names[c.Name] = true
	}
	assert.True(t, names[tokengenerator.ACCESS_TOKEN_NAME])
}

func TestRecoveryEndpoint(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()
	require.NoError(t, env.settings.SetEmail(ctx, env.user.ID, true))

	codes, err := env.recovery.GenerateCodes(ctx, env.user.ID, 10)
	require.NoError(t, err)

	resp := postJSON(t, env.server.URL+"/auth/recovery", RedeemRecoveryCodeRequest{
		Email: "jane@example.com",
		Code:  codes[0],
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	settings, err := env.settings.Get(ctx, env.user.ID)
	require.NoError(t, err)
	assert.False(t, settings.EmailEnabled)

	// spent codes are rejected
	resp = postJSON(t, env.server.URL+"/auth/recovery", RedeemRecoveryCodeRequest{
		Email: "jane@example.com",
		Code:  codes[0],
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
