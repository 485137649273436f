package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/simple-auth/pkg/notification"
	"github.com/tendant/simple-auth/pkg/tokenverifier"
	"github.com/tendant/simple-auth/pkg/user"
)

type capturingNotifier struct {
	sent []notification.NotificationData
}

func (n *capturingNotifier) Send(noticeType notification.NoticeType, data notification.NotificationData) error {
	n.sent = append(n.sent, data)
	return nil
}

func (n *capturingNotifier) lastToken(t *testing.T) string {
	t.Helper()
	require.NotEmpty(t, n.sent)
	link := n.sent[len(n.sent)-1].Data["Link"]
	idx := strings.Index(link, "token=")
	require.GreaterOrEqual(t, idx, 0)
	return link[idx+len("token="):]
}

type testEnv struct {
	server   *httptest.Server
	notifier *capturingNotifier
	users    *user.UserService
}

func setupTestServer(t *testing.T) *testEnv {
	t.Helper()
	dataDir := t.TempDir()

	userRepo, err := user.NewFileUserRepository(dataDir)
	require.NoError(t, err)
	users := user.NewUserService(userRepo)

	tokenRepo, err := tokenverifier.NewFileTokenRepository(dataDir)
	require.NoError(t, err)

	notifier := &capturingNotifier{}
	handler := NewHandler(users, tokenverifier.NewVerifier(tokenRepo), notifier, "http://localhost:4000")

	r := chi.NewRouter()
	r.Mount("/users", handler.PublicRoutes())

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)
	return &testEnv{server: server, notifier: notifier, users: users}
}

func postJSON(t *testing.T, url string, body interface{}) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	return resp
}

func TestRegisterAndConfirmEmail(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()

	resp := postJSON(t, env.server.URL+"/users/register", RegisterRequest{
		Email:    "jane@example.com",
		Name:     "Jane",
		Password: "pass-1234",
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created UserResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	assert.Equal(t, "jane@example.com", created.Email)
	assert.False(t, created.EmailVerified)

	// registration sent a confirmation link
	token := env.notifier.lastToken(t)

	resp = postJSON(t, env.server.URL+"/users/confirm-email", ConfirmEmailRequest{Token: token})
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	u, err := env.users.FindByEmail(ctx, "jane@example.com")
	require.NoError(t, err)
	assert.True(t, u.EmailVerified)

	// the confirmation token is single use
	resp = postJSON(t, env.server.URL+"/users/confirm-email", ConfirmEmailRequest{Token: token})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestPasswordResetFlow(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()

	u, err := env.users.Register(ctx, user.RegisterParams{
		Email:    "jane@example.com",
		Password: "old-password",
	})
	require.NoError(t, err)

	resp := postJSON(t, env.server.URL+"/users/password-reset/request", PasswordResetRequest{
		Email: "jane@example.com",
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	token := env.notifier.lastToken(t)

	resp = postJSON(t, env.server.URL+"/users/password-reset/confirm", PasswordResetConfirmRequest{
		Token:    token,
		Password: "new-password",
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	valid, err := env.users.VerifyPassword(ctx, u.ID, "new-password")
	require.NoError(t, err)
	assert.True(t, valid)

	valid, err = env.users.VerifyPassword(ctx, u.ID, "old-password")
	require.NoError(t, err)
	assert.False(t, valid)
}

func TestPasswordResetUnknownEmailLeaksNothing(t *testing.T) {
	env := setupTestServer(t)

	resp := postJSON(t, env.server.URL+"/users/password-reset/request", PasswordResetRequest{
		Email: "nobody@example.com",
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, env.notifier.sent)
}

func TestRegisterRejectsEmptyInput(t *testing.T) {
	env := setupTestServer(t)

	resp := postJSON(t, env.server.URL+"/users/register", RegisterRequest{Email: "", Password: ""})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
