package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/tendant/simple-auth/pkg/errors"
	"github.com/tendant/simple-auth/pkg/notification"
	"github.com/tendant/simple-auth/pkg/tokenverifier"
	"github.com/tendant/simple-auth/pkg/user"
)

const (
	passwordResetTTL     = time.Hour
	emailConfirmationTTL = 24 * time.Hour
)

// Notifier is the slice of the notification manager the handler needs.
type Notifier interface {
	Send(noticeType notification.NoticeType, data notification.NotificationData) error
}

// Handler exposes account management over HTTP: registration, email
// confirmation, password reset and the authenticated /me endpoints.
type Handler struct {
	service  *user.UserService
	tokens   *tokenverifier.Verifier
	notifier Notifier
	baseURL  string
}

// NewHandler creates a new user API handler
func NewHandler(service *user.UserService, tokens *tokenverifier.Verifier, notifier Notifier, baseURL string) *Handler {
	return &Handler{
		service:  service,
		tokens:   tokens,
		notifier: notifier,
		baseURL:  baseURL,
	}
}

// PublicRoutes mounts the endpoints that need no authentication
func (h *Handler) PublicRoutes() chi.Router {
	r := chi.NewRouter()
	r.Post("/register", h.Register)
	r.Post("/confirm-email", h.ConfirmEmail)
	r.Post("/password-reset/request", h.RequestPasswordReset)
	r.Post("/password-reset/confirm", h.ConfirmPasswordReset)
	return r
}

// Routes mounts the authenticated account endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/me", h.GetMe)
	r.Delete("/me", h.DeleteMe)
	return r
}

// ErrorResponse is the error payload returned by every endpoint
type ErrorResponse struct {
	Error string `json:"error"`
}

// MessageResponse is a plain success acknowledgement
type MessageResponse struct {
	Message string `json:"message"`
}

// RegisterRequest carries a new account's details
type RegisterRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

// UserResponse is the client-facing view of an account
type UserResponse struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	Name          string `json:"name,omitempty"`
	EmailVerified bool   `json:"email_verified"`
}

// ConfirmEmailRequest carries the confirmation token from the emailed link
type ConfirmEmailRequest struct {
	Token string `json:"token"`
}

// PasswordResetRequest starts a reset for the given address
type PasswordResetRequest struct {
	Email string `json:"email"`
}

// PasswordResetConfirmRequest completes a reset
type PasswordResetConfirmRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// Register handles POST /register. A confirmation email is sent best-effort;
// registration succeeds even if delivery fails.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Error: "Invalid request body"})
		return
	}

	u, err := h.service.Register(r.Context(), user.RegisterParams{
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
	})
	if err != nil {
		respondError(w, r, err, "Failed to register user")
		return
	}

	h.sendConfirmationEmail(r, u)

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, toUserResponse(u))
}

// ConfirmEmail handles POST /confirm-email
func (h *Handler) ConfirmEmail(w http.ResponseWriter, r *http.Request) {
	var req ConfirmEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Error: "Invalid request body"})
		return
	}

	userID, err := h.tokens.Verify(r.Context(), req.Token, tokenverifier.PurposeEmailConfirmation)
	if err != nil {
		respondError(w, r, err, "Failed to confirm email")
		return
	}

	if err := h.service.MarkEmailVerified(r.Context(), userID); err != nil {
		respondError(w, r, err, "Failed to confirm email")
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, MessageResponse{Message: "Email confirmed"})
}

// RequestPasswordReset handles POST /password-reset/request. The response is
// identical whether or not the address exists.
func (h *Handler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req PasswordResetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Error: "Invalid request body"})
		return
	}

	u, err := h.service.FindByEmail(r.Context(), req.Email)
	if err == nil {
		token, genErr := h.tokens.Generate(r.Context(), u.ID, tokenverifier.PurposePasswordReset, passwordResetTTL)
		if genErr == nil {
			sendErr := h.notifier.Send(notification.PasswordResetNotice, notification.NotificationData{
				To:   u.Email,
				Data: map[string]string{"Link": fmt.Sprintf("%s/password-reset?token=%s", h.baseURL, token)},
			})
			if sendErr != nil {
				slog.Error("Failed to send password reset email", "userID", u.ID, "err", sendErr)
			}
		} else {
			slog.Error("Failed to generate password reset token", "userID", u.ID, "err", genErr)
		}
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, MessageResponse{Message: "If the address exists, a reset link has been sent"})
}

// ConfirmPasswordReset handles POST /password-reset/confirm
func (h *Handler) ConfirmPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req PasswordResetConfirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Error: "Invalid request body"})
		return
	}
	if req.Password == "" {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Error: "Password is required"})
		return
	}

	userID, err := h.tokens.Verify(r.Context(), req.Token, tokenverifier.PurposePasswordReset)
	if err != nil {
		respondError(w, r, err, "Failed to reset password")
		return
	}

	if err := h.service.UpdatePassword(r.Context(), userID, req.Password); err != nil {
		respondError(w, r, err, "Failed to reset password")
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, MessageResponse{Message: "Password updated"})
}

// GetMe handles GET /me
func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	userID, err := getUserIDFromContext(r)
	if err != nil {
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, ErrorResponse{Error: "Unauthorized"})
		return
	}

	u, err := h.service.FindByID(r.Context(), userID)
	if err != nil {
		respondError(w, r, err, "Failed to get user")
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, toUserResponse(u))
}

// DeleteMe handles DELETE /me
func (h *Handler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	userID, err := getUserIDFromContext(r)
	if err != nil {
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, ErrorResponse{Error: "Unauthorized"})
		return
	}

	if err := h.service.Delete(r.Context(), userID); err != nil {
		respondError(w, r, err, "Failed to delete user")
		return
	}

	render.NoContent(w, r)
}

func (h *Handler) sendConfirmationEmail(r *http.Request, u user.User) {
	token, err := h.tokens.Generate(r.Context(), u.ID, tokenverifier.PurposeEmailConfirmation, emailConfirmationTTL)
	if err != nil {
		slog.Error("Failed to generate email confirmation token", "userID", u.ID, "err", err)
		return
	}
	err = h.notifier.Send(notification.EmailConfirmationNotice, notification.NotificationData{
		To:   u.Email,
		Data: map[string]string{"Link": fmt.Sprintf("%s/confirm-email?token=%s", h.baseURL, token)},
	})
	if err != nil {
		slog.Error("Failed to send confirmation email", "userID", u.ID, "err", err)
	}
}

func toUserResponse(u user.User) UserResponse {
	return UserResponse{
		ID:            u.ID.String(),
		Email:         u.Email,
		Name:          u.Name,
		EmailVerified: u.EmailVerified,
	}
}

func respondError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	status := errors.MapErrorCodeToHTTPStatus(errors.GetCode(err))
	message := fallback
	if appErr, ok := err.(*errors.Error); ok {
		message = appErr.Message
	}
	if status >= http.StatusInternalServerError {
		slog.Error(fallback, "err", err)
		message = fallback
	}
	render.Status(r, status)
	render.JSON(w, r, ErrorResponse{Error: message})
}

func getUserIDFromContext(r *http.Request) (uuid.UUID, error) {
	_, claims, err := jwtauth.FromContext(r.Context())
	if err != nil {
		return uuid.Nil, err
	}
	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return uuid.Nil, errors.New(errors.ErrCodeInvalidInput, "subject claim missing")
	}
	return uuid.Parse(sub)
}
