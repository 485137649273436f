package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/jinzhu/copier"

	"github.com/tendant/simple-auth/pkg/errors"
	"github.com/tendant/simple-auth/pkg/signin"
	"github.com/tendant/simple-auth/pkg/tokengenerator"
)

// Handler exposes the public sign-in flow: login, passcode delivery, second
// factor validation and the anonymous recovery-code path. Issued tokens are
// set as cookies and returned in the response body.
type Handler struct {
	service *signin.Coordinator
	cookies tokengenerator.CookieSetter
}

// NewHandler creates a new sign-in API handler
func NewHandler(service *signin.Coordinator, cookies tokengenerator.CookieSetter) *Handler {
	return &Handler{service: service, cookies: cookies}
}

// Routes mounts the public sign-in endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/login", h.Login)
	r.Post("/2fa/send", h.SendPasscode)
	r.Post("/2fa/validate", h.CompleteTwoFactor)
	r.Post("/recovery", h.RedeemRecoveryCode)
	return r
}

// ErrorResponse is the error payload returned by every endpoint
type ErrorResponse struct {
	Error string `json:"error"`
}

// LoginRequest carries the primary credentials
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TwoFactorMethod mirrors signin.TwoFactorMethod for the response body
type TwoFactorMethod struct {
	Type            string           `json:"type"`
	DeliveryOptions []DeliveryOption `json:"delivery_options,omitempty"`
}

// DeliveryOption mirrors signin.DeliveryOption for the response body
type DeliveryOption struct {
	HashedValue  string `json:"hashed_value"`
	DisplayValue string `json:"display_value"`
}

// LoginResponse reports the login outcome. When Status is "2fa_required" the
// temp token must be sent back with the passcode.
type LoginResponse struct {
	Status           string            `json:"status"`
	TempToken        string            `json:"temp_token,omitempty"`
	TwoFactorMethods []TwoFactorMethod `json:"two_factor_methods,omitempty"`
}

// SendPasscodeRequest identifies the pending login to send a passcode for
type SendPasscodeRequest struct {
	TempToken string `json:"temp_token"`
}

// CompleteTwoFactorRequest submits the second-factor code
type CompleteTwoFactorRequest struct {
	TempToken        string `json:"temp_token"`
	Passcode         string `json:"passcode"`
	UseAuthenticator bool   `json:"use_authenticator"`
	RememberDevice   bool   `json:"remember_device"`
}

// RedeemRecoveryCodeRequest is the anonymous recovery path payload
type RedeemRecoveryCodeRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// MessageResponse is a plain success acknowledgement
type MessageResponse struct {
	Message string `json:"message"`
}

// Login handles POST /login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Error: "Invalid request body"})
		return
	}

	result, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondError(w, r, err, "Login failed")
		return
	}

	resp := LoginResponse{Status: string(result.Status)}
	if result.Status == signin.LoginStatusTwoFactorRequired {
		resp.TempToken = result.Tokens[tokengenerator.TEMP_TOKEN_NAME].Token
		if err := copier.Copy(&resp.TwoFactorMethods, &result.TwoFactorMethods); err != nil {
			slog.Error("Failed to copy two factor methods", "err", err)
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, ErrorResponse{Error: "Login failed"})
			return
		}
		render.Status(r, http.StatusAccepted)
		render.JSON(w, r, resp)
		return
	}

	if err := tokengenerator.SetTokensCookie(h.cookies, w, result.Tokens); err != nil {
		slog.Error("Failed to set token cookies", "err", err)
	}
	render.Status(r, http.StatusOK)
	render.JSON(w, r, resp)
}

// SendPasscode handles POST /2fa/send
func (h *Handler) SendPasscode(w http.ResponseWriter, r *http.Request) {
	var req SendPasscodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Error: "Invalid request body"})
		return
	}

	if err := h.service.SendPasscode(r.Context(), req.TempToken); err != nil {
		respondError(w, r, err, "Failed to send passcode")
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, MessageResponse{Message: "Passcode sent"})
}

// CompleteTwoFactor handles POST /2fa/validate
func (h *Handler) CompleteTwoFactor(w http.ResponseWriter, r *http.Request) {
	var req CompleteTwoFactorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Error: "Invalid request body"})
		return
	}

	tokens, err := h.service.CompleteTwoFactor(r.Context(), req.TempToken, req.Passcode, req.UseAuthenticator, req.RememberDevice)
	if err != nil {
		respondError(w, r, err, "Failed to validate passcode")
		return
	}

	if err := tokengenerator.SetTokensCookie(h.cookies, w, tokens); err != nil {
		slog.Error("Failed to set token cookies", "err", err)
	}
	render.Status(r, http.StatusOK)
	render.JSON(w, r, LoginResponse{Status: string(signin.LoginStatusSuccess)})
}

// RedeemRecoveryCode handles POST /recovery
func (h *Handler) RedeemRecoveryCode(w http.ResponseWriter, r *http.Request) {
	var req RedeemRecoveryCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Error: "Invalid request body"})
		return
	}

	tokens, err := h.service.RedeemRecoveryCode(r.Context(), req.Email, req.Code)
	if err != nil {
		respondError(w, r, err, "Failed to redeem recovery code")
		return
	}

	if err := tokengenerator.SetTokensCookie(h.cookies, w, tokens); err != nil {
		slog.Error("Failed to set token cookies", "err", err)
	}
	render.Status(r, http.StatusOK)
	render.JSON(w, r, LoginResponse{Status: string(signin.LoginStatusSuccess)})
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
