package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/tendant/simple-auth/pkg/errors"
	"github.com/tendant/simple-auth/pkg/mfa"
)

// Handler exposes MFA management over HTTP. All routes require an
// authenticated user; the subject claim carries the user ID.
type Handler struct {
	service *mfa.Orchestrator
}

// NewHandler creates a new MFA API handler
func NewHandler(service *mfa.Orchestrator) *Handler {
	return &Handler{service: service}
}

// Routes mounts the MFA management endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/status", h.GetStatus)
	r.Post("/factors/{kind}/enable", h.EnableFactor)
	r.Post("/factors/{kind}/disable", h.DisableFactor)
	r.Post("/recovery-codes", h.RegenerateRecoveryCodes)
	return r
}

// ErrorResponse is the error payload returned by every endpoint
type ErrorResponse struct {
	Error string `json:"error"`
}

// StatusResponse reports the user's factor flags and remaining recovery codes
type StatusResponse struct {
	EmailEnabled           bool `json:"email_enabled"`
	AuthenticatorEnabled   bool `json:"authenticator_enabled"`
	PasskeysEnabled        bool `json:"passkeys_enabled"`
	RecoveryCodesRemaining int  `json:"recovery_codes_remaining"`
}

// EnableFactorResponse carries authenticator enrollment details when present
type EnableFactorResponse struct {
	Enabled      bool   `json:"enabled"`
	FormattedKey string `json:"formatted_key,omitempty"`
	QRCodeURI    string `json:"qr_code_uri,omitempty"`
}

// RecoveryCodesResponse returns the freshly generated plaintext codes, the
// only time they are ever visible
type RecoveryCodesResponse struct {
	Codes []string `json:"codes"`
}

// GetStatus handles GET /status
func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	userID, err := getUserIDFromContext(r)
	if err != nil {
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, ErrorResponse{Error: "Unauthorized"})
		return
	}

	settings, remaining, err := h.service.Status(r.Context(), userID)
	if err != nil {
		respondError(w, r, err, "Failed to get MFA status")
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, StatusResponse{
		EmailEnabled:           settings.EmailEnabled,
		AuthenticatorEnabled:   settings.AuthenticatorEnabled,
		PasskeysEnabled:        settings.PasskeysEnabled,
		RecoveryCodesRemaining: remaining,
	})
}

// EnableFactor handles POST /factors/{kind}/enable
func (h *Handler) EnableFactor(w http.ResponseWriter, r *http.Request) {
	userID, err := getUserIDFromContext(r)
	if err != nil {
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, ErrorResponse{Error: "Unauthorized"})
		return
	}

	kind := mfa.FactorKind(chi.URLParam(r, "kind"))
	details, err := h.service.EnableFactor(r.Context(), userID, kind)
	if err != nil {
		respondError(w, r, err, "Failed to enable factor")
		return
	}

	resp := EnableFactorResponse{Enabled: true}
	if details != nil {
		resp.FormattedKey = details.FormattedKey
		resp.QRCodeURI = details.QRCodeURI
	}
	render.Status(r, http.StatusOK)
	render.JSON(w, r, resp)
}

// DisableFactor handles POST /factors/{kind}/disable
func (h *Handler) DisableFactor(w http.ResponseWriter, r *http.Request) {
	userID, err := getUserIDFromContext(r)
	if err != nil {
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, ErrorResponse{Error: "Unauthorized"})
		return
	}

	kind := mfa.FactorKind(chi.URLParam(r, "kind"))
	if err := h.service.DisableFactor(r.Context(), userID, kind); err != nil {
		respondError(w, r, err, "Failed to disable factor")
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, EnableFactorResponse{Enabled: false})
}

// RegenerateRecoveryCodes handles POST /recovery-codes
func (h *Handler) RegenerateRecoveryCodes(w http.ResponseWriter, r *http.Request) {
	userID, err := getUserIDFromContext(r)
	if err != nil {
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, ErrorResponse{Error: "Unauthorized"})
		return
	}

	codes, err := h.service.RegenerateRecoveryCodes(r.Context(), userID)
	if err != nil {
		respondError(w, r, err, "Failed to generate recovery codes")
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, RecoveryCodesResponse{Codes: codes})
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

// getUserIDFromContext extracts the authenticated user ID from the JWT claims
// set by the jwtauth middleware.
func getUserIDFromContext(r *http.Request) (uuid.UUID, error) {
	_, claims, err := jwtauth.FromContext(r.Context())
	if err != nil {
		return uuid.Nil, err
	}
	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return uuid.Nil, errors.New(errors.ErrCodeInvalidInput, "subject claim missing")
	}
	userID, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, errors.New(errors.ErrCodeInvalidInput, "invalid subject claim")
	}
	return userID, nil
}
