package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/tendant/simple-auth/pkg/errors"
	"github.com/tendant/simple-auth/pkg/oauth2client"
)

// Handler exposes client application administration over HTTP. All routes
// sit behind the authenticated group.
type Handler struct {
	service *oauth2client.ClientService
}

func NewHandler(service *oauth2client.ClientService) *Handler {
	return &Handler{service: service}
}

// Routes mounts the client administration endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.RegisterClient)
	r.Get("/", h.ListClients)
	r.Get("/{clientID}", h.GetClient)
	r.Delete("/{clientID}", h.DeleteClient)
	return r
}

// ErrorResponse is the error payload returned by every endpoint
type ErrorResponse struct {
	Error string `json:"error"`
}

// RegisterClientRequest carries a new client application's details
type RegisterClientRequest struct {
	Name         string   `json:"name"`
	RedirectURIs []string `json:"redirect_uris"`
	Scopes       []string `json:"scopes"`
}

// ClientResponse is the client-facing view of a registration. The secret
// hash never leaves the service.
type ClientResponse struct {
	ClientID     string    `json:"client_id"`
	Name         string    `json:"name"`
	RedirectURIs []string  `json:"redirect_uris,omitempty"`
	Scopes       []string  `json:"scopes,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// RegisteredClientResponse includes the plaintext secret, returned only at
// registration time.
type RegisteredClientResponse struct {
	ClientResponse
	ClientSecret string `json:"client_secret"`
}

func toClientResponse(c oauth2client.Client) ClientResponse {
	return ClientResponse{
		ClientID:     c.ClientID,
		Name:         c.Name,
		RedirectURIs: c.RedirectURIs,
		Scopes:       c.Scopes,
		CreatedAt:    c.CreatedAt,
	}
}

// RegisterClient handles POST /
func (h *Handler) RegisterClient(w http.ResponseWriter, r *http.Request) {
	var req RegisterClientRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Error: "Invalid request body"})
		return
	}

	registered, err := h.service.Register(r.Context(), oauth2client.RegisterClientParams{
		Name:         req.Name,
		RedirectURIs: req.RedirectURIs,
		Scopes:       req.Scopes,
	})
	if err != nil {
		respondError(w, r, err, "Failed to register client")
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, RegisteredClientResponse{
		ClientResponse: toClientResponse(registered.Client),
		ClientSecret:   registered.Secret,
	})
}

// ListClients handles GET /
func (h *Handler) ListClients(w http.ResponseWriter, r *http.Request) {
	clients, err := h.service.List(r.Context())
	if err != nil {
		respondError(w, r, err, "Failed to list clients")
		return
	}

	resp := make([]ClientResponse, 0, len(clients))
	for _, c := range clients {
		resp = append(resp, toClientResponse(c))
	}
	render.Status(r, http.StatusOK)
	render.JSON(w, r, resp)
}

// GetClient handles GET /{clientID}
func (h *Handler) GetClient(w http.ResponseWriter, r *http.Request) {
	client, err := h.service.Get(r.Context(), chi.URLParam(r, "clientID"))
	if err != nil {
		respondError(w, r, err, "Failed to get client")
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, toClientResponse(client))
}

// DeleteClient handles DELETE /{clientID}
func (h *Handler) DeleteClient(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "clientID")); err != nil {
		respondError(w, r, err, "Failed to delete client")
		return
	}

	render.NoContent(w, r)
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
