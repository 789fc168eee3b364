package handler

import (
	"encoding/json"
	"net/http"

	"github.com/selorg/ops-api/internal/application/auth"
	"github.com/selorg/ops-api/internal/pkg/validate"
	"github.com/selorg/ops-api/internal/transport/http/middleware"
)

// SessionHandler handles credential login and logout.
type SessionHandler struct {
	svc *auth.Service
}

func NewSessionHandler(svc *auth.Service) *SessionHandler {
	return &SessionHandler{svc: svc}
}

type loginRequest struct {
	Identifier string `json:"identifier" validate:"required"` // phone or email
	Password   string `json:"password" validate:"required"`
}

func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := h.svc.Login(r.Context(), req.Identifier, req.Password)
	if err != nil {
		if res != nil {
			writeJSON(w, statusFor(err), res)
			return
		}
		writeError(w, statusFor(err), "login failed")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	token, ok := middleware.TokenFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	h.svc.Logout(token, claims.ExpiresAt.Time)
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "logged out"})
}
