package handler

import (
	"encoding/json"
	"net/http"

	"github.com/selorg/ops-api/internal/application/auth"
	"github.com/selorg/ops-api/internal/pkg/validate"
)

// AuthHandler handles the phone OTP endpoints.
type AuthHandler struct {
	svc *auth.Service
}

func NewAuthHandler(svc *auth.Service) *AuthHandler {
	return &AuthHandler{svc: svc}
}

type sendOTPRequest struct {
	Phone string `json:"phone" validate:"required"`
}

type verifyOTPRequest struct {
	Phone string `json:"phone" validate:"required"`
	OTP   string `json:"otp" validate:"required"`
}

func (h *AuthHandler) SendOTP(w http.ResponseWriter, r *http.Request) {
	var req sendOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := h.svc.SendOTP(r.Context(), req.Phone)
	if err != nil {
		if res != nil {
			writeJSON(w, statusFor(err), res)
			return
		}
		writeError(w, statusFor(err), "could not send OTP")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ResendOTP behaves exactly like SendOTP; the separate route exists for
// client compatibility.
func (h *AuthHandler) ResendOTP(w http.ResponseWriter, r *http.Request) {
	var req sendOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := h.svc.ResendOTP(r.Context(), req.Phone)
	if err != nil {
		if res != nil {
			writeJSON(w, statusFor(err), res)
			return
		}
		writeError(w, statusFor(err), "could not send OTP")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *AuthHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req verifyOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := h.svc.VerifyOTP(r.Context(), req.Phone, req.OTP)
	if err != nil {
		if res != nil {
			writeJSON(w, statusFor(err), res)
			return
		}
		writeError(w, statusFor(err), "could not verify OTP")
		return
	}
	if !res.Success {
		writeJSON(w, http.StatusUnauthorized, res)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
