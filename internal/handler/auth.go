package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/astroconsult/consult-server-go/internal/audit"
	apperrors "github.com/astroconsult/consult-server-go/internal/errors"
	"github.com/astroconsult/consult-server-go/internal/httputil"
	"github.com/astroconsult/consult-server-go/internal/middleware"
	"github.com/astroconsult/consult-server-go/internal/model"
)

type AuthHandler struct {
	auth  AuthAPI
	users UserAPI
}

func NewAuthHandler(auth AuthAPI, users UserAPI) *AuthHandler {
	return &AuthHandler{auth: auth, users: users}
}

type sendOTPRequest struct {
	Mobile string `json:"mobile"`
}

func (h *AuthHandler) SendOTP(w http.ResponseWriter, r *http.Request) {
	var req sendOTPRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	code, err := h.auth.SendOTP(r.Context(), req.Mobile)
	if err != nil {
		if apperrors.GetCode(err) == apperrors.ErrCodeRateLimitExceeded {
			audit.LogFromRequest(r, audit.Event{Type: audit.EventRateLimitExceed, Mobile: req.Mobile})
		}
		writeError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{Type: audit.EventOTPSent, Mobile: req.Mobile})

	resp := map[string]any{"message": "OTP sent successfully"}
	if code != "" {
		resp["otp"] = code
	}
	writeJSON(w, http.StatusOK, resp)
}

type verifyOTPRequest struct {
	Mobile string `json:"mobile"`
	OTP    string `json:"otp"`
}

func (h *AuthHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req verifyOTPRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.auth.VerifyOTP(r.Context(), req.Mobile, req.OTP)
	if err != nil {
		audit.LogFromRequest(r, audit.Event{
			Type:    audit.EventOTPFailed,
			Mobile:  req.Mobile,
			Details: map[string]interface{}{"reason": string(apperrors.GetCode(err))},
		})
		writeError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:    audit.EventOTPVerified,
		Mobile:  req.Mobile,
		Details: map[string]interface{}{"newUser": result.IsNewUser},
	})
	writeJSON(w, http.StatusOK, result)
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterParams
	if err := httputil.DecodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	mobile, err := requestMobile(r, req.Mobile)
	if err != nil {
		writeError(w, err)
		return
	}
	req.Mobile = mobile

	token, err := h.users.Register(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{Type: audit.EventRegister, Mobile: mobile})
	writeJSON(w, http.StatusOK, map[string]string{
		"access_token": token,
		"token_type":   "bearer",
	})
}

func (h *AuthHandler) UserStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.users.Status(r.Context(), chi.URLParam(r, "mobile"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	mobile := middleware.GetMobile(r.Context())
	if err := h.auth.Logout(r.Context(), mobile); err != nil {
		writeError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{Type: audit.EventLogout, Mobile: mobile})
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
