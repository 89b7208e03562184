package handler

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/astroconsult/consult-server-go/internal/audit"
	apperrors "github.com/astroconsult/consult-server-go/internal/errors"
	"github.com/astroconsult/consult-server-go/internal/httputil"
	"github.com/astroconsult/consult-server-go/internal/middleware"
	"github.com/astroconsult/consult-server-go/internal/util"
)

const ragUploadField = "file"

type AdminHandler struct {
	adminService      AdminAPI
	prompts           PromptAPI
	rag               RAGAPI
	sessionMiddleware func(http.Handler) http.Handler
	loginRateLimiter  *middleware.LoginRateLimiter
	isProduction      bool
}

func NewAdminHandler(
	adminService AdminAPI,
	prompts PromptAPI,
	rag RAGAPI,
	sessionMiddleware func(http.Handler) http.Handler,
	isProduction bool,
) *AdminHandler {
	return &AdminHandler{
		adminService:      adminService,
		prompts:           prompts,
		rag:               rag,
		sessionMiddleware: sessionMiddleware,
		loginRateLimiter:  middleware.NewLoginRateLimiter(),
		isProduction:      isProduction,
	}
}

func (h *AdminHandler) Routes() chi.Router {
	r := chi.NewRouter()
	jsonBody := middleware.NewBodyLimitMiddleware(middleware.DefaultMaxBodySize).Handler
	uploadBody := middleware.NewBodyLimitMiddleware(middleware.UploadMaxBodySize).Handler

	r.With(h.loginRateLimiter.Handler, jsonBody).Post("/login", h.Login)
	r.Post("/logout", h.Logout)

	r.Group(func(r chi.Router) {
		r.Use(h.sessionMiddleware)
		r.With(uploadBody).Post("/rag-test/upload", h.RAGUpload)

		r.Group(func(r chi.Router) {
			r.Use(jsonBody)
			r.Get("/stats", h.Stats)

			// Users
			r.Get("/users", h.ListUsers)
			r.Get("/users/{mobile}", h.GetUser)

			// Prompts
			r.Get("/prompts", h.ListPrompts)
			r.Put("/prompts/{name}", h.UpdatePrompt)

			// RAG tester
			r.Post("/rag-test/{id}/process", h.RAGProcess)
			r.Post("/rag-test/{id}/chat", h.RAGChat)
		})
	})

	return r
}

type adminLoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req adminLoginRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Password == "" {
		writeError(w, apperrors.InvalidFields(apperrors.Field("password", "Password is required")))
		return
	}

	result, err := h.adminService.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if apperrors.GetCode(err) == apperrors.ErrCodeUnauthorized {
			audit.LogFromRequest(r, audit.Event{
				Type:    audit.EventAdminLoginFail,
				Details: map[string]interface{}{"username": req.Username},
			})
		}
		writeError(w, err)
		return
	}

	h.loginRateLimiter.Forget(r)
	audit.LogFromRequest(r, audit.Event{
		Type:    audit.EventAdminLogin,
		Details: map[string]interface{}{"username": req.Username},
	})
	middleware.SetSessionCookie(w, middleware.AdminSessionCookie, result.Token, "/admin", h.isProduction)
	writeJSON(w, http.StatusOK, result)
}

func (h *AdminHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if token := middleware.AdminToken(r); token != "" {
		if err := h.adminService.Logout(r.Context(), token); err != nil {
			log.Warn().Err(err).Msg("failed to delete admin session")
		}
		audit.LogFromRequest(r, audit.Event{Type: audit.EventAdminLogout})
	}

	middleware.ClearSessionCookie(w, middleware.AdminSessionCookie, "/admin")
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.adminService.Stats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	p, err := parsePage(r)
	if err != nil {
		writeError(w, err)
		return
	}

	users, total, err := h.adminService.Users(r.Context(), p.Limit, p.Offset)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"items": users,
		"total": total,
	})
}

func (h *AdminHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	mobile := chi.URLParam(r, "mobile")
	if !util.IsValidMobile(mobile) {
		writeError(w, apperrors.InvalidInput("mobile", "must be exactly 10 digits"))
		return
	}

	detail, err := h.adminService.UserDetail(r.Context(), mobile)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, detail)
}

// Prompts

func (h *AdminHandler) ListPrompts(w http.ResponseWriter, r *http.Request) {
	prompts, err := h.prompts.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"items": prompts})
}

func (h *AdminHandler) UpdatePrompt(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Content string `json:"content"`
	}
	if err := httputil.DecodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	name := chi.URLParam(r, "name")
	prompt, err := h.prompts.Update(r.Context(), name, req.Content)
	if err != nil {
		writeError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:    audit.EventPromptUpdate,
		Details: map[string]interface{}{"prompt": name},
	})
	writeJSON(w, http.StatusOK, prompt)
}

// RAG tester

func (h *AdminHandler) RAGUpload(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile(ragUploadField)
	if err != nil {
		writeError(w, apperrors.InvalidFields(apperrors.Field(ragUploadField, "A document file is required")))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, apperrors.ValidationError("Failed to read upload"))
		return
	}

	doc, err := h.rag.Upload(header.Filename, data)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, doc)
}

func (h *AdminHandler) RAGProcess(w http.ResponseWriter, r *http.Request) {
	doc, err := h.rag.Process(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, doc)
}

func (h *AdminHandler) RAGChat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Question string `json:"question"`
	}
	if err := httputil.DecodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.rag.Chat(r.Context(), chi.URLParam(r, "id"), req.Question)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
