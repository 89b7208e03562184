package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/astroconsult/consult-server-go/internal/httputil"
	"github.com/astroconsult/consult-server-go/internal/model"
	"github.com/astroconsult/consult-server-go/internal/service"
)

type ChatHandler struct {
	chats ChatAPI
}

func NewChatHandler(chats ChatAPI) *ChatHandler {
	return &ChatHandler{chats: chats}
}

func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req service.ChatInput
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

	result, err := h.chats.Chat(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type endChatRequest struct {
	Mobile    string              `json:"mobile"`
	History   []model.HistoryTurn `json:"history"`
	SessionID string              `json:"session_id"`
}

func (h *ChatHandler) EndChat(w http.ResponseWriter, r *http.Request) {
	var req endChatRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	mobile, err := requestMobile(r, req.Mobile)
	if err != nil {
		writeError(w, err)
		return
	}

	summary, err := h.chats.EndChat(r.Context(), mobile, req.SessionID, req.History)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"summary":    summary,
		"session_id": req.SessionID,
	})
}

func (h *ChatHandler) History(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.chats.History(r.Context(), chi.URLParam(r, "mobile"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": sessions})
}

type feedbackRequest struct {
	Mobile    string `json:"mobile"`
	SessionID string `json:"session_id"`
	Rating    int    `json:"rating"`
	Feedback  string `json:"feedback"`
}

func (h *ChatHandler) Feedback(w http.ResponseWriter, r *http.Request) {
	var req feedbackRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	mobile, err := requestMobile(r, req.Mobile)
	if err != nil {
		writeError(w, err)
		return
	}

	saved, err := h.chats.SubmitFeedback(r.Context(), model.Feedback{
		SessionID: req.SessionID,
		Mobile:    mobile,
		Rating:    req.Rating,
		Comment:   req.Feedback,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "feedback": saved})
}
