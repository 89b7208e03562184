package handler

import (
	"net/http"

	"github.com/astroconsult/consult-server-go/internal/audit"
	"github.com/astroconsult/consult-server-go/internal/httputil"
	"github.com/astroconsult/consult-server-go/internal/middleware"
)

type WalletHandler struct {
	wallets WalletAPI
}

func NewWalletHandler(wallets WalletAPI) *WalletHandler {
	return &WalletHandler{wallets: wallets}
}

func (h *WalletHandler) Balance(w http.ResponseWriter, r *http.Request) {
	balance, err := h.wallets.Balance(r.Context(), middleware.GetMobile(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]float64{"balance": balance})
}

func (h *WalletHandler) History(w http.ResponseWriter, r *http.Request) {
	history, err := h.wallets.History(r.Context(), middleware.GetMobile(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"history": history})
}

type rechargeRequest struct {
	Mobile string  `json:"mobile"`
	Amount float64 `json:"amount"`
}

func (h *WalletHandler) Recharge(w http.ResponseWriter, r *http.Request) {
	h.credit(w, r, audit.EventRecharge)
}

func (h *WalletHandler) Dakshina(w http.ResponseWriter, r *http.Request) {
	h.credit(w, r, audit.EventDakshina)
}

func (h *WalletHandler) credit(w http.ResponseWriter, r *http.Request, event audit.EventType) {
	var req rechargeRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	mobile, err := requestMobile(r, req.Mobile)
	if err != nil {
		writeError(w, err)
		return
	}

	credit := h.wallets.Recharge
	if event == audit.EventDakshina {
		credit = h.wallets.Dakshina
	}

	result, err := credit(r.Context(), mobile, req.Amount)
	if err != nil {
		writeError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:    event,
		Mobile:  mobile,
		Details: map[string]interface{}{"amount": req.Amount, "reference": result.Reference},
	})
	writeJSON(w, http.StatusOK, result)
}
