package handler

import (
	"net/http"
	"strings"

	"github.com/astroconsult/consult-server-go/internal/httputil"
	"github.com/astroconsult/consult-server-go/internal/middleware"

	apperrors "github.com/astroconsult/consult-server-go/internal/errors"
)

func writeJSON(w http.ResponseWriter, status int, data any) {
	httputil.WriteJSON(w, status, data)
}

func writeError(w http.ResponseWriter, err error) {
	httputil.WriteError(w, err)
}

// requestMobile resolves the mobile a request acts on. Bodies may repeat
// the mobile; it must match the authenticated one.
func requestMobile(r *http.Request, bodyMobile string) (string, error) {
	authenticated := middleware.GetMobile(r.Context())
	bodyMobile = strings.TrimSpace(bodyMobile)
	if bodyMobile != "" && bodyMobile != authenticated {
		return "", apperrors.Forbidden("Not allowed to act for another user")
	}
	return authenticated, nil
}
