package handler

import (
	"net/http"
	"strconv"

	apperrors "github.com/astroconsult/consult-server-go/internal/errors"
)

const (
	defaultPageSize = 50
	maxPageSize     = 100
)

type page struct {
	Limit  int
	Offset int
}

// parsePage reads limit and offset from the query. Missing values take
// defaults and an oversize limit is clamped; anything unparsable is a 400.
func parsePage(r *http.Request) (page, error) {
	p := page{Limit: defaultPageSize}
	q := r.URL.Query()

	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return p, apperrors.InvalidInput("limit", "must be a positive number")
		}
		p.Limit = min(n, maxPageSize)
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return p, apperrors.InvalidInput("offset", "must not be negative")
		}
		p.Offset = n
	}
	return p, nil
}
