package handlers

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"
)

// getPage returns the requested page from the query params, defaulting to the
// current value when unset or invalid
func getPage(page int, r *http.Request) int {
	p := r.URL.Query().Get("page")
	if p == "" {
		return 0
	}
	parsed, err := strconv.Atoi(p)
	if err != nil || parsed < 0 {
		zap.S().Warnf("invalid page %q, using %v", p, page)
		return page
	}
	return parsed
}
