package mock

import (
	"net/http"
	"strings"
)

// Handler routes HTTP requests to the appropriate mock API endpoints.
type Handler struct {
	Service *APIService
}

// ServeHTTP dispatches incoming HTTP requests based on URL path.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/auth/login":
		if h.Service.LoginHandler != nil {
			h.Service.LoginHandler(w, r)
		} else {
			h.Service.defaultLoginHandler(w, r)
		}
	case r.URL.Path == "/auth/token/refresh":
		h.Service.refreshCalls.Add(1)
		if h.Service.RefreshHandler != nil {
			h.Service.RefreshHandler(w, r)
		} else {
			h.Service.defaultRefreshHandler(w, r)
		}
	case strings.HasPrefix(r.URL.Path, "/api/"):
		if h.Service.ResourceHandler != nil {
			h.Service.ResourceHandler(w, r)
		} else {
			h.Service.defaultResourceHandler(w, r)
		}
	default:
		http.NotFound(w, r)
	}
}
