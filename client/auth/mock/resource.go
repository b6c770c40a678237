package mock

import (
	"io"
	"net/http"
	"strconv"
	"strings"
)

// defaultResourceHandler simulates a protected resource under /api/.
// /api/status/{code} answers with code once authorized.
func (s *APIService) defaultResourceHandler(w http.ResponseWriter, r *http.Request) {
	authHeader := r.Header.Get("Authorization")
	s.recordAuthorization(authHeader)
	token, ok := strings.CutPrefix(authHeader, "Bearer ")
	if !ok || token == "" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Authentication credentials were not provided."})
		return
	}
	if _, issued := s.accessTokens.Get(token); !issued || s.verifyJWT(token, "access") != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Given token not valid for any token type"})
		return
	}
	if code, found := strings.CutPrefix(r.URL.Path, "/api/status/"); found {
		if status, err := strconv.Atoi(code); err == nil {
			writeJSON(w, status, map[string]string{"path": r.URL.Path})
			return
		}
	}
	body, _ := io.ReadAll(r.Body)
	writeJSON(w, http.StatusOK, map[string]string{
		"path":   r.URL.Path,
		"method": r.Method,
		"body":   string(body),
		"token":  token,
	})
}
