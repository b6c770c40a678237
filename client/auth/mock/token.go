package mock

import (
	"encoding/json"
	"net/http"
	"time"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

// defaultLoginHandler handles /auth/login requests
func (s *APIService) defaultLoginHandler(w http.ResponseWriter, r *http.Request) {
	s.loginCalls.Add(1)
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var request loginRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if request.Email != s.Email || request.Password != s.Password {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "No active account found with the given credentials"})
		return
	}
	s.issue(w)
}

// defaultRefreshHandler handles /auth/token/refresh requests, rotating the refresh credential
func (s *APIService) defaultRefreshHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var request refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if s.RefreshDelay > 0 {
		select {
		case <-time.After(s.RefreshDelay):
		case <-r.Context().Done():
			return
		}
	}
	if err := s.verifyJWT(request.Refresh, "refresh"); err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Token is invalid or expired"})
		return
	}
	if _, ok := s.refreshTokens.Take(request.Refresh); !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Token is blacklisted"})
		return
	}
	s.issue(w)
}

func (s *APIService) issue(w http.ResponseWriter) {
	pair, err := s.IssuePair()
	if err != nil {
		http.Error(w, "Server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, pair)
}

func writeJSON(w http.ResponseWriter, status int, value interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}
