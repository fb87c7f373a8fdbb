package web

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/JonMunkholm/PayrollDash/internal/web/templates"
)

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// handleLogin signs the dashboard in to the backend. The token is kept by
// the backend client and never returned to the browser.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
			writeError(w, r, http.StatusBadRequest, "VAL001", "invalid login body")
			return
		}
	} else {
		req.Email = r.FormValue("email")
		req.Password = r.FormValue("password")
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		writeError(w, r, http.StatusBadRequest, "VAL001", "email and password are required")
		return
	}

	if err := s.service.Login(r.Context(), req.Email, req.Password); err != nil {
		s.fail(w, r, err)
		return
	}

	if isHTMX(r) {
		w.Header().Set("HX-Trigger", templates.RefreshEvent)
		render(w, r, templates.Notice("success", "Giriş yapıldı"))
		return
	}
	writeJSON(w, map[string]string{"status": "ok"})
}

// handleLogout ends the backend session and forgets the token.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.service.Logout(r.Context()); err != nil {
		s.fail(w, r, err)
		return
	}
	if isHTMX(r) {
		render(w, r, templates.Notice("neutral", "Çıkış yapıldı"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
