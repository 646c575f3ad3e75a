package api

import (
	"net/http"

	"expenseapi/internal/auth"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if req.Email == "" || req.Password == "" {
		respondFieldErrors(w, map[string]string{
			"email":    "email is required",
			"password": "password is required",
		})
		return
	}

	token, err := s.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"token": token})
}

// handleLogout always answers 204; an already expired or unknown token is
// not an error worth surfacing.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.authService.Logout(r.Context(), auth.BearerToken(r))
	w.WriteHeader(http.StatusNoContent)
}
