package web

import (
	"net/http"

	"github.com/JonMunkholm/estates/internal/logging"
)

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// TokenResponse is returned by a successful login.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// handleLogin exchanges the operator credentials for a bearer token.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := validateStruct(req); err != nil {
		s.respondError(w, r, err)
		return
	}

	if err := s.accounts.Check(req.Username, req.Password); err != nil {
		s.respondError(w, r, err)
		return
	}

	token, err := s.tokens.GenerateToken(req.Username)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	logging.FromContext(r.Context()).Info("login succeeded", "username", req.Username)
	writeJSON(w, r, http.StatusOK, TokenResponse{AccessToken: token, TokenType: "bearer"})
}
