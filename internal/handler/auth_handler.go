// internal/handler/auth_handler.go
package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"airtel-ipn-service/internal/auth"

	"go.uber.org/zap"
)

type AuthHandler struct {
	tokens *auth.TokenService
	logger *zap.Logger
}

func NewAuthHandler(tokens *auth.TokenService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		tokens: tokens,
		logger: logger,
	}
}

type tokenRequest struct {
	APIKey    string `json:"apiKey"`
	APISecret string `json:"apiSecret"`
}

type tokenResponse struct {
	AccessToken string    `json:"accessToken"`
	TokenType   string    `json:"tokenType"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// HandleToken exchanges switch API credentials for a bearer token.
func (h *AuthHandler) HandleToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("invalid token request body", zap.Error(err))
		sendError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	token, expiresAt, err := h.tokens.Issue(req.APIKey, req.APISecret)
	if err != nil {
		h.logger.Warn("token issue rejected",
			zap.String("remote_addr", r.RemoteAddr))
		sendError(w, http.StatusUnauthorized, "invalid API credentials", nil)
		return
	}

	sendJSON(w, http.StatusOK, tokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   expiresAt,
	})
}
