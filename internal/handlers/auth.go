package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/xelth-com/eckcosting/internal/utils"
)

// LoginRequest represents an operator login
type LoginRequest struct {
	Operator string `json:"operator"`
	Password string `json:"password"`
}

// login checks the operator's bcrypt hash and issues a bearer token
func (r *Router) login(w http.ResponseWriter, req *http.Request) {
	if !r.auth.Enabled() {
		respondError(w, http.StatusNotFound, "Authentication is disabled")
		return
	}

	var loginReq LoginRequest
	if !decodeJSON(w, req, &loginReq) {
		return
	}

	hash, ok := r.auth.Operators[loginReq.Operator]
	if !ok || !utils.CheckPasswordHash(loginReq.Password, hash) {
		respondError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := utils.GenerateOperatorToken(loginReq.Operator, r.auth.JWTSecret, utils.OperatorTokenTTL)
	if err != nil {
		r.log.Error("Failed to sign operator token", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"token":      token,
		"operator":   loginReq.Operator,
		"expires_in": int(utils.OperatorTokenTTL.Seconds()),
	})
}
