package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"bpmshuffle/core/auth"
	"bpmshuffle/logger"
)

type contextKey string

const usernameKey contextKey = "username"

// LoginRequest represents the token request body
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// TokenHandler 校验管理员账号并签发 JWT
func (h *APIHandler) TokenHandler(w http.ResponseWriter, r *http.Request) {
	if h.cfg.JWTSecret == "" {
		writeError(w, http.StatusNotFound, "Authentication is disabled")
		return
	}

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Error("[Login] 解析请求体失败", logger.ErrorField(err))
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Username and password are required")
		return
	}

	if req.Username != h.cfg.AdminUser || !auth.VerifyPassword(req.Password, h.cfg.AdminPasswordHash) {
		logger.Warn("[Login] 用户名或密码错误", logger.String("username", req.Username))
		writeError(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}

	token, err := auth.GenerateToken([]byte(h.cfg.JWTSecret), req.Username, h.cfg.TokenTTL)
	if err != nil {
		logger.Error("[Login] 生成Token失败", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	logger.Info("[Login] 登录成功", logger.String("username", req.Username))
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

// AuthMiddleware checks for a valid bearer token when a JWT secret is configured.
// Websocket clients may pass the token as the "token" query parameter instead.
func (h *APIHandler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.cfg.JWTSecret == "" {
			next.ServeHTTP(w, r)
			return
		}

		token := r.URL.Query().Get("token")
		if authHeader := r.Header.Get("Authorization"); authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				writeError(w, http.StatusUnauthorized, "Invalid authorization header format")
				return
			}
			token = parts[1]
		}
		if token == "" {
			writeError(w, http.StatusUnauthorized, "Authorization header is required")
			return
		}

		claims, err := auth.ParseToken([]byte(h.cfg.JWTSecret), token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), usernameKey, claims.Username)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetUsernameFromContext extracts the username from the request context
func GetUsernameFromContext(ctx context.Context) (string, bool) {
	username, ok := ctx.Value(usernameKey).(string)
	return username, ok
}
