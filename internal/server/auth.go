package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// protectedRoutes trigger runs and need a bearer token when a secret is set
var protectedRoutes = map[string]string{
	runPath:  http.MethodPost,
	cronPath: http.MethodGet,
}

func newAuthMiddleware(secret string, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			method, ok := protectedRoutes[r.URL.Path]
			if secret == "" || !ok || method != r.Method {
				next.ServeHTTP(w, r)
				return
			}
			token := bearerToken(r.Header.Get("Authorization"))
			if token == "" {
				writeAuthError(w, "missing bearer token")
				return
			}
			subject, err := authenticateJWT(token, secret)
			if err != nil {
				log.Warn("[server] rejected token", "path", r.URL.Path, "error", err)
				writeAuthError(w, "invalid token")
				return
			}
			log.Info("[server] trigger authorised", "path", r.URL.Path, "subject", subject)
			next.ServeHTTP(w, r)
		})
	}
}

func authenticateJWT(token, secret string) (string, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	claims := &jwt.RegisteredClaims{}
	parsed, err := parser.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return "", err
	}
	if !parsed.Valid {
		return "", errors.New("invalid token")
	}
	if claims.Subject == "" {
		return "", errors.New("subject claim required")
	}
	return claims.Subject, nil
}

func bearerToken(header string) string {
	const prefix = "bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

func writeAuthError(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", "Bearer")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(newAPIError(http.StatusUnauthorized, "unauthorized", msg))
}
