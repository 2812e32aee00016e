package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/username/portfoliotracker/src/logger"
	"github.com/username/portfoliotracker/src/security/validation"
	"github.com/username/portfoliotracker/src/utils"
	"golang.org/x/time/rate"
)

type contextKey string

const (
	requestIDContextKey contextKey = "requestID"
	userIDContextKey    contextKey = "userID"
)

// ContextualLoggerMiddleware attaches a logger carrying a fresh requestID to every request.
func ContextualLoggerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.New().String()
		ctxLogger := logger.L.With(slog.String("requestID", requestID))

		ctx := logger.ToContext(r.Context(), ctxLogger)
		ctx = context.WithValue(ctx, requestIDContextKey, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetUserIDFromContext returns the user resolved by UserMiddleware.
func GetUserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(userIDContextKey).(string)
	return userID, ok && userID != ""
}

// WithUserID stores userID the way UserMiddleware does.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDContextKey, userID)
}

// IssueToken signs an HS256 token whose subject is userID.
func IssueToken(secret, userID string, ttl time.Duration, now time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ValidateToken checks an HS256 token and returns its subject.
func ValidateToken(secret, tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "", errors.New("token has no subject")
	}
	return claims.Subject, nil
}

// UserMiddleware resolves the calling user. With a secret, a bearer token is
// required and its subject is the user. Without one, the user_id query
// parameter is used, falling back to defaultUserID.
func UserMiddleware(secret, defaultUserID string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctxLogger := logger.FromContext(r.Context())

			var userID string
			if secret != "" {
				authHeader := r.Header.Get("Authorization")
				if authHeader == "" {
					ctxLogger.Debug("UserMiddleware: Authorization header missing", "path", r.URL.Path)
					utils.SendJSONError(w, "Authorization header required", http.StatusUnauthorized)
					return
				}
				tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
				if tokenString == "" {
					utils.SendJSONError(w, "Malformed token", http.StatusUnauthorized)
					return
				}
				subject, err := ValidateToken(secret, tokenString)
				if err != nil {
					ctxLogger.Warn("UserMiddleware: Token validation failed", "path", r.URL.Path, "error", err)
					utils.SendJSONError(w, "Invalid or expired token", http.StatusUnauthorized)
					return
				}
				userID = subject
			} else {
				userID = r.URL.Query().Get("user_id")
				if userID == "" {
					userID = defaultUserID
				}
			}

			if err := validation.ValidateUserID(userID); err != nil {
				utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
				return
			}

			ctx := logger.ToContext(r.Context(), ctxLogger.With(slog.String("userID", userID)))
			next.ServeHTTP(w, r.WithContext(WithUserID(ctx, userID)))
		})
	}
}

// CORSMiddleware answers preflight requests and echoes allowed origins.
func CORSMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if allowed[origin] {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Credentials", "true")
				w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
				w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Authorization, X-Requested-With")
				w.Header().Add("Vary", "Origin")
			} else if origin == "" {
				w.Header().Set("Access-Control-Allow-Origin", "*")
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RateLimitMiddleware rejects requests once limiter runs dry.
func RateLimitMiddleware(limiter *rate.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				logger.FromContext(r.Context()).Warn("Rate limit exceeded", "path", r.URL.Path)
				utils.SendJSONError(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		utils.SendJSONError(w, fmt.Sprintf("authentication required for %s", r.URL.Path), http.StatusUnauthorized)
	}
	return userID, ok
}
