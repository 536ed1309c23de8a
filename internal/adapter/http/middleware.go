package http

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ravi-cheetiralaav/app/internal/adapter/logger"
	"github.com/ravi-cheetiralaav/app/internal/domain"
)

// Headers set by the upstream auth collaborator.
const (
	HeaderRequestID = "X-Request-ID"
	HeaderUserID    = "X-User-ID"
	HeaderUserRole  = "X-User-Role"
)

type callerKey struct{}

// RequestIDMiddleware reuses an incoming X-Request-ID or generates one,
// stores it in the context and echoes it in the response.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := strings.TrimSpace(r.Header.Get(HeaderRequestID))
		if requestID == "" {
			requestID = "req-" + uuid.NewString()
		}
		w.Header().Set(HeaderRequestID, requestID)
		next.ServeHTTP(w, r.WithContext(logger.WithRequestID(r.Context(), requestID)))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func LoggingMiddleware(logger logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			requestID := requestIDOf(r)

			logger.Debug("http_request", fmt.Sprintf("%s %s", r.Method, r.URL.Path), requestID, map[string]interface{}{
				"method": r.Method,
				"path":   r.URL.Path,
			})

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			duration := time.Since(start)
			logger.Debug("http_response", "Request completed", requestID, map[string]interface{}{
				"status":      rec.status,
				"duration_ms": duration.Milliseconds(),
			})
		})
	}
}

func RecoveryMiddleware(logger logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("panic_recovered", "Panic recovered", requestIDOf(r), map[string]interface{}{
						"path": r.URL.Path,
					}, fmt.Errorf("%v", err))
					writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: domain.KindInternal.String(), Message: "Internal server error"})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// IdentityMiddleware turns the auth headers into a domain.Caller.
// Requests without a user id are rejected with 401.
func IdentityMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := strings.TrimSpace(r.Header.Get(HeaderUserID))
		if userID == "" {
			writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "missing " + HeaderUserID})
			return
		}

		role := domain.Role(strings.ToLower(strings.TrimSpace(r.Header.Get(HeaderUserRole))))
		switch role {
		case "":
			role = domain.RoleCustomer
		case domain.RoleCustomer, domain.RoleAdmin:
		default:
			writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "unknown role"})
			return
		}

		caller := domain.Caller{UserID: userID, Role: role}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), callerKey{}, caller)))
	})
}

func callerFrom(r *http.Request) domain.Caller {
	caller, _ := r.Context().Value(callerKey{}).(domain.Caller)
	return caller
}

func requestIDOf(r *http.Request) string {
	return logger.RequestID(r.Context())
}
