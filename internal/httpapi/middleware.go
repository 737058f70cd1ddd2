package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// TokenVerifier checks api tokens presented by clients.
type TokenVerifier interface {
	VerifyApiToken(ctx context.Context, token string) (bool, error)
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("authorization"))
	if len(header) > len("bearer ") && strings.EqualFold(header[:len("bearer ")], "bearer ") {
		return strings.TrimSpace(header[len("bearer "):])
	}
	return ""
}

// requireToken rejects requests that do not carry a valid `Authorization: Bearer <token>` header.
func requireToken(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				writeErrorMessage(w, http.StatusUnauthorized, "missing authentication token")
				return
			}
			ok, err := verifier.VerifyApiToken(r.Context(), token)
			if err != nil {
				writeError(w, r, err)
				return
			}
			if !ok {
				writeErrorMessage(w, http.StatusUnauthorized, "invalid authentication token")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(wrapped, r)

		slog.Debug(
			"request completed",
			"request_id", chimiddleware.GetReqID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapped.Status(),
			"bytes", wrapped.BytesWritten(),
			"duration", time.Since(start),
		)
	})
}
