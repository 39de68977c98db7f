package middleware

import (
	"net/http"

	logpkg "github.com/benvon/proxy-api/internal/logger"
	"github.com/benvon/proxy-api/internal/request"
	"github.com/google/uuid"
)

// maxRequestIDLength bounds client-supplied request IDs
const maxRequestIDLength = 128

// RequestID propagates X-Request-ID, generating a UUID when the client did not send a usable one.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(request.IDHeader)
		if id == "" || len(id) > maxRequestIDLength || logpkg.SanitizeString(id, maxRequestIDLength) != id {
			id = uuid.NewString()
		}

		w.Header().Set(request.IDHeader, id)
		next.ServeHTTP(w, r.WithContext(request.WithID(r.Context(), id)))
	})
}
