package auth

import (
	"net/http"

	"go.uber.org/zap"

	"peerprep/interview/internal/models"
	"peerprep/interview/internal/utils"
)

type tokenExtractor func(r *http.Request) (string, error)

// Middleware requires a valid bearer token in the Authorization header.
func Middleware(resolver *Resolver, logger *zap.Logger) func(http.Handler) http.Handler {
	return authenticate(resolver, logger, TokenFromHeader)
}

// QueryTokenMiddleware reads the token from ?token= for clients such as
// EventSource that cannot send headers.
func QueryTokenMiddleware(resolver *Resolver, logger *zap.Logger) func(http.Handler) http.Handler {
	return authenticate(resolver, logger, func(r *http.Request) (string, error) {
		token := r.URL.Query().Get("token")
		if token == "" {
			return "", ErrMissingAuthHeader
		}
		return token, nil
	})
}

func authenticate(resolver *Resolver, logger *zap.Logger, extract tokenExtractor) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := extract(r)
			if err != nil {
				unauthorized(w)
				return
			}

			userID, err := resolver.Resolve(token)
			if err != nil {
				logger.Debug("rejected bearer token", zap.Error(err), zap.String("path", r.URL.Path))
				unauthorized(w)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), userID, token)))
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	utils.JSON(w, http.StatusUnauthorized, models.ErrorResponse{
		Code:    models.ErrCodeUnauthenticated,
		Message: "Unauthorized",
	})
}
