package httpapi

import (
	"net/http"
	"strings"

	"github.com/dmitrijs2005/storegate/internal/common"
	"github.com/dmitrijs2005/storegate/internal/logging"
	"github.com/dmitrijs2005/storegate/internal/server/auth"
)

// PublicUserPaths reach their handlers without a token. Matching is exact
// on the request path; "/users/login/" is not public.
var PublicUserPaths = []string{
	"/users/register",
	"/users/login",
	"/users/verify-email",
	"/users/resend-verification",
}

const (
	gateAuthenticate = "authenticate"
	gateRequireAdmin = "require_admin"
)

// TokenVerifier checks a bearer token and returns its claims.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// Authenticate lets requests for publicPaths through untouched and demands
// a valid bearer token for everything else. Verified claims are attached to
// the request context.
func Authenticate(tokens TokenVerifier, logger logging.Logger, publicPaths ...string) func(http.Handler) http.Handler {
	public := make(map[string]struct{}, len(publicPaths))
	for _, p := range publicPaths {
		public[p] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := public[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			claims, aerr := verifyRequest(tokens, r)
			if aerr != nil {
				reject(w, r, logger, gateAuthenticate, aerr)
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.ContextWithClaims(r.Context(), claims)))
		})
	}
}

// RequireAdmin demands a valid bearer token whose role is Admin. It has no
// public paths; mount the admin login outside of it.
func RequireAdmin(tokens TokenVerifier, logger logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, aerr := verifyRequest(tokens, r)
			if aerr != nil {
				reject(w, r, logger, gateRequireAdmin, aerr)
				return
			}
			if claims.Role != auth.RoleAdmin {
				reject(w, r, logger, gateRequireAdmin, &auth.Error{Reason: auth.ReasonInsufficientRole})
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.ContextWithClaims(r.Context(), claims)))
		})
	}
}

func verifyRequest(tokens TokenVerifier, r *http.Request) (*auth.Claims, *auth.Error) {
	token, aerr := bearerToken(r)
	if aerr != nil {
		return nil, aerr
	}

	claims, err := tokens.Verify(token)
	if err != nil {
		return nil, &auth.Error{Reason: auth.ReasonInvalidToken, Err: err}
	}
	return claims, nil
}

// bearerToken extracts the token from "Authorization: Bearer <token>".
func bearerToken(r *http.Request) (string, *auth.Error) {
	header := r.Header.Get(common.AuthorizationHeaderName)
	if header == "" {
		return "", &auth.Error{Reason: auth.ReasonMissingHeader}
	}

	token, ok := strings.CutPrefix(header, common.BearerPrefix)
	if !ok || strings.TrimSpace(token) == "" {
		return "", &auth.Error{Reason: auth.ReasonMalformedHeader}
	}
	return strings.TrimSpace(token), nil
}

func reject(w http.ResponseWriter, r *http.Request, logger logging.Logger, gate string, aerr *auth.Error) {
	gateRejections.WithLabelValues(gate, aerr.Reason.String()).Inc()
	logger.Warn(r.Context(), "request rejected",
		"gate", gate,
		"reason", aerr.Reason.String(),
		"method", r.Method,
		"path", r.URL.Path,
	)
	writeError(w, r, http.StatusUnauthorized, aerr.Reason.Message())
}
