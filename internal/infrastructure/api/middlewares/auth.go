package middlewares

import (
	"context"
	"crypto/subtle"
	"net/http"

	"github.com/go-chi/jwtauth/v5"
	"github.com/google/uuid"

	"github.com/Gimbo67/evokeessence-crypto-exchange-sub002/internal/domain/models"
	"github.com/Gimbo67/evokeessence-crypto-exchange-sub002/internal/errors"
)

type principalKey struct{}

// Claims read from the bearer token.
const (
	ClaimSubject = "sub"
	ClaimUserID  = "userId"
	ClaimIsAdmin = "is_admin"
)

// NewJWTAuth builds the HS256 verifier used by Verifier and by token issuing tools.
func NewJWTAuth(secret string) *jwtauth.JWTAuth {
	return jwtauth.New("HS256", []byte(secret), nil)
}

// Verifier looks for the token in the Authorization header, then the jwt query
// parameter used by WebSocket clients, then the jwt cookie.
func Verifier(ja *jwtauth.JWTAuth) func(http.Handler) http.Handler {
	return jwtauth.Verify(ja, jwtauth.TokenFromHeader, jwtauth.TokenFromQuery, jwtauth.TokenFromCookie)
}

// Authenticator turns verified claims into a models.Principal. It must run after Verifier.
func Authenticator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, claims, err := jwtauth.FromContext(r.Context())
		if err != nil || token == nil {
			errors.HandleHTTPError(w, errors.NewUnauthorizedError("invalid or missing token"))
			return
		}

		principal := principalFromClaims(claims)
		if principal.UserID == "" {
			errors.HandleHTTPError(w, errors.NewUnauthorizedError("token has no subject"))
			return
		}
		// user ids are UUIDs; anything else never names a user
		if _, err = uuid.Parse(principal.UserID); err != nil {
			errors.HandleHTTPError(w, errors.NewUnauthorizedError("token subject is not a user id"))
			return
		}

		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
	})
}

// RequireAdmin rejects callers whose token does not carry the admin flag.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, ok := PrincipalFromContext(r.Context())
		if !ok || !principal.IsAdmin {
			errors.HandleHTTPError(w, errors.NewForbiddenError(errors.ErrAdminRequired))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// InternalToken guards service to service endpoints. An unset token rejects every call.
func InternalToken(header, token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get(header)
			if token == "" || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				errors.HandleHTTPError(w, errors.NewForbiddenError(errors.ErrInvalidInternalToken))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func WithPrincipal(ctx context.Context, p models.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func PrincipalFromContext(ctx context.Context) (models.Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(models.Principal)
	return p, ok
}

func principalFromClaims(claims map[string]interface{}) models.Principal {
	id, _ := claims[ClaimSubject].(string)
	if id == "" {
		id, _ = claims[ClaimUserID].(string)
	}
	return models.Principal{UserID: id, IsAdmin: models.ParseFlag(claims[ClaimIsAdmin])}
}
