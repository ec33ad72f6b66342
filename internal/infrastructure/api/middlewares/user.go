package middlewares

import (
	"context"
	"net/http"
	"time"

	"github.com/Gimbo67/evokeessence-crypto-exchange-sub002/internal/errors"
	"github.com/Gimbo67/evokeessence-crypto-exchange-sub002/internal/usecases/interactor"
	"github.com/Gimbo67/evokeessence-crypto-exchange-sub002/pkg/log"
)

// UserValidationMiddleware rejects principals whose user no longer exists.
func UserValidationMiddleware(userInt *interactor.UserInteractor) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := log.GetLogger()
			principal, ok := PrincipalFromContext(r.Context())
			if !ok {
				errors.HandleHTTPError(w, errors.NewUnauthorizedError("invalid or missing token"))
				return
			}

			ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
			defer cancel()
			if exists, err := userInt.ExistsByID(ctx, principal.UserID); !exists {
				logger.Warn().Err(err).Str("user_id", principal.UserID).Msg(errors.ErrInvalidUserID)
				errors.HandleHTTPError(w, err)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
