package api

import (
	"context"
	"net/http"

	"hostelhub/internal/common/logging"
	"hostelhub/internal/common/types"
	"hostelhub/internal/rental/domain"
)

type contextKey string

const identityKey contextKey = "identity"

// WithCorrelationID resolves the request's correlation ID, generating one when
// the X-Correlation-ID header is absent, and echoes it on the response.
func WithCorrelationID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		correlationID := types.CorrelationID(r.Header.Get("X-Correlation-ID"))
		if correlationID.IsEmpty() {
			correlationID = types.NewCorrelationID()
		}

		ctx := logging.WithCorrelationID(r.Context(), correlationID)
		w.Header().Set("X-Correlation-ID", correlationID.String())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// WithIdentity resolves the authenticated caller from the X-User-ID and
// X-User-Role headers set by the upstream identity layer. Requests with
// missing or malformed headers proceed with a zero identity; the application
// layer rejects those with ErrUnauthenticated.
func WithIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		userID, uErr := domain.ParseUserID(r.Header.Get("X-User-ID"))
		role, rErr := domain.ParseRole(r.Header.Get("X-User-Role"))
		if uErr == nil && rErr == nil {
			identity := domain.Identity{UserID: userID, Role: role}
			ctx = context.WithValue(ctx, identityKey, identity)
			ctx = logging.WithActorID(ctx, userID.String())
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// identityFromContext extracts the caller's identity from context.
// Returns the zero Identity when the request carried no valid identity headers.
func identityFromContext(ctx context.Context) domain.Identity {
	if identity, ok := ctx.Value(identityKey).(domain.Identity); ok {
		return identity
	}
	return domain.Identity{}
}
