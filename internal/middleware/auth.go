package middleware

import (
	"net/http"
	"strings"

	"github.com/josh-kwaku/brokerage-ledger/internal/auth"
	"github.com/josh-kwaku/brokerage-ledger/internal/handler"
	"github.com/josh-kwaku/brokerage-ledger/internal/logging"
)

func Auth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				handler.RespondAppError(w, handler.ErrMissingToken, nil)
				return
			}

			token, found := strings.CutPrefix(header, "Bearer ")
			if !found || token == "" {
				handler.RespondAppError(w, handler.ErrInvalidToken, nil)
				return
			}

			claims, err := auth.ValidateToken(token, secret)
			if err != nil {
				logging.FromContext(r.Context()).Debug("token rejected", "error", err)
				handler.RespondAppError(w, handler.ErrInvalidToken, nil)
				return
			}

			ctx := auth.ContextWithSubject(r.Context(), claims.Subject)
			ctx = logging.WithLogger(ctx, logging.FromContext(ctx).With("subject", claims.Subject))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
