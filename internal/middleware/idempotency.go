package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/josh-kwaku/brokerage-ledger/internal/auth"
	"github.com/josh-kwaku/brokerage-ledger/internal/handler"
	"github.com/josh-kwaku/brokerage-ledger/internal/logging"
	"github.com/josh-kwaku/brokerage-ledger/internal/repository"
)

type idempotencyRepository interface {
	Reserve(ctx context.Context, key, subject string) (*repository.IdempotencyCacheEntry, bool, error)
	Set(ctx context.Context, entry *repository.IdempotencyCacheEntry) error
	Release(ctx context.Context, key, subject string) error
}

const maxIdempotentBody = 1 << 20

// Idempotency replays the stored response for a repeated Idempotency-Key.
// Reusing a key with a different request is a conflict, and so is reusing
// it while the first request is still running. Server errors are not
// cached so the client may retry them.
func Idempotency(repo idempotencyRepository, ttl time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet || r.Method == http.MethodHead || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			log := logging.FromContext(r.Context())

			key := r.Header.Get("Idempotency-Key")
			if key == "" {
				handler.RespondAppError(w, handler.ErrMissingIdempotencyKey, nil)
				return
			}

			subject, ok := auth.SubjectFromContext(r.Context())
			if !ok {
				subject = auth.AnonymousSubject
			}

			body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxIdempotentBody))
			if err != nil {
				var tooLarge *http.MaxBytesError
				if errors.As(err, &tooLarge) {
					handler.RespondAppError(w, handler.ErrRequestTooLarge, nil)
					return
				}
				handler.RespondAppError(w, handler.ErrInvalidRequest, nil)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			reqHash := computeHash(r.Method, r.URL.Path, body)

			cached, reserved, err := repo.Reserve(r.Context(), key, subject)
			if err != nil {
				log.Error("idempotency reservation failed", "error", err, "idempotency_key", key)
				handler.RespondAppError(w, handler.ErrInternalError, nil)
				return
			}

			if cached != nil {
				if cached.RequestHash != reqHash {
					handler.RespondAppError(w, handler.ErrIdempotencyConflict, nil)
					return
				}

				if cached.ContentType != "" {
					w.Header().Set("Content-Type", cached.ContentType)
				}
				w.Header().Set("X-Idempotent-Replayed", "true")
				w.WriteHeader(cached.StatusCode)
				if _, err := w.Write(cached.ResponseBody); err != nil {
					log.Error("failed to write idempotent replay", "error", err, "idempotency_key", key)
				}
				return
			}
			if !reserved {
				handler.RespondAppError(w, handler.ErrIdempotencyInProgress, nil)
				return
			}

			stored := false
			defer func() {
				if stored {
					return
				}
				if err := repo.Release(context.WithoutCancel(r.Context()), key, subject); err != nil {
					log.Error("idempotency release failed", "error", err, "idempotency_key", key)
				}
			}()

			rec := &responseRecorder{ResponseWriter: w, body: &bytes.Buffer{}, statusCode: http.StatusOK}
			next.ServeHTTP(rec, r)

			if rec.statusCode >= http.StatusInternalServerError {
				return
			}

			now := time.Now().UTC()
			entry := &repository.IdempotencyCacheEntry{
				Key:          key,
				Subject:      subject,
				RequestHash:  reqHash,
				StatusCode:   rec.statusCode,
				ContentType:  rec.Header().Get("Content-Type"),
				ResponseBody: rec.body.Bytes(),
				CreatedAt:    now,
				ExpiresAt:    now.Add(ttl),
			}
			if err := repo.Set(context.WithoutCancel(r.Context()), entry); err != nil {
				log.Error("idempotency cache store failed", "error", err, "idempotency_key", key)
				return
			}
			stored = true
		})
	}
}

func computeHash(method, path string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(method))
	h.Write([]byte(path))
	h.Write(body)
	return fmt.Sprintf("%x", h.Sum(nil))
}

type responseRecorder struct {
	http.ResponseWriter
	statusCode int
	body       *bytes.Buffer
}

func (r *responseRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}
