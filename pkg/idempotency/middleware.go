// Package idempotency deduplicates retried create requests by their
// Idempotency-Key header. Deduplication is a policy layered on top of the
// lifecycle core, which itself treats every create call as independent.
package idempotency

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
)

const Header = "Idempotency-Key"

// Marker reserves and releases idempotency keys.
type Marker interface {
	Key(userID, requestKey string) string
	Seen(ctx context.Context, key string) (bool, error)
	Forget(ctx context.Context, key string) error
}

type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	return &Store{rdb: rdb, ttl: ttl}
}

func (s *Store) Key(userID, requestKey string) string {
	return fmt.Sprintf("idem:%s:%s", userID, requestKey)
}

// Seen marks the key and reports whether it was already present.
func (s *Store) Seen(ctx context.Context, key string) (bool, error) {
	ok, err := s.rdb.SetNX(ctx, key, "1", s.ttl).Result()
	if err != nil {
		return false, err
	}
	return !ok, nil
}

// Forget releases a key so the request may be retried.
func (s *Store) Forget(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, key).Err()
}

// Middleware rejects a request whose Idempotency-Key was already seen within
// the store's TTL. Requests without the header pass through untouched. The
// key is reserved before the handler runs, closing the window between two
// racing retries, and released again when the handler fails so a legitimate
// retry is not locked out.
func Middleware(log *slog.Logger, store Marker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestKey := r.Header.Get(Header)
			if requestKey == "" {
				next.ServeHTTP(w, r)
				return
			}

			key := store.Key(r.Header.Get("Authorization"), requestKey)
			seen, err := store.Seen(r.Context(), key)
			if err != nil {
				// Redis being down must not block payments.
				log.Error("idempotency check failed", "err", err)
				next.ServeHTTP(w, r)
				return
			}
			if seen {
				log.Info("duplicate request rejected", "idempotency_key", requestKey)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusConflict)
				_, _ = w.Write([]byte(`{"error":"duplicate request"}`))
				return
			}

			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)

			if sw.status >= http.StatusBadRequest {
				if err := store.Forget(r.Context(), key); err != nil {
					log.Error("idempotency key release failed", "err", err)
				}
			}
		})
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
