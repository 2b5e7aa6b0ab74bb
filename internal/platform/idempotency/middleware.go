package idempotency

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/lembar-pintar/studio/internal/platform/auth"
	"github.com/lembar-pintar/studio/internal/platform/httpx"
	"github.com/lembar-pintar/studio/internal/platform/requestctx"
)

const replayHeader = "X-Idempotent-Replay"

type options struct {
	header   string
	ttl      time.Duration
	required bool
}

type Option func(*options)

func WithHeader(name string) Option {
	return func(o *options) {
		if name = strings.TrimSpace(name); name != "" {
			o.header = name
		}
	}
}

func WithTTL(ttl time.Duration) Option {
	return func(o *options) {
		if ttl > 0 {
			o.ttl = ttl
		}
	}
}

// Required rejects mutating requests that carry no key.
func Required() Option {
	return func(o *options) { o.required = true }
}

// Middleware guards POST, PUT, PATCH and DELETE. Requests without a key pass
// through unless Required is set.
func Middleware(store Store, opts ...Option) func(http.Handler) http.Handler {
	o := options{header: "Idempotency-Key", ttl: 24 * time.Hour}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return func(next http.Handler) http.Handler {
		if store == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
			default:
				next.ServeHTTP(w, r)
				return
			}
			ctx := r.Context()
			key := strings.TrimSpace(r.Header.Get(o.header))
			if key == "" {
				if o.required {
					httpx.WriteError(ctx, w, httpx.BadRequest("idempotency_key_required", "missing "+o.header+" header"))
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				httpx.WriteError(ctx, w, httpx.BadRequest("invalid_body", "unable to read request body"))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			caller := "anonymous"
			if id, ok := auth.IdentityFromContext(ctx); ok {
				caller = id.UID
			}
			scoped := hashHex([]byte(caller + "|" + key))
			fingerprint := hashHex([]byte(r.Method + "|" + r.URL.Path + "|" + r.URL.RawQuery + "|" + hashHex(body)))

			state, stored, err := store.Reserve(ctx, scoped, fingerprint, o.ttl)
			switch {
			case errors.Is(err, ErrFingerprintMismatch):
				httpx.WriteError(ctx, w, httpx.NewError("idempotency_key_conflict", "idempotency key already used for a different request", http.StatusConflict))
				return
			case err != nil:
				requestctx.Logger(ctx).Error("idempotency: reserve failed", zap.Error(err))
				httpx.WriteError(ctx, w, httpx.Internal())
				return
			}
			switch state {
			case StateCompleted:
				replay(w, stored)
				return
			case StatePending:
				httpx.WriteError(ctx, w, httpx.NewError("idempotency_in_progress", "another request is processing this key", http.StatusConflict))
				return
			}

			rec := &recorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			// Server errors are not cached so the client may retry.
			if rec.status >= 500 {
				if err := store.Release(ctx, scoped); err != nil {
					requestctx.Logger(ctx).Warn("idempotency: release failed", zap.Error(err))
				}
				return
			}
			resp := Response{Status: rec.status, Header: w.Header().Clone(), Body: rec.body.Bytes()}
			if err := store.Complete(ctx, scoped, fingerprint, resp, o.ttl); err != nil {
				requestctx.Logger(ctx).Warn("idempotency: save failed", zap.Error(err))
			}
		})
	}
}

func replay(w http.ResponseWriter, resp Response) {
	for k, values := range resp.Header {
		for _, v := range values {
			w.Header().Add(k, v)
		}
	}
	w.Header().Set(replayHeader, "true")
	status := resp.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	_, _ = w.Write(resp.Body)
}

// recorder tees the response to the client and a buffer.
type recorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
	body        bytes.Buffer
}

func (r *recorder) WriteHeader(status int) {
	if !r.wroteHeader {
		r.status = status
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(status)
}

func (r *recorder) Write(p []byte) (int, error) {
	r.wroteHeader = true
	r.body.Write(p)
	return r.ResponseWriter.Write(p)
}
