package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-petr/pet-wallet/internal/domain"
	"github.com/go-petr/pet-wallet/pkg/errorspkg"
	"github.com/go-petr/pet-wallet/pkg/web"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Idempotency headers.
const (
	IdempotencyKeyHeader      = "Idempotency-Key"
	IdempotentReplayedHeader  = "Idempotent-Replayed"
	maxIdempotencyKeyLength   = 255
	idempotencyResponseFormat = "application/json; charset=utf-8"
	idempotencyStoreTimeout   = 5 * time.Second
)

// ErrIdempotencyKeyTooLong indicates that the Idempotency-Key header exceeds the allowed length.
var ErrIdempotencyKeyTooLong = errors.New("idempotency key is too long")

// IdempotencyStore keeps outcomes of requests made with an Idempotency-Key.
//
//go:generate mockgen -source idempotency.go -destination idempotency_mock.go -package middleware
type IdempotencyStore interface {
	Reserve(ctx context.Context, accountID uuid.UUID, key, requestHash string) (domain.IdempotencyRecord, bool, error)
	Complete(ctx context.Context, accountID uuid.UUID, key string, statusCode int, body []byte) error
	Release(ctx context.Context, accountID uuid.UUID, key string) error
}

type bodyRecorder struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *bodyRecorder) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *bodyRecorder) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

func requestHash(r *http.Request, body []byte) string {
	h := sha256.New()
	h.Write([]byte(r.Method))
	h.Write([]byte{0})
	h.Write([]byte(r.URL.Path))
	h.Write([]byte{0})
	h.Write(body)

	return hex.EncodeToString(h.Sum(nil))
}

// Idempotency replays the stored response when an authenticated request repeats its Idempotency-Key.
//
// Keys are scoped by account. Reusing a key with a different request is rejected.
// Server errors release the key so the client can retry. Requests without the header pass through.
// It must run after AuthMiddleware.
func Idempotency(store IdempotencyStore) gin.HandlerFunc {
	return func(gctx *gin.Context) {
		key := gctx.GetHeader(IdempotencyKeyHeader)
		if key == "" {
			gctx.Next()
			return
		}

		ctx := gctx.Request.Context()
		l := zerolog.Ctx(ctx)

		if len(key) > maxIdempotencyKeyLength {
			gctx.AbortWithStatusJSON(http.StatusBadRequest, web.Error(ErrIdempotencyKeyTooLong))
			return
		}

		accountID := Payload(gctx).AccountID

		body, err := io.ReadAll(gctx.Request.Body)
		if err != nil {
			l.Info().Err(err).Send()
			gctx.AbortWithStatusJSON(http.StatusBadRequest, web.Error(err))

			return
		}

		gctx.Request.Body = io.NopCloser(bytes.NewReader(body))

		hash := requestHash(gctx.Request, body)

		rec, created, err := store.Reserve(ctx, accountID, key, hash)
		if err != nil {
			if errors.Is(err, domain.ErrAccountNotFound) {
				l.Info().Err(err).Send()
				gctx.AbortWithStatusJSON(http.StatusNotFound, web.Error(domain.ErrAccountNotFound))

				return
			}

			l.Error().Err(err).Send()
			gctx.AbortWithStatusJSON(http.StatusInternalServerError, web.Error(errorspkg.ErrInternal))

			return
		}

		if !created {
			switch {
			case rec.RequestHash != hash:
				gctx.AbortWithStatusJSON(http.StatusUnprocessableEntity, web.Error(domain.ErrIdempotencyKeyReused))
			case !rec.Completed:
				gctx.AbortWithStatusJSON(http.StatusConflict, web.Error(domain.ErrIdempotencyInProgress))
			default:
				gctx.Header(IdempotentReplayedHeader, "true")
				gctx.Data(rec.StatusCode, idempotencyResponseFormat, rec.Body)
				gctx.Abort()
			}

			return
		}

		w := &bodyRecorder{ResponseWriter: gctx.Writer}
		gctx.Writer = w

		finished := false

		// Release the key if the chain panics.
		defer func() {
			if finished {
				return
			}

			releaseCtx, cancel := detachedContext(l)
			defer cancel()

			if err := store.Release(releaseCtx, accountID, key); err != nil {
				l.Error().Err(err).Msg("release idempotency key")
			}
		}()

		gctx.Next()

		finished = true

		// The outcome is stored even if the client has gone away.
		storeCtx, cancel := detachedContext(l)
		defer cancel()

		status := w.Status()
		if status >= http.StatusInternalServerError {
			if err := store.Release(storeCtx, accountID, key); err != nil {
				l.Error().Err(err).Msg("release idempotency key")
			}

			return
		}

		if err := store.Complete(storeCtx, accountID, key, status, w.body.Bytes()); err != nil {
			l.Error().Err(err).Msg("complete idempotency key")
		}
	}
}

// detachedContext returns a context that outlives the request and carries its logger.
func detachedContext(l *zerolog.Logger) (context.Context, context.CancelFunc) {
	return context.WithTimeout(l.WithContext(context.Background()), idempotencyStoreTimeout)
}
