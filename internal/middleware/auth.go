// Package middleware provides gin middlewares shared by all routes.
package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-petr/pet-wallet/pkg/tokenpkg"
	"github.com/go-petr/pet-wallet/pkg/web"
	"github.com/google/uuid"
)

// Authorization header values and the key of the verified token payload in gin.Context.
const (
	AuthHeaderKey  = "authorization"
	AuthTypeBearer = "bearer"
	AuthPayloadKey = "authorization_payload"
)

var (
	// ErrAuthHeaderNotFound indicates that the request has no authorization header.
	ErrAuthHeaderNotFound = errors.New("authorization header is not provided")
	// ErrBadAuthHeaderFormat indicates that the authorization header is malformed.
	ErrBadAuthHeaderFormat = errors.New("invalid authorization header format")
	// ErrUnsupportedAuthType indicates that the authorization type is not bearer.
	ErrUnsupportedAuthType = errors.New("unsupported authorization type")
)

// AddAuthorization creates a token for the account and sets it to the request header.
func AddAuthorization(
	r *http.Request,
	tokenMaker tokenpkg.Maker,
	authType string,
	accountID uuid.UUID,
	username string,
	duration time.Duration,
) error {
	token, _, err := tokenMaker.CreateToken(accountID, username, duration)
	if err != nil {
		return err
	}

	authHeader := fmt.Sprintf("%s %s", authType, token)
	r.Header.Set(AuthHeaderKey, authHeader)

	return nil
}

// AuthMiddleware verifies the bearer token and stores its payload under AuthPayloadKey.
func AuthMiddleware(tokenMaker tokenpkg.Maker) gin.HandlerFunc {
	return func(gctx *gin.Context) {
		authHeader := gctx.GetHeader(AuthHeaderKey)
		if len(authHeader) == 0 {
			gctx.AbortWithStatusJSON(http.StatusUnauthorized, web.Error(ErrAuthHeaderNotFound))
			return
		}

		fields := strings.Fields(authHeader)
		if len(fields) < 2 {
			gctx.AbortWithStatusJSON(http.StatusUnauthorized, web.Error(ErrBadAuthHeaderFormat))
			return
		}

		authType := strings.ToLower(fields[0])
		if authType != AuthTypeBearer {
			gctx.AbortWithStatusJSON(http.StatusUnauthorized, web.Error(ErrUnsupportedAuthType))
			return
		}

		payload, err := tokenMaker.VerifyToken(fields[1])
		if err != nil {
			gctx.AbortWithStatusJSON(http.StatusUnauthorized, web.Error(err))
			return
		}

		gctx.Set(AuthPayloadKey, payload)
		gctx.Next()
	}
}

// Payload returns the verified token payload set by AuthMiddleware.
func Payload(gctx *gin.Context) *tokenpkg.Payload {
	return gctx.MustGet(AuthPayloadKey).(*tokenpkg.Payload)
}
