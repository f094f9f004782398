// Package accountdelivery manages delivery layer of accounts.
package accountdelivery

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/go-petr/pet-wallet/internal/domain"
	"github.com/go-petr/pet-wallet/internal/middleware"
	"github.com/go-petr/pet-wallet/pkg/errorspkg"
	"github.com/go-petr/pet-wallet/pkg/web"
)

// Service provides service layer interface needed by account delivery layer.
//
//go:generate mockgen -source http.go -destination http_mock.go -package accountdelivery
type Service interface {
	Create(ctx context.Context, username, email, password string, balance decimal.Decimal) (domain.Account, error)
	CheckPassword(ctx context.Context, email, password string) (domain.Account, error)
	Get(ctx context.Context, id uuid.UUID) (domain.Account, error)
	List(ctx context.Context, pageSize, pageID int32) ([]domain.Account, error)
	ListEntries(ctx context.Context, accountID uuid.UUID, pageSize, pageID int32) ([]domain.Entry, error)
}

// SessionMaker facilitates session creation.
type SessionMaker interface {
	Create(ctx context.Context, arg domain.CreateSessionParams) (string, time.Time, domain.Session, error)
}

// Handler facilitates account delivery layer logic.
type Handler struct {
	service      Service
	sessionMaker SessionMaker
}

// NewHandler returns account handler.
func NewHandler(as Service, sm SessionMaker) Handler {
	return Handler{
		service:      as,
		sessionMaker: sm,
	}
}

type accountData struct {
	Account domain.Account `json:"account"`
}

func bind(gctx *gin.Context, err error) {
	l := zerolog.Ctx(gctx.Request.Context())
	l.Info().Err(err).Send()

	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		gctx.JSON(http.StatusBadRequest, web.Response{Error: web.GetErrorMsg(ve)})
		return
	}

	gctx.JSON(http.StatusBadRequest, web.Error(err))
}

// respondWithSession opens a session for the account and writes both tokens.
func (h *Handler) respondWithSession(gctx *gin.Context, account domain.Account) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	arg := domain.CreateSessionParams{
		AccountID: account.ID,
		Username:  account.Username,
		UserAgent: gctx.Request.UserAgent(),
		ClientIP:  gctx.ClientIP(),
	}

	accessToken, accessTokenExpiresAt, session, err := h.sessionMaker.Create(ctx, arg)
	if err != nil {
		l.Error().Err(err).Send()
		gctx.JSON(http.StatusInternalServerError, web.Error(errorspkg.ErrInternal))

		return
	}

	gctx.JSON(http.StatusOK, web.Response{
		AccessToken:           accessToken,
		AccessTokenExpiresAt:  accessTokenExpiresAt,
		RefreshToken:          session.RefreshToken,
		RefreshTokenExpiresAt: session.ExpiresAt,
		Data:                  accountData{Account: account},
	})
}

type createRequest struct {
	Username string          `json:"username" binding:"required,alphanum"`
	Email    string          `json:"email" binding:"required,email"`
	Password string          `json:"password" binding:"required,min=6"`
	Balance  decimal.Decimal `json:"balance"`
}

// Create handles http request to register an account.
func (h *Handler) Create(gctx *gin.Context) {
	ctx := gctx.Request.Context()

	var req createRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		bind(gctx, err)
		return
	}

	account, err := h.service.Create(ctx, req.Username, req.Email, req.Password, req.Balance)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUsernameAlreadyExists),
			errors.Is(err, domain.ErrEmailAlreadyExists):
			gctx.JSON(http.StatusConflict, web.Error(err))
		case errors.Is(err, domain.ErrInvalidAmount):
			gctx.JSON(http.StatusBadRequest, web.Error(err))
		default:
			gctx.JSON(http.StatusInternalServerError, web.Error(errorspkg.ErrInternal))
		}

		return
	}

	h.respondWithSession(gctx, account)
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

// Login handles http login request and returns account and session data.
func (h *Handler) Login(gctx *gin.Context) {
	ctx := gctx.Request.Context()

	var req loginRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		bind(gctx, err)
		return
	}

	account, err := h.service.CheckPassword(ctx, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrAccountNotFound):
			gctx.JSON(http.StatusNotFound, web.Error(domain.ErrAccountNotFound))
		case errors.Is(err, domain.ErrWrongPassword):
			gctx.JSON(http.StatusUnauthorized, web.Error(err))
		default:
			gctx.JSON(http.StatusInternalServerError, web.Error(errorspkg.ErrInternal))
		}

		return
	}

	h.respondWithSession(gctx, account)
}

// Me handles http request to get the authenticated account.
func (h *Handler) Me(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(ctx)

	account, err := h.service.Get(ctx, middleware.Payload(gctx).AccountID)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			gctx.JSON(http.StatusNotFound, web.Error(domain.ErrAccountNotFound))
			return
		}

		l.Error().Err(err).Send()
		gctx.JSON(http.StatusInternalServerError, web.Error(errorspkg.ErrInternal))

		return
	}

	gctx.JSON(http.StatusOK, web.Response{Data: accountData{Account: account}})
}

type pageRequest struct {
	PageID   int32 `form:"page_id" binding:"required,min=1"`
	PageSize int32 `form:"page_size" binding:"required,min=1,max=100"`
}

type accountsData struct {
	Accounts []domain.Account `json:"accounts"`
}

// List handles http request to list accounts.
func (h *Handler) List(gctx *gin.Context) {
	ctx := gctx.Request.Context()

	var req pageRequest
	if err := gctx.ShouldBindQuery(&req); err != nil {
		bind(gctx, err)
		return
	}

	accounts, err := h.service.List(ctx, req.PageSize, req.PageID)
	if err != nil {
		gctx.JSON(http.StatusInternalServerError, web.Error(errorspkg.ErrInternal))
		return
	}

	gctx.JSON(http.StatusOK, web.Response{Data: accountsData{Accounts: accounts}})
}

type entriesData struct {
	Entries []domain.Entry `json:"entries"`
}

// ListEntries handles http request to list balance changes of the authenticated account.
func (h *Handler) ListEntries(gctx *gin.Context) {
	ctx := gctx.Request.Context()

	var req pageRequest
	if err := gctx.ShouldBindQuery(&req); err != nil {
		bind(gctx, err)
		return
	}

	entries, err := h.service.ListEntries(ctx, middleware.Payload(gctx).AccountID, req.PageSize, req.PageID)
	if err != nil {
		gctx.JSON(http.StatusInternalServerError, web.Error(errorspkg.ErrInternal))
		return
	}

	gctx.JSON(http.StatusOK, web.Response{Data: entriesData{Entries: entries}})
}
