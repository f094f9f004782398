// Package balancedelivery manages delivery layer of deposits, withdrawals and transfers.
package balancedelivery

import (
	"context"
	"errors"
	"net/http"

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

// Service provides service layer interface needed by balance delivery layer.
//
//go:generate mockgen -source http.go -destination http_mock.go -package balancedelivery
type Service interface {
	Deposit(ctx context.Context, arg domain.DepositParams) (domain.Account, error)
	Withdraw(ctx context.Context, arg domain.WithdrawParams) (domain.Account, error)
	Transfer(ctx context.Context, arg domain.TransferParams) (domain.Account, error)
}

// Handler facilitates balance delivery layer logic.
type Handler struct {
	service Service
}

// NewHandler returns balance handler.
func NewHandler(bs Service) Handler {
	return Handler{service: bs}
}

// Response messages.
const (
	MsgDeposited   = "deposit successful"
	MsgWithdrawn   = "withdrawal successful"
	MsgTransferred = "transfer successful"
)

type data struct {
	Balance decimal.Decimal `json:"balance"`
}

// Amounts are accepted both as JSON numbers and strings.
type amountRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type transferRequest struct {
	ToAccountID string          `json:"to_account_id" binding:"required,uuid"`
	Amount      decimal.Decimal `json:"amount"`
}

func bindJSON(gctx *gin.Context, req any) bool {
	l := zerolog.Ctx(gctx.Request.Context())

	if err := gctx.ShouldBindJSON(req); err != nil {
		l.Info().Err(err).Send()

		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			gctx.JSON(http.StatusBadRequest, web.Response{Error: web.GetErrorMsg(ve)})
			return false
		}

		gctx.JSON(http.StatusBadRequest, web.Error(err))

		return false
	}

	return true
}

// respond writes the new balance of the account or maps the service error to the status code.
func respond(gctx *gin.Context, msg string, account domain.Account, err error) {
	l := zerolog.Ctx(gctx.Request.Context())

	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidAmount),
			errors.Is(err, domain.ErrInsufficientBalance),
			errors.Is(err, domain.ErrSelfTransfer):
			l.Info().Err(err).Send()
			gctx.JSON(http.StatusBadRequest, web.Error(err))
		case errors.Is(err, domain.ErrAccountNotFound):
			l.Info().Err(err).Send()
			gctx.JSON(http.StatusNotFound, web.Error(domain.ErrAccountNotFound))
		case errors.Is(err, domain.ErrConflict):
			l.Warn().Err(err).Send()
			gctx.JSON(http.StatusConflict, web.Error(err))
		default:
			l.Error().Err(err).Send()
			gctx.JSON(http.StatusInternalServerError, web.Error(errorspkg.ErrInternal))
		}

		return
	}

	gctx.JSON(http.StatusOK, web.Response{
		Message: msg,
		Data:    data{Balance: account.Balance},
	})
}

// Deposit handles http request to add money to the authenticated account.
func (h *Handler) Deposit(gctx *gin.Context) {
	ctx := gctx.Request.Context()

	var req amountRequest
	if !bindJSON(gctx, &req) {
		return
	}

	arg := domain.DepositParams{
		AccountID: middleware.Payload(gctx).AccountID,
		Amount:    req.Amount,
	}

	account, err := h.service.Deposit(ctx, arg)
	respond(gctx, MsgDeposited, account, err)
}

// Withdraw handles http request to take money from the authenticated account.
func (h *Handler) Withdraw(gctx *gin.Context) {
	ctx := gctx.Request.Context()

	var req amountRequest
	if !bindJSON(gctx, &req) {
		return
	}

	arg := domain.WithdrawParams{
		AccountID: middleware.Payload(gctx).AccountID,
		Amount:    req.Amount,
	}

	account, err := h.service.Withdraw(ctx, arg)
	respond(gctx, MsgWithdrawn, account, err)
}

// Transfer handles http request to move money from the authenticated account to another one.
func (h *Handler) Transfer(gctx *gin.Context) {
	ctx := gctx.Request.Context()

	var req transferRequest
	if !bindJSON(gctx, &req) {
		return
	}

	arg := domain.TransferParams{
		FromAccountID: middleware.Payload(gctx).AccountID,
		ToAccountID:   uuid.MustParse(req.ToAccountID),
		Amount:        req.Amount,
	}

	account, err := h.service.Transfer(ctx, arg)
	respond(gctx, MsgTransferred, account, err)
}
