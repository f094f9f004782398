package balancedelivery

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-petr/pet-wallet/internal/domain"
	"github.com/go-petr/pet-wallet/internal/middleware"
	"github.com/go-petr/pet-wallet/pkg/errorspkg"
	"github.com/go-petr/pet-wallet/pkg/randompkg"
	"github.com/go-petr/pet-wallet/pkg/tokenpkg"
	"github.com/golang/mock/gomock"
	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// eqParams matches service arguments comparing amounts by value.
type eqParams struct {
	want any
}

func (m eqParams) Matches(x any) bool {
	return cmp.Equal(m.want, x)
}

func (m eqParams) String() string {
	return fmt.Sprintf("is equal to %+v", m.want)
}

type responseBody struct {
	Message string `json:"message"`
	Data    struct {
		Balance decimal.Decimal `json:"balance"`
	} `json:"data"`
	Error string `json:"error"`
}

func randomAccount(balance string) domain.Account {
	return domain.Account{
		ID:        uuid.New(),
		Username:  randompkg.Username(),
		Email:     randompkg.Email(),
		Balance:   decimal.RequireFromString(balance),
		CreatedAt: time.Now().Truncate(time.Second).UTC(),
	}
}

func setupServer(t *testing.T, service Service) (*gin.Engine, tokenpkg.Maker) {
	t.Helper()

	tokenMaker, err := tokenpkg.NewPasetoMaker(randompkg.String(32))
	if err != nil {
		t.Fatalf("tokenpkg.NewPasetoMaker() returned error: %v", err)
	}

	h := NewHandler(service)

	gin.SetMode(gin.ReleaseMode)
	server := gin.New()

	g := server.Group("/transactions", middleware.AuthMiddleware(tokenMaker))
	g.POST("/deposit", h.Deposit)
	g.POST("/withdraw", h.Withdraw)
	g.POST("/transfer", h.Transfer)

	return server, tokenMaker
}

func doRequest(t *testing.T, server *gin.Engine, tokenMaker tokenpkg.Maker, account domain.Account, path string, body any) (*httptest.ResponseRecorder, responseBody) {
	t.Helper()

	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("json.Marshal(%v) returned error: %v", body, err)
	}

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))

	if account.ID != uuid.Nil {
		err = middleware.AddAuthorization(request, tokenMaker, middleware.AuthTypeBearer, account.ID, account.Username, time.Minute)
		if err != nil {
			t.Fatalf("middleware.AddAuthorization() returned error: %v", err)
		}
	}

	server.ServeHTTP(recorder, request)

	var got responseBody
	if err := json.Unmarshal(recorder.Body.Bytes(), &got); err != nil {
		t.Fatalf("json.Unmarshal(%s) returned error: %v", recorder.Body.String(), err)
	}

	return recorder, got
}

func TestDepositAPI(t *testing.T) {
	account := randomAccount("1000")

	testCases := []struct {
		name        string
		account     domain.Account
		body        any
		buildStubs  func(service *MockService)
		wantStatus  int
		wantBalance string
		wantError   string
	}{
		{
			name:    "OK",
			account: account,
			body:    gin.H{"amount": "500"},
			buildStubs: func(service *MockService) {
				arg := domain.DepositParams{AccountID: account.ID, Amount: decimal.NewFromInt(500)}
				updated := account
				updated.Balance = decimal.NewFromInt(1500)
				service.EXPECT().Deposit(gomock.Any(), eqParams{arg}).Times(1).Return(updated, nil)
			},
			wantStatus:  http.StatusOK,
			wantBalance: "1500",
		},
		{
			name:    "NumericAmount",
			account: account,
			body:    gin.H{"amount": 100.25},
			buildStubs: func(service *MockService) {
				arg := domain.DepositParams{AccountID: account.ID, Amount: decimal.RequireFromString("100.25")}
				updated := account
				updated.Balance = decimal.RequireFromString("1100.25")
				service.EXPECT().Deposit(gomock.Any(), eqParams{arg}).Times(1).Return(updated, nil)
			},
			wantStatus:  http.StatusOK,
			wantBalance: "1100.25",
		},
		{
			name:    "NoAuthorization",
			body:    gin.H{"amount": "500"},
			buildStubs: func(service *MockService) {
				service.EXPECT().Deposit(gomock.Any(), gomock.Any()).Times(0)
			},
			wantStatus: http.StatusUnauthorized,
			wantError:  middleware.ErrAuthHeaderNotFound.Error(),
		},
		{
			name:    "MalformedAmount",
			account: account,
			body:    gin.H{"amount": "abc"},
			buildStubs: func(service *MockService) {
				service.EXPECT().Deposit(gomock.Any(), gomock.Any()).Times(0)
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:    "InvalidAmount",
			account: account,
			body:    gin.H{"amount": "-5"},
			buildStubs: func(service *MockService) {
				service.EXPECT().Deposit(gomock.Any(), gomock.Any()).Times(1).Return(domain.Account{}, domain.ErrInvalidAmount)
			},
			wantStatus: http.StatusBadRequest,
			wantError:  domain.ErrInvalidAmount.Error(),
		},
		{
			name:    "AccountNotFound",
			account: account,
			body:    gin.H{"amount": "5"},
			buildStubs: func(service *MockService) {
				service.EXPECT().Deposit(gomock.Any(), gomock.Any()).Times(1).
					Return(domain.Account{}, domain.NewAccountNotFoundError(account.ID))
			},
			wantStatus: http.StatusNotFound,
			wantError:  domain.ErrAccountNotFound.Error(),
		},
		{
			name:    "Conflict",
			account: account,
			body:    gin.H{"amount": "5"},
			buildStubs: func(service *MockService) {
				service.EXPECT().Deposit(gomock.Any(), gomock.Any()).Times(1).Return(domain.Account{}, domain.ErrConflict)
			},
			wantStatus: http.StatusConflict,
			wantError:  domain.ErrConflict.Error(),
		},
		{
			name:    "InternalError",
			account: account,
			body:    gin.H{"amount": "5"},
			buildStubs: func(service *MockService) {
				service.EXPECT().Deposit(gomock.Any(), gomock.Any()).Times(1).Return(domain.Account{}, errorspkg.ErrInternal)
			},
			wantStatus: http.StatusInternalServerError,
			wantError:  errorspkg.ErrInternal.Error(),
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			service := NewMockService(ctrl)
			tc.buildStubs(service)

			server, tokenMaker := setupServer(t, service)

			recorder, got := doRequest(t, server, tokenMaker, tc.account, "/transactions/deposit", tc.body)

			if recorder.Code != tc.wantStatus {
				t.Errorf("recorder.Code = %v, want %v", recorder.Code, tc.wantStatus)
			}

			if tc.wantError != "" && got.Error != tc.wantError {
				t.Errorf("got.Error = %q, want %q", got.Error, tc.wantError)
			}

			if tc.wantBalance == "" {
				return
			}

			if !got.Data.Balance.Equal(decimal.RequireFromString(tc.wantBalance)) {
				t.Errorf("got.Data.Balance = %v, want %v", got.Data.Balance, tc.wantBalance)
			}

			if got.Message != MsgDeposited {
				t.Errorf("got.Message = %q, want %q", got.Message, MsgDeposited)
			}
		})
	}
}

func TestWithdrawAPI(t *testing.T) {
	account := randomAccount("100")

	testCases := []struct {
		name        string
		body        any
		buildStubs  func(service *MockService)
		wantStatus  int
		wantBalance string
		wantError   string
	}{
		{
			name: "OK",
			body: gin.H{"amount": "40"},
			buildStubs: func(service *MockService) {
				arg := domain.WithdrawParams{AccountID: account.ID, Amount: decimal.NewFromInt(40)}
				updated := account
				updated.Balance = decimal.NewFromInt(60)
				service.EXPECT().Withdraw(gomock.Any(), eqParams{arg}).Times(1).Return(updated, nil)
			},
			wantStatus:  http.StatusOK,
			wantBalance: "60",
		},
		{
			name: "InsufficientBalance",
			body: gin.H{"amount": "400"},
			buildStubs: func(service *MockService) {
				service.EXPECT().Withdraw(gomock.Any(), gomock.Any()).Times(1).Return(domain.Account{}, domain.ErrInsufficientBalance)
			},
			wantStatus: http.StatusBadRequest,
			wantError:  domain.ErrInsufficientBalance.Error(),
		},
		{
			name: "MissingAmount",
			body: gin.H{},
			buildStubs: func(service *MockService) {
				arg := domain.WithdrawParams{AccountID: account.ID}
				service.EXPECT().Withdraw(gomock.Any(), eqParams{arg}).Times(1).Return(domain.Account{}, domain.ErrInvalidAmount)
			},
			wantStatus: http.StatusBadRequest,
			wantError:  domain.ErrInvalidAmount.Error(),
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			service := NewMockService(ctrl)
			tc.buildStubs(service)

			server, tokenMaker := setupServer(t, service)

			recorder, got := doRequest(t, server, tokenMaker, account, "/transactions/withdraw", tc.body)

			if recorder.Code != tc.wantStatus {
				t.Errorf("recorder.Code = %v, want %v", recorder.Code, tc.wantStatus)
			}

			if tc.wantError != "" && got.Error != tc.wantError {
				t.Errorf("got.Error = %q, want %q", got.Error, tc.wantError)
			}

			if tc.wantBalance != "" && !got.Data.Balance.Equal(decimal.RequireFromString(tc.wantBalance)) {
				t.Errorf("got.Data.Balance = %v, want %v", got.Data.Balance, tc.wantBalance)
			}
		})
	}
}

func TestTransferAPI(t *testing.T) {
	from := randomAccount("100")
	to := randomAccount("50")

	testCases := []struct {
		name        string
		body        any
		buildStubs  func(service *MockService)
		wantStatus  int
		wantBalance string
		wantError   string
	}{
		{
			name: "OK",
			body: gin.H{"to_account_id": to.ID, "amount": "60"},
			buildStubs: func(service *MockService) {
				arg := domain.TransferParams{FromAccountID: from.ID, ToAccountID: to.ID, Amount: decimal.NewFromInt(60)}
				updated := from
				updated.Balance = decimal.NewFromInt(40)
				service.EXPECT().Transfer(gomock.Any(), eqParams{arg}).Times(1).Return(updated, nil)
			},
			wantStatus:  http.StatusOK,
			wantBalance: "40",
		},
		{
			name: "MissingTarget",
			body: gin.H{"amount": "60"},
			buildStubs: func(service *MockService) {
				service.EXPECT().Transfer(gomock.Any(), gomock.Any()).Times(0)
			},
			wantStatus: http.StatusBadRequest,
			wantError:  "ToAccountID field is required",
		},
		{
			name: "InvalidTarget",
			body: gin.H{"to_account_id": "42", "amount": "60"},
			buildStubs: func(service *MockService) {
				service.EXPECT().Transfer(gomock.Any(), gomock.Any()).Times(0)
			},
			wantStatus: http.StatusBadRequest,
			wantError:  "ToAccountID field must be a valid uuid",
		},
		{
			name: "SelfTransfer",
			body: gin.H{"to_account_id": from.ID, "amount": "60"},
			buildStubs: func(service *MockService) {
				service.EXPECT().Transfer(gomock.Any(), gomock.Any()).Times(1).Return(domain.Account{}, domain.ErrSelfTransfer)
			},
			wantStatus: http.StatusBadRequest,
			wantError:  domain.ErrSelfTransfer.Error(),
		},
		{
			name: "TargetNotFound",
			body: gin.H{"to_account_id": to.ID, "amount": "60"},
			buildStubs: func(service *MockService) {
				service.EXPECT().Transfer(gomock.Any(), gomock.Any()).Times(1).
					Return(domain.Account{}, domain.NewAccountNotFoundError(to.ID))
			},
			wantStatus: http.StatusNotFound,
			wantError:  domain.ErrAccountNotFound.Error(),
		},
		{
			name: "InsufficientBalance",
			body: gin.H{"to_account_id": to.ID, "amount": "600"},
			buildStubs: func(service *MockService) {
				service.EXPECT().Transfer(gomock.Any(), gomock.Any()).Times(1).Return(domain.Account{}, domain.ErrInsufficientBalance)
			},
			wantStatus: http.StatusBadRequest,
			wantError:  domain.ErrInsufficientBalance.Error(),
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			service := NewMockService(ctrl)
			tc.buildStubs(service)

			server, tokenMaker := setupServer(t, service)

			recorder, got := doRequest(t, server, tokenMaker, from, "/transactions/transfer", tc.body)

			if recorder.Code != tc.wantStatus {
				t.Errorf("recorder.Code = %v, want %v", recorder.Code, tc.wantStatus)
			}

			if tc.wantError != "" && got.Error != tc.wantError {
				t.Errorf("got.Error = %q, want %q", got.Error, tc.wantError)
			}

			if tc.wantBalance != "" && !got.Data.Balance.Equal(decimal.RequireFromString(tc.wantBalance)) {
				t.Errorf("got.Data.Balance = %v, want %v", got.Data.Balance, tc.wantBalance)
			}
		})
	}
}
