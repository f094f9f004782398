// Package httpserver manages server creation and api routing.
package httpserver

import (
	"database/sql"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/go-petr/pet-wallet/internal/accountdelivery"
	"github.com/go-petr/pet-wallet/internal/accountrepo"
	"github.com/go-petr/pet-wallet/internal/accountservice"
	"github.com/go-petr/pet-wallet/internal/balancedelivery"
	"github.com/go-petr/pet-wallet/internal/balancerepo"
	"github.com/go-petr/pet-wallet/internal/balanceservice"
	"github.com/go-petr/pet-wallet/internal/entryrepo"
	"github.com/go-petr/pet-wallet/internal/idempotencyrepo"
	"github.com/go-petr/pet-wallet/internal/middleware"
	"github.com/go-petr/pet-wallet/internal/sessiondelivery"
	"github.com/go-petr/pet-wallet/internal/sessionrepo"
	"github.com/go-petr/pet-wallet/internal/sessionservice"
	"github.com/go-petr/pet-wallet/pkg/configpkg"
	"github.com/go-petr/pet-wallet/pkg/tokenpkg"
)

// Server holds db connection, handlers router and configuration.
type Server struct {
	DB     *sql.DB
	Engine *gin.Engine
	Config configpkg.Config
}

// ServeHTTP implements the http.Handler interface for the Server type.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Engine.ServeHTTP(w, r)
}

// New creates Server type with instantiated domains and routes.
func New(conn *sql.DB, logger zerolog.Logger, config configpkg.Config) (*Server, error) {
	accountRepo := accountrepo.NewRepoPGS(conn)
	entryRepo := entryrepo.NewRepoPGS(conn)
	sessionRepo := sessionrepo.NewRepoPGS(conn)
	balanceRepo := balancerepo.NewRepoPGS(conn, config.LockTimeout)
	idempotencyRepo := idempotencyrepo.NewRepoPGS(conn, config.IdempotencyTTL)

	tokenMaker, err := tokenpkg.NewMaker(config.TokenType, config.TokenSymmetricKey)
	if err != nil {
		return nil, fmt.Errorf("cannot create token maker: %w", err)
	}

	accountService := accountservice.New(accountRepo, entryRepo)
	balanceService := balanceservice.New(balanceRepo, balanceservice.WithConflictRetries(config.ConflictRetries))

	sessionService, err := sessionservice.New(sessionRepo, config, tokenMaker)
	if err != nil {
		return nil, fmt.Errorf("cannot initialize session service: %w", err)
	}

	accountHandler := accountdelivery.NewHandler(accountService, sessionService)
	balanceHandler := balancedelivery.NewHandler(balanceService)
	sessionHandler := sessiondelivery.NewHandler(sessionService)

	engine := gin.New()

	engine.Use(middleware.RequestLogger(logger))

	engine.POST("/users", accountHandler.Create)
	engine.POST("/users/login", accountHandler.Login)
	engine.POST("/sessions", sessionHandler.RenewAccessToken)

	authRoutes := engine.Group("/", middleware.AuthMiddleware(tokenMaker))

	authRoutes.GET("/users", accountHandler.List)
	authRoutes.GET("/accounts/me", accountHandler.Me)
	authRoutes.GET("/accounts/me/entries", accountHandler.ListEntries)

	txRoutes := authRoutes.Group("/transactions", middleware.Idempotency(idempotencyRepo))

	txRoutes.POST("/deposit", balanceHandler.Deposit)
	txRoutes.POST("/withdraw", balanceHandler.Withdraw)
	txRoutes.POST("/transfer", balanceHandler.Transfer)

	server := &Server{
		DB:     conn,
		Engine: engine,
		Config: config,
	}

	return server, nil
}
