// Package integrationtest provides db helpers used in integration tests.
package integrationtest

import (
	"database/sql"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-petr/pet-wallet/cmd/httpserver"
	"github.com/go-petr/pet-wallet/internal/middleware"
	"github.com/go-petr/pet-wallet/pkg/configpkg"
	"github.com/go-petr/pet-wallet/pkg/dbpkg"
	"github.com/rs/zerolog"
)

// SetupServer returns test server backed by the database from the test config.
func SetupServer(t *testing.T) *httpserver.Server {
	config, err := configpkg.Load("../../configs")
	if err != nil {
		t.Fatalf(`configpkg.Load("../../configs") returned error: %v`, err)
	}

	zerolog.SetGlobalLevel(zerolog.FatalLevel)

	logger := middleware.CreateLogger(config)

	db := SetupDB(t, config.DBDriver, config.DBSource)

	gin.SetMode(gin.ReleaseMode)

	server, err := httpserver.New(db, logger, config)
	if err != nil {
		t.Fatalf(`httpserver.New(db, logger, config) returned error: %v`, err)
	}

	return server
}

// SetupDB sets up connection with database for testing.
//
// Data is not truncated afterwards since packages run against the same database in parallel.
// Tests seed random accounts and never depend on the table contents.
func SetupDB(t *testing.T, driver, source string) *sql.DB {
	t.Helper()

	db, err := dbpkg.Setup(driver, source)
	if err != nil {
		t.Fatalf("db initialization failed. err: %v", err)
	}

	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Fatalf("db cleanup failed. err: %v", err)
		}
	})

	return db
}

// SetupTX sets up a database transaction to be used in tests.
//
// Once the tests are done it will rollback the transaction.
func SetupTX(t *testing.T, driver, source string) *sql.Tx {
	t.Helper()

	db, err := dbpkg.Setup(driver, source)
	if err != nil {
		t.Fatalf("db initialization failed. err: %v", err)
	}

	tx, err := db.Begin()
	if err != nil {
		t.Fatalf("db.Begin() failed: %v", err)
	}

	t.Cleanup(func() {
		if err := tx.Rollback(); err != nil {
			t.Fatalf("tx.Rollback() failed: %v", err)
		}
		if err := db.Close(); err != nil {
			t.Fatalf("db.Close() failed: %v", err)
		}
	})

	return tx
}

// SavepointTX undoes statements made in a shared test transaction after the savepoint.
type SavepointTX struct {
	t    *testing.T
	tx   *sql.Tx
	done bool
}

// Savepoint starts a savepoint inside tx.
//
// A failed statement aborts the whole transaction, rolling back to the savepoint makes it usable again.
func Savepoint(t *testing.T, tx *sql.Tx) *SavepointTX {
	t.Helper()

	if _, err := tx.Exec("SAVEPOINT test_savepoint"); err != nil {
		t.Fatalf("SAVEPOINT failed: %v", err)
	}

	return &SavepointTX{t: t, tx: tx}
}

// Rollback rolls back to the savepoint. Only the first call has effect.
func (s *SavepointTX) Rollback() {
	s.t.Helper()

	if s.done {
		return
	}

	s.done = true

	if _, err := s.tx.Exec("ROLLBACK TO SAVEPOINT test_savepoint"); err != nil {
		s.t.Fatalf("ROLLBACK TO SAVEPOINT failed: %v", err)
	}
}
