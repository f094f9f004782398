// Package helpers provides shared test helpers to seed the database.
package helpers

import (
	"context"
	"testing"
	"time"

	"github.com/go-petr/pet-wallet/internal/accountrepo"
	"github.com/go-petr/pet-wallet/internal/domain"
	"github.com/go-petr/pet-wallet/internal/entryrepo"
	"github.com/go-petr/pet-wallet/internal/sessionrepo"
	"github.com/go-petr/pet-wallet/pkg/dbpkg"
	"github.com/go-petr/pet-wallet/pkg/passpkg"
	"github.com/go-petr/pet-wallet/pkg/randompkg"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SeedAccount creates random Account with the given balance.
func SeedAccount(t *testing.T, db dbpkg.SQLInterface, balance decimal.Decimal) domain.Account {
	t.Helper()

	return SeedAccountWithPassword(t, db, randompkg.String(32), balance)
}

// SeedAccountWith1000Balance creates random Account with the 1000 balance.
func SeedAccountWith1000Balance(t *testing.T, db dbpkg.SQLInterface) domain.Account {
	t.Helper()

	return SeedAccount(t, db, decimal.NewFromInt(1000))
}

// SeedAccountWithPassword creates random Account that can log in with the given password.
func SeedAccountWithPassword(t *testing.T, db dbpkg.SQLInterface, password string, balance decimal.Decimal) domain.Account {
	t.Helper()

	hashedPassword, err := passpkg.Hash(password)
	if err != nil {
		t.Fatalf("passpkg.Hash(%v) returned error: %v", password, err)
	}

	arg := domain.CreateAccountParams{
		Username:       randompkg.Username(),
		Email:          randompkg.Email(),
		HashedPassword: hashedPassword,
		Balance:        balance,
	}

	accountRepo := accountrepo.NewRepoPGS(db)

	account, err := accountRepo.Create(context.Background(), arg)
	if err != nil {
		t.Fatalf("accountRepo.Create(context.Background(), %+v) returned error: %v", arg, err)
	}

	return account
}

// SeedEntry records the balance change of the account without touching the balance itself.
func SeedEntry(t *testing.T, db dbpkg.SQLInterface, account domain.Account, amount decimal.Decimal) domain.Entry {
	t.Helper()

	arg := domain.CreateEntryParams{
		AccountID: account.ID,
		Kind:      domain.EntryDeposit,
		Amount:    amount,
		Balance:   account.Balance.Add(amount),
	}

	entryRepo := entryrepo.NewRepoPGS(db)

	entry, err := entryRepo.Create(context.Background(), arg)
	if err != nil {
		t.Fatalf("entryRepo.Create(context.Background(), %+v) returned error: %v", arg, err)
	}

	return entry
}

// SeedEntries creates count entries with random amounts for the account.
func SeedEntries(t *testing.T, db dbpkg.SQLInterface, account domain.Account, count int) []domain.Entry {
	t.Helper()

	entries := make([]domain.Entry, count)

	for i := range entries {
		entries[i] = SeedEntry(t, db, account, randompkg.MoneyAmountBetween(1, 100))
	}

	return entries
}

// SeedSession creates a session of the account that expires after the duration.
func SeedSession(t *testing.T, db dbpkg.SQLInterface, account domain.Account, duration time.Duration) domain.Session {
	t.Helper()

	arg := domain.CreateSessionParams{
		ID:           uuid.New(),
		AccountID:    account.ID,
		Username:     account.Username,
		RefreshToken: randompkg.String(32),
		UserAgent:    randompkg.String(10),
		ClientIP:     randompkg.String(10),
		ExpiresAt:    time.Now().Add(duration).Truncate(time.Second).UTC(),
	}

	sessionRepo := sessionrepo.NewRepoPGS(db)

	session, err := sessionRepo.Create(context.Background(), arg)
	if err != nil {
		t.Fatalf("sessionRepo.Create(context.Background(), %+v) returned error: %v", arg, err)
	}

	return session
}
