//go:build integration

package balancerepo_test

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"os"
	"testing"
	"time"

	"github.com/go-petr/pet-wallet/internal/balancerepo"
	"github.com/go-petr/pet-wallet/internal/domain"
	"github.com/go-petr/pet-wallet/internal/entryrepo"
	"github.com/go-petr/pet-wallet/internal/integrationtest/helpers"
	"github.com/go-petr/pet-wallet/pkg/configpkg"
	"github.com/go-petr/pet-wallet/pkg/dbpkg"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	_ "github.com/lib/pq"
)

var testDB *sql.DB

func TestMain(m *testing.M) {
	config, err := configpkg.Load("../../configs")
	if err != nil {
		log.Fatal("cannot load config:", err)
	}

	testDB, err = dbpkg.Setup(config.DBDriver, config.DBSource)
	if err != nil {
		log.Fatal("cannot connect to db:", err)
	}

	code := m.Run()

	_ = testDB.Close()

	os.Exit(code)
}

func add(amount string) domain.BalanceFunc {
	return func(b decimal.Decimal) (decimal.Decimal, error) {
		return b.Add(decimal.RequireFromString(amount)), nil
	}
}

func balanceOf(t *testing.T, repo *balancerepo.RepoPGS, id uuid.UUID) decimal.Decimal {
	t.Helper()

	a, err := repo.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("repo.Get(ctx, %v) returned error: %v", id, err)
	}

	return a.Balance
}

func TestUpdate(t *testing.T) {
	t.Parallel()

	repo := balancerepo.NewRepoPGS(testDB, time.Second)
	account := helpers.SeedAccountWith1000Balance(t, testDB)

	got, err := repo.Update(context.Background(), domain.BalanceUpdate{
		AccountID: account.ID,
		Kind:      domain.EntryDeposit,
		Apply:     add("500.75"),
	})
	if err != nil {
		t.Fatalf("repo.Update() returned error: %v", err)
	}

	want := decimal.RequireFromString("1500.75")
	if !got.Balance.Equal(want) {
		t.Errorf("got.Balance = %v, want %v", got.Balance, want)
	}

	entries, err := entryrepo.NewRepoPGS(testDB).List(context.Background(), account.ID, 10, 0)
	if err != nil {
		t.Fatalf("entryRepo.List() returned error: %v", err)
	}

	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want opening and deposit", len(entries))
	}

	if e := entries[0]; e.Kind != domain.EntryDeposit || !e.Amount.Equal(decimal.RequireFromString("500.75")) || !e.Balance.Equal(want) {
		t.Errorf("entries[0] = %+v, want deposit of 500.75 with balance %v", e, want)
	}
}

func TestUpdateErrors(t *testing.T) {
	t.Parallel()

	repo := balancerepo.NewRepoPGS(testDB, time.Second)
	account := helpers.SeedAccountWith1000Balance(t, testDB)

	_, err := repo.Update(context.Background(), domain.BalanceUpdate{AccountID: uuid.New(), Apply: add("1")})
	if !errors.Is(err, domain.ErrAccountNotFound) {
		t.Errorf("repo.Update(missing) returned error: %v, want %v", err, domain.ErrAccountNotFound)
	}

	// Bypasses the balance check in Apply to hit the table constraint.
	_, err = repo.Update(context.Background(), domain.BalanceUpdate{AccountID: account.ID, Apply: add("-1000.01")})
	if !errors.Is(err, domain.ErrInsufficientBalance) {
		t.Errorf("repo.Update(overdraw) returned error: %v, want %v", err, domain.ErrInsufficientBalance)
	}

	if got := balanceOf(t, repo, account.ID); !got.Equal(account.Balance) {
		t.Errorf("balance after failed updates = %v, want %v", got, account.Balance)
	}
}

func TestUpdateManyRollsBack(t *testing.T) {
	t.Parallel()

	repo := balancerepo.NewRepoPGS(testDB, time.Second)
	from := helpers.SeedAccountWith1000Balance(t, testDB)

	_, err := repo.UpdateMany(context.Background(), []domain.BalanceUpdate{
		{AccountID: from.ID, Kind: domain.EntryTransferOut, Apply: add("-100")},
		{AccountID: uuid.New(), Kind: domain.EntryTransferIn, Apply: add("100")},
	})
	if !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("repo.UpdateMany() returned error: %v, want %v", err, domain.ErrAccountNotFound)
	}

	if got := balanceOf(t, repo, from.ID); !got.Equal(from.Balance) {
		t.Errorf("balance after rolled back transfer = %v, want %v", got, from.Balance)
	}
}

func TestUpdateManyConcurrent(t *testing.T) {
	t.Parallel()

	repo := balancerepo.NewRepoPGS(testDB, 5*time.Second)
	a := helpers.SeedAccountWith1000Balance(t, testDB)
	b := helpers.SeedAccountWith1000Balance(t, testDB)

	const n = 10

	var g errgroup.Group

	// Opposite directions would deadlock without ordered locking.
	for i := 0; i < n; i++ {
		from, to := a, b
		if i%2 == 1 {
			from, to = b, a
		}

		g.Go(func() error {
			_, err := repo.UpdateMany(context.Background(), []domain.BalanceUpdate{
				{AccountID: from.ID, Kind: domain.EntryTransferOut, Apply: add("-10")},
				{AccountID: to.ID, Kind: domain.EntryTransferIn, Apply: add("10")},
			})
			return err
		})
	}

	if err := g.Wait(); err != nil {
		t.Fatalf("concurrent UpdateMany returned error: %v", err)
	}

	total := balanceOf(t, repo, a.ID).Add(balanceOf(t, repo, b.ID))
	if want := decimal.NewFromInt(2000); !total.Equal(want) {
		t.Errorf("total balance = %v, want %v", total, want)
	}
}
