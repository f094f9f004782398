package tokenpkg

import (
	"testing"
	"time"

	"github.com/go-petr/pet-wallet/pkg/randompkg"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"
)

func TestPasetoMaker(t *testing.T) {
	t.Parallel()

	secretKey := randompkg.String(32)

	maker, err := NewPasetoMaker(secretKey)
	if err != nil {
		t.Fatalf("NewPasetoMaker(%v) returned error: %v", secretKey, err)
	}

	accountID := uuid.New()
	username := randompkg.Username()
	duration := time.Minute

	token, payload, err := maker.CreateToken(accountID, username, duration)
	if err != nil {
		t.Fatalf("maker.CreateToken(%v, %v, %v) returned error: %v", accountID, username, duration, err)
	}

	got, err := maker.VerifyToken(token)
	if err != nil {
		t.Fatalf("maker.VerifyToken(%v) returned error: %v", token, err)
	}

	want := &Payload{
		AccountID: accountID,
		Username:  username,
		IssuedAt:  time.Now(),
		ExpiredAt: time.Now().Add(duration),
	}

	ignore := cmpopts.IgnoreFields(Payload{}, "ID")
	delta := cmpopts.EquateApproxTime(time.Second)

	if diff := cmp.Diff(want, payload, ignore, delta); diff != "" {
		t.Errorf("maker.CreateToken(%v, %v, %v) returned unexpected diff: %v", accountID, username, duration, diff)
	}

	if diff := cmp.Diff(payload, got, delta); diff != "" {
		t.Errorf("maker.VerifyToken(%v) returned unexpected diff: %v", token, diff)
	}
}

func TestNewPasetoMakerInvalidKey(t *testing.T) {
	t.Parallel()

	if _, err := NewPasetoMaker(randompkg.String(10)); err == nil {
		t.Errorf("NewPasetoMaker() with short key returned nil error")
	}
}

func TestExpiredPasetoToken(t *testing.T) {
	t.Parallel()

	secretKey := randompkg.String(32)

	maker, err := NewPasetoMaker(secretKey)
	if err != nil {
		t.Fatalf("NewPasetoMaker(%v) returned error: %v", secretKey, err)
	}

	token, _, err := maker.CreateToken(uuid.New(), randompkg.Username(), -time.Minute)
	if err != nil {
		t.Fatalf("maker.CreateToken() returned error: %v", err)
	}

	_, err = maker.VerifyToken(token)
	if err != ErrExpiredToken {
		t.Errorf("maker.VerifyToken(%v) returned unexpected error: %v", token, err)
	}
}

func TestNewMaker(t *testing.T) {
	t.Parallel()

	key := randompkg.String(32)

	testCases := []struct {
		tokenType string
		wantErr   bool
	}{
		{tokenType: TypeJWT},
		{tokenType: TypePaseto},
		{tokenType: ""},
		{tokenType: "unknown", wantErr: true},
	}

	for _, tc := range testCases {
		maker, err := NewMaker(tc.tokenType, key)
		if (err != nil) != tc.wantErr {
			t.Errorf("NewMaker(%q) returned error: %v, wantErr %v", tc.tokenType, err, tc.wantErr)
		}

		if !tc.wantErr && maker == nil {
			t.Errorf("NewMaker(%q) returned nil maker", tc.tokenType)
		}
	}
}
