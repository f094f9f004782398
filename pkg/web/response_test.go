package web

import (
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
)

func TestGetErrorMsg(t *testing.T) {
	type request struct {
		Email    string `validate:"required,email"`
		Username string `validate:"required,alphanum"`
		Password string `validate:"required,min=6"`
	}

	testCases := []struct {
		name string
		req  request
		want string
	}{
		{
			name: "Required",
			req:  request{Username: "user", Password: "secret"},
			want: "Email field is required",
		},
		{
			name: "Email",
			req:  request{Email: "invalid", Username: "user", Password: "secret"},
			want: "Email field must be a valid email",
		},
		{
			name: "Alphanum",
			req:  request{Email: "a@b.com", Username: "user&%", Password: "secret"},
			want: "Username field must contain only letters and digits",
		},
		{
			name: "Min",
			req:  request{Email: "a@b.com", Username: "user", Password: "abc"},
			want: "Password field must be at least 6",
		},
	}

	validate := validator.New()

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			err := validate.Struct(tc.req)

			var ve validator.ValidationErrors
			if !errors.As(err, &ve) {
				t.Fatalf("validate.Struct(%+v) returned %v, want validator.ValidationErrors", tc.req, err)
			}

			if got := GetErrorMsg(ve); got != tc.want {
				t.Errorf("GetErrorMsg() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestError(t *testing.T) {
	got := Error(errors.New("boom"))
	if got.Error != "boom" {
		t.Errorf("Error().Error = %q, want %q", got.Error, "boom")
	}
}
