// Package web defines common components for a web application.
package web

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Response holds the common response type for all APIs.
type Response struct {
	AccessToken           string    `json:"access_token,omitempty"`
	AccessTokenExpiresAt  time.Time `json:"access_token_expires_at,omitempty"`
	RefreshToken          string    `json:"refresh_token,omitempty"`
	RefreshTokenExpiresAt time.Time `json:"refresh_token_expires_at,omitempty"`
	Message               string    `json:"message,omitempty"`
	Data                  any       `json:"data,omitempty"`
	Error                 string    `json:"error,omitempty"`
}

// Error wraps a given err into json friendly struct.
func Error(err error) Response {
	return Response{Error: err.Error()}
}

// GetErrorMsg returns a human readable message for the first failed validation.
func GetErrorMsg(ve validator.ValidationErrors) string {
	if len(ve) == 0 {
		return "invalid request"
	}

	fe := ve[0]

	switch fe.Tag() {
	case "required":
		return fe.Field() + " field is required"
	case "email":
		return fe.Field() + " field must be a valid email"
	case "alphanum":
		return fe.Field() + " field must contain only letters and digits"
	case "min":
		return fmt.Sprintf("%s field must be at least %s", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s field must be at most %s", fe.Field(), fe.Param())
	case "uuid":
		return fe.Field() + " field must be a valid uuid"
	}

	return fe.Field() + " field is invalid"
}
