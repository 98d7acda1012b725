// Package auth provides operator authentication for MakeItFast.
package auth

import "time"

// Operator represents a field inspector account. Operators are
// provisioned out-of-band (seed tooling); there is no self-service signup.
type Operator struct {
	ID        string    `json:"operatorId"`
	Name      string    `json:"name"`
	KeyDigest string    `json:"-"` // SHA-256 hex of the operator key, never exposed
	Disabled  bool      `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// LoginRequest represents the request body for operator login.
type LoginRequest struct {
	OperatorID string `json:"operatorId"`

	// Key is the operator's long-lived secret key. Only its digest is
	// stored server-side.
	Key string `json:"key"`
}

// Validate validates the login request.
func (r *LoginRequest) Validate() []FieldError {
	var errors []FieldError

	if r.OperatorID == "" {
		errors = append(errors, FieldError{
			Field:   "operatorId",
			Message: "operator id is required",
			Code:    "REQUIRED",
		})
	}
	if r.Key == "" {
		errors = append(errors, FieldError{
			Field:   "key",
			Message: "operator key is required",
			Code:    "REQUIRED",
		})
	}

	return errors
}

// FieldError represents a validation error on a specific field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// TokenResponse represents the response after successful authentication.
type TokenResponse struct {
	// AccessToken is the JWT access token for API authentication.
	AccessToken string `json:"accessToken"`

	// TokenType is always "Bearer".
	TokenType string `json:"tokenType"`

	// ExpiresIn is the number of seconds until the access token expires.
	ExpiresIn int64 `json:"expiresIn"`

	// RefreshToken is the opaque token used to obtain new access tokens.
	RefreshToken string `json:"refreshToken,omitempty"`

	// Operator contains the authenticated operator's information.
	Operator *Operator `json:"operator"`
}

// RefreshTokenRequest represents the request to refresh an access token.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// Validate validates the refresh token request.
func (r *RefreshTokenRequest) Validate() []FieldError {
	var errors []FieldError

	if r.RefreshToken == "" {
		errors = append(errors, FieldError{
			Field:   "refreshToken",
			Message: "refresh token is required",
			Code:    "REQUIRED",
		})
	}

	return errors
}
