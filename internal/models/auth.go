package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// RegisterRequest holds the citizen self-registration payload. Registration
// can never create an Official; the role is forced server-side.
type RegisterRequest struct {
	Username        string `json:"username" validate:"required,min=3,max=100"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8"`
	PasswordConfirm string `json:"password_confirm" validate:"required"`
	DOB             string `json:"dob" validate:"omitempty,datetime=2006-01-02"`
	Contact         string `json:"contact"`
	Address         string `json:"address"`
	MunicipalityID  string `json:"municipality_id"`
	IP              string `json:"-"`
	UserAgent       string `json:"-"`
}

// LoginRequest holds credentials for authenticating a user.
type LoginRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
	IP        string `json:"-"`
	UserAgent string `json:"-"`
}

// LoginResponse returns the issued tokens and user info.
type LoginResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresIn    int64     `json:"expires_in"`
	User         UserInfo  `json:"user"`
	IssuedAt     time.Time `json:"issued_at"`
}

// RefreshTokenRequest exchanges a refresh token for a new access token.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
	IP           string `json:"-"`
	UserAgent    string `json:"-"`
}

// RefreshTokenResponse returns the refreshed tokens.
type RefreshTokenResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresIn    int64     `json:"expires_in"`
	IssuedAt     time.Time `json:"issued_at"`
}

// UserInfo describes the authenticated user in responses.
type UserInfo struct {
	ID             string   `json:"id"`
	Username       string   `json:"username"`
	Email          string   `json:"email"`
	Role           UserRole `json:"role"`
	MunicipalityID *string  `json:"municipality_id,omitempty"`
}

// JWTClaims represents the JWT payload for access tokens. Role and
// municipality are computed once at token issuance and carried on every
// request so handlers never re-derive membership.
type JWTClaims struct {
	UserID         string   `json:"user_id"`
	Role           UserRole `json:"role"`
	Email          string   `json:"email"`
	Username       string   `json:"username"`
	MunicipalityID *string  `json:"municipality_id,omitempty"`
	jwt.RegisteredClaims
}
