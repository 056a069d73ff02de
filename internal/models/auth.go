package models

import "github.com/golang-jwt/jwt/v5"

// RegisterRequest creates an account.
type RegisterRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginRequest holds credentials for authenticating a user.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// JWTClaims is the bearer token payload. Email is the only identity claim.
type JWTClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}
