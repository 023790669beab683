package model

import "github.com/golang-jwt/jwt/v5"

// TokenClass distinguishes access from refresh tokens.
type TokenClass string

const (
	AccessToken  TokenClass = "access"
	RefreshToken TokenClass = "refresh"
)

type TokenClaims struct {
	Class TokenClass `json:"typ"`
	jwt.RegisteredClaims
}
