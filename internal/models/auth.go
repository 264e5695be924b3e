package models

import "github.com/golang-jwt/jwt/v5"

// OpsClaims is the JWT payload for service-to-service ops tokens.
type OpsClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}
