package tokenizer

import "github.com/golang-jwt/jwt/v5"

// SessionClaims combines standard claims with the session class
type SessionClaims struct {
	jwt.RegisteredClaims
	Class string `json:"cls"`
}
