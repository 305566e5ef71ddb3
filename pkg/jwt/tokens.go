package jwt

import (
	"errors"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

// ErrEmptySecret is returned when token operations are attempted without a
// configured signing secret.
var ErrEmptySecret = errors.New("jwt: signing secret is empty")

// Claims defines the identity token payload. The token carries the bcrypt
// hash it was issued against but Parse never re-checks it against the
// credential store, so a token stays valid across a password change. It also
// carries no expiry; it lives as long as the signing secret does.
type Claims struct {
	Username     string `json:"username"`
	PasswordHash string `json:"password_hash"`
	jwtlib.RegisteredClaims
}

// Generate issues a signed identity token for the username and stored hash.
func Generate(username string, passwordHash []byte, secret string) (string, error) {
	if secret == "" {
		return "", ErrEmptySecret
	}
	claims := Claims{
		Username:     username,
		PasswordHash: string(passwordHash),
		RegisteredClaims: jwtlib.RegisteredClaims{
			Issuer:   "lesson-planner",
			IssuedAt: jwtlib.NewNumericDate(time.Now()),
		},
	}
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// Parse validates the token signature and extracts claims. Signature and
// structural validity only; no lookup against live credential state.
func Parse(token string, secret string) (*Claims, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	parsed, err := jwtlib.ParseWithClaims(token, &Claims{}, func(t *jwtlib.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Name}))
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, jwtlib.ErrTokenInvalidClaims
	}
	if claims.Username == "" {
		return nil, jwtlib.ErrTokenInvalidClaims
	}
	return claims, nil
}
