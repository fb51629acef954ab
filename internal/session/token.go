package session

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// mintLocalToken issues a signed session token for the local dev PIN
// path, shaped like the backend's so the structural checks and
// identity extraction behave identically.
func mintLocalToken(secret []byte) (string, error) {
	claims := jwt.MapClaims{
		"email": "admin@tesconnections.com",
		"role":  "admin",
		"iat":   jwt.NewNumericDate(time.Now()),
		"exp":   jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("session: mint local token: %w", err)
	}
	return signed, nil
}
