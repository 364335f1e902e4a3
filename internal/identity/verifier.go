// Package identity verifies operator identity tokens. The engine treats an
// absent or unverifiable identity as "do not subscribe": no feed access
// happens before authentication.
package identity

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Operator is an authenticated console operator.
type Operator struct {
	UID  string
	Name string
}

// Verifier validates HS256-signed operator tokens.
type Verifier struct {
	secret []byte
}

// NewVerifier creates a Verifier for the given shared signing secret.
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Verify parses and validates a token string, returning the operator it
// identifies. The subject claim is required.
func (v *Verifier) Verify(tokenString string) (*Operator, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return v.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse operator token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("unexpected token claims type")
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return nil, errors.New("operator token missing subject")
	}

	op := &Operator{UID: sub}
	if name, ok := claims["name"].(string); ok {
		op.Name = name
	}
	return op, nil
}
